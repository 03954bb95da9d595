package logging

import "testing"

func TestProgressSamplerEmitsPerBucket(t *testing.T) {
	s := NewProgressSampler(25)
	var logged []int
	for done := 1; done <= 10; done++ {
		if s.ShouldLog(done, 10) {
			logged = append(logged, done)
		}
	}
	// 10% opens bucket 0; 30%, 50% and 80% cross buckets; 100% always logs.
	want := []int{1, 3, 5, 8, 10}
	if len(logged) != len(want) {
		t.Fatalf("logged %v, want %v", logged, want)
	}
	for i := range want {
		if logged[i] != want[i] {
			t.Fatalf("logged %v, want %v", logged, want)
		}
	}
}

func TestProgressSamplerDefaultsAndNil(t *testing.T) {
	if s := NewProgressSampler(0); s.bucketSize != 10 {
		t.Fatalf("bucketSize = %v, want 10", s.bucketSize)
	}
	var s *ProgressSampler
	if !s.ShouldLog(1, 100) {
		t.Fatal("nil sampler should always log")
	}
	if !NewProgressSampler(10).ShouldLog(0, 0) {
		t.Fatal("empty batch should log")
	}
	if Percent(1, 4) != 25 || Percent(3, 0) != 0 {
		t.Fatal("unexpected Percent result")
	}
}
