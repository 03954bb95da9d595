package sequence

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSortKeepsEmissionOrderForTies(t *testing.T) {
	events := []Event{
		Speaking(2000, "kristine", StateOff),
		Speaking(0, "kristine", StateOn),
		Speaking(1000, "jacob", StateOff),
		Speaking(1000, "sam", StateOn),
	}
	Sort(events)
	want := []struct {
		time  int
		box   string
		state State
	}{
		{0, "kristine", StateOn},
		{1000, "jacob", StateOff},
		{1000, "sam", StateOn},
		{2000, "kristine", StateOff},
	}
	for i, w := range want {
		got := events[i]
		if got.Time != w.time || got.Box != w.box || got.State != w.state {
			t.Fatalf("event %d: got %+v want %+v", i, got, w)
		}
	}
}

func TestMarshalJSONMatchesSequencerLayout(t *testing.T) {
	data, err := Marshal([]Event{Speaking(340, "kristine", StateOn)}, FormatJSON)
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	want := `[
  {
    "time": 340,
    "box": "kristine",
    "action": "anim",
    "type": "speaking",
    "state": "on"
  }
]
`
	if string(data) != want {
		t.Fatalf("unexpected json:\n%s", data)
	}

	empty, err := Marshal(nil, FormatJSON)
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	if strings.TrimSpace(string(empty)) != "[]" {
		t.Fatalf("expected empty array, got %q", empty)
	}
}

func TestWriteAndLoadBothFormats(t *testing.T) {
	dir := t.TempDir()
	events := []Event{Speaking(0, "jacob", StateOn), Speaking(1500, "jacob", StateOff)}
	for _, name := range []string{"show_sequence.json", "show_sequence.yaml"} {
		path := filepath.Join(dir, "www", name)
		if err := Write(path, FormatForPath(path), events); err != nil {
			t.Fatalf("%s: Write returned error: %v", name, err)
		}
		loaded, err := Load(path)
		if err != nil {
			t.Fatalf("%s: Load returned error: %v", name, err)
		}
		if len(loaded) != 2 || loaded[1] != events[1] {
			t.Fatalf("%s: unexpected events %+v", name, loaded)
		}
	}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{"": FormatJSON, "JSON": FormatJSON, "yml": FormatYAML, "yaml": FormatYAML}
	for input, want := range cases {
		got, err := ParseFormat(input)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v", input, got, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Fatal("expected error for xml")
	}
}

func TestValidateAcceptsWrittenSequence(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatYAML} {
		data, err := Marshal([]Event{Speaking(0, "sam", StateOn), Speaking(0, "sam", StateOff)}, format)
		if err != nil {
			t.Fatalf("Marshal returned error: %v", err)
		}
		problems, err := ValidateBytes(data, format)
		if err != nil {
			t.Fatalf("%s: ValidateBytes returned error: %v", format, err)
		}
		if len(problems) != 0 {
			t.Fatalf("%s: expected no problems, got %v", format, problems)
		}
	}
}

func TestValidateReportsSchemaViolations(t *testing.T) {
	data := []byte(`[{"time": -5, "box": "sam", "state": "on"}, {"time": 10, "box": "", "state": "blink"}]`)
	problems, err := ValidateBytes(data, FormatJSON)
	if err != nil {
		t.Fatalf("ValidateBytes returned error: %v", err)
	}
	locations := map[string]bool{}
	for _, p := range problems {
		locations[p.Location] = true
	}
	for _, want := range []string{"/0/time", "/1/box", "/1/state"} {
		if !locations[want] {
			t.Fatalf("expected problem at %s, got %v", want, problems)
		}
	}
}

func TestValidateReportsOrdering(t *testing.T) {
	data := []byte("- {time: 500, box: sam, state: on}\n- {time: 200, box: sam, state: off}\n")
	problems, err := ValidateBytes(data, FormatYAML)
	if err != nil {
		t.Fatalf("ValidateBytes returned error: %v", err)
	}
	if len(problems) != 1 || problems[0].Location != "/1/time" {
		t.Fatalf("expected one ordering problem at /1/time, got %v", problems)
	}
	if !strings.Contains(problems[0].String(), "precedes previous cue at 500") {
		t.Fatalf("unexpected message: %s", problems[0])
	}
}

func TestValidateFileParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte("[{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ValidateFile(path); err == nil {
		t.Fatal("expected parse error")
	}
}
