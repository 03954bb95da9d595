package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"lockbox/internal/fileutil"
	"lockbox/internal/media/ffprobe"
	"lockbox/internal/pcm"
)

var commandContext = exec.CommandContext

// ErrEmptyPath is returned when an input or output path is blank.
var ErrEmptyPath = errors.New("empty path")

const (
	defaultCodec   = "libmp3lame"
	defaultBitrate = "128k"
)

type inspectFunc func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// Option configures a Client.
type Option func(*Client)

// WithBinary overrides the ffmpeg binary.
func WithBinary(binary string) Option {
	return func(c *Client) {
		if strings.TrimSpace(binary) != "" {
			c.binary = binary
		}
	}
}

// WithInspectBinary overrides the ffprobe binary.
func WithInspectBinary(binary string) Option {
	return func(c *Client) {
		if strings.TrimSpace(binary) != "" {
			c.inspectBinary = binary
		}
	}
}

// WithCodec sets the audio encoder used by Encode.
func WithCodec(codec string) Option {
	return func(c *Client) {
		if strings.TrimSpace(codec) != "" {
			c.codec = codec
		}
	}
}

// WithBitrate sets the encoder bitrate (e.g. "128k").
func WithBitrate(bitrate string) Option {
	return func(c *Client) {
		if strings.TrimSpace(bitrate) != "" {
			c.bitrate = bitrate
		}
	}
}

// Client wraps the ffmpeg and ffprobe command-line tools.
type Client struct {
	binary        string
	inspectBinary string
	codec         string
	bitrate       string
	inspect       inspectFunc
}

// New constructs a Client using defaults.
func New(opts ...Option) *Client {
	c := &Client{
		binary:        "ffmpeg",
		inspectBinary: "ffprobe",
		codec:         defaultCodec,
		bitrate:       defaultBitrate,
		inspect:       ffprobe.Inspect,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Describe reports the sample layout and duration of the first audio stream.
func (c *Client) Describe(ctx context.Context, path string) (pcm.Format, int, error) {
	if strings.TrimSpace(path) == "" {
		return pcm.Format{}, 0, fmt.Errorf("ffmpeg inspect: %w", ErrEmptyPath)
	}
	result, err := c.inspect(ctx, c.inspectBinary, path)
	if err != nil {
		return pcm.Format{}, 0, err
	}
	stream, err := result.AudioStream()
	if err != nil {
		return pcm.Format{}, 0, fmt.Errorf("ffmpeg inspect %s: %w", path, err)
	}
	format := pcm.Format{SampleRate: stream.SampleRateHz(), Channels: stream.Channels}
	if err := format.Validate(); err != nil {
		return pcm.Format{}, 0, fmt.Errorf("ffmpeg inspect %s: %w", path, err)
	}
	return format, result.DurationMs(), nil
}

// Decode decodes path at its native sample rate and channel count.
func (c *Client) Decode(ctx context.Context, path string) (*pcm.Buffer, error) {
	format, _, err := c.Describe(ctx, path)
	if err != nil {
		return nil, err
	}
	return c.DecodeAs(ctx, path, format)
}

// DecodeAs decodes path, resampling and remixing to format.
func (c *Client) DecodeAs(ctx context.Context, path string, format pcm.Format) (*pcm.Buffer, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("ffmpeg decode: %w", ErrEmptyPath)
	}
	if err := format.Validate(); err != nil {
		return nil, fmt.Errorf("ffmpeg decode: %w", err)
	}
	args := []string{
		"-hide_banner", "-nostdin", "-v", "error",
		"-i", path,
		"-vn",
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ac", strconv.Itoa(format.Channels),
		"-ar", strconv.Itoa(format.SampleRate),
		"-",
	}
	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg decode %s: %w: %s", path, err, strings.TrimSpace(stderr.String()))
	}
	buf, err := pcm.FromS16LE(stdout.Bytes(), format)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg decode %s: %w", path, err)
	}
	return buf, nil
}

// Encode writes buf to path using the configured codec and bitrate,
// creating the parent directory when needed.
func (c *Client) Encode(ctx context.Context, buf *pcm.Buffer, path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("ffmpeg encode: %w", ErrEmptyPath)
	}
	if buf == nil {
		return errors.New("ffmpeg encode: nil buffer")
	}
	if err := buf.Format.Validate(); err != nil {
		return fmt.Errorf("ffmpeg encode: %w", err)
	}
	if err := fileutil.EnsureParentDir(path); err != nil {
		return err
	}
	args := []string{
		"-hide_banner", "-v", "error", "-y",
		"-f", "s16le",
		"-ar", strconv.Itoa(buf.Format.SampleRate),
		"-ac", strconv.Itoa(buf.Format.Channels),
		"-i", "-",
		"-c:a", c.codec,
		"-b:a", c.bitrate,
		path,
	}
	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	cmd.Stdin = bytes.NewReader(buf.S16LE())
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg encode %s: %w: %s", path, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// Filter runs an audio filter chain from input to output, resampling to
// sampleRate when it is positive.
func (c *Client) Filter(ctx context.Context, input, output, chain string, sampleRate int) error {
	if strings.TrimSpace(input) == "" || strings.TrimSpace(output) == "" {
		return fmt.Errorf("ffmpeg filter: %w", ErrEmptyPath)
	}
	if err := fileutil.EnsureParentDir(output); err != nil {
		return err
	}
	args := []string{"-hide_banner", "-nostdin", "-v", "error", "-y", "-i", input}
	if strings.TrimSpace(chain) != "" {
		args = append(args, "-filter:a", chain)
	}
	if sampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(sampleRate))
	}
	args = append(args, output)
	return c.run(ctx, "filter "+input, args)
}

// ExtractWAV writes a PCM WAV copy of input with the given layout.
func (c *Client) ExtractWAV(ctx context.Context, input, output string, format pcm.Format) error {
	if strings.TrimSpace(input) == "" || strings.TrimSpace(output) == "" {
		return fmt.Errorf("ffmpeg extract: %w", ErrEmptyPath)
	}
	if err := format.Validate(); err != nil {
		return fmt.Errorf("ffmpeg extract: %w", err)
	}
	if err := fileutil.EnsureParentDir(output); err != nil {
		return err
	}
	args := []string{
		"-hide_banner", "-nostdin", "-v", "error", "-y",
		"-i", input,
		"-vn",
		"-ac", strconv.Itoa(format.Channels),
		"-ar", strconv.Itoa(format.SampleRate),
		"-c:a", "pcm_s16le",
		output,
	}
	return c.run(ctx, "extract "+input, args)
}

func (c *Client) run(ctx context.Context, label string, args []string) error {
	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg %s: %w: %s", label, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
