// Package ffmpeg shells out to the external ffmpeg/ffprobe binaries for
// transcoding, audio extraction, duration probing and fixed-length
// segmentation. Every invocation runs under a bounded wait; a non-zero
// exit or timeout surfaces as a *TranscodeError carrying the tool's
// diagnostic output.
package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/scribekit/scribekit/pkg/logging"
)

const defaultTimeout = 300 * time.Second

// TranscodeError is raised when an external tool invocation fails. Detail
// holds the tool's stderr output when available.
type TranscodeError struct {
	Op     string
	Detail string
	Err    error
}

func (e *TranscodeError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s failed: %s", e.Op, e.Detail)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *TranscodeError) Unwrap() error {
	return e.Err
}

type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out, errOut strings.Builder
	cmd.Stdout = &out
	cmd.Stderr = &errOut
	err := cmd.Run()
	return []byte(out.String()), []byte(errOut.String()), err
}

// FFmpeg invokes the external transcoding tool. The zero value is not
// usable; construct with New.
type FFmpeg struct {
	timeout time.Duration
	runner  commandRunner
}

type Option func(*FFmpeg)

// WithTimeout overrides the per-invocation bounded wait.
func WithTimeout(d time.Duration) Option {
	return func(f *FFmpeg) {
		f.timeout = d
	}
}

// WithRunner substitutes the subprocess runner, for tests.
func WithRunner(r commandRunner) Option {
	return func(f *FFmpeg) {
		f.runner = r
	}
}

func New(opts ...Option) *FFmpeg {
	f := &FFmpeg{
		timeout: defaultTimeout,
		runner:  execRunner{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// LookPath verifies the ffmpeg and ffprobe binaries are reachable.
func LookPath() error {
	for _, tool := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(tool); err != nil {
			return fmt.Errorf("%s not found in PATH: %w", tool, err)
		}
	}
	return nil
}

// Convert transcodes arbitrary audio into canonical mono PCM WAV at the
// given sample rate.
func (f *FFmpeg) Convert(ctx context.Context, input, output string, sampleRate, channels int) error {
	args := []string{
		"-y",
		"-i", input,
		"-ar", strconv.Itoa(sampleRate),
		"-ac", strconv.Itoa(channels),
		"-f", "wav",
		output,
	}
	logging.NewLogger(ctx).Debugf("converting %s -> %s", input, output)
	return f.run(ctx, "convert audio", "ffmpeg", args...)
}

// ExtractAudio drops the video stream and writes the audio track as
// canonical mono PCM WAV.
func (f *FFmpeg) ExtractAudio(ctx context.Context, videoInput, output string, sampleRate, channels int) error {
	args := []string{
		"-y",
		"-i", videoInput,
		"-vn",
		"-ar", strconv.Itoa(sampleRate),
		"-ac", strconv.Itoa(channels),
		"-f", "wav",
		output,
	}
	logging.NewLogger(ctx).Debugf("extracting audio %s -> %s", videoInput, output)
	return f.run(ctx, "extract audio", "ffmpeg", args...)
}

// ProbeDuration returns the container-reported duration in seconds. The
// duration is advisory: probe failures log and return 0 rather than error,
// and callers must tolerate 0.
func (f *FFmpeg) ProbeDuration(ctx context.Context, path string) float64 {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	stdout, _, err := f.runner.Run(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		logging.NewLogger(ctx).Errorf("probe duration of %s: %v", path, err)
		return 0.0
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(stdout)), 64)
	if err != nil {
		logging.NewLogger(ctx).Errorf("parse probed duration of %s: %v", path, err)
		return 0.0
	}
	return duration
}

// Segment splits audio into consecutive fixed-length chunks without
// re-encoding, writing zero-padded sequential filenames into outputDir.
// The returned paths are sorted by filename, which is time order.
func (f *FFmpeg) Segment(ctx context.Context, input, outputDir string, chunkSeconds int) ([]string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, &TranscodeError{Op: "segment audio", Err: err}
	}

	args := []string{
		"-i", input,
		"-f", "segment",
		"-segment_time", strconv.Itoa(chunkSeconds),
		"-c", "copy",
		"-reset_timestamps", "1",
		filepath.Join(outputDir, "chunk_%03d.wav"),
	}
	logging.NewLogger(ctx).Debugf("segmenting %s into %ds chunks", input, chunkSeconds)
	if err := f.run(ctx, "segment audio", "ffmpeg", args...); err != nil {
		return nil, err
	}

	chunks, err := filepath.Glob(filepath.Join(outputDir, "chunk_*.wav"))
	if err != nil {
		return nil, &TranscodeError{Op: "segment audio", Err: err}
	}
	// Sort by sequence number, not filename: the %03d padding overflows to
	// four digits past chunk_999 and a lexical sort would misorder those.
	sort.Slice(chunks, func(i, j int) bool {
		return chunkIndex(chunks[i]) < chunkIndex(chunks[j])
	})

	logging.NewLogger(ctx).Infof("segmented %s into %d chunks", input, len(chunks))
	return chunks, nil
}

func chunkIndex(path string) int {
	name := strings.TrimSuffix(filepath.Base(path), ".wav")
	n, err := strconv.Atoi(strings.TrimPrefix(name, "chunk_"))
	if err != nil {
		return -1
	}
	return n
}

func (f *FFmpeg) run(ctx context.Context, op, tool string, args ...string) error {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	_, stderr, err := f.runner.Run(ctx, tool, args...)
	if err == nil {
		return nil
	}

	detail := strings.TrimSpace(string(stderr))
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		detail = "timed out after " + f.timeout.String()
	}
	logging.NewLogger(ctx).Errorf("%s: %v (%s)", op, err, detail)
	return &TranscodeError{Op: op, Detail: detail, Err: err}
}
