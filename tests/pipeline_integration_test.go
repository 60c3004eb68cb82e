package tests

import (
	"context"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/scribekit/scribekit/pkg/ffmpeg"
	"github.com/scribekit/scribekit/pkg/prepare"
	"github.com/scribekit/scribekit/pkg/store"
)

// FFmpegPipelineSuite exercises the preparation pipeline against the real
// ffmpeg binary. Skipped when ffmpeg/ffprobe are not installed.
type FFmpegPipelineSuite struct {
	ExternalDependenciesSuite

	assetStore *store.Store
	transcoder *ffmpeg.FFmpeg
	pipeline   *prepare.Pipeline
}

func (s *FFmpegPipelineSuite) SetupSuite() {
	s.ExternalDependenciesSuite.SetupSuite()

	if err := ffmpeg.LookPath(); err != nil {
		s.T().Skipf("ffmpeg is not installed (%v); skipping pipeline integration test", err)
	}
}

func (s *FFmpegPipelineSuite) SetupTest() {
	assetStore, err := store.New(filepath.Join(s.T().TempDir(), "scratch"))
	require.NoError(s.T(), err)

	s.assetStore = assetStore
	s.transcoder = ffmpeg.New(ffmpeg.WithTimeout(60 * time.Second))
	s.pipeline = prepare.New(assetStore, s.transcoder, 100, 16000, 1)
}

// synthesizeAudio renders a sine tone of the given length with ffmpeg.
func (s *FFmpegPipelineSuite) synthesizeAudio(path string, seconds int) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y",
		"-f", "lavfi",
		"-i", "sine=frequency=440:duration="+strconv.Itoa(seconds),
		"-ar", "16000", "-ac", "1",
		path,
	)
	require.NoError(s.T(), cmd.Run(), "synthesizing test audio")
}

func (s *FFmpegPipelineSuite) TestPrepareAudioProducesCanonicalWAV() {
	ctx := context.Background()

	input := filepath.Join(s.T().TempDir(), "tone.mp3")
	s.synthesizeAudio(input, 3)

	asset, err := s.pipeline.PrepareAudio(ctx, input, 1, 1)
	require.NoError(s.T(), err)
	defer s.pipeline.Release(ctx, asset)

	assert.FileExists(s.T(), asset.Path)
	assert.NoFileExists(s.T(), input, "original is deleted after preparation")
	assert.InDelta(s.T(), 3.0, asset.Duration, 0.5)
	assert.Equal(s.T(), 16000, asset.SampleRate)
}

func (s *FFmpegPipelineSuite) TestSegmentCoversWholeDuration() {
	ctx := context.Background()

	input := filepath.Join(s.assetStore.Dir(), "long.wav")
	s.synthesizeAudio(input, 7)

	chunkDir, err := s.assetStore.TempDir("chunks")
	require.NoError(s.T(), err)
	defer s.assetStore.RemoveAll(ctx, chunkDir)

	chunkSeconds := 2
	chunks, err := s.transcoder.Segment(ctx, input, chunkDir, chunkSeconds)
	require.NoError(s.T(), err)

	duration := s.transcoder.ProbeDuration(ctx, input)
	require.Greater(s.T(), duration, 0.0)

	expected := int(math.Ceil(duration / float64(chunkSeconds)))
	assert.Len(s.T(), chunks, expected)

	// Chunk durations must account for the full input without gaps.
	total := 0.0
	for _, chunk := range chunks {
		total += s.transcoder.ProbeDuration(ctx, chunk)
	}
	assert.InDelta(s.T(), duration, total, 0.5)
}

func (s *FFmpegPipelineSuite) TestPrepareVideoExtractsAudioTrack() {
	ctx := context.Background()

	input := filepath.Join(s.T().TempDir(), "clip.mp4")
	cmd := exec.Command("ffmpeg",
		"-y",
		"-f", "lavfi", "-i", "testsrc=duration=2:size=128x96:rate=10",
		"-f", "lavfi", "-i", "sine=frequency=440:duration=2",
		"-shortest",
		input,
	)
	require.NoError(s.T(), cmd.Run(), "synthesizing test video")

	asset, err := s.pipeline.PrepareVideo(ctx, input, 1, 2)
	require.NoError(s.T(), err)
	defer s.pipeline.Release(ctx, asset)

	assert.FileExists(s.T(), asset.Path)
	assert.NoFileExists(s.T(), input)
	assert.InDelta(s.T(), 2.0, asset.Duration, 0.5)
}

func (s *FFmpegPipelineSuite) TestPrepareVoiceFromBytes() {
	ctx := context.Background()

	source := filepath.Join(s.T().TempDir(), "voice.ogg")
	s.synthesizeAudio(source, 2)
	data, err := os.ReadFile(source)
	require.NoError(s.T(), err)

	asset, err := s.pipeline.PrepareVoice(ctx, data, 42, 9)
	require.NoError(s.T(), err)
	defer s.pipeline.Release(ctx, asset)

	assert.FileExists(s.T(), asset.Path)
	assert.Equal(s.T(), int64(42), asset.UserID)

	entries, err := os.ReadDir(s.assetStore.Dir())
	require.NoError(s.T(), err)
	assert.Len(s.T(), entries, 1, "only the canonical asset remains in scratch")
}

func TestFFmpegPipelineSuite(t *testing.T) {
	suite.Run(t, new(FFmpegPipelineSuite))
}
