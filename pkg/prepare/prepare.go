// Package prepare turns inbound media into canonical audio assets. Each
// entry point validates, transcodes, probes duration and unconditionally
// deletes the original input artifact on every exit path. Ownership of the
// produced WAV passes to the caller, which releases it after transcription.
package prepare

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/scribekit/scribekit/pkg/logging"
	"github.com/scribekit/scribekit/pkg/model"
	"github.com/scribekit/scribekit/pkg/store"
	"github.com/scribekit/scribekit/pkg/validate"
)

// Transcoder is the slice of the media adapter the pipeline needs.
type Transcoder interface {
	Convert(ctx context.Context, input, output string, sampleRate, channels int) error
	ExtractAudio(ctx context.Context, videoInput, output string, sampleRate, channels int) error
	ProbeDuration(ctx context.Context, path string) float64
}

type Pipeline struct {
	store         *store.Store
	transcoder    Transcoder
	maxFileSizeMB int
	sampleRate    int
	channels      int
}

func New(assetStore *store.Store, transcoder Transcoder, maxFileSizeMB, sampleRate, channels int) *Pipeline {
	return &Pipeline{
		store:         assetStore,
		transcoder:    transcoder,
		maxFileSizeMB: maxFileSizeMB,
		sampleRate:    sampleRate,
		channels:      channels,
	}
}

// PrepareVoice persists raw voice-clip bytes to a scratch file and reduces
// them to a canonical asset. The scratch original is deleted before return,
// success or failure.
func (p *Pipeline) PrepareVoice(ctx context.Context, data []byte, userID, messageID int64) (*model.AudioAsset, error) {
	originalPath := p.store.TempPath(fmt.Sprintf("voice_%d", userID), "ogg")
	// Registered before the write: a failed write can still leave a partial
	// file behind, and that partial must not outlive the request.
	defer p.store.Remove(ctx, originalPath)

	if err := p.store.SaveBytes(ctx, data, originalPath); err != nil {
		return nil, err
	}

	if !validate.ValidSize(originalPath, p.maxFileSizeMB) {
		return nil, validate.NewError("file is too large (maximum %d MB)", p.maxFileSizeMB)
	}

	return p.toCanonical(ctx, originalPath, userID, messageID, p.transcoder.Convert)
}

// PrepareAudio reduces an already-downloaded audio file to a canonical
// asset and deletes the original regardless of outcome. The extension is
// checked before the size so a wrong extension short-circuits without a
// stat.
func (p *Pipeline) PrepareAudio(ctx context.Context, audioPath string, userID, messageID int64) (*model.AudioAsset, error) {
	defer p.store.Remove(ctx, audioPath)

	if !validate.ValidAudioExt(audioPath) {
		return nil, validate.NewError("unsupported audio file format")
	}
	if !validate.ValidSize(audioPath, p.maxFileSizeMB) {
		return nil, validate.NewError("file is too large (maximum %d MB)", p.maxFileSizeMB)
	}

	return p.toCanonical(ctx, audioPath, userID, messageID, p.transcoder.Convert)
}

// PrepareVideo extracts the audio track from an already-downloaded video
// file and deletes the original regardless of outcome.
func (p *Pipeline) PrepareVideo(ctx context.Context, videoPath string, userID, messageID int64) (*model.AudioAsset, error) {
	defer p.store.Remove(ctx, videoPath)

	if !validate.ValidVideoExt(videoPath) {
		return nil, validate.NewError("unsupported video file format")
	}
	if !validate.ValidSize(videoPath, p.maxFileSizeMB) {
		return nil, validate.NewError("file is too large (maximum %d MB)", p.maxFileSizeMB)
	}

	return p.toCanonical(ctx, videoPath, userID, messageID, p.transcoder.ExtractAudio)
}

// Release deletes a canonical asset once its owner is done with it.
func (p *Pipeline) Release(ctx context.Context, asset *model.AudioAsset) {
	if asset == nil {
		return
	}
	p.store.Remove(ctx, asset.Path)
}

type transcodeFunc func(ctx context.Context, input, output string, sampleRate, channels int) error

func (p *Pipeline) toCanonical(
	ctx context.Context,
	inputPath string,
	userID, messageID int64,
	transcode transcodeFunc,
) (*model.AudioAsset, error) {
	wavPath := p.store.TempPath(fmt.Sprintf("audio_%d", userID), "wav")

	if err := transcode(ctx, inputPath, wavPath, p.sampleRate, p.channels); err != nil {
		// A half-written output must never survive as a valid asset.
		p.store.Remove(ctx, wavPath)
		return nil, err
	}

	duration := p.transcoder.ProbeDuration(ctx, wavPath)

	var sizeBytes int64
	if info, err := os.Stat(wavPath); err == nil {
		sizeBytes = info.Size()
	}

	logging.NewLogger(ctx).Infof(
		"media prepared: user=%d message=%d duration=%.2fs",
		userID, messageID, duration,
	)

	return &model.AudioAsset{
		Path:       wavPath,
		Duration:   duration,
		SampleRate: p.sampleRate,
		Channels:   p.channels,
		SizeBytes:  sizeBytes,
		UserID:     userID,
		MessageID:  messageID,
		CreatedAt:  time.Now(),
	}, nil
}
