// Package transcribe orchestrates transcription strategies against the
// inference engine: single-pass with chunked fallback, or long-form
// voice-activity-segmented when a credential is available. Requests are
// admitted under a global concurrency cap and a per-request wall-clock
// timeout.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/scribekit/scribekit/pkg/engine"
	"github.com/scribekit/scribekit/pkg/logging"
	"github.com/scribekit/scribekit/pkg/model"
	"github.com/scribekit/scribekit/pkg/store"
	"github.com/scribekit/scribekit/pkg/utils"
)

// ErrLongFormUnavailable is returned by TranscribeLong when no long-form
// engine was configured.
var ErrLongFormUnavailable = errors.New("long-form transcription is not configured")

// Segmenter is the slice of the media adapter the chunked fallback needs.
type Segmenter interface {
	Segment(ctx context.Context, input, outputDir string, chunkSeconds int) ([]string, error)
	ProbeDuration(ctx context.Context, path string) float64
}

// Outcome is the tagged result of automatic strategy selection: exactly one
// of Result (auto-chunked strategy) or LongResult (long-form strategy) is
// set.
type Outcome struct {
	Result     *model.TranscriptionResult
	LongResult *model.LongTranscriptionResult
}

type Service struct {
	eng           engine.Engine
	longEng       engine.LongFormEngine
	segmenter     Segmenter
	assetStore    *store.Store
	chunkSeconds  int
	longFormToken string
	taskTimeout   time.Duration
	sem           *semaphore.Weighted
}

type Option func(*Service)

// WithLongForm enables the long-form strategy. The token is the optional
// credential the engine needs for voice-activity segmentation; an empty
// token keeps strategy selection on the auto-chunked path.
func WithLongForm(longEng engine.LongFormEngine, token string) Option {
	return func(s *Service) {
		s.longEng = longEng
		s.longFormToken = token
	}
}

// WithChunkSeconds overrides the fallback chunk length (default 20).
func WithChunkSeconds(seconds int) Option {
	return func(s *Service) {
		s.chunkSeconds = seconds
	}
}

// WithTaskTimeout overrides the per-request wall-clock timeout.
func WithTaskTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.taskTimeout = d
	}
}

// New builds the orchestrator. maxConcurrent bounds simultaneously
// in-flight requests across the whole process; excess requests wait.
func New(eng engine.Engine, segmenter Segmenter, assetStore *store.Store, maxConcurrent int, opts ...Option) *Service {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	s := &Service{
		eng:          eng,
		segmenter:    segmenter,
		assetStore:   assetStore,
		chunkSeconds: 20,
		taskTimeout:  300 * time.Second,
		sem:          semaphore.NewWeighted(int64(maxConcurrent)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TranscribeAuto selects a strategy once per request: long-form when the
// credential is configured, auto-chunked otherwise. The branch is one-shot;
// neither strategy is retried as the other.
func (s *Service) TranscribeAuto(ctx context.Context, asset *model.AudioAsset) (*Outcome, error) {
	ctx, release, err := s.admit(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	duration := asset.Duration
	if duration == 0 {
		duration = s.segmenter.ProbeDuration(ctx, asset.Path)
	}

	log := logging.NewLogger(ctx)
	if s.longEng != nil && s.longFormToken != "" {
		log.Infof("using long-form voice-activity transcription (%.2fs)", duration)
		longResult, err := s.transcribeLong(ctx, asset)
		if err != nil {
			return nil, err
		}
		return &Outcome{LongResult: longResult}, nil
	}

	log.Infof("using auto-chunked transcription (%.2fs)", duration)
	return &Outcome{Result: s.transcribe(ctx, asset)}, nil
}

// Transcribe runs the auto-chunked strategy: one whole-file inference
// attempt, falling back to fixed-length chunking when the engine signals
// over-length input. All failures are folded into the returned result.
func (s *Service) Transcribe(ctx context.Context, asset *model.AudioAsset) (*model.TranscriptionResult, error) {
	ctx, release, err := s.admit(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	return s.transcribe(ctx, asset), nil
}

// TranscribeLong runs the long-form strategy: a single voice-activity
// segmented inference call on the whole asset. Engine failures propagate;
// there is no chunked fallback here.
func (s *Service) TranscribeLong(ctx context.Context, asset *model.AudioAsset) (*model.LongTranscriptionResult, error) {
	ctx, release, err := s.admit(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	return s.transcribeLong(ctx, asset)
}

// admit applies the per-request timeout and takes a slot under the global
// cap. The returned release function must be called exactly once.
func (s *Service) admit(parent context.Context) (context.Context, func(), error) {
	ctx, cancel := context.WithTimeout(parent, s.taskTimeout)
	if err := s.sem.Acquire(ctx, 1); err != nil {
		cancel()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, nil, errors.New("transcription timed out while queued")
		}
		return nil, nil, errors.New("transcription queue is full: " + err.Error())
	}
	return ctx, func() {
		s.sem.Release(1)
		cancel()
	}, nil
}

func (s *Service) transcribe(ctx context.Context, asset *model.AudioAsset) *model.TranscriptionResult {
	start := time.Now()

	text, err := s.invoke(ctx, asset.Path)
	if err == nil {
		elapsed := time.Since(start)
		logging.NewLogger(ctx).Infof("transcription finished in %.2fs", elapsed.Seconds())
		return &model.TranscriptionResult{
			Text:           text,
			ProcessingTime: elapsed,
			ModelName:      s.eng.ModelName(),
		}
	}

	if errors.Is(err, engine.ErrTooLong) {
		logging.NewLogger(ctx).Warnf("audio too long for single pass, splitting into chunks")
		return s.transcribeChunked(ctx, asset, start)
	}

	return s.failure(ctx, err, "", start)
}

// transcribeChunked is entered at most once per request, only from the
// whole-file too-long signal. The scratch chunk directory never outlives
// this call.
func (s *Service) transcribeChunked(ctx context.Context, asset *model.AudioAsset, start time.Time) *model.TranscriptionResult {
	log := logging.NewLogger(ctx)

	chunkDir, err := s.assetStore.TempDir("chunks")
	if err != nil {
		return s.failure(ctx, err, "", start)
	}
	defer s.assetStore.RemoveAll(ctx, chunkDir)

	chunks, err := s.segmenter.Segment(ctx, asset.Path, chunkDir, s.chunkSeconds)
	if err != nil {
		return s.failure(ctx, err, "", start)
	}
	log.Infof("audio split into %d chunks", len(chunks))

	var texts []string
	for i, chunkPath := range chunks {
		log.Infof("transcribing chunk %d/%d", i+1, len(chunks))

		text, err := s.invoke(ctx, chunkPath)
		if err != nil {
			// Terminal for the whole request; everything assembled so
			// far still reaches the caller.
			return s.failure(ctx, err, strings.Join(texts, " "), start)
		}
		if text != "" {
			texts = append(texts, text)
		}
	}

	elapsed := time.Since(start)
	log.Infof("chunked transcription finished in %.2fs", elapsed.Seconds())
	return &model.TranscriptionResult{
		Text:           strings.Join(texts, " "),
		ProcessingTime: elapsed,
		ModelName:      s.eng.ModelName(),
	}
}

func (s *Service) transcribeLong(ctx context.Context, asset *model.AudioAsset) (*model.LongTranscriptionResult, error) {
	start := time.Now()

	type longResult struct {
		utterances []model.Utterance
		err        error
	}
	resultCh := make(chan longResult, 1)
	go func() {
		defer s.recoverEnginePanic(ctx, func(err error) {
			resultCh <- longResult{err: err}
		})
		utterances, err := s.longEngine().TranscribeLongForm(ctx, asset.Path)
		resultCh <- longResult{utterances: utterances, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-resultCh:
		if r.err != nil {
			logging.NewLogger(ctx).Errorf("long-form transcription failed: %v", r.err)
			return nil, r.err
		}
		logging.NewLogger(ctx).Infof("long-form transcription finished in %.2fs", time.Since(start).Seconds())
		return model.NewLongTranscriptionResult(r.utterances), nil
	}
}

func (s *Service) longEngine() engine.LongFormEngine {
	if s.longEng == nil {
		return unavailableLongForm{}
	}
	return s.longEng
}

type unavailableLongForm struct{}

func (unavailableLongForm) TranscribeLongForm(context.Context, string) ([]model.Utterance, error) {
	return nil, ErrLongFormUnavailable
}

// invoke dispatches a potentially minutes-long, accelerator-bound engine
// call to its own goroutine and waits on it or on cancellation, so one
// request never stalls the rest.
func (s *Service) invoke(ctx context.Context, audioPath string) (string, error) {
	type engineResult struct {
		text string
		err  error
	}
	resultCh := make(chan engineResult, 1)
	go func() {
		defer s.recoverEnginePanic(ctx, func(err error) {
			resultCh <- engineResult{err: err}
		})
		text, err := s.eng.Transcribe(ctx, audioPath)
		resultCh <- engineResult{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-resultCh:
		return r.text, r.err
	}
}

// recoverEnginePanic converts a panic inside an engine adapter into an
// ordinary failure so the request's cleanup defers still run.
func (s *Service) recoverEnginePanic(ctx context.Context, deliver func(error)) {
	if r := recover(); r != nil {
		utils.PrintStack("engine panic", logging.NewLogger(ctx))
		deliver(fmt.Errorf("engine panic: %v", r))
	}
}

func (s *Service) failure(ctx context.Context, err error, partialText string, start time.Time) *model.TranscriptionResult {
	message := err.Error()
	if errors.Is(err, context.DeadlineExceeded) {
		message = "transcription timed out"
	}
	logging.NewLogger(ctx).Errorf("transcription failed: %v", err)

	return &model.TranscriptionResult{
		Text:           partialText,
		ProcessingTime: time.Since(start),
		ModelName:      s.eng.ModelName(),
		Err:            message,
	}
}
