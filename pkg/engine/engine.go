// Package engine defines the narrow contract the orchestrator holds
// against a speech-to-text inference engine. Adapters for concrete engines
// live in subpackages.
package engine

import (
	"context"
	"errors"

	"github.com/scribekit/scribekit/pkg/model"
)

// ErrTooLong is returned by Transcribe when the engine refuses the input
// as over-length. It is a routing signal, not a failure: the orchestrator
// reacts by segmenting the audio and retrying per chunk. Adapters must map
// their provider's length condition onto this sentinel so callers match
// with errors.Is instead of inspecting error text.
var ErrTooLong = errors.New("audio exceeds the engine's single-pass length limit")

// Engine is a whole-file transcription capability. Transcribe returns the
// plain transcript text, ErrTooLong for over-length input, or an opaque
// error for anything else. Calls may block for the full inference time;
// the orchestrator dispatches them off the caller's goroutine.
type Engine interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)

	// ModelName identifies the underlying model for result metadata.
	ModelName() string
}

// LongFormEngine is the voice-activity-segmented capability: one call on
// the whole asset, returning timestamped utterances ordered by start time.
// It handles arbitrary length internally, so there is no ErrTooLong here.
type LongFormEngine interface {
	TranscribeLongForm(ctx context.Context, audioPath string) ([]model.Utterance, error)
}

// Options configures an engine adapter.
type Options struct {
	// AuthToken authenticates against the engine's API.
	AuthToken string
	// URL optionally overrides the engine's base endpoint.
	URL string
	// Model optionally overrides the adapter's default model.
	Model string
	// Keywords are domain terms folded into the transcription prompt.
	Keywords []model.AudioKeyword
	// LongFormToken is the optional credential the long-form path needs.
	LongFormToken string
}
