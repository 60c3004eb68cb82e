package model

import (
	"fmt"
	"strings"
	"time"
)

// TranscriptionResult is the outcome of the single-pass / chunked-fallback
// strategy. Exactly one of success or failure holds: Err is empty on
// success and set on failure. A failed chunked run still carries whatever
// text had been assembled before the failing chunk.
type TranscriptionResult struct {
	Text           string
	ProcessingTime time.Duration
	ModelName      string
	Err            string
}

// Success reports whether the transcription completed without error.
func (r *TranscriptionResult) Success() bool {
	return r.Err == ""
}

// Utterance is a single speech span from a long-form transcription.
type Utterance struct {
	Text      string
	StartTime float64
	EndTime   float64
}

func (u Utterance) String() string {
	return fmt.Sprintf("[%.2f - %.2f]: %s", u.StartTime, u.EndTime, u.Text)
}

// LongTranscriptionResult is the outcome of the voice-activity-segmented
// strategy. TotalDuration and FullText are derived from the utterance
// sequence at construction and are never set independently.
type LongTranscriptionResult struct {
	Utterances    []Utterance
	TotalDuration float64
	FullText      string
}

// NewLongTranscriptionResult builds a result from an ordered utterance
// sequence, deriving the total duration (end of the last utterance) and the
// full text (utterance texts joined with single spaces).
func NewLongTranscriptionResult(utterances []Utterance) *LongTranscriptionResult {
	totalDuration := 0.0
	if len(utterances) > 0 {
		totalDuration = utterances[len(utterances)-1].EndTime
	}

	texts := make([]string, 0, len(utterances))
	for _, u := range utterances {
		texts = append(texts, u.Text)
	}

	return &LongTranscriptionResult{
		Utterances:    utterances,
		TotalDuration: totalDuration,
		FullText:      strings.Join(texts, " "),
	}
}
