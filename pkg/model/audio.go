package model

import "time"

// AudioAsset describes a piece of media once reduced to canonical form
// (mono PCM WAV at the configured sample rate). Path is owned by the caller
// that requested preparation and stays valid until that caller releases it
// through the asset store.
type AudioAsset struct {
	Path       string
	Duration   float64 // seconds, 0 when the probe failed
	SampleRate int
	Channels   int
	SizeBytes  int64
	UserID     int64
	MessageID  int64
	CreatedAt  time.Time
}

// SizeMB returns the asset size in megabytes.
func (a *AudioAsset) SizeMB() float64 {
	return float64(a.SizeBytes) / (1024 * 1024)
}

// AudioKeyword is a domain term the inference engine tends to miss.
// Engine adapters may fold these into a transcription prompt.
type AudioKeyword struct {
	Word           string   `json:"word,omitempty"`
	CommonMistypes []string `json:"common_mistypes,omitempty"`
	Definition     string   `json:"definition,omitempty"`
}
