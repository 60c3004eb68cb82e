// Package gemini adapts Gemini multimodal generation to the whole-file
// engine contract. Gemini has no timestamped-utterance entry point, so this
// adapter does not implement the long-form contract.
package gemini

import (
	"context"
	"errors"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"google.golang.org/genai"

	"github.com/scribekit/scribekit/pkg/engine"
	"github.com/scribekit/scribekit/pkg/logging"
	"github.com/scribekit/scribekit/pkg/model"
	"github.com/scribekit/scribekit/pkg/utils"
)

const defaultModelName = "gemini-2.5-flash"

type Engine struct {
	opts engine.Options
}

func New(opts engine.Options) (*Engine, error) {
	if strings.TrimSpace(opts.AuthToken) == "" && strings.TrimSpace(os.Getenv("GEMINI_KEY")) == "" {
		return nil, utils.WrapIfNotNil(errors.New("auth token is required"))
	}
	return &Engine{opts: opts}, nil
}

func (e *Engine) ModelName() string {
	if modelName := strings.TrimSpace(e.opts.Model); modelName != "" {
		return modelName
	}
	return defaultModelName
}

// Transcribe sends the audio bytes inline with a transcription prompt and
// returns the response text. Inline payload rejections for oversized audio
// are mapped onto engine.ErrTooLong.
func (e *Engine) Transcribe(ctx context.Context, audioPath string) (string, error) {
	log := logging.NewLogger(ctx)
	log.Infof("audio_transcription_request model=%q file=%q", e.ModelName(), audioPath)

	audioBytes, err := os.ReadFile(audioPath)
	if err != nil {
		return "", utils.WrapIfNotNil(err)
	}

	mimeType, err := resolveAudioMIMEType(audioPath)
	if err != nil {
		return "", utils.WrapIfNotNil(err)
	}

	client, err := e.newAPIClient(ctx)
	if err != nil {
		return "", utils.WrapIfNotNil(err)
	}

	contents := []*genai.Content{
		genai.NewContentFromParts(
			[]*genai.Part{
				genai.NewPartFromText(buildPrompt(e.opts.Keywords)),
				genai.NewPartFromBytes(audioBytes, mimeType),
			},
			genai.RoleUser,
		),
	}

	response, err := client.Models.GenerateContent(ctx, e.ModelName(), contents, &genai.GenerateContentConfig{})
	if err != nil {
		if isTooLong(err) {
			return "", engine.ErrTooLong
		}
		log.Errorf("error: %v", err)
		return "", utils.WrapIfNotNil(err)
	}

	return strings.TrimSpace(response.Text()), nil
}

func (e *Engine) newAPIClient(ctx context.Context) (*genai.Client, error) {
	clientCfg := &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
	}

	token := strings.TrimSpace(e.opts.AuthToken)
	if token == "" {
		token = strings.TrimSpace(os.Getenv("GEMINI_KEY"))
	}
	if token != "" {
		clientCfg.APIKey = token
	}

	if baseURL := strings.TrimSpace(e.opts.URL); baseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{
			BaseURL: baseURL,
		}
	}

	return genai.NewClient(ctx, clientCfg)
}

func buildPrompt(keywords []model.AudioKeyword) string {
	base := "Transcribe this audio accurately. Return only the transcript text."
	if len(keywords) == 0 {
		return base
	}

	words := make([]string, 0, len(keywords))
	for _, keyword := range keywords {
		if word := strings.TrimSpace(keyword.Word); word != "" {
			words = append(words, word)
		}
	}
	if len(words) == 0 {
		return base
	}
	return base + " Prioritize these terms if present: " + strings.Join(words, ", ") + "."
}

func isTooLong(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == 413 {
		return true
	}
	return utils.ContainsErrorSubstring(err, "Request payload size exceeds the limit")
}

func resolveAudioMIMEType(filePath string) (string, error) {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(filePath)))
	if ext == "" {
		return "", errors.New("audio file extension is required to determine mime type")
	}

	switch ext {
	case ".wav":
		return "audio/wav", nil
	case ".mp3":
		return "audio/mpeg", nil
	case ".m4a", ".mp4":
		return "audio/mp4", nil
	case ".webm":
		return "audio/webm", nil
	case ".ogg":
		return "audio/ogg", nil
	case ".flac":
		return "audio/flac", nil
	case ".aac":
		return "audio/aac", nil
	}

	mimeType := mime.TypeByExtension(ext)
	if mimeType == "" {
		return "", errors.New("unsupported audio file extension: " + ext)
	}

	// Strip parameters such as "; charset=utf-8".
	mimeType = strings.TrimSpace(strings.Split(mimeType, ";")[0])
	if !strings.HasPrefix(mimeType, "audio/") {
		return "", errors.New("unsupported audio mime type: " + mimeType)
	}
	return mimeType, nil
}
