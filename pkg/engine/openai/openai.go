// Package openai adapts the OpenAI audio transcription API to the engine
// contract.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"

	"github.com/scribekit/scribekit/pkg/engine"
	"github.com/scribekit/scribekit/pkg/logging"
	"github.com/scribekit/scribekit/pkg/model"
	"github.com/scribekit/scribekit/pkg/utils"
)

const defaultModelName = "whisper-1"

type Engine struct {
	apiClient openai.Client
	opts      engine.Options
}

// New builds an OpenAI-backed engine. The adapter implements both the
// whole-file and the long-form contracts.
func New(opts engine.Options) (*Engine, error) {
	if strings.TrimSpace(opts.AuthToken) == "" {
		return nil, utils.WrapIfNotNil(errors.New("auth token is required"))
	}

	requestOpts := []option.RequestOption{option.WithAPIKey(opts.AuthToken)}
	if strings.TrimSpace(opts.URL) != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(opts.URL))
	}

	return &Engine{
		apiClient: openai.NewClient(requestOpts...),
		opts:      opts,
	}, nil
}

func (e *Engine) ModelName() string {
	if modelName := strings.TrimSpace(e.opts.Model); modelName != "" {
		return modelName
	}
	return defaultModelName
}

// Transcribe runs whole-file inference and returns the plain transcript.
// An over-length rejection from the API is mapped onto engine.ErrTooLong.
func (e *Engine) Transcribe(ctx context.Context, audioPath string) (string, error) {
	logging.NewLogger(ctx).Infof("audio_transcription_request model=%q file=%q", e.ModelName(), audioPath)

	response, err := e.request(ctx, audioPath, openai.AudioResponseFormatJSON)
	if err != nil {
		if isTooLong(err) {
			return "", engine.ErrTooLong
		}
		return "", utils.WrapIfNotNil(err)
	}

	return strings.TrimSpace(response.Text), nil
}

// TranscribeLongForm asks for the verbose response shape and maps its
// timestamped segments onto utterances.
func (e *Engine) TranscribeLongForm(ctx context.Context, audioPath string) ([]model.Utterance, error) {
	logging.NewLogger(ctx).Infof("longform_transcription_request model=%q file=%q", e.ModelName(), audioPath)

	response, err := e.request(ctx, audioPath, openai.AudioResponseFormatVerboseJSON)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	utterances := make([]model.Utterance, 0, len(response.Segments))
	for _, segment := range response.Segments {
		utterances = append(utterances, model.Utterance{
			Text:      strings.TrimSpace(segment.Text),
			StartTime: segment.Start,
			EndTime:   segment.End,
		})
	}
	return utterances, nil
}

func (e *Engine) request(
	ctx context.Context,
	audioPath string,
	format openai.AudioResponseFormat,
) (*openai.AudioTranscriptionNewResponseUnion, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = file.Close()
	}()

	params := openai.AudioTranscriptionNewParams{
		File:           file,
		Model:          openai.AudioModel(e.ModelName()),
		ResponseFormat: format,
	}
	if prompt := buildPrompt(e.opts.Keywords); prompt != "" {
		params.Prompt = param.NewOpt(prompt)
	}

	response, err := e.apiClient.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return nil, err
	}
	if response == nil {
		return nil, errors.New("audio transcriptions API returned nil response")
	}
	return response, nil
}

func buildPrompt(keywords []model.AudioKeyword) string {
	if len(keywords) == 0 {
		return ""
	}

	keywordsJSON, err := json.Marshal(keywords)
	if err != nil {
		return ""
	}
	return "Common missed words: " + string(keywordsJSON)
}

// isTooLong recognizes the API's over-length rejections: a 413 response,
// or the documented size/duration limit messages.
func isTooLong(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == 413 {
		return true
	}
	return utils.ContainsErrorSubstring(err, "Maximum content size limit") ||
		utils.ContainsErrorSubstring(err, "audio duration")
}
