// Package openai provides a speech.Transcriber backed by the OpenAI
// transcription API (whisper-1).
package openai

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/ovaphlow/brainvault/service-idea-core/pkg/speech"
)

// Client implements speech.Transcriber using the OpenAI SDK.
type Client struct {
	client oai.Client
	model  oai.AudioModel
}

// New constructs a transcription client.
func New(apiKey string, timeout time.Duration) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: apiKey must not be empty")
	}
	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: timeout,
		}))
	}
	return &Client{client: oai.NewClient(reqOpts...), model: oai.AudioModelWhisper1}, nil
}

// FromEnv returns a transcription client when OPENAI_API_KEY is set,
// nil otherwise. A nil Transcriber means voice intake is unavailable.
func FromEnv() *Client {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil
	}
	c, err := New(key, 60*time.Second)
	if err != nil {
		return nil
	}
	return c
}

// Transcribe implements speech.Transcriber.
func (c *Client) Transcribe(ctx context.Context, audio []byte, filename string) (*speech.Transcript, error) {
	resp, err := c.client.Audio.Transcriptions.New(ctx, oai.AudioTranscriptionNewParams{
		Model: c.model,
		File:  oai.File(bytes.NewReader(audio), filename, contentTypeFor(filename)),
	})
	if err != nil {
		return nil, fmt.Errorf("openai: transcription: %w", err)
	}
	return &speech.Transcript{Text: resp.Text, Language: "en"}, nil
}

func contentTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".mp3":
		return "audio/mpeg"
	case ".ogg":
		return "audio/ogg"
	default:
		return "audio/wav"
	}
}
