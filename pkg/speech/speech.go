// Package speech defines the Transcriber interface for speech-to-text
// backends. Unlike generation, transcription failure is load-bearing for
// callers: there is no meaningful local fallback for audio, so errors
// propagate.
package speech

import "context"

// Transcript is the result of one transcription call.
type Transcript struct {
	// Text is the full transcript.
	Text string `json:"text"`

	// Language is the detected (or assumed) language code, e.g. "en".
	Language string `json:"language"`

	// Confidence is an overall confidence score when the provider reports
	// one; zero otherwise.
	Confidence float64 `json:"confidence"`
}

// Transcriber converts an audio payload to text.
type Transcriber interface {
	// Transcribe sends audio bytes to the provider. filename carries the
	// original upload name so the provider can infer the container format.
	Transcribe(ctx context.Context, audio []byte, filename string) (*Transcript, error)
}
