// Package voice handles audio intake: validation, transcription, optional
// archival of the raw audio, and splitting a transcript into idea candidates.
package voice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/ovaphlow/brainvault/service-idea-core/pkg/blobstore"
	"github.com/ovaphlow/brainvault/service-idea-core/pkg/speech"
	"github.com/ovaphlow/brainvault/service-idea-core/pkg/utilities"
)

var (
	// ErrAudioTooLarge rejects uploads over the intake cap.
	ErrAudioTooLarge = errors.New("audio file too large")
	// ErrUnsupportedFormat rejects payloads without a known audio signature.
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	// ErrTranscriberUnavailable is returned when no transcription backend is
	// configured.
	ErrTranscriberUnavailable = errors.New("transcription service unavailable")
)

const (
	maxAudioBytes     = 10 * 1024 * 1024
	transcribeTimeout = 60 * time.Second
	storeTimeout      = 10 * time.Second
	minSentenceRunes  = 10
	maxExtractedIdeas = 10
)

// magic prefixes for wav, mp3 (tagged and raw frame), and ogg containers
var audioSignatures = [][]byte{
	[]byte("RIFF"),
	[]byte("ID3"),
	{0xFF, 0xFB},
	[]byte("OggS"),
}

var sentenceSplit = regexp.MustCompile(`[.!?]+`)

// Result is the outcome of one transcription run.
type Result struct {
	Transcript *speech.Transcript
	StorageURL string
}

// Service validates, transcribes, and archives uploaded audio. Transcriber
// and blobs are both optional: a nil transcriber fails transcription with
// ErrTranscriberUnavailable, a nil blob store just skips archival.
type Service struct {
	transcriber speech.Transcriber
	blobs       blobstore.Store
	logger      *zap.SugaredLogger
}

func NewService(transcriber speech.Transcriber, blobs blobstore.Store, logger *zap.SugaredLogger) *Service {
	return &Service{transcriber: transcriber, blobs: blobs, logger: logger}
}

// ValidateAudio checks size and container signature before any external call.
func ValidateAudio(audio []byte) error {
	if len(audio) > maxAudioBytes {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrAudioTooLarge, len(audio), maxAudioBytes)
	}
	for _, sig := range audioSignatures {
		if bytes.HasPrefix(audio, sig) {
			return nil
		}
	}
	return ErrUnsupportedFormat
}

// Transcribe validates the audio, runs speech-to-text, and archives the raw
// bytes. Transcription failure is fatal; archival failure only drops the
// storage reference from the result.
func (s *Service) Transcribe(ctx context.Context, userID string, audio []byte, filename string) (*Result, error) {
	if err := ValidateAudio(audio); err != nil {
		return nil, err
	}
	if s.transcriber == nil {
		return nil, ErrTranscriberUnavailable
	}

	tctx, cancel := context.WithTimeout(ctx, transcribeTimeout)
	defer cancel()

	t, err := s.transcriber.Transcribe(tctx, audio, filename)
	if err != nil {
		return nil, fmt.Errorf("transcribe audio: %w", err)
	}
	if t.Language == "" {
		t.Language = "en"
	}

	return &Result{Transcript: t, StorageURL: s.archive(ctx, userID, audio)}, nil
}

// archive uploads the raw audio and returns its URL, or "" when no store is
// configured or the upload fails.
func (s *Service) archive(ctx context.Context, userID string, audio []byte) string {
	if s.blobs == nil {
		return ""
	}
	sctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	key := fmt.Sprintf("%s/%s.wav", userID, utilities.NewKSUID())
	url, err := s.blobs.Put(sctx, key, audio, "audio/wav")
	if err != nil {
		s.logger.Warnw("audio archival failed", "key", key, "err", err)
		return ""
	}
	return url
}

// ExtractIdeas splits a transcript into sentence-level idea candidates:
// fragments over the minimum length, in original order, capped.
func ExtractIdeas(transcript string) []string {
	ideas := make([]string, 0, maxExtractedIdeas)
	for _, frag := range sentenceSplit.Split(transcript, -1) {
		frag = strings.TrimSpace(frag)
		if utf8.RuneCountInString(frag) > minSentenceRunes {
			ideas = append(ideas, frag)
			if len(ideas) == maxExtractedIdeas {
				break
			}
		}
	}
	return ideas
}
