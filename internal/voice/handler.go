package voice

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/brainvault/service-idea-core/internal/auth"
	"github.com/ovaphlow/brainvault/service-idea-core/pkg/speech"
)

// Handler exposes the voice intake endpoints. Uploads arrive as multipart
// form data in the audio_file field.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// TranscribeResponse is the transcription endpoint body.
type TranscribeResponse struct {
	Transcription *speech.Transcript `json:"transcription"`
	StorageURL    string             `json:"storage_url,omitempty"`
	Success       bool               `json:"success"`
}

// ExtractResponse extends TranscribeResponse with the idea candidates.
type ExtractResponse struct {
	Transcription *speech.Transcript `json:"transcription"`
	Ideas         []string           `json:"ideas"`
	StorageURL    string             `json:"storage_url,omitempty"`
	Success       bool               `json:"success"`
}

func (h *Handler) Transcribe(w http.ResponseWriter, r *http.Request) {
	res, ok := h.runTranscription(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, TranscribeResponse{
		Transcription: res.Transcript,
		StorageURL:    res.StorageURL,
		Success:       true,
	})
}

func (h *Handler) ExtractIdeas(w http.ResponseWriter, r *http.Request) {
	res, ok := h.runTranscription(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, ExtractResponse{
		Transcription: res.Transcript,
		Ideas:         ExtractIdeas(res.Transcript.Text),
		StorageURL:    res.StorageURL,
		Success:       true,
	})
}

// runTranscription reads the upload, runs the service, and handles all error
// responses. The bool reports whether a result was produced.
func (h *Handler) runTranscription(w http.ResponseWriter, r *http.Request) (*Result, bool) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "could not validate credentials"})
		return nil, false
	}

	audio, filename, err := h.readUpload(r)
	if err != nil {
		h.writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "audio_file field is required"})
		return nil, false
	}

	res, err := h.svc.Transcribe(r.Context(), p.UserID, audio, filename)
	if err != nil {
		switch {
		case errors.Is(err, ErrAudioTooLarge), errors.Is(err, ErrUnsupportedFormat):
			h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, ErrTranscriberUnavailable):
			h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "transcription service unavailable"})
		default:
			h.logger.Errorw("transcription failed", "err", err)
			h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return nil, false
	}
	return res, true
}

// readUpload pulls the audio_file part out of the multipart form. The read
// is capped one byte past the intake limit so oversized uploads still reach
// the service's size check instead of being silently truncated.
func (h *Handler) readUpload(r *http.Request) ([]byte, string, error) {
	file, header, err := r.FormFile("audio_file")
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	audio, err := io.ReadAll(io.LimitReader(file, maxAudioBytes+1))
	if err != nil {
		return nil, "", err
	}
	return audio, header.Filename, nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
