package transform

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ovaphlow/brainvault/service-idea-core/internal/auth"
	"github.com/ovaphlow/brainvault/service-idea-core/internal/idea"
)

// Handler exposes the transform endpoint.
type Handler struct {
	svc      *Service
	validate *validator.Validate
	logger   *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, validate: validator.New(), logger: logger}
}

// Request is the transform request body.
type Request struct {
	IdeaID     int64  `json:"idea_id" validate:"required"`
	OutputType string `json:"output_type" validate:"required,oneof=content ip tasks"`
}

func (h *Handler) Transform(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "could not validate credentials"})
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "malformed payload"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "output_type must be one of content, ip, tasks"})
		return
	}

	res, err := h.svc.Transform(r.Context(), p.UserID, req.IdeaID, req.OutputType)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidOutputType):
			h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, idea.ErrNotFound):
			h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "idea not found"})
		default:
			h.logger.Errorw("transform failed", "err", err)
			h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
