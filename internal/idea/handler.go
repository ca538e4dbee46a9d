package idea

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ovaphlow/brainvault/service-idea-core/internal/auth"
	"github.com/ovaphlow/brainvault/service-idea-core/internal/idea/entity"
)

// Handler exposes HTTP endpoints for idea operations.
type Handler struct {
	svc      *Service
	validate *validator.Validate
	logger   *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, validate: validator.New(), logger: logger}
}

// CreateRequest is the request body for idea capture.
type CreateRequest struct {
	Content string `json:"content" validate:"required,min=1,max=10000"`
	Source  string `json:"source" validate:"omitempty,max=50"`
}

// UpdateRequest is the partial-update body; absent fields stay untouched.
type UpdateRequest struct {
	Content           *string `json:"content" validate:"omitempty,min=1,max=10000"`
	Project           *string `json:"project" validate:"omitempty,max=100"`
	Theme             *string `json:"theme" validate:"omitempty,max=100"`
	Emotion           *string `json:"emotion" validate:"omitempty,max=50"`
	TransformedOutput *string `json:"transformed_output"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "could not validate credentials"})
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "malformed payload"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": validationMessage(err)})
		return
	}

	i, err := h.svc.Create(r.Context(), p.UserID, req.Content, req.Source)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, i)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "could not validate credentials"})
		return
	}

	qs := r.URL.Query()

	// a q parameter switches the listing into full-text search
	if q := qs.Get("q"); q != "" {
		ideas, err := h.svc.Search(r.Context(), p.UserID, q)
		if err != nil {
			h.respondError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, nonNil(ideas))
		return
	}

	f := entity.ListFilter{
		Project: qs.Get("project"),
		Theme:   qs.Get("theme"),
		Emotion: qs.Get("emotion"),
	}
	var err error
	if f.Skip, err = intParam(qs.Get("skip")); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "validation failed on: skip"})
		return
	}
	if f.Limit, err = intParam(qs.Get("limit")); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "validation failed on: limit"})
		return
	}

	ideas, err := h.svc.List(r.Context(), p.UserID, f)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, nonNil(ideas))
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "could not validate credentials"})
		return
	}

	ideas, err := h.svc.Search(r.Context(), p.UserID, r.URL.Query().Get("q"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, nonNil(ideas))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "could not validate credentials"})
		return
	}

	id, err := pathID(r)
	if err != nil {
		h.respondError(w, ErrNotFound)
		return
	}
	i, err := h.svc.Get(r.Context(), p.UserID, id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, i)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "could not validate credentials"})
		return
	}

	id, err := pathID(r)
	if err != nil {
		h.respondError(w, ErrNotFound)
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "malformed payload"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": validationMessage(err)})
		return
	}

	i, err := h.svc.Update(r.Context(), p.UserID, id, entity.Patch{
		Content:           req.Content,
		Project:           req.Project,
		Theme:             req.Theme,
		Emotion:           req.Emotion,
		TransformedOutput: req.TransformedOutput,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, i)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "could not validate credentials"})
		return
	}

	id, err := pathID(r)
	if err != nil {
		h.respondError(w, ErrNotFound)
		return
	}
	deleted, err := h.svc.Delete(r.Context(), p.UserID, id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if !deleted {
		h.respondError(w, ErrNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Analysis(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "could not validate credentials"})
		return
	}

	id, err := pathID(r)
	if err != nil {
		h.respondError(w, ErrNotFound)
		return
	}
	a, err := h.svc.Analysis(r.Context(), p.UserID, id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, a)
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "could not validate credentials"})
		return
	}

	st, err := h.svc.Stats(r.Context(), p.UserID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, st)
}

// respondError maps service errors to status codes. Infrastructure detail is
// logged, never leaked to the caller.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrNotFound):
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "idea not found"})
	default:
		h.logger.Errorw("idea operation failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// intParam parses an optional integer query parameter; absent means zero,
// anything non-numeric is a validation error rather than a silent default.
func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

// nonNil keeps empty result sets encoding as [] instead of null.
func nonNil(ideas []*entity.Idea) []*entity.Idea {
	if ideas == nil {
		return []*entity.Idea{}
	}
	return ideas
}

// validationMessage flattens a validator error into a field-naming message.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fields := ""
		for i, fe := range verrs {
			if i > 0 {
				fields += ", "
			}
			fields += fe.Field()
		}
		return "validation failed on: " + fields
	}
	return "validation failed"
}
