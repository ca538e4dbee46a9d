package idea

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ovaphlow/brainvault/service-idea-core/internal/idea/entity"
	"github.com/ovaphlow/brainvault/service-idea-core/pkg/utilities"
)

// sentinel errors for common failure modes
var (
	// ErrNotFound covers both a genuinely absent id and a cross-owner id;
	// the two are deliberately indistinguishable.
	ErrNotFound = errors.New("idea not found")

	ErrValidation = errors.New("validation failed")
)

const (
	maxContentChars = 10000
	maxLabelChars   = 100
	maxEmotionChars = 50

	defaultLimit = 10
	maxLimit     = 100
)

// Store is the persistence contract the service depends on. *repo.Repo
// satisfies it; tests substitute an in-memory fake.
type Store interface {
	Insert(ctx context.Context, i *entity.Idea) error
	GetByID(ctx context.Context, id int64, userID string) (*entity.Idea, error)
	List(ctx context.Context, userID string, f entity.ListFilter) ([]*entity.Idea, error)
	Search(ctx context.Context, userID, query string) ([]*entity.Idea, error)
	Update(ctx context.Context, id int64, userID string, p entity.Patch) (int64, error)
	Delete(ctx context.Context, id int64, userID string) (int64, error)
	DeleteAllByOwner(ctx context.Context, userID string) (int64, error)
	CountAll(ctx context.Context, userID string) (int, error)
	CountSince(ctx context.Context, userID string, since time.Time) (int, error)
	CountDistinct(ctx context.Context, userID, column string) (int, error)
}

// Enqueuer dispatches a fire-and-forget enrichment trigger for a freshly
// captured idea. Enqueue reports whether the trigger was accepted.
type Enqueuer interface {
	Enqueue(ideaID int64, content string) bool
}

// Service encapsulates idea lifecycle logic: validation, identity
// assignment, owner scoping, and the enrichment handoff.
type Service struct {
	store    Store
	enricher Enqueuer
	logger   *zap.SugaredLogger
}

// NewService constructs a Service. enricher may be nil, in which case newly
// captured ideas stay unenriched.
func NewService(store Store, enricher Enqueuer, logger *zap.SugaredLogger) *Service {
	return &Service{store: store, enricher: enricher, logger: logger}
}

// Create persists a new idea and dispatches its enrichment trigger. The
// response carries null enrichment fields; enrichment lands asynchronously.
func (s *Service) Create(ctx context.Context, userID, content, source string) (*entity.Idea, error) {
	if err := validateContent(content); err != nil {
		return nil, err
	}
	if source == "" {
		source = "manual"
	}

	i := &entity.Idea{
		ID:        utilities.NewSnowflakeID(),
		UserID:    userID,
		Content:   content,
		Source:    source,
		Timestamp: time.Now().UTC(),
	}
	if err := s.store.Insert(ctx, i); err != nil {
		return nil, fmt.Errorf("insert idea: %w", err)
	}

	if s.enricher != nil {
		if !s.enricher.Enqueue(i.ID, i.Content) {
			s.logger.Warnw("enrichment queue full, idea stays unenriched", "idea_id", i.ID)
		}
	}
	return i, nil
}

// Get returns an owner-scoped idea.
func (s *Service) Get(ctx context.Context, userID string, id int64) (*entity.Idea, error) {
	i, err := s.store.GetByID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return i, nil
}

// List returns the owner's ideas newest-first. Limit is clamped to [1,100]
// (default 10) and negative skip is treated as zero.
func (s *Service) List(ctx context.Context, userID string, f entity.ListFilter) ([]*entity.Idea, error) {
	if f.Limit <= 0 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	if f.Skip < 0 {
		f.Skip = 0
	}
	return s.store.List(ctx, userID, f)
}

// Search runs a full-text match over the owner's ideas.
func (s *Service) Search(ctx context.Context, userID, query string) ([]*entity.Idea, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: q: search query is required", ErrValidation)
	}
	return s.store.Search(ctx, userID, query)
}

// Update applies a partial update. An empty patch is a valid no-op that
// returns the current record unchanged.
func (s *Service) Update(ctx context.Context, userID string, id int64, p entity.Patch) (*entity.Idea, error) {
	if p.Content != nil {
		if err := validateContent(*p.Content); err != nil {
			return nil, err
		}
	}
	if err := validateLabel("project", p.Project, maxLabelChars); err != nil {
		return nil, err
	}
	if err := validateLabel("theme", p.Theme, maxLabelChars); err != nil {
		return nil, err
	}
	if err := validateLabel("emotion", p.Emotion, maxEmotionChars); err != nil {
		return nil, err
	}

	if p.IsEmpty() {
		return s.Get(ctx, userID, id)
	}

	rows, err := s.store.Update(ctx, id, userID, p)
	if err != nil {
		return nil, fmt.Errorf("update idea: %w", err)
	}
	if rows == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, userID, id)
}

// Delete removes an owner-scoped idea. Reports false for a missing or
// cross-owner id; never an error for absence.
func (s *Service) Delete(ctx context.Context, userID string, id int64) (bool, error) {
	rows, err := s.store.Delete(ctx, id, userID)
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// Analysis returns the enrichment view of an owner-scoped idea.
func (s *Service) Analysis(ctx context.Context, userID string, id int64) (*entity.Analysis, error) {
	i, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return &entity.Analysis{
		ID:      i.ID,
		Content: i.Content,
		Project: i.Project,
		Theme:   i.Theme,
		Emotion: i.Emotion,
	}, nil
}

// Stats computes the owner's idea statistics. The five counts run
// concurrently; "this month" is the wall-clock calendar month boundary in
// server time, not a rolling window.
func (s *Service) Stats(ctx context.Context, userID string) (*entity.Stats, error) {
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	var st entity.Stats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		st.TotalIdeas, err = s.store.CountAll(gctx, userID)
		return
	})
	g.Go(func() (err error) {
		st.IdeasThisMonth, err = s.store.CountSince(gctx, userID, monthStart)
		return
	})
	g.Go(func() (err error) {
		st.ProjectsCount, err = s.store.CountDistinct(gctx, userID, "project")
		return
	})
	g.Go(func() (err error) {
		st.ThemesCount, err = s.store.CountDistinct(gctx, userID, "theme")
		return
	})
	g.Go(func() (err error) {
		st.EmotionsCount, err = s.store.CountDistinct(gctx, userID, "emotion")
		return
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	return &st, nil
}

// PurgeOwner deletes every idea owned by userID and returns the count.
func (s *Service) PurgeOwner(ctx context.Context, userID string) (int64, error) {
	return s.store.DeleteAllByOwner(ctx, userID)
}

func validateContent(content string) error {
	n := utf8.RuneCountInString(content)
	if n < 1 {
		return fmt.Errorf("%w: content: must not be empty", ErrValidation)
	}
	if n > maxContentChars {
		return fmt.Errorf("%w: content: must be at most %d characters", ErrValidation, maxContentChars)
	}
	return nil
}

func validateLabel(field string, v *string, max int) error {
	if v == nil {
		return nil
	}
	if utf8.RuneCountInString(*v) > max {
		return fmt.Errorf("%w: %s: must be at most %d characters", ErrValidation, field, max)
	}
	return nil
}
