package transform

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ovaphlow/brainvault/service-idea-core/internal/idea"
	"github.com/ovaphlow/brainvault/service-idea-core/internal/idea/entity"
	"github.com/ovaphlow/brainvault/service-idea-core/pkg/genai"
)

// memStore is a minimal idea.Store holding a single owner's ideas.
type memStore struct {
	ideas map[int64]*entity.Idea
}

func newMemStore() *memStore { return &memStore{ideas: map[int64]*entity.Idea{}} }

func (m *memStore) Insert(_ context.Context, i *entity.Idea) error {
	cp := *i
	m.ideas[i.ID] = &cp
	return nil
}

func (m *memStore) GetByID(_ context.Context, id int64, userID string) (*entity.Idea, error) {
	i, ok := m.ideas[id]
	if !ok || i.UserID != userID {
		return nil, sql.ErrNoRows
	}
	cp := *i
	return &cp, nil
}

func (m *memStore) List(context.Context, string, entity.ListFilter) ([]*entity.Idea, error) {
	return nil, nil
}

func (m *memStore) Search(context.Context, string, string) ([]*entity.Idea, error) {
	return nil, nil
}

func (m *memStore) Update(_ context.Context, id int64, userID string, p entity.Patch) (int64, error) {
	i, ok := m.ideas[id]
	if !ok || i.UserID != userID {
		return 0, nil
	}
	if p.Content != nil {
		i.Content = *p.Content
	}
	if p.TransformedOutput != nil {
		i.TransformedOutput = p.TransformedOutput
	}
	return 1, nil
}

func (m *memStore) Delete(context.Context, int64, string) (int64, error)    { return 0, nil }
func (m *memStore) DeleteAllByOwner(context.Context, string) (int64, error) { return 0, nil }
func (m *memStore) CountAll(context.Context, string) (int, error)           { return 0, nil }
func (m *memStore) CountSince(context.Context, string, time.Time) (int, error) {
	return 0, nil
}
func (m *memStore) CountDistinct(context.Context, string, string) (int, error) { return 0, nil }

// fakeGenerator returns a canned completion or error.
type fakeGenerator struct {
	output  string
	err     error
	lastReq genai.Request
}

func (f *fakeGenerator) Name() string { return "fake" }

func (f *fakeGenerator) Generate(_ context.Context, req genai.Request) (string, error) {
	f.lastReq = req
	return f.output, f.err
}

func setup(t *testing.T, generators ...genai.Generator) (*Service, *memStore, int64) {
	t.Helper()
	store := newMemStore()
	logger := zap.NewNop().Sugar()
	ideas := idea.NewService(store, nil, logger)

	i, err := ideas.Create(context.Background(), "u1", "an app that waters plants automatically", "")
	require.NoError(t, err)

	return NewService(ideas, generators, logger), store, i.ID
}

func TestTransformRejectsUnknownOutputType(t *testing.T) {
	svc, _, id := setup(t)
	_, err := svc.Transform(context.Background(), "u1", id, "poem")
	assert.ErrorIs(t, err, ErrInvalidOutputType)
}

func TestTransformMissingIdea(t *testing.T) {
	svc, _, id := setup(t)
	_, err := svc.Transform(context.Background(), "u1", id+1, OutputContent)
	assert.ErrorIs(t, err, idea.ErrNotFound)

	// another owner's idea is equally invisible
	_, err = svc.Transform(context.Background(), "u2", id, OutputContent)
	assert.ErrorIs(t, err, idea.ErrNotFound)
}

func TestTransformUsesProviderAndPersists(t *testing.T) {
	gen := &fakeGenerator{output: "A polished essay about plant-watering automation."}
	svc, store, id := setup(t, gen)

	res, err := svc.Transform(context.Background(), "u1", id, OutputContent)
	require.NoError(t, err)
	assert.Equal(t, gen.output, res.TransformedContent)
	assert.Equal(t, id, res.IdeaID)
	assert.Equal(t, OutputContent, res.OutputType)

	// the idea content must appear verbatim in the prompt
	assert.Contains(t, gen.lastReq.Prompt, "an app that waters plants automatically")

	stored, err := store.GetByID(context.Background(), id, "u1")
	require.NoError(t, err)
	require.NotNil(t, stored.TransformedOutput)
	assert.Equal(t, gen.output, *stored.TransformedOutput)
}

func TestTransformFallsBackWithoutProvider(t *testing.T) {
	svc, store, id := setup(t)

	res, err := svc.Transform(context.Background(), "u1", id, OutputTasks)
	require.NoError(t, err)
	assert.Contains(t, res.TransformedContent, "Actionable Tasks:")

	stored, err := store.GetByID(context.Background(), id, "u1")
	require.NoError(t, err)
	require.NotNil(t, stored.TransformedOutput)
}

func TestTransformFallsBackOnProviderFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("rate limited")}
	svc, _, id := setup(t, gen)

	res, err := svc.Transform(context.Background(), "u1", id, OutputIP)
	require.NoError(t, err)
	assert.Contains(t, res.TransformedContent, "Intellectual Property Analysis:")
}

func TestTransformFallsBackOnEmptyCompletion(t *testing.T) {
	gen := &fakeGenerator{output: ""}
	svc, _, id := setup(t, gen)

	res, err := svc.Transform(context.Background(), "u1", id, OutputContent)
	require.NoError(t, err)
	assert.Contains(t, res.TransformedContent, "generated content based on your idea")
}

func TestTransformOverwritesPreviousRun(t *testing.T) {
	gen := &fakeGenerator{output: "first run"}
	svc, store, id := setup(t, gen)

	_, err := svc.Transform(context.Background(), "u1", id, OutputContent)
	require.NoError(t, err)

	gen.output = "second run"
	_, err = svc.Transform(context.Background(), "u1", id, OutputContent)
	require.NoError(t, err)

	stored, err := store.GetByID(context.Background(), id, "u1")
	require.NoError(t, err)
	assert.Equal(t, "second run", *stored.TransformedOutput)
}
