package enrich

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// recordingStore captures write-backs and optionally blocks until released.
type recordingStore struct {
	mu      sync.Mutex
	writes  map[int64]Result
	release chan struct{}
}

func newRecordingStore() *recordingStore {
	return &recordingStore{writes: map[int64]Result{}}
}

func (r *recordingStore) UpdateEnrichment(_ context.Context, id int64, project, theme, emotion string) error {
	if r.release != nil {
		<-r.release
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes[id] = Result{Project: project, Theme: theme, Emotion: emotion}
	return nil
}

func (r *recordingStore) get(id int64) (Result, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.writes[id]
	return res, ok
}

func TestDispatcherProcessesQueuedJobs(t *testing.T) {
	store := newRecordingStore()
	d := NewDispatcher(NewAnalyzer(nil, zap.NewNop().Sugar()), store, zap.NewNop().Sugar(), 1, 4)

	require.True(t, d.Enqueue(7, "We should build a startup around solar panels"))
	d.Close()

	res, ok := store.get(7)
	require.True(t, ok)
	assert.Equal(t, "Startup Ideas", res.Project)
	assert.Equal(t, "general", res.Theme)
	assert.Equal(t, "neutral", res.Emotion)
}

func TestDispatcherDropsWhenQueueFull(t *testing.T) {
	store := newRecordingStore()
	store.release = make(chan struct{})
	d := NewDispatcher(NewAnalyzer(nil, zap.NewNop().Sugar()), store, zap.NewNop().Sugar(), 1, 1)

	// first job occupies the worker, second fills the queue
	require.True(t, d.Enqueue(1, "held by the blocked worker"))
	// the worker may not have picked up job 1 yet; saturate until Enqueue fails
	deadline := time.After(2 * time.Second)
	id := int64(2)
	for d.Enqueue(id, "filler") {
		id++
		select {
		case <-deadline:
			t.Fatal("queue never filled")
		default:
		}
	}

	close(store.release)
	d.Close()
}

func TestDispatcherRejectsAfterClose(t *testing.T) {
	store := newRecordingStore()
	d := NewDispatcher(NewAnalyzer(nil, zap.NewNop().Sugar()), store, zap.NewNop().Sugar(), 1, 4)
	d.Close()

	assert.False(t, d.Enqueue(1, "too late"))
	// Close is idempotent
	d.Close()
}
