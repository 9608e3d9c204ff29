package audit_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"gatekeeper/internal/audit"
	"gatekeeper/internal/audit/store/memory"
	"gatekeeper/internal/platform/logger"
)

type capturingPublisher struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (p *capturingPublisher) Publish(_ context.Context, entry audit.Entry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = append(p.entries, entry)
}

func (p *capturingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

type flakyStore struct {
	inner *memory.InMemoryStore
	fail  atomic.Bool
}

func (f *flakyStore) Append(ctx context.Context, entry audit.Entry) error {
	if f.fail.Load() {
		return errors.New("disk full")
	}
	return f.inner.Append(ctx, entry)
}

func (f *flakyStore) ListRecent(ctx context.Context, limit int) ([]audit.Entry, error) {
	return f.inner.ListRecent(ctx, limit)
}

type RecorderSuite struct {
	suite.Suite
	ctx context.Context
}

func (s *RecorderSuite) SetupTest() {
	s.ctx = context.Background()
}

func TestRecorderSuite(t *testing.T) {
	suite.Run(t, new(RecorderSuite))
}

func (s *RecorderSuite) waitForEntries(store audit.Store, n int) []audit.Entry {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		entries, err := store.ListRecent(s.ctx, n+1)
		s.Require().NoError(err)
		if len(entries) >= n {
			return entries
		}
		time.Sleep(5 * time.Millisecond)
	}
	s.FailNow("timed out waiting for audit entries")
	return nil
}

// TestRecordAndDrain verifies entries flow through the inbox into the store
// and out to the publisher.
func (s *RecorderSuite) TestRecordAndDrain() {
	store := memory.NewInMemoryStore()
	publisher := &capturingPublisher{}
	recorder := audit.NewRecorder(8, logger.NewNop())
	worker := audit.NewWorker(store, recorder.Inbox(), logger.NewNop(), publisher)

	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = worker.Run(ctx)
	}()

	recorder.Record(s.ctx, "checkin_confirmed", "op-a", "1234567890", "")
	recorder.Record(s.ctx, "access_denied", "stranger", "", "text")

	entries := s.waitForEntries(store, 2)
	s.Len(entries, 2)
	// Newest first.
	s.Equal("access_denied", entries[0].Action)
	s.Equal("checkin_confirmed", entries[1].Action)
	s.Equal("1234567890", entries[1].NationalID)

	s.Eventually(func() bool { return publisher.count() == 2 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

// TestFullInboxDrops verifies Record never blocks: with no worker draining,
// overflow entries are dropped silently.
func (s *RecorderSuite) TestFullInboxDrops() {
	recorder := audit.NewRecorder(2, logger.NewNop())

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for i := 0; i < 10; i++ {
			recorder.Record(s.ctx, "checkin_confirmed", "op-a", "", "")
		}
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		s.FailNow("Record blocked on a full inbox")
	}
	s.Len(recorder.Inbox(), 2)
}

// TestStoreFailureKeepsDraining verifies a failing append never stops the
// worker or poisons later entries.
func (s *RecorderSuite) TestStoreFailureKeepsDraining() {
	store := &flakyStore{inner: memory.NewInMemoryStore()}
	store.fail.Store(true)
	recorder := audit.NewRecorder(8, logger.NewNop())
	worker := audit.NewWorker(store, recorder.Inbox(), logger.NewNop(), nil)

	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	go func() { _ = worker.Run(ctx) }()

	recorder.Record(s.ctx, "checkin_confirmed", "op-a", "1111111111", "")
	s.Eventually(func() bool { return len(recorder.Inbox()) == 0 }, 2*time.Second, 5*time.Millisecond)

	store.fail.Store(false)
	recorder.Record(s.ctx, "checkin_rejected", "op-a", "2222222222", "")

	entries := s.waitForEntries(store, 1)
	s.Equal("checkin_rejected", entries[0].Action)
}

// TestWorkerStopsOnCancel verifies Run returns once the context ends.
func (s *RecorderSuite) TestWorkerStopsOnCancel() {
	recorder := audit.NewRecorder(1, logger.NewNop())
	worker := audit.NewWorker(memory.NewInMemoryStore(), recorder.Inbox(), logger.NewNop(), nil)

	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		s.Require().ErrorIs(err, context.Canceled)
	case <-time.After(time.Second):
		s.FailNow("worker did not stop on cancel")
	}
}
