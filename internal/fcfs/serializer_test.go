package fcfs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/SauceFoong/slot-booking-system/internal/model"
	"github.com/SauceFoong/slot-booking-system/internal/outcome"
)

// stubBooker grants each slot to the first caller that reaches it and rejects
// everyone after, recording the order callers were processed in.
type stubBooker struct {
	mu    sync.Mutex
	won   map[uuid.UUID]uuid.UUID // slot -> winner
	order []uuid.UUID
	delay time.Duration
}

func newStubBooker() *stubBooker {
	return &stubBooker{won: make(map[uuid.UUID]uuid.UUID)}
}

func (b *stubBooker) Book(_ context.Context, userID, slotID uuid.UUID) (*model.Booking, error) {
	if b.delay > 0 {
		time.Sleep(b.delay)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.order = append(b.order, userID)
	if _, taken := b.won[slotID]; taken {
		return nil, outcome.Conflict("slot unavailable")
	}
	b.won[slotID] = userID
	return &model.Booking{
		ID:     uuid.New(),
		UserID: userID,
		SlotID: slotID,
		Status: model.BookingStatusConfirmed,
	}, nil
}

func waitForQueueLen(t *testing.T, s *Serializer, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for len(s.queue) < n {
		if time.Now().After(deadline) {
			t.Fatalf("queue never reached length %d (have %d)", n, len(s.queue))
		}
		time.Sleep(time.Millisecond)
	}
}

// Twenty distinct callers race for one slot. Enqueue order is fixed by
// admitting submitters one at a time while the worker is stopped; once the
// worker starts, the first enqueued caller must win, deterministically.
func TestSerializer_FirstSubmitterWins(t *testing.T) {
	const callers = 20

	booker := newStubBooker()
	s := NewSerializer(booker, WithQueueSize(callers), WithWaitTimeout(5*time.Second))

	slotID := uuid.New()
	userIDs := make([]uuid.UUID, callers)
	results := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		userIDs[i] = uuid.New()

		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = s.Submit(context.Background(), userIDs[i], slotID)
		}(i)

		// Next submitter is released only after this one is enqueued.
		waitForQueueLen(t, s, i+1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	wg.Wait()
	s.Close()

	if results[0] != nil {
		t.Fatalf("first submitter lost: %v", results[0])
	}
	for i := 1; i < callers; i++ {
		r, ok := outcome.AsRejection(results[i])
		if !ok || r.Code != outcome.CodeConflict {
			t.Fatalf("submitter %d: expected conflict, got %v", i, results[i])
		}
	}

	booker.mu.Lock()
	defer booker.mu.Unlock()
	if len(booker.order) != callers {
		t.Fatalf("expected %d processed jobs, got %d", callers, len(booker.order))
	}
	for i, userID := range booker.order {
		if userID != userIDs[i] {
			t.Fatalf("job %d processed out of order", i)
		}
	}
	if booker.won[slotID] != userIDs[0] {
		t.Fatalf("winner is not the first submitter")
	}
}

// The wait timeout bounds the caller's wait only; the job itself still runs.
func TestSerializer_WaitTimeout(t *testing.T) {
	booker := newStubBooker()
	booker.delay = 200 * time.Millisecond

	s := NewSerializer(booker, WithWaitTimeout(20*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	slotID := uuid.New()
	_, err := s.Submit(context.Background(), uuid.New(), slotID)
	r, ok := outcome.AsRejection(err)
	if !ok || r.Code != outcome.CodeConflict {
		t.Fatalf("expected conflict timeout rejection, got %v", err)
	}

	s.Close()

	booker.mu.Lock()
	defer booker.mu.Unlock()
	if _, done := booker.won[slotID]; !done {
		t.Fatalf("job was abandoned instead of running to completion")
	}
}

func TestSerializer_QueueFull(t *testing.T) {
	booker := newStubBooker()
	// Worker not started: the single queue place stays occupied.
	s := NewSerializer(booker, WithQueueSize(1), WithWaitTimeout(50*time.Millisecond))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = s.Submit(context.Background(), uuid.New(), uuid.New())
	}()
	waitForQueueLen(t, s, 1)

	_, err := s.Submit(context.Background(), uuid.New(), uuid.New())
	r, ok := outcome.AsRejection(err)
	if !ok || r.Code != outcome.CodeConflict {
		t.Fatalf("expected conflict on full queue, got %v", err)
	}

	wg.Wait()
}

func TestSerializer_CancelledCallerContext(t *testing.T) {
	booker := newStubBooker()
	s := NewSerializer(booker, WithWaitTimeout(time.Second))
	// Worker not started: the submit can only end via its own context.

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Submit(ctx, uuid.New(), uuid.New())
	r, ok := outcome.AsRejection(err)
	if !ok || r.Code != outcome.CodeConflict {
		t.Fatalf("expected conflict on cancelled context, got %v", err)
	}
}
