// Package fcfs — строгая очередь допуска: один потребитель обрабатывает
// заявки в порядке поступления, поэтому при включённой очереди две
// транзакции допуска никогда не выполняются одновременно.
package fcfs

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SauceFoong/slot-booking-system/internal/model"
	"github.com/SauceFoong/slot-booking-system/internal/outcome"
	"github.com/SauceFoong/slot-booking-system/internal/repository"
)

const (
	DefaultQueueSize   = 1024
	DefaultWaitTimeout = 30 * time.Second
)

// Booker — транзакция допуска, которую очередь вызывает синхронно по одной заявке.
type Booker interface {
	Book(ctx context.Context, userID, slotID uuid.UUID) (*model.Booking, error)
}

type result struct {
	booking *model.Booking
	err     error
}

type job struct {
	id              uuid.UUID
	userID          uuid.UUID
	slotID          uuid.UUID
	submittedMillis int64
	// Буфер на один результат: воркер никогда не блокируется,
	// результат ушедшего по таймауту вызывающего просто отбрасывается.
	done chan result
}

// Serializer принимает заявки на бронирование и прогоняет их через единственного
// воркера строго в порядке постановки. Вызывающий ждёт результат своей заявки
// синхронно, ограниченно по времени; таймаут обрывает только ожидание,
// не выполнение заявки.
type Serializer struct {
	booker  Booker
	journal repository.JobRepository

	queue       chan *job
	waitTimeout time.Duration
	now         func() time.Time

	wg        sync.WaitGroup
	closeOnce sync.Once
}

type Option func(*Serializer)

func WithQueueSize(n int) Option {
	return func(s *Serializer) {
		if n > 0 {
			s.queue = make(chan *job, n)
		}
	}
}

func WithWaitTimeout(d time.Duration) Option {
	return func(s *Serializer) {
		if d > 0 {
			s.waitTimeout = d
		}
	}
}

// WithJournal включает журналирование заявок в хранилище.
func WithJournal(jobs repository.JobRepository) Option {
	return func(s *Serializer) { s.journal = jobs }
}

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(s *Serializer) { s.now = now }
}

func NewSerializer(booker Booker, opts ...Option) *Serializer {
	s := &Serializer{
		booker:      booker,
		queue:       make(chan *job, DefaultQueueSize),
		waitTimeout: DefaultWaitTimeout,
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start запускает единственного воркера. Контекст воркера не зависит от
// контекстов вызывающих: их таймауты не отменяют выполнение заявок.
func (s *Serializer) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case j, ok := <-s.queue:
				if !ok {
					return
				}
				s.process(ctx, j)
			}
		}
	}()
}

// Close закрывает очередь и дожидается, пока воркер дообработает принятое.
func (s *Serializer) Close() {
	s.closeOnce.Do(func() {
		close(s.queue)
	})
	s.wg.Wait()
}

// Submit журналирует заявку, ставит её в очередь и ждёт результат.
// Переполненная очередь и истёкшее ожидание отдаются как Conflict:
// с точки зрения вызывающего это то же самое, что проиграть гонку.
func (s *Serializer) Submit(ctx context.Context, userID, slotID uuid.UUID) (*model.Booking, error) {
	j := &job{
		id:              uuid.New(),
		userID:          userID,
		slotID:          slotID,
		submittedMillis: s.now().UnixMilli(),
		done:            make(chan result, 1),
	}

	if s.journal != nil {
		err := s.journal.Create(ctx, &model.AdmissionJob{
			ID:                j.id,
			UserID:            userID,
			SlotID:            slotID,
			SubmittedAtMillis: j.submittedMillis,
			Status:            model.AdmissionJobStatusQueued,
		})
		if err != nil {
			return nil, outcome.FromStore(err)
		}
	}

	select {
	case s.queue <- j:
	default:
		return nil, outcome.Conflict("admission queue full")
	}

	timer := time.NewTimer(s.waitTimeout)
	defer timer.Stop()

	select {
	case r := <-j.done:
		return r.booking, r.err
	case <-timer.C:
		return nil, outcome.Conflict("queue wait timeout")
	case <-ctx.Done():
		return nil, outcome.Conflict("request cancelled while queued")
	}
}

func (s *Serializer) process(ctx context.Context, j *job) {
	booking, err := s.booker.Book(ctx, j.userID, j.slotID)

	if s.journal != nil {
		if jerr := s.journal.MarkDone(ctx, j.id); jerr != nil {
			log.Printf("fcfs: mark job %s done: %v", j.id, jerr)
		}
	}

	j.done <- result{booking: booking, err: err}
}
