package events

import (
	"context"
	"sync"
)

// MemoryBus is an in-process Bus and Queue for single-instance runs and
// tests. Slow subscribers drop events rather than block publishers.
type MemoryBus struct {
	mu   sync.Mutex
	subs map[string]map[*memorySubscription]struct{}
	jobs chan ReportJob
}

func NewMemoryBus(queueSize int) *MemoryBus {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &MemoryBus{
		subs: make(map[string]map[*memorySubscription]struct{}),
		jobs: make(chan ReportJob, queueSize),
	}
}

func (b *MemoryBus) Publish(_ context.Context, channel string, ev Event) error {
	payload, err := ev.Encode()
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for s := range b.subs[channel] {
		select {
		case s.out <- payload:
		default:
		}
	}
	return nil
}

func (b *MemoryBus) Subscribe(ctx context.Context, channels ...string) (Subscription, error) {
	s := &memorySubscription{bus: b, channels: channels, out: make(chan []byte, 16)}
	b.mu.Lock()
	for _, ch := range channels {
		if b.subs[ch] == nil {
			b.subs[ch] = make(map[*memorySubscription]struct{})
		}
		b.subs[ch][s] = struct{}{}
	}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		_ = s.Close()
	}()
	return s, nil
}

func (b *MemoryBus) EnqueueReport(ctx context.Context, job ReportJob) error {
	select {
	case b.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Jobs exposes queued report jobs to an in-process consumer.
func (b *MemoryBus) Jobs() <-chan ReportJob { return b.jobs }

type memorySubscription struct {
	bus      *MemoryBus
	channels []string
	out      chan []byte
	once     sync.Once
}

func (s *memorySubscription) Messages() <-chan []byte { return s.out }

func (s *memorySubscription) Close() error {
	s.once.Do(func() {
		s.bus.mu.Lock()
		defer s.bus.mu.Unlock()
		for _, ch := range s.channels {
			delete(s.bus.subs[ch], s)
		}
		close(s.out)
	})
	return nil
}
