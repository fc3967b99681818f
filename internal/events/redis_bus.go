package events

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisBus fans events out over Redis pub/sub and queues jobs on a stream,
// so any instance can serve a user's socket.
type RedisBus struct {
	rdb    *redis.Client
	stream string
}

func NewRedisBus(rdb *redis.Client) *RedisBus {
	return &RedisBus{rdb: rdb, stream: ReportStream}
}

func (b *RedisBus) Publish(ctx context.Context, channel string, ev Event) error {
	payload, err := ev.Encode()
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, channel, payload).Err()
}

func (b *RedisBus) Subscribe(ctx context.Context, channels ...string) (Subscription, error) {
	ps := b.rdb.Subscribe(ctx, channels...)
	// wait for the subscription confirmation so no publish is missed
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}

	s := &redisSubscription{ps: ps, out: make(chan []byte, 16)}
	go s.pump(ctx)
	return s, nil
}

func (b *RedisBus) EnqueueReport(ctx context.Context, job ReportJob) error {
	return b.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: b.stream,
		Values: job.Values(),
	}).Err()
}

type redisSubscription struct {
	ps   *redis.PubSub
	out  chan []byte
	once sync.Once
}

func (s *redisSubscription) Messages() <-chan []byte { return s.out }

func (s *redisSubscription) Close() error {
	var err error
	s.once.Do(func() { err = s.ps.Close() })
	return err
}

func (s *redisSubscription) pump(ctx context.Context) {
	defer close(s.out)
	ch := s.ps.Channel()
	for {
		select {
		case <-ctx.Done():
			_ = s.Close()
			return
		case m, ok := <-ch:
			if !ok {
				return
			}
			select {
			case s.out <- []byte(m.Payload):
			case <-ctx.Done():
				_ = s.Close()
				return
			}
		}
	}
}
