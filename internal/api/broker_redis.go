package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"stoprouter/internal/session"
)

const redisPublishQueue = 256

// RedisBroker implements EventBroker over Redis Pub/Sub so every API
// replica sees every session's events. Publish only enqueues; a single
// worker forwards events to Redis in order.
type RedisBroker struct {
	rdb    *redis.Client
	logger *slog.Logger

	mu   sync.Mutex
	subs map[chan session.Event]*redis.PubSub

	queue chan outbound
	done  chan struct{}
	wg    sync.WaitGroup
	once  sync.Once
}

type outbound struct {
	sessionID string
	evt       session.Event
}

func NewRedisBroker(rdb *redis.Client, logger *slog.Logger) *RedisBroker {
	if logger == nil {
		logger = slog.Default()
	}
	b := &RedisBroker{
		rdb:    rdb,
		logger: logger,
		subs:   map[chan session.Event]*redis.PubSub{},
		queue:  make(chan outbound, redisPublishQueue),
		done:   make(chan struct{}),
	}
	b.wg.Add(1)
	go b.forward()
	return b
}

// Close stops the publish worker. Queued events not yet sent are dropped.
func (b *RedisBroker) Close() {
	b.once.Do(func() { close(b.done) })
	b.wg.Wait()
}

func (b *RedisBroker) forward() {
	defer b.wg.Done()
	for {
		select {
		case <-b.done:
			return
		case o := <-b.queue:
			b.send(o.sessionID, o.evt)
		}
	}
}

func (b *RedisBroker) Subscribe(sessionID string) chan session.Event {
	ch := make(chan session.Event, 16)
	ctx := context.Background()
	ps := b.rdb.Subscribe(ctx, b.chanName(sessionID))
	// wait for the subscription confirmation so no publish is missed
	if _, err := ps.Receive(ctx); err != nil {
		b.logger.Warn("redis_subscribe_failed", "session", sessionID, "err", err)
	}
	b.mu.Lock()
	b.subs[ch] = ps
	b.mu.Unlock()
	go func() {
		for msg := range ps.Channel() {
			var evt session.Event
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				continue
			}
			b.mu.Lock()
			if _, live := b.subs[ch]; live {
				select {
				case ch <- evt:
				default:
				}
			}
			b.mu.Unlock()
		}
	}()
	return ch
}

func (b *RedisBroker) Unsubscribe(sessionID string, ch chan session.Event) {
	b.mu.Lock()
	ps, ok := b.subs[ch]
	delete(b.subs, ch)
	if ok {
		close(ch)
	}
	b.mu.Unlock()
	if ok {
		_ = ps.Close()
	}
}

// Publish never waits on Redis. When the queue is full the event is dropped.
func (b *RedisBroker) Publish(sessionID string, evt session.Event) {
	select {
	case <-b.done:
		return
	default:
	}
	select {
	case b.queue <- outbound{sessionID: sessionID, evt: evt}:
	default:
		b.logger.Warn("redis_publish_dropped", "session", sessionID, "type", evt.Type)
	}
}

func (b *RedisBroker) send(sessionID string, evt session.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	if err := b.rdb.Publish(ctx, b.chanName(sessionID), data).Err(); err != nil {
		b.logger.Warn("redis_publish_failed", "session", sessionID, "type", evt.Type, "err", err)
	}
}

func (b *RedisBroker) chanName(sessionID string) string { return "session-events:" + sessionID }
