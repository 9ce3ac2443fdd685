package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/kegiatan-api/internal/dto"
	"github.com/noah-isme/kegiatan-api/internal/observability"
)

const changeFeedBufferSize = 16

// ChangeFeed fans committed change log entries out to live subscribers, across instances when NATS is configured.
type ChangeFeed interface {
	Publish(ctx context.Context, entry dto.ChangeLogResponse)
	Subscribe() (<-chan dto.ChangeLogResponse, func())
	Start(ctx context.Context)
}

type changeFeed struct {
	nats    *nats.Conn
	subject string
	logger  zerolog.Logger
	nodeID  string

	mu          sync.RWMutex
	subscribers map[chan dto.ChangeLogResponse]struct{}
}

type changeFeedEvent struct {
	Source string                `json:"source"`
	Entry  dto.ChangeLogResponse `json:"entry"`
	SentAt time.Time             `json:"sent_at"`
}

// NewChangeFeed builds a feed. natsConn may be nil for a single-instance deployment.
func NewChangeFeed(natsConn *nats.Conn, subject string, logger zerolog.Logger) ChangeFeed {
	return &changeFeed{
		nats:        natsConn,
		subject:     subject,
		logger:      logger.With().Str("component", "change_feed").Logger(),
		nodeID:      uuid.NewString(),
		subscribers: make(map[chan dto.ChangeLogResponse]struct{}),
	}
}

func (f *changeFeed) Start(ctx context.Context) {
	if f.nats == nil || f.subject == "" {
		return
	}

	sub, err := f.nats.Subscribe(f.subject, func(msg *nats.Msg) {
		f.handleEvent(msg.Data)
	})
	if err != nil {
		f.logger.Error().Err(err).Str("subject", f.subject).Msg("failed to subscribe to change feed subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			f.logger.Warn().Err(err).Msg("failed to drain change feed subscription")
		}
	}()
}

func (f *changeFeed) Publish(ctx context.Context, entry dto.ChangeLogResponse) {
	f.broadcast(entry)

	if f.nats == nil || f.subject == "" {
		return
	}

	payload, err := json.Marshal(changeFeedEvent{
		Source: f.nodeID,
		Entry:  entry,
		SentAt: time.Now().UTC(),
	})
	if err != nil {
		f.logger.Warn().Err(err).Msg("failed to encode change feed event")
		return
	}
	if err := f.nats.Publish(f.subject, payload); err != nil {
		f.logger.Warn().Err(err).Str("activity_id", entry.ActivityID).Msg("failed to publish change feed event")
	}
}

func (f *changeFeed) Subscribe() (<-chan dto.ChangeLogResponse, func()) {
	channel := make(chan dto.ChangeLogResponse, changeFeedBufferSize)

	f.mu.Lock()
	f.subscribers[channel] = struct{}{}
	f.mu.Unlock()
	observability.ChangeFeedSubscribers().Inc()

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subscribers, channel)
			close(channel)
			f.mu.Unlock()
			observability.ChangeFeedSubscribers().Dec()
		})
	}

	return channel, cleanup
}

func (f *changeFeed) handleEvent(payload []byte) {
	var event changeFeedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		f.logger.Warn().Err(err).Msg("invalid change feed payload")
		return
	}
	if event.Source == f.nodeID {
		return
	}
	f.broadcast(event.Entry)
}

// broadcast never blocks; slow subscribers miss entries rather than stall writers.
func (f *changeFeed) broadcast(entry dto.ChangeLogResponse) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for ch := range f.subscribers {
		select {
		case ch <- entry:
		default:
		}
	}
}
