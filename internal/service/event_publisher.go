package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/portion-tracker-api/internal/observability"
)

// Progress event types.
const (
	EventPortionCompleted    = "portion.completed"
	EventPortionReopened     = "portion.reopened"
	EventSubmissionReceived  = "submission.received"
	EventSubmissionVerified  = "submission.verified"
	EventCourseworkCompleted = "coursework.completed"
)

// ProgressEvent is the broker payload announcing a state change. Consumers
// are expected to refetch; the event carries identifiers only.
type ProgressEvent struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	Type       string    `json:"type"`
	EntityType string    `json:"entity_type"`
	EntityID   uint      `json:"entity_id"`
	ActorID    uint      `json:"actor_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventPublisher fans progress events out to Redis pub/sub and NATS.
type EventPublisher interface {
	Publish(ctx context.Context, event ProgressEvent)
}

type eventPublisher struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	nodeID       string
	logger       zerolog.Logger
}

// NewEventPublisher builds a publisher. Either connection may be nil; an
// empty channelBase disables publishing entirely.
func NewEventPublisher(redisClient *redis.Client, natsConn *nats.Conn, channelBase string, logger zerolog.Logger) EventPublisher {
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":progress"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".progress"
	}

	return &eventPublisher{
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		nodeID:       uuid.NewString(),
		logger:       logger.With().Str("component", "event_publisher").Logger(),
	}
}

// Publish never fails the caller; broker errors are logged.
func (p *eventPublisher) Publish(ctx context.Context, event ProgressEvent) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	event.Source = p.nodeID
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error().Err(err).Str("type", event.Type).Msg("failed to encode progress event")
		return
	}

	published := false
	if p.redis != nil && p.redisChannel != "" {
		if err := p.redis.Publish(ctx, p.redisChannel, payload).Err(); err != nil {
			p.logger.Warn().Err(err).Str("type", event.Type).Msg("failed to publish progress event to redis")
		} else {
			published = true
		}
	}

	if p.nats != nil && p.natsSubject != "" {
		if err := p.nats.Publish(p.natsSubject, payload); err != nil {
			p.logger.Warn().Err(err).Str("type", event.Type).Msg("failed to publish progress event to nats")
		} else {
			published = true
		}
	}

	if published {
		observability.ProgressEventsPublished().WithLabelValues(event.Type).Inc()
	}
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, ProgressEvent) {}

// NoopEventPublisher discards events.
func NoopEventPublisher() EventPublisher {
	return noopPublisher{}
}
