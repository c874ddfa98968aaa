package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-curriculum-api/internal/dto"
	"github.com/noah-isme/gema-curriculum-api/internal/observability"
)

const activationEventBufferSize = 16

// allCourses subscribes to events of every course.
const allCourses = "*"

// ActivationEventBus fans committed activation transitions out to dashboards
// connected to this node and, through NATS or Redis, to the other API nodes.
type ActivationEventBus interface {
	Publish(ctx context.Context, event dto.ActivationEvent)
	Subscribe(courseID string) (<-chan dto.ActivationEvent, func())
	Start(ctx context.Context)
}

type activationEventBus struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
	broker       *activationBroker
	nodeID       string
}

type activationEnvelope struct {
	Source string              `json:"source"`
	Event  dto.ActivationEvent `json:"event"`
}

type activationBroker struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan dto.ActivationEvent]struct{}
}

// NewActivationEventBus constructs the event bus. NATS is preferred for
// cross-node delivery; Redis pub/sub is used when NATS is not configured.
func NewActivationEventBus(redisClient *redis.Client, natsConn *nats.Conn, channelBase string, logger zerolog.Logger) ActivationEventBus {
	bus := &activationEventBus{
		nats:   natsConn,
		logger: logger.With().Str("component", "activation_events").Logger(),
		broker: &activationBroker{subscribers: make(map[string]map[chan dto.ActivationEvent]struct{})},
		nodeID: uuid.NewString(),
	}
	if channelBase == "" {
		return bus
	}
	if natsConn != nil {
		bus.natsSubject = strings.ReplaceAll(channelBase, ":", ".") + ".activations"
	} else if redisClient != nil {
		bus.redis = redisClient
		bus.redisChannel = channelBase + ":activations"
	}
	return bus
}

func (b *activationEventBus) Start(ctx context.Context) {
	if b.nats != nil && b.natsSubject != "" {
		b.consumeNATS(ctx)
	}
	if b.redis != nil && b.redisChannel != "" {
		go b.consumeRedis(ctx)
	}
}

func (b *activationEventBus) Publish(ctx context.Context, event dto.ActivationEvent) {
	b.broker.broadcast(event)

	payload, err := json.Marshal(activationEnvelope{Source: b.nodeID, Event: event})
	if err != nil {
		b.logger.Warn().Err(err).Msg("failed to encode activation event")
		return
	}

	if b.nats != nil && b.natsSubject != "" {
		if err := b.nats.Publish(b.natsSubject, payload); err != nil {
			b.logger.Warn().Err(err).Str("module_id", event.ModuleID).Msg("failed to publish activation event to nats")
		}
	}
	if b.redis != nil && b.redisChannel != "" {
		if err := b.redis.Publish(ctx, b.redisChannel, payload).Err(); err != nil {
			b.logger.Warn().Err(err).Str("module_id", event.ModuleID).Msg("failed to publish activation event to redis")
		}
	}
}

// Subscribe registers a listener for courseID; an empty course listens to all courses.
func (b *activationEventBus) Subscribe(courseID string) (<-chan dto.ActivationEvent, func()) {
	key := strings.TrimSpace(courseID)
	if key == "" {
		key = allCourses
	}

	channel := make(chan dto.ActivationEvent, activationEventBufferSize)
	b.broker.subscribe(key, channel)
	release := observability.StreamClientConnected()

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			b.broker.unsubscribe(key, channel)
			release()
		})
	}

	return channel, cleanup
}

func (b *activationEventBus) consumeNATS(ctx context.Context) {
	sub, err := b.nats.Subscribe(b.natsSubject, func(msg *nats.Msg) {
		b.handleEnvelope(msg.Data)
	})
	if err != nil {
		b.logger.Error().Err(err).Msg("failed to subscribe to nats activation subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			b.logger.Warn().Err(err).Msg("failed to drain activation nats subscription")
		}
	}()
}

func (b *activationEventBus) consumeRedis(ctx context.Context) {
	pubsub := b.redis.Subscribe(ctx, b.redisChannel)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, redis.ErrClosed) {
				return
			}
			b.logger.Error().Err(err).Msg("activation redis subscription closed")
			return
		}
		b.handleEnvelope([]byte(msg.Payload))
	}
}

func (b *activationEventBus) handleEnvelope(payload []byte) {
	var envelope activationEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		b.logger.Warn().Err(err).Msg("invalid activation event payload")
		return
	}
	if envelope.Source == b.nodeID {
		return
	}
	b.broker.broadcast(envelope.Event)
}

func (b *activationBroker) subscribe(key string, ch chan dto.ActivationEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[key]; !exists {
		b.subscribers[key] = make(map[chan dto.ActivationEvent]struct{})
	}
	b.subscribers[key][ch] = struct{}{}
}

func (b *activationBroker) unsubscribe(key string, ch chan dto.ActivationEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subscribers, ok := b.subscribers[key]; ok {
		if _, present := subscribers[ch]; present {
			delete(subscribers, ch)
			close(ch)
		}
		if len(subscribers) == 0 {
			delete(b.subscribers, key)
		}
	}
}

func (b *activationBroker) broadcast(event dto.ActivationEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, key := range []string{event.CourseID, allCourses} {
		for ch := range b.subscribers[key] {
			select {
			case ch <- event:
			default:
			}
		}
	}
}
