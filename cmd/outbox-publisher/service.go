package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/pubsub"
	"github.com/google/uuid"
)

const (
	defaultBatchSize      = 50
	defaultPollInterval   = 500 * time.Millisecond
	defaultPublishTimeout = 15 * time.Second
	defaultMaxAttempts    = 10
	maxBackoff            = 10 * time.Second
	jitterWindow          = 250 * time.Millisecond
)

var jitterSource = rand.New(rand.NewSource(time.Now().UnixNano()))

type pinger interface {
	Ping(context.Context) error
}

type outboxRepository interface {
	FetchUnpublished(ctx context.Context, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublished(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, err error) error
	MarkTerminal(ctx context.Context, id uuid.UUID, err error, terminalAttempts int) error
}

type publisherFactory func(topic string) publisher

type publisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(context.Context) (string, error)
}

// errNonRetryable marks failures that no amount of retrying will fix.
var errNonRetryable = errors.New("non-retryable publish failure")

type ServiceParams struct {
	Config           *config.Config
	Logger           *logger.Logger
	DB               pinger
	PubSub           pinger
	Repository       outboxRepository
	PublisherFactory publisherFactory
	Now              func() time.Time
}

type Service struct {
	cfg              *config.Config
	logg             *logger.Logger
	db               pinger
	pubsub           pinger
	repo             outboxRepository
	publisherFactory publisherFactory
	now              func() time.Time
	batchSize        int
	maxAttempts      int
	pollInterval     time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	if params.PubSub == nil {
		return nil, errors.New("pubsub client is required")
	}
	if params.Repository == nil {
		return nil, errors.New("outbox repository is required")
	}
	if params.PublisherFactory == nil {
		return nil, errors.New("publisher factory is required")
	}

	batch := params.Config.Outbox.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	maxAttempts := params.Config.Outbox.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		cfg:              params.Config,
		logg:             params.Logger,
		db:               params.DB,
		pubsub:           params.PubSub,
		repo:             params.Repository,
		publisherFactory: params.PublisherFactory,
		now:              now,
		batchSize:        batch,
		maxAttempts:      maxAttempts,
		pollInterval:     params.Config.Outbox.PollInterval(),
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	if err := pingDependency(ctx, s.logg, "database", s.db.Ping); err != nil {
		return err
	}
	return pingDependency(ctx, s.logg, "pubsub", s.pubsub.Ping)
}

func pingDependency(ctx context.Context, logg *logger.Logger, name string, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		logg.Error(ctx, fmt.Sprintf("%s ping failed", name), err)
		return fmt.Errorf("%s ping failed: %w", name, err)
	}
	return nil
}

func (s *Service) Run(ctx context.Context) error {
	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	interval := s.pollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	backoff := interval

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "outbox publisher context canceled")
			return ctx.Err()
		default:
		}

		processed, err := s.processBatch(ctx)
		if err != nil {
			s.logg.Error(ctx, "outbox publisher batch error", err)
			backoff = nextBackoff(backoff, interval, maxBackoff)
			if err := s.sleep(ctx, withJitter(backoff)); err != nil {
				return err
			}
			continue
		}

		backoff = interval
		if processed {
			continue
		}
		if err := s.sleep(ctx, withJitter(interval)); err != nil {
			return err
		}
	}
}

// processBatch publishes one batch. Individual publish failures are recorded
// on the row and do not abort the batch; only bookkeeping errors do.
func (s *Service) processBatch(ctx context.Context) (bool, error) {
	events, err := s.repo.FetchUnpublished(ctx, s.batchSize, s.maxAttempts)
	if err != nil {
		return false, fmt.Errorf("fetch unpublished: %w", err)
	}
	if len(events) == 0 {
		return false, nil
	}

	for _, event := range events {
		fields := s.eventFields(event)
		logCtx := s.logg.WithFields(ctx, fields)

		pubErr := s.publish(ctx, event)
		if pubErr == nil {
			if err := s.repo.MarkPublished(ctx, event.ID, s.now().UTC()); err != nil {
				return true, fmt.Errorf("mark published %s: %w", event.ID, err)
			}
			s.logg.Info(logCtx, "outbox event published")
			continue
		}

		nextAttempt := event.AttemptCount + 1
		logCtx = s.logg.WithFields(logCtx, map[string]any{"attempt_count": nextAttempt, "error": pubErr.Error()})
		if errors.Is(pubErr, errNonRetryable) || nextAttempt >= s.maxAttempts {
			s.logg.Warn(logCtx, "outbox event will not be retried")
			if err := s.repo.MarkTerminal(ctx, event.ID, pubErr, s.maxAttempts); err != nil {
				return true, fmt.Errorf("mark terminal %s: %w", event.ID, err)
			}
			continue
		}

		s.logg.Warn(logCtx, "outbox publish failed")
		if err := s.repo.MarkFailed(ctx, event.ID, pubErr); err != nil {
			return true, fmt.Errorf("mark failure %s: %w", event.ID, err)
		}
	}
	return true, nil
}

func (s *Service) publish(ctx context.Context, event models.OutboxEvent) error {
	topic, err := pubsub.TopicFor(s.cfg.PubSub, event.AggregateType)
	if err != nil {
		return fmt.Errorf("%w: %v", errNonRetryable, err)
	}
	pub := s.publisherFactory(topic)
	if pub == nil {
		return fmt.Errorf("%w: publisher not configured for topic %s", errNonRetryable, topic)
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(event.Payload, &envelope); err != nil {
		return fmt.Errorf("%w: decode envelope: %v", errNonRetryable, err)
	}

	msg := &gcppubsub.Message{
		Data: event.Payload,
		Attributes: map[string]string{
			"event_id":       envelope.EventID,
			"event_type":     string(event.EventType),
			"aggregate_type": string(event.AggregateType),
			"aggregate_id":   event.AggregateID.String(),
			"version":        fmt.Sprint(envelope.Version),
			"occurred_at":    envelope.OccurredAt.Format(time.RFC3339Nano),
		},
		OrderingKey: event.AggregateID.String(),
	}

	publishCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()
	result := pub.Publish(publishCtx, msg)
	if result == nil {
		return fmt.Errorf("%w: publisher returned nil for topic %s", errNonRetryable, topic)
	}
	if _, err := result.Get(publishCtx); err != nil {
		if !pubsub.IsRetryable(err) {
			return fmt.Errorf("%w: %v", errNonRetryable, err)
		}
		return err
	}
	return nil
}

func (s *Service) eventFields(event models.OutboxEvent) map[string]any {
	fields := map[string]any{
		"outbox_id":      event.ID.String(),
		"event_type":     event.EventType,
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID.String(),
		"attempt_count":  event.AttemptCount,
	}
	if event.LastError != nil {
		fields["last_error"] = *event.LastError
	}
	return fields
}

func (s *Service) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextBackoff(current, base, max time.Duration) time.Duration {
	if current <= 0 {
		current = base
	}
	next := current * 2
	if next > max {
		return max
	}
	return next
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d + time.Duration(jitterSource.Int63n(int64(jitterWindow)))
}

func newGCPPublisher(p *gcppubsub.Publisher) publisher {
	if p == nil {
		return nil
	}
	p.EnableMessageOrdering = true
	return &gcpPublisher{Publisher: p}
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	if p == nil || p.Publisher == nil {
		return nil
	}
	return p.Publisher.Publish(ctx, msg)
}
