package resultsfeed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/predictions-league/internal/domain/points"
	"github.com/riskibarqy/predictions-league/internal/platform/logging"
	"github.com/riskibarqy/predictions-league/internal/usecase"
	"github.com/streadway/amqp"
)

const (
	prefetchCount     = 16
	reconnectMinDelay = time.Second
	reconnectMaxDelay = time.Minute
)

// ResultsApplier classifies kicked-off fixtures against pushed results. The
// reconciliation service implements it.
type ResultsApplier interface {
	ApplyResults(ctx context.Context, gameweek int, results []usecase.ProvidedResult) error
}

type ListenerConfig struct {
	URL    string
	Queue  string
	Logger *logging.Logger
}

// Listener consumes gameweek result messages from the broker and feeds them
// into the same classification path the polling reconciler uses. It is an
// accelerator, not a source of truth: anything it drops the next
// reconciliation tick picks up.
type Listener struct {
	url     string
	queue   string
	applier ResultsApplier
	logger  *logging.Logger
}

func NewListener(cfg ListenerConfig, applier ResultsApplier) *Listener {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Listener{
		url:     strings.TrimSpace(cfg.URL),
		queue:   strings.TrimSpace(cfg.Queue),
		applier: applier,
		logger:  logger,
	}
}

// Run consumes until the context ends, redialing with capped exponential
// backoff whenever the broker connection drops.
func (l *Listener) Run(ctx context.Context) error {
	if l.url == "" {
		return fmt.Errorf("results feed url is not configured")
	}
	if l.queue == "" {
		return fmt.Errorf("results feed queue is not configured")
	}

	delay := reconnectMinDelay
	for {
		err := l.consume(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil {
			return nil
		}

		l.logger.WarnContext(ctx, "results feed disconnected", "error", err, "retry_in", delay)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
		if delay > reconnectMaxDelay {
			delay = reconnectMaxDelay
		}
	}
}

func (l *Listener) consume(ctx context.Context) error {
	conn, err := amqp.Dial(l.url)
	if err != nil {
		return fmt.Errorf("dial results feed: %w", err)
	}
	defer conn.Close()

	channel, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer channel.Close()

	if err := channel.Qos(prefetchCount, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	queue, err := channel.QueueDeclare(
		l.queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	deliveries, err := channel.Consume(
		queue.Name,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	l.logger.InfoContext(ctx, "results feed consuming", "queue", queue.Name)

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case closeErr := <-closed:
			if closeErr == nil {
				return nil
			}
			return fmt.Errorf("connection lost: %v", closeErr)
		case delivery, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			l.handleDelivery(ctx, delivery)
		}
	}
}

// handleDelivery acks a fully handled message, drops one the domain rejects,
// and requeues only when reading the fixture state failed. Per-fixture
// classify rejections never requeue: the reconciler retries those anyway.
func (l *Listener) handleDelivery(ctx context.Context, delivery amqp.Delivery) {
	message, err := decodeMessage(delivery.Body)
	if err != nil {
		l.logger.WarnContext(ctx, "drop malformed results message", "error", err)
		_ = delivery.Nack(false, false)
		return
	}

	if err := l.applier.ApplyResults(ctx, message.Gameweek, message.results()); err != nil {
		if errors.Is(err, usecase.ErrInvalidInput) {
			l.logger.WarnContext(ctx, "drop rejected results message",
				"gameweek", message.Gameweek,
				"error", err,
			)
			_ = delivery.Nack(false, false)
			return
		}
		l.logger.WarnContext(ctx, "requeue results message",
			"gameweek", message.Gameweek,
			"error", err,
		)
		_ = delivery.Nack(false, true)
		return
	}

	_ = delivery.Ack(false)
}

type resultsMessage struct {
	Gameweek int         `json:"gameweek"`
	Results  []resultRow `json:"results"`
}

type resultRow struct {
	HomeTeam  string `json:"home_team"`
	AwayTeam  string `json:"away_team"`
	HomeScore int    `json:"home_score"`
	AwayScore int    `json:"away_score"`
}

func decodeMessage(body []byte) (resultsMessage, error) {
	var message resultsMessage
	if err := sonic.Unmarshal(body, &message); err != nil {
		return resultsMessage{}, fmt.Errorf("decode results message: %w", err)
	}
	return message, nil
}

func (m resultsMessage) results() []usecase.ProvidedResult {
	out := make([]usecase.ProvidedResult, 0, len(m.Results))
	for _, row := range m.Results {
		homeTeam := strings.TrimSpace(row.HomeTeam)
		awayTeam := strings.TrimSpace(row.AwayTeam)
		if homeTeam == "" || awayTeam == "" {
			continue
		}
		if row.HomeScore < 0 || row.AwayScore < 0 {
			continue
		}
		out = append(out, usecase.ProvidedResult{
			HomeTeam: homeTeam,
			AwayTeam: awayTeam,
			Score:    points.ScoreLine{Home: row.HomeScore, Away: row.AwayScore},
		})
	}
	return out
}
