package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/predictions-league/internal/domain/event"
	"github.com/riskibarqy/predictions-league/internal/domain/player"
	"github.com/riskibarqy/predictions-league/internal/platform/logging"
)

const defaultNotificationWorkers = 8

// Notification is the payload pushed to subscribed players.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Notifier delivers one notification to one push subscription.
type Notifier interface {
	Send(ctx context.Context, note Notification, sub player.Subscription) error
}

type noopNotifier struct{}

func (noopNotifier) Send(_ context.Context, _ Notification, _ player.Subscription) error {
	return nil
}

func NewNoopNotifier() Notifier {
	return noopNotifier{}
}

// NotificationService fans notifications out to every stored subscription
// through a bounded worker pool. Delivery failures are logged and counted,
// never propagated: a dead endpoint must not disturb event processing.
type NotificationService struct {
	notifier Notifier
	players  player.Repository
	workers  int
	logger   *logging.Logger
}

func NewNotificationService(notifier Notifier, players player.Repository, workers int, logger *logging.Logger) *NotificationService {
	if notifier == nil {
		notifier = NewNoopNotifier()
	}
	if logger == nil {
		logger = logging.Default()
	}
	if workers <= 0 {
		workers = defaultNotificationWorkers
	}

	return &NotificationService{
		notifier: notifier,
		players:  players,
		workers:  workers,
		logger:   logger,
	}
}

// Broadcast sends the notification to every subscription of every subscribed
// player and reports how many deliveries succeeded.
func (s *NotificationService) Broadcast(ctx context.Context, note Notification) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.NotificationService.Broadcast")
	defer span.End()

	subscribed, err := s.players.ListSubscribedPlayers(ctx)
	if err != nil {
		return 0, fmt.Errorf("list subscribed players: %w", err)
	}
	if len(subscribed) == 0 {
		return 0, nil
	}

	pool, err := ants.NewPool(s.workers)
	if err != nil {
		return 0, fmt.Errorf("create notification pool: %w", err)
	}
	defer pool.Release()

	var delivered atomic.Int32
	var failed atomic.Int32

	var workers sync.WaitGroup
	for _, recipient := range subscribed {
		for _, sub := range recipient.Subscriptions {
			recipient, sub := recipient, sub
			workers.Add(1)
			if err := pool.Submit(func() {
				defer workers.Done()

				if err := s.notifier.Send(ctx, note, sub); err != nil {
					failed.Add(1)
					s.logger.WarnContext(ctx, "notification delivery failed",
						"player_id", recipient.ID,
						"error", err,
					)
					return
				}
				delivered.Add(1)
			}); err != nil {
				workers.Done()
				return int(delivered.Load()), fmt.Errorf("submit notification to pool: %w", err)
			}
		}
	}
	workers.Wait()

	if failed.Load() > 0 {
		s.logger.WarnContext(ctx, "notification broadcast incomplete",
			"delivered", delivered.Load(),
			"failed", failed.Load(),
		)
	}
	return int(delivered.Load()), nil
}

// applyFixtureSetCreatedNotify announces a freshly published gameweek to
// every subscribed player.
func (s *ProjectionService) applyFixtureSetCreatedNotify(ctx context.Context, env event.Envelope) error {
	payload, err := event.Decode[event.FixtureSetCreated](env)
	if err != nil {
		return err
	}

	note := Notification{
		Title: "New fixtures published",
		Body:  fmt.Sprintf("Gameweek %d is open for predictions", payload.Gameweek),
	}
	if _, err := s.notifications.Broadcast(ctx, note); err != nil {
		return fmt.Errorf("broadcast gameweek %d notice: %w", payload.Gameweek, err)
	}
	return nil
}
