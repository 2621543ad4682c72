package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Expirer deactivates subscriptions whose end date has passed.
type Expirer interface {
	Execute(ctx context.Context, now time.Time) (int, error)
}

type SubscriptionExpirationWorker struct {
	expirer      Expirer
	tickInterval time.Duration
	now          func() time.Time
	log          zerolog.Logger
}

func NewSubscriptionExpirationWorker(expirer Expirer, tick time.Duration, log zerolog.Logger) *SubscriptionExpirationWorker {
	if tick <= 0 {
		tick = time.Minute
	}
	return &SubscriptionExpirationWorker{
		expirer:      expirer,
		tickInterval: tick,
		now:          time.Now,
		log:          log.With().Str("component", "subscription_expiration").Logger(),
	}
}

// Start blocks until ctx is done.
func (w *SubscriptionExpirationWorker) Start(ctx context.Context) {
	w.log.Info().Dur("tick", w.tickInterval).Msg("🕒 subscription expiration worker started")

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	w.expire(ctx)

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("⚠️ subscription expiration worker stopped")
			return
		case <-ticker.C:
			w.expire(ctx)
		}
	}
}

func (w *SubscriptionExpirationWorker) expire(ctx context.Context) {
	n, err := w.expirer.Execute(ctx, w.now())
	if err != nil {
		w.log.Error().Err(err).Msg("❌ failed to expire subscriptions")
		return
	}
	if n > 0 {
		w.log.Info().Int("count", n).Msg("✅ subscriptions marked inactive")
	}
}
