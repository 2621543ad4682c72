package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/xavierca1/leadflow/internal/entity"
)

// Channel is the Postgres NOTIFY channel every instance listens on.
const Channel = "leadflow_events"

// PGPublisher publishes through NOTIFY so every API instance sees the event.
type PGPublisher struct {
	db *sqlx.DB
}

func NewPGPublisher(db *sqlx.DB) *PGPublisher {
	return &PGPublisher{db: db}
}

func (p *PGPublisher) Publish(ctx context.Context, ev entity.ChangeEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal change event: %w", err)
	}
	if _, err := p.db.ExecContext(ctx, `SELECT leadflow_notify($1, $2::jsonb)`, Channel, string(payload)); err != nil {
		return fmt.Errorf("notify %s: %w", ev.Type, err)
	}
	return nil
}

// Listener relays NOTIFY payloads into the local Hub.
type Listener struct {
	dsn string
	hub *Hub
	log zerolog.Logger
}

func NewListener(dsn string, hub *Hub, log zerolog.Logger) *Listener {
	return &Listener{dsn: dsn, hub: hub, log: log.With().Str("component", "event_listener").Logger()}
}

// Run blocks until ctx is done. pq.Listener reconnects on its own.
func (l *Listener) Run(ctx context.Context) error {
	pl := pq.NewListener(l.dsn, time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			l.log.Warn().Err(err).Int("event", int(ev)).Msg("postgres listener event")
		}
	})
	defer pl.Close()

	if err := pl.Listen(Channel); err != nil {
		return fmt.Errorf("listen %s: %w", Channel, err)
	}
	l.log.Info().Str("channel", Channel).Msg("👂 listening for change events")

	ping := time.NewTicker(90 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-pl.Notify:
			// nil after a reconnect; anything sent meanwhile is lost.
			if n == nil {
				continue
			}
			l.relay(n.Extra)
		case <-ping.C:
			if err := pl.Ping(); err != nil {
				l.log.Warn().Err(err).Msg("postgres listener ping failed")
			}
		}
	}
}

func (l *Listener) relay(payload string) {
	var ev entity.ChangeEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		l.log.Warn().Err(err).Msg("dropping malformed change event")
		return
	}
	if ev.CompanyID == "" {
		return
	}
	l.hub.Broadcast(ev)
}
