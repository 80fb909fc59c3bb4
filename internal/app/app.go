package app

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/quaylabs/tidesync/internal/bulkload"
	"github.com/quaylabs/tidesync/internal/config"
	"github.com/quaylabs/tidesync/internal/cursor"
	"github.com/quaylabs/tidesync/internal/notify"
	"github.com/quaylabs/tidesync/internal/source"
	"github.com/quaylabs/tidesync/internal/supervisor"
	"github.com/quaylabs/tidesync/internal/sync"
	"github.com/quaylabs/tidesync/internal/target"
	"github.com/quaylabs/tidesync/internal/telemetry"
)

// Run wires up the daemon and drives it until shutdown or retry exhaustion.
func Run(ctx context.Context, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	cursorPath := cfg.Cursor.Path
	if cursorPath == "" {
		cursorPath = cursor.DefaultPath()
	}
	// The cursor store outlives individual sessions: a reconnect must not
	// lose the last-synced position.
	cursors, err := cursor.NewStore(ctx, cursorPath)
	if err != nil {
		return fmt.Errorf("open cursor store: %w", err)
	}
	defer func() { _ = cursors.Close() }()

	tracer := telemetry.Tracer(cfg.Telemetry.ServiceName)

	sup := &supervisor.Supervisor{
		Dial: func(ctx context.Context) (supervisor.Session, error) {
			return dial(ctx, cfg, cursors, tracer)
		},
		BackoffBase: cfg.Sync.BackoffBase,
		BackoffCap:  cfg.Sync.BackoffCap,
		MaxRetries:  cfg.Sync.MaxRetries,
		OnState: func(state supervisor.State) {
			log.Printf("state: %s", state)
		},
	}
	return sup.Run(ctx)
}

// session is one connected lifetime: three connections dialed together,
// bootstrapped with a full load, then streamed until failure or shutdown.
type session struct {
	id       string
	source   *source.Store
	target   *target.Store
	listener *notify.Listener
	loader   *bulkload.Loader
	loop     *sync.Loop
}

func dial(ctx context.Context, cfg *config.Config, cursors *cursor.Store, tracer trace.Tracer) (*session, error) {
	src, err := source.Open(ctx, cfg.Postgres.DSN, cfg.Postgres.Table)
	if err != nil {
		return nil, fmt.Errorf("dial source: %w", err)
	}

	dst, err := target.Open(ctx, cfg.ClickHouse.DSN, cfg.ClickHouse.Table)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("dial target: %w", err)
	}

	// Subscribe before the bootstrap load runs so changes made during the
	// load are caught by the first debounce window.
	listener, err := notify.Listen(ctx, cfg.Postgres.DSN, cfg.Sync.Channel)
	if err != nil {
		src.Close()
		_ = dst.Close()
		return nil, fmt.Errorf("dial listener: %w", err)
	}

	id := uuid.NewString()
	s := &session{
		id:       id,
		source:   src,
		target:   dst,
		listener: listener,
		loader: &bulkload.Loader{
			Source:  src,
			Target:  dst,
			Cursors: cursors,
			Session: id,
			Tracer:  tracer,
		},
		loop: &sync.Loop{
			Events:  listener,
			Applier: &sync.Applier{Source: src, Target: dst},
			Window:  cfg.Sync.DebounceWindow,
			Tracer:  tracer,
		},
	}
	log.Printf("session %s: connected", id)
	return s, nil
}

func (s *session) Bootstrap(ctx context.Context) error {
	rows, err := s.loader.Full(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap session %s: %w", s.id, err)
	}
	log.Printf("session %s: bootstrapped %d rows", s.id, rows)
	return nil
}

func (s *session) Stream(ctx context.Context) error {
	return s.loop.Run(ctx)
}

func (s *session) Close(ctx context.Context) error {
	err := s.listener.Close(ctx)
	s.source.Close()
	if closeErr := s.target.Close(); err == nil {
		err = closeErr
	}
	return err
}
