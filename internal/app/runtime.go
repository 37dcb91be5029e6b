package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/skobkin/dsrelay/internal/actions"
	"github.com/skobkin/dsrelay/internal/bus"
	"github.com/skobkin/dsrelay/internal/command"
	"github.com/skobkin/dsrelay/internal/config"
	"github.com/skobkin/dsrelay/internal/connectors"
	"github.com/skobkin/dsrelay/internal/logging"
	"github.com/skobkin/dsrelay/internal/notifications"
	"github.com/skobkin/dsrelay/internal/persistence"
	"github.com/skobkin/dsrelay/internal/relay"
)

// Options tune Initialize. The zero value resolves paths from the user config dir.
type Options struct {
	// Paths overrides the resolved runtime locations.
	Paths *Paths
	// Override adjusts the loaded config before anything starts (env, flags).
	Override func(cfg *config.AppConfig) error
	// Notifier receives connection notifications when set.
	Notifier notifications.Sender
}

type Runtime struct {
	mu sync.RWMutex

	Ctx    context.Context
	cancel context.CancelFunc

	Paths  Paths
	config config.AppConfig

	LogManager *logging.Manager
	Bus        *bus.PubSubBus
	DB         *sql.DB

	CommandRepo *persistence.CommandRepo
	StatusRepo  *persistence.StatusRepo
	WriterQueue *persistence.WriterQueue

	Relay         *relay.Manager
	Dispatcher    *command.Dispatcher
	Actions       *actions.Executor
	Notifications *NotificationService

	connStatusMu    sync.RWMutex
	connStatus      connectors.ConnectionStatus
	connStatusKnown bool
}

func Initialize(parent context.Context, opts Options) (*Runtime, error) {
	var paths Paths
	if opts.Paths != nil {
		paths = *opts.Paths
	} else {
		resolved, err := ResolvePaths()
		if err != nil {
			return nil, err
		}
		paths = resolved
	}
	cfg, err := config.Load(paths.ConfigFile)
	if err != nil {
		return nil, err
	}
	if opts.Override != nil {
		if err := opts.Override(&cfg); err != nil {
			return nil, fmt.Errorf("apply config overrides: %w", err)
		}
		cfg.FillMissingDefaults()
	}

	ctx, cancel := context.WithCancel(parent)
	rt := &Runtime{
		Ctx:    ctx,
		cancel: cancel,
		Paths:  paths,
		config: cfg,
	}

	logMgr := logging.NewManager()
	if err := logMgr.Configure(cfg.Logging, paths.LogFile); err != nil {
		_ = logMgr.Close()
		cancel()

		return nil, fmt.Errorf("configure logging: %w", err)
	}
	rt.LogManager = logMgr
	slog.Info("starting dsrelay runtime", "version", BuildVersion(), "commit", BuildCommit(), "build_date", BuildDateYMD())

	b := bus.New(logMgr.Logger("bus"))
	rt.Bus = b
	connSub := b.Subscribe(connectors.TopicConnStatus)
	go rt.captureConnStatus(ctx, connSub)

	if cfg.Journal.Enabled {
		if err := rt.openJournal(ctx, cfg.Journal); err != nil {
			_ = rt.Close()

			return nil, err
		}
	}

	rt.Relay = relay.NewManager(logMgr.Logger("relay"), b, NewTransportForConnection)
	rt.Dispatcher = command.NewDispatcher(rt.Relay, b, logMgr.Logger("command"))
	rt.Actions = actions.NewExecutor(rt.Dispatcher, logMgr.Logger("actions"))

	if opts.Notifier != nil {
		rt.Notifications = NewNotificationService(b, rt.CurrentConfig, opts.Notifier, logMgr.Logger("app.notifications"))
		rt.Notifications.Start(ctx)
	}

	return rt, nil
}

func (r *Runtime) openJournal(ctx context.Context, cfg config.JournalConfig) error {
	db, err := persistence.Open(ctx, r.Paths.DBFile)
	if err != nil {
		return err
	}
	r.DB = db
	r.CommandRepo = persistence.NewCommandRepo(db)
	r.StatusRepo = persistence.NewStatusRepo(db)

	if cfg.RetentionDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -cfg.RetentionDays)
		removed, err := persistence.PruneBefore(ctx, db, cutoff)
		if err != nil {
			slog.Warn("prune journal", "error", err)
		} else if removed > 0 {
			slog.Info("journal pruned", "rows", removed, "retention_days", cfg.RetentionDays)
		}
	}

	writerQueue := persistence.NewWriterQueue(r.LogManager.Logger("persistence"), 512)
	writerQueue.Start(ctx)
	r.WriterQueue = writerQueue
	persistence.StartJournalProjection(ctx, r.Bus, writerQueue, r.CommandRepo, r.StatusRepo)

	return nil
}

// Connect applies the current connection settings to the relay manager.
func (r *Runtime) Connect() {
	r.Relay.Configure(r.CurrentConfig().Connection)
}

func (r *Runtime) captureConnStatus(ctx context.Context, sub bus.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-sub:
			if !ok {
				return
			}
			status, ok := raw.(connectors.ConnectionStatus)
			if !ok {
				continue
			}
			r.setConnStatus(status)
		}
	}
}

func (r *Runtime) setConnStatus(status connectors.ConnectionStatus) {
	r.connStatusMu.Lock()
	r.connStatus = status
	r.connStatusKnown = true
	r.connStatusMu.Unlock()
}

func (r *Runtime) CurrentConnStatus() (connectors.ConnectionStatus, bool) {
	r.connStatusMu.RLock()
	status := r.connStatus
	known := r.connStatusKnown
	r.connStatusMu.RUnlock()

	return status, known
}

func (r *Runtime) CurrentConfig() config.AppConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.config
}

// SaveAndApplyConfig persists cfg and reconnects when the connection settings changed.
func (r *Runtime) SaveAndApplyConfig(cfg config.AppConfig) error {
	cfg.FillMissingDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	previous := r.config
	if err := config.Save(r.Paths.ConfigFile, cfg); err != nil {
		r.mu.Unlock()

		return err
	}
	r.config = cfg
	r.mu.Unlock()

	if err := r.LogManager.Configure(cfg.Logging, r.Paths.LogFile); err != nil {
		return err
	}
	if r.Relay != nil && previous.Connection != cfg.Connection {
		r.Relay.Configure(cfg.Connection)
	}

	return nil
}

func (r *Runtime) ClearJournal() error {
	if r.DB == nil {
		return fmt.Errorf("journal is disabled")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := persistence.ClearJournal(ctx, r.DB); err != nil {
		return err
	}
	slog.Info("journal cleared")

	return nil
}

func (r *Runtime) Close() error {
	if r.Relay != nil {
		_ = r.Relay.Close()
	}
	if r.cancel != nil {
		r.cancel()
	}
	if r.WriterQueue != nil {
		<-r.WriterQueue.Done()
	}
	if r.Bus != nil {
		r.Bus.Close()
	}
	if r.DB != nil {
		_ = r.DB.Close()
	}
	if r.LogManager != nil {
		_ = r.LogManager.Close()
	}

	return nil
}
