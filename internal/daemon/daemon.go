package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"ward/internal/actuator"
	"ward/internal/blocklist"
	"ward/internal/catalog"
	"ward/internal/config"
	"ward/internal/eventbus"
	"ward/internal/hostbridge"
	"ward/internal/logging"
	"ward/internal/match"
	"ward/internal/metrics"
	"ward/internal/monitor"
	"ward/internal/notifications"
	"ward/internal/player"
	"ward/internal/retry"
	"ward/internal/store"
)

// Daemon coordinates the engine and enforces single-instance execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *store.Store

	holder   *blocklist.Holder
	lists    *blocklist.Lists
	remote   *player.Remote
	actuator *actuator.Actuator
	monitor  *monitor.Monitor
	catalog  *catalog.Catalog
	bridge   *hostbridge.Server

	recorder  metrics.Recorder
	notifier  notifications.Service
	publisher eventbus.Publisher

	lockPath string
	lock     *flock.Flock

	running     atomic.Bool
	cancel      context.CancelFunc
	scheduler   *catalog.Scheduler
	unsubscribe func()
	rebuildMu   sync.Mutex
	wg          sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool            `json:"running"`
	PID          int             `json:"pid"`
	DatabasePath string          `json:"database_path"`
	LockFilePath string          `json:"lock_file_path"`
	BridgeAddr   string          `json:"bridge_addr,omitempty"`
	Monitor      monitor.Status  `json:"monitor"`
	Catalog      *catalog.Status `json:"catalog,omitempty"`
	Player       PlayerStatus    `json:"player"`
}

// PlayerStatus is the last state the companion reported.
type PlayerStatus struct {
	State     player.State `json:"state"`
	UpdatedAt time.Time    `json:"updated_at,omitzero"`
	Connected bool         `json:"connected"`
	Dropped   int          `json:"dropped_commands"`
}

// Option customizes a Daemon.
type Option func(*Daemon)

// WithPublisher routes intervention events to p.
func WithPublisher(p eventbus.Publisher) Option {
	return func(d *Daemon) {
		if p != nil {
			d.publisher = p
		}
	}
}

// WithNotifier replaces the ntfy service built from config.
func WithNotifier(n notifications.Service) Option {
	return func(d *Daemon) {
		if n != nil {
			d.notifier = n
		}
	}
}

// WithRecorder replaces the metrics recorder built from config.
func WithRecorder(r metrics.Recorder) Option {
	return func(d *Daemon) {
		if r != nil {
			d.recorder = r
		}
	}
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil || st == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, and logger")
	}

	d := &Daemon{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "daemon"),
		store:     st,
		holder:    blocklist.NewHolder(),
		remote:    player.NewRemote(nil),
		notifier:  notifications.NewService(cfg),
		publisher: eventbus.NoopPublisher{},
		recorder:  metrics.NoopRecorder{},
		lockPath:  cfg.LockPath(),
		lock:      flock.New(cfg.LockPath()),
	}

	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		prom := metrics.NewPrometheusRecorder(nil)
		d.recorder = prom
		metricsHandler = prom.Handler()
	}
	for _, opt := range opts {
		opt(d)
	}

	pollInterval, settle, seek := cfg.InterventionTimings()
	timings := actuator.Timings{
		Confirm:   retry.Bounded{Attempts: cfg.Intervention.PollAttempts, Interval: pollInterval},
		Settle:    settle,
		SeekDelay: seek,
	}
	d.actuator = actuator.New(d.remote, timings, logger, d.observers()...)

	policy := match.Policy{ShortEntryThreshold: cfg.Matching.ShortEntryThreshold}
	d.monitor = monitor.New(d.remote, d.holder, policy, d.actuator, logger, d.onVerdict)
	d.remote.SetOnChange(d.monitor.Notify)
	d.lists = blocklist.NewLists(st, logger, d.onListChanged)

	if cfg.Catalog.Enabled {
		d.catalog = catalog.New(catalog.Options{
			URL:         cfg.Catalog.URL,
			Timeout:     cfg.CatalogRequestTimeout(),
			MinFetchGap: cfg.CatalogMinFetchGap(),
			Retry:       retry.DefaultPolicy(),
		}, st, logger)
		d.catalog.OnRefresh(d.onCatalogRefresh)
	}

	d.bridge = hostbridge.New(hostbridge.Options{
		Bind:    cfg.Paths.APIBind,
		Token:   cfg.Paths.APIToken,
		Metrics: metricsHandler,
	}, d.remote, bridgeBackend{d}, logger)

	return d, nil
}

// Start acquires the daemon lock and launches every background service.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another ward daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	if err := d.start(runCtx); err != nil {
		d.shutdown()
		return err
	}

	d.running.Store(true)
	d.logger.Info("ward daemon started",
		logging.String("lock", d.lockPath),
		logging.String("database", d.store.Path()),
		logging.String("bridge", d.bridge.Addr()),
	)
	return nil
}

func (d *Daemon) start(ctx context.Context) error {
	changes, unsubscribe := d.store.Subscribe()
	d.unsubscribe = unsubscribe
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.applyChanges(ctx, changes)
	}()

	if _, err := d.rebuild(ctx, "startup"); err != nil {
		return fmt.Errorf("initial snapshot: %w", err)
	}
	if err := d.store.Watch(ctx, store.DefaultWatchDebounce); err != nil {
		return fmt.Errorf("start store watcher: %w", err)
	}
	if err := d.monitor.Start(ctx); err != nil {
		return fmt.Errorf("start monitor: %w", err)
	}
	if err := d.bridge.Start(ctx); err != nil {
		return err
	}
	if d.catalog != nil {
		scheduler, err := catalog.NewScheduler(d.catalog, d.cfg.CatalogRefreshInterval(), d.logger)
		if err != nil {
			return err
		}
		if err := scheduler.Start(ctx); err != nil {
			return err
		}
		d.scheduler = scheduler
	}
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	d.shutdown()
	d.running.Store(false)
	d.logger.Info("ward daemon stopped")
}

func (d *Daemon) shutdown() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.scheduler != nil {
		if err := d.scheduler.Stop(); err != nil {
			d.logger.Warn("catalog scheduler shutdown failed", logging.Error(err))
		}
		d.scheduler = nil
	}
	d.bridge.Stop()
	d.monitor.Stop()
	if d.unsubscribe != nil {
		d.unsubscribe()
		d.unsubscribe = nil
	}
	d.wg.Wait()
	if err := d.publisher.Close(); err != nil {
		d.logger.Warn("event publisher close failed", logging.Error(err))
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Lists exposes the mutation service bound to the daemon's store.
func (d *Daemon) Lists() *blocklist.Lists { return d.lists }

// Remote exposes the companion-driven host.
func (d *Daemon) Remote() *player.Remote { return d.remote }

// Snapshot returns the active blocklist snapshot.
func (d *Daemon) Snapshot() *blocklist.Snapshot { return d.holder.Load() }

// Status returns the current daemon status.
func (d *Daemon) Status(context.Context) Status {
	state, updated, seen := d.remote.Snapshot()
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		DatabasePath: d.store.Path(),
		LockFilePath: d.lockPath,
		BridgeAddr:   d.bridge.Addr(),
		Monitor:      d.monitor.Status(),
		Player: PlayerStatus{
			State:     state,
			UpdatedAt: updated,
			Connected: seen,
			Dropped:   d.remote.Dropped(),
		},
	}
	if d.catalog != nil {
		cs := d.catalog.Status()
		status.Catalog = &cs
	}
	return status
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) error {
	return d.notifier.TestNotification(ctx)
}

// bridgeBackend adapts the daemon to hostbridge.Backend.
type bridgeBackend struct{ d *Daemon }

func (b bridgeBackend) Status(ctx context.Context) any { return b.d.Status(ctx) }

func (b bridgeBackend) BlockCurrent(ctx context.Context, list blocklist.List) (blocklist.Entry, bool, error) {
	return b.d.BlockCurrent(ctx, list)
}
