// Package orchestrator implements the Application Orchestrator: the
// lifecycle and event-routing kernel that owns every other component,
// enforces dependency-ordered startup and reverse-ordered shutdown, routes
// the sensor event stream to its fan-out consumers, and coordinates
// shutdown under signals, UPS low-battery, and GPIO long-press.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/obdsentry/obdsentryd/internal/alert"
	"github.com/obdsentry/obdsentryd/internal/analysis"
	"github.com/obdsentry/obdsentryd/internal/backup"
	"github.com/obdsentry/obdsentryd/internal/backup/uploader"
	fsuploader "github.com/obdsentry/obdsentryd/internal/backup/uploader/fs"
	s3uploader "github.com/obdsentry/obdsentryd/internal/backup/uploader/s3"
	"github.com/obdsentry/obdsentryd/internal/classify"
	"github.com/obdsentry/obdsentryd/internal/clock"
	"github.com/obdsentry/obdsentryd/internal/config"
	"github.com/obdsentry/obdsentryd/internal/display"
	"github.com/obdsentry/obdsentryd/internal/drive"
	"github.com/obdsentry/obdsentryd/internal/hardware"
	"github.com/obdsentry/obdsentryd/internal/metrics"
	"github.com/obdsentry/obdsentryd/internal/obd"
	"github.com/obdsentry/obdsentryd/internal/poller"
	"github.com/obdsentry/obdsentryd/internal/profile"
	"github.com/obdsentry/obdsentryd/internal/stats"
	"github.com/obdsentry/obdsentryd/internal/store"
	"github.com/obdsentry/obdsentryd/internal/vin"
)

// healthInterval is the default health-monitor cadence.
const healthInterval = 60 * time.Second

// shutdownBudget is the global ceiling on the entire reverse-order shutdown
// sequence; exceeding it forces exit code 4, independent of any individual
// component's own deadline.
const shutdownBudget = 30 * time.Second

// forceExitCode is returned when a second signal arrives during shutdown,
// or the shutdown budget is exceeded.
const forceExitCode = 4

// Orchestrator owns every component instance for the life of the process.
// Components never hold references to one another — they communicate only
// through the event routing this type performs.
type Orchestrator struct {
	cfg    *config.Config
	logger *slog.Logger
	clock  clock.Clock

	store      *store.Store
	batcher    *store.ReadingBatcher
	profiles   *profile.ProfileStore
	active     *profile.ActiveProfile
	switcher   *profile.Switcher
	link       obd.Link
	conn       *Connection
	vinResolve *vin.Resolver
	disp       display.Display
	hwSup      *hardware.Sup
	detector   *drive.Detector
	alerts     *alert.Engine
	pollr      *poller.Poller
	backupC    *backup.Coordinator
	analyzer   *analysis.Client
	metrics    *metrics.Metrics

	httpServer *http.Server

	startedAt time.Time

	cfgPath   string
	reloadReq chan struct{}

	mu                 sync.Mutex
	errorCounts        map[string]int64
	readingCount       int64
	lastHealthReadings int64
	lastReadingsPerMin float64
	openDriveID        string
	lastHealthCheck    time.Time

	vacuumInterval time.Duration
	retentionDays  int
	lastVacuum     time.Time
}

// New constructs every component in dependency order (config resolution is
// the caller's job, done before this is called). It does not connect to
// the OBD link or start any worker — that is Run's job.
func New(ctx context.Context, cfg *config.Config, cfgPath string, logger *slog.Logger) (*Orchestrator, error) {
	o := &Orchestrator{
		cfg:         cfg,
		cfgPath:     cfgPath,
		logger:      logger,
		clock:       clock.Real{},
		errorCounts: make(map[string]int64),
		metrics:     metrics.New(),
		reloadReq:   make(chan struct{}, 1),
	}

	// Step 2: Store, with WAL/foreign_keys/synchronous baked into every
	// connection's DSN.
	s, err := store.Open(ctx, cfg.Database.Path, cfg.Database.Synchronous, cfg.Database.BusyTimeoutMs, logger)
	if err != nil {
		return nil, classify.New(classify.System, fmt.Errorf("orchestrator: opening store: %w", err))
	}

	o.store = s
	o.batcher = store.NewReadingBatcher(s, logger)

	// Step 3: ProfileStore, active profile cell, and switcher.
	ps, err := profile.Load(ctx, s, cfg)
	if err != nil {
		return nil, classify.New(classify.Configuration, fmt.Errorf("orchestrator: loading profiles: %w", err))
	}

	o.profiles = ps
	o.active = profile.NewActiveProfile(cfg.Profiles.ActiveProfile)
	o.switcher = profile.NewSwitcher()

	// Step 4: ObdLink, not yet connected.
	o.link = o.buildLink()

	// Step 5: VinResolver, no network call yet.
	o.vinResolve = vin.New(filepath.Join(filepath.Dir(cfg.Database.Path), "vin_cache"), s, logger)

	// Step 6: Display.
	o.disp = o.buildDisplay()

	// Step 7: HardwareSup, tolerant of absent UPS/GPIO.
	o.hwSup = o.buildHardwareSup()

	// Step 8: StatsEngine is a pure function (internal/stats.Compute); no
	// per-instance state to construct.

	// Step 9: DriveDetector.
	o.detector = drive.New(drive.Config{
		StartRpm:  cfg.Analysis.StartRpm,
		StartHold: time.Duration(cfg.Analysis.StartHoldSec) * time.Second,
		EndRpm:    cfg.Analysis.EndRpm,
		EndHold:   time.Duration(cfg.Analysis.EndHoldSec) * time.Second,
	})

	// Step 10: AlertEngine, loaded with the active profile's thresholds.
	o.alerts = alert.New()

	if active, ok := ps.Get(o.active.Get()); ok {
		o.alerts.Reload(active.Thresholds)
	}

	// Step 11: Poller.
	active, _ := ps.Get(o.active.Get())
	interval := time.Duration(active.PollIntervalMs) * time.Millisecond

	if interval <= 0 {
		interval = time.Duration(cfg.RealtimeData.PollIntervalMs) * time.Millisecond
	}

	o.pollr = poller.New(o.link, cfg.RealtimeData.Parameters, interval, o.active.Get, o.currentDriveID, logger)

	// Step 12: ProfileSwitcher was created alongside the active-profile cell
	// in step 3; it has no further dependencies to wire here.

	// Step 13: BackupCoordinator, with catch-up evaluated once Run starts.
	up, err := o.buildUploader(ctx)
	if err != nil {
		return nil, err
	}

	o.backupC = backup.New(s, up, backup.Config{
		DBPath:         s.Path(),
		Gzip:           cfg.Backup.Gzip,
		MaxBackups:     cfg.Backup.MaxBackups,
		CatchupDays:    cfg.Backup.CatchupDays,
		ScheduleTime:   cfg.Backup.ScheduleTime,
		BandwidthLimit: cfg.Backup.BandwidthLimit,
	}, o.batcher.Flush, o.clock, logger)

	if cfg.AiAnalysis.Enabled {
		o.analyzer = analysis.New(cfg.AiAnalysis.BaseURL, cfg.AiAnalysis.Model, cfg.AiAnalysis.APIKey,
			time.Duration(cfg.AiAnalysis.TimeoutSec)*time.Second, logger)
	}

	o.conn = NewConnection(o.link, s, o.pollr.Resume, o.pollr.Pause, logger)

	vacuumInterval, err := config.Duration("database.vacuum_interval", cfg.Database.VacuumInterval)
	if err != nil {
		return nil, err
	}

	o.vacuumInterval = vacuumInterval
	o.retentionDays = cfg.Database.RetentionDays

	return o, nil
}

// RequestReload asks the running event loop to re-read the config file's
// profiles/alerts sections on its next iteration, supporting threshold and
// profile edits without a restart. Safe to call from the SIGHUP handler's
// own goroutine.
func (o *Orchestrator) RequestReload() {
	select {
	case o.reloadReq <- struct{}{}:
	default:
	}
}

// handleReload re-parses the config file named at startup and reloads only
// its profiles/alerts sections into the live ProfileStore and AlertEngine —
// everything else (database path, bluetooth mac, hardware wiring) requires
// a restart.
func (o *Orchestrator) handleReload(ctx context.Context) {
	if o.cfgPath == "" {
		o.logger.Warn("orchestrator: reload requested but no config file path is known")

		return
	}

	newCfg, err := config.Load(o.cfgPath, o.logger)
	if err != nil {
		o.logger.Warn("orchestrator: reload failed, keeping existing profiles and thresholds", "error", err)

		return
	}

	o.cfg.Profiles = newCfg.Profiles
	o.cfg.Alerts = newCfg.Alerts

	ps, err := profile.Load(ctx, o.store, o.cfg)
	if err != nil {
		o.logger.Warn("orchestrator: reloading profiles failed", "error", err)

		return
	}

	o.profiles = ps

	if active, ok := ps.Get(o.active.Get()); ok {
		o.alerts.Reload(active.Thresholds)

		if active.PollIntervalMs > 0 {
			o.pollr.SetInterval(time.Duration(active.PollIntervalMs) * time.Millisecond)
		}
	}

	o.logger.Info("orchestrator: profiles and thresholds reloaded")
}

func (o *Orchestrator) currentDriveID() string {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.openDriveID
}

// buildLink constructs the ObdLink implementation chosen by config,
// without connecting.
func (o *Orchestrator) buildLink() obd.Link {
	if o.cfg.Simulator.Enabled {
		return obd.NewSimulator(o.cfg.Simulator.Seed, o.cfg.Simulator.BaseRpm)
	}

	connectTimeout, err := config.Duration("bluetooth.connect_timeout", o.cfg.Bluetooth.ConnectTimeout)
	if err != nil {
		connectTimeout = 10 * time.Second
	}

	readTimeout, err := config.Duration("bluetooth.read_timeout", o.cfg.Bluetooth.ReadTimeout)
	if err != nil {
		readTimeout = 5 * time.Second
	}

	return obd.NewSerial(o.cfg.Bluetooth.Mac, connectTimeout, readTimeout)
}

// buildDisplay constructs the configured Display driver. headless is
// always a valid fallback.
func (o *Orchestrator) buildDisplay() display.Display {
	switch o.cfg.Hardware.DisplayDriver {
	case "websocket":
		return display.NewWebSocket(o.logger)
	case "text":
		return display.NewText(textSink{o.logger})
	default:
		return display.NewHeadless(o.logger)
	}
}

// textSink adapts the Text driver's io.Writer requirement to the
// orchestrator's logger at DEBUG level; buildDisplay always hands it to
// the text driver, so the banner goes to the log rather than a terminal.
type textSink struct{ logger *slog.Logger }

func (t textSink) Write(p []byte) (int, error) {
	t.logger.Debug("display: " + string(p))

	return len(p), nil
}

// buildHardwareSup opens the I2C bus and GPIO pin named by config,
// falling back to simulated stand-ins on any failure — HardwareSup must
// continue even if the underlying devices are absent.
func (o *Orchestrator) buildHardwareSup() *hardware.Sup {
	ups := o.openUps()
	button := o.openButton()
	indicator := o.openIndicator()

	pollInterval, err := config.Duration("hardware.ups_poll_interval", o.cfg.Hardware.UpsPollInterval)
	if err != nil {
		pollInterval = 5 * time.Second
	}

	maxBackoff, err := config.Duration("hardware.max_backoff", o.cfg.Hardware.MaxBackoff)
	if err != nil {
		maxBackoff = 60 * time.Second
	}

	return hardware.New(ups, button, indicator, o.store, o.disp, hardware.Config{
		PollInterval:  pollInterval,
		LongPressHold: 3 * time.Second,
		LowSocPct:     o.cfg.Hardware.LowSocPct,
		MaxBackoff:    maxBackoff,
	}, o.logger)
}

func (o *Orchestrator) openUps() hardware.UpsDevice {
	if o.cfg.Simulator.Enabled || o.cfg.Hardware.I2CBus == "" {
		return hardware.NewSimUps(o.cfg.Simulator.Seed)
	}

	if _, err := host.Init(); err != nil {
		o.logger.Warn("hardware: periph host init failed, using simulated UPS", "error", err)

		return hardware.NewSimUps(1)
	}

	bus, err := i2creg.Open(o.cfg.Hardware.I2CBus)
	if err != nil {
		o.logger.Warn("hardware: opening I2C bus failed, using simulated UPS", "bus", o.cfg.Hardware.I2CBus, "error", err)

		return hardware.NewSimUps(1)
	}

	return hardware.NewI2CUps(bus.(i2c.Bus), uint16(o.cfg.Hardware.I2CAddr))
}

func (o *Orchestrator) openButton() hardware.Button {
	if o.cfg.Simulator.Enabled || o.cfg.Hardware.GpioButtonPin == 0 {
		return hardware.NoButton{}
	}

	pin := gpioreg.ByName(fmt.Sprintf("GPIO%d", o.cfg.Hardware.GpioButtonPin))
	if pin == nil {
		o.logger.Warn("hardware: gpio pin not found, button disabled", "pin", o.cfg.Hardware.GpioButtonPin)

		return hardware.NoButton{}
	}

	return hardware.NewGpioButton(pin, o.clock)
}

func (o *Orchestrator) openIndicator() hardware.AlertIndicator {
	if o.cfg.Simulator.Enabled || o.cfg.Hardware.AlertIndicatorPin == 0 {
		return hardware.NoIndicator{}
	}

	pin := gpioreg.ByName(fmt.Sprintf("GPIO%d", o.cfg.Hardware.AlertIndicatorPin))
	if pin == nil {
		o.logger.Warn("hardware: gpio pin not found, alert indicator disabled", "pin", o.cfg.Hardware.AlertIndicatorPin)

		return hardware.NoIndicator{}
	}

	return hardware.NewGpioIndicator(pin, o.logger)
}

// buildUploader constructs the configured backup Uploader.
func (o *Orchestrator) buildUploader(ctx context.Context) (uploader.Uploader, error) {
	switch o.cfg.Backup.Uploader {
	case "s3":
		up, err := s3uploader.New(ctx, s3uploader.Config{
			Bucket: o.cfg.Backup.S3.Bucket,
			Region: o.cfg.Backup.S3.Region,
			Prefix: o.cfg.Backup.S3.Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("orchestrator: constructing s3 uploader: %w", err)
		}

		return up, nil
	default:
		up, err := fsuploader.New(o.cfg.Backup.FolderPath)
		if err != nil {
			return nil, classify.New(classify.Configuration, fmt.Errorf("orchestrator: constructing fs uploader: %w", err))
		}

		return up, nil
	}
}

// Run wires every event route, attempts the first OBD connection, and
// blocks until shutdown is triggered by ctx cancellation (the caller's
// signal handling), an internal HardwareSup shutdown request, or a
// power-loss grace window expiring. It returns the process exit code.
func (o *Orchestrator) Run(ctx context.Context) int {
	o.startedAt = o.clock.Now()
	o.lastHealthCheck = o.startedAt
	o.lastVacuum = o.startedAt

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()

		o.conn.Run(runCtx)
	}()

	wg.Add(1)

	go func() {
		defer wg.Done()

		o.pollr.Run(runCtx)
	}()

	wg.Add(1)

	go func() {
		defer wg.Done()

		if err := o.hwSup.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			o.logger.Warn("orchestrator: hardware supervisor exited with error", "error", err)
		}
	}()

	wg.Add(1)

	go func() {
		defer wg.Done()

		if err := o.backupC.Run(runCtx, o.cfg.Backup.ScheduleTime); err != nil {
			o.logger.Warn("orchestrator: backup coordinator exited with error", "error", err)
		}
	}()

	o.startHTTPServer()

	exitCode := o.eventLoop(runCtx, cancelRun)

	cancelRun()

	workersDone := make(chan struct{})
	go func() {
		wg.Wait()
		o.shutdownComponents()
		close(workersDone)
	}()

	select {
	case <-workersDone:
	case <-time.After(shutdownBudget):
		o.logger.Error("orchestrator: shutdown exceeded global budget, forcing exit", "budget", shutdownBudget)

		return forceExitCode
	}

	return exitCode
}

// eventLoop is the orchestrator's sole subscriber loop: it multiplexes
// every producer's events to their routed consumers in the order spec
// §4.1's table lists, and never lets one consumer's failure block
// delivery to the rest (testable property 4).
func (o *Orchestrator) eventLoop(runCtx context.Context, cancelRun context.CancelFunc) int {
	healthTicker := time.NewTicker(healthInterval)
	defer healthTicker.Stop()

	gracePeriod := time.Duration(o.cfg.Hardware.ShutdownDelaySec) * time.Second

	var graceCancel context.CancelFunc
	defer func() {
		if graceCancel != nil {
			graceCancel()
		}
	}()

	shutdownReason := ""

	for {
		select {
		case <-runCtx.Done():
			if shutdownReason == "" {
				shutdownReason = "context canceled"
			}

			o.logger.Info("orchestrator: shutting down", "reason", shutdownReason)

			return 0

		case r, ok := <-o.pollr.Readings():
			if !ok {
				continue
			}

			o.routeReading(runCtx, r)

		case req := <-o.hwSup.Shutdown:
			shutdownReason = req.Reason
			cancelRun()

		case src := <-o.hwSup.PowerSourceChanged:
			if graceCancel != nil {
				graceCancel()
				graceCancel = nil
			}

			if src == store.PowerBattery {
				var gctx context.Context

				gctx, graceCancel = context.WithCancel(runCtx)

				go func(gctx context.Context) {
					select {
					case <-time.After(gracePeriod):
						o.logger.Warn("orchestrator: power remained on battery past grace window, shutting down")
						shutdownReason = "power loss grace window expired"
						cancelRun()
					case <-gctx.Done():
					}
				}(gctx)
			}

		case <-healthTicker.C:
			o.runHealthCheck()

		case <-o.reloadReq:
			o.handleReload(runCtx)
		}
	}
}

// routeReading delivers one Poller reading to every consumer in a fixed
// order: Display, DriveDetector, AlertEngine, Store.
func (o *Orchestrator) routeReading(ctx context.Context, r store.Reading) {
	o.mu.Lock()
	o.readingCount++
	o.mu.Unlock()

	o.metrics.ReadingsTotal.WithLabelValues(r.Parameter).Inc()

	o.disp.Update(r)

	if r.Parameter == "RPM" {
		transition := o.detector.Feed(time.UnixMilli(r.TimestampMs), r.Value)

		switch {
		case transition.Start:
			o.onDriveStart(ctx, r.TimestampMs)
		case transition.End:
			o.onDriveEnd(ctx, r.TimestampMs)
		}
	}

	for _, evt := range o.alerts.Evaluate(time.UnixMilli(r.TimestampMs), r) {
		o.metrics.AlertEventsTotal.WithLabelValues(evt.ThresholdID).Inc()
		o.disp.ShowAlert(evt)
		o.hwSup.NotifyAlert(evt)

		if err := o.store.AppendAlertEvent(ctx, evt); err != nil {
			o.recordError("data", err)
		}
	}

	if err := o.batcher.Add(ctx, r); err != nil {
		o.recordError("system", err)
	}
}

func (o *Orchestrator) onDriveStart(ctx context.Context, tsMs int64) {
	id := uuid.NewString()

	o.mu.Lock()
	o.openDriveID = id
	o.mu.Unlock()

	if err := o.store.OpenDriveSession(ctx, id, o.active.Get(), tsMs); err != nil {
		o.recordError("system", err)

		return
	}

	o.metrics.DriveSessionsTotal.Inc()
	o.disp.ShowDriveBoundary(store.EventDriveStart, time.UnixMilli(tsMs))

	o.resolveVin()

	if o.analyzer != nil {
		o.analyzer.ResetForNewDrive()
	}

	if err := o.store.AppendConnectionEvent(ctx, store.ConnectionEvent{
		Ts: tsMs, Kind: store.EventDriveStart, Detail: id,
	}); err != nil {
		o.recordError("system", err)
	}
}

// resolveVin triggers VinResolver at the drive-start boundary when a VIN
// is configured — the one-shot network call spec §4.1 defers until
// something actually needs VehicleInfo. It runs off the main event loop
// so a slow or unreachable vPIC host never delays reading delivery.
func (o *Orchestrator) resolveVin() {
	if o.cfg.Application.VIN == "" {
		return
	}

	go func() {
		if _, err := o.vinResolve.Resolve(context.Background(), o.cfg.Application.VIN, false); err != nil {
			o.recordError("data", err)
		}
	}()
}

func (o *Orchestrator) onDriveEnd(ctx context.Context, tsMs int64) {
	driveID, err := o.store.CloseOpenDriveSession(ctx, tsMs)
	if err != nil {
		if !errors.Is(err, store.ErrNoOpenSession) {
			o.recordError("system", err)
		}

		return
	}

	o.mu.Lock()
	o.openDriveID = ""
	o.mu.Unlock()

	if err := o.batcher.Flush(ctx); err != nil {
		o.recordError("system", err)
	}

	readings, err := o.store.ListReadings(ctx, driveID)
	if err != nil {
		o.recordError("system", err)

		return
	}

	results := stats.Compute(driveID, readings)

	if err := o.store.InsertAnalysisResults(ctx, results); err != nil {
		o.recordError("system", err)
	}

	o.disp.ShowSummary(results)
	o.disp.ShowDriveBoundary(store.EventDriveEnd, time.UnixMilli(tsMs))

	if err := o.store.AppendConnectionEvent(ctx, store.ConnectionEvent{
		Ts: tsMs, Kind: store.EventDriveEnd, Detail: driveID,
	}); err != nil {
		o.recordError("system", err)
	}

	if pending := o.switcher.ApplyPending(); pending != "" {
		o.applyProfileSwitch(pending)
	}

	o.backupC.NoteDriveEnded(driveID)

	if o.analyzer != nil {
		go o.runAnalysis(driveID, results)
	}
}

// applyProfileSwitch implements the ProfileSwitcher -> AlertEngine/Poller
// routing: a queued profile id takes effect only here, at a drive
// boundary.
func (o *Orchestrator) applyProfileSwitch(id string) {
	p, ok := o.profiles.Get(id)
	if !ok {
		o.logger.Warn("orchestrator: queued profile switch names an unknown profile", "profile", id)

		return
	}

	o.active.Set(id)
	o.alerts.Reload(p.Thresholds)

	if p.PollIntervalMs > 0 {
		o.pollr.SetInterval(time.Duration(p.PollIntervalMs) * time.Millisecond)
	}

	o.logger.Info("orchestrator: profile switched", "profile", id)
}

// runAnalysis posts the just-closed drive's results to the optional AI
// analysis host. It runs off the main event loop so a slow or unreachable
// host never delays the next drive_start/drive_end.
func (o *Orchestrator) runAnalysis(driveID string, results []store.AnalysisResult) {
	recs, err := o.analyzer.Analyze(context.Background(), driveID, results, nil)
	if err != nil {
		o.recordError(classify.Classify(err).String(), err)

		return
	}

	o.logger.Info("orchestrator: analysis complete", "drive_id", driveID, "recommendations", len(recs))
}

func (o *Orchestrator) recordError(category string, err error) {
	o.mu.Lock()
	o.errorCounts[category]++
	o.mu.Unlock()

	o.logger.Warn("orchestrator: consumer error", "category", category, "error", err)
}

// runHealthCheck computes and logs the periodic health snapshot (spec
// §4.1: readings/min, cumulative errors, connection state, uptime).
func (o *Orchestrator) runHealthCheck() {
	o.mu.Lock()
	delta := o.readingCount - o.lastHealthReadings
	o.lastHealthReadings = o.readingCount
	elapsed := time.Since(o.lastHealthCheck)
	o.lastHealthCheck = time.Now()
	perMin := float64(delta) / elapsed.Minutes()
	o.lastReadingsPerMin = perMin
	errs := make(map[string]int64, len(o.errorCounts))

	for k, v := range o.errorCounts {
		errs[k] = v
	}
	o.mu.Unlock()

	o.metrics.ConnectionState.Set(float64(o.conn.State()))

	if err := o.batcher.Flush(context.Background()); err != nil {
		o.recordError("system", err)
	}

	o.logger.Info("orchestrator: health snapshot",
		"connection_state", o.conn.State().String(),
		"readings_per_min", perMin,
		"errors", errs,
		"uptime_sec", time.Since(o.startedAt).Seconds(),
	)

	o.maybeRunRetentionSweep()
}

// maybeRunRetentionSweep deletes readings older than the configured
// retention window and reclaims their space, once per vacuumInterval.
// Piggybacks on the health ticker rather than a dedicated one — a
// once-a-day sweep doesn't warrant its own timer. VACUUM holds the
// Store's sole connection for the duration, so it runs off the event
// loop, same as runAnalysis.
func (o *Orchestrator) maybeRunRetentionSweep() {
	if time.Since(o.lastVacuum) < o.vacuumInterval {
		return
	}

	o.lastVacuum = o.clock.Now()
	cutoff := o.clock.Now().AddDate(0, 0, -o.retentionDays).UnixMilli()

	go func() {
		deleted, err := o.store.DeleteReadingsOlderThan(context.Background(), cutoff)
		if err != nil {
			o.recordError("system", err)

			return
		}

		o.logger.Info("orchestrator: retention sweep deleted expired readings", "rows", deleted, "retention_days", o.retentionDays)

		if err := o.store.Vacuum(context.Background()); err != nil {
			o.recordError("system", err)
		}
	}()
}

// startHTTPServer exposes /metrics and /status if hardware.metrics_addr is
// configured. Errors are logged, never fatal — observability is ambient,
// not on the critical path.
func (o *Orchestrator) startHTTPServer() {
	if o.cfg.Hardware.MetricsAddr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", o.metrics.Handler())
	mux.HandleFunc("/status", o.statusHandler())
	mux.HandleFunc("/profile", o.profileHandler())

	if ws, ok := o.disp.(*display.WebSocket); ok {
		mux.HandleFunc("/display", ws.Handler())
	}

	o.httpServer = &http.Server{Addr: o.cfg.Hardware.MetricsAddr, Handler: mux}

	go func() {
		if err := o.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			o.logger.Warn("orchestrator: http server exited with error", "error", err)
		}
	}()
}

// shutdownComponents stops every component in strict reverse of the
// initialized order. The HTTP server shutdown and the final reading flush
// are each bounded by a per-component deadline; closing the display and
// the store is not bounded by one.
func (o *Orchestrator) shutdownComponents() {
	const componentDeadline = 5 * time.Second

	if o.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), componentDeadline)
		if err := o.httpServer.Shutdown(ctx); err != nil {
			o.logger.Warn("orchestrator: http server shutdown deadline exceeded", "error", err)
		}
		cancel()
	}

	flushCtx, flushCancel := context.WithTimeout(context.Background(), componentDeadline)
	if err := o.batcher.Flush(flushCtx); err != nil {
		o.logger.Warn("orchestrator: final reading flush failed", "error", err)
	}
	flushCancel()

	if err := o.disp.Close(); err != nil {
		o.logger.Warn("orchestrator: closing display failed", "error", err)
	}

	if err := o.store.Close(); err != nil {
		o.logger.Warn("orchestrator: closing store failed", "error", err)
	}
}
