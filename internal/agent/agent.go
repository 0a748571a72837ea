// Package agent runs scheduled certificate checks and fans the results out
// to metrics, the collector and the state file.
package agent

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/certwatch-app/cw-certcheck/internal/config"
	"github.com/certwatch-app/cw-certcheck/internal/metrics"
	"github.com/certwatch-app/cw-certcheck/internal/scanner"
	"github.com/certwatch-app/cw-certcheck/internal/state"
	"github.com/certwatch-app/cw-certcheck/internal/summary"
	"github.com/certwatch-app/cw-certcheck/internal/sync"
	"github.com/certwatch-app/cw-certcheck/internal/version"
)

// Agent orchestrates certificate scanning and publishing
type Agent struct {
	config  *config.Config
	scanner *scanner.Scanner
	client  *sync.Client
	metrics *metrics.Metrics
	state   *state.Manager
	logger  *zap.Logger
	now     func() time.Time
}

// Option customizes an Agent
type Option func(*settings)

type settings struct {
	dialer scanner.Dialer
	state  *state.Manager
	now    func() time.Time
}

// WithDialer replaces the TLS dialer used by the scanner
func WithDialer(d scanner.Dialer) Option {
	return func(s *settings) { s.dialer = d }
}

// WithState persists agent state through m
func WithState(m *state.Manager) Option {
	return func(s *settings) { s.state = m }
}

// WithClock overrides the wall clock
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

// New creates a new Agent
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) (*Agent, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	set := settings{now: time.Now}
	for _, opt := range opts {
		opt(&set)
	}

	scanOpts := cfg.ScannerOptions()
	scanOpts.Dialer = set.dialer
	scanOpts.Now = set.now

	a := &Agent{
		config:  cfg,
		scanner: scanner.New(scanOpts, logger.Named("scanner")),
		metrics: metrics.New(),
		state:   set.state,
		logger:  logger,
		now:     set.now,
	}

	if cfg.PublishEnabled() {
		a.client = sync.New(cfg, logger.Named("publish"))
	}

	return a, nil
}

// Metrics returns the agent's collectors
func (a *Agent) Metrics() *metrics.Metrics {
	return a.metrics
}

// Run scans immediately and then on every scan interval until ctx is done
func (a *Agent) Run(ctx context.Context) error {
	a.logger.Info("agent starting",
		zap.String("name", a.config.Agent.Name),
		zap.Int("targets", len(a.config.Targets)),
		zap.Duration("scan_interval", a.config.Agent.ScanInterval),
		zap.Bool("publish", a.client != nil),
	)

	a.restoreState()

	a.metrics.SetAgentInfo(version.GetVersion(), a.config.Agent.Name)
	a.metrics.TargetsWatched.Set(float64(len(a.config.Targets)))

	if a.config.Agent.MetricsPort > 0 {
		addr := net.JoinHostPort("", strconv.Itoa(a.config.Agent.MetricsPort))
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("failed to listen on metrics address %s: %w", addr, err)
		}
		go a.serveMetrics(ctx, ln)
	}

	if _, err := a.RunOnce(ctx); err != nil && ctx.Err() == nil {
		// keep running, the next interval may succeed
		a.logger.Error("initial run failed", zap.Error(err))
	}

	ticker := time.NewTicker(a.config.Agent.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("agent stopping")
			return ctx.Err()

		case <-ticker.C:
			a.logger.Debug("scan interval triggered")
			if _, err := a.RunOnce(ctx); err != nil && ctx.Err() == nil {
				a.logger.Error("run failed", zap.Error(err))
			}
		}
	}
}

// RunOnce checks every configured target once, updates metrics, publishes
// and saves state. Publish and state failures are collected; a failing
// publish still records the run.
func (a *Agent) RunOnce(ctx context.Context) (summary.Report, error) {
	start := a.now()
	a.logger.Info("starting certificate scan", zap.Int("targets", len(a.config.Targets)))

	results := a.scanner.ScanAll(ctx, a.config.ScanTargets())
	if err := ctx.Err(); err != nil {
		return summary.Report{}, err
	}

	finished := a.now()
	rep := summary.Build(results)
	a.metrics.ObserveScan(results, finished.Sub(start), finished)

	a.logger.Info("scan complete",
		zap.Duration("duration", finished.Sub(start)),
		zap.Int("ok", rep.Counts.OK),
		zap.Int("expiring_soon", rep.Counts.ExpiringSoon),
		zap.Int("expired", rep.Counts.Expired),
		zap.Int("invalid", rep.Counts.Invalid),
	)
	a.logAlerts(rep)

	var result *multierror.Error

	runSummary := state.RunSummary{
		Total:        rep.Counts.Total,
		OK:           rep.Counts.OK,
		Expired:      rep.Counts.Expired,
		ExpiringSoon: rep.Counts.ExpiringSoon,
		Invalid:      rep.Counts.Invalid,
	}

	if a.client != nil {
		runID, err := a.publish(ctx, rep, finished)
		runSummary.RunID = runID
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("publish: %w", err))
		}
	}

	if a.state != nil {
		a.state.SetAgentName(a.config.Agent.Name)
		a.state.RecordRun(finished, runSummary)
		if err := a.state.Save(); err != nil {
			result = multierror.Append(result, fmt.Errorf("state: %w", err))
		}
	}

	return rep, result.ErrorOrNil()
}

func (a *Agent) publish(ctx context.Context, rep summary.Report, checkedAt time.Time) (string, error) {
	start := time.Now()
	a.logger.Info("publishing results", zap.Int("records", len(rep.Records)))

	req := a.client.BuildRequest(rep, checkedAt)
	resp, err := a.client.Publish(ctx, req)
	a.metrics.ObservePublish(err, time.Since(start))
	if err != nil {
		return req.RunID, err
	}

	a.logger.Info("publish complete",
		zap.Duration("duration", time.Since(start)),
		zap.String("run_id", req.RunID),
		zap.String("agent_id", resp.AgentID),
		zap.Int("accepted", resp.Data.Accepted),
		zap.Int("rejected", resp.Data.Rejected),
	)

	for _, recErr := range resp.Data.Errors {
		a.logger.Warn("record rejected by collector",
			zap.String("hostname", recErr.Hostname),
			zap.Int("port", recErr.Port),
			zap.String("error", recErr.Error),
		)
	}

	if a.state != nil {
		a.state.SetAgentID(a.client.GetAgentID())
		a.state.RecordPublish(checkedAt)
	}

	return req.RunID, nil
}

func (a *Agent) logAlerts(rep summary.Report) {
	for _, rec := range rep.Records {
		if rec.AlertType == string(scanner.AlertNone) {
			continue
		}
		fields := []zap.Field{
			zap.String("hostname", rec.Hostname),
			zap.Int("port", rec.Port),
			zap.String("status", rec.CertStatus),
			zap.String("category", rec.IssueCategory),
		}
		if rec.DaysToExpiry != nil {
			fields = append(fields, zap.Int("days_to_expiry", *rec.DaysToExpiry))
		}
		if rec.ErrorMessage != "" {
			fields = append(fields, zap.String("error", rec.ErrorMessage))
		}
		a.logger.Warn(rec.AlertType, fields...)
	}
}

func (a *Agent) restoreState() {
	if a.state == nil {
		return
	}

	if err := a.state.Load(); err != nil {
		a.logger.Warn("failed to load state", zap.Error(err), zap.String("path", a.state.FilePath()))
	}

	if a.state.HasNameChanged(a.config.Agent.Name) {
		a.logger.Warn("agent name changed since last run, registering as a new agent",
			zap.String("previous", a.state.GetAgentName()),
			zap.String("current", a.config.Agent.Name),
		)
		a.state.SetAgentID("")
	}

	if a.client != nil {
		a.client.SetAgentID(a.state.GetAgentID())
	}
}

func (a *Agent) serveMetrics(ctx context.Context, ln net.Listener) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		//nolint:errcheck // best effort body
		w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		//nolint:errcheck // shutting down
		srv.Shutdown(shutdownCtx)
	}()

	a.logger.Info("metrics server listening", zap.String("addr", ln.Addr().String()))
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		a.logger.Error("metrics server failed", zap.Error(err))
	}
}
