package health

import (
	"context"
	"sync/atomic"
	"time"
)

// ProbeManager tracks process state for the liveness, readiness and
// startup probes.
type ProbeManager struct {
	*Manager

	startTime   time.Time
	initialized atomic.Bool
	inShutdown  atomic.Bool
	version     string
}

// NewProbeManager creates a probe manager reporting version.
func NewProbeManager(version string, checkers ...Checker) *ProbeManager {
	return &ProbeManager{
		Manager:   NewManager(checkers...),
		startTime: time.Now(),
		version:   version,
	}
}

// MarkInitialized lets the startup probe pass. The console calls it once
// the stored session has been restored.
func (pm *ProbeManager) MarkInitialized() { pm.initialized.Store(true) }

// MarkShutdown fails readiness from now on.
func (pm *ProbeManager) MarkShutdown() { pm.inShutdown.Store(true) }

func (pm *ProbeManager) IsInitialized() bool  { return pm.initialized.Load() }
func (pm *ProbeManager) IsShuttingDown() bool { return pm.inShutdown.Load() }

// ProbeResult is the JSON body of every probe endpoint.
type ProbeResult struct {
	Status    Status             `json:"status"`
	Version   string             `json:"version,omitempty"`
	Uptime    string             `json:"uptime,omitempty"`
	Checks    map[string]*Result `json:"checks,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

func (pm *ProbeManager) result(status Status, checks map[string]*Result) *ProbeResult {
	return &ProbeResult{
		Status:    status,
		Version:   pm.version,
		Uptime:    time.Since(pm.startTime).Round(time.Second).String(),
		Checks:    checks,
		Timestamp: time.Now(),
	}
}

// CheckLiveness never runs checkers. A shutting down process is degraded
// but alive.
func (pm *ProbeManager) CheckLiveness(_ context.Context) *ProbeResult {
	if pm.IsShuttingDown() {
		return pm.result(StatusDegraded, nil)
	}
	return pm.result(StatusHealthy, nil)
}

// CheckReadiness is unhealthy during shutdown and otherwise aggregates
// every registered checker.
func (pm *ProbeManager) CheckReadiness(ctx context.Context) *ProbeResult {
	if pm.IsShuttingDown() {
		return pm.result(StatusUnhealthy, nil)
	}
	checks := pm.Check(ctx)
	return pm.result(OverallStatus(checks), checks)
}

// CheckStartup passes once MarkInitialized was called.
func (pm *ProbeManager) CheckStartup(_ context.Context) *ProbeResult {
	if pm.IsInitialized() {
		return pm.result(StatusHealthy, nil)
	}
	return pm.result(StatusUnhealthy, nil)
}
