package healthchecker

import (
	"context"
	"errors"
	"time"

	"github.com/paymentops/payment-alerts/internal/logbuffer"
	recordlogger "github.com/paymentops/payment-alerts/internal/services/record-logger"
)

const (
	StatusConnected    = "connected"
	StatusError        = "error"
	StatusTableMissing = "table_needs_creation"
)

// Pinger is a cheap connectivity probe against one external dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Report struct {
	Healthy bool
	Checks  map[string]string
}

// HealthChecker probes the payment provider, the mail transport, and the
// record store on demand. Each probe gets its own timeout so one slow
// dependency cannot consume the whole budget.
type HealthChecker struct {
	provider Pinger
	mail     Pinger
	store    Pinger
	timeout  time.Duration
	logs     *logbuffer.Recorder
}

func New(provider, mail, store Pinger, logs *logbuffer.Recorder) *HealthChecker {
	return &HealthChecker{
		provider: provider,
		mail:     mail,
		store:    store,
		timeout:  4 * time.Second,
		logs:     logs,
	}
}

func (hc *HealthChecker) Check(ctx context.Context) Report {
	checks := map[string]string{
		"stripe":   hc.checkDependency(ctx, "stripe", hc.provider),
		"email":    hc.checkDependency(ctx, "email", hc.mail),
		"airtable": hc.checkDependency(ctx, "airtable", hc.store),
	}
	healthy := true
	for _, status := range checks {
		if status != StatusConnected {
			healthy = false
			break
		}
	}
	return Report{Healthy: healthy, Checks: checks}
}

func (hc *HealthChecker) checkDependency(ctx context.Context, name string, dependency Pinger) string {
	checkCtx, cancel := context.WithTimeout(ctx, hc.timeout)
	defer cancel()

	if err := dependency.Ping(checkCtx); err != nil {
		if errors.Is(err, recordlogger.ErrTableMissing) {
			hc.logs.Warnf("[health] The %s table needs to be created before records can be written", name)
			return StatusTableMissing
		}
		hc.logs.Errorf("[health] Check failed for %s: %v", name, err)
		return StatusError
	}
	return StatusConnected
}
