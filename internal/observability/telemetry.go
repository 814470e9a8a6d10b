// Package observability starts the bot's tracing exporter and profilers.
package observability

import (
	"context"
	"errors"
	"net/http"

	"github.com/riskibarqy/rando-league/internal/config"
	"github.com/riskibarqy/rando-league/internal/platform/logging"
)

// Telemetry owns everything Start brought up. Shutdown releases it in
// reverse order.
type Telemetry struct {
	logger        *logging.Logger
	flushTraces   func(context.Context) error
	stopProfiling func() error
	pprofServer   *http.Server
}

func Start(cfg config.Config, logger *logging.Logger) (*Telemetry, error) {
	if logger == nil {
		logger = logging.Default()
	}
	t := &Telemetry{logger: logger.Named("telemetry")}

	t.flushTraces = initUptrace(cfg, t.logger)

	stop, err := initPyroscope(cfg, t.logger)
	if err != nil {
		_ = t.Shutdown(context.Background())
		return nil, err
	}
	t.stopProfiling = stop

	t.pprofServer = startPprofServer(cfg, t.logger)
	return t, nil
}

func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}

	var errs []error
	if t.pprofServer != nil {
		if err := t.pprofServer.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
		t.pprofServer = nil
	}
	if t.stopProfiling != nil {
		if err := t.stopProfiling(); err != nil {
			errs = append(errs, err)
		}
		t.stopProfiling = nil
	}
	if t.flushTraces != nil {
		if err := t.flushTraces(ctx); err != nil {
			errs = append(errs, err)
		}
		t.flushTraces = nil
	}
	return errors.Join(errs...)
}
