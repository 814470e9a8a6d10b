package observability

import (
	"context"
	"strings"

	"github.com/riskibarqy/rando-league/internal/config"
	"github.com/riskibarqy/rando-league/internal/platform/logging"
	"github.com/uptrace/uptrace-go/uptrace"
)

// initUptrace installs the global OpenTelemetry providers and returns the
// flush func, or nil when tracing stays off.
func initUptrace(cfg config.Config, logger *logging.Logger) func(context.Context) error {
	switch {
	case !cfg.UptraceEnabled:
		logger.Debug("tracing export off", "reason", "UPTRACE_ENABLED=false")
		return nil
	case strings.TrimSpace(cfg.UptraceDSN) == "":
		logger.Warn("tracing export off", "reason", "UPTRACE_DSN empty")
		return nil
	}

	uptrace.ConfigureOpentelemetry(
		uptrace.WithDSN(cfg.UptraceDSN),
		uptrace.WithServiceName(cfg.ServiceName),
		uptrace.WithServiceVersion(cfg.ServiceVersion),
		uptrace.WithDeploymentEnvironment(cfg.AppEnv),
	)
	logger.Info("tracing export on", "service", cfg.ServiceName, "version", cfg.ServiceVersion)

	return uptrace.Shutdown
}
