package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/rando-league/internal/platform/logging"
)

// Config stores runtime configuration for the bot.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string
	LogLevel       logging.Level
	LogFormat      string

	DiscordToken      string
	DiscordGuildID    string
	DiscordOwnerIDs   []string
	LeagueAdminRoleID string
	LeagueChannelID   string
	CommandTimeout    time.Duration

	DBURL                   string
	DBAutoMigrate           bool
	DBDisablePreparedBinary bool

	SeedgenBaseURL               string
	SeedgenTimeout               time.Duration
	SeedgenCircuitEnabled        bool
	SeedgenCircuitFailureCount   int
	SeedgenCircuitOpenTimeout    time.Duration
	SeedgenCircuitHalfOpenMaxReq int

	GoogleCredentialsFile string
	SpreadsheetID         string
	SpreadsheetTitle      string
	SheetsTimeout         time.Duration
	SheetsWorkers         int

	LeagueLocation     *time.Location
	DailyLocation      *time.Location
	LeagueRetryBackoff time.Duration
	LeagueFireDelay    time.Duration
	LeagueReadyTimeout time.Duration
	DailyCacheTTL      time.Duration

	HTTPEnabled        bool
	HTTPAddr           string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	InternalJobToken   string
	CORSAllowedOrigins []string

	UptraceEnabled bool
	UptraceDSN     string

	PprofEnabled bool
	PprofAddr    string

	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:         appEnv,
		ServiceName:    getEnv("SERVICE_NAME", "rando-league-bot"),
		ServiceVersion: getEnv("SERVICE_VERSION", "dev"),
		LogLevel:       parseLogLevel(getEnv("LOG_LEVEL", "info")),
		LogFormat:      parseLogFormat(getEnv("LOG_FORMAT", ""), appEnv),

		DiscordToken:      strings.TrimSpace(getEnv("DISCORD_TOKEN", "")),
		DiscordGuildID:    strings.TrimSpace(getEnv("DISCORD_GUILD_ID", "")),
		DiscordOwnerIDs:   splitCSV(getEnv("DISCORD_OWNER_IDS", "")),
		LeagueAdminRoleID: strings.TrimSpace(getEnv("LEAGUE_ADMIN_ROLE_ID", "")),
		LeagueChannelID:   strings.TrimSpace(getEnv("LEAGUE_CHANNEL_ID", "")),

		DBURL: strings.TrimSpace(getEnv("DB_URL", "sqlite://rando_league.db")),

		SeedgenBaseURL: strings.TrimSpace(getEnv("SEEDGEN_BASE_URL", "https://orirando.com")),

		GoogleCredentialsFile: strings.TrimSpace(getEnv("GOOGLE_CREDENTIALS_FILE", "")),
		SpreadsheetID:         strings.TrimSpace(getEnv("SPREADSHEET_ID", "")),
		SpreadsheetTitle:      strings.TrimSpace(getEnv("SPREADSHEET_TITLE", "Ori Rando League")),

		HTTPAddr:           strings.TrimSpace(getEnv("HTTP_ADDR", ":8080")),
		InternalJobToken:   strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", "")),
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),

		PprofAddr:                  strings.TrimSpace(getEnv("PPROF_ADDR", ":6060")),
		PyroscopeServerAddress:     strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", "")),
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
	}

	if cfg.DiscordToken == "" {
		return Config{}, fmt.Errorf("DISCORD_TOKEN is required")
	}
	if cfg.GoogleCredentialsFile == "" {
		return Config{}, fmt.Errorf("GOOGLE_CREDENTIALS_FILE is required")
	}

	if cfg.CommandTimeout, err = parsePositiveDuration("DISCORD_COMMAND_TIMEOUT", "90s"); err != nil {
		return Config{}, err
	}

	if cfg.DBAutoMigrate, err = strconv.ParseBool(getEnv("DB_AUTO_MIGRATE", "true")); err != nil {
		return Config{}, fmt.Errorf("parse DB_AUTO_MIGRATE: %w", err)
	}
	if cfg.DBDisablePreparedBinary, err = strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "false")); err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}

	if cfg.SeedgenTimeout, err = parsePositiveDuration("SEEDGEN_TIMEOUT", "60s"); err != nil {
		return Config{}, err
	}
	if cfg.SeedgenCircuitEnabled, err = strconv.ParseBool(getEnv("SEEDGEN_CIRCUIT_ENABLED", "true")); err != nil {
		return Config{}, fmt.Errorf("parse SEEDGEN_CIRCUIT_ENABLED: %w", err)
	}
	if cfg.SeedgenCircuitFailureCount, err = getEnvAsInt("SEEDGEN_CIRCUIT_FAILURE_COUNT", 5); err != nil {
		return Config{}, fmt.Errorf("parse SEEDGEN_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if cfg.SeedgenCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("SEEDGEN_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	if cfg.SeedgenCircuitOpenTimeout, err = parsePositiveDuration("SEEDGEN_CIRCUIT_OPEN_TIMEOUT", "30s"); err != nil {
		return Config{}, err
	}
	if cfg.SeedgenCircuitHalfOpenMaxReq, err = getEnvAsInt("SEEDGEN_CIRCUIT_HALF_OPEN_MAX_REQ", 1); err != nil {
		return Config{}, fmt.Errorf("parse SEEDGEN_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if cfg.SeedgenCircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("SEEDGEN_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	if cfg.SheetsTimeout, err = parsePositiveDuration("SHEETS_TIMEOUT", "30s"); err != nil {
		return Config{}, err
	}
	if cfg.SheetsWorkers, err = getEnvAsInt("SHEETS_WORKERS", 4); err != nil {
		return Config{}, fmt.Errorf("parse SHEETS_WORKERS: %w", err)
	}
	if cfg.SheetsWorkers < 1 {
		return Config{}, fmt.Errorf("SHEETS_WORKERS must be >= 1")
	}

	if cfg.LeagueLocation, err = parseLocation("LEAGUE_TIMEZONE", "America/New_York"); err != nil {
		return Config{}, err
	}
	if cfg.DailyLocation, err = parseLocation("DAILY_TIMEZONE", "America/Los_Angeles"); err != nil {
		return Config{}, err
	}
	if cfg.LeagueRetryBackoff, err = parsePositiveDuration("LEAGUE_RETRY_BACKOFF", "120s"); err != nil {
		return Config{}, err
	}
	if cfg.LeagueFireDelay, err = time.ParseDuration(getEnv("LEAGUE_FIRE_DELAY", "30s")); err != nil {
		return Config{}, fmt.Errorf("parse LEAGUE_FIRE_DELAY: %w", err)
	}
	if cfg.LeagueFireDelay < 0 {
		return Config{}, fmt.Errorf("LEAGUE_FIRE_DELAY must be >= 0")
	}
	if cfg.LeagueReadyTimeout, err = parsePositiveDuration("LEAGUE_READY_TIMEOUT", "10s"); err != nil {
		return Config{}, err
	}
	if cfg.DailyCacheTTL, err = parsePositiveDuration("DAILY_CACHE_TTL", "24h"); err != nil {
		return Config{}, err
	}

	if cfg.HTTPEnabled, err = strconv.ParseBool(getEnv("HTTP_ENABLED", "false")); err != nil {
		return Config{}, fmt.Errorf("parse HTTP_ENABLED: %w", err)
	}
	if cfg.ReadTimeout, err = parsePositiveDuration("READ_TIMEOUT", "10s"); err != nil {
		return Config{}, err
	}
	// The write timeout must outlast a manual refresh that waits out its retry backoff.
	if cfg.WriteTimeout, err = parsePositiveDuration("WRITE_TIMEOUT", "5m"); err != nil {
		return Config{}, err
	}
	if cfg.HTTPEnabled {
		if cfg.HTTPAddr == "" {
			return Config{}, fmt.Errorf("HTTP_ADDR is required when HTTP_ENABLED=true")
		}
		if cfg.InternalJobToken == "" {
			return Config{}, fmt.Errorf("INTERNAL_JOB_TOKEN is required when HTTP_ENABLED=true")
		}
		if len(cfg.CORSAllowedOrigins) == 0 {
			return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
		}
	}

	if cfg.UptraceEnabled, err = strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false")); err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	cfg.UptraceDSN = strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if cfg.UptraceDSN == "" {
		cfg.UptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if cfg.UptraceEnabled && cfg.UptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	if cfg.PprofEnabled, err = strconv.ParseBool(getEnv("PPROF_ENABLED", "false")); err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	if cfg.PprofEnabled && cfg.PprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	if cfg.PyroscopeEnabled, err = strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false")); err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	if cfg.PyroscopeEnabled && cfg.PyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	if cfg.PyroscopeUploadRate, err = parsePositiveDuration("PYROSCOPE_UPLOAD_RATE", "15s"); err != nil {
		return Config{}, err
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))

	return cfg, nil
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

// parseLogFormat defaults to console output outside prod.
func parseLogFormat(v, appEnv string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case logging.FormatConsole:
		return logging.FormatConsole
	case logging.FormatJSON:
		return logging.FormatJSON
	}
	if appEnv == EnvDev {
		return logging.FormatConsole
	}
	return logging.FormatJSON
}

func parsePositiveDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}
	return d, nil
}

func parseLocation(key, fallback string) (*time.Location, error) {
	name := strings.TrimSpace(getEnv(key, fallback))
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", key, err)
	}
	return loc, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
