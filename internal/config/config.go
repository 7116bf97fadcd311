package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/spec-kit/routing-service/internal/domain"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Queue        QueueConfig
	Scheduler    SchedulerConfig
	Routing      domain.RoutingConfig
	SLA          domain.SLAConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// QueueConfig selects the assignment queue backing.
type QueueConfig struct {
	Backend   string // "memory" or "redis"
	KeyPrefix string
}

// SchedulerConfig controls the periodic routing tick and escalation scan.
type SchedulerConfig struct {
	TickIntervalSeconds int
	ScanIntervalSeconds int
}

// NotificationConfig holds the escalation notification sink endpoints.
type NotificationConfig struct {
	WebhookURL        string
	WebhookMaxRetries int
}

// Load reads configuration from environment variables, applying defaults
// where possible. Routing and SLA defaults are validated here so malformed
// settings fail startup instead of surfacing during scoring.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	workDays, err := parseWorkDays(getEnv("SLA_WORK_DAYS", "MON,TUE,WED,THU,FRI"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "support-routing-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Queue: QueueConfig{
			Backend:   getEnv("QUEUE_BACKEND", "memory"),
			KeyPrefix: getEnv("QUEUE_KEY_PREFIX", "routing:queue"),
		},
		Scheduler: SchedulerConfig{
			TickIntervalSeconds: getEnvAsInt("ROUTING_TICK_INTERVAL_SECONDS", 5),
			ScanIntervalSeconds: getEnvAsInt("ESCALATION_SCAN_INTERVAL_SECONDS", 60),
		},
		Routing: domain.RoutingConfig{
			SmartRouting:       getEnvAsBool("ROUTING_SMART", true),
			ExpertiseWeight:    getEnvAsFloat("ROUTING_EXPERTISE_WEIGHT", 50),
			WorkloadWeight:     getEnvAsFloat("ROUTING_WORKLOAD_WEIGHT", 30),
			ResponseTimeWeight: getEnvAsFloat("ROUTING_RESPONSE_TIME_WEIGHT", 20),
			MaxTicketsPerAgent: getEnvAsInt("ROUTING_MAX_TICKETS_PER_AGENT", 0),
			DistributionMethod: domain.DistributionMethod(getEnv("ROUTING_DISTRIBUTION_METHOD", string(domain.DistributionWeighted))),
		},
		SLA: domain.SLAConfig{
			FirstResponseMinutes: getEnvAsInt("SLA_FIRST_RESPONSE_MINUTES", 30),
			ResolutionMinutes:    getEnvAsInt("SLA_RESOLUTION_MINUTES", 480),
			BusinessHours: domain.BusinessHours{
				Start:    getEnv("SLA_BUSINESS_START", "09:00"),
				End:      getEnv("SLA_BUSINESS_END", "17:00"),
				Timezone: getEnv("SLA_TIMEZONE", "UTC"),
				WorkDays: workDays,
			},
			PriorityMultipliers: map[domain.ItemPriority]float64{
				domain.ItemPriorityUrgent: getEnvAsFloat("SLA_MULTIPLIER_URGENT", 0.5),
				domain.ItemPriorityHigh:   getEnvAsFloat("SLA_MULTIPLIER_HIGH", 0.75),
				domain.ItemPriorityMedium: getEnvAsFloat("SLA_MULTIPLIER_MEDIUM", 1.0),
				domain.ItemPriorityLow:    getEnvAsFloat("SLA_MULTIPLIER_LOW", 1.5),
			},
			EscalationRules: []domain.EscalationRule{
				{Level: 1, ThresholdPercent: 50, Actions: []domain.EscalationAction{domain.EscalationActionNotifyManager}},
				{Level: 2, ThresholdPercent: 75, Actions: []domain.EscalationAction{domain.EscalationActionNotifyManager, domain.EscalationActionNotifyTeam}},
				{Level: 3, ThresholdPercent: 100, Actions: []domain.EscalationAction{domain.EscalationActionNotifyManager, domain.EscalationActionReassign}},
			},
			Notifications: domain.NotificationSettings{
				WarningPercent: getEnvAsFloat("SLA_WARNING_PERCENT", 80),
				BreachNotify:   getEnvAsBool("SLA_BREACH_NOTIFY", true),
				UpdatesNotify:  getEnvAsBool("SLA_UPDATES_NOTIFY", false),
			},
		},
		Notification: NotificationConfig{
			WebhookURL:        getEnv("NOTIFY_WEBHOOK_URL", ""),
			WebhookMaxRetries: getEnvAsInt("NOTIFY_WEBHOOK_MAX_RETRIES", 3),
		},
	}

	if err := cfg.Routing.Validate(); err != nil {
		return nil, fmt.Errorf("invalid routing config: %w", err)
	}
	if err := cfg.SLA.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sla config: %w", err)
	}
	if cfg.Queue.Backend != "memory" && cfg.Queue.Backend != "redis" {
		return nil, fmt.Errorf("invalid QUEUE_BACKEND %q", cfg.Queue.Backend)
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// TickInterval returns the routing tick period.
func (s SchedulerConfig) TickInterval() time.Duration {
	return time.Duration(s.TickIntervalSeconds) * time.Second
}

// ScanInterval returns the escalation scan period.
func (s SchedulerConfig) ScanInterval() time.Duration {
	return time.Duration(s.ScanIntervalSeconds) * time.Second
}

var weekdayNames = map[string]time.Weekday{
	"SUN": time.Sunday,
	"MON": time.Monday,
	"TUE": time.Tuesday,
	"WED": time.Wednesday,
	"THU": time.Thursday,
	"FRI": time.Friday,
	"SAT": time.Saturday,
}

func parseWorkDays(v string) ([]time.Weekday, error) {
	parts := strings.Split(v, ",")
	days := make([]time.Weekday, 0, len(parts))
	for _, p := range parts {
		name := strings.ToUpper(strings.TrimSpace(p))
		if name == "" {
			continue
		}
		day, ok := weekdayNames[name]
		if !ok {
			return nil, fmt.Errorf("invalid SLA_WORK_DAYS entry %q", p)
		}
		days = append(days, day)
	}
	return days, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
