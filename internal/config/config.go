package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	commoncfg "iotcare-data/internal/common/config"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config iotcare-data (HTTP API) configuration
type Config struct {
	ServiceName string
	Version     string
	Environment string

	HTTP struct {
		Addr              string
		AllowedHosts      []string
		TrustedProxies    []string // IP 或 CIDR；为空时忽略 X-Forwarded-For
		RequestTimeout    time.Duration
		ReadHeaderTimeout time.Duration
		ShutdownTimeout   time.Duration
		MaxBodyBytes      int64
	}
	Database commoncfg.DatabaseConfig
	Redis    struct {
		Enabled bool
		commoncfg.RedisConfig
		LatestTTL time.Duration
	}
	MQTT struct {
		Enabled bool
		commoncfg.MQTTConfig
		Topic string
	}
	RateLimit struct {
		RPS   int
		Burst int
	}
	Alert struct {
		WebhookURL string
	}
	Log struct {
		Level  string
		Format string
	}
}

// IsProduction reports whether destructive admin operations must be gated
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// Load reads the configuration from the environment; a .env file in the
// working directory is applied first when present.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.ServiceName = getEnv("SERVICE_NAME", "IoT Care Backend")
	cfg.Version = getEnv("SERVICE_VERSION", "1.0.0")
	cfg.Environment = strings.ToLower(getEnv("ENVIRONMENT", EnvDevelopment))
	if cfg.Environment != EnvProduction {
		cfg.Environment = EnvDevelopment
	}

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8000")
	cfg.HTTP.AllowedHosts = splitList(getEnv("ALLOWED_HOSTS", "*"))
	cfg.HTTP.TrustedProxies = splitList(getEnv("TRUSTED_PROXIES", ""))
	cfg.HTTP.RequestTimeout = time.Duration(parseInt(getEnv("REQUEST_TIMEOUT_SECONDS", "30"), 30)) * time.Second
	cfg.HTTP.ReadHeaderTimeout = time.Duration(parseInt(getEnv("READ_HEADER_TIMEOUT_SECONDS", "5"), 5)) * time.Second
	cfg.HTTP.ShutdownTimeout = time.Duration(parseInt(getEnv("SHUTDOWN_TIMEOUT_SECONDS", "10"), 10)) * time.Second
	cfg.HTTP.MaxBodyBytes = int64(parseInt(getEnv("MAX_BODY_BYTES", "1048576"), 1<<20))

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "iotcare")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "20"), 20)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "5"), 5)

	cfg.Redis.Enabled = getEnv("REDIS_ENABLED", "false") == "true"
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = parseInt(getEnv("REDIS_DB", "0"), 0)
	cfg.Redis.LatestTTL = time.Duration(parseInt(getEnv("LATEST_CACHE_TTL_SECONDS", "60"), 60)) * time.Second

	// MQTT ingestion is disabled by default
	cfg.MQTT.Enabled = getEnv("MQTT_ENABLED", "false") == "true"
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "iotcare-data")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.QoS = byte(parseInt(getEnv("MQTT_QOS", "1"), 1))
	cfg.MQTT.Topic = getEnv("MQTT_TOPIC", "iotcare/+/+")

	cfg.RateLimit.RPS = parseInt(getEnv("RATE_LIMIT_RPS", "0"), 0)
	cfg.RateLimit.Burst = parseInt(getEnv("RATE_LIMIT_BURST", "50"), 50)

	cfg.Alert.WebhookURL = getEnv("ALERT_WEBHOOK_URL", "")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
