package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type StoreKind string

const (
	StoreMemory   StoreKind = "memory"
	StoreDisk     StoreKind = "disk"
	StorePostgres StoreKind = "postgres"
	StoreSQLite   StoreKind = "sqlite"
	StoreRedis    StoreKind = "redis"
	StoreS3       StoreKind = "s3"
)

type Config struct {
	Port           string
	Env            string
	LogLevel       string
	LogFormat      string
	AllowedOrigins []string
	Store          StoreConfig
	Cache          CacheConfig
	Editor         EditorConfig
}

type StoreConfig struct {
	Kind        StoreKind
	DiskPath    string
	DatabaseURL string
	SQLitePath  string
	Redis       RedisConfig
	S3          S3Config
}

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// CanUse reports whether enough is configured to reach a bucket.
func (c S3Config) CanUse() bool {
	return c.Endpoint != "" && c.AccessKey != "" && c.SecretKey != "" && c.Bucket != ""
}

type CacheConfig struct {
	Disabled bool
	ListTTL  time.Duration
}

type EditorConfig struct {
	MaxSessions int
}

// Load reads .env, flags and the environment, in increasing precedence for
// the port.
func Load() (*Config, error) {
	return load(flag.CommandLine, os.Args[1:])
}

func load(fs *flag.FlagSet, args []string) (*Config, error) {
	_ = godotenv.Load()

	port := fs.String("port", ":8081", "server port")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if envPort := os.Getenv("PORT"); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			*port = envPort
		} else {
			*port = ":" + envPort
		}
	}

	appEnv := firstNonEmpty(env("APP_ENV"), "local")

	kind := StoreKind(strings.ToLower(firstNonEmpty(env("FLOW_STORE"), string(StoreMemory))))
	switch kind {
	case StoreMemory, StoreDisk, StorePostgres, StoreSQLite, StoreRedis, StoreS3:
	default:
		return nil, fmt.Errorf("unsupported FLOW_STORE %q", kind)
	}

	redisDB, err := intEnv("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	ttl, err := durationEnv("FLOW_CACHE_TTL", 2*time.Minute)
	if err != nil {
		return nil, err
	}
	maxSessions, err := intEnv("EDITOR_MAX_SESSIONS", 256)
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:           *port,
		Env:            appEnv,
		LogLevel:       firstNonEmpty(env("LOG_LEVEL"), "info"),
		LogFormat:      firstNonEmpty(env("LOG_FORMAT"), "text"),
		AllowedOrigins: splitList(env("CORS_ALLOWED_ORIGINS")),
		Store: StoreConfig{
			Kind:        kind,
			DiskPath:    firstNonEmpty(env("FLOW_STORE_DISK_PATH"), "tmp/flows.jsonl"),
			DatabaseURL: env("DATABASE_URL"),
			SQLitePath:  firstNonEmpty(env("FLOW_STORE_SQLITE_PATH"), "tmp/flows.db"),
			Redis: RedisConfig{
				Addr:      firstNonEmpty(env("REDIS_ADDR"), "localhost:6379"),
				Password:  os.Getenv("REDIS_PASSWORD"),
				DB:        redisDB,
				KeyPrefix: firstNonEmpty(env("REDIS_KEY_PREFIX"), "flowcanvas:"),
			},
			S3: loadS3Config(appEnv),
		},
		Cache: CacheConfig{
			Disabled: boolEnv("FLOW_CACHE_DISABLED", false),
			ListTTL:  ttl,
		},
		Editor: EditorConfig{MaxSessions: maxSessions},
	}, nil
}

func loadS3Config(appEnv string) S3Config {
	if isLocal(appEnv) {
		return localS3Config()
	}
	return S3Config{
		Endpoint:  env("FLOW_S3_ENDPOINT"),
		Region:    firstNonEmpty(env("FLOW_S3_REGION"), "us-east-1"),
		AccessKey: env("FLOW_S3_ACCESS_KEY"),
		SecretKey: env("FLOW_S3_SECRET_KEY"),
		Bucket:    firstNonEmpty(env("FLOW_S3_BUCKET"), "flowcanvas-flows"),
		UseSSL:    boolEnv("FLOW_S3_USE_SSL", true),
	}
}

func isLocal(appEnv string) bool {
	return strings.EqualFold(strings.TrimSpace(appEnv), "local")
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func intEnv(key string, def int) (int, error) {
	raw := env(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := env(key)
	if raw == "" {
		return def, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func boolEnv(key string, def bool) bool {
	raw := env(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
