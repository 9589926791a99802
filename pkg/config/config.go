package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	Env         string
	MetricsPort string

	DatabaseDriver string // postgres | sqlite
	PostgresUrl    string
	SQLitePath     string
	MongoURI       string
	MongoDatabase  string
	ActivityStore  string // postgres | mongo

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	LiveBackend   string // local | redis

	IdentityProvider        string // jwt | firebase
	JWTSecret               string
	FirebaseCredentialsPath string

	LogLevel  string
	LogPretty bool

	FanoutTimeout     time.Duration
	LikerPreviewLimit int
}

// Load reads configuration from an optional .env file, an optional
// config.yaml and the process environment, in increasing priority.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set.")
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		Port:                    v.GetString("PORT"),
		Env:                     v.GetString("ENV"),
		MetricsPort:             v.GetString("METRICS_PORT"),
		DatabaseDriver:          strings.ToLower(v.GetString("DATABASE_DRIVER")),
		PostgresUrl:             v.GetString("POSTGRES_CONN_STR"),
		SQLitePath:              v.GetString("SQLITE_PATH"),
		MongoURI:                v.GetString("MONGO_URI"),
		MongoDatabase:           v.GetString("MONGO_DATABASE"),
		ActivityStore:           strings.ToLower(v.GetString("ACTIVITY_STORE")),
		RedisAddr:               v.GetString("REDIS_ADDR"),
		RedisPassword:           v.GetString("REDIS_PASSWORD"),
		RedisDB:                 v.GetInt("REDIS_DB"),
		LiveBackend:             strings.ToLower(v.GetString("LIVE_BACKEND")),
		IdentityProvider:        strings.ToLower(v.GetString("IDENTITY_PROVIDER")),
		JWTSecret:               v.GetString("JWT_SECRET"),
		FirebaseCredentialsPath: v.GetString("FIREBASE_CREDENTIALS_PATH"),
		LogLevel:                v.GetString("LOG_LEVEL"),
		LogPretty:               v.GetBool("LOG_PRETTY"),
		FanoutTimeout:           v.GetDuration("FANOUT_TIMEOUT"),
		LikerPreviewLimit:       v.GetInt("LIKER_PREVIEW_LIMIT"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("METRICS_PORT", "9090")
	v.SetDefault("DATABASE_DRIVER", "postgres")
	v.SetDefault("SQLITE_PATH", "engagement.db")
	v.SetDefault("MONGO_DATABASE", "socialmedia")
	v.SetDefault("ACTIVITY_STORE", "postgres")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("LIVE_BACKEND", "local")
	v.SetDefault("IDENTITY_PROVIDER", "jwt")
	v.SetDefault("JWT_SECRET", "supersecretjwtkey")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", false)
	v.SetDefault("FANOUT_TIMEOUT", 5*time.Second)
	v.SetDefault("LIKER_PREVIEW_LIMIT", 200)
}

func (c *Config) validate() error {
	switch c.DatabaseDriver {
	case "postgres":
		if c.PostgresUrl == "" {
			return fmt.Errorf("POSTGRES_CONN_STR environment variable not set")
		}
	case "sqlite":
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}

	if c.ActivityStore == "mongo" && c.MongoURI == "" {
		return fmt.Errorf("ACTIVITY_STORE=mongo requires MONGO_URI")
	}
	if c.LiveBackend == "redis" && c.RedisAddr == "" {
		return fmt.Errorf("LIVE_BACKEND=redis requires REDIS_ADDR")
	}
	if c.IdentityProvider == "firebase" && c.FirebaseCredentialsPath == "" {
		return fmt.Errorf("IDENTITY_PROVIDER=firebase requires FIREBASE_CREDENTIALS_PATH")
	}
	if c.LikerPreviewLimit <= 0 {
		c.LikerPreviewLimit = 200
	}
	return nil
}
