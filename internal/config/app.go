package config

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type AuthConfig struct {
	SecretKey   string
	ExpiryHours int
}

type Argon2Config struct {
	Time       uint32
	Memory     uint32
	Threads    uint8
	KeyLength  uint32
	SaltLength int
}

// Init loads .env (when present) and binds the environment variables viper reads.
func Init() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Failed to load .env file: %v", err)
	}
	viper.AutomaticEnv()

	bind := map[string]string{
		"app.env":                       "APP_ENV",
		"log.level":                     "LOG_LEVEL",
		"http.port":                     "PORT",
		"database.host":                 "DATABASE_HOST",
		"database.port":                 "DATABASE_PORT",
		"database.user":                 "DATABASE_USER",
		"database.password":             "DATABASE_PASSWORD",
		"database.name":                 "DATABASE_NAME",
		"database.ssl_mode":             "DATABASE_SSL_MODE",
		"database.auto_migrate":         "DATABASE_AUTO_MIGRATE",
		"redis.host":                    "REDIS_HOST",
		"redis.port":                    "REDIS_PORT",
		"redis.password":                "REDIS_PASSWORD",
		"redis.db":                      "REDIS_DB",
		"jwt.secret_key":                "JWT_SECRET_KEY",
		"jwt.expiry_hours":              "JWT_EXPIRY_HOURS",
		"argon2.time":                   "ARGON2_TIME",
		"argon2.memory":                 "ARGON2_MEMORY",
		"argon2.threads":                "ARGON2_THREADS",
		"argon2.key_length":             "ARGON2_KEY_LENGTH",
		"argon2.salt_length":            "ARGON2_SALT_LENGTH",
		"ledger.system_account_id":      "SYSTEM_ACCOUNT_ID",
		"ledger.system_initial_balance": "SYSTEM_INITIAL_BALANCE",
		"ledger.seed_amount":            "SEED_AMOUNT",
		"ledger.currency":               "LEDGER_CURRENCY",
		"ledger.conflict_retries":       "LEDGER_CONFLICT_RETRIES",
		"ledger.lock_timeout":           "LEDGER_LOCK_TIMEOUT",
		"ledger.timezone":               "LEDGER_TIMEZONE",
	}
	for key, env := range bind {
		viper.BindEnv(key, env)
	}
}

func LoadHTTPConfig() *HTTPConfig {
	viper.SetDefault("http.port", "8080")
	viper.SetDefault("http.read_timeout", 15*time.Second)
	viper.SetDefault("http.write_timeout", 15*time.Second)
	viper.SetDefault("http.idle_timeout", 60*time.Second)
	viper.SetDefault("http.shutdown_timeout", 30*time.Second)

	return &HTTPConfig{
		Port:            viper.GetString("http.port"),
		ReadTimeout:     viper.GetDuration("http.read_timeout"),
		WriteTimeout:    viper.GetDuration("http.write_timeout"),
		IdleTimeout:     viper.GetDuration("http.idle_timeout"),
		ShutdownTimeout: viper.GetDuration("http.shutdown_timeout"),
	}
}

func LoadAuthConfig() *AuthConfig {
	viper.SetDefault("jwt.expiry_hours", 24)

	return &AuthConfig{
		SecretKey:   viper.GetString("jwt.secret_key"),
		ExpiryHours: viper.GetInt("jwt.expiry_hours"),
	}
}

func LoadArgon2Config() *Argon2Config {
	viper.SetDefault("argon2.time", 1)
	viper.SetDefault("argon2.memory", 64*1024)
	viper.SetDefault("argon2.threads", 4)
	viper.SetDefault("argon2.key_length", 32)
	viper.SetDefault("argon2.salt_length", 16)

	return &Argon2Config{
		Time:       viper.GetUint32("argon2.time"),
		Memory:     viper.GetUint32("argon2.memory"),
		Threads:    uint8(viper.GetUint("argon2.threads")),
		KeyLength:  viper.GetUint32("argon2.key_length"),
		SaltLength: viper.GetInt("argon2.salt_length"),
	}
}
