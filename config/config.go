// Package config reads the authgate runtime configuration from the environment.
package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

//go:embed version
var version string

//go:embed name
var name string

type LogLevel string

const (
	Debug  LogLevel = "debug"
	Info   LogLevel = "info"
	Notice LogLevel = "notice"
	Warn   LogLevel = "warn"
	Error  LogLevel = "error"
)

const (
	defaultPort          = 3000
	defaultSessionMaxAge = 24 * 60 // minutes
	defaultBcryptCost    = 10
)

func GetVersion() string {
	return strings.TrimSpace(version)
}

func GetName() string {
	return strings.TrimSpace(name)
}

// LoadEnvFile loads a .env file from the working directory, or failing that
// from its parent. Variables already present in the environment are kept.
func LoadEnvFile() {
	if err := godotenv.Load(".env"); err == nil {
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}
	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}
	_ = godotenv.Load(filepath.Join(parent, ".env"))
}

func GetLogLevel() LogLevel {
	if IsDebug() {
		return Debug
	}
	logLevel := os.Getenv("AUTHGATE_LOG_LEVEL")
	if logLevel == "" {
		return Info
	}
	return LogLevel(logLevel)
}

func IsDebug() bool {
	return os.Getenv("AUTHGATE_DEBUG") == "true"
}

func GetLogFolder() string {
	logFolderPath := os.Getenv("AUTHGATE_LOG_FOLDER")
	if logFolderPath != "" {
		return logFolderPath
	}
	if IsDebug() {
		return "log"
	}
	return "/var/log"
}

func GetListen() string {
	return os.Getenv("AUTHGATE_LISTEN")
}

func GetPort() int {
	return getEnvAsInt("PORT", defaultPort)
}

// GetSessionSecret returns the key used to sign session cookies.
func GetSessionSecret() string {
	return os.Getenv("SECRET")
}

// GetSessionMaxAge returns the session lifetime in minutes.
func GetSessionMaxAge() int {
	maxAge := getEnvAsInt("SESSION_MAX_AGE", defaultSessionMaxAge)
	if maxAge <= 0 {
		return defaultSessionMaxAge
	}
	return maxAge
}

func IsSecureCookie() bool {
	return os.Getenv("AUTHGATE_SECURE_COOKIE") == "true"
}

func GetRedisAddr() string {
	return os.Getenv("REDIS_ADDR")
}

func GetRedisPassword() string {
	return os.Getenv("REDIS_PASSWORD")
}

// GetCertFile and GetKeyFile locate the TLS key pair. Both empty means plain HTTP.
func GetCertFile() string {
	return os.Getenv("AUTHGATE_CERT_FILE")
}

func GetKeyFile() string {
	return os.Getenv("AUTHGATE_KEY_FILE")
}

func GetWebDomain() string {
	return os.Getenv("AUTHGATE_DOMAIN")
}

// GetBcryptCost returns the password hashing work factor, clamped to the
// range bcrypt accepts.
func GetBcryptCost() int {
	cost := getEnvAsInt("BCRYPT_COST", defaultBcryptCost)
	if cost < bcrypt.MinCost {
		return bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		return bcrypt.MaxCost
	}
	return cost
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
