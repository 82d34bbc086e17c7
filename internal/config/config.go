package config

import (
	"os"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// Supported storage drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Port            string
	Environment     string
	DBDriver        string
	DatabaseURL     string
	SQLitePath      string
	TablePrefix     string
	SupabaseURL     string
	SupabaseJWKSURL string // Constructed from SupabaseURL + /auth/v1/.well-known/jwks.json
	CORSOrigins     string
	// Logging
	LogDir      string // Empty = stdout only
	LogMaxFiles int
	// Auth
	AuthDisabled bool   // Skip JWT verification and act as DevUserID
	DevUserID    string // Owner used when auth is disabled
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")
	supabaseURL := strings.TrimRight(getEnv("SUPABASE_URL", ""), "/")

	// Construct JWKS URL from Supabase URL
	jwksURL := ""
	if supabaseURL != "" {
		jwksURL = supabaseURL + "/auth/v1/.well-known/jwks.json"
	}

	return &Config{
		Port:            getEnv("PORT", "8080"),
		Environment:     env,
		DBDriver:        strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		SQLitePath:      getEnv("SQLITE_PATH", "tabnest.db"),
		TablePrefix:     os.Getenv("TABLE_PREFIX"),
		SupabaseURL:     supabaseURL,
		SupabaseJWKSURL: jwksURL,
		CORSOrigins:     getEnv("CORS_ORIGINS", "http://localhost:3000"),
		LogDir:          getEnv("LOG_DIR", ""),
		LogMaxFiles:     getEnvInt("LOG_MAX_FILES", 10),
		// Auth bypass defaults to on outside prod when no Supabase project is configured
		AuthDisabled: getEnv("AUTH_DISABLED", getDefaultAuthDisabled(env, supabaseURL)) == "true",
		DevUserID:    getEnv("DEV_USER_ID", "00000000-0000-0000-0000-000000000001"),
	}
}

// Validate checks that the selected driver and auth mode are fully configured.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required),
		validation.Field(&c.DBDriver,
			validation.Required,
			validation.In(DriverPostgres, DriverSQLite).Error("must be postgres or sqlite"),
		),
		validation.Field(&c.DatabaseURL,
			validation.When(c.DBDriver == DriverPostgres, validation.Required.Error("is required for the postgres driver")),
		),
		validation.Field(&c.SQLitePath,
			validation.When(c.DBDriver == DriverSQLite, validation.Required.Error("is required for the sqlite driver")),
		),
		validation.Field(&c.TablePrefix, validation.Match(tablePrefixPattern).Error("may only contain letters, digits and underscores")),
		validation.Field(&c.SupabaseURL,
			validation.When(!c.AuthDisabled, validation.Required.Error("is required unless AUTH_DISABLED=true")),
		),
		validation.Field(&c.DevUserID,
			validation.When(c.AuthDisabled, validation.Required, validation.By(isUUID)),
		),
		validation.Field(&c.LogMaxFiles, validation.Min(1)),
	)
}

// getDefaultAuthDisabled returns the default auth bypass setting based on environment
func getDefaultAuthDisabled(env, supabaseURL string) string {
	if env == "prod" || supabaseURL != "" {
		return "false"
	}
	return "true"
}

func isUUID(value interface{}) error {
	s, _ := value.(string)
	if _, err := uuid.Parse(s); err != nil {
		return validation.NewError("validation_is_uuid", "must be a valid UUID")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
