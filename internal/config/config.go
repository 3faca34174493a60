package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/funilzap/crm-funnel-backend/internal/models"
)

// Config holds everything read from the environment at process start
type Config struct {
	Port   string
	AppEnv string
	DBPath string

	DataDir string

	// Monday.com board integration
	MondayAPIToken       string
	MondayBoardID        string
	MondayStatusColumnID string
	MondayPhoneColumnID  string

	// Evolution WhatsApp gateway
	EvolutionAPIURL   string
	EvolutionAPIKey   string
	EvolutionInstance string

	// Admin account seeded at boot
	AdminUsername string
	AdminPassword string

	// Follow-up scheduling
	DispatcherEnabled bool
	DispatcherCron    string
	MaxAttempts       int
	FollowupIntervals map[string]time.Duration
}

// Load reads the configuration from environment variables
func Load() *Config {
	return &Config{
		Port:   getEnv("PORT", "8080"),
		AppEnv: getEnv("APP_ENV", "development"),
		DBPath: getEnv("DB_PATH", "data/funnel.db"),

		DataDir: getEnv("DATA_DIR", "data"),

		MondayAPIToken:       getEnv("MONDAY_API_TOKEN", ""),
		MondayBoardID:        getEnv("MONDAY_BOARD_ID", ""),
		MondayStatusColumnID: getEnv("MONDAY_STATUS_COLUMN_ID", "status"),
		MondayPhoneColumnID:  getEnv("MONDAY_PHONE_COLUMN_ID", "telefone"),

		EvolutionAPIURL:   getEnv("EVOLUTION_API_URL", ""),
		EvolutionAPIKey:   getEnv("EVOLUTION_API_KEY", ""),
		EvolutionInstance: getEnv("EVOLUTION_INSTANCE", ""),

		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),

		DispatcherEnabled: getEnvAsBool("DISPATCHER_ENABLED", false),
		DispatcherCron:    getEnv("DISPATCHER_CRON", "*/15 * * * *"),
		MaxAttempts:       getEnvAsInt("MAX_ATTEMPTS", 4),
		FollowupIntervals: map[string]time.Duration{
			models.StatusPrimeiroContato: getEnvAsHours("FOLLOWUP_HOURS_PRIMEIRO", 24),
			models.StatusSegundoContato:  getEnvAsHours("FOLLOWUP_HOURS_SEGUNDO", 48),
			models.StatusTerceiroContato: getEnvAsHours("FOLLOWUP_HOURS_TERCEIRO", 72),
			models.StatusUltimoContato:   getEnvAsHours("FOLLOWUP_HOURS_ULTIMO", 96),
		},
	}
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// FollowupInterval returns the configured wait before the next automated
// contact for a given funnel stage (zero for non-stage statuses).
func (c *Config) FollowupInterval(status string) time.Duration {
	return c.FollowupIntervals[status]
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, fmt.Sprintf("%d", defaultValue))
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, strconv.FormatBool(defaultValue))
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsHours(key string, defaultValue int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultValue)) * time.Hour
}
