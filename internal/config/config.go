package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config stores runtime configuration loaded from environment variables.
type Config struct {
	Port                 string
	TwilioAccountSID     string
	TwilioAuthToken      string
	TwilioWhatsAppNumber string
	OpenAIAPIKey         string
	DatabaseURL          string
	DefaultTimezone      string
	LocalTimezone        *time.Location

	// AllowedUsers is a comma-separated allow-list; AllowedUsersPath points
	// at a file with one entry per line. Either may be empty.
	AllowedUsers     string
	AllowedUsersPath string

	TickInterval  time.Duration
	DedupWindow   time.Duration
	NotifyTimeout time.Duration
}

// Load reads configuration values and prepares defaults where applicable.
func Load() *Config {
	_ = godotenv.Load()

	port := getenvDefault("PORT", "8080")
	accountSID := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")
	whatsAppNumber := os.Getenv("TWILIO_WHATSAPP_NUMBER")
	openAIKey := os.Getenv("OPENAI_API_KEY")
	databaseURL := os.Getenv("DATABASE_URL")
	defaultTZ := getenvDefault("DEFAULT_TIMEZONE", "Europe/Kyiv")
	timezoneName := getenvDefault("LOCAL_TIMEZONE", "Local")

	location, err := time.LoadLocation(timezoneName)
	if err != nil {
		log.Printf("config: invalid LOCAL_TIMEZONE %q, defaulting to system local: %v", timezoneName, err)
		location = time.Local
	}

	return &Config{
		Port:                 port,
		TwilioAccountSID:     accountSID,
		TwilioAuthToken:      authToken,
		TwilioWhatsAppNumber: whatsAppNumber,
		OpenAIAPIKey:         openAIKey,
		DatabaseURL:          databaseURL,
		DefaultTimezone:      defaultTZ,
		LocalTimezone:        location,
		AllowedUsers:         os.Getenv("ALLOWED_USERS"),
		AllowedUsersPath:     os.Getenv("ALLOWED_USERS_FILE"),
		TickInterval:         time.Duration(ParseIntEnv("TICK_INTERVAL_SECONDS", 60)) * time.Second,
		DedupWindow:          time.Duration(ParseIntEnv("DEDUP_WINDOW_MINUTES", 2)) * time.Minute,
		NotifyTimeout:        time.Duration(ParseIntEnv("NOTIFY_TIMEOUT_SECONDS", 30)) * time.Second,
	}
}

// Validate reports missing required startup configuration. The process must
// not serve requests when it returns an error.
func (c *Config) Validate() error {
	if c.TwilioAccountSID == "" || c.TwilioAuthToken == "" {
		return errors.New("TWILIO_ACCOUNT_SID and TWILIO_AUTH_TOKEN are required")
	}
	if c.TwilioWhatsAppNumber == "" {
		return errors.New("TWILIO_WHATSAPP_NUMBER is required")
	}
	if c.TickInterval <= 0 {
		return errors.New("TICK_INTERVAL_SECONDS must be positive")
	}
	return nil
}

func getenvDefault(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		return def
	}
	return value
}

// ParseIntEnv returns the integer value for an environment variable or the provided default.
func ParseIntEnv(key string, def int) int {
	value := os.Getenv(key)
	if value == "" {
		return def
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("config: unable to parse %s=%q as int: %v", key, value, err)
		return def
	}
	return parsed
}
