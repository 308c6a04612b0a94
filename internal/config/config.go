package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// Referral policy
	ReferralRequired     int
	ReferralRewardDays   int
	ReferralRewardType   string
	ReferralCodeAttempts int

	// Inbound payment-collaborator webhook
	WebhookToken string

	// Outbound notification collaborator
	NotifyWebhookURL string
	NotifyTimeout    time.Duration

	// Admin
	AdminUsernames string
	AdminUserIDs   string
	AdminToken     string

	// Server
	Port        string
	CORSOrigins string
}

func Load() *Config {
	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "referral_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTAccessExpiry:  parseDuration(getEnv("JWT_ACCESS_EXPIRY", "15m"), 15*time.Minute),
		JWTRefreshExpiry: parseDuration(getEnv("JWT_REFRESH_EXPIRY", "168h"), 168*time.Hour),

		ReferralRequired:     parseInt(getEnv("REFERRAL_REQUIRED", "3"), 3),
		ReferralRewardDays:   parseInt(getEnv("REFERRAL_REWARD_DAYS", "30"), 30),
		ReferralRewardType:   getEnv("REFERRAL_REWARD_TYPE", "subscription_days"),
		ReferralCodeAttempts: parseInt(getEnv("REFERRAL_CODE_ATTEMPTS", "5"), 5),

		WebhookToken: getEnv("WEBHOOK_TOKEN", ""),

		NotifyWebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		NotifyTimeout:    parseDuration(getEnv("NOTIFY_TIMEOUT", "5s"), 5*time.Second),

		AdminUsernames: getEnv("ADMIN_USERNAMES", ""),
		AdminUserIDs:   getEnv("ADMIN_USER_IDS", ""),
		AdminToken:     getEnv("ADMIN_TOKEN", ""),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

// RequiredForCycle returns the conversion threshold for a given reward cycle.
// The policy is constant today; per-cycle escalation plugs in here without a
// schema change, since the threshold is stamped onto each progress row.
func (c *Config) RequiredForCycle(cycle int) int {
	return c.ReferralRequired
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
