// internal/infra/config/config.go
package config

import "os"

// Config holds the process-wide environment configuration.
type Config struct {
	Port string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// FirebaseProjectID enables bearer-token verification. Empty means the
	// storefront runs guest-only.
	FirebaseProjectID string

	// GoogleCredentialsFile points at a service account key for local dev.
	// Empty falls back to Application Default Credentials.
	GoogleCredentialsFile string

	// SendGridAPIKey enables order confirmation mail. Empty disables it.
	SendGridAPIKey string
	MailFrom       string

	CORSAllowOrigin string
}

// Load reads the environment and returns a Config.
func Load() *Config {
	return &Config{
		Port: getenvDefault("PORT", "8080"),

		DBHost:     getenvDefault("DB_HOST", "localhost"),
		DBPort:     getenvDefault("DB_PORT", "5432"),
		DBUser:     getenvDefault("DB_USER", "postgres"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getenvDefault("DB_NAME", "steepery"),

		FirebaseProjectID:     os.Getenv("FIREBASE_PROJECT_ID"),
		GoogleCredentialsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),

		SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		MailFrom:       getenvDefault("MAIL_FROM", "orders@steepery.example.com"),

		CORSAllowOrigin: os.Getenv("CORS_ALLOW_ORIGIN"),
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
