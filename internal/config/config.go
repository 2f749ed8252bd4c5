package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config contient la configuration globale de l'application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	SMTP     SMTPConfig
	Email    EmailConfig
	Auth     AuthConfig
}

// ServerConfig contient la configuration du serveur web
type ServerConfig struct {
	Port string
}

// DatabaseConfig contient la configuration de la base de données
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// SMTPConfig contient la configuration du serveur SMTP sortant
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
}

// EmailConfig contient la configuration des emails templatisés
type EmailConfig struct {
	FromEmail               string
	Domain                  string
	SiteName                string
	ActivationURL           string
	PasswordResetConfirmURL string
	DefaultProtocol         string
}

// AuthConfig contient la configuration des comptes et des clés
type AuthConfig struct {
	EmailUnique                bool
	EmailConfirmationDaysValid int
	PasswordResetDaysValid     int
	BasicGroupName             string
	PrivilegedGroupName        string
}

// Load charge la configuration depuis les variables d'environnement
func Load() (*Config, error) {
	// Charger les variables d'environnement depuis .env si présent
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     getEnv("DB_NAME", "dentest"),
		},
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getEnv("SMTP_PORT", "465"),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
		},
		Email: EmailConfig{
			FromEmail:               getEnv("FROM_EMAIL", "noreply@dentest.local"),
			Domain:                  getEnv("DOMAIN", "localhost:8080"),
			SiteName:                getEnv("SITE_NAME", "Dentest"),
			ActivationURL:           getEnv("ACTIVATION_URL", "{protocol}://{domain}/activate/{username}/{token}"),
			PasswordResetConfirmURL: getEnv("PASSWORD_RESET_CONFIRM_URL", "{protocol}://{domain}/password_reset/{username}/{token}"),
			DefaultProtocol:         getEnv("DEFAULT_PROTOCOL", "http"),
		},
		Auth: AuthConfig{
			EmailUnique:                getEnvBool("EMAIL_UNIQUE", true),
			EmailConfirmationDaysValid: getEnvInt("EMAIL_CONFIRMATION_DAYS_VALID", 7),
			PasswordResetDaysValid:     getEnvInt("PASSWORD_RESET_DAYS_VALID", 3),
			BasicGroupName:             getEnv("BASIC_GROUP_NAME", "Bronze"),
			PrivilegedGroupName:        getEnv("PRIVILEGED_GROUP_NAME", "Silver"),
		},
	}

	return config, nil
}

// getEnv récupère une variable d'environnement avec une valeur par défaut
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getEnvInt récupère une variable d'environnement entière
func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}

// getEnvBool récupère une variable d'environnement booléenne
func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return b
}
