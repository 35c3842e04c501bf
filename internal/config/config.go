package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var AppEnv Config

type Config struct {
	MongoURI            string
	DBName              string
	JWTSecret           string
	IdentityTokenSecret string
	AccessTokenTTL      time.Duration
	RefreshTokenTTL     time.Duration
	PushGatewayURL      string
	PushAPIKey          string
	TrendInterval       time.Duration
}

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	AppEnv = Config{
		MongoURI:            getEnvOrDefault("MONGO_URI", ""),
		DBName:              getEnvOrDefault("DB_NAME", "mapsy"),
		JWTSecret:           getEnvOrDefault("JWT_SECRET", ""),
		IdentityTokenSecret: getEnvOrDefault("IDENTITY_TOKEN_SECRET", ""),
		AccessTokenTTL:      getDurationEnv("ACCESS_TOKEN_TTL", 20, time.Minute),
		RefreshTokenTTL:     getDurationEnv("REFRESH_TOKEN_TTL", 7, 24*time.Hour),
		PushGatewayURL:      getEnvOrDefault("PUSH_GATEWAY_URL", ""),
		PushAPIKey:          getEnvOrDefault("PUSH_API_KEY", ""),
		TrendInterval:       getDurationEnv("TREND_INTERVAL_MINUTES", 60, time.Minute),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * unit
		}
	}
	return time.Duration(defaultValue) * unit
}
