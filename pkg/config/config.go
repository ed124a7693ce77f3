package config

import (
	"log"
	"os"
	"slices"
	"strconv"

	"github.com/joho/godotenv"
)

var (
	GeminiAPIKey    string
	GeminiTextModel string
	GeminiLiveModel string
	DatabaseDSN     string
	AppEnv          string
	IsStaging       bool
	IsProduction    bool
	// IsGeminiEnabled is a flag to enable/disable Gemini API usage (enum: "1" or "0")
	IsGeminiEnabled bool

	JWTSecret string
	Port      string

	// runtime tunables
	RateLimitWindowSeconds int
	RateLimitCapacity      int
	UserConcurrencyLimit   int
	DuplicateWindowSeconds int
	ChatCacheTTLSeconds    int
	ChatCacheMaxItems      int

	// live session tunables
	LiveSetupTimeoutSeconds   int
	LiveReceiveTimeoutSeconds int
	TTSReceiveTimeoutSeconds  int
	TitleMaxChars             int
	TitleWorkers              int
)

// loadAppEnv loads .env only outside production; production reads host env directly.
func loadAppEnv() {
	AppEnv = os.Getenv("APP_ENV")
	if AppEnv == "production" {
		return
	}
	if err := godotenv.Load(); err != nil {
		log.Fatalf("Error loading .env file: %v", err)
	}
}

func init() {
	loadAppEnv()

	GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	if GeminiAPIKey == "" {
		GeminiAPIKey = os.Getenv("GOOGLE_API_KEY")
	}
	GeminiTextModel = os.Getenv("GEMINI_TEXT_MODEL")
	GeminiLiveModel = os.Getenv("GEMINI_LIVE_MODEL")
	DatabaseDSN = os.Getenv("DATABASE_DSN")

	AppEnv = os.Getenv("APP_ENV")
	if !slices.Contains([]string{"staging", "production"}, AppEnv) {
		log.Fatal("environment variable APP_ENV must be 'staging' or 'production'")
	}
	IsStaging = AppEnv == "staging"
	IsProduction = AppEnv == "production"

	IsGeminiEnabled = os.Getenv("IS_GEMINI_ENABLED") == "1"

	if GeminiTextModel == "" {
		GeminiTextModel = "gemma-3-27b-it"
	}
	if GeminiLiveModel == "" {
		GeminiLiveModel = "gemini-2.5-flash-native-audio-latest"
	}

	JWTSecret = os.Getenv("JWT_SECRET_KEY")
	Port = os.Getenv("PORT")
	if Port == "" {
		Port = "5000"
	}

	RateLimitWindowSeconds = atoiOr(os.Getenv("RATE_LIMIT_WINDOW_SECONDS"), 10)
	RateLimitCapacity = atoiOr(os.Getenv("RATE_LIMIT_CAPACITY"), 5)
	UserConcurrencyLimit = atoiOr(os.Getenv("USER_CONCURRENCY_LIMIT"), 2)
	DuplicateWindowSeconds = atoiOr(os.Getenv("DUPLICATE_WINDOW_SECONDS"), 45)
	ChatCacheTTLSeconds = atoiOr(os.Getenv("CHAT_CACHE_TTL_SECONDS"), 600)
	ChatCacheMaxItems = atoiOr(os.Getenv("CHAT_CACHE_MAX_ITEMS"), 500)

	LiveSetupTimeoutSeconds = atoiOr(os.Getenv("LIVE_SETUP_TIMEOUT_SECONDS"), 10)
	LiveReceiveTimeoutSeconds = atoiOr(os.Getenv("LIVE_RECEIVE_TIMEOUT_SECONDS"), 15)
	TTSReceiveTimeoutSeconds = atoiOr(os.Getenv("TTS_RECEIVE_TIMEOUT_SECONDS"), 10)
	TitleMaxChars = atoiOr(os.Getenv("TITLE_MAX_CHARS"), 50)
	TitleWorkers = atoiOr(os.Getenv("TITLE_WORKERS"), 2)

	if IsProduction && JWTSecret == "" {
		log.Fatal("JWT_SECRET_KEY must be set in production")
	}

	log.Printf("[config] AppEnv=%s IsStaging=%v IsProduction=%v", AppEnv, IsStaging, IsProduction)
	log.Printf("[config] IsGeminiEnabled=%v GeminiAPIKeyPresent=%v", IsGeminiEnabled, GeminiAPIKey != "")
	log.Printf("[config] TextModel=%s LiveModel=%s", GeminiTextModel, GeminiLiveModel)
	log.Printf("[config] Live setup=%ds receive=%ds tts=%ds titleMax=%d",
		LiveSetupTimeoutSeconds, LiveReceiveTimeoutSeconds, TTSReceiveTimeoutSeconds, TitleMaxChars)
	log.Printf("[config] RateLimit window=%ds capacity=%d userConc=%d dupWindow=%ds cacheTTL=%ds cacheMax=%d",
		RateLimitWindowSeconds, RateLimitCapacity, UserConcurrencyLimit, DuplicateWindowSeconds, ChatCacheTTLSeconds, ChatCacheMaxItems)
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}
