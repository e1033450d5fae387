package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// placeholderAPIKey is the value shipped in example env files. Booting with
// it would send every completion request with a dead credential, so Load
// refuses it outright instead of degrading silently.
const placeholderAPIKey = "your-openai-api-key"

type Config struct {
	HTTPAddr             string
	DatabaseURL          string
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool

	JWTSecret string

	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:             getenv("HTTP_ADDR", ":8080"),
		DatabaseURL:          mustGetenv("DATABASE_URL"),
		CORSAllowCredentials: getenv("CORS_ALLOW_CREDENTIALS", "false") == "true",
	}

	origins := strings.Split(getenv("CORS_ALLOWED_ORIGINS", ""), ",")
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
		}
	}

	cfg.JWTSecret = mustGetenv("JWT_SECRET")

	cfg.LLMBaseURL = mustGetenv("LLM_BASE_URL")
	cfg.LLMAPIKey = mustGetenv("OPENAI_API_KEY")
	if cfg.LLMAPIKey == placeholderAPIKey {
		panic("OPENAI_API_KEY is the example placeholder; set a real key")
	}
	cfg.LLMModel = getenv("LLM_MODEL", "gpt-4o")

	return cfg, nil
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func mustGetenv(key string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		panic("missing env: " + key)
	}
	return v
}
