package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/BTreeMap/ShopMarketer/internal/api"
	"github.com/BTreeMap/ShopMarketer/internal/genai"
	"github.com/BTreeMap/ShopMarketer/internal/store"
	"github.com/BTreeMap/ShopMarketer/internal/util"
	"github.com/joho/godotenv"
	"github.com/mdp/qrterminal/v3"
)

func main() {
	// Initialize structured logger
	initializeLogger()

	// Load environment configuration
	config := loadEnvironmentConfig()

	// Parse command line flags
	flags := parseCommandLineFlags(config)

	if *flags.apiKey == "" {
		slog.Error("No API key configured; set GEMINI_API_KEY (or GOOGLE_API_KEY) or pass -api-key")
		os.Exit(1)
	}

	if *flags.publicURL != "" {
		if err := printAccessQR(*flags.publicURL, *flags.qrOutput); err != nil {
			slog.Warn("Failed to print access QR code", "error", err)
		}
	}

	// Build module options
	genaiOpts := buildGenAIOptions(flags)
	storeOpts := buildStoreOptions(flags)
	apiOpts := buildAPIOptions(flags)

	// Start the service
	slog.Info("Bootstrapping ShopMarketer with configured modules")
	slog.Debug("Module options counts", "genai", len(genaiOpts), "store", len(storeOpts), "api", len(apiOpts))
	slog.Debug("Final configuration", "model", *flags.model, "redis_set", *flags.redisURL != "", "api_addr", *flags.apiAddr, "timezone", *flags.timezone)
	if err := api.Run(genaiOpts, storeOpts, apiOpts); err != nil {
		slog.Error("ShopMarketer failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("ShopMarketer exited successfully")
}

// Config holds environment configuration
type Config struct {
	APIKey        string
	Model         string
	GenAIBaseURL  string
	CatalogURL    string
	GenAITimeout  time.Duration
	APIAddr       string
	RedisURL      string
	SessionTTL    time.Duration
	Timezone      string
	PublicURL     string
	SecureCookies bool
}

// Flags holds command line flag values
type Flags struct {
	apiKey        *string
	model         *string
	genaiBaseURL  *string
	catalogURL    *string
	genaiTimeout  *time.Duration
	apiAddr       *string
	redisURL      *string
	sessionTTL    *time.Duration
	timezone      *string
	publicURL     *string
	qrOutput      *string
	secureCookies *bool
}

// logLevel resolves the slog level from LOG_LEVEL, then DEBUG.
func logLevel() slog.Level {
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(raw)); err == nil {
			return level
		}
	}
	if util.ParseBoolEnv("DEBUG", false) {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// initializeLogger sets up structured logging
func initializeLogger() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel()}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		APIKey:        util.FirstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY"),
		Model:         util.GetEnv("GENAI_MODEL", genai.DefaultModel),
		GenAIBaseURL:  util.GetEnv("GENAI_BASE_URL", genai.DefaultBaseURL),
		CatalogURL:    util.GetEnv("GENAI_CATALOG_URL", genai.DefaultCatalogURL),
		GenAITimeout:  util.ParseDurationEnv("GENAI_TIMEOUT", genai.DefaultTimeout),
		APIAddr:       util.GetEnv("API_ADDR", api.DefaultAddr),
		RedisURL:      os.Getenv("REDIS_URL"),
		SessionTTL:    util.ParseDurationEnv("SESSION_TTL", store.DefaultSessionTTL),
		Timezone:      util.GetEnv("SHOP_TIMEZONE", api.DefaultTimezone),
		PublicURL:     os.Getenv("PUBLIC_URL"),
		SecureCookies: util.ParseBoolEnv("SECURE_COOKIES", false),
	}

	slog.Debug("environment variables loaded",
		"API_KEY_SET", config.APIKey != "",
		"GENAI_MODEL", config.Model,
		"GENAI_BASE_URL", config.GenAIBaseURL,
		"GENAI_CATALOG_URL", config.CatalogURL,
		"GENAI_TIMEOUT", config.GenAITimeout,
		"API_ADDR", config.APIAddr,
		"REDIS_URL_SET", config.RedisURL != "",
		"SESSION_TTL", config.SessionTTL,
		"SHOP_TIMEZONE", config.Timezone,
		"PUBLIC_URL", config.PublicURL,
		"SECURE_COOKIES", config.SecureCookies)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := registerFlags(flag.CommandLine, config)
	flag.Parse()

	slog.Debug("flags parsed",
		"apiKeySet", *flags.apiKey != "",
		"model", *flags.model,
		"genaiBaseURL", *flags.genaiBaseURL,
		"catalogURL", *flags.catalogURL,
		"genaiTimeout", *flags.genaiTimeout,
		"apiAddr", *flags.apiAddr,
		"redisURLSet", *flags.redisURL != "",
		"sessionTTL", *flags.sessionTTL,
		"timezone", *flags.timezone,
		"publicURL", *flags.publicURL,
		"qrOutput", *flags.qrOutput,
		"secureCookies", *flags.secureCookies)

	return flags
}

// registerFlags defines every flag on fs, using config values as defaults.
func registerFlags(fs *flag.FlagSet, config Config) Flags {
	return Flags{
		apiKey:        fs.String("api-key", config.APIKey, "Gemini API key (overrides $GEMINI_API_KEY or $GOOGLE_API_KEY)"),
		model:         fs.String("model", config.Model, "generative model id (overrides $GENAI_MODEL)"),
		genaiBaseURL:  fs.String("genai-base-url", config.GenAIBaseURL, "OpenAI-compatible generation endpoint (overrides $GENAI_BASE_URL)"),
		catalogURL:    fs.String("genai-catalog-url", config.CatalogURL, "model catalog endpoint (overrides $GENAI_CATALOG_URL)"),
		genaiTimeout:  fs.Duration("genai-timeout", config.GenAITimeout, "timeout of one generation request (overrides $GENAI_TIMEOUT)"),
		apiAddr:       fs.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		redisURL:      fs.String("redis-url", config.RedisURL, "Redis URL for sessions; empty keeps them in memory (overrides $REDIS_URL)"),
		sessionTTL:    fs.Duration("session-ttl", config.SessionTTL, "session lifetime (overrides $SESSION_TTL)"),
		timezone:      fs.String("timezone", config.Timezone, "time zone of the shop (overrides $SHOP_TIMEZONE)"),
		publicURL:     fs.String("public-url", config.PublicURL, "URL printed as a QR code at startup (overrides $PUBLIC_URL)"),
		qrOutput:      fs.String("qr-output", "", "path to write the access QR code instead of stdout"),
		secureCookies: fs.Bool("secure-cookies", config.SecureCookies, "mark the session cookie Secure (overrides $SECURE_COOKIES)"),
	}
}

// printAccessQR prints url as a terminal QR code, to path when set.
func printAccessQR(url, path string) error {
	writer := io.Writer(os.Stdout)
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create QR file: %w", err)
		}
		defer f.Close()
		writer = f
	}
	writeAccessQR(writer, url)
	return nil
}

func writeAccessQR(w io.Writer, url string) {
	fmt.Fprintf(w, "Open %s on your phone:\n", url)
	qrterminal.GenerateHalfBlock(url, qrterminal.L, w)
}

// buildGenAIOptions constructs GenAI configuration options
func buildGenAIOptions(flags Flags) []genai.Option {
	var genaiOpts []genai.Option
	if *flags.apiKey != "" {
		genaiOpts = append(genaiOpts, genai.WithAPIKey(*flags.apiKey))
	}
	if *flags.model != "" {
		genaiOpts = append(genaiOpts, genai.WithModel(*flags.model))
	}
	if *flags.genaiBaseURL != "" {
		genaiOpts = append(genaiOpts, genai.WithBaseURL(*flags.genaiBaseURL))
	}
	if *flags.catalogURL != "" {
		genaiOpts = append(genaiOpts, genai.WithCatalogURL(*flags.catalogURL))
	}
	if *flags.genaiTimeout > 0 {
		genaiOpts = append(genaiOpts, genai.WithTimeout(*flags.genaiTimeout))
	}
	return genaiOpts
}

// buildStoreOptions constructs store configuration options
func buildStoreOptions(flags Flags) []store.Option {
	var storeOpts []store.Option
	if *flags.redisURL != "" {
		slog.Debug("Redis URL provided, configuring Redis session store", "redis_set", true)
		storeOpts = append(storeOpts, store.WithRedisURL(*flags.redisURL))
	} else {
		slog.Debug("No Redis URL provided, will use in-memory session store")
	}
	if *flags.sessionTTL > 0 {
		storeOpts = append(storeOpts, store.WithTTL(*flags.sessionTTL))
	}
	return storeOpts
}

// buildAPIOptions constructs API server configuration options
func buildAPIOptions(flags Flags) []api.Option {
	var apiOpts []api.Option
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	if *flags.sessionTTL > 0 {
		apiOpts = append(apiOpts, api.WithSessionTTL(*flags.sessionTTL))
	}
	if *flags.secureCookies {
		apiOpts = append(apiOpts, api.WithSecureCookies(true))
	}
	if tz := strings.TrimSpace(*flags.timezone); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			slog.Warn("Unknown time zone, falling back to default", "timezone", tz, "default", api.DefaultTimezone, "error", err)
		} else {
			apiOpts = append(apiOpts, api.WithLocation(loc))
		}
	}
	return apiOpts
}
