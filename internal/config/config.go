package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ColumnHeaders holds the locale-specific invoice column header names that
// are substituted verbatim into the LLM prompt.
type ColumnHeaders struct {
	Quantity   string `json:"quantity"`
	UnitPrice  string `json:"unit_price"`
	TotalPrice string `json:"total_price"`
}

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
	LogFormat    string
	LogLevel     string

	// Auth configuration
	JWTSecret string

	// Rate limiting (requests per minute per client IP)
	ExtractRateLimit int
	PricingRateLimit int

	// LLM configuration
	OpenAIAPIKey string
	OpenAIBase   string
	Model        string
	Temperature  float64
	MaxTokens    int
	LLMTimeout   time.Duration
	Mock         bool

	// Text grid configuration
	ScaleFactor float64
	Tolerance   float64

	// OCR configuration
	OCRDPI       int
	OCRLanguages string
	OCRConfig    string

	// Prompt column headers
	ColumnHeaders ColumnHeaders

	// Validation configuration
	AllowedCurrencies []string

	// Pricing constants
	FxLeiToEUR         float64
	TransportRatePerKG float64

	// Extract cache configuration
	ExtractCacheEnabled    bool
	ExtractCacheTTL        time.Duration
	ExtractCacheMaxEntries int

	// Upload configuration
	MaxPDFSizeMB int
	OutputDir    string

	// Import repository configuration (empty DSN = in-memory repository)
	DatabaseURL string
}

// LoadConfig loads the application configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env file. Using environment variables.")
	}

	config := &Config{
		// Server configuration
		Port:         getEnvInt("PORT", 8080),
		ReadTimeout:  time.Duration(getEnvInt("READ_TIMEOUT", 30)) * time.Second,
		WriteTimeout: time.Duration(getEnvInt("WRITE_TIMEOUT", 120)) * time.Second,
		CORSOrigins:  getEnvStringSlice("CORS_ORIGINS", []string{"*"}),
		LogFormat:    getEnvString("LOG_FORMAT", "json"),
		LogLevel:     getEnvString("LOG_LEVEL", "info"),

		// Auth configuration
		JWTSecret: os.Getenv("JWT_SECRET"),

		// Rate limiting
		ExtractRateLimit: getEnvInt("EXTRACT_RATE_LIMIT", 10),
		PricingRateLimit: getEnvInt("PRICING_RATE_LIMIT", 20),

		// LLM configuration
		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		OpenAIBase:   getEnvString("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		Model:        getEnvString("OPENAI_MODEL", "gpt-4o-mini"),
		Temperature:  getEnvFloat("OPENAI_TEMPERATURE", 0.0),
		MaxTokens:    getEnvInt("OPENAI_MAX_TOKENS", 4096),
		LLMTimeout:   time.Duration(getEnvInt("OPENAI_TIMEOUT", 60)) * time.Second,
		Mock:         getEnvBool("MOCK", false),

		// Text grid configuration
		ScaleFactor: getEnvFloat("GRID_SCALE_FACTOR", 0.2),
		Tolerance:   getEnvFloat("GRID_TOLERANCE", 3),

		// OCR configuration
		OCRDPI:       getEnvInt("OCR_DPI", 150),
		OCRLanguages: getEnvString("OCR_LANGUAGES", "ron+eng+rus"),
		OCRConfig:    getEnvString("OCR_CONFIG", "--oem 1 --psm 6"),

		// Prompt column headers
		ColumnHeaders: ColumnHeaders{
			Quantity:   getEnvString("HEADER_QUANTITY", "Cant."),
			UnitPrice:  getEnvString("HEADER_UNIT_PRICE", "Pret unitar"),
			TotalPrice: getEnvString("HEADER_TOTAL_PRICE", "Valoare incl.TVA"),
		},

		// Validation configuration
		AllowedCurrencies: getEnvStringSlice("ALLOWED_CURRENCIES", []string{"MDL", "EUR", "USD", "RON", "RUB"}),

		// Pricing constants
		FxLeiToEUR:         getEnvFloat("FX_LEI_TO_EUR", 19.5),
		TransportRatePerKG: getEnvFloat("TRANSPORT_RATE_PER_KG", 1.5),

		// Extract cache configuration
		ExtractCacheEnabled:    getEnvBool("EXTRACT_CACHE_ENABLED", true),
		ExtractCacheTTL:        time.Duration(getEnvInt("EXTRACT_CACHE_TTL", 900)) * time.Second,
		ExtractCacheMaxEntries: getEnvInt("EXTRACT_CACHE_MAX_ENTRIES", 128),

		// Upload configuration
		MaxPDFSizeMB: getEnvInt("MAX_PDF_SIZE_MB", 10),
		OutputDir:    getEnvString("OUTPUT_DIR", "output"),

		// Import repository configuration
		DatabaseURL: os.Getenv("DATABASE_URL"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks configuration invariants that must hold before the service
// starts. Errors here are fatal: a partially applied configuration would
// silently change extraction or pricing output.
func (c *Config) Validate() error {
	if len(c.AllowedCurrencies) == 0 {
		return fmt.Errorf("config: ALLOWED_CURRENCIES must list at least one currency code")
	}
	for _, cur := range c.AllowedCurrencies {
		if len(strings.TrimSpace(cur)) != 3 {
			return fmt.Errorf("config: invalid currency code %q in ALLOWED_CURRENCIES", cur)
		}
	}
	if c.ScaleFactor < 0.1 || c.ScaleFactor > 0.5 {
		return fmt.Errorf("config: GRID_SCALE_FACTOR must be in [0.1, 0.5], got %v", c.ScaleFactor)
	}
	if c.Tolerance < 1 || c.Tolerance > 10 {
		return fmt.Errorf("config: GRID_TOLERANCE must be in [1, 10], got %v", c.Tolerance)
	}
	if c.OCRDPI < 72 || c.OCRDPI > 600 {
		return fmt.Errorf("config: OCR_DPI must be in [72, 600], got %d", c.OCRDPI)
	}
	if c.Temperature < 0 || c.Temperature > 1 {
		return fmt.Errorf("config: OPENAI_TEMPERATURE must be in [0, 1], got %v", c.Temperature)
	}
	if c.MaxTokens < 1 || c.MaxTokens > 128000 {
		return fmt.Errorf("config: OPENAI_MAX_TOKENS must be in [1, 128000], got %d", c.MaxTokens)
	}
	if c.FxLeiToEUR <= 0 {
		return fmt.Errorf("config: FX_LEI_TO_EUR must be positive, got %v", c.FxLeiToEUR)
	}
	if c.TransportRatePerKG <= 0 {
		return fmt.Errorf("config: TRANSPORT_RATE_PER_KG must be positive, got %v", c.TransportRatePerKG)
	}
	if c.ExtractCacheMaxEntries < 1 {
		return fmt.Errorf("config: EXTRACT_CACHE_MAX_ENTRIES must be at least 1, got %d", c.ExtractCacheMaxEntries)
	}
	if c.MaxPDFSizeMB < 1 {
		return fmt.Errorf("config: MAX_PDF_SIZE_MB must be at least 1, got %d", c.MaxPDFSizeMB)
	}
	if !c.Mock && c.OpenAIAPIKey == "" {
		return fmt.Errorf("config: OPENAI_API_KEY is required unless MOCK=true")
	}
	return nil
}

// NormalizedCurrencies returns the currency allow-set, uppercased.
func (c *Config) NormalizedCurrencies() map[string]bool {
	allowed := make(map[string]bool, len(c.AllowedCurrencies))
	for _, cur := range c.AllowedCurrencies {
		allowed[strings.ToUpper(strings.TrimSpace(cur))] = true
	}
	return allowed
}

// CreateOutputDirs ensures output directories used by debug mode exist.
func (c *Config) CreateOutputDirs() error {
	for _, dir := range []string{c.OutputDir, filepath.Join(c.OutputDir, "grids"), filepath.Join(c.OutputDir, "tmp")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}
	return nil
}

// getEnvInt gets an integer from an environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid value for %s: %s, using default: %d", key, valueStr, defaultValue)
		return defaultValue
	}

	return value
}

// getEnvFloat gets a float from an environment variable with a default value
func getEnvFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Invalid value for %s: %s, using default: %v", key, valueStr, defaultValue)
		return defaultValue
	}

	return value
}

// getEnvBool gets a boolean from an environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	valueStr = strings.ToLower(valueStr)
	return valueStr == "true" || valueStr == "1" || valueStr == "yes"
}

// getEnvString gets a string from an environment variable with a default value
func getEnvString(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvStringSlice gets a string slice from a comma-separated environment variable
func getEnvStringSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	return strings.Split(valueStr, ",")
}
