package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const configPathEnv = "OSINT_CONFIG"

// Config holds the runtime settings shared by the server and the CLI.
type Config struct {
	GoogleAPIKeys []string `yaml:"googleApiKeys"`
	GoogleCSEIDs  []string `yaml:"googleCseIds"`
	SearchCountry string   `yaml:"searchCountry"`
	SearchLang    string   `yaml:"searchLanguage"`

	GeminiAPIKeys []string `yaml:"geminiApiKeys"`
	GeminiModel   string   `yaml:"geminiModel"`
	AIBackend     string   `yaml:"aiBackend"`

	NERURL    string `yaml:"nerUrl"`
	NERAPIKey string `yaml:"nerApiKey"`

	Port                  string `yaml:"port"`
	MaxConcurrentSearches int    `yaml:"maxConcurrentSearches"`
	RetentionSeconds      int    `yaml:"progressRetentionSeconds"`
	SweepSeconds          int    `yaml:"progressSweepSeconds"`
	SearchTimeoutSeconds  int    `yaml:"searchTimeoutSeconds"`
	AITimeoutSeconds      int    `yaml:"aiTimeoutSeconds"`
	ReportsDir            string `yaml:"reportsDir"`
	LogLevel              string `yaml:"logLevel"`
}

// SearchCredential is one (API key, engine id) pair of the search pool.
type SearchCredential struct {
	APIKey   string
	EngineID string
}

// Load reads .env (if present), an optional YAML file named by OSINT_CONFIG,
// and finally the process environment, in that order of precedence.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

// SearchCredentials zips the API keys and engine ids pairwise, in pool order.
// Pairs with an empty half are dropped.
func (c *Config) SearchCredentials() []SearchCredential {
	n := min(len(c.GoogleAPIKeys), len(c.GoogleCSEIDs))
	creds := make([]SearchCredential, 0, n)
	for i := range n {
		key := strings.TrimSpace(c.GoogleAPIKeys[i])
		cx := strings.TrimSpace(c.GoogleCSEIDs[i])
		if key == "" || cx == "" {
			continue
		}
		creds = append(creds, SearchCredential{APIKey: key, EngineID: cx})
	}
	return creds
}

func (c *Config) applyEnvOverrides() {
	c.GoogleAPIKeys = getEnvAsList("GOOGLE_API_KEYS", c.GoogleAPIKeys)
	c.GoogleCSEIDs = getEnvAsList("GOOGLE_CSE_IDS", c.GoogleCSEIDs)
	c.SearchCountry = getEnv("SEARCH_COUNTRY", c.SearchCountry)
	c.SearchLang = getEnv("SEARCH_LANGUAGE", c.SearchLang)
	c.GeminiAPIKeys = getEnvAsList("GEMINI_API_KEYS", c.GeminiAPIKeys)
	c.GeminiModel = getEnv("GEMINI_MODEL", c.GeminiModel)
	c.AIBackend = getEnv("AI_BACKEND", c.AIBackend)
	c.NERURL = getEnv("NER_URL", c.NERURL)
	c.NERAPIKey = getEnv("NER_API_KEY", c.NERAPIKey)
	c.Port = getEnv("PORT", c.Port)
	c.MaxConcurrentSearches = getEnvAsInt("MAX_CONCURRENT_SEARCHES", c.MaxConcurrentSearches)
	c.RetentionSeconds = getEnvAsInt("PROGRESS_RETENTION_SECONDS", c.RetentionSeconds)
	c.SweepSeconds = getEnvAsInt("PROGRESS_SWEEP_SECONDS", c.SweepSeconds)
	c.SearchTimeoutSeconds = getEnvAsInt("SEARCH_TIMEOUT_SECONDS", c.SearchTimeoutSeconds)
	c.AITimeoutSeconds = getEnvAsInt("AI_TIMEOUT_SECONDS", c.AITimeoutSeconds)
	c.ReportsDir = getEnv("REPORTS_DIR", c.ReportsDir)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
}

func mergeConfig(base *Config, override Config) *Config {
	if len(override.GoogleAPIKeys) > 0 {
		base.GoogleAPIKeys = override.GoogleAPIKeys
	}
	if len(override.GoogleCSEIDs) > 0 {
		base.GoogleCSEIDs = override.GoogleCSEIDs
	}
	if override.SearchCountry != "" {
		base.SearchCountry = override.SearchCountry
	}
	if override.SearchLang != "" {
		base.SearchLang = override.SearchLang
	}
	if len(override.GeminiAPIKeys) > 0 {
		base.GeminiAPIKeys = override.GeminiAPIKeys
	}
	if override.GeminiModel != "" {
		base.GeminiModel = override.GeminiModel
	}
	if override.AIBackend != "" {
		base.AIBackend = override.AIBackend
	}
	if override.NERURL != "" {
		base.NERURL = override.NERURL
	}
	if override.NERAPIKey != "" {
		base.NERAPIKey = override.NERAPIKey
	}
	if override.Port != "" {
		base.Port = override.Port
	}
	if override.MaxConcurrentSearches > 0 {
		base.MaxConcurrentSearches = override.MaxConcurrentSearches
	}
	if override.RetentionSeconds > 0 {
		base.RetentionSeconds = override.RetentionSeconds
	}
	if override.SweepSeconds > 0 {
		base.SweepSeconds = override.SweepSeconds
	}
	if override.SearchTimeoutSeconds > 0 {
		base.SearchTimeoutSeconds = override.SearchTimeoutSeconds
	}
	if override.AITimeoutSeconds > 0 {
		base.AITimeoutSeconds = override.AITimeoutSeconds
	}
	if override.ReportsDir != "" {
		base.ReportsDir = override.ReportsDir
	}
	if override.LogLevel != "" {
		base.LogLevel = override.LogLevel
	}
	return base
}

func defaultConfig() *Config {
	return &Config{
		SearchCountry:         "in",
		SearchLang:            "en",
		GeminiModel:           "gemini-1.5-flash",
		AIBackend:             "genai",
		Port:                  "5000",
		MaxConcurrentSearches: 5,
		RetentionSeconds:      600,
		SweepSeconds:          60,
		SearchTimeoutSeconds:  5,
		AITimeoutSeconds:      60,
		ReportsDir:            "reports",
		LogLevel:              "info",
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList splits a comma separated variable, keeping empty entries so
// that positional pairing between two lists is preserved.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
