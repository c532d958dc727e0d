package config

import "os"

// APIKeySource represents where an API key comes from.
type APIKeySource string

const (
	KeySourceEnv    APIKeySource = "env"
	KeySourceConfig APIKeySource = "config"
	KeySourceNone   APIKeySource = "none"
)

// KeyStatus represents the status of an API key.
type KeyStatus struct {
	Name     string       `json:"name"     yaml:"name"`
	Source   APIKeySource `json:"source"   yaml:"source"`
	IsSet    bool         `json:"is_set"   yaml:"is_set"`
	Masked   string       `json:"masked,omitempty" yaml:"masked,omitempty"` // e.g., "abc...xyz"
	Required bool         `json:"required" yaml:"required"`
}

// CheckAPIKeys returns the status of the news source API keys. A key is
// required when the configured source uses it.
func CheckAPIKeys(cfg *Config) []KeyStatus {
	newsapi := checkKey("NewsAPI key", cfg.News.NewsAPIKey, EnvNewsAPIKey)
	newsapi.Required = cfg.News.Source == "newsapi"
	cryptopanic := checkKey("CryptoPanic token", cfg.News.CryptoPanicKey, EnvCryptoPanicKey)
	cryptopanic.Required = cfg.News.Source == "cryptopanic"
	return []KeyStatus{newsapi, cryptopanic}
}

// SourceKey returns the API key for the configured news source.
func (c *Config) SourceKey() string {
	switch c.News.Source {
	case "newsapi":
		return c.News.NewsAPIKey
	case "cryptopanic":
		return c.News.CryptoPanicKey
	}
	return ""
}

// checkKey checks if a key is set and where it came from.
func checkKey(name, value, envVar string) KeyStatus {
	status := KeyStatus{
		Name:  name,
		IsSet: value != "",
	}

	if value != "" {
		if os.Getenv(envVar) != "" {
			status.Source = KeySourceEnv
		} else {
			status.Source = KeySourceConfig
		}
		status.Masked = maskKey(value)
	} else {
		status.Source = KeySourceNone
	}

	return status
}

// maskKey masks an API key for display, showing only first 3 and last 3 chars.
func maskKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:3] + "..." + key[len(key)-3:]
}
