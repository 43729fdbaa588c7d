package entity

import "time"

const (
	EasyDifficulty   = "easy"
	MediumDifficulty = "medium"
	HardDifficulty   = "hard"
)

// Keys of AIConfig.ErrorMessages.
const (
	MessageAPIKeyMissing   = "apiKeyMissing"
	MessageNetworkError    = "networkError"
	MessageInvalidResponse = "invalidResponse"
	MessageTimeout         = "timeout"
	MessageRateLimited     = "rateLimited"
)

// RequiredDifficulties lists the difficulty profiles every config must define.
var RequiredDifficulties = []string{EasyDifficulty, MediumDifficulty, HardDifficulty}

type RateLimit struct {
	MaxRequests int `json:"maxRequests"`
	PerMinutes  int `json:"perMinutes"`
}

type ProviderConfig struct {
	Name          string     `json:"name"`
	Enabled       bool       `json:"enabled"`
	APIEndpoint   string     `json:"apiEndpoint"`
	Model         string     `json:"model,omitempty"`
	APIKey        string     `json:"apiKey,omitempty"`
	APIKeyEnvVar  string     `json:"apiKeyEnvVar"`
	Timeout       int        `json:"timeout"`
	RetryAttempts int        `json:"retryAttempts"`
	RetryDelay    int        `json:"retryDelay"`
	RateLimit     *RateLimit `json:"rateLimit,omitempty"`
}

// TimeoutDuration converts the millisecond timeout. Zero means no deadline.
func (that ProviderConfig) TimeoutDuration() time.Duration {
	return time.Duration(that.Timeout) * time.Millisecond
}

func (that ProviderConfig) RetryDelayDuration() time.Duration {
	return time.Duration(that.RetryDelay) * time.Millisecond
}

type DifficultyProfile struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	SystemPrompt string  `json:"systemPrompt"`
	Temperature  float64 `json:"temperature"`
	MaxTokens    int     `json:"maxTokens"`
}

type MoveDelay struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// AIConfig is the root of ai-config.json. It is read-only once loaded.
type AIConfig struct {
	Providers         map[string]ProviderConfig    `json:"providers"`
	DefaultProvider   string                       `json:"defaultProvider"`
	FallbackProviders []string                     `json:"fallbackProviders"`
	Difficulties      map[string]DifficultyProfile `json:"difficulties"`
	DefaultDifficulty string                       `json:"defaultDifficulty"`
	MoveDelay         MoveDelay                    `json:"moveDelay"`
	ErrorMessages     map[string]string            `json:"errorMessages"`
}

// Difficulty returns the profile for level, falling back to the default
// difficulty and then to medium when level is not one of the required three.
func (that *AIConfig) Difficulty(level string) (string, DifficultyProfile) {
	for _, candidate := range []string{level, that.DefaultDifficulty, MediumDifficulty} {
		if !IsDifficulty(candidate) {
			continue
		}

		if profile, ok := that.Difficulties[candidate]; ok {
			return candidate, profile
		}
	}

	return MediumDifficulty, that.Difficulties[MediumDifficulty]
}

// ErrorMessage returns the user-facing template for kind, or kind itself.
func (that *AIConfig) ErrorMessage(kind string) string {
	if msg, ok := that.ErrorMessages[kind]; ok && msg != "" {
		return msg
	}

	return kind
}

func IsDifficulty(level string) bool {
	for _, required := range RequiredDifficulties {
		if level == required {
			return true
		}
	}

	return false
}
