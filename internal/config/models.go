package config

import "time"

// ScoringConfig represents the configuration for the scoring service
type ScoringConfig struct {
	BaseURL string
	Timeout time.Duration
}

// NarrativeConfig represents the configuration shared by all text generators
type NarrativeConfig struct {
	Provider    string
	MaxBodySize int
}

// OllamaConfig represents the configuration for a local Ollama server
type OllamaConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// PostfixConfig represents the configuration for the Postfix content filter
type PostfixConfig struct {
	ListenAddress   string
	ReinjectAddress string
	ReinjectPort    int
	ReinjectEnabled bool
	ModifySubject   bool
	SubjectPrefix   string
	TrustedDomains  []string
	AnalysisTimeout time.Duration
	RiskHeader      string
	ScoreHeader     string
	AnalysisHeader  string
}

// GetScoring returns the scoring service configuration
func (c *Config) GetScoring() (ScoringConfig, error) {
	timeout, err := c.GetDuration("scoring.timeout")
	if err != nil {
		return ScoringConfig{}, err
	}
	return ScoringConfig{
		BaseURL: c.GetString("scoring.base_url"),
		Timeout: timeout,
	}, nil
}

// GetNarrative returns the narrative configuration
func (c *Config) GetNarrative() NarrativeConfig {
	return NarrativeConfig{
		Provider:    c.GetString("narrative.provider"),
		MaxBodySize: c.GetInt("narrative.max_body_size"),
	}
}

// GetOllama returns the Ollama configuration
func (c *Config) GetOllama() (OllamaConfig, error) {
	timeout, err := c.GetDuration("ollama.timeout")
	if err != nil {
		return OllamaConfig{}, err
	}
	return OllamaConfig{
		BaseURL: c.GetString("ollama.base_url"),
		Model:   c.GetString("ollama.model"),
		Timeout: timeout,
	}, nil
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		BaseURL:     c.GetString("openai.base_url"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
	}
}

// GetPostfix returns the Postfix content filter configuration
func (c *Config) GetPostfix() (PostfixConfig, error) {
	timeout, err := c.GetDuration("postfix.analysis_timeout")
	if err != nil {
		return PostfixConfig{}, err
	}
	return PostfixConfig{
		ListenAddress:   c.GetString("postfix.listen_address"),
		ReinjectAddress: c.GetString("postfix.reinject_address"),
		ReinjectPort:    c.GetInt("postfix.reinject_port"),
		ReinjectEnabled: c.GetBool("postfix.reinject_enabled"),
		ModifySubject:   c.GetBool("postfix.modify_subject"),
		SubjectPrefix:   c.GetString("postfix.subject_prefix"),
		TrustedDomains:  c.GetStringSlice("postfix.trusted_domains"),
		AnalysisTimeout: timeout,
		RiskHeader:      c.GetString("postfix.headers.risk"),
		ScoreHeader:     c.GetString("postfix.headers.score"),
		AnalysisHeader:  c.GetString("postfix.headers.analysis"),
	}, nil
}
