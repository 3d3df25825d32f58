package di

import (
	"flag"
	"io"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/phishguard/internal/config"
	"github.com/mikey/phishguard/internal/logging"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// Remote service flags
	ScoringURL  string
	Provider    string
	MaxBodySize int

	// Ollama flags
	OllamaURL   string
	OllamaModel string

	// OpenAI flags
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	OpenAIModelName string

	// Gemini flags
	GeminiAPIKey    string
	GeminiModelName string

	// Bedrock flags
	BedrockRegion  string
	BedrockModelID string

	// Input flags
	InputFile string
	Sender    string
	Subject   string
	Content   string

	// Output flags
	Verbose    bool
	JSONLog    bool
	JSONOutput bool
	ConfigFile string
}

// ParseFlags parses command line arguments into a CLIFlags struct
func ParseFlags(name string, args []string, output io.Writer) (*CLIFlags, error) {
	flags := &CLIFlags{}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)

	// Remote service flags
	fs.StringVar(&flags.ScoringURL, "scoring-url", "http://localhost:8000", "Base URL of the scoring service")
	fs.StringVar(&flags.Provider, "provider", "ollama", "Narrative provider (ollama, openai, gemini, bedrock)")
	fs.IntVar(&flags.MaxBodySize, "max-body-size", 4096, "Maximum email body size sent to the narrative model")

	// Ollama flags
	fs.StringVar(&flags.OllamaURL, "ollama-url", "http://localhost:11434", "Base URL of the Ollama server")
	fs.StringVar(&flags.OllamaModel, "ollama-model", "smollm2", "Ollama model name")

	// OpenAI flags
	fs.StringVar(&flags.OpenAIAPIKey, "openai-api-key", "", "API key for OpenAI")
	fs.StringVar(&flags.OpenAIBaseURL, "openai-base-url", "", "Base URL of an OpenAI compatible API")
	fs.StringVar(&flags.OpenAIModelName, "openai-model", "gpt-4o-mini", "OpenAI model name")

	// Gemini flags
	fs.StringVar(&flags.GeminiAPIKey, "gemini-api-key", "", "API key for Google Gemini")
	fs.StringVar(&flags.GeminiModelName, "gemini-model", "gemini-1.5-flash", "Gemini model name")

	// Bedrock flags
	fs.StringVar(&flags.BedrockRegion, "bedrock-region", "us-east-1", "AWS region for Bedrock")
	fs.StringVar(&flags.BedrockModelID, "bedrock-model", "anthropic.claude-v2", "Bedrock model ID")

	// Input flags
	fs.StringVar(&flags.InputFile, "file", "", "Input email file in RFC 5322 format (stdin if no other input is given)")
	fs.StringVar(&flags.Sender, "sender", "", "Sender address, used instead of an email file")
	fs.StringVar(&flags.Subject, "subject", "", "Email subject, used with --sender")
	fs.StringVar(&flags.Content, "content", "", "Email body, used with --sender")

	// Output flags
	fs.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging and body preview")
	fs.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	fs.BoolVar(&flags.JSONOutput, "json", false, "Print the result as JSON")
	fs.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides command line flags)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return flags, nil
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile != "" {
			cfg, err := config.Load(flags.ConfigFile)
			if err != nil {
				return nil, err
			}
			logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
			applyCLIOutput(cfg, flags)
			return cfg, nil
		}

		return createConfigFromFlags(flags), nil
	}); err != nil {
		return nil, err
	}

	if err := provideAnalysis(container); err != nil {
		return nil, err
	}

	return container, nil
}

// applyCLIOutput forces the CLI frontend, which a config file may not select
func applyCLIOutput(cfg *config.Config, flags *CLIFlags) {
	v := cfg.GetViper()
	v.Set("server.frontend", "cli")
	v.Set("cli.verbose", flags.Verbose)
	v.Set("cli.json_output", flags.JSONOutput)
	v.Set("metrics.enabled", false)
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags(flags *CLIFlags) *config.Config {
	v := config.NewEmptyViper()

	v.Set("scoring.base_url", flags.ScoringURL)
	v.Set("narrative.provider", flags.Provider)
	v.Set("narrative.max_body_size", flags.MaxBodySize)

	// Set provider-specific configuration
	switch flags.Provider {
	case "ollama":
		v.Set("ollama.base_url", flags.OllamaURL)
		v.Set("ollama.model", flags.OllamaModel)
	case "openai":
		v.Set("openai.api_key", flags.OpenAIAPIKey)
		v.Set("openai.base_url", flags.OpenAIBaseURL)
		v.Set("openai.model_name", flags.OpenAIModelName)
	case "gemini":
		v.Set("gemini.api_key", flags.GeminiAPIKey)
		v.Set("gemini.model_name", flags.GeminiModelName)
	case "bedrock":
		v.Set("bedrock.region", flags.BedrockRegion)
		v.Set("bedrock.model_id", flags.BedrockModelID)
	}

	cfg := config.NewFromViper(v)
	applyCLIOutput(cfg, flags)
	return cfg
}
