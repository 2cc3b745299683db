package agentic

// DefaultBaseURL is the OpenAI-compatible endpoint used when none is
// configured. OpenRouter fronts every model family below behind one API.
const DefaultBaseURL = "https://openrouter.ai/api/v1"

// =============================================================================
// OpenRouter model identifiers
// https://openrouter.ai/models
// =============================================================================

const (
	// OpenAI
	ModelOpenAIGPT4o     = "openai/gpt-4o"
	ModelOpenAIGPT4oMini = "openai/gpt-4o-mini"
	ModelOpenAIGPT41     = "openai/gpt-4.1"
	ModelOpenAIO4Mini    = "openai/o4-mini"

	// Anthropic
	ModelAnthropicClaudeSonnet4  = "anthropic/claude-sonnet-4"
	ModelAnthropicClaude37Sonnet = "anthropic/claude-3.7-sonnet"
	ModelAnthropicClaude35Haiku  = "anthropic/claude-3.5-haiku"

	// Google
	ModelGoogleGemini25Pro   = "google/gemini-2.5-pro"
	ModelGoogleGemini25Flash = "google/gemini-2.5-flash"

	// xAI
	ModelXAIGrok4     = "x-ai/grok-4"
	ModelXAIGrok3Mini = "x-ai/grok-3-mini"

	// Meta
	ModelMetaLlama4Maverick = "meta-llama/llama-4-maverick"
	ModelMetaLlama33_70B    = "meta-llama/llama-3.3-70b-instruct"

	// DeepSeek
	ModelDeepSeekChat = "deepseek/deepseek-chat-v3-0324"
	ModelDeepSeekR1   = "deepseek/deepseek-r1"
)
