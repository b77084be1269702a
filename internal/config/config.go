package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	openaiembed "github.com/cloudwego/eino-ext/components/embedding/openai"
	openaimodel "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	"github.com/qdrant/go-client/qdrant"
)

// Config aggregates every setting the service reads from the environment.
type Config struct {
	Server ServerConfig
	AI     AIConfig
	Qdrant QdrantConfig
	Chat   ChatConfig
}

// Load reads the full configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	qdrantCfg, err := loadQdrantConfig()
	if err != nil {
		return nil, err
	}

	chat, err := loadChatConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, AI: ai, Qdrant: qdrantCfg, Chat: chat}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr        string
	CORSOrigins []string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "5001"
	}

	addr := port
	if !strings.Contains(port, ":") {
		if strings.Contains(port, " ") {
			return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
		}
		addr = ":" + port
	}

	origins := []string{"*"}
	if raw := strings.TrimSpace(os.Getenv("CORS_ORIGINS")); raw != "" {
		origins = origins[:0]
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}

	return ServerConfig{Addr: addr, CORSOrigins: origins}, nil
}

// AIConfig describes the OpenAI chat and embedding models.
type AIConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	EmbeddingModel string
	Temperature    float32
	MaxTokens      int
	Timeout        time.Duration
}

// Enabled reports whether the required OpenAI credentials are present.
func (c AIConfig) Enabled() bool {
	return c.APIKey != ""
}

// NewChatModel builds the eino chat-model component from this configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}

	temperature := c.Temperature
	maxTokens := c.MaxTokens

	return openaimodel.NewChatModel(ctx, &openaimodel.ChatModelConfig{
		APIKey:      c.APIKey,
		BaseURL:     c.BaseURL,
		Model:       c.Model,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
		Timeout:     c.Timeout,
	})
}

// NewEmbedder builds the eino embedding component from this configuration.
func (c AIConfig) NewEmbedder(ctx context.Context) (embedding.Embedder, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}

	return openaiembed.NewEmbedder(ctx, &openaiembed.EmbeddingConfig{
		APIKey:  c.APIKey,
		BaseURL: c.BaseURL,
		Model:   c.EmbeddingModel,
		Timeout: c.Timeout,
	})
}

func loadAIConfig() (AIConfig, error) {
	temperature := float32(0.6)
	if override, err := parseOptionalFloat32Env("OPENAI_TEMPERATURE"); err != nil {
		return AIConfig{}, err
	} else if override != nil {
		temperature = *override
	}

	maxTokens := 100
	if override, err := parseOptionalIntEnv("OPENAI_MAX_TOKENS"); err != nil {
		return AIConfig{}, err
	} else if override != nil {
		maxTokens = *override
	}

	timeoutSeconds := 30
	if override, err := parseOptionalIntEnv("OPENAI_TIMEOUT"); err != nil {
		return AIConfig{}, err
	} else if override != nil {
		timeoutSeconds = *override
	}

	return AIConfig{
		APIKey:         strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		BaseURL:        strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
		Model:          getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		EmbeddingModel: getEnvOrDefault("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
		Temperature:    temperature,
		MaxTokens:      maxTokens,
		Timeout:        time.Duration(timeoutSeconds) * time.Second,
	}, nil
}

// QdrantConfig describes the vector-search collaborator.
type QdrantConfig struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
	TopK       uint64
}

// Enabled reports whether a Qdrant host is configured.
func (c QdrantConfig) Enabled() bool {
	return c.Host != ""
}

// NewClient builds a Qdrant gRPC client from this configuration.
func (c QdrantConfig) NewClient() (*qdrant.Client, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("QDRANT_HOST is not set")
	}

	return qdrant.NewClient(&qdrant.Config{
		Host:   c.Host,
		Port:   c.Port,
		APIKey: c.APIKey,
		UseTLS: c.UseTLS,
	})
}

func loadQdrantConfig() (QdrantConfig, error) {
	port := 6334
	if override, err := parseOptionalIntEnv("QDRANT_PORT"); err != nil {
		return QdrantConfig{}, err
	} else if override != nil {
		port = *override
	}

	useTLS, err := parseBoolEnv("QDRANT_USE_TLS", false)
	if err != nil {
		return QdrantConfig{}, err
	}

	topK := 3
	if override, err := parseOptionalIntEnv("QDRANT_TOP_K"); err != nil {
		return QdrantConfig{}, err
	} else if override != nil && *override > 0 {
		topK = *override
	}

	return QdrantConfig{
		Host:       strings.TrimSpace(os.Getenv("QDRANT_HOST")),
		Port:       port,
		APIKey:     strings.TrimSpace(os.Getenv("QDRANT_API_KEY")),
		UseTLS:     useTLS,
		Collection: getEnvOrDefault("QDRANT_COLLECTION", "bridgetext_scenarios"),
		TopK:       uint64(topK),
	}, nil
}

// ChatConfig describes the turn-state policy knobs.
type ChatConfig struct {
	// MessageLimit is the number of exchanges after which generation stops.
	MessageLimit int
	// HistoryWindow is how many trailing exchanges feed the prompt.
	HistoryWindow int
	// SessionTTL is how long an idle session survives before the janitor
	// removes it. Zero disables expiry.
	SessionTTL time.Duration
}

func loadChatConfig() (ChatConfig, error) {
	limit := 10
	if override, err := parseOptionalIntEnv("CHAT_MESSAGE_LIMIT"); err != nil {
		return ChatConfig{}, err
	} else if override != nil && *override > 0 {
		limit = *override
	}

	window := 2
	if override, err := parseOptionalIntEnv("CHAT_HISTORY_WINDOW"); err != nil {
		return ChatConfig{}, err
	} else if override != nil && *override > 0 {
		window = *override
	}

	ttlMinutes := 120
	if override, err := parseOptionalIntEnv("CHAT_SESSION_TTL_MINUTES"); err != nil {
		return ChatConfig{}, err
	} else if override != nil {
		ttlMinutes = *override
	}

	return ChatConfig{
		MessageLimit:  limit,
		HistoryWindow: window,
		SessionTTL:    time.Duration(ttlMinutes) * time.Minute,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalFloat32Env(key string) (*float32, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	result := float32(val)
	return &result, nil
}
