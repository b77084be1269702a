package coach

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/bridgetext/coachbot/backend/internal/config"
)

// Service generates coaching replies through an eino chain: a templated
// system prompt, the trailing history window, and the current query feed a
// hosted chat model.
type Service struct {
	chain         compose.Runnable[map[string]any, *schema.Message]
	historyWindow int
}

// NewService compiles the generation chain from the AI configuration.
func NewService(ctx context.Context, cfg config.AIConfig, historyWindow int) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	if historyWindow <= 0 {
		historyWindow = 2
	}

	return &Service{chain: runnable, historyWindow: historyWindow}, nil
}

// Generate produces one formatted coaching reply.
func (s *Service) Generate(ctx context.Context, in GenerateInput) (string, error) {
	input := map[string]any{
		"system":  buildSystemPrompt(in.Tone, in.Context),
		"history": historyMessages(in.History, s.historyWindow),
		"query":   in.Query,
	}

	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run coaching chain: %w", err)
	}

	reply := Format(strings.TrimSpace(response.Content))
	log.Printf("[coach] generated reply tone=%s length=%d", in.Tone, len(reply))
	return reply, nil
}
