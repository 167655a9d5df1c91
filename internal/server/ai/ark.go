package ai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// ArkConfig selects the Volcengine Ark chat model behind the chains.
type ArkConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Region  string
}

func NewArkChatModel(ctx context.Context, cfg ArkConfig) (model.BaseChatModel, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("ark api key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("ark model is required")
	}

	m, err := ark.NewChatModel(ctx, &ark.ChatModelConfig{
		BaseURL: cfg.BaseURL,
		Region:  cfg.Region,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return m, nil
}
