package ai

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/oneiromind/internal/logging"
	"github.com/dmitrijs2005/oneiromind/internal/server/config"
)

// Build assembles the collaborators from configuration. Missing credentials
// never fail startup: the affected collaborator is Disabled, and without a
// dictionary the chains run with no reference context.
func Build(ctx context.Context, cfg *config.Config, log logging.Logger) (*Collaborators, error) {
	c := &Collaborators{Timeout: cfg.CollaboratorTimeout}

	refs := buildRetriever(ctx, cfg, log)

	if cfg.ArkAPIKey == "" {
		log.Warn(ctx, "ark api key not set, interpretation and therapy are disabled")
		d := Disabled{Reason: "language model is not configured"}
		c.Interpreter, c.Therapist, c.Prompter = d, d, d
	} else {
		chatModel, err := NewArkChatModel(ctx, ArkConfig{
			APIKey:  cfg.ArkAPIKey,
			Model:   cfg.ArkModel,
			BaseURL: cfg.ArkBaseURL,
			Region:  cfg.ArkRegion,
		})
		if err != nil {
			return nil, err
		}
		chains, err := NewChains(ctx, chatModel, refs)
		if err != nil {
			return nil, err
		}
		c.Interpreter, c.Therapist, c.Prompter = chains, chains, chains
	}

	if cfg.StabilityAPIKey == "" {
		log.Warn(ctx, "stability api key not set, images fall back to a placeholder")
		c.Images = Disabled{Reason: "image generation is not configured"}
	} else {
		c.Images = NewStabilityClient(cfg.StabilityAPIKey, cfg.StabilityEndpoint, &http.Client{})
	}

	return c, nil
}

func buildRetriever(ctx context.Context, cfg *config.Config, log logging.Logger) ContextRetriever {
	if cfg.GoogleAPIKey == "" || cfg.DictionaryPath == "" {
		log.Warn(ctx, "dictionary retrieval disabled", "reason", "google api key or dictionary path not set")
		return NoContext{}
	}

	client, err := NewGenAIClient(ctx, cfg.GoogleAPIKey)
	if err != nil {
		log.Warn(ctx, "dictionary retrieval disabled", "error", err)
		return NoContext{}
	}

	r, err := LoadOrBuildDictionary(ctx, IndexOptions{
		SourcePath:   cfg.DictionaryPath,
		IndexDir:     cfg.IndexDir,
		Model:        cfg.EmbeddingModel,
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
		TopK:         cfg.RetrievalK,
	},
		NewGenAIEmbedder(client, cfg.EmbeddingModel, TaskRetrievalDocument),
		NewGenAIEmbedder(client, cfg.EmbeddingModel, TaskRetrievalQuery),
		log,
	)
	if err != nil {
		log.Warn(ctx, "dictionary retrieval disabled", "error", err)
		return NoContext{}
	}
	return r
}
