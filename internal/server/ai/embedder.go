package ai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/embedding"
	"google.golang.org/genai"
)

// Gemini task types for embeddings.
const (
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
)

// embedBatchSize is the most texts sent in one EmbedContent call.
const embedBatchSize = 100

// GenAIEmbedder implements eino's embedding.Embedder on the Gemini API.
type GenAIEmbedder struct {
	client   *genai.Client
	model    string
	taskType string
}

var _ embedding.Embedder = (*GenAIEmbedder)(nil)

func NewGenAIClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("google api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return client, nil
}

func NewGenAIEmbedder(client *genai.Client, model, taskType string) *GenAIEmbedder {
	return &GenAIEmbedder{client: client, model: model, taskType: taskType}
}

// EmbedStrings embeds texts in batches and returns one vector per text, in
// order.
func (e *GenAIEmbedder) EmbedStrings(ctx context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	out := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += embedBatchSize {
		end := min(start+embedBatchSize, len(texts))

		contents := make([]*genai.Content, 0, end-start)
		for _, t := range texts[start:end] {
			contents = append(contents, genai.NewContentFromText(t, genai.RoleUser))
		}

		result, err := e.client.Models.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{
			TaskType: e.taskType,
		})
		if err != nil {
			return nil, fmt.Errorf("GenAI embed failed: %w", err)
		}
		if len(result.Embeddings) != end-start {
			return nil, fmt.Errorf("GenAI embed returned %d vectors for %d texts", len(result.Embeddings), end-start)
		}

		for _, emb := range result.Embeddings {
			v := make([]float64, len(emb.Values))
			for i, x := range emb.Values {
				v[i] = float64(x)
			}
			out = append(out, v)
		}
	}
	return out, nil
}
