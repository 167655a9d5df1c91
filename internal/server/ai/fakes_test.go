package ai

import (
	"context"
	"strings"
	"sync"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// fakeChatModel records the prompts it receives and answers with reply.
type fakeChatModel struct {
	mu     sync.Mutex
	inputs [][]*schema.Message
	reply  string
	err    error
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.mu.Lock()
	f.inputs = append(f.inputs, input)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := f.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (f *fakeChatModel) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inputs)
}

func (f *fakeChatModel) last() []*schema.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inputs[len(f.inputs)-1]
}

type fakeRetriever struct {
	text    string
	err     error
	queries []string
}

func (f *fakeRetriever) RetrieveContext(_ context.Context, q string) (string, error) {
	f.queries = append(f.queries, q)
	return f.text, f.err
}

// wordEmbedder maps a text to keyword counts over a fixed vocabulary.
type wordEmbedder struct {
	vocab []string
	calls int
	err   error
}

var _ embedding.Embedder = (*wordEmbedder)(nil)

func (w *wordEmbedder) EmbedStrings(_ context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	w.calls++
	if w.err != nil {
		return nil, w.err
	}
	out := make([][]float64, len(texts))
	for i, t := range texts {
		t = strings.ToLower(t)
		v := make([]float64, len(w.vocab))
		for j, word := range w.vocab {
			v[j] = float64(strings.Count(t, word))
		}
		out[i] = v
	}
	return out, nil
}
