package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

type runnable = compose.Runnable[map[string]any, *schema.Message]

// Chains implements Interpreter, Therapist and VisualPrompter as eino
// template-to-model chains over one chat model.
type Chains struct {
	retriever ContextRetriever
	interpret runnable
	therapy   runnable
	visual    runnable
}

// NewChains compiles the three chains. A nil retriever means no reference
// context.
func NewChains(ctx context.Context, chatModel model.BaseChatModel, retriever ContextRetriever) (*Chains, error) {
	if retriever == nil {
		retriever = NoContext{}
	}

	interpret, err := compileChain(ctx, chatModel,
		schema.SystemMessage(interpretSystem),
		schema.UserMessage(interpretUser),
	)
	if err != nil {
		return nil, fmt.Errorf("interpretation chain: %w", err)
	}
	therapy, err := compileChain(ctx, chatModel,
		schema.SystemMessage(therapySystem),
		schema.UserMessage(therapyUser),
	)
	if err != nil {
		return nil, fmt.Errorf("therapy chain: %w", err)
	}
	visual, err := compileChain(ctx, chatModel, schema.UserMessage(visualPromptUser))
	if err != nil {
		return nil, fmt.Errorf("visual prompt chain: %w", err)
	}

	return &Chains{retriever: retriever, interpret: interpret, therapy: therapy, visual: visual}, nil
}

func compileChain(ctx context.Context, chatModel model.BaseChatModel, msgs ...schema.MessagesTemplate) (runnable, error) {
	tpl := prompt.FromMessages(schema.FString, msgs...)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(tpl)
	chain.AppendChatModel(chatModel)

	return chain.Compile(ctx)
}

func (c *Chains) Interpret(ctx context.Context, dreamText, demographics string) (string, error) {
	refs, err := c.retriever.RetrieveContext(ctx, dreamText)
	if err != nil {
		return "", fmt.Errorf("retrieve context: %w", err)
	}
	return invoke(ctx, c.interpret, map[string]any{
		"dream_text":   dreamText,
		"demographics": demographics,
		"context":      refs,
	})
}

func (c *Chains) Converse(ctx context.Context, question, history string) (string, error) {
	refs, err := c.retriever.RetrieveContext(ctx, question)
	if err != nil {
		return "", fmt.Errorf("retrieve context: %w", err)
	}
	return invoke(ctx, c.therapy, map[string]any{
		"question": question,
		"history":  history,
		"context":  refs,
	})
}

func (c *Chains) DistillVisualPrompt(ctx context.Context, interpretation string) (string, error) {
	return invoke(ctx, c.visual, map[string]any{"interpretation": interpretation})
}

func invoke(ctx context.Context, r runnable, input map[string]any) (string, error) {
	out, err := r.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("run chain: %w", err)
	}
	text := strings.TrimSpace(out.Content)
	if text == "" {
		return "", fmt.Errorf("empty model response")
	}
	return text, nil
}
