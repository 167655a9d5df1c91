// Package ai holds the external AI collaborators behind small interfaces:
// dream interpretation, the therapy conversation, visual prompt distillation,
// dictionary retrieval and image generation.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/oneiromind/internal/common"
)

type Interpreter interface {
	Interpret(ctx context.Context, dreamText, demographics string) (string, error)
}

type Therapist interface {
	Converse(ctx context.Context, question, history string) (string, error)
}

type VisualPrompter interface {
	DistillVisualPrompt(ctx context.Context, interpretation string) (string, error)
}

// ImageGenerator returns PNG bytes for a text prompt.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
}

// ContextRetriever returns reference passages relevant to query, joined into
// one block of text.
type ContextRetriever interface {
	RetrieveContext(ctx context.Context, query string) (string, error)
}

// Collaborators bundles the collaborators used by the conversation flow.
// Every call is bounded by Timeout and every failure wraps
// common.ErrorCollaborator.
type Collaborators struct {
	Interpreter Interpreter
	Therapist   Therapist
	Prompter    VisualPrompter
	Images      ImageGenerator
	Timeout     time.Duration
}

func (c *Collaborators) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.Timeout)
}

func (c *Collaborators) Interpret(ctx context.Context, dreamText, demographics string) (string, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()
	out, err := c.Interpreter.Interpret(ctx, dreamText, demographics)
	return out, wrap("interpret", err)
}

func (c *Collaborators) Converse(ctx context.Context, question, history string) (string, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()
	out, err := c.Therapist.Converse(ctx, question, history)
	return out, wrap("converse", err)
}

func (c *Collaborators) DistillVisualPrompt(ctx context.Context, interpretation string) (string, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()
	out, err := c.Prompter.DistillVisualPrompt(ctx, interpretation)
	return out, wrap("visual prompt", err)
}

func (c *Collaborators) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()
	out, err := c.Images.GenerateImage(ctx, prompt)
	return out, wrap("generate image", err)
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, common.ErrorCollaborator) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %w", common.ErrorCollaborator, op, err)
}

// Disabled stands in for a collaborator whose credentials are missing. Every
// call fails with common.ErrorCollaborator.
type Disabled struct {
	Reason string
}

func (d Disabled) err() error {
	return fmt.Errorf("%w: %s", common.ErrorCollaborator, d.Reason)
}

func (d Disabled) Interpret(context.Context, string, string) (string, error) { return "", d.err() }
func (d Disabled) Converse(context.Context, string, string) (string, error)  { return "", d.err() }
func (d Disabled) DistillVisualPrompt(context.Context, string) (string, error) {
	return "", d.err()
}
func (d Disabled) GenerateImage(context.Context, string) ([]byte, error) { return nil, d.err() }

// NoContext is the retriever used when no reference dictionary is available.
type NoContext struct{}

func (NoContext) RetrieveContext(context.Context, string) (string, error) { return "", nil }
