// Package transform produces AI-generated derivative text (content, ip,
// tasks) from an idea's content. The external generation capability is
// strictly optional: every kind has a deterministic local fallback, so a
// transform only fails when the idea itself cannot be loaded.
package transform

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/brainvault/service-idea-core/internal/idea"
	"github.com/ovaphlow/brainvault/service-idea-core/internal/idea/entity"
	"github.com/ovaphlow/brainvault/service-idea-core/pkg/genai"
)

// ErrInvalidOutputType rejects kinds outside the closed set before any
// external call is attempted.
var ErrInvalidOutputType = errors.New("invalid output type")

const (
	OutputContent = "content"
	OutputIP      = "ip"
	OutputTasks   = "tasks"
)

const (
	systemPrompt = "You are an AI assistant that helps transform ideas into actionable content."

	generateTimeout = 30 * time.Second
	maxTokens       = 1000
	temperature     = 0.7
)

// Result is the transformation outcome returned to the caller and persisted
// on the idea.
type Result struct {
	TransformedContent string `json:"transformed_content"`
	IdeaID             int64  `json:"idea_id"`
	OutputType         string `json:"output_type"`
}

// Service orchestrates transform runs against the idea store and the
// generation provider chain.
type Service struct {
	ideas      *idea.Service
	generators []genai.Generator
	logger     *zap.SugaredLogger
}

// NewService constructs a Service. generators is the priority-ordered
// provider chain; empty means local fallback only.
func NewService(ideas *idea.Service, generators []genai.Generator, logger *zap.SugaredLogger) *Service {
	return &Service{ideas: ideas, generators: generators, logger: logger}
}

// Transform loads the owner-scoped idea, generates the derivative text, and
// persists it into transformed_output (overwriting any previous run).
func (s *Service) Transform(ctx context.Context, userID string, ideaID int64, outputType string) (*Result, error) {
	if !validOutputType(outputType) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOutputType, outputType)
	}

	i, err := s.ideas.Get(ctx, userID, ideaID)
	if err != nil {
		return nil, err
	}

	out := s.generate(ctx, outputType, i.Content)

	if _, err := s.ideas.Update(ctx, userID, ideaID, entity.Patch{TransformedOutput: &out}); err != nil {
		return nil, fmt.Errorf("persist transformed output: %w", err)
	}

	return &Result{TransformedContent: out, IdeaID: ideaID, OutputType: outputType}, nil
}

// generate invokes the first configured provider; on any failure or empty
// response it falls through to the deterministic local template.
func (s *Service) generate(ctx context.Context, outputType, content string) string {
	if len(s.generators) == 0 {
		return fallbackFor(outputType)
	}

	g := s.generators[0]
	gctx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	out, err := g.Generate(gctx, genai.Request{
		SystemPrompt: systemPrompt,
		Prompt:       promptFor(outputType, content),
		MaxTokens:    maxTokens,
		Temperature:  temperature,
	})
	if err != nil || out == "" {
		s.logger.Warnw("generation failed, using local fallback", "provider", g.Name(), "err", err)
		return fallbackFor(outputType)
	}
	return out
}

func validOutputType(t string) bool {
	switch t {
	case OutputContent, OutputIP, OutputTasks:
		return true
	}
	return false
}

// promptFor builds the kind-specific instruction embedding the idea content
// verbatim.
func promptFor(outputType, content string) string {
	switch outputType {
	case OutputContent:
		return fmt.Sprintf(`Transform this idea into engaging content:

Original idea: %s

Please create compelling content that expands on this idea, making it more detailed and engaging for readers.`, content)
	case OutputIP:
		return fmt.Sprintf(`Transform this idea into intellectual property content:

Original idea: %s

Please create detailed intellectual property content including:
- Patentable concepts
- Copyrightable material
- Trademark considerations
- Trade secret elements`, content)
	default: // tasks
		return fmt.Sprintf(`Transform this idea into actionable tasks:

Original idea: %s

Please break down this idea into specific, actionable tasks that can be executed to bring this idea to life.
Include timelines, priorities, and resource requirements.`, content)
	}
}

// fallbackFor returns the fixed per-kind boilerplate used when no provider
// is configured or the call fails.
func fallbackFor(outputType string) string {
	switch outputType {
	case OutputContent:
		return "This is a generated content based on your idea. In a production environment, this would be enhanced by AI-powered content generation."
	case OutputIP:
		return "Intellectual Property Analysis:\n- Patent considerations\n- Copyright elements\n- Trademark opportunities\n- Trade secret aspects"
	default: // tasks
		return "Actionable Tasks:\n1. Research and validate the idea\n2. Create a detailed plan\n3. Identify required resources\n4. Set milestones and timelines"
	}
}
