// Package enrich derives categorical metadata (project, theme, emotion) for
// captured ideas. Enrichment is best-effort and off the capture path: any
// failure here is logged and swallowed, never surfaced to the caller.
package enrich

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/ovaphlow/brainvault/service-idea-core/pkg/genai"
)

const (
	defaultTheme   = "general"
	defaultEmotion = "neutral"
	defaultProject = "Inbox"
)

// Result carries the three derived fields for one idea.
type Result struct {
	Project string
	Theme   string
	Emotion string
}

// themeLexicon maps lowercase surface tokens to canonical entity names, in
// categories organization / product / place / person. The first token of the
// content that hits the lexicon, in document order, becomes the theme.
var themeLexicon = map[string]string{
	// organizations
	"google": "Google", "microsoft": "Microsoft", "amazon": "Amazon",
	"apple": "Apple", "tesla": "Tesla", "openai": "OpenAI",
	"netflix": "Netflix", "spotify": "Spotify", "nasa": "NASA",
	// products
	"iphone": "iPhone", "android": "Android", "kubernetes": "Kubernetes",
	"chatgpt": "ChatGPT", "excel": "Excel", "instagram": "Instagram",
	"youtube": "YouTube", "tiktok": "TikTok",
	// places
	"europe": "Europe", "america": "America", "china": "China",
	"london": "London", "tokyo": "Tokyo", "berlin": "Berlin",
	"california": "California",
	// persons
	"einstein": "Einstein", "musk": "Musk", "jobs": "Jobs",
	"bezos": "Bezos", "gates": "Gates",
}

// projectBucket is one keyword bucket; first matching bucket wins in the
// fixed priority order of projectBuckets.
type projectBucket struct {
	label    string
	keywords []string
}

var projectBuckets = []projectBucket{
	{"Startup Ideas", []string{"startup", "business", "company", "venture", "market", "revenue", "customer"}},
	{"Blog Content", []string{"blog", "article", "post", "write", "story", "newsletter"}},
	{"Product Features", []string{"feature", "app", "product", "tool", "design", "interface", "prototype"}},
	{"Research Notes", []string{"research", "study", "learn", "paper", "experiment", "analyze"}},
}

// emotions a classifier answer is allowed to take; anything else degrades
// to the neutral default.
var knownEmotions = map[string]bool{
	"excited": true, "happy": true, "curious": true,
	"concerned": true, "frustrated": true, "neutral": true,
}

const emotionSystemPrompt = `You are a one-word emotion classifier. Reply with exactly one of:
excited, happy, curious, concerned, frustrated, neutral.`

// Analyzer derives enrichment fields from idea content. The classifier is
// optional; without one, emotion is always the neutral default. Analysis is
// deterministic given identical input and lexicon apart from the external
// classifier call.
type Analyzer struct {
	classifier genai.Generator
	logger     *zap.SugaredLogger
}

// NewAnalyzer constructs an Analyzer. classifier may be nil.
func NewAnalyzer(classifier genai.Generator, logger *zap.SugaredLogger) *Analyzer {
	return &Analyzer{classifier: classifier, logger: logger}
}

// Analyze derives project, theme, and emotion for content. It never fails:
// each field independently falls back to its default.
func (a *Analyzer) Analyze(ctx context.Context, content string) Result {
	return Result{
		Project: classifyProject(content),
		Theme:   extractTheme(content),
		Emotion: a.classifyEmotion(ctx, content),
	}
}

// extractTheme scans tokens in document order and returns the canonical name
// of the first lexicon hit, or the general default.
func extractTheme(content string) string {
	for _, tok := range strings.Fields(content) {
		word := strings.ToLower(strings.Trim(tok, ".,;:!?\"'()[]"))
		if name, ok := themeLexicon[word]; ok {
			return name
		}
	}
	return defaultTheme
}

// classifyProject buckets content by case-insensitive substring match,
// first bucket wins.
func classifyProject(content string) string {
	lower := strings.ToLower(content)
	for _, b := range projectBuckets {
		for _, kw := range b.keywords {
			if strings.Contains(lower, kw) {
				return b.label
			}
		}
	}
	return defaultProject
}

// classifyEmotion delegates to the external classifier when configured.
// Errors and unrecognized answers degrade to the neutral default.
func (a *Analyzer) classifyEmotion(ctx context.Context, content string) string {
	if a.classifier == nil {
		return defaultEmotion
	}

	out, err := a.classifier.Generate(ctx, genai.Request{
		SystemPrompt: emotionSystemPrompt,
		Prompt:       content,
		MaxTokens:    5,
		Temperature:  0,
	})
	if err != nil {
		a.logger.Debugw("emotion classifier failed", "err", err)
		return defaultEmotion
	}

	answer := strings.ToLower(strings.Trim(strings.TrimSpace(out), ".,!\"'"))
	if fields := strings.Fields(answer); len(fields) > 0 {
		answer = fields[0]
	}
	if knownEmotions[answer] {
		return answer
	}
	return defaultEmotion
}
