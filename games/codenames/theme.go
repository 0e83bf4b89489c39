package codenames

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"golang.org/x/text/cases"
)

// ThemeGenerator produces up to n short words related to a theme.
type ThemeGenerator interface {
	Generate(ctx context.Context, theme string, n int) ([]string, error)
}

const themeAttempts = 3

// OpenAIThemeGenerator asks an OpenAI-compatible chat completions endpoint for
// theme words.
type OpenAIThemeGenerator struct {
	client openai.Client
	model  string
}

func NewOpenAIThemeGenerator(baseURL, apiKey, model string) *OpenAIThemeGenerator {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(1),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIThemeGenerator{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

var errNoWords = errors.New("no words generated")

// Generate requests words in batches until n distinct words are collected or
// the attempts run out.
func (g *OpenAIThemeGenerator) Generate(ctx context.Context, theme string, n int) ([]string, error) {
	var (
		words   []string
		lastErr error
	)

	for attempt := 0; attempt < themeAttempts && len(words) < n; attempt++ {
		batch, err := g.batch(ctx, theme, n-len(words), words)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}
		words = dedupeWords(append(words, batch...))
	}

	if len(words) == 0 {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, errNoWords
	}
	if len(words) > n {
		words = words[:n]
	}
	return words, nil
}

func (g *OpenAIThemeGenerator) batch(ctx context.Context, theme string, n int, exclude []string) ([]string, error) {
	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Generate %d different words for a Codenames game on the theme %q.\n", n, theme)
	if len(exclude) > 0 {
		fmt.Fprintf(&prompt, "Do not repeat any of these words: %s.\n", strings.Join(exclude, ", "))
	}
	fmt.Fprintf(&prompt, "Each word must be 1 to %d characters long. ", MaxWordLength)
	prompt.WriteString("Reply with a JSON array of strings and nothing else.")

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt.String()),
		},
		Temperature: openai.Float(0.8),
		MaxTokens:   openai.Int(800),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errNoWords
	}

	choice := resp.Choices[0]
	if choice.FinishReason == "content_filter" {
		return nil, nil
	}
	return parseWords(choice.Message.Content), nil
}

var (
	jsonArrayPattern = regexp.MustCompile(`(?s)\[.*?\]`)
	numberingPattern = regexp.MustCompile(`^\d+[.)、\s]+`)
)

// parseWords extracts words from a model reply: a JSON array, a JSON array
// embedded in prose, or one word per line or comma.
func parseWords(content string) []string {
	content = strings.TrimSpace(content)

	var words []string
	if err := json.Unmarshal([]byte(content), &words); err == nil {
		return dedupeWords(words)
	}
	if match := jsonArrayPattern.FindString(content); match != "" {
		if err := json.Unmarshal([]byte(match), &words); err == nil {
			return dedupeWords(words)
		}
	}

	words = nil
	fields := strings.FieldsFunc(content, func(r rune) bool {
		return r == '\n' || r == ',' || r == '，'
	})
	for _, f := range fields {
		f = numberingPattern.ReplaceAllString(strings.TrimSpace(f), "")
		f = strings.Trim(f, `"'`)
		f = strings.TrimSpace(f)
		if f != "" && utf8.RuneCountInString(f) <= MaxWordLength {
			words = append(words, f)
		}
	}
	return dedupeWords(words)
}

// filterGeneratedWords drops generated entries that could not be shown on a card.
func filterGeneratedWords(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range dedupeWords(words) {
		if utf8.RuneCountInString(w) <= MaxWordLength {
			out = append(out, w)
		}
	}
	return out
}

var sensitivePatterns = []string{
	"porn", "sex", "nude", "naked", "nsfw",
	"gore", "violence", "murder", "suicide",
	"drug", "cocaine", "heroin", "gambling",
	"terror", "bomb", "explosive", "weapon",
	"cult", "nazi", "racist",
}

// containsSensitiveContent reports whether a theme matches the blocked terms,
// ignoring case.
func containsSensitiveContent(theme string) bool {
	folded := cases.Fold().String(theme)
	for _, pattern := range sensitivePatterns {
		if strings.Contains(folded, pattern) {
			return true
		}
	}
	return false
}
