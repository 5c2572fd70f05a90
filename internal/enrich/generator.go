// Package enrich generates visitor-facing neighborhood descriptions with
// Claude.
package enrich

import (
	"context"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/tripheatmap/neighborhood-cli/internal/model"
	"github.com/tripheatmap/neighborhood-cli/internal/store"
)

const systemPrompt = "You are an expert travel writer who creates practical, " +
	"engaging content for travelers. You focus on actionable information and " +
	"authentic insights."

// Messenger is the slice of the Anthropic SDK the generator uses.
type Messenger interface {
	New(ctx context.Context, params sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// Generator writes a short description for each neighborhood that lacks one.
type Generator struct {
	store     store.Store
	messages  Messenger
	model     string
	maxTokens int64
	log       *zap.Logger
}

// NewGenerator creates a generator backed by the official SDK.
func NewGenerator(st store.Store, apiKey, modelName string, maxTokens int64) *Generator {
	client := sdk.NewClient(option.WithAPIKey(apiKey))
	return newGenerator(st, &client.Messages, modelName, maxTokens)
}

func newGenerator(st store.Store, messages Messenger, modelName string, maxTokens int64) *Generator {
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &Generator{
		store:     st,
		messages:  messages,
		model:     modelName,
		maxTokens: maxTokens,
		log:       zap.L().With(zap.String("component", "enrich.generator")),
	}
}

// EnrichCity generates and stores descriptions for every neighborhood in the
// city missing one. Failures are logged and skipped; the run continues.
func (g *Generator) EnrichCity(ctx context.Context, city string) (int, error) {
	missing, err := g.store.ListMissingDescription(ctx, city)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, n := range missing {
		description, err := g.generate(ctx, n)
		if err != nil {
			g.log.Warn("description generation failed",
				zap.String("neighborhood", n.Name),
				zap.Error(err))
			continue
		}
		if err := g.store.UpdateDescription(ctx, n.ID, description); err != nil {
			return updated, err
		}
		updated++
	}

	g.log.Info("descriptions generated",
		zap.String("city", city),
		zap.Int("missing", len(missing)),
		zap.Int("updated", updated))
	return updated, nil
}

func (g *Generator) generate(ctx context.Context, n model.Neighborhood) (string, error) {
	msg, err := g.messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(g.model),
		MaxTokens: g.maxTokens,
		System: []sdk.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(buildPrompt(n))),
		},
	})
	if err != nil {
		return "", eris.Wrapf(err, "enrich: generate for %s", n.Name)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	description := strings.TrimSpace(b.String())
	if description == "" {
		return "", eris.Errorf("enrich: empty response for %s", n.Name)
	}
	return description, nil
}

func buildPrompt(n model.Neighborhood) string {
	location := n.Name
	if n.City != "" {
		location += ", " + titleWords(n.City)
	}
	if n.State != "" {
		location += ", " + n.State
	}

	return fmt.Sprintf(`Write a compelling 2-3 sentence description of the %s neighborhood for travelers deciding where to stay.

NEIGHBORHOOD: %s
AREA: %.2f km2

Focus on what makes it appealing for visitors. Use active, engaging language. Return only the description text, no preamble.`,
		n.Name, location, n.AreaSqKm)
}

func titleWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
