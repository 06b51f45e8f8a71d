package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Draft holds LLM-suggested listing fields for a bounty.
type Draft struct {
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Skills      []string `json:"skills"`
}

// Client wraps the Anthropic API for bounty drafting.
type Client struct {
	api   *anthropic.Client
	model anthropic.Model
}

// NewClient creates an LLM client with the given API key and model.
func NewClient(apiKey, model string) *Client {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	client := anthropic.NewClient(opts...)
	return &Client{
		api:   &client,
		model: anthropic.Model(model),
	}
}

// buildDraftPrompt constructs the system and user prompts for bounty drafting.
func buildDraftPrompt(title, description string) (system string, user string) {
	system = `You draft bounty listings for a task marketplace. Given a bounty's title and optional rough description, return a JSON object with exactly three fields:

- "description": A clear 2-5 sentence description of the task an applicant would need to complete. If a description is already provided, tighten it; otherwise write one from the title.
- "category": A single short category label, lowercase (e.g. "development", "design", "writing", "research", "audit").
- "skills": An array of 2-6 short skill labels an applicant should have, most important first (e.g. ["go", "sqlite"]).

Rules:
- Return valid JSON only, no markdown fencing or explanation
- The description should be concrete enough for an applicant to scope the work
- Never invent requirements that contradict the provided text`

	var sb strings.Builder
	sb.WriteString("Bounty title: ")
	sb.WriteString(title)
	sb.WriteString("\n")
	if description != "" {
		sb.WriteString("\nRough description:\n")
		sb.WriteString(description)
		sb.WriteString("\n")
	}
	user = sb.String()
	return
}

// parseDraftResponse extracts a Draft from the model's text output, tolerating
// markdown fencing.
func parseDraftResponse(text string) (*Draft, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		lines := strings.SplitN(text, "\n", 2)
		if len(lines) > 1 {
			text = lines[1]
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	var draft Draft
	if err := json.Unmarshal([]byte(text), &draft); err != nil {
		return nil, fmt.Errorf("parse LLM response as JSON: %w\nraw response: %s", err, text)
	}
	return &draft, nil
}

// DraftBounty asks the LLM to suggest a description, category, and skills
// for a bounty given its title and a rough description.
func (c *Client) DraftBounty(ctx context.Context, title, description string) (*Draft, error) {
	systemPrompt, userPrompt := buildDraftPrompt(title, description)

	msg, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic API call: %w", err)
	}

	// Extract text from response
	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}

	if text == "" {
		return nil, fmt.Errorf("no text content in API response")
	}

	return parseDraftResponse(text)
}
