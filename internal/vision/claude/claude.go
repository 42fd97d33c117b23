package claude

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/liushuangls/go-anthropic/v2"
	"github.com/vbonduro/shelfmap/internal/vision"
)

// maxTokens leaves room for a one-line phrase plus any preamble the model adds.
const maxTokens = 128

type ClaudeDescriber struct {
	client *anthropic.Client
	model  string
}

var _ vision.Describer = (*ClaudeDescriber)(nil)

func NewClaudeDescriber(apiKey, model string, opts ...anthropic.ClientOption) *ClaudeDescriber {
	return &ClaudeDescriber{
		client: anthropic.NewClient(apiKey, opts...),
		model:  model,
	}
}

func (d *ClaudeDescriber) Describe(ctx context.Context, r io.Reader, mimeType string) (string, error) {
	imageData, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}

	resp, err := d.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(d.model),
		MaxTokens: maxTokens,
		Messages: []anthropic.Message{{
			Role: anthropic.RoleUser,
			Content: []anthropic.MessageContent{
				anthropic.NewImageMessageContent(anthropic.NewMessageContentSource(
					anthropic.MessagesContentSourceTypeBase64,
					normaliseMIME(mimeType),
					base64.StdEncoding.EncodeToString(imageData),
				)),
				anthropic.NewTextMessageContent(vision.DescriptionPrompt),
			},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to call claude: %w", err)
	}

	for _, content := range resp.Content {
		if content.Type == anthropic.MessagesContentTypeText {
			if desc := vision.CleanDescription(content.GetText()); desc != "" {
				return desc, nil
			}
		}
	}
	return "", fmt.Errorf("claude returned no description")
}

// normaliseMIME maps MIME types to the values the Anthropic API accepts.
// Unknown types are coerced to jpeg.
func normaliseMIME(mimeType string) string {
	switch mimeType {
	case "image/png", "image/gif", "image/webp":
		return mimeType
	default:
		return "image/jpeg"
	}
}
