// Package llm classifies conversations with an OpenAI-compatible chat
// completions endpoint.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bnema/finagents/internal/adapters/upstream"
	"github.com/bnema/finagents/internal/domain"
	"github.com/bnema/finagents/internal/ports"
)

const (
	DefaultBaseURL = "https://api.cohere.com/compatibility/v1"
	DefaultModel   = "command-r-plus"
)

var ErrEmptyCompletion = errors.New("completion has no content")

type Classifier struct {
	Client  *upstream.Client
	BaseURL string
	Model   string
	APIKey  string
}

var _ ports.Classifier = Classifier{}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func (c Classifier) Classify(ctx context.Context, systemPrompt string, conversation []domain.Message) (string, error) {
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	endpoint, err := upstream.JoinURL(base, "/chat/completions")
	if err != nil {
		return "", err
	}

	model := c.Model
	if model == "" {
		model = DefaultModel
	}

	request := chatRequest{
		Model:          model,
		Messages:       buildMessages(systemPrompt, conversation),
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	header := http.Header{}
	if c.APIKey != "" {
		header.Set("Authorization", "Bearer "+c.APIKey)
	}

	var response chatResponse
	if err := c.client().Do(ctx, upstream.Request{
		Method: http.MethodPost,
		URL:    endpoint,
		Header: header,
		Body:   request,
	}, &response); err != nil {
		return "", fmt.Errorf("classify conversation: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("classify conversation: %w", ErrEmptyCompletion)
	}

	content := strings.TrimSpace(response.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("classify conversation: %w", ErrEmptyCompletion)
	}
	return content, nil
}

// Worker output is replayed as assistant turns tagged with the worker name so
// the model can see which step already ran.
func buildMessages(systemPrompt string, conversation []domain.Message) []chatMessage {
	messages := make([]chatMessage, 0, len(conversation)+1)
	if systemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	}

	for _, message := range conversation {
		content := message.Content.String()
		if message.Content.IsStructured() && message.Content.Attachment.Caption != "" {
			content = message.Content.Attachment.Caption + " (" + content + ")"
		}

		switch roleOf(message) {
		case domain.RoleUser:
			messages = append(messages, chatMessage{Role: "user", Content: content})
		case domain.RoleSystem:
			messages = append(messages, chatMessage{Role: "system", Content: content})
		default:
			messages = append(messages, chatMessage{
				Role:    "assistant",
				Content: fmt.Sprintf("[%s] %s", message.Sender, content),
			})
		}
	}

	return messages
}

// roleOf falls back to the sender for messages built without a role.
func roleOf(message domain.Message) domain.Role {
	if message.Role != "" {
		return message.Role
	}
	switch message.Sender {
	case domain.SenderUser:
		return domain.RoleUser
	case domain.SenderSystem:
		return domain.RoleSystem
	default:
		return domain.RoleAssistant
	}
}

func (c Classifier) client() *upstream.Client {
	if c.Client != nil {
		return c.Client
	}
	return &upstream.Client{}
}
