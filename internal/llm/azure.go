package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/ai/azopenai"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
)

// AzureModel is a Completer backed by an Azure OpenAI deployment
type AzureModel struct {
	client     *azopenai.Client
	deployment string
}

// NewAzureModel creates an Azure OpenAI completer
func NewAzureModel(endpoint, apiKey, deployment string) (*AzureModel, error) {
	return newAzureModel(endpoint, apiKey, deployment, nil)
}

func newAzureModel(endpoint, apiKey, deployment string, opts *azopenai.ClientOptions) (*AzureModel, error) {
	if endpoint == "" || apiKey == "" || deployment == "" {
		return nil, fmt.Errorf("%w: azure needs AZURE_OPENAI_ENDPOINT, AZURE_OPENAI_API_KEY and AZURE_OPENAI_DEPLOYMENT_NAME", ErrMissingCredentials)
	}

	client, err := azopenai.NewClientWithKeyCredential(endpoint, azcore.NewKeyCredential(apiKey), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure OpenAI client: %w", err)
	}
	return &AzureModel{client: client, deployment: deployment}, nil
}

// Complete implements Completer
func (m *AzureModel) Complete(ctx context.Context, messages []Message, opts CallOptions) (string, error) {
	chatMessages := make([]azopenai.ChatRequestMessageClassification, len(messages))
	for i, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			chatMessages[i] = &azopenai.ChatRequestSystemMessage{
				Content: azopenai.NewChatRequestSystemMessageContent(msg.Content),
			}
		case RoleAssistant:
			chatMessages[i] = &azopenai.ChatRequestAssistantMessage{
				Content: azopenai.NewChatRequestAssistantMessageContent(msg.Content),
			}
		default:
			chatMessages[i] = &azopenai.ChatRequestUserMessage{
				Content: azopenai.NewChatRequestUserMessageContent(msg.Content),
			}
		}
	}

	req := azopenai.ChatCompletionsOptions{
		Messages:       chatMessages,
		Temperature:    to.Ptr(float32(opts.Temperature)),
		DeploymentName: to.Ptr(m.deployment),
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = to.Ptr(int32(opts.MaxTokens))
	}

	resp, err := m.client.GetChatCompletions(ctx, req, nil)
	if err != nil {
		return "", fmt.Errorf("azure completion failed: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message == nil || resp.Choices[0].Message.Content == nil {
		return "", ErrEmptyResponse
	}
	return strings.TrimSpace(*resp.Choices[0].Message.Content), nil
}
