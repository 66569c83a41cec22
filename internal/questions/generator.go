package questions

import (
	"context"
	"fmt"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/ai/azopenai"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"kitchenrush/internal/config"
)

// Generator turns a prompt into text
type Generator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Providers
const (
	ProviderOpenAI = "openai"
	ProviderGitHub = "github"
	ProviderAzure  = "azure"
)

const githubModelsURL = "https://models.inference.ai.azure.com"

// LangChainGenerator wraps any langchaingo model
type LangChainGenerator struct {
	model       llms.Model
	temperature float64
	maxTokens   int
}

// NewLangChainGenerator uses model for completions
func NewLangChainGenerator(model llms.Model) *LangChainGenerator {
	return &LangChainGenerator{model: model, temperature: 0.7, maxTokens: 2000}
}

// Complete implements Generator
func (g *LangChainGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	text, err := llms.GenerateFromSinglePrompt(ctx, g.model, prompt,
		llms.WithTemperature(g.temperature),
		llms.WithMaxTokens(g.maxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate completion: %w", err)
	}
	return text, nil
}

// AzureGenerator calls an Azure OpenAI deployment
type AzureGenerator struct {
	client         *azopenai.Client
	deploymentName string
	temperature    float32
	maxTokens      int32
}

// NewAzureGenerator connects to an Azure OpenAI endpoint
func NewAzureGenerator(endpoint, apiKey, deploymentName string) (*AzureGenerator, error) {
	if endpoint == "" || apiKey == "" || deploymentName == "" {
		return nil, fmt.Errorf("azure openai needs an endpoint, an api key and a deployment name")
	}
	client, err := azopenai.NewClientWithKeyCredential(endpoint, azcore.NewKeyCredential(apiKey), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure OpenAI client: %w", err)
	}
	return &AzureGenerator{
		client:         client,
		deploymentName: deploymentName,
		temperature:    0.7,
		maxTokens:      2000,
	}, nil
}

// Complete implements Generator
func (g *AzureGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.GetChatCompletions(ctx, azopenai.ChatCompletionsOptions{
		Messages: []azopenai.ChatRequestMessageClassification{
			&azopenai.ChatRequestUserMessage{
				Content: azopenai.NewChatRequestUserMessageContent(prompt),
			},
		},
		MaxTokens:      to.Ptr(g.maxTokens),
		Temperature:    to.Ptr(g.temperature),
		DeploymentName: to.Ptr(g.deploymentName),
	}, nil)
	if err != nil {
		return "", fmt.Errorf("azure openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message == nil || resp.Choices[0].Message.Content == nil {
		return "", fmt.Errorf("empty response from Azure OpenAI")
	}
	return *resp.Choices[0].Message.Content, nil
}

// NewGenerator builds the generator named by the questions config
func NewGenerator(cfg config.QuestionsConfig) (Generator, error) {
	apiKey := os.Getenv(cfg.APIKeyEnv)
	switch cfg.Provider {
	case ProviderAzure:
		return NewAzureGenerator(cfg.Endpoint, apiKey, cfg.Deployment)
	case ProviderOpenAI, ProviderGitHub, "":
		if apiKey == "" {
			return nil, fmt.Errorf("%s environment variable is required for provider %q", cfg.APIKeyEnv, cfg.Provider)
		}
		opts := []openai.Option{
			openai.WithToken(apiKey),
			openai.WithModel(cfg.Model),
		}
		baseURL := cfg.Endpoint
		if cfg.Provider == ProviderGitHub && baseURL == "" {
			baseURL = githubModelsURL
		}
		if baseURL != "" {
			opts = append(opts, openai.WithBaseURL(baseURL))
		}
		llm, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OpenAI client: %w", err)
		}
		return NewLangChainGenerator(llm), nil
	default:
		return nil, fmt.Errorf("unknown question provider: %s", cfg.Provider)
	}
}
