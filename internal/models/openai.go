package models

import (
	"context"
	"net/http"
	"time"

	einoopenai "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"github.com/dohr-michael/jarvis/internal/config"
)

// NewOpenAI creates a new OpenAI ChatModel.
func NewOpenAI(ctx context.Context, cfg config.ProviderConfig, auth ResolvedAuth) (model.ToolCallingChatModel, error) {
	modelConfig := &einoopenai.ChatModelConfig{
		APIKey: auth.Value,
		Model:  cfg.Model,
	}

	if cfg.BaseURL != "" {
		modelConfig.BaseURL = cfg.BaseURL
	}

	if cfg.MaxTokens > 0 {
		maxTokens := cfg.MaxTokens
		modelConfig.MaxCompletionTokens = &maxTokens
	}

	if cfg.Timeout.Duration() > 0 {
		modelConfig.Timeout = cfg.Timeout.Duration()
	} else {
		modelConfig.Timeout = 60 * time.Second
	}

	if cfg.Options != nil {
		if temp, ok := cfg.Options["temperature"].(float64); ok {
			t := float32(temp)
			modelConfig.Temperature = &t
		}
	}

	// The organization header is not part of the component config, so it is
	// injected at the transport level.
	if cfg.OrgID != "" {
		modelConfig.HTTPClient = &http.Client{
			Timeout: modelConfig.Timeout,
			Transport: &orgTransport{
				inner: http.DefaultTransport,
				orgID: cfg.OrgID,
			},
		}
	}

	return einoopenai.NewChatModel(ctx, modelConfig)
}

// orgTransport adds the OpenAI-Organization header to every request.
type orgTransport struct {
	inner http.RoundTripper
	orgID string
}

func (t *orgTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("OpenAI-Organization", t.orgID)
	return t.inner.RoundTrip(req)
}
