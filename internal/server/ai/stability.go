package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// DefaultStabilityEndpoint is the SDXL 1.0 text-to-image endpoint.
const DefaultStabilityEndpoint = "https://api.stability.ai/v1/generation/stable-diffusion-xl-1024-v1-0/text-to-image"

// StabilityClient generates images with the Stability AI REST API.
type StabilityClient struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

func NewStabilityClient(apiKey, endpoint string, httpClient *http.Client) *StabilityClient {
	if endpoint == "" {
		endpoint = DefaultStabilityEndpoint
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &StabilityClient{apiKey: apiKey, endpoint: endpoint, httpClient: httpClient}
}

type textPrompt struct {
	Text string `json:"text"`
}

type textToImageRequest struct {
	TextPrompts []textPrompt `json:"text_prompts"`
	CfgScale    int          `json:"cfg_scale"`
	Height      int          `json:"height"`
	Width       int          `json:"width"`
	Samples     int          `json:"samples"`
	Steps       int          `json:"steps"`
}

type textToImageResponse struct {
	Artifacts []struct {
		Base64       string `json:"base64"`
		FinishReason string `json:"finishReason"`
	} `json:"artifacts"`
}

// GenerateImage returns the PNG bytes of the first artifact.
func (c *StabilityClient) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	payload, err := json.Marshal(textToImageRequest{
		TextPrompts: []textPrompt{{Text: prompt}},
		CfgScale:    7,
		Height:      1024,
		Width:       1024,
		Samples:     1,
		Steps:       30,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generate image: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stability api: %s: %s", resp.Status, truncate(string(body), 512))
	}

	var result textToImageResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if len(result.Artifacts) == 0 {
		return nil, fmt.Errorf("stability api: no artifacts")
	}

	png, err := base64.StdEncoding.DecodeString(result.Artifacts[0].Base64)
	if err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	return png, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
