package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lingualab/curator/internal/service"
)

// TransformerClient is an HTTP client for the content transformation
// service. It satisfies service.Transformer.
type TransformerClient struct {
	baseURL    string
	httpClient *http.Client
}

var _ service.Transformer = (*TransformerClient)(nil)

func NewTransformerClient(baseURL string, timeout time.Duration) *TransformerClient {
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &TransformerClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type transformRequest struct {
	SubjectType  string `json:"subjectType"`
	SubjectID    string `json:"subjectId"`
	Language     string `json:"language"`
	Level        string `json:"level"`
	SourceText   string `json:"sourceText"`
	Feedback     string `json:"feedback,omitempty"`
	SuggestedFix string `json:"suggestedFix,omitempty"`
}

type transformResponse struct {
	Success   bool           `json:"success"`
	Content   map[string]any `json:"content"`
	TokensIn  int            `json:"tokensIn"`
	TokensOut int            `json:"tokensOut"`
	CostUsd   float64        `json:"costUsd"`
	Error     string         `json:"error,omitempty"`
}

func (c *TransformerClient) Transform(ctx context.Context, req service.TransformRequest) (*service.TransformResult, error) {
	url := fmt.Sprintf("%s/api/v1/transform", c.baseURL)

	body, err := json.Marshal(transformRequest{
		SubjectType:  req.SubjectType,
		SubjectID:    req.SubjectID,
		Language:     req.Language,
		Level:        req.Level,
		SourceText:   req.SourceText,
		Feedback:     req.Feedback,
		SuggestedFix: req.SuggestedFix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call transformer service: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transformer service returned %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed transformResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if !parsed.Success {
		return nil, fmt.Errorf("transformation failed: %s", parsed.Error)
	}

	return &service.TransformResult{
		Parsed:    parsed.Content,
		TokensIn:  parsed.TokensIn,
		TokensOut: parsed.TokensOut,
		CostUsd:   parsed.CostUsd,
		Duration:  time.Since(started),
	}, nil
}
