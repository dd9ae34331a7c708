package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"qdrt_backend/internal/config"
	"qdrt_backend/internal/util"
	"strings"
	"sync"
	"time"
)

// maxResponseSize caps how much of a completion body is read.
const maxResponseSize = 10 * 1024 * 1024

// maxErrorBody caps the response text carried in an AIStatusError.
const maxErrorBody = 200

// AIService talks to an OpenAI-compatible chat completion endpoint.
type AIService struct {
	mu     sync.RWMutex
	config config.AIConfig
	client *http.Client
}

func NewAIService(cfg config.AIConfig) *AIService {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 180 * time.Second
	}
	return &AIService{
		config: cfg,
		client: &http.Client{Timeout: timeout},
	}
}

type AIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionRequest struct {
	Model       string          `json:"model"`
	Temperature float64         `json:"temperature"`
	Messages    []AIChatMessage `json:"messages"`
}

type ChatCompletionResponse struct {
	Choices []struct {
		Message AIChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// UpdateConfig swaps endpoint, key and model, e.g. after a config file reload.
func (s *AIService) UpdateConfig(cfg config.AIConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = cfg
}

// Configured reports whether an API key is available.
func (s *AIService) Configured() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return strings.TrimSpace(s.config.APIKey) != ""
}

func (s *AIService) Model() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config.Model
}

// Complete sends one chat completion request and returns the first choice's content.
func (s *AIService) Complete(ctx context.Context, messages []AIChatMessage, temperature float64) (string, error) {
	s.mu.RLock()
	cfg := s.config
	s.mu.RUnlock()

	if strings.TrimSpace(cfg.APIKey) == "" {
		return "", util.ErrAIKeyMissing
	}

	reqBody := ChatCompletionRequest{
		Model:       cfg.Model,
		Temperature: temperature,
		Messages:    messages,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("AI request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("read AI response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text := string(body)
		if len(text) > maxErrorBody {
			text = text[:maxErrorBody] + "..."
		}
		return "", &AIStatusError{StatusCode: resp.StatusCode, Body: text}
	}

	var result ChatCompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("decode AI response: %w", err)
	}

	if result.Error != nil && result.Error.Message != "" {
		return "", fmt.Errorf("AI API error: %s", result.Error.Message)
	}

	if len(result.Choices) > 0 {
		return result.Choices[0].Message.Content, nil
	}

	return "", fmt.Errorf("AI returned no choices")
}
