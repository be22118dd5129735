package huggingface

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"recipe-chef/internal/core/ai/provider"
	"recipe-chef/internal/infrastructure/metrics"
	"recipe-chef/internal/pkg/common"

	"github.com/go-resty/resty/v2"
)

// ErrEmptyOutput 模型回應中沒有任何內容
var ErrEmptyOutput = errors.New("model returned no output")

// APIError 推論端點回傳的錯誤
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("inference API returned status %d: %s", e.Status, e.Message)
}

// Client Hugging Face 推論 API 客戶端
type Client struct {
	client *resty.Client
}

// inferenceRequest 推論請求
type inferenceRequest struct {
	Inputs     string      `json:"inputs"`
	Parameters interface{} `json:"parameters,omitempty"`
	Options    options     `json:"options"`
}

type options struct {
	WaitForModel bool `json:"wait_for_model"`
	UseCache     bool `json:"use_cache"`
}

type errorResponse struct {
	Error         string  `json:"error"`
	EstimatedTime float64 `json:"estimated_time"`
}

// NewClient 創建推論客戶端；模型載入中（503）與 429 會重試
func NewClient(cfg provider.Config) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(time.Second).
		SetRetryMaxWaitTime(10*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
		})

	if cfg.APIToken != "" {
		client.SetAuthToken(cfg.APIToken)
	}

	return &Client{client: client}
}

// infer 呼叫 /models/{model} 並解析回應
func (c *Client) infer(ctx context.Context, model string, req inferenceRequest, out interface{}) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		Post("/models/" + model)
	if err != nil {
		return fmt.Errorf("failed to send request to inference API: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		var apiErr errorResponse
		if jsonErr := common.ParseJSONBytes(resp.Body(), &apiErr); jsonErr == nil && apiErr.Error != "" {
			return &APIError{Status: resp.StatusCode(), Message: apiErr.Error}
		}
		return &APIError{Status: resp.StatusCode(), Message: common.Truncate(resp.String(), 200)}
	}

	if err := common.ParseJSONBytes(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to parse inference response: %w", err)
	}
	return nil
}

// TextGenerator 以 text2text-generation 模型生成文字
type TextGenerator struct {
	client *Client
	model  string
}

// NewTextGenerator 創建文字生成器
func NewTextGenerator(client *Client, model string) *TextGenerator {
	return &TextGenerator{client: client, model: model}
}

// Generate 實作 provider.Generator
func (g *TextGenerator) Generate(ctx context.Context, prompt string, params provider.GenerationParams) (string, error) {
	start := time.Now()
	text, err := g.generate(ctx, prompt, params)
	metrics.ObserveModelRequest("generation", time.Since(start), err)
	common.LogModelCall("generation", g.model, time.Since(start), err)
	return text, err
}

func (g *TextGenerator) generate(ctx context.Context, prompt string, params provider.GenerationParams) (string, error) {
	var result []struct {
		GeneratedText string `json:"generated_text"`
	}
	// 取樣生成時停用端點快取，否則相同 prompt 永遠得到同一份食譜
	err := g.client.infer(ctx, g.model, inferenceRequest{
		Inputs:     prompt,
		Parameters: params,
		Options:    options{WaitForModel: true, UseCache: !params.DoSample},
	}, &result)
	if err != nil {
		return "", err
	}

	if len(result) == 0 || strings.TrimSpace(result[0].GeneratedText) == "" {
		return "", ErrEmptyOutput
	}
	return result[0].GeneratedText, nil
}

// TextClassifier 以 text-classification 模型分類文字
type TextClassifier struct {
	client *Client
	model  string
}

// NewTextClassifier 創建文字分類器
func NewTextClassifier(client *Client, model string) *TextClassifier {
	return &TextClassifier{client: client, model: model}
}

// Classify 實作 provider.Classifier
func (c *TextClassifier) Classify(ctx context.Context, text string) ([]provider.Label, error) {
	start := time.Now()
	labels, err := c.classify(ctx, text)
	metrics.ObserveModelRequest("classification", time.Since(start), err)
	common.LogModelCall("classification", c.model, time.Since(start), err)
	return labels, err
}

func (c *TextClassifier) classify(ctx context.Context, text string) ([]provider.Label, error) {
	var raw labelList
	err := c.client.infer(ctx, c.model, inferenceRequest{
		Inputs:  text,
		Options: options{WaitForModel: true, UseCache: true},
	}, &raw)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, ErrEmptyOutput
	}

	labels := []provider.Label(raw)
	sort.SliceStable(labels, func(i, j int) bool {
		return labels[i].Score > labels[j].Score
	})
	return labels, nil
}

// labelList 接受 [[{label,score}]] 或 [{label,score}] 兩種回應
type labelList []provider.Label

// UnmarshalJSON 實現 json.Unmarshaler
func (l *labelList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 1 && trimmed[0] == '[' && bytes.HasPrefix(bytes.TrimSpace(trimmed[1:]), []byte("[")) {
		var nested [][]provider.Label
		if err := common.ParseJSONBytes(trimmed, &nested); err != nil {
			return err
		}
		if len(nested) == 0 {
			*l = nil
			return nil
		}
		*l = nested[0]
		return nil
	}

	var flat []provider.Label
	if err := common.ParseJSONBytes(trimmed, &flat); err != nil {
		return err
	}
	*l = flat
	return nil
}
