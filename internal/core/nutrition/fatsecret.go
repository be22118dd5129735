package nutrition

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"recipe-chef/internal/infrastructure/config"
	"recipe-chef/internal/infrastructure/metrics"
	"recipe-chef/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// FatSecret 以錯誤碼 21 表示呼叫端 IP 不在允許清單
const originRejectedCode = 21

var (
	// ErrFoodNotFound 搜尋沒有任何結果
	ErrFoodNotFound = errors.New("no matching food")
	// ErrEmptyQuery 食材正規化後為空
	ErrEmptyQuery = errors.New("empty ingredient query")
	// ErrNoServing 食物明細沒有任何份量資料
	ErrNoServing = errors.New("food has no serving data")
)

// APIError FatSecret 回傳的一般錯誤
type APIError struct {
	Status  int
	Code    int
	Message string
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("fatsecret error %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("fatsecret returned status %d: %s", e.Status, e.Message)
}

// OriginRejectedError 呼叫端網路來源未被允許
type OriginRejectedError struct {
	Message string
}

func (e *OriginRejectedError) Error() string {
	return fmt.Sprintf("fatsecret rejected caller origin (code %d): %s", originRejectedCode, e.Message)
}

// Client FatSecret Platform API 客戶端
type Client struct {
	cfg    config.NutritionConfig
	http   *resty.Client
	margin time.Duration
	now    func() time.Time

	mu    sync.Mutex
	token *AuthToken
}

type tokenResponse struct {
	AccessToken string           `json:"access_token"`
	ExpiresIn   common.FlexFloat `json:"expires_in"`
	TokenType   string           `json:"token_type"`
}

type errorEnvelope struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type foodSummary struct {
	FoodID   string `json:"food_id"`
	FoodName string `json:"food_name"`
}

type searchResponse struct {
	Foods struct {
		Food         common.OneOrMany[foodSummary] `json:"food"`
		TotalResults common.FlexFloat              `json:"total_results"`
	} `json:"foods"`
}

type serving struct {
	ServingDescription string           `json:"serving_description"`
	Calories           common.FlexFloat `json:"calories"`
	Protein            common.FlexFloat `json:"protein"`
	Carbohydrate       common.FlexFloat `json:"carbohydrate"`
	Fat                common.FlexFloat `json:"fat"`
}

type detailResponse struct {
	Food struct {
		FoodID   string `json:"food_id"`
		FoodName string `json:"food_name"`
		Servings struct {
			Serving common.OneOrMany[serving] `json:"serving"`
		} `json:"servings"`
	} `json:"food"`
}

// NewClient 創建 FatSecret 客戶端，重試只針對傳輸錯誤、429 與 5xx
func NewClient(cfg config.NutritionConfig) *Client {
	httpClient := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(cfg.RetryWait).
		SetRetryMaxWaitTime(cfg.RetryMaxWait).
		SetHeader("Accept", "application/json").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
		})

	margin := cfg.ExpiryMargin
	if margin <= 0 {
		margin = DefaultExpiryMargin
	}

	return &Client{
		cfg:    cfg,
		http:   httpClient,
		margin: margin,
		now:    time.Now,
	}
}

// TokenState 目前 token 狀態（健康檢查用）
func (c *Client) TokenState() TokenState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token.State(c.now(), c.margin)
}

// Lookup 搜尋食材並回傳第一個結果第一份量的營養值
func (c *Client) Lookup(ctx context.Context, query string) (Totals, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return Totals{}, ErrEmptyQuery
	}

	foodID, err := c.searchFood(ctx, query)
	if err != nil {
		return Totals{}, err
	}
	return c.foodTotals(ctx, foodID)
}

func (c *Client) searchFood(ctx context.Context, query string) (string, error) {
	var result searchResponse
	err := c.call(ctx, map[string]string{
		"method":            "foods.search",
		"search_expression": query,
		"max_results":       fmt.Sprint(c.maxResults()),
	}, &result)
	if err != nil {
		return "", err
	}
	if len(result.Foods.Food) == 0 || result.Foods.Food[0].FoodID == "" {
		return "", ErrFoodNotFound
	}

	first := result.Foods.Food[0]
	common.LogDebug("FatSecret 搜尋命中",
		zap.String("query", query),
		zap.String("food_id", first.FoodID),
		zap.String("food_name", first.FoodName),
	)
	return first.FoodID, nil
}

func (c *Client) foodTotals(ctx context.Context, foodID string) (Totals, error) {
	var result detailResponse
	err := c.call(ctx, map[string]string{
		"method":  "food.get.v2",
		"food_id": foodID,
	}, &result)
	if err != nil {
		return Totals{}, err
	}
	if len(result.Food.Servings.Serving) == 0 {
		return Totals{}, ErrNoServing
	}

	s := result.Food.Servings.Serving[0]
	return Totals{
		Calories:     float64(s.Calories),
		Protein:      float64(s.Protein),
		Carbohydrate: float64(s.Carbohydrate),
		Fat:          float64(s.Fat),
	}, nil
}

// call 以 method 參數呼叫通用 API 端點
func (c *Client) call(ctx context.Context, form map[string]string, out interface{}) error {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return err
	}

	form["format"] = "json"
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetFormData(form).
		Post(c.cfg.APIURL)
	if err != nil {
		return fmt.Errorf("fatsecret %s request failed: %w", form["method"], err)
	}

	body := resp.Body()
	var envelope errorEnvelope
	if jsonErr := common.ParseJSONBytes(body, &envelope); jsonErr == nil && envelope.Error != nil {
		if envelope.Error.Code == originRejectedCode {
			return &OriginRejectedError{Message: envelope.Error.Message}
		}
		return &APIError{Status: resp.StatusCode(), Code: envelope.Error.Code, Message: envelope.Error.Message}
	}

	if resp.StatusCode() != http.StatusOK {
		return &APIError{Status: resp.StatusCode(), Message: common.Truncate(resp.String(), 200)}
	}

	if err := common.ParseJSONBytes(body, out); err != nil {
		return fmt.Errorf("failed to decode fatsecret %s response: %w", form["method"], err)
	}
	return nil
}

// ensureToken 狀態不是 Valid 時重新取得 token
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	state := c.token.State(c.now(), c.margin)
	if state == Valid {
		return c.token.AccessToken, nil
	}

	common.LogDebug("取得 FatSecret token", zap.String("state", state.String()))
	token, err := c.fetchToken(ctx)
	metrics.ObserveTokenAcquisition(err)
	if err != nil {
		return "", err
	}
	c.token = token
	return token.AccessToken, nil
}

func (c *Client) fetchToken(ctx context.Context) (*AuthToken, error) {
	scope := c.cfg.Scope
	if scope == "" {
		scope = "basic"
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret).
		SetFormData(map[string]string{
			"grant_type": "client_credentials",
			"scope":      scope,
		}).
		Post(c.cfg.TokenURL)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode(), Message: common.Truncate(resp.String(), 200)}
	}

	var result tokenResponse
	if err := common.ParseJSONBytes(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if result.AccessToken == "" {
		return nil, fmt.Errorf("token response has no access_token")
	}

	// 未提供 expires_in 時視為立即過期，下次呼叫會重新取得
	lifetime := time.Duration(float64(result.ExpiresIn) * float64(time.Second))
	return &AuthToken{
		AccessToken: result.AccessToken,
		ExpiresAt:   c.now().Add(lifetime),
	}, nil
}

// PublicIP 查詢本機對外 IP，用於來源被拒的診斷訊息
func (c *Client) PublicIP(ctx context.Context) (string, error) {
	timeout := c.cfg.IPLookupTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := c.http.R().
		SetContext(ctx).
		Get(c.cfg.IPLookupURL)
	if err != nil {
		return "", fmt.Errorf("public ip lookup failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("public ip lookup returned status %d", resp.StatusCode())
	}

	var result struct {
		IP string `json:"ip"`
	}
	if err := common.ParseJSONBytes(resp.Body(), &result); err == nil && result.IP != "" {
		return result.IP, nil
	}
	if ip := strings.TrimSpace(resp.String()); ip != "" && !strings.ContainsAny(ip, "{} \n") {
		return ip, nil
	}
	return "", fmt.Errorf("unexpected public ip response")
}

func (c *Client) maxResults() int {
	if c.cfg.MaxResults <= 0 {
		return 1
	}
	return c.cfg.MaxResults
}
