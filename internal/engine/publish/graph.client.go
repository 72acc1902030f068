// Package publish đăng nội dung lên Facebook Graph API và điều phối
// toàn bộ pipeline an toàn trước mỗi lần đăng.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"

	"content_factory/internal/engine/classify"
	"content_factory/internal/logger"
)

// GraphConfig cấu hình client Graph API
type GraphConfig struct {
	BaseURL     string        // https://graph.facebook.com/v19.0
	PageID      string        // ID của page đích
	AccessToken string        // Page access token
	Timeout     time.Duration // Timeout mỗi request (30s)
	RetryMax    int           // Số lần retry transport (3)
}

// GraphClient gọi Graph API với retry có backoff và circuit breaker.
// 429 không được retry ở tầng transport, để tầng phân loại lỗi quyết định cooldown.
type GraphClient struct {
	cfg      GraphConfig
	http     *http.Client
	executor failsafe.Executor[*http.Response]
}

// graphRetryPolicy bọc DefaultRetryPolicy của retryablehttp:
// 429 trả thẳng về caller, không đốt lượt retry vào rate limit
func graphRetryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if err == nil && resp != nil && resp.StatusCode == http.StatusTooManyRequests {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// NewGraphClient tạo mới GraphClient
func NewGraphClient(cfg GraphConfig) *GraphClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryMax == 0 {
		cfg.RetryMax = 3
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Transport = cleanhttp.DefaultPooledTransport()
	retryClient.RetryMax = cfg.RetryMax
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.CheckRetry = graphRetryPolicy
	retryClient.Logger = nil

	httpClient := retryClient.StandardClient()
	httpClient.Timeout = cfg.Timeout

	// Breaker mở sau 5 lỗi trên 10 request, thử lại sau 30 giây,
	// đóng lại khi 2 request liên tiếp thành công
	breaker := circuitbreaker.NewBuilder[*http.Response]().
		WithFailureThresholdRatio(5, 10).
		WithDelay(30 * time.Second).
		WithSuccessThreshold(2).
		HandleIf(func(resp *http.Response, err error) bool {
			if err != nil {
				return true
			}
			return resp != nil && resp.StatusCode >= 500
		}).
		OnStateChanged(func(event circuitbreaker.StateChangedEvent) {
			logger.WithModule("publish").Warnf("📤 [PUBLISH] Circuit breaker chuyển %s -> %s", event.OldState, event.NewState)
		}).
		Build()

	return &GraphClient{
		cfg:      cfg,
		http:     httpClient,
		executor: failsafe.With[*http.Response](breaker),
	}
}

// graphErrorBody là cấu trúc lỗi trong body của Graph API
type graphErrorBody struct {
	Error struct {
		Message      string `json:"message"`
		Type         string `json:"type"`
		Code         int    `json:"code"`
		ErrorSubcode int    `json:"error_subcode"`
	} `json:"error"`
}

// postForm gửi POST form đến một edge của page và trả về ID object được tạo
func (c *GraphClient) postForm(ctx context.Context, edge string, form url.Values) (string, error) {
	form.Set("access_token", c.cfg.AccessToken)
	endpoint := fmt.Sprintf("%s/%s/%s", strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.PageID, edge)

	resp, err := c.executor.WithContext(ctx).Get(func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return c.http.Do(req)
	})
	if err != nil {
		return "", fmt.Errorf("graph api request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody graphErrorBody
		// Body lỗi không parse được vẫn giữ status code để phân loại
		json.Unmarshal(body, &errBody)
		return "", &classify.APIError{
			StatusCode: resp.StatusCode,
			Code:       errBody.Error.Code,
			Subcode:    errBody.Error.ErrorSubcode,
			Type:       errBody.Error.Type,
			Message:    errBody.Error.Message,
		}
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("graph api response: %w", err)
	}
	if result.ID == "" {
		return "", fmt.Errorf("graph api response missing id: %s", body)
	}
	return result.ID, nil
}

// PublishText đăng một bài text lên feed của page, trả về platform post ID
func (c *GraphClient) PublishText(ctx context.Context, message string) (string, error) {
	form := url.Values{}
	form.Set("message", message)
	return c.postForm(ctx, "feed", form)
}

// PublishReel đăng một video reel từ URL, trả về platform post ID
func (c *GraphClient) PublishReel(ctx context.Context, videoURL string, description string) (string, error) {
	form := url.Values{}
	form.Set("file_url", videoURL)
	form.Set("description", description)
	return c.postForm(ctx, "videos", form)
}
