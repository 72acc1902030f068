// Package classify - Test phân loại lỗi theo APIError có cấu trúc và theo pattern.
package classify

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassify_StructuredAPIError(t *testing.T) {
	cases := []struct {
		name string
		err  *APIError
		want string
	}{
		{"status 429", &APIError{StatusCode: 429, Message: "slow down"}, CodeRateLimit},
		{"code 32", &APIError{StatusCode: 400, Code: 32, Message: "Page request limit reached"}, CodeRateLimit},
		{"code 613", &APIError{StatusCode: 400, Code: 613}, CodeRateLimit},
		{"status 401", &APIError{StatusCode: 401, Message: "unauthorized"}, CodeAuth},
		{"status 403", &APIError{StatusCode: 403, Message: "forbidden"}, CodeAuth},
		{"oauth exception", &APIError{StatusCode: 400, Type: "OAuthException", Message: "token expired"}, CodeAuth},
		{"code 190", &APIError{StatusCode: 400, Code: 190}, CodeAuth},
		{"code 102", &APIError{StatusCode: 400, Code: 102, Message: "session key invalid"}, CodeAuth},
		{"status 500", &APIError{StatusCode: 500, Message: "boom"}, CodeServer},
		{"status 503", &APIError{StatusCode: 503}, CodeServer},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Classify(c.err); got != c.want {
				t.Errorf("Classify(%v) = %s, muốn %s", c.err, got, c.want)
			}
		})
	}
}

func TestClassify_WrappedAPIError(t *testing.T) {
	inner := &APIError{StatusCode: 429}
	wrapped := fmt.Errorf("publish failed: %w", inner)
	if got := Classify(wrapped); got != CodeRateLimit {
		t.Errorf("lỗi wrap phải được phân loại qua errors.As, got %s", got)
	}
}

func TestClassify_MessagePatterns(t *testing.T) {
	cases := []struct {
		message string
		want    string
	}{
		{"(#32) Page request limit reached", CodeRateLimit},
		{"Rate limit hit, try again later", CodeRateLimit},
		{"HTTP 429 from upstream", CodeRateLimit},
		{"too many requests", CodeRateLimit},
		{"request returned 401", CodeAuth},
		{"Invalid OAuth access token", CodeAuth},
		{"missing publish_pages permission", CodeAuth},
		{"got 502 Bad Gateway", CodeServer},
		{"Internal Server Error", CodeServer},
		{"context deadline exceeded (timeout)", CodeServer},
		{"Connection reset by peer", CodeServer},
		{"Service Unavailable", CodeServer},
		{"something inexplicable happened", CodeUnknown},
	}

	for _, c := range cases {
		if got := Classify(errors.New(c.message)); got != c.want {
			t.Errorf("Classify(%q) = %s, muốn %s", c.message, got, c.want)
		}
	}
}

func TestClassify_RateLimitBeatsAuth(t *testing.T) {
	// Message khớp cả pattern rate limit và auth: rate limit phải thắng
	err := errors.New("Rate limit reached for access token")
	if got := Classify(err); got != CodeRateLimit {
		t.Errorf("ưu tiên RATE_LIMIT trước AUTH, got %s", got)
	}
}

func TestClassify_NilError(t *testing.T) {
	if got := Classify(nil); got != CodeUnknown {
		t.Errorf("Classify(nil) = %s, muốn UNKNOWN", got)
	}
}
