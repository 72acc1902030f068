// Package classify phân loại lỗi từ nền tảng đăng bài và quyết định
// hành động xử lý (cooldown, dừng chờ can thiệp, hay retry).
package classify

import (
	"errors"
	"fmt"
	"regexp"
)

// Các mã phân loại lỗi
const (
	CodeRateLimit = "RATE_LIMIT" // Bị giới hạn tần suất, phải cooldown
	CodeAuth      = "AUTH"       // Lỗi xác thực/quyền, cần can thiệp thủ công
	CodeServer    = "SERVER"     // Lỗi phía server, có thể retry
	CodeUnknown   = "UNKNOWN"    // Không nhận diện được, retry thận trọng
)

// APIError là lỗi có cấu trúc trả về từ Graph API
type APIError struct {
	StatusCode int    // HTTP status code
	Code       int    // Mã lỗi trong body (error.code)
	Subcode    int    // Mã lỗi phụ (error.error_subcode)
	Type       string // Loại lỗi (error.type, ví dụ OAuthException)
	Message    string // Thông báo lỗi
}

func (e *APIError) Error() string {
	return fmt.Sprintf("graph api error (status %d, code %d): %s", e.StatusCode, e.Code, e.Message)
}

// Các pattern nhận diện lỗi theo thông báo, dùng khi không có lỗi có cấu trúc.
// Thứ tự ưu tiên: RATE_LIMIT trước AUTH trước SERVER.
var (
	rateLimitPatterns = []*regexp.Regexp{
		regexp.MustCompile(`#32`),
		regexp.MustCompile(`(?i)Page request limit reached`),
		regexp.MustCompile(`(?i)Rate limit`),
		regexp.MustCompile(`429`),
		regexp.MustCompile(`(?i)too many requests`),
	}
	authPatterns = []*regexp.Regexp{
		regexp.MustCompile(`401`),
		regexp.MustCompile(`403`),
		regexp.MustCompile(`OAuthException`),
		regexp.MustCompile(`(?i)Invalid OAuth`),
		regexp.MustCompile(`(?i)access token`),
		regexp.MustCompile(`(?i)permission`),
	}
	serverPatterns = []*regexp.Regexp{
		regexp.MustCompile(`5\d{2}`),
		regexp.MustCompile(`(?i)Internal Server Error`),
		regexp.MustCompile(`(?i)timeout`),
		regexp.MustCompile(`(?i)Connection reset`),
		regexp.MustCompile(`(?i)Service Unavailable`),
	}
)

// Classify phân loại một lỗi đăng bài. Lỗi APIError có cấu trúc được
// phân loại theo status/code trước, các lỗi khác so khớp pattern trên message.
func Classify(err error) string {
	if err == nil {
		return CodeUnknown
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return classifyAPIError(apiErr)
	}

	return classifyMessage(err.Error())
}

// classifyAPIError phân loại theo các trường có cấu trúc của Graph API.
// Code 32 và 613 là các mã rate limit của page, 4 và 17 là throttling chung.
func classifyAPIError(e *APIError) string {
	switch {
	case e.StatusCode == 429:
		return CodeRateLimit
	case e.Code == 32 || e.Code == 613 || e.Code == 4 || e.Code == 17:
		return CodeRateLimit
	case e.StatusCode == 401 || e.StatusCode == 403:
		return CodeAuth
	case e.Type == "OAuthException" || e.Code == 190 || e.Code == 102:
		return CodeAuth
	case e.StatusCode >= 500:
		return CodeServer
	}
	return classifyMessage(e.Message)
}

func classifyMessage(message string) string {
	for _, p := range rateLimitPatterns {
		if p.MatchString(message) {
			return CodeRateLimit
		}
	}
	for _, p := range authPatterns {
		if p.MatchString(message) {
			return CodeAuth
		}
	}
	for _, p := range serverPatterns {
		if p.MatchString(message) {
			return CodeServer
		}
	}
	return CodeUnknown
}
