// Package ratelimit giới hạn tần suất đăng bài theo tuổi tài khoản
// và mức tương tác gần đây để bảo vệ page khỏi bị nền tảng hạn chế.
package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	contentmodels "content_factory/internal/api/content/models"
	"content_factory/internal/logger"
)

// recordStore là phần của PublishedRecordService mà limiter cần
type recordStore interface {
	CountSince(ctx context.Context, since int64) (int64, error)
	LastN(ctx context.Context, n int64) ([]contentmodels.PublishedRecord, error)
}

// Config cấu hình các ngưỡng giới hạn
type Config struct {
	MinEngagementRate float64 // Ngưỡng tương tác tối thiểu theo phần trăm (0.5)
}

// Decision là kết quả kiểm tra có được đăng bài không
type Decision struct {
	Allowed        bool    // Có được đăng không
	Reason         string  // Lý do khi bị chặn
	EngagementRate float64 // Tỷ lệ tương tác trung bình đã tính
	PostedToday    int64   // Số bài đã đăng từ 00:00 UTC
	DailyLimit     int     // Giới hạn ngày theo tuổi tài khoản
}

// Limiter kiểm tra giới hạn đăng bài trong ngày và sức khỏe tương tác
type Limiter struct {
	records recordStore
	cfg     Config
}

// NewLimiter tạo mới Limiter
func NewLimiter(records recordStore, cfg Config) *Limiter {
	return &Limiter{
		records: records,
		cfg:     cfg,
	}
}

// DailyLimitForAge trả về số bài tối đa mỗi ngày theo tuổi tài khoản.
// Tài khoản càng mới giới hạn càng chặt.
func DailyLimitForAge(ageDays int) int {
	switch {
	case ageDays < 7:
		return 2
	case ageDays < 30:
		return 3
	case ageDays < 90:
		return 5
	default:
		return 8
	}
}

// WeightedEngagementRate tính tỷ lệ tương tác trung bình theo phần trăm:
// (likes + 2*comments + 3*shares) / reach * 100 cho mỗi bài, lấy trung bình.
// Chưa có bài nào trả về 100.0 (chưa có dữ liệu thì không chặn).
// Bài có reach = 0 được tính 5.0 thay vì chia cho 0.
func WeightedEngagementRate(records []contentmodels.PublishedRecord) float64 {
	if len(records) == 0 {
		return 100.0
	}

	total := 0.0
	for _, r := range records {
		e := r.Engagement
		if e.Reach == 0 {
			total += 5.0
			continue
		}
		weighted := float64(e.Likes + 2*e.Comments + 3*e.Shares)
		total += weighted / float64(e.Reach) * 100.0
	}
	return total / float64(len(records))
}

// UTCMidnight trả về 00:00 UTC của ngày chứa t
func UTCMidnight(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// CanPost kiểm tra theo thứ tự: giới hạn ngày theo tuổi tài khoản,
// rồi tỷ lệ tương tác trung bình của 5 bài gần nhất
func (l *Limiter) CanPost(ctx context.Context, now time.Time, accountAgeDays int) (Decision, error) {
	limit := DailyLimitForAge(accountAgeDays)

	posted, err := l.records.CountSince(ctx, UTCMidnight(now).Unix())
	if err != nil {
		return Decision{}, err
	}

	if posted >= int64(limit) {
		decision := Decision{
			Reason:      fmt.Sprintf("Daily limit reached (%d/%d posts)", posted, limit),
			PostedToday: posted,
			DailyLimit:  limit,
		}
		logger.WithModule("ratelimit").Warnf("⏱️ [RATE_LIMIT] %s", decision.Reason)
		return decision, nil
	}

	recent, err := l.records.LastN(ctx, 5)
	if err != nil {
		return Decision{}, err
	}

	rate := WeightedEngagementRate(recent)
	if rate < l.cfg.MinEngagementRate {
		decision := Decision{
			Reason:         fmt.Sprintf("Low engagement detected (%.2f%%), pausing to protect account", rate),
			EngagementRate: rate,
			PostedToday:    posted,
			DailyLimit:     limit,
		}
		logger.WithModule("ratelimit").Warnf("⏱️ [RATE_LIMIT] %s", decision.Reason)
		return decision, nil
	}

	return Decision{
		Allowed:        true,
		EngagementRate: rate,
		PostedToday:    posted,
		DailyLimit:     limit,
	}, nil
}

// WaitUntilCanPost tính thời điểm thử lại dựa trên lý do bị chặn:
// hết giới hạn ngày chờ đến 00:00 UTC hôm sau, tương tác thấp chờ 24 giờ,
// các trường hợp khác chờ 1 giờ
func WaitUntilCanPost(decision Decision, now time.Time) time.Time {
	switch {
	case strings.HasPrefix(decision.Reason, "Daily limit reached"):
		return UTCMidnight(now).Add(24 * time.Hour)
	case strings.HasPrefix(decision.Reason, "Low engagement detected"):
		return now.Add(24 * time.Hour)
	default:
		return now.Add(1 * time.Hour)
	}
}
