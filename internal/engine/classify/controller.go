package classify

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	contentmodels "content_factory/internal/api/content/models"
	"content_factory/internal/logger"
)

// itemStore là phần của ContentItemService mà controller cần
type itemStore interface {
	ScheduleRetry(ctx context.Context, id primitive.ObjectID, retryCount int, nextAt int64, errMsg string, errCode string) (contentmodels.ContentItem, error)
	MarkFailed(ctx context.Context, id primitive.ObjectID, errMsg string, errCode string) (contentmodels.ContentItem, error)
}

// statusStore là phần của SystemStatusService mà controller cần
type statusStore interface {
	SetCooldown(ctx context.Context, until int64, errCode string, action string) error
}

// Config cấu hình xử lý lỗi
type Config struct {
	CooldownDuration time.Duration // Thời gian cooldown khi bị rate limit (24h)
	MaxRetries       int           // Số lần retry tối đa (3)
	RetryBase        time.Duration // Backoff cơ sở, nhân đôi theo số lần retry (5 phút)
}

// Hành động controller đã thực hiện cho một lỗi
const (
	ActionCooldown    = "cooldown"
	ActionNeedsManual = "needs_manual_action"
	ActionRetry       = "retry"
	ActionFailed      = "failed"
)

// Outcome là kết quả xử lý một lỗi đăng bài
type Outcome struct {
	ErrorCode  string // Phân loại lỗi
	Action     string // Hành động đã thực hiện
	AbortBatch bool   // true khi phải dừng cả batch (rate limit kích hoạt cooldown)
}

// Controller quyết định số phận của item khi đăng thất bại
type Controller struct {
	items  itemStore
	status statusStore
	cfg    Config
}

// NewController tạo mới Controller
func NewController(items itemStore, status statusStore, cfg Config) *Controller {
	return &Controller{
		items:  items,
		status: status,
		cfg:    cfg,
	}
}

// Handle phân loại lỗi và thực hiện hành động tương ứng:
//   - RATE_LIMIT: đặt cooldown hệ thống, item chờ đến hết cooldown, dừng batch
//   - AUTH: đánh dấu item failed, ghi NEEDS MANUAL ACTION, batch tiếp tục
//   - SERVER/UNKNOWN: retry với backoff 5*2^n phút, tối đa MaxRetries lần
func (c *Controller) Handle(ctx context.Context, item contentmodels.ContentItem, pubErr error) (Outcome, error) {
	code := Classify(pubErr)
	now := time.Now()
	log := logger.WithModule("classify").WithFields(map[string]interface{}{
		"contentId": item.ID.Hex(),
		"errorCode": code,
	})

	switch code {
	case CodeRateLimit:
		until := now.Add(c.cfg.CooldownDuration).Unix()
		if err := c.status.SetCooldown(ctx, until, code, ActionCooldown); err != nil {
			return Outcome{}, err
		}
		// Item không bị tính thêm lượt retry, chỉ dời lịch đến hết cooldown
		if _, err := c.items.ScheduleRetry(ctx, item.ID, item.RetryCount, until, pubErr.Error(), code); err != nil {
			return Outcome{}, err
		}
		log.Warnf("⏱️ [RATE_LIMIT] Kích hoạt cooldown %s, dừng batch", c.cfg.CooldownDuration)
		return Outcome{ErrorCode: code, Action: ActionCooldown, AbortBatch: true}, nil

	case CodeAuth:
		message := "NEEDS MANUAL ACTION: " + pubErr.Error()
		if _, err := c.items.MarkFailed(ctx, item.ID, message, code); err != nil {
			return Outcome{}, err
		}
		log.Errorf("🔁 [RETRY] %s", message)
		return Outcome{ErrorCode: code, Action: ActionNeedsManual}, nil

	default: // SERVER, UNKNOWN
		if item.RetryCount >= c.cfg.MaxRetries {
			message := pubErr.Error() + " (max retries)"
			if _, err := c.items.MarkFailed(ctx, item.ID, message, code); err != nil {
				return Outcome{}, err
			}
			log.Errorf("🔁 [RETRY] Hết lượt retry sau %d lần, chuyển failed", item.RetryCount)
			return Outcome{ErrorCode: code, Action: ActionFailed}, nil
		}

		// Backoff lũy thừa: 5, 10, 20 phút cho các lần retry 0, 1, 2
		delay := c.cfg.RetryBase * (1 << uint(item.RetryCount))
		nextAt := now.Add(delay).Unix()
		if _, err := c.items.ScheduleRetry(ctx, item.ID, item.RetryCount+1, nextAt, pubErr.Error(), code); err != nil {
			return Outcome{}, err
		}
		log.Warnf("🔁 [RETRY] Lên lịch retry lần %d sau %s", item.RetryCount+1, delay)
		return Outcome{ErrorCode: code, Action: ActionRetry}, nil
	}
}
