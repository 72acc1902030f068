package classify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	contentmodels "content_factory/internal/api/content/models"
)

// fakeItemStore ghi lại các lời gọi thay đổi trạng thái item
type fakeItemStore struct {
	retryID    primitive.ObjectID
	retryCount int
	retryAt    int64
	retryMsg   string
	retryCode  string

	failedID   primitive.ObjectID
	failedMsg  string
	failedCode string
}

func (f *fakeItemStore) ScheduleRetry(ctx context.Context, id primitive.ObjectID, retryCount int, nextAt int64, errMsg string, errCode string) (contentmodels.ContentItem, error) {
	f.retryID = id
	f.retryCount = retryCount
	f.retryAt = nextAt
	f.retryMsg = errMsg
	f.retryCode = errCode
	return contentmodels.ContentItem{ID: id}, nil
}

func (f *fakeItemStore) MarkFailed(ctx context.Context, id primitive.ObjectID, errMsg string, errCode string) (contentmodels.ContentItem, error) {
	f.failedID = id
	f.failedMsg = errMsg
	f.failedCode = errCode
	return contentmodels.ContentItem{ID: id}, nil
}

// fakeStatusStore ghi lại cooldown đã đặt
type fakeStatusStore struct {
	cooldownUntil int64
	errCode       string
	action        string
}

func (f *fakeStatusStore) SetCooldown(ctx context.Context, until int64, errCode string, action string) error {
	f.cooldownUntil = until
	f.errCode = errCode
	f.action = action
	return nil
}

func testControllerConfig() Config {
	return Config{
		CooldownDuration: 24 * time.Hour,
		MaxRetries:       3,
		RetryBase:        5 * time.Minute,
	}
}

func TestController_RateLimitSetsCooldownAndAborts(t *testing.T) {
	items := &fakeItemStore{}
	status := &fakeStatusStore{}
	controller := NewController(items, status, testControllerConfig())

	item := contentmodels.ContentItem{ID: primitive.NewObjectID(), RetryCount: 1}
	before := time.Now().Add(24 * time.Hour).Unix()
	outcome, err := controller.Handle(context.Background(), item, &APIError{StatusCode: 429, Message: "slow down"})
	if err != nil {
		t.Fatalf("Handle trả về lỗi: %v", err)
	}

	if !outcome.AbortBatch {
		t.Error("rate limit phải dừng batch")
	}
	if outcome.ErrorCode != CodeRateLimit || outcome.Action != ActionCooldown {
		t.Errorf("outcome sai: %+v", outcome)
	}
	if status.cooldownUntil < before {
		t.Errorf("cooldown phải ~24h sau thời điểm hiện tại, got %d", status.cooldownUntil)
	}
	// Không tăng retry count khi rate limit
	if items.retryCount != 1 {
		t.Errorf("rate limit không được tăng retryCount, got %d", items.retryCount)
	}
}

func TestController_AuthMarksFailedWithManualAction(t *testing.T) {
	items := &fakeItemStore{}
	status := &fakeStatusStore{}
	controller := NewController(items, status, testControllerConfig())

	item := contentmodels.ContentItem{ID: primitive.NewObjectID()}
	outcome, err := controller.Handle(context.Background(), item, &APIError{StatusCode: 401, Message: "Invalid OAuth access token"})
	if err != nil {
		t.Fatalf("Handle trả về lỗi: %v", err)
	}

	if outcome.AbortBatch {
		t.Error("lỗi auth không dừng batch")
	}
	if outcome.Action != ActionNeedsManual {
		t.Errorf("action = %s, muốn %s", outcome.Action, ActionNeedsManual)
	}
	if !strings.HasPrefix(items.failedMsg, "NEEDS MANUAL ACTION: ") {
		t.Errorf("message phải có tiền tố NEEDS MANUAL ACTION, got %q", items.failedMsg)
	}
	if items.failedCode != CodeAuth {
		t.Errorf("errCode = %s, muốn AUTH", items.failedCode)
	}
}

func TestController_ServerErrorSchedulesRetryWithBackoff(t *testing.T) {
	items := &fakeItemStore{}
	status := &fakeStatusStore{}
	controller := NewController(items, status, testControllerConfig())

	// Lần retry thứ 3 (retryCount=2): backoff = 5 * 2^2 = 20 phút
	item := contentmodels.ContentItem{ID: primitive.NewObjectID(), RetryCount: 2}
	now := time.Now()
	outcome, err := controller.Handle(context.Background(), item, errors.New("Internal Server Error"))
	if err != nil {
		t.Fatalf("Handle trả về lỗi: %v", err)
	}

	if outcome.Action != ActionRetry {
		t.Errorf("action = %s, muốn retry", outcome.Action)
	}
	if items.retryCount != 3 {
		t.Errorf("retryCount = %d, muốn 3", items.retryCount)
	}

	wantAt := now.Add(20 * time.Minute).Unix()
	if items.retryAt < wantAt-2 || items.retryAt > wantAt+2 {
		t.Errorf("retryAt = %d, muốn ~%d (backoff 20 phút)", items.retryAt, wantAt)
	}
}

func TestController_MaxRetriesMarksFailed(t *testing.T) {
	items := &fakeItemStore{}
	status := &fakeStatusStore{}
	controller := NewController(items, status, testControllerConfig())

	item := contentmodels.ContentItem{ID: primitive.NewObjectID(), RetryCount: 3}
	outcome, err := controller.Handle(context.Background(), item, errors.New("timeout"))
	if err != nil {
		t.Fatalf("Handle trả về lỗi: %v", err)
	}

	if outcome.Action != ActionFailed {
		t.Errorf("action = %s, muốn failed", outcome.Action)
	}
	if !strings.HasSuffix(items.failedMsg, "(max retries)") {
		t.Errorf("message phải có hậu tố (max retries), got %q", items.failedMsg)
	}
}
