package publish

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	contentmodels "content_factory/internal/api/content/models"
	"content_factory/internal/common"
	"content_factory/internal/engine/classify"
	"content_factory/internal/engine/dedup"
	"content_factory/internal/engine/ratelimit"
	"content_factory/internal/logger"
)

// itemStore là phần của ContentItemService mà orchestrator cần
type itemStore interface {
	FetchDue(ctx context.Context, now int64, limit int64) ([]contentmodels.ContentItem, error)
	FindOneById(ctx context.Context, id primitive.ObjectID) (contentmodels.ContentItem, error)
	CASStatus(ctx context.Context, id primitive.ObjectID, from []string, to string) (contentmodels.ContentItem, error)
	MarkPublished(ctx context.Context, id primitive.ObjectID, platformPostID string) (contentmodels.ContentItem, error)
	MarkDuplicate(ctx context.Context, id primitive.ObjectID, reason string) (contentmodels.ContentItem, error)
	RepairOrphanPublished(ctx context.Context, id primitive.ObjectID) (contentmodels.ContentItem, error)
	RequeueDueRetries(ctx context.Context, now int64) (int64, error)
}

// recordStore là phần của PublishedRecordService mà orchestrator cần
type recordStore interface {
	InsertOne(ctx context.Context, data contentmodels.PublishedRecord) (contentmodels.PublishedRecord, error)
	FirstPublishedAt(ctx context.Context) (int64, error)
}

// cooldownStore là phần của SystemStatusService mà orchestrator cần
type cooldownStore interface {
	GetCooldownUntil(ctx context.Context) (int64, error)
	ClearCooldown(ctx context.Context) error
}

// accountStore là phần của PageAccountService mà orchestrator cần
type accountStore interface {
	FindByPageID(ctx context.Context, pageID string) (contentmodels.PageAccount, error)
}

// locker là process lock hai lớp
type locker interface {
	Acquire(ctx context.Context) error
	Release(ctx context.Context)
}

// duplicateChecker kiểm tra trùng lặp trước khi đăng
type duplicateChecker interface {
	Check(ctx context.Context, item contentmodels.ContentItem) dedup.Verdict
}

// errorHandler phân loại và xử lý lỗi đăng bài
type errorHandler interface {
	Handle(ctx context.Context, item contentmodels.ContentItem, pubErr error) (classify.Outcome, error)
}

// postGate kiểm tra giới hạn tần suất và sức khỏe tương tác
type postGate interface {
	CanPost(ctx context.Context, now time.Time, accountAgeDays int) (ratelimit.Decision, error)
}

// platformClient đăng nội dung lên nền tảng
type platformClient interface {
	PublishText(ctx context.Context, message string) (string, error)
	PublishReel(ctx context.Context, videoURL string, description string) (string, error)
}

// Config cấu hình orchestrator
type Config struct {
	PageID string // ID page đích, dùng để tra tuổi tài khoản
}

// Orchestrator chạy một lượt đăng bài qua đầy đủ các lớp an toàn:
// lock, cooldown, rate limit, dedup, CAS trạng thái rồi mới gọi nền tảng.
type Orchestrator struct {
	cfg      Config
	items    itemStore
	records  recordStore
	cooldown cooldownStore
	accounts accountStore
	lock     locker
	detector duplicateChecker
	handler  errorHandler
	gate     postGate
	platform platformClient
}

// NewOrchestrator tạo mới Orchestrator
func NewOrchestrator(
	cfg Config,
	items itemStore,
	records recordStore,
	cooldown cooldownStore,
	accounts accountStore,
	lock locker,
	detector duplicateChecker,
	handler errorHandler,
	gate postGate,
	platform platformClient,
) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		items:    items,
		records:  records,
		cooldown: cooldown,
		accounts: accounts,
		lock:     lock,
		detector: detector,
		handler:  handler,
		gate:     gate,
		platform: platform,
	}
}

// Execute chạy một lượt đăng cho tất cả item đến hạn.
// Trả về true khi batch bị dừng vì cooldown (đang có hoặc vừa kích hoạt).
func (o *Orchestrator) Execute(ctx context.Context) (bool, error) {
	log := logger.WithModule("publish")

	if err := o.lock.Acquire(ctx); err != nil {
		if err == common.ErrLockNotAcquired {
			log.Info("📤 [PUBLISH] Bỏ qua lượt đăng, tiến trình khác đang chạy")
			return false, nil
		}
		return false, err
	}
	defer o.lock.Release(ctx)

	now := time.Now()

	if requeued, err := o.items.RequeueDueRetries(ctx, now.Unix()); err != nil {
		return false, err
	} else if requeued > 0 {
		log.Infof("🔁 [RETRY] Đưa %d item retry đến hạn trở lại hàng đợi", requeued)
	}

	inCooldown, err := o.checkCooldown(ctx, now)
	if err != nil {
		return false, err
	}
	if inCooldown {
		return true, nil
	}

	decision, err := o.gate.CanPost(ctx, now, o.accountAgeDays(ctx, now))
	if err != nil {
		return false, err
	}
	if !decision.Allowed {
		wait := ratelimit.WaitUntilCanPost(decision, now)
		log.Warnf("⏱️ [RATE_LIMIT] %s, thử lại sau %s", decision.Reason, time.Until(wait).Round(time.Minute))
		return false, nil
	}

	// Không đăng quá phần quota còn lại trong ngày
	remaining := int64(decision.DailyLimit) - decision.PostedToday
	items, err := o.items.FetchDue(ctx, now.Unix(), remaining)
	if err != nil {
		return false, err
	}
	if len(items) == 0 {
		return false, nil
	}
	log.Infof("📤 [PUBLISH] Bắt đầu lượt đăng: %d item đến hạn, quota còn %d", len(items), remaining)

	for _, item := range items {
		abort, err := o.publishOne(ctx, item)
		if err != nil {
			return false, err
		}
		if abort {
			return true, nil
		}
	}

	return false, nil
}

// checkCooldown kiểm tra và dọn cooldown hết hạn
func (o *Orchestrator) checkCooldown(ctx context.Context, now time.Time) (bool, error) {
	until, err := o.cooldown.GetCooldownUntil(ctx)
	if err != nil {
		return false, err
	}
	if until == 0 {
		return false, nil
	}
	if until > now.Unix() {
		logger.WithModule("publish").Warnf("📤 [PUBLISH] Hệ thống đang cooldown đến %s",
			time.Unix(until, 0).UTC().Format(time.RFC3339))
		return true, nil
	}
	return false, o.cooldown.ClearCooldown(ctx)
}

// accountAgeDays tính tuổi tài khoản theo số ngày kể từ bài đăng đầu tiên,
// 0 khi chưa đăng bài nào nên page mới luôn nằm ở tier chặt nhất.
// Admin khai báo accountCreatedAt trên page account thì ngày đó được ưu tiên.
func (o *Orchestrator) accountAgeDays(ctx context.Context, now time.Time) int {
	if account, err := o.accounts.FindByPageID(ctx, o.cfg.PageID); err == nil && account.AccountCreatedAt > 0 {
		return account.AgeDays(now.Unix())
	}

	first, err := o.records.FirstPublishedAt(ctx)
	if err != nil || first <= 0 || now.Unix() <= first {
		return 0
	}
	return int((now.Unix() - first) / 86400)
}

// publishOne đăng một item qua các lớp an toàn cuối cùng.
// Trả về abort=true khi lỗi kích hoạt cooldown và batch phải dừng.
func (o *Orchestrator) publishOne(ctx context.Context, item contentmodels.ContentItem) (bool, error) {
	log := logger.WithModule("publish").WithFields(map[string]interface{}{
		"contentId": item.ID.Hex(),
	})

	// Item đã có platform post ID nhưng chưa published: tiến trình trước
	// chết giữa chừng, chỉ cần sửa trạng thái, tuyệt đối không đăng lại
	if item.PlatformPostID != "" {
		if _, err := o.items.RepairOrphanPublished(ctx, item.ID); err != nil && err != common.ErrNotFound {
			return false, err
		}
		log.Warnf("📤 [PUBLISH] Sửa trạng thái item đã đăng dở dang (post %s)", item.PlatformPostID)
		return false, nil
	}

	verdict := o.detector.Check(ctx, item)
	if verdict.IsDuplicate {
		if _, err := o.items.MarkDuplicate(ctx, item.ID, verdict.Reason); err != nil {
			return false, err
		}
		return false, nil
	}

	// CAS sang publishing: tiến trình nào thua cuộc đua sẽ bỏ qua item này
	casItem, err := o.items.CASStatus(ctx, item.ID, []string{
		contentmodels.StatusScheduled,
		contentmodels.StatusRetryScheduled,
	}, contentmodels.StatusPublishing)
	if err != nil {
		if err == common.ErrInvalidState {
			log.Warn("📤 [PUBLISH] Item đã bị tiến trình khác xử lý, bỏ qua")
			return false, nil
		}
		return false, err
	}
	item = casItem

	postID, pubErr := o.callPlatform(ctx, item)
	if pubErr != nil {
		outcome, err := o.handler.Handle(ctx, item, pubErr)
		if err != nil {
			return false, err
		}
		return outcome.AbortBatch, nil
	}

	if _, err := o.recordPublished(ctx, item, postID); err != nil {
		return false, err
	}

	log.Infof("📤 [PUBLISH] Đăng thành công post %s", postID)
	return false, nil
}

// recordPublished chuyển item sang published và ghi dấu vết cho dedup
func (o *Orchestrator) recordPublished(ctx context.Context, item contentmodels.ContentItem, postID string) (contentmodels.ContentItem, error) {
	published, err := o.items.MarkPublished(ctx, item.ID, postID)
	if err != nil {
		return published, err
	}

	contentHash, simHash := dedup.Fingerprint(item.Title, item.Body)
	_, err = o.records.InsertOne(ctx, contentmodels.PublishedRecord{
		ContentID:      published.ID,
		PlatformPostID: postID,
		ContentHash:    contentHash,
		SimHash:        dedup.StoredSimHash(simHash),
		SourceURL:      item.SourceURL,
		ContentKind:    item.ContentKind,
		PublishedAt:    time.Now().Unix(),
	})
	return published, err
}

// callPlatform gọi API nền tảng theo loại nội dung
func (o *Orchestrator) callPlatform(ctx context.Context, item contentmodels.ContentItem) (string, error) {
	if item.ContentKind == contentmodels.KindReel {
		return o.platform.PublishReel(ctx, item.MediaURL, item.Title+"\n\n"+item.Body)
	}
	message := item.Body
	if item.Title != "" {
		message = item.Title + "\n\n" + item.Body
	}
	return o.platform.PublishText(ctx, message)
}

// PublishByID đăng một item theo yêu cầu thủ công, vẫn qua đầy đủ
// lock, cooldown, rate limit và dedup như lượt đăng tự động
func (o *Orchestrator) PublishByID(ctx context.Context, id primitive.ObjectID) (contentmodels.ContentItem, error) {
	var zero contentmodels.ContentItem

	if err := o.lock.Acquire(ctx); err != nil {
		return zero, err
	}
	defer o.lock.Release(ctx)

	now := time.Now()

	inCooldown, err := o.checkCooldown(ctx, now)
	if err != nil {
		return zero, err
	}
	if inCooldown {
		return zero, common.ErrSystemCooldown
	}

	decision, err := o.gate.CanPost(ctx, now, o.accountAgeDays(ctx, now))
	if err != nil {
		return zero, err
	}
	if !decision.Allowed {
		if decision.EngagementRate > 0 && decision.EngagementRate < 100.0 {
			return zero, common.ErrEngagementTooLow
		}
		return zero, common.ErrRateLimitExceeded
	}

	item, err := o.items.FindOneById(ctx, id)
	if err != nil {
		return zero, err
	}
	if item.Status == contentmodels.StatusPublished {
		return zero, common.ErrAlreadyPublished
	}
	if contentmodels.IsTerminalStatus(item.Status) {
		return zero, common.ErrInvalidState
	}

	verdict := o.detector.Check(ctx, item)
	if verdict.IsDuplicate {
		if _, err := o.items.MarkDuplicate(ctx, item.ID, verdict.Reason); err != nil {
			return zero, err
		}
		return zero, common.ErrDuplicateContent
	}

	casItem, err := o.items.CASStatus(ctx, item.ID, []string{
		contentmodels.StatusDrafted,
		contentmodels.StatusScheduled,
		contentmodels.StatusRetryScheduled,
	}, contentmodels.StatusPublishing)
	if err != nil {
		return zero, err
	}

	postID, pubErr := o.callPlatform(ctx, casItem)
	if pubErr != nil {
		if _, err := o.handler.Handle(ctx, casItem, pubErr); err != nil {
			return zero, err
		}
		return zero, pubErr
	}

	return o.recordPublished(ctx, casItem, postID)
}
