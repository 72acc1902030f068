// Package publish - Test orchestrator với các lớp an toàn giả lập.
package publish

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	contentmodels "content_factory/internal/api/content/models"
	"content_factory/internal/common"
	"content_factory/internal/engine/classify"
	"content_factory/internal/engine/dedup"
	"content_factory/internal/engine/ratelimit"
)

// fakeItemStore giả lập ContentItemService cho orchestrator
type fakeItemStore struct {
	items map[primitive.ObjectID]*contentmodels.ContentItem
}

func newFakeItemStore(items ...contentmodels.ContentItem) *fakeItemStore {
	f := &fakeItemStore{items: map[primitive.ObjectID]*contentmodels.ContentItem{}}
	for i := range items {
		item := items[i]
		f.items[item.ID] = &item
	}
	return f
}

func (f *fakeItemStore) FetchDue(ctx context.Context, now int64, limit int64) ([]contentmodels.ContentItem, error) {
	var due []contentmodels.ContentItem
	for _, item := range f.items {
		if (item.Status == contentmodels.StatusScheduled || item.Status == contentmodels.StatusRetryScheduled) && item.ScheduledAt <= now {
			due = append(due, *item)
		}
		if limit > 0 && int64(len(due)) >= limit {
			break
		}
	}
	return due, nil
}

func (f *fakeItemStore) FindOneById(ctx context.Context, id primitive.ObjectID) (contentmodels.ContentItem, error) {
	if item, ok := f.items[id]; ok {
		return *item, nil
	}
	return contentmodels.ContentItem{}, common.ErrNotFound
}

func (f *fakeItemStore) CASStatus(ctx context.Context, id primitive.ObjectID, from []string, to string) (contentmodels.ContentItem, error) {
	item, ok := f.items[id]
	if !ok {
		return contentmodels.ContentItem{}, common.ErrInvalidState
	}
	for _, s := range from {
		if item.Status == s {
			item.Status = to
			return *item, nil
		}
	}
	return contentmodels.ContentItem{}, common.ErrInvalidState
}

func (f *fakeItemStore) MarkPublished(ctx context.Context, id primitive.ObjectID, platformPostID string) (contentmodels.ContentItem, error) {
	item, ok := f.items[id]
	if !ok || item.Status != contentmodels.StatusPublishing {
		return contentmodels.ContentItem{}, common.ErrInvalidState
	}
	item.Status = contentmodels.StatusPublished
	item.PlatformPostID = platformPostID
	return *item, nil
}

func (f *fakeItemStore) MarkDuplicate(ctx context.Context, id primitive.ObjectID, reason string) (contentmodels.ContentItem, error) {
	item := f.items[id]
	item.Status = contentmodels.StatusDuplicate
	item.LastError = reason
	return *item, nil
}

func (f *fakeItemStore) RepairOrphanPublished(ctx context.Context, id primitive.ObjectID) (contentmodels.ContentItem, error) {
	item := f.items[id]
	if item.PlatformPostID == "" || item.Status == contentmodels.StatusPublished {
		return contentmodels.ContentItem{}, common.ErrNotFound
	}
	item.Status = contentmodels.StatusPublished
	return *item, nil
}

func (f *fakeItemStore) RequeueDueRetries(ctx context.Context, now int64) (int64, error) {
	var requeued int64
	for _, item := range f.items {
		if item.Status == contentmodels.StatusRetryScheduled && item.ScheduledAt <= now && item.PlatformPostID == "" {
			item.Status = contentmodels.StatusScheduled
			item.LastError = ""
			item.LastErrorCode = ""
			requeued++
		}
	}
	return requeued, nil
}

// fakeRecordStore thu thập record đã ghi
type fakeRecordStore struct {
	inserted []contentmodels.PublishedRecord
	firstAt  int64
}

func (f *fakeRecordStore) InsertOne(ctx context.Context, data contentmodels.PublishedRecord) (contentmodels.PublishedRecord, error) {
	f.inserted = append(f.inserted, data)
	return data, nil
}

func (f *fakeRecordStore) FirstPublishedAt(ctx context.Context) (int64, error) {
	return f.firstAt, nil
}

// fakeCooldownStore giả lập trạng thái cooldown
type fakeCooldownStore struct {
	until   int64
	cleared bool
}

func (f *fakeCooldownStore) GetCooldownUntil(ctx context.Context) (int64, error) { return f.until, nil }
func (f *fakeCooldownStore) ClearCooldown(ctx context.Context) error {
	f.until = 0
	f.cleared = true
	return nil
}

// fakeAccountStore trả về page cố định
type fakeAccountStore struct {
	account contentmodels.PageAccount
}

func (f *fakeAccountStore) FindByPageID(ctx context.Context, pageID string) (contentmodels.PageAccount, error) {
	return f.account, nil
}

// fakeLocker đếm số lần acquire/release
type fakeLocker struct {
	denied   bool
	acquired int
	released int
}

func (f *fakeLocker) Acquire(ctx context.Context) error {
	if f.denied {
		return common.ErrLockNotAcquired
	}
	f.acquired++
	return nil
}

func (f *fakeLocker) Release(ctx context.Context) { f.released++ }

// fakeDetector trả về verdict cố định
type fakeDetector struct {
	verdict dedup.Verdict
}

func (f *fakeDetector) Check(ctx context.Context, item contentmodels.ContentItem) dedup.Verdict {
	return f.verdict
}

// fakeHandler ghi lại lỗi được xử lý
type fakeHandler struct {
	outcome classify.Outcome
	handled []error
}

func (f *fakeHandler) Handle(ctx context.Context, item contentmodels.ContentItem, pubErr error) (classify.Outcome, error) {
	f.handled = append(f.handled, pubErr)
	return f.outcome, nil
}

// fakeGate trả về quyết định cố định, ghi lại tuổi tài khoản được truyền vào
type fakeGate struct {
	decision ratelimit.Decision
	ageDays  int
}

func (f *fakeGate) CanPost(ctx context.Context, now time.Time, accountAgeDays int) (ratelimit.Decision, error) {
	f.ageDays = accountAgeDays
	return f.decision, nil
}

// fakePlatform giả lập Graph API
type fakePlatform struct {
	postID    string
	err       error
	published int
}

func (f *fakePlatform) PublishText(ctx context.Context, message string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.published++
	return f.postID, nil
}

func (f *fakePlatform) PublishReel(ctx context.Context, videoURL string, description string) (string, error) {
	return f.PublishText(ctx, description)
}

type fixture struct {
	items    *fakeItemStore
	records  *fakeRecordStore
	cooldown *fakeCooldownStore
	accounts *fakeAccountStore
	lock     *fakeLocker
	detector *fakeDetector
	handler  *fakeHandler
	gate     *fakeGate
	platform *fakePlatform
	orch     *Orchestrator
}

func newFixture(items ...contentmodels.ContentItem) *fixture {
	f := &fixture{
		items:    newFakeItemStore(items...),
		records:  &fakeRecordStore{},
		cooldown: &fakeCooldownStore{},
		accounts: &fakeAccountStore{account: contentmodels.PageAccount{PageID: "page_1"}},
		lock:     &fakeLocker{},
		detector: &fakeDetector{},
		handler:  &fakeHandler{},
		gate:     &fakeGate{decision: ratelimit.Decision{Allowed: true, DailyLimit: 8}},
		platform: &fakePlatform{postID: "page_post_1"},
	}
	f.orch = NewOrchestrator(
		Config{PageID: "page_1"},
		f.items, f.records, f.cooldown, f.accounts,
		f.lock, f.detector, f.handler, f.gate, f.platform,
	)
	return f
}

func dueItem() contentmodels.ContentItem {
	return contentmodels.ContentItem{
		ID:          primitive.NewObjectID(),
		Title:       "Tiêu đề",
		Body:        "Nội dung bài đăng",
		ContentKind: contentmodels.KindText,
		Status:      contentmodels.StatusScheduled,
		ScheduledAt: time.Now().Add(-time.Minute).Unix(),
	}
}

func TestExecute_PublishesDueItem(t *testing.T) {
	item := dueItem()
	f := newFixture(item)

	aborted, err := f.orch.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute lỗi: %v", err)
	}
	if aborted {
		t.Error("batch không được abort")
	}

	got := f.items.items[item.ID]
	if got.Status != contentmodels.StatusPublished {
		t.Errorf("status = %s, muốn published", got.Status)
	}
	if got.PlatformPostID != "page_post_1" {
		t.Errorf("platformPostId = %q", got.PlatformPostID)
	}
	if len(f.records.inserted) != 1 {
		t.Fatalf("phải ghi 1 published record, got %d", len(f.records.inserted))
	}
	if f.records.inserted[0].ContentHash == "" || f.records.inserted[0].SimHash == 0 {
		t.Error("record phải có fingerprint cho dedup")
	}
	if f.lock.acquired != 1 || f.lock.released != 1 {
		t.Errorf("lock phải được giữ và nhả đúng 1 lần: acquired=%d released=%d", f.lock.acquired, f.lock.released)
	}
}

func TestExecute_SkipsWhenLockHeld(t *testing.T) {
	f := newFixture(dueItem())
	f.lock.denied = true

	aborted, err := f.orch.Execute(context.Background())
	if err != nil {
		t.Fatalf("lock bị giữ không phải là lỗi: %v", err)
	}
	if aborted {
		t.Error("không abort khi chỉ là lock bị giữ")
	}
	if f.platform.published != 0 {
		t.Error("không được đăng khi chưa giành được lock")
	}
}

func TestExecute_RespectsActiveCooldown(t *testing.T) {
	f := newFixture(dueItem())
	f.cooldown.until = time.Now().Add(time.Hour).Unix()

	aborted, err := f.orch.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute lỗi: %v", err)
	}
	if !aborted {
		t.Error("cooldown đang hiệu lực phải trả về true")
	}
	if f.platform.published != 0 {
		t.Error("không được đăng trong cooldown")
	}
}

func TestExecute_ClearsExpiredCooldown(t *testing.T) {
	f := newFixture(dueItem())
	f.cooldown.until = time.Now().Add(-time.Hour).Unix()

	aborted, err := f.orch.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute lỗi: %v", err)
	}
	if aborted {
		t.Error("cooldown hết hạn không được chặn batch")
	}
	if !f.cooldown.cleared {
		t.Error("cooldown hết hạn phải được dọn")
	}
	if f.platform.published != 1 {
		t.Error("sau khi dọn cooldown phải đăng bình thường")
	}
}

func TestExecute_RateLimitBlocksBatch(t *testing.T) {
	f := newFixture(dueItem())
	f.gate.decision = ratelimit.Decision{Reason: "Daily limit reached (2/2 posts)", DailyLimit: 2, PostedToday: 2}

	aborted, err := f.orch.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute lỗi: %v", err)
	}
	if aborted {
		t.Error("rate limit nội bộ không đặt cooldown, không trả về true")
	}
	if f.platform.published != 0 {
		t.Error("không được đăng khi hết quota ngày")
	}
}

func TestExecute_DuplicateMarked(t *testing.T) {
	item := dueItem()
	f := newFixture(item)
	f.detector.verdict = dedup.Verdict{IsDuplicate: true, Reason: "Exact duplicate of recently published content"}

	if _, err := f.orch.Execute(context.Background()); err != nil {
		t.Fatalf("Execute lỗi: %v", err)
	}

	got := f.items.items[item.ID]
	if got.Status != contentmodels.StatusDuplicate {
		t.Errorf("status = %s, muốn duplicate", got.Status)
	}
	if f.platform.published != 0 {
		t.Error("nội dung trùng không được đăng")
	}
}

func TestExecute_PlatformErrorAbortsOnCooldownOutcome(t *testing.T) {
	item := dueItem()
	f := newFixture(item)
	f.platform.err = &classify.APIError{StatusCode: 429, Message: "slow down"}
	f.handler.outcome = classify.Outcome{ErrorCode: classify.CodeRateLimit, Action: classify.ActionCooldown, AbortBatch: true}

	aborted, err := f.orch.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute lỗi: %v", err)
	}
	if !aborted {
		t.Error("outcome cooldown phải dừng batch")
	}
	if len(f.handler.handled) != 1 {
		t.Errorf("handler phải nhận đúng 1 lỗi, got %d", len(f.handler.handled))
	}
}

func TestExecute_RepairsOrphanPublished(t *testing.T) {
	item := dueItem()
	item.PlatformPostID = "orphan_post"
	f := newFixture(item)

	if _, err := f.orch.Execute(context.Background()); err != nil {
		t.Fatalf("Execute lỗi: %v", err)
	}

	got := f.items.items[item.ID]
	if got.Status != contentmodels.StatusPublished {
		t.Errorf("item dở dang phải được sửa sang published, got %s", got.Status)
	}
	if f.platform.published != 0 {
		t.Error("item đã có post ID tuyệt đối không được đăng lại")
	}
	if len(f.records.inserted) != 0 {
		t.Error("sửa trạng thái không ghi thêm record")
	}
}

func TestPublishByID_AlreadyPublished(t *testing.T) {
	item := dueItem()
	item.Status = contentmodels.StatusPublished
	item.PlatformPostID = "page_post_0"
	f := newFixture(item)

	_, err := f.orch.PublishByID(context.Background(), item.ID)
	if !errors.Is(err, common.ErrAlreadyPublished) {
		t.Errorf("muốn ErrAlreadyPublished, got %v", err)
	}
}

func TestPublishByID_Success(t *testing.T) {
	item := dueItem()
	item.Status = contentmodels.StatusDrafted
	item.ScheduledAt = 0
	f := newFixture(item)

	published, err := f.orch.PublishByID(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("PublishByID lỗi: %v", err)
	}
	if published.Status != contentmodels.StatusPublished {
		t.Errorf("status = %s, muốn published", published.Status)
	}
	if published.PlatformPostID == "" {
		t.Error("item published phải có platformPostId")
	}
	if f.lock.released != 1 {
		t.Error("lock phải được nhả sau khi đăng thủ công")
	}
}

func TestPublishByID_CooldownRejected(t *testing.T) {
	item := dueItem()
	f := newFixture(item)
	f.cooldown.until = time.Now().Add(time.Hour).Unix()

	_, err := f.orch.PublishByID(context.Background(), item.ID)
	if !errors.Is(err, common.ErrSystemCooldown) {
		t.Errorf("muốn ErrSystemCooldown, got %v", err)
	}
}

func TestExecute_AccountAgeFromFirstPublishedRecord(t *testing.T) {
	f := newFixture(dueItem())
	f.records.firstAt = time.Now().Add(-40 * 24 * time.Hour).Unix()

	if _, err := f.orch.Execute(context.Background()); err != nil {
		t.Fatalf("Execute lỗi: %v", err)
	}
	if f.gate.ageDays != 40 {
		t.Errorf("ageDays = %d, muốn 40 (tính từ bài đăng đầu tiên)", f.gate.ageDays)
	}
	if limit := ratelimit.DailyLimitForAge(f.gate.ageDays); limit != 5 {
		t.Errorf("tuổi 40 ngày phải vào tier 5 bài/ngày, got %d", limit)
	}
}

func TestExecute_NoHistoryKeepsStrictestTier(t *testing.T) {
	f := newFixture(dueItem())

	if _, err := f.orch.Execute(context.Background()); err != nil {
		t.Fatalf("Execute lỗi: %v", err)
	}
	if f.gate.ageDays != 0 {
		t.Errorf("page chưa đăng bài nào phải có tuổi 0, got %d", f.gate.ageDays)
	}
	if limit := ratelimit.DailyLimitForAge(f.gate.ageDays); limit != 2 {
		t.Errorf("tuổi 0 phải vào tier 2 bài/ngày, got %d", limit)
	}
}

func TestExecute_AccountCreatedAtOverridesHistory(t *testing.T) {
	f := newFixture(dueItem())
	f.accounts.account.AccountCreatedAt = time.Now().Add(-100 * 24 * time.Hour).Unix()
	f.records.firstAt = time.Now().Add(-5 * 24 * time.Hour).Unix()

	if _, err := f.orch.Execute(context.Background()); err != nil {
		t.Fatalf("Execute lỗi: %v", err)
	}
	if f.gate.ageDays != 100 {
		t.Errorf("ageDays = %d, muốn 100 (ngày tạo do admin khai báo được ưu tiên)", f.gate.ageDays)
	}
}

func TestExecute_RequeuesDueRetriesClearingError(t *testing.T) {
	retry := dueItem()
	retry.Status = contentmodels.StatusRetryScheduled
	retry.RetryCount = 2
	retry.LastError = "Graph API request failed with status 503"
	retry.LastErrorCode = classify.CodeServer

	orphan := dueItem()
	orphan.Status = contentmodels.StatusRetryScheduled
	orphan.PlatformPostID = "orphan_post_2"

	f := newFixture(retry, orphan)

	if _, err := f.orch.Execute(context.Background()); err != nil {
		t.Fatalf("Execute lỗi: %v", err)
	}

	got := f.items.items[retry.ID]
	if got.Status != contentmodels.StatusPublished {
		t.Errorf("item retry đến hạn phải được đăng lại, status = %s", got.Status)
	}
	if got.LastError != "" || got.LastErrorCode != "" {
		t.Errorf("lỗi của lần đăng trước phải được xóa khi requeue: %q / %q", got.LastError, got.LastErrorCode)
	}
	if got.RetryCount != 2 {
		t.Errorf("retryCount phải giữ nguyên qua requeue, got %d", got.RetryCount)
	}

	gotOrphan := f.items.items[orphan.ID]
	if gotOrphan.Status != contentmodels.StatusPublished {
		t.Errorf("item dở dang phải được sửa trạng thái, status = %s", gotOrphan.Status)
	}
	if f.platform.published != 1 {
		t.Errorf("chỉ item retry được đăng thật, platform nhận %d lần gọi", f.platform.published)
	}
}
