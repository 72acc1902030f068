package dedup

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	contentmodels "content_factory/internal/api/content/models"
)

// fakePublishedStore giả lập PublishedRecordService trong bộ nhớ
type fakePublishedStore struct {
	records []contentmodels.PublishedRecord
}

func (f *fakePublishedStore) FindPublishedSince(ctx context.Context, since int64) ([]contentmodels.PublishedRecord, error) {
	var result []contentmodels.PublishedRecord
	for _, r := range f.records {
		if r.PublishedAt >= since {
			result = append(result, r)
		}
	}
	return result, nil
}

func (f *fakePublishedStore) ExistsByHashSince(ctx context.Context, contentHash string, since int64) (bool, error) {
	for _, r := range f.records {
		if r.ContentHash == contentHash && r.PublishedAt >= since {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePublishedStore) ExistsBySourceSince(ctx context.Context, sourceURL string, since int64) (bool, error) {
	for _, r := range f.records {
		if r.SourceURL == sourceURL && r.PublishedAt >= since {
			return true, nil
		}
	}
	return false, nil
}

func testConfig() Config {
	return Config{
		SimilarityThreshold: 0.80,
		ContentCooldown:     72 * time.Hour,
		SourceCooldown:      168 * time.Hour,
	}
}

func TestDetector_ExactDuplicate(t *testing.T) {
	title := "Tin nóng hôm nay"
	body := "Giá xăng dầu trong nước tiếp tục biến động mạnh"
	hash, sim := Fingerprint(title, body)

	store := &fakePublishedStore{records: []contentmodels.PublishedRecord{{
		ContentHash: hash,
		SimHash:     StoredSimHash(sim),
		PublishedAt: time.Now().Add(-1 * time.Hour).Unix(),
	}}}

	detector := NewDetector(store, testConfig())
	verdict := detector.Check(context.Background(), contentmodels.ContentItem{Title: title, Body: body})
	if !verdict.IsDuplicate {
		t.Fatal("nội dung trùng chính xác phải bị chặn")
	}
	if !strings.Contains(verdict.Reason, "Exact duplicate") {
		t.Errorf("reason không đúng: %q", verdict.Reason)
	}
}

func TestDetector_ExactDuplicateOutsideCooldown(t *testing.T) {
	title := "Tin cũ"
	body := "Nội dung đã đăng từ tuần trước nhưng ngoài cửa sổ so khớp"
	hash, sim := Fingerprint(title, body)

	// Đăng cách đây 80 giờ, ngoài cửa sổ nội dung 72 giờ
	store := &fakePublishedStore{records: []contentmodels.PublishedRecord{{
		ContentHash: hash,
		SimHash:     StoredSimHash(sim),
		PublishedAt: time.Now().Add(-80 * time.Hour).Unix(),
	}}}

	detector := NewDetector(store, testConfig())
	verdict := detector.Check(context.Background(), contentmodels.ContentItem{Title: title, Body: body})
	if verdict.IsDuplicate {
		t.Error("nội dung ngoài cửa sổ cooldown không được coi là trùng")
	}
}

func TestDetector_SourceCooldown(t *testing.T) {
	store := &fakePublishedStore{records: []contentmodels.PublishedRecord{{
		ContentHash: "abc123",
		SourceURL:   "https://example.com/article-1",
		PublishedAt: time.Now().Add(-100 * time.Hour).Unix(),
	}}}

	detector := NewDetector(store, testConfig())

	// Cùng nguồn, trong cửa sổ nguồn 168 giờ dù đã ngoài cửa sổ nội dung
	verdict := detector.Check(context.Background(), contentmodels.ContentItem{
		Title:     "Bài viết khác hẳn",
		Body:      "Nội dung hoàn toàn mới từ cùng một nguồn",
		SourceURL: "https://example.com/article-1",
	})
	if !verdict.IsDuplicate {
		t.Fatal("cùng nguồn trong cửa sổ source cooldown phải bị chặn")
	}
	if !strings.Contains(verdict.Reason, "example.com/article-1") {
		t.Errorf("reason phải chứa URL nguồn: %q", verdict.Reason)
	}
}

func TestDetector_NearDuplicate(t *testing.T) {
	publishedBody := "chính phủ công bố kế hoạch phát triển kinh tế năm năm giai đoạn mới với nhiều mục tiêu tham vọng về tăng trưởng"
	_, publishedSim := Fingerprint("", publishedBody)

	store := &fakePublishedStore{records: []contentmodels.PublishedRecord{{
		ContentHash:    "khac-hash",
		SimHash:        StoredSimHash(publishedSim),
		PlatformPostID: "123_456",
		PublishedAt:    time.Now().Add(-2 * time.Hour).Unix(),
	}}}

	detector := NewDetector(store, testConfig())
	verdict := detector.Check(context.Background(), contentmodels.ContentItem{
		Body: "chính phủ công bố kế hoạch phát triển kinh tế năm năm giai đoạn mới với nhiều mục tiêu tham vọng về xuất khẩu",
	})
	if !verdict.IsDuplicate {
		t.Fatal("near-duplicate vượt ngưỡng phải bị chặn")
	}
	if !strings.Contains(verdict.Reason, "123_456") {
		t.Errorf("reason phải chứa ID bài trùng: %q", verdict.Reason)
	}
}

func TestDetector_UnrelatedContentPasses(t *testing.T) {
	publishedBody := "đội tuyển bóng đá quốc gia giành chiến thắng đậm trong trận giao hữu quốc tế tối qua tại sân nhà"
	hash, sim := Fingerprint("", publishedBody)

	store := &fakePublishedStore{records: []contentmodels.PublishedRecord{{
		ContentHash: hash,
		SimHash:     StoredSimHash(sim),
		PublishedAt: time.Now().Add(-1 * time.Hour).Unix(),
	}}}

	detector := NewDetector(store, testConfig())
	verdict := detector.Check(context.Background(), contentmodels.ContentItem{
		Title: "Công nghệ",
		Body:  "hãng sản xuất chip lớn nhất thế giới vừa ra mắt thế hệ vi xử lý mới cho trung tâm dữ liệu",
	})
	if verdict.IsDuplicate {
		t.Errorf("nội dung không liên quan không được bị chặn, reason: %q", verdict.Reason)
	}
}

// failingStore giả lập database gặp sự cố ở các lớp được chọn
type failingStore struct {
	fakePublishedStore
	hashErr   error
	sourceErr error
	findErr   error
}

func (f *failingStore) ExistsByHashSince(ctx context.Context, contentHash string, since int64) (bool, error) {
	if f.hashErr != nil {
		return false, f.hashErr
	}
	return f.fakePublishedStore.ExistsByHashSince(ctx, contentHash, since)
}

func (f *failingStore) ExistsBySourceSince(ctx context.Context, sourceURL string, since int64) (bool, error) {
	if f.sourceErr != nil {
		return false, f.sourceErr
	}
	return f.fakePublishedStore.ExistsBySourceSince(ctx, sourceURL, since)
}

func (f *failingStore) FindPublishedSince(ctx context.Context, since int64) ([]contentmodels.PublishedRecord, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.fakePublishedStore.FindPublishedSince(ctx, since)
}

func TestDetector_StoreErrorAllowsContent(t *testing.T) {
	title := "Tin trùng"
	body := "Nội dung đã đăng gần đây nhưng database đang lỗi khi so khớp"
	hash, sim := Fingerprint(title, body)

	dbErr := errors.New("connection reset")
	store := &failingStore{
		fakePublishedStore: fakePublishedStore{records: []contentmodels.PublishedRecord{{
			ContentHash: hash,
			SimHash:     StoredSimHash(sim),
			SourceURL:   "https://example.com/article-9",
			PublishedAt: time.Now().Add(-1 * time.Hour).Unix(),
		}}},
		hashErr:   dbErr,
		sourceErr: dbErr,
		findErr:   dbErr,
	}

	detector := NewDetector(store, testConfig())
	verdict := detector.Check(context.Background(), contentmodels.ContentItem{
		Title:     title,
		Body:      body,
		SourceURL: "https://example.com/article-9",
	})
	if verdict.IsDuplicate {
		t.Errorf("lỗi đọc dữ liệu không được chặn bài, reason: %q", verdict.Reason)
	}
}

func TestDetector_StoreErrorSkipsLayerOnly(t *testing.T) {
	store := &failingStore{
		fakePublishedStore: fakePublishedStore{records: []contentmodels.PublishedRecord{{
			ContentHash: "abc123",
			SourceURL:   "https://example.com/article-2",
			PublishedAt: time.Now().Add(-1 * time.Hour).Unix(),
		}}},
		hashErr: errors.New("timeout"),
	}

	detector := NewDetector(store, testConfig())
	verdict := detector.Check(context.Background(), contentmodels.ContentItem{
		Title:     "Bài mới",
		Body:      "Nội dung mới từ nguồn đã dùng",
		SourceURL: "https://example.com/article-2",
	})
	if !verdict.IsDuplicate {
		t.Fatal("lỗi ở lớp hash không được bỏ qua khớp thật ở lớp nguồn")
	}
	if !strings.Contains(verdict.Reason, "article-2") {
		t.Errorf("reason phải chứa URL nguồn: %q", verdict.Reason)
	}
}
