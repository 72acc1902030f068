package dedup

import (
	"context"
	"fmt"
	"time"

	contentmodels "content_factory/internal/api/content/models"
	"content_factory/internal/logger"
)

// publishedStore là phần của PublishedRecordService mà detector cần
type publishedStore interface {
	FindPublishedSince(ctx context.Context, since int64) ([]contentmodels.PublishedRecord, error)
	ExistsByHashSince(ctx context.Context, contentHash string, since int64) (bool, error)
	ExistsBySourceSince(ctx context.Context, sourceURL string, since int64) (bool, error)
}

// Config cấu hình các ngưỡng phát hiện trùng lặp
type Config struct {
	SimilarityThreshold float64       // Ngưỡng SimHash coi là trùng (0.80)
	ContentCooldown     time.Duration // Cửa sổ so khớp nội dung (72h)
	SourceCooldown      time.Duration // Cửa sổ so khớp nguồn (168h)
}

// Verdict là kết quả kiểm tra trùng lặp của một content item
type Verdict struct {
	IsDuplicate bool    // Item có bị coi là trùng không
	Reason      string  // Lý do khi trùng
	Similarity  float64 // Độ tương đồng cao nhất tìm thấy (chỉ có nghĩa với near-duplicate)
}

// Detector kiểm tra một content item với các bài đã đăng
type Detector struct {
	store publishedStore
	cfg   Config
}

// NewDetector tạo mới Detector
func NewDetector(store publishedStore, cfg Config) *Detector {
	return &Detector{
		store: store,
		cfg:   cfg,
	}
}

// Check kiểm tra item theo thứ tự: hash chính xác trong cửa sổ nội dung,
// nguồn trong cửa sổ nguồn, rồi SimHash với từng bài đã đăng trong cửa sổ nội dung.
// Lỗi đọc dữ liệu ở một lớp chỉ ghi log rồi bỏ qua lớp đó: sự cố hạ tầng
// không được chặn oan một bài, nhưng khớp thật ở lớp khác vẫn chặn.
func (d *Detector) Check(ctx context.Context, item contentmodels.ContentItem) Verdict {
	now := time.Now()
	contentSince := now.Add(-d.cfg.ContentCooldown).Unix()
	sourceSince := now.Add(-d.cfg.SourceCooldown).Unix()

	contentHash, simHash := Fingerprint(item.Title, item.Body)

	// Lớp 1: trùng chính xác
	exists, err := d.store.ExistsByHashSince(ctx, contentHash, contentSince)
	if err != nil {
		d.logStoreError("exact-hash", err)
	} else if exists {
		verdict := Verdict{
			IsDuplicate: true,
			Reason:      "Exact duplicate of recently published content",
		}
		d.logVerdict(item, verdict)
		return verdict
	}

	// Lớp 2: cùng nguồn trong cửa sổ nguồn
	if item.SourceURL != "" {
		exists, err = d.store.ExistsBySourceSince(ctx, item.SourceURL, sourceSince)
		if err != nil {
			d.logStoreError("source", err)
		} else if exists {
			verdict := Verdict{
				IsDuplicate: true,
				Reason:      fmt.Sprintf("Source %s already published within cooldown window", item.SourceURL),
			}
			d.logVerdict(item, verdict)
			return verdict
		}
	}

	// Lớp 3: near-duplicate theo SimHash
	records, err := d.store.FindPublishedSince(ctx, contentSince)
	if err != nil {
		d.logStoreError("simhash", err)
		return Verdict{}
	}

	maxSimilarity := 0.0
	for _, record := range records {
		similarity := Similarity(simHash, SimHashFromStored(record.SimHash))
		if similarity > maxSimilarity {
			maxSimilarity = similarity
		}
		if similarity >= d.cfg.SimilarityThreshold {
			verdict := Verdict{
				IsDuplicate: true,
				Reason:      fmt.Sprintf("Near-duplicate of post %s (similarity %.2f)", record.PlatformPostID, similarity),
				Similarity:  similarity,
			}
			d.logVerdict(item, verdict)
			return verdict
		}
	}

	return Verdict{Similarity: maxSimilarity}
}

func (d *Detector) logStoreError(layer string, err error) {
	logger.WithModule("dedup").WithError(err).Warnf("🛡️ [DEDUP] Lỗi đọc dữ liệu ở lớp %s, bỏ qua lớp này", layer)
}

func (d *Detector) logVerdict(item contentmodels.ContentItem, verdict Verdict) {
	logger.WithModule("dedup").WithFields(map[string]interface{}{
		"contentId": item.ID.Hex(),
		"reason":    verdict.Reason,
	}).Warnf("🛡️ [DEDUP] Chặn nội dung trùng lặp: %s", verdict.Reason)
}
