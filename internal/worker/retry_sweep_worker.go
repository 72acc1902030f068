package worker

import (
	"context"
	"time"

	contentsvc "content_factory/internal/api/content/service"
	"content_factory/internal/logger"
)

// RetrySweepWorker worker quét các item retry_scheduled đã đến hạn
// và đưa trở lại hàng đợi scheduled cho lượt đăng tiếp theo
type RetrySweepWorker struct {
	contentItemService *contentsvc.ContentItemService
	interval           time.Duration // Khoảng thời gian giữa các lần quét
}

// NewRetrySweepWorker tạo mới RetrySweepWorker.
// Tham số:
//   - interval: Khoảng thời gian giữa các lần quét (mặc định: 5 phút)
func NewRetrySweepWorker(interval time.Duration) (*RetrySweepWorker, error) {
	contentItemService, err := contentsvc.NewContentItemService()
	if err != nil {
		return nil, err
	}
	if interval < time.Minute {
		interval = 5 * time.Minute
	}
	return &RetrySweepWorker{
		contentItemService: contentItemService,
		interval:           interval,
	}, nil
}

// Start chạy worker trong vòng lặp: mỗi interval chuyển item retry đến hạn về scheduled
func (w *RetrySweepWorker) Start(ctx context.Context) {
	log := logger.GetAppLogger()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	log.WithFields(map[string]interface{}{
		"interval": w.interval.String(),
	}).Info("🔁 [RETRY] Starting Retry Sweep Worker...")

	for {
		select {
		case <-ctx.Done():
			log.Info("🔁 [RETRY] Retry Sweep Worker stopped")
			return
		case <-ticker.C:
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.WithFields(map[string]interface{}{
							"panic": r,
						}).Error("🔁 [RETRY] Panic khi quét retry, sẽ tiếp tục ở lần chạy tiếp theo")
					}
				}()

				requeued, err := w.contentItemService.RequeueDueRetries(ctx, time.Now().Unix())
				if err != nil {
					log.WithError(err).Error("🔁 [RETRY] Lỗi quét item retry đến hạn")
					return
				}
				if requeued > 0 {
					log.WithFields(map[string]interface{}{
						"requeued": requeued,
					}).Info("🔁 [RETRY] Đưa item retry đến hạn trở lại hàng đợi")
				}
			}()
		}
	}
}
