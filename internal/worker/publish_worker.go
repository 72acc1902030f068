package worker

import (
	"context"
	"time"

	"content_factory/internal/engine/publish"
	"content_factory/internal/logger"
)

// PublishWorker worker đăng bài định kỳ: mỗi interval chạy một lượt orchestrator
// qua đầy đủ các lớp an toàn (lock, cooldown, rate limit, dedup).
// Khi batch bị dừng vì cooldown, worker ngủ đến lần tick sau như bình thường,
// orchestrator sẽ tự từ chối cho đến khi cooldown hết hạn.
type PublishWorker struct {
	orchestrator *publish.Orchestrator
	interval     time.Duration // Khoảng thời gian giữa các lần chạy
}

// NewPublishWorker tạo mới PublishWorker.
// Tham số:
//   - interval: Khoảng thời gian giữa các lượt đăng (mặc định: 10 phút)
func NewPublishWorker(orchestrator *publish.Orchestrator, interval time.Duration) *PublishWorker {
	if interval < time.Minute {
		interval = 10 * time.Minute
	}
	return &PublishWorker{
		orchestrator: orchestrator,
		interval:     interval,
	}
}

// Start chạy worker trong vòng lặp: mỗi interval gọi Execute một lượt
func (w *PublishWorker) Start(ctx context.Context) {
	log := logger.GetAppLogger()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	log.WithFields(map[string]interface{}{
		"interval": w.interval.String(),
	}).Info("📤 [PUBLISH] Starting Publish Worker...")

	for {
		select {
		case <-ctx.Done():
			log.Info("📤 [PUBLISH] Publish Worker stopped")
			return
		case <-ticker.C:
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.WithFields(map[string]interface{}{
							"panic": r,
						}).Error("📤 [PUBLISH] Panic trong lượt đăng, sẽ tiếp tục ở lần chạy tiếp theo")
					}
				}()

				cooldown, err := w.orchestrator.Execute(ctx)
				if err != nil {
					log.WithError(err).Error("📤 [PUBLISH] Lượt đăng thất bại")
					return
				}
				if cooldown {
					log.Warn("📤 [PUBLISH] Lượt đăng dừng vì cooldown hệ thống")
				}
			}()
		}
	}
}
