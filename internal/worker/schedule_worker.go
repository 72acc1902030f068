package worker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"content_factory/internal/engine/scheduling"
	"content_factory/internal/logger"
)

// ScheduleWorker worker sinh slot đăng bài định kỳ: mỗi interval sinh slot mới
// cho các ngày tới, gán item drafted vào slot trống và dọn slot đã qua
type ScheduleWorker struct {
	scheduler *scheduling.Scheduler
	interval  time.Duration // Khoảng thời gian giữa các lần chạy
}

// NewScheduleWorker tạo mới ScheduleWorker.
// Tham số:
//   - interval: Khoảng thời gian giữa các lần sinh slot (mặc định: 24 giờ)
func NewScheduleWorker(scheduler *scheduling.Scheduler, interval time.Duration) *ScheduleWorker {
	if interval < time.Minute {
		interval = 24 * time.Hour
	}
	return &ScheduleWorker{
		scheduler: scheduler,
		interval:  interval,
	}
}

// Start chạy worker trong vòng lặp. Lần đầu chạy ngay khi khởi động
// để hệ thống mới không phải chờ trọn một interval mới có slot.
func (w *ScheduleWorker) Start(ctx context.Context) {
	log := logger.GetAppLogger()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	log.WithFields(map[string]interface{}{
		"interval": w.interval.String(),
	}).Info("📅 [SCHEDULER] Starting Schedule Worker...")

	w.runOnce(ctx, log)

	for {
		select {
		case <-ctx.Done():
			log.Info("📅 [SCHEDULER] Schedule Worker stopped")
			return
		case <-ticker.C:
			w.runOnce(ctx, log)
		}
	}
}

// runOnce chạy một lượt sinh slot, gán item và dọn slot cũ
func (w *ScheduleWorker) runOnce(ctx context.Context, log *logrus.Logger) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(map[string]interface{}{
				"panic": r,
			}).Error("📅 [SCHEDULER] Panic khi sinh slot, sẽ tiếp tục ở lần chạy tiếp theo")
		}
	}()

	now := time.Now()

	generated, err := w.scheduler.GenerateSlots(ctx, now)
	if err != nil {
		log.WithError(err).Error("📅 [SCHEDULER] Lỗi sinh slot")
		return
	}

	assigned, err := w.scheduler.AssignDrafted(ctx, now)
	if err != nil {
		log.WithError(err).Error("📅 [SCHEDULER] Lỗi gán item vào slot")
		return
	}

	deleted, err := w.scheduler.CleanupPast(ctx, now)
	if err != nil {
		log.WithError(err).Error("📅 [SCHEDULER] Lỗi dọn slot cũ")
		return
	}

	if generated > 0 || assigned > 0 || deleted > 0 {
		log.WithFields(map[string]interface{}{
			"generated": generated,
			"assigned":  assigned,
			"cleaned":   deleted,
		}).Info("📅 [SCHEDULER] Hoàn tất lượt lập lịch")
	}
}
