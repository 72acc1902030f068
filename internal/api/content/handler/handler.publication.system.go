package contenthdl

import (
	"time"

	"github.com/gofiber/fiber/v3"

	contentmodels "content_factory/internal/api/content/models"
	contentsvc "content_factory/internal/api/content/service"
	basehdl "content_factory/internal/api/base/handler"
	"content_factory/internal/logger"
)

// PublicationSystemHandler xử lý các route quan sát và vận hành engine đăng bài:
// thống kê pipeline, trạng thái cooldown/lock, xóa cooldown thủ công, xem slot sắp tới
type PublicationSystemHandler struct {
	*basehdl.BaseHandler[interface{}, interface{}, interface{}]
	contentItemService     *contentsvc.ContentItemService
	publishedRecordService *contentsvc.PublishedRecordService
	systemStatusService    *contentsvc.SystemStatusService
	scheduledSlotService   *contentsvc.ScheduledSlotService
}

// NewPublicationSystemHandler tạo mới PublicationSystemHandler
func NewPublicationSystemHandler() (*PublicationSystemHandler, error) {
	contentItemService, err := contentsvc.NewContentItemService()
	if err != nil {
		return nil, err
	}
	publishedRecordService, err := contentsvc.NewPublishedRecordService()
	if err != nil {
		return nil, err
	}
	systemStatusService, err := contentsvc.NewSystemStatusService()
	if err != nil {
		return nil, err
	}
	scheduledSlotService, err := contentsvc.NewScheduledSlotService()
	if err != nil {
		return nil, err
	}

	return &PublicationSystemHandler{
		BaseHandler:            &basehdl.BaseHandler[interface{}, interface{}, interface{}]{},
		contentItemService:     contentItemService,
		publishedRecordService: publishedRecordService,
		systemStatusService:    systemStatusService,
		scheduledSlotService:   scheduledSlotService,
	}, nil
}

// HandleStats trả về thống kê pipeline: số item theo trạng thái, số bài đăng hôm nay
// (tính từ 00:00 UTC), tỷ lệ lỗi 24 giờ gần nhất và thời điểm đăng gần nhất
func (h *PublicationSystemHandler) HandleStats(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		ctx := c.Context()
		now := time.Now().UTC()

		counts, err := h.contentItemService.CountByStatus(ctx)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		publishedToday, err := h.publishedRecordService.CountSince(ctx, midnight.Unix())
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		errorRate, err := h.contentItemService.ErrorRate(ctx, now.Add(-24*time.Hour).UnixMilli())
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		lastPublishedAt, err := h.publishedRecordService.LastPublishedAt(ctx)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		h.HandleResponse(c, fiber.Map{
			"statusCounts":    counts,
			"publishedToday":  publishedToday,
			"errorRate24h":    errorRate,
			"lastPublishedAt": lastPublishedAt,
		}, nil)
		return nil
	})
}

// HandleSystemStatus trả về trạng thái an toàn hiện tại: cooldown, lỗi cuối và lock đang giữ
func (h *PublicationSystemHandler) HandleSystemStatus(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		ctx := c.Context()

		cooldownUntil, err := h.systemStatusService.GetCooldownUntil(ctx)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		lastErrorCode, err := h.systemStatusService.GetValue(ctx, contentmodels.StatusKeyLastErrorCode)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		lastErrorAction, err := h.systemStatusService.GetValue(ctx, contentmodels.StatusKeyLastErrorAction)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		running, err := h.systemStatusService.GetValue(ctx, contentmodels.StatusKeyRunning)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		runningSince, err := h.systemStatusService.GetInt64(ctx, contentmodels.StatusKeyRunningSince)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		now := time.Now().Unix()
		h.HandleResponse(c, fiber.Map{
			"cooldownActive":  cooldownUntil > now,
			"cooldownUntil":   cooldownUntil,
			"lastErrorCode":   lastErrorCode,
			"lastErrorAction": lastErrorAction,
			"lockHeld":        running != "",
			"lockId":          running,
			"lockSince":       runningSince,
		}, nil)
		return nil
	})
}

// HandleClearCooldown xóa cooldown thủ công sau khi vận hành viên đã xử lý sự cố
func (h *PublicationSystemHandler) HandleClearCooldown(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		ctx := c.Context()

		if err := h.systemStatusService.ClearCooldown(ctx); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		if err := h.systemStatusService.DeleteKey(ctx, contentmodels.StatusKeyLastErrorCode); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		if err := h.systemStatusService.DeleteKey(ctx, contentmodels.StatusKeyLastErrorAction); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		logger.LogAction("clear_cooldown", c, nil)
		h.HandleResponse(c, fiber.Map{"cleared": true}, nil)
		return nil
	})
}

// HandleUpcomingSlots trả về các slot đăng bài trong 7 ngày tới
func (h *PublicationSystemHandler) HandleUpcomingSlots(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		now := time.Now().Unix()
		slots, err := h.scheduledSlotService.FindBetween(c.Context(), now, now+7*86400)
		h.HandleResponse(c, slots, err)
		return nil
	})
}
