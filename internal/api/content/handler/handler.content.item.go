package contenthdl

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"

	contentdto "content_factory/internal/api/content/dto"
	contentmodels "content_factory/internal/api/content/models"
	contentsvc "content_factory/internal/api/content/service"
	basehdl "content_factory/internal/api/base/handler"
	"content_factory/internal/common"
	"content_factory/internal/logger"
)

// ManualPublisher đăng một content item theo yêu cầu thủ công.
// Orchestrator của engine triển khai interface này, handler chỉ giữ tham chiếu.
type ManualPublisher interface {
	PublishByID(ctx context.Context, id primitive.ObjectID) (contentmodels.ContentItem, error)
}

// ContentItemHandler xử lý các request CRUD và thao tác vòng đời cho content items
type ContentItemHandler struct {
	basehdl.BaseHandler[contentmodels.ContentItem, contentdto.ContentItemCreateInput, contentdto.ContentItemUpdateInput]
	service   *contentsvc.ContentItemService
	publisher ManualPublisher
}

// NewContentItemHandler tạo mới ContentItemHandler
func NewContentItemHandler(publisher ManualPublisher) (*ContentItemHandler, error) {
	service, err := contentsvc.NewContentItemService()
	if err != nil {
		return nil, err
	}

	handler := &ContentItemHandler{
		service:   service,
		publisher: publisher,
	}
	handler.BaseService = service

	handler.SetFilterOptions(basehdl.FilterOptions{
		DeniedFields: []string{"password", "token", "secret", "key", "hash"},
	})

	return handler, nil
}

// HandleSchedule gán thời điểm đăng cho một item drafted và chuyển sang scheduled.
// Body: { "scheduledAt": <unix giây> }
func (h *ContentItemHandler) HandleSchedule(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		id, err := h.ParseIDParam(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		var input struct {
			ScheduledAt int64 `json:"scheduledAt" validate:"required,gt=0"`
		}
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, common.ErrInvalidFormat)
			return nil
		}
		if err := h.ValidateInput(&input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		updated, err := h.service.AssignSchedule(c.Context(), id, input.ScheduledAt)
		if err == nil {
			logger.LogPublish("schedule", updated.ID.Hex(), c, map[string]interface{}{
				"scheduledAt": input.ScheduledAt,
			})
		}
		h.HandleResponse(c, updated, err)
		return nil
	})
}

// HandlePublishNow đăng một item ngay lập tức, bỏ qua lịch nhưng vẫn qua đầy đủ
// các lớp an toàn của engine (lock, cooldown, rate limit, dedup)
func (h *ContentItemHandler) HandlePublishNow(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		id, err := h.ParseIDParam(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		if h.publisher == nil {
			h.HandleResponse(c, nil, common.NewError(
				common.ErrCodePublication,
				"Publish engine chưa được khởi tạo",
				common.StatusServiceUnavailable,
				nil,
			))
			return nil
		}

		published, err := h.publisher.PublishByID(c.Context(), id)
		if err == nil {
			logger.LogPublish("publish_now", published.ID.Hex(), c, map[string]interface{}{
				"platformPostId": published.PlatformPostID,
			})
		}
		h.HandleResponse(c, published, err)
		return nil
	})
}

// HandleReject loại một item khỏi pipeline (trạng thái terminal rejected)
func (h *ContentItemHandler) HandleReject(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		id, err := h.ParseIDParam(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		updated, err := h.service.CASStatus(c.Context(), id, []string{
			contentmodels.StatusDrafted,
			contentmodels.StatusScheduled,
			contentmodels.StatusRetryScheduled,
		}, contentmodels.StatusRejected)
		if err == nil {
			logger.LogPublish("reject", updated.ID.Hex(), c, nil)
		}
		h.HandleResponse(c, updated, err)
		return nil
	})
}
