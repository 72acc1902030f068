package contenthdl

import (
	"github.com/gofiber/fiber/v3"

	contentdto "content_factory/internal/api/content/dto"
	contentmodels "content_factory/internal/api/content/models"
	contentsvc "content_factory/internal/api/content/service"
	basehdl "content_factory/internal/api/base/handler"
	"content_factory/internal/common"
)

// PublishedRecordHandler xử lý các request cho dấu vết bài đã đăng
type PublishedRecordHandler struct {
	basehdl.BaseHandler[contentmodels.PublishedRecord, contentdto.PublishedRecordCreateInput, contentdto.PublishedRecordUpdateInput]
	service *contentsvc.PublishedRecordService
}

// NewPublishedRecordHandler tạo mới PublishedRecordHandler
func NewPublishedRecordHandler() (*PublishedRecordHandler, error) {
	service, err := contentsvc.NewPublishedRecordService()
	if err != nil {
		return nil, err
	}

	handler := &PublishedRecordHandler{
		service: service,
	}
	handler.BaseService = service

	handler.SetFilterOptions(basehdl.FilterOptions{
		DeniedFields: []string{"password", "token", "secret", "key"},
	})

	return handler, nil
}

// HandleUpdateEngagement cập nhật snapshot tương tác cho một bài theo platformPostId.
// Body: EngagementInput
func (h *PublishedRecordHandler) HandleUpdateEngagement(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		platformPostID := c.Params("platformPostId")
		if platformPostID == "" {
			h.HandleResponse(c, nil, common.ErrInvalidInput)
			return nil
		}

		var input contentdto.EngagementInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, common.ErrInvalidFormat)
			return nil
		}
		if err := h.ValidateInput(&input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		updated, err := h.service.UpdateEngagement(c.Context(), platformPostID, contentmodels.EngagementSnapshot{
			Likes:    input.Likes,
			Comments: input.Comments,
			Shares:   input.Shares,
			Reach:    input.Reach,
		})
		h.HandleResponse(c, updated, err)
		return nil
	})
}
