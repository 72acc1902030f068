package basehdl

// Package basehdl - base CRUD handlers.
// Package này cung cấp các chức năng CRUD cơ bản và các tiện ích để xử lý request/response.

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	basesvc "content_factory/internal/api/base/service"
	"content_factory/internal/common"
	"content_factory/internal/global"

	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FilterOptions cấu hình giới hạn cho filter truyền qua query string
type FilterOptions struct {
	DeniedFields     []string // Các field không cho phép filter (bảo vệ dữ liệu nhạy cảm)
	AllowedOperators []string // Các operator MongoDB được phép ($eq, $gt, ...)
	MaxFields        int      // Số field tối đa trong một filter
}

// BaseHandler cung cấp các handler CRUD cơ bản cho một model.
// Type Parameters:
//   - T: Model
//   - CreateInput: DTO cho insert
//   - UpdateInput: DTO cho update
type BaseHandler[T any, CreateInput any, UpdateInput any] struct {
	BaseService   basesvc.BaseServiceMongo[T]
	filterOptions FilterOptions
}

// NewBaseHandler tạo mới BaseHandler với service được cung cấp
func NewBaseHandler[T any, CreateInput any, UpdateInput any](service basesvc.BaseServiceMongo[T]) *BaseHandler[T, CreateInput, UpdateInput] {
	return &BaseHandler[T, CreateInput, UpdateInput]{
		BaseService: service,
		filterOptions: FilterOptions{
			AllowedOperators: []string{"$eq", "$gt", "$gte", "$lt", "$lte", "$in", "$nin", "$exists"},
			MaxFields:        10,
		},
	}
}

// SetFilterOptions cấu hình giới hạn filter cho handler
func (h *BaseHandler[T, CreateInput, UpdateInput]) SetFilterOptions(opts FilterOptions) {
	h.filterOptions = opts
}

// ParseRequestBody parse request body thành struct
func (h *BaseHandler[T, CreateInput, UpdateInput]) ParseRequestBody(c fiber.Ctx, out interface{}) error {
	return c.Bind().Body(out)
}

// ValidateInput validate struct với các tag validate đã đăng ký
func (h *BaseHandler[T, CreateInput, UpdateInput]) ValidateInput(input interface{}) error {
	if global.Validate == nil {
		return nil
	}
	if err := global.Validate.Struct(input); err != nil {
		return common.NewError(
			common.ErrCodeValidationInput,
			fmt.Sprintf("Dữ liệu không hợp lệ: %v", err),
			common.StatusBadRequest,
			err,
		)
	}
	return nil
}

// TransformInputToModel chuyển DTO sang Model qua JSON (các field trùng tên json tag)
func (h *BaseHandler[T, CreateInput, UpdateInput]) TransformInputToModel(input interface{}) (*T, error) {
	jsonData, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}
	var model T
	if err := json.Unmarshal(jsonData, &model); err != nil {
		return nil, err
	}
	return &model, nil
}

// ParseIDParam parse param :id thành ObjectID
func (h *BaseHandler[T, CreateInput, UpdateInput]) ParseIDParam(c fiber.Ctx) (primitive.ObjectID, error) {
	id := c.Params("id")
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, common.NewError(
			common.ErrCodeValidationInput,
			fmt.Sprintf("ID không hợp lệ: %s", id),
			common.StatusBadRequest,
			err,
		)
	}
	return objID, nil
}

// parseFilterFromQuery parse và kiểm duyệt filter JSON từ query string.
// Từ chối field trong DeniedFields, operator ngoài AllowedOperators và filter quá nhiều field.
func (h *BaseHandler[T, CreateInput, UpdateInput]) parseFilterFromQuery(c fiber.Ctx) (map[string]interface{}, error) {
	filterStr := c.Query("filter")
	if filterStr == "" {
		return map[string]interface{}{}, nil
	}

	var filter map[string]interface{}
	if err := json.Unmarshal([]byte(filterStr), &filter); err != nil {
		return nil, common.NewError(
			common.ErrCodeValidationFormat,
			"Filter phải là JSON hợp lệ",
			common.StatusBadRequest,
			err,
		)
	}

	if h.filterOptions.MaxFields > 0 && len(filter) > h.filterOptions.MaxFields {
		return nil, common.NewError(
			common.ErrCodeValidationInput,
			fmt.Sprintf("Filter có quá nhiều field (tối đa %d)", h.filterOptions.MaxFields),
			common.StatusBadRequest,
			nil,
		)
	}

	if err := h.sanitizeFilter(filter); err != nil {
		return nil, err
	}

	return filter, nil
}

// sanitizeFilter kiểm tra đệ quy các field và operator trong filter
func (h *BaseHandler[T, CreateInput, UpdateInput]) sanitizeFilter(filter map[string]interface{}) error {
	for key, value := range filter {
		if strings.HasPrefix(key, "$") {
			allowed := false
			for _, op := range h.filterOptions.AllowedOperators {
				if key == op {
					allowed = true
					break
				}
			}
			if !allowed {
				return common.NewError(
					common.ErrCodeValidationInput,
					fmt.Sprintf("Operator không được phép: %s", key),
					common.StatusBadRequest,
					nil,
				)
			}
		} else {
			for _, denied := range h.filterOptions.DeniedFields {
				if strings.EqualFold(key, denied) {
					return common.NewError(
						common.ErrCodeValidationInput,
						fmt.Sprintf("Field không được phép filter: %s", key),
						common.StatusBadRequest,
						nil,
					)
				}
			}
		}

		if nested, ok := value.(map[string]interface{}); ok {
			if err := h.sanitizeFilter(nested); err != nil {
				return err
			}
		}
	}
	return nil
}

// ====================================
// CÁC HANDLER CRUD
// ====================================

// InsertOne thêm mới một document vào database.
// Dữ liệu được parse từ request body (DTO CreateInput) và chuyển sang Model trước khi thêm vào DB.
func (h *BaseHandler[T, CreateInput, UpdateInput]) InsertOne(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		var input CreateInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, common.NewError(
				common.ErrCodeValidationFormat,
				fmt.Sprintf("Dữ liệu gửi lên không đúng định dạng JSON hoặc không khớp với cấu trúc yêu cầu. Chi tiết: %v", err),
				common.StatusBadRequest,
				err,
			))
			return nil
		}

		if err := h.ValidateInput(&input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		model, err := h.TransformInputToModel(&input)
		if err != nil {
			h.HandleResponse(c, nil, common.NewError(
				common.ErrCodeValidationFormat,
				fmt.Sprintf("Lỗi transform dữ liệu: %v", err),
				common.StatusBadRequest,
				err,
			))
			return nil
		}

		data, err := h.BaseService.InsertOne(c.Context(), *model)
		h.HandleResponse(c, data, err)
		return nil
	})
}

// Find tìm nhiều document theo điều kiện filter.
// Filter được truyền qua query string dưới dạng JSON.
func (h *BaseHandler[T, CreateInput, UpdateInput]) Find(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		filter, err := h.parseFilterFromQuery(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		data, err := h.BaseService.Find(c.Context(), filter, nil)
		h.HandleResponse(c, data, err)
		return nil
	})
}

// FindOneById tìm một document theo ID. ID được truyền qua URI params.
func (h *BaseHandler[T, CreateInput, UpdateInput]) FindOneById(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		id, err := h.ParseIDParam(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		data, err := h.BaseService.FindOneById(c.Context(), id)
		h.HandleResponse(c, data, err)
		return nil
	})
}

// FindWithPagination tìm nhiều document với phân trang.
// Query params: filter (JSON), page (mặc định 1), limit (mặc định 10).
func (h *BaseHandler[T, CreateInput, UpdateInput]) FindWithPagination(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		filter, err := h.parseFilterFromQuery(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		page, _ := strconv.ParseInt(c.Query("page", "1"), 10, 64)
		limit, _ := strconv.ParseInt(c.Query("limit", "10"), 10, 64)

		data, err := h.BaseService.FindWithPagination(c.Context(), filter, page, limit, nil)
		h.HandleResponse(c, data, err)
		return nil
	})
}

// UpdateById cập nhật một document theo ID với dữ liệu từ DTO UpdateInput.
func (h *BaseHandler[T, CreateInput, UpdateInput]) UpdateById(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		id, err := h.ParseIDParam(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		var input UpdateInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, common.NewError(
				common.ErrCodeValidationFormat,
				fmt.Sprintf("Dữ liệu gửi lên không đúng định dạng JSON. Chi tiết: %v", err),
				common.StatusBadRequest,
				err,
			))
			return nil
		}

		if err := h.ValidateInput(&input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		data, err := h.BaseService.UpdateById(c.Context(), id, input)
		h.HandleResponse(c, data, err)
		return nil
	})
}

// DeleteById xóa một document theo ID
func (h *BaseHandler[T, CreateInput, UpdateInput]) DeleteById(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		id, err := h.ParseIDParam(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		err = h.BaseService.DeleteById(c.Context(), id)
		h.HandleResponse(c, nil, err)
		return nil
	})
}

// CountDocuments đếm số document theo điều kiện filter
func (h *BaseHandler[T, CreateInput, UpdateInput]) CountDocuments(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		filter, err := h.parseFilterFromQuery(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		count, err := h.BaseService.CountDocuments(c.Context(), filter)
		h.HandleResponse(c, fiber.Map{"count": count}, err)
		return nil
	})
}

// Upsert cập nhật document theo filter, tạo mới nếu chưa tồn tại.
// Body: {"filter": {...}, "data": {...}}
func (h *BaseHandler[T, CreateInput, UpdateInput]) Upsert(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		var body struct {
			Filter map[string]interface{} `json:"filter"`
			Data   map[string]interface{} `json:"data"`
		}
		if err := h.ParseRequestBody(c, &body); err != nil {
			h.HandleResponse(c, nil, common.NewError(
				common.ErrCodeValidationFormat,
				fmt.Sprintf("Dữ liệu gửi lên không đúng định dạng JSON. Chi tiết: %v", err),
				common.StatusBadRequest,
				err,
			))
			return nil
		}

		if len(body.Filter) == 0 {
			h.HandleResponse(c, nil, common.ErrInvalidInput)
			return nil
		}

		data, err := h.BaseService.Upsert(c.Context(), body.Filter, body.Data)
		h.HandleResponse(c, data, err)
		return nil
	})
}

// DocumentExists kiểm tra document có tồn tại theo filter không
func (h *BaseHandler[T, CreateInput, UpdateInput]) DocumentExists(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		filter, err := h.parseFilterFromQuery(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		exists, err := h.BaseService.DocumentExists(c.Context(), filter)
		h.HandleResponse(c, fiber.Map{"exists": exists}, err)
		return nil
	})
}
