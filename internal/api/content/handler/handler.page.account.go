package contenthdl

import (
	contentdto "content_factory/internal/api/content/dto"
	contentmodels "content_factory/internal/api/content/models"
	contentsvc "content_factory/internal/api/content/service"
	basehdl "content_factory/internal/api/base/handler"
)

// PageAccountHandler xử lý các request CRUD cho page đích
type PageAccountHandler struct {
	basehdl.BaseHandler[contentmodels.PageAccount, contentdto.PageAccountCreateInput, contentdto.PageAccountUpdateInput]
	service *contentsvc.PageAccountService
}

// NewPageAccountHandler tạo mới PageAccountHandler
func NewPageAccountHandler() (*PageAccountHandler, error) {
	service, err := contentsvc.NewPageAccountService()
	if err != nil {
		return nil, err
	}

	handler := &PageAccountHandler{
		service: service,
	}
	handler.BaseService = service

	handler.SetFilterOptions(basehdl.FilterOptions{
		DeniedFields: []string{"password", "token", "secret", "key"},
	})

	return handler, nil
}
