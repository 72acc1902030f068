package contentsvc

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	contentmodels "content_factory/internal/api/content/models"
	basesvc "content_factory/internal/api/base/service"
	"content_factory/internal/common"
	"content_factory/internal/global"
)

// PageAccountService là service quản lý các page đích
type PageAccountService struct {
	*basesvc.BaseServiceMongoImpl[contentmodels.PageAccount]
}

// NewPageAccountService tạo mới PageAccountService
func NewPageAccountService() (*PageAccountService, error) {
	collection, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.PageAccounts)
	if !exist {
		return nil, fmt.Errorf("failed to get page_accounts collection: %v", common.ErrNotFound)
	}

	return &PageAccountService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[contentmodels.PageAccount](collection),
	}, nil
}

// FindByPageID tìm page theo ID trên nền tảng
func (s *PageAccountService) FindByPageID(ctx context.Context, pageID string) (contentmodels.PageAccount, error) {
	return s.FindOne(ctx, bson.M{"pageId": pageID}, nil)
}
