package main

import (
	"context"

	contentmodels "content_factory/internal/api/content/models"
	contentsvc "content_factory/internal/api/content/service"
	"content_factory/internal/common"
	"content_factory/internal/global"
	"content_factory/internal/logger"
)

// InitDefaultData đảm bảo page được cấu hình có bản ghi account trong database.
// Bản ghi mới có accountCreatedAt = 0: tuổi tài khoản khi đó được suy từ
// bài đăng đầu tiên trong lịch sử, admin có thể cập nhật ngày tạo thật qua API
// để ghi đè.
func InitDefaultData() {
	log := logger.GetAppLogger()
	log.Info("🔄 [INIT] Starting InitDefaultData...")

	pageAccountService, err := contentsvc.NewPageAccountService()
	if err != nil {
		log.Fatalf("Failed to initialize page account service: %v", err)
	}

	cfg := global.MongoDB_ServerConfig
	ctx := context.TODO()

	_, err = pageAccountService.FindByPageID(ctx, cfg.FbPageID)
	if err == nil {
		log.Infof("✅ [INIT] Page account %s already exists", cfg.FbPageID)
		return
	}
	if err != common.ErrNotFound {
		log.Fatalf("Failed to look up page account: %v", err)
	}

	account := contentmodels.PageAccount{
		PageID: cfg.FbPageID,
	}
	if len(cfg.AudienceZones) > 0 {
		account.AudienceZone = cfg.AudienceZones[0]
	}
	created, err := pageAccountService.InsertOne(ctx, account)
	if err != nil {
		log.WithError(err).Error("❌ [INIT] Failed to seed page account")
		return
	}
	log.Infof("✅ [INIT] Seeded page account %s (ID: %s)", cfg.FbPageID, created.ID.Hex())
}
