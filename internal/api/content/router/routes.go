// Package contentrouter đăng ký các route cho domain content.
package contentrouter

import (
	"github.com/gofiber/fiber/v3"

	basehdl "content_factory/internal/api/base/handler"
	contenthdl "content_factory/internal/api/content/handler"
	apirouter "content_factory/internal/api/router"
)

// PublishEngine là orchestrator dùng cho endpoint đăng bài thủ công.
// Gán giá trị tại cmd/server trước khi gọi SetupRoutes.
var PublishEngine contenthdl.ManualPublisher

// Register đăng ký các route của domain content vào group /api/v1
func Register(v1 fiber.Router, r *apirouter.Router) error {
	// Content items: CRUD đầy đủ + các thao tác vòng đời
	contentItemHandler, err := contenthdl.NewContentItemHandler(PublishEngine)
	if err != nil {
		return err
	}
	r.RegisterCRUDRoutes(v1, "/content-items", contentItemHandler, apirouter.ReadWriteConfig)
	apirouter.RegisterRouteWithMiddleware(v1, "/content-items", "POST", "/schedule/:id", nil, contentItemHandler.HandleSchedule)
	apirouter.RegisterRouteWithMiddleware(v1, "/content-items", "POST", "/publish-now/:id", nil, contentItemHandler.HandlePublishNow)
	apirouter.RegisterRouteWithMiddleware(v1, "/content-items", "POST", "/reject/:id", nil, contentItemHandler.HandleReject)

	// Published records: insert phục vụ backfill, còn lại chỉ đọc + cập nhật engagement
	publishedRecordHandler, err := contenthdl.NewPublishedRecordHandler()
	if err != nil {
		return err
	}
	publishedRecordConfig := apirouter.ReadOnlyConfig
	publishedRecordConfig.InsOne = true
	r.RegisterCRUDRoutes(v1, "/published-records", publishedRecordHandler, publishedRecordConfig)
	apirouter.RegisterRouteWithMiddleware(v1, "/published-records", "PUT", "/engagement/:platformPostId", nil, publishedRecordHandler.HandleUpdateEngagement)

	// Page accounts: CRUD đầy đủ
	pageAccountHandler, err := contenthdl.NewPageAccountHandler()
	if err != nil {
		return err
	}
	r.RegisterCRUDRoutes(v1, "/page-accounts", pageAccountHandler, apirouter.ReadWriteConfig)

	// System: quan sát và vận hành engine
	systemHandler, err := contenthdl.NewPublicationSystemHandler()
	if err != nil {
		return err
	}
	apirouter.RegisterRouteWithMiddleware(v1, "/publication", "GET", "/stats", nil, systemHandler.HandleStats)
	apirouter.RegisterRouteWithMiddleware(v1, "/publication", "GET", "/status", nil, systemHandler.HandleSystemStatus)
	apirouter.RegisterRouteWithMiddleware(v1, "/publication", "POST", "/clear-cooldown", nil, systemHandler.HandleClearCooldown)
	apirouter.RegisterRouteWithMiddleware(v1, "/publication", "GET", "/upcoming-slots", nil, systemHandler.HandleUpcomingSlots)

	// Health check có kiểm tra kết nối database, dành cho monitoring
	healthHandler, err := basehdl.NewSystemHandler()
	if err != nil {
		return err
	}
	apirouter.RegisterRouteWithMiddleware(v1, "/system", "GET", "/health", nil, healthHandler.HandleHealth)

	return nil
}
