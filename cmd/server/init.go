package main

import (
	"context"

	"content_factory/config"
	contentmodels "content_factory/internal/api/content/models"
	"content_factory/internal/database"
	"content_factory/internal/global"

	"github.com/sirupsen/logrus"
)

// Hàm khởi tạo các biến toàn cục
func InitGlobal() {
	initColNames()         // Khởi tạo tên các collection trong database
	initValidator()        // Khởi tạo validator
	initConfig()           // Khởi tạo cấu hình server
	initDatabase_MongoDB() // Khởi tạo kết nối database
}

// Hàm khởi tạo tên các collection trong database
func initColNames() {
	global.MongoDB_ColNames.ContentItems = "content_items"
	global.MongoDB_ColNames.PublishedRecords = "published_records"
	global.MongoDB_ColNames.ScheduledSlots = "scheduled_slots"
	global.MongoDB_ColNames.SystemStatus = "system_status"
	global.MongoDB_ColNames.PageAccounts = "page_accounts"

	logrus.Info("Initialized collection names") // Ghi log thông báo đã khởi tạo tên các collection
}

// Hàm khởi tạo validator (dùng global.InitValidator để đăng ký custom validators: no_xss, content_kind, ...)
func initValidator() {
	global.InitValidator()
	logrus.Info("Initialized validator") // Ghi log thông báo đã khởi tạo validator
}

// Hàm khởi tạo cấu hình server
func initConfig() {
	global.MongoDB_ServerConfig = config.NewConfig()
	if global.MongoDB_ServerConfig == nil {
		logrus.Fatalf("Failed to initialize config: config is nil") // Ghi log lỗi nếu khởi tạo cấu hình thất bại
	}
	logrus.Info("Initialized server config") // Ghi log thông báo đã khởi tạo cấu hình server
}

// Hàm khởi tạo kết nối database
func initDatabase_MongoDB() {
	var err error
	global.MongoDB_Session, err = database.GetInstance(global.MongoDB_ServerConfig)
	if err != nil {
		logrus.Fatalf("Failed to get database instance: %v", err) // Ghi log lỗi nếu kết nối database thất bại
	}
	logrus.Info("Connected to MongoDB") // Ghi log thông báo đã kết nối database thành công

	// Khởi tạo các index cho các collection theo tag `index` trên model
	db := global.GetDB()
	database.CreateIndexes(context.TODO(), db.Collection(global.MongoDB_ColNames.ContentItems), contentmodels.ContentItem{})
	database.CreateIndexes(context.TODO(), db.Collection(global.MongoDB_ColNames.PublishedRecords), contentmodels.PublishedRecord{})
	database.CreateIndexes(context.TODO(), db.Collection(global.MongoDB_ColNames.ScheduledSlots), contentmodels.ScheduledSlot{})
	database.CreateIndexes(context.TODO(), db.Collection(global.MongoDB_ColNames.SystemStatus), contentmodels.SystemStatus{})
	database.CreateIndexes(context.TODO(), db.Collection(global.MongoDB_ColNames.PageAccounts), contentmodels.PageAccount{})

	// Các index ghép không biểu diễn được bằng tag trên model
	if err := database.CreatePublicationAdditionalIndexes(context.TODO(), db); err != nil {
		logrus.Errorf("Failed to create additional indexes: %v", err)
	}
	logrus.Info("Ensured collection indexes") // Ghi log thông báo đã đảm bảo index cho các collection
}
