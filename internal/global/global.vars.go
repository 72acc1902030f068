// Package global chứa các biến toàn cục được chia sẻ trong toàn bộ ứng dụng.
package global

import (
	"content_factory/config"
	"content_factory/internal/registry"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/mongo"
)

// ColNames chứa tên của tất cả các collection trong MongoDB
type ColNames struct {
	ContentItems     string // Collection chứa nội dung chờ đăng và trạng thái vòng đời
	PublishedRecords string // Collection chứa dấu vết các bài đã đăng (hash, simhash, engagement)
	ScheduledSlots   string // Collection chứa các slot đăng bài đã lên lịch
	SystemStatus     string // Collection key/value chứa trạng thái hệ thống (cooldown, lock)
	PageAccounts     string // Collection chứa thông tin page và access token
}

var (
	// MongoDB_ColNames chứa tên các collection, gán giá trị khi khởi động server
	MongoDB_ColNames ColNames

	// MongoDB_ServerConfig là cấu hình server, gán giá trị khi khởi động server
	MongoDB_ServerConfig *config.Configuration

	// MongoDB_Session là session kết nối MongoDB, gán giá trị khi khởi động server
	MongoDB_Session *mongo.Client

	// Validate là instance của validator, dùng để validate dữ liệu DTO
	Validate *validator.Validate

	// RegistryCollections là registry quản lý các collection của MongoDB
	RegistryCollections = registry.NewRegistry[*mongo.Collection]()
)

// GetDB trả về database chính của ứng dụng.
// Panic nếu session chưa được khởi tạo (lỗi lập trình, không phải lỗi runtime).
func GetDB() *mongo.Database {
	if MongoDB_Session == nil {
		panic("MongoDB session has not been initialized")
	}
	return MongoDB_Session.Database(MongoDB_ServerConfig.MongoDB_DBName)
}
