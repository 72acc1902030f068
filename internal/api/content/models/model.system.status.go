package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Các key trong collection system_status
const (
	StatusKeyCooldownUntil   = "cooldown_until"    // Unix giây, hệ thống không đăng bài trước thời điểm này
	StatusKeyLastErrorCode   = "last_error_code"   // Phân loại lỗi gần nhất kích hoạt cooldown
	StatusKeyLastErrorAction = "last_error_action" // Hành động đã thực hiện cho lỗi gần nhất
	StatusKeyRunning         = "running"           // Lock ID của tiến trình đăng bài đang chạy
	StatusKeyRunningSince    = "running_since"     // Unix giây, thời điểm tiến trình giành lock
)

// SystemStatus là một cặp key/value trạng thái hệ thống dùng chung giữa các tiến trình.
// Lớp thứ hai của process lock và trạng thái cooldown nằm ở đây.
type SystemStatus struct {
	ID    primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"` // ID của record
	Key   string             `json:"key" bson:"key" index:"unique"`     // Key trạng thái
	Value string             `json:"value" bson:"value"`                // Giá trị (số lưu dưới dạng chuỗi thập phân)

	CreatedAt int64 `json:"createdAt" bson:"createdAt"` // Thời gian tạo (unix millis)
	UpdatedAt int64 `json:"updatedAt" bson:"updatedAt"` // Thời gian cập nhật (unix millis)
}
