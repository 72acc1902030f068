package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Trạng thái vòng đời của một content item
const (
	StatusDrafted        = "drafted"         // Mới tạo, chưa lên lịch
	StatusScheduled      = "scheduled"       // Đã gán slot đăng bài
	StatusRetryScheduled = "retry_scheduled" // Đăng thất bại, chờ retry theo backoff
	StatusPublishing     = "publishing"      // Đang trong quá trình đăng (trạng thái in-flight, giữ bởi CAS)
	StatusPublished      = "published"       // Đã đăng thành công (terminal)
	StatusFailed         = "failed"          // Thất bại vĩnh viễn (terminal)
	StatusDuplicate      = "duplicate"       // Bị chặn vì trùng lặp (terminal)
	StatusRejected       = "rejected"        // Bị loại khỏi pipeline (terminal)
)

// Loại nội dung
const (
	KindText = "text"
	KindReel = "reel"
)

// IsTerminalStatus kiểm tra trạng thái có phải terminal không.
// Item ở trạng thái terminal không bao giờ được đăng lại.
func IsTerminalStatus(status string) bool {
	switch status {
	case StatusPublished, StatusFailed, StatusDuplicate, StatusRejected:
		return true
	}
	return false
}

// ContentItem đại diện cho một nội dung trong pipeline đăng bài.
// Bất biến quan trọng: PlatformPostID khác rỗng khi và chỉ khi Status == published.
type ContentItem struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`                        // ID của nội dung
	Title       string             `json:"title" bson:"title"`                                       // Tiêu đề
	Body        string             `json:"body" bson:"body"`                                         // Nội dung bài đăng
	SourceURL   string             `json:"sourceUrl,omitempty" bson:"sourceUrl,omitempty"`           // URL nguồn của nội dung (nếu có)
	MediaURL    string             `json:"mediaUrl,omitempty" bson:"mediaUrl,omitempty"`             // URL video cho reel
	ContentKind string             `json:"contentKind" bson:"contentKind" index:"single:1"`          // Loại nội dung: text | reel
	Status      string             `json:"status" bson:"status" index:"single:1"`                    // Trạng thái vòng đời
	ScheduledAt int64              `json:"scheduledAt,omitempty" bson:"scheduledAt,omitempty"`       // Thời điểm dự kiến đăng (unix giây, 0 = chưa lên lịch)
	RetryCount  int                `json:"retryCount" bson:"retryCount"`                             // Số lần đã retry

	PlatformPostID string `json:"platformPostId,omitempty" bson:"platformPostId,omitempty" index:"single:1;sparse"` // ID bài đăng trên nền tảng (chỉ khi published)
	LastError      string `json:"lastError,omitempty" bson:"lastError,omitempty"`                                   // Thông báo lỗi gần nhất
	LastErrorCode  string `json:"lastErrorCode,omitempty" bson:"lastErrorCode,omitempty"`                           // Phân loại lỗi gần nhất (RATE_LIMIT, AUTH, SERVER, UNKNOWN)

	CreatedAt int64 `json:"createdAt" bson:"createdAt"` // Thời gian tạo (unix millis)
	UpdatedAt int64 `json:"updatedAt" bson:"updatedAt"` // Thời gian cập nhật (unix millis)
}
