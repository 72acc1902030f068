package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EngagementSnapshot lưu số liệu tương tác của một bài đã đăng tại thời điểm cập nhật gần nhất
type EngagementSnapshot struct {
	Likes    int64 `json:"likes" bson:"likes"`       // Số lượt thích
	Comments int64 `json:"comments" bson:"comments"` // Số bình luận
	Shares   int64 `json:"shares" bson:"shares"`     // Số lượt chia sẻ
	Reach    int64 `json:"reach" bson:"reach"`       // Số người tiếp cận
}

// PublishedRecord là dấu vết của một bài đã đăng thành công.
// Duplicate detection chỉ so khớp với các record này, không so với nội dung chưa đăng.
type PublishedRecord struct {
	ID             primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`                      // ID của record
	ContentID      primitive.ObjectID `json:"contentId" bson:"contentId" index:"single:1"`            // ID của content item đã đăng
	PlatformPostID string             `json:"platformPostId" bson:"platformPostId" index:"unique"`    // ID bài đăng trên nền tảng
	ContentHash    string             `json:"contentHash" bson:"contentHash"`                         // MD5 hash của nội dung đã chuẩn hóa
	SimHash        int64              `json:"simHash" bson:"simHash"`                                 // SimHash 64-bit (lưu dưới dạng int64)
	SourceURL      string             `json:"sourceUrl,omitempty" bson:"sourceUrl,omitempty"`         // URL nguồn (để kiểm tra source cooldown)
	ContentKind    string             `json:"contentKind" bson:"contentKind"`                         // Loại nội dung
	PublishedAt    int64              `json:"publishedAt" bson:"publishedAt" index:"single:-1"`       // Thời điểm đăng (unix giây)
	Engagement     EngagementSnapshot `json:"engagement" bson:"engagement"`                           // Snapshot tương tác gần nhất

	CreatedAt int64 `json:"createdAt" bson:"createdAt"` // Thời gian tạo (unix millis)
	UpdatedAt int64 `json:"updatedAt" bson:"updatedAt"` // Thời gian cập nhật (unix millis)
}
