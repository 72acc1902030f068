package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PageAccount chứa thông tin page đích và tuổi tài khoản.
// Tuổi tài khoản quyết định tier giới hạn số bài đăng mỗi ngày.
type PageAccount struct {
	ID               primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`            // ID của account
	PageID           string             `json:"pageId" bson:"pageId" index:"unique"`          // ID của page trên nền tảng
	Name             string             `json:"name" bson:"name"`                             // Tên page
	AudienceZone     string             `json:"audienceZone" bson:"audienceZone"`             // Múi giờ khán giả mục tiêu (US_EST, US_PST, UK_GMT)
	AccountCreatedAt int64              `json:"accountCreatedAt" bson:"accountCreatedAt"`     // Thời điểm tạo tài khoản (unix giây, để tính tuổi)

	CreatedAt int64 `json:"createdAt" bson:"createdAt"` // Thời gian tạo (unix millis)
	UpdatedAt int64 `json:"updatedAt" bson:"updatedAt"` // Thời gian cập nhật (unix millis)
}

// AgeDays tính tuổi tài khoản theo ngày tại thời điểm now (unix giây).
// Chưa khai báo ngày tạo thì trả về 0.
func (a PageAccount) AgeDays(now int64) int {
	if a.AccountCreatedAt <= 0 || now <= a.AccountCreatedAt {
		return 0
	}
	return int((now - a.AccountCreatedAt) / 86400)
}
