package dto

// PageAccountCreateInput là dữ liệu đầu vào khi khai báo page đích
type PageAccountCreateInput struct {
	PageID           string `json:"pageId" validate:"required"`
	Name             string `json:"name" validate:"required,no_xss"`
	AudienceZone     string `json:"audienceZone" validate:"required,oneof=US_EST US_PST UK_GMT"`
	AccountCreatedAt int64  `json:"accountCreatedAt" validate:"required,gt=0"`
}

// PageAccountUpdateInput là dữ liệu đầu vào khi cập nhật page đích
type PageAccountUpdateInput struct {
	Name         string `json:"name,omitempty" validate:"omitempty,no_xss"`
	AudienceZone string `json:"audienceZone,omitempty" validate:"omitempty,oneof=US_EST US_PST UK_GMT"`
}
