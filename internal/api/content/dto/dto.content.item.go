package dto

// ContentItemCreateInput là dữ liệu đầu vào khi tạo content item mới.
// Item mới luôn bắt đầu ở trạng thái drafted.
type ContentItemCreateInput struct {
	Title       string `json:"title" validate:"required,no_xss"`
	Body        string `json:"body" validate:"required,no_xss"`
	SourceURL   string `json:"sourceUrl,omitempty" validate:"omitempty,url"`
	MediaURL    string `json:"mediaUrl,omitempty" validate:"omitempty,url"`
	ContentKind string `json:"contentKind" validate:"required,content_kind"`
}

// ContentItemUpdateInput là dữ liệu đầu vào khi cập nhật content item.
// Không cho phép đổi status hay platformPostId qua API, các trường đó do engine quản lý.
type ContentItemUpdateInput struct {
	Title       string `json:"title,omitempty" validate:"omitempty,no_xss"`
	Body        string `json:"body,omitempty" validate:"omitempty,no_xss"`
	SourceURL   string `json:"sourceUrl,omitempty" validate:"omitempty,url"`
	MediaURL    string `json:"mediaUrl,omitempty" validate:"omitempty,url"`
	ContentKind string `json:"contentKind,omitempty" validate:"omitempty,content_kind"`
	ScheduledAt int64  `json:"scheduledAt,omitempty" validate:"omitempty,gt=0"`
}
