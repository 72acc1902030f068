package dto

// PublishedRecordCreateInput là dữ liệu đầu vào khi ghi nhận một bài đã đăng.
// Thông thường record do orchestrator tạo, endpoint này phục vụ backfill dữ liệu cũ.
type PublishedRecordCreateInput struct {
	ContentID      string `json:"contentId" validate:"required"`
	PlatformPostID string `json:"platformPostId" validate:"required"`
	ContentHash    string `json:"contentHash" validate:"required"`
	SimHash        int64  `json:"simHash"`
	SourceURL      string `json:"sourceUrl,omitempty" validate:"omitempty,url"`
	ContentKind    string `json:"contentKind" validate:"required,content_kind"`
	PublishedAt    int64  `json:"publishedAt" validate:"required,gt=0"`
}

// PublishedRecordUpdateInput cập nhật snapshot tương tác của một bài đã đăng
type PublishedRecordUpdateInput struct {
	Engagement *EngagementInput `json:"engagement,omitempty"`
}

// EngagementInput là số liệu tương tác gửi lên từ job thu thập metrics
type EngagementInput struct {
	Likes    int64 `json:"likes" validate:"gte=0"`
	Comments int64 `json:"comments" validate:"gte=0"`
	Shares   int64 `json:"shares" validate:"gte=0"`
	Reach    int64 `json:"reach" validate:"gte=0"`
}
