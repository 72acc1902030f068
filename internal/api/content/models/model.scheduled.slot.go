package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ScheduledSlot là một vị trí đăng bài trong tương lai do scheduler sinh ra.
// Slot được sinh quanh giờ cao điểm của khán giả, có jitter và min gap.
type ScheduledSlot struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`              // ID của slot
	SlotAt      int64              `json:"slotAt" bson:"slotAt" index:"single:1"`          // Thời điểm đăng (unix giây, đã gồm jitter)
	Timezone    string             `json:"timezone" bson:"timezone"`                       // Múi giờ khán giả dùng để sinh slot
	ContentKind string             `json:"contentKind" bson:"contentKind"`                 // Loại nội dung dự kiến cho slot (theo content mix)
	ContentID   primitive.ObjectID `json:"contentId,omitempty" bson:"contentId,omitempty"` // Content item đã gán vào slot (nil = slot trống)

	CreatedAt int64 `json:"createdAt" bson:"createdAt"` // Thời gian tạo (unix millis)
	UpdatedAt int64 `json:"updatedAt" bson:"updatedAt"` // Thời gian cập nhật (unix millis)
}
