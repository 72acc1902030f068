package contentsvc

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	contentmodels "content_factory/internal/api/content/models"
	basesvc "content_factory/internal/api/base/service"
	"content_factory/internal/common"
	"content_factory/internal/global"
)

// ScheduledSlotService là service quản lý các slot đăng bài do scheduler sinh ra
type ScheduledSlotService struct {
	*basesvc.BaseServiceMongoImpl[contentmodels.ScheduledSlot]
}

// NewScheduledSlotService tạo mới ScheduledSlotService
func NewScheduledSlotService() (*ScheduledSlotService, error) {
	collection, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.ScheduledSlots)
	if !exist {
		return nil, fmt.Errorf("failed to get scheduled_slots collection: %v", common.ErrNotFound)
	}

	return &ScheduledSlotService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[contentmodels.ScheduledSlot](collection),
	}, nil
}

// FindBetween lấy các slot trong khoảng [from, to) theo unix giây, sắp xếp tăng dần
func (s *ScheduledSlotService) FindBetween(ctx context.Context, from int64, to int64) ([]contentmodels.ScheduledSlot, error) {
	filter := bson.M{"slotAt": bson.M{"$gte": from, "$lt": to}}
	opts := options.Find().SetSort(bson.D{{Key: "slotAt", Value: 1}})
	return s.Find(ctx, filter, opts)
}

// FindUnassigned lấy các slot trống (chưa gán content) kể từ thời điểm from, sớm nhất trước
func (s *ScheduledSlotService) FindUnassigned(ctx context.Context, from int64, limit int64) ([]contentmodels.ScheduledSlot, error) {
	filter := bson.M{
		"slotAt":    bson.M{"$gte": from},
		"contentId": bson.M{"$exists": false},
	}
	opts := options.Find().SetSort(bson.D{{Key: "slotAt", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return s.Find(ctx, filter, opts)
}

// LastSlotAt trả về thời điểm của slot muộn nhất đã sinh (unix giây), 0 nếu chưa có slot nào
func (s *ScheduledSlotService) LastSlotAt(ctx context.Context) (int64, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "slotAt", Value: -1}}).
		SetLimit(1)
	slots, err := s.Find(ctx, bson.D{}, opts)
	if err != nil {
		return 0, err
	}
	if len(slots) == 0 {
		return 0, nil
	}
	return slots[0].SlotAt, nil
}

// AssignContent gán content item vào một slot trống.
// Trả về ErrInvalidState nếu slot đã được gán bởi tiến trình khác.
func (s *ScheduledSlotService) AssignContent(ctx context.Context, slotID primitive.ObjectID, contentID primitive.ObjectID) (contentmodels.ScheduledSlot, error) {
	filter := bson.M{
		"_id":       slotID,
		"contentId": bson.M{"$exists": false},
	}
	updated, err := s.FindOneAndUpdate(ctx, filter, &basesvc.UpdateData{
		Set: map[string]interface{}{"contentId": contentID},
	}, nil)
	if err == common.ErrNotFound {
		var zero contentmodels.ScheduledSlot
		return zero, common.ErrInvalidState
	}
	return updated, err
}

// DeleteBefore xóa các slot đã qua, trả về số slot đã xóa
func (s *ScheduledSlotService) DeleteBefore(ctx context.Context, before int64) (int64, error) {
	return s.DeleteMany(ctx, bson.M{"slotAt": bson.M{"$lt": before}})
}
