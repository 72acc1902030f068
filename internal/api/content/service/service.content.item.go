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

// ContentItemService là service quản lý content items và vòng đời trạng thái của chúng
type ContentItemService struct {
	*basesvc.BaseServiceMongoImpl[contentmodels.ContentItem]
}

// NewContentItemService tạo mới ContentItemService
func NewContentItemService() (*ContentItemService, error) {
	collection, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.ContentItems)
	if !exist {
		return nil, fmt.Errorf("failed to get content_items collection: %v", common.ErrNotFound)
	}

	return &ContentItemService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[contentmodels.ContentItem](collection),
	}, nil
}

// FetchDue lấy các item đến hạn đăng (scheduled hoặc retry_scheduled, scheduledAt <= now),
// sắp xếp theo scheduledAt tăng dần để item chờ lâu nhất được đăng trước
func (s *ContentItemService) FetchDue(ctx context.Context, now int64, limit int64) ([]contentmodels.ContentItem, error) {
	filter := bson.M{
		"status":      bson.M{"$in": []string{contentmodels.StatusScheduled, contentmodels.StatusRetryScheduled}},
		"scheduledAt": bson.M{"$lte": now},
	}
	opts := options.Find().SetSort(bson.D{{Key: "scheduledAt", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return s.Find(ctx, filter, opts)
}

// CASStatus chuyển trạng thái atomic: chỉ thành công khi item đang ở một trong các trạng thái from.
// Trả về ErrInvalidState nếu item không tồn tại hoặc đã bị tiến trình khác chuyển trạng thái.
func (s *ContentItemService) CASStatus(ctx context.Context, id primitive.ObjectID, from []string, to string) (contentmodels.ContentItem, error) {
	filter := bson.M{
		"_id":    id,
		"status": bson.M{"$in": from},
	}
	updated, err := s.FindOneAndUpdate(ctx, filter, &basesvc.UpdateData{
		Set: map[string]interface{}{"status": to},
	}, nil)
	if err == common.ErrNotFound {
		var zero contentmodels.ContentItem
		return zero, common.ErrInvalidState
	}
	return updated, err
}

// MarkPublished chuyển item từ publishing sang published và gắn platformPostId.
// Đây là bước duy nhất được phép set platformPostId, giữ bất biến
// platformPostId khác rỗng khi và chỉ khi status = published.
func (s *ContentItemService) MarkPublished(ctx context.Context, id primitive.ObjectID, platformPostID string) (contentmodels.ContentItem, error) {
	filter := bson.M{
		"_id":    id,
		"status": contentmodels.StatusPublishing,
	}
	updated, err := s.FindOneAndUpdate(ctx, filter, &basesvc.UpdateData{
		Set: map[string]interface{}{
			"status":         contentmodels.StatusPublished,
			"platformPostId": platformPostID,
		},
		Unset: map[string]interface{}{
			"lastError":     "",
			"lastErrorCode": "",
		},
	}, nil)
	if err == common.ErrNotFound {
		var zero contentmodels.ContentItem
		return zero, common.ErrInvalidState
	}
	return updated, err
}

// MarkFailed chuyển item sang failed vĩnh viễn kèm thông tin lỗi cuối
func (s *ContentItemService) MarkFailed(ctx context.Context, id primitive.ObjectID, errMsg string, errCode string) (contentmodels.ContentItem, error) {
	return s.UpdateById(ctx, id, &basesvc.UpdateData{
		Set: map[string]interface{}{
			"status":        contentmodels.StatusFailed,
			"lastError":     errMsg,
			"lastErrorCode": errCode,
		},
	})
}

// MarkDuplicate chuyển item sang duplicate kèm lý do phát hiện trùng lặp
func (s *ContentItemService) MarkDuplicate(ctx context.Context, id primitive.ObjectID, reason string) (contentmodels.ContentItem, error) {
	return s.UpdateById(ctx, id, &basesvc.UpdateData{
		Set: map[string]interface{}{
			"status":    contentmodels.StatusDuplicate,
			"lastError": reason,
		},
	})
}

// ScheduleRetry đưa item về retry_scheduled với thời điểm thử lại và số lần retry mới
func (s *ContentItemService) ScheduleRetry(ctx context.Context, id primitive.ObjectID, retryCount int, nextAt int64, errMsg string, errCode string) (contentmodels.ContentItem, error) {
	return s.UpdateById(ctx, id, &basesvc.UpdateData{
		Set: map[string]interface{}{
			"status":        contentmodels.StatusRetryScheduled,
			"retryCount":    retryCount,
			"scheduledAt":   nextAt,
			"lastError":     errMsg,
			"lastErrorCode": errCode,
		},
	})
}

// RepairOrphanPublished sửa item có platformPostId nhưng status chưa phải published.
// Tình huống này xảy ra khi tiến trình chết giữa lúc đăng thành công và lúc ghi trạng thái.
func (s *ContentItemService) RepairOrphanPublished(ctx context.Context, id primitive.ObjectID) (contentmodels.ContentItem, error) {
	filter := bson.M{
		"_id":            id,
		"platformPostId": bson.M{"$exists": true, "$ne": ""},
		"status":         bson.M{"$ne": contentmodels.StatusPublished},
	}
	return s.FindOneAndUpdate(ctx, filter, &basesvc.UpdateData{
		Set: map[string]interface{}{"status": contentmodels.StatusPublished},
	}, nil)
}

// RequeueDueRetries chuyển các item retry_scheduled đã đến hạn về scheduled
// để lần quét tiếp theo của publisher nhặt chúng lên. Lỗi của lần đăng trước
// được xóa, retryCount giữ nguyên để backoff tiếp tục tăng đúng. Item đã có
// platformPostId là bài đăng dở dang, để nguyên cho luồng sửa trạng thái xử lý.
// Trả về số item đã chuyển.
func (s *ContentItemService) RequeueDueRetries(ctx context.Context, now int64) (int64, error) {
	filter := bson.M{
		"status":         contentmodels.StatusRetryScheduled,
		"scheduledAt":    bson.M{"$lte": now},
		"platformPostId": nil,
	}
	return s.UpdateMany(ctx, filter, &basesvc.UpdateData{
		Set: map[string]interface{}{"status": contentmodels.StatusScheduled},
		Unset: map[string]interface{}{
			"lastError":     "",
			"lastErrorCode": "",
		},
	}, nil)
}

// AssignSchedule gán thời điểm đăng cho item drafted và chuyển sang scheduled
func (s *ContentItemService) AssignSchedule(ctx context.Context, id primitive.ObjectID, scheduledAt int64) (contentmodels.ContentItem, error) {
	filter := bson.M{
		"_id":    id,
		"status": contentmodels.StatusDrafted,
	}
	updated, err := s.FindOneAndUpdate(ctx, filter, &basesvc.UpdateData{
		Set: map[string]interface{}{
			"status":      contentmodels.StatusScheduled,
			"scheduledAt": scheduledAt,
		},
	}, nil)
	if err == common.ErrNotFound {
		var zero contentmodels.ContentItem
		return zero, common.ErrInvalidState
	}
	return updated, err
}

// FindDraftedByKind lấy các item drafted theo loại nội dung, cũ nhất trước
func (s *ContentItemService) FindDraftedByKind(ctx context.Context, kind string, limit int64) ([]contentmodels.ContentItem, error) {
	filter := bson.M{
		"status":      contentmodels.StatusDrafted,
		"contentKind": kind,
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return s.Find(ctx, filter, opts)
}

// ErrorRate tính tỷ lệ lỗi trong khoảng thời gian gần đây: số item chuyển sang failed
// trên tổng số item đã kết thúc (failed + published) kể từ thời điểm since (unix millis).
// Trả về 0 khi chưa có dữ liệu.
func (s *ContentItemService) ErrorRate(ctx context.Context, since int64) (float64, error) {
	failed, err := s.CountDocuments(ctx, bson.M{
		"status":    contentmodels.StatusFailed,
		"updatedAt": bson.M{"$gte": since},
	})
	if err != nil {
		return 0, err
	}

	published, err := s.CountDocuments(ctx, bson.M{
		"status":    contentmodels.StatusPublished,
		"updatedAt": bson.M{"$gte": since},
	})
	if err != nil {
		return 0, err
	}

	total := failed + published
	if total == 0 {
		return 0, nil
	}
	return float64(failed) / float64(total), nil
}

// CountByStatus đếm số item theo từng trạng thái, phục vụ endpoint thống kê
func (s *ContentItemService) CountByStatus(ctx context.Context) (map[string]int64, error) {
	statuses := []string{
		contentmodels.StatusDrafted,
		contentmodels.StatusScheduled,
		contentmodels.StatusRetryScheduled,
		contentmodels.StatusPublishing,
		contentmodels.StatusPublished,
		contentmodels.StatusFailed,
		contentmodels.StatusDuplicate,
		contentmodels.StatusRejected,
	}

	counts := make(map[string]int64, len(statuses))
	for _, status := range statuses {
		count, err := s.CountDocuments(ctx, bson.M{"status": status})
		if err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, nil
}
