package contentsvc

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	contentmodels "content_factory/internal/api/content/models"
	basesvc "content_factory/internal/api/base/service"
	"content_factory/internal/common"
	"content_factory/internal/global"
)

// PublishedRecordService là service quản lý dấu vết các bài đã đăng
type PublishedRecordService struct {
	*basesvc.BaseServiceMongoImpl[contentmodels.PublishedRecord]
}

// NewPublishedRecordService tạo mới PublishedRecordService
func NewPublishedRecordService() (*PublishedRecordService, error) {
	collection, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.PublishedRecords)
	if !exist {
		return nil, fmt.Errorf("failed to get published_records collection: %v", common.ErrNotFound)
	}

	return &PublishedRecordService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[contentmodels.PublishedRecord](collection),
	}, nil
}

// FindPublishedSince lấy các record đăng từ thời điểm since (unix giây) trở lại đây,
// dùng làm tập ứng viên cho việc so khớp trùng lặp
func (s *PublishedRecordService) FindPublishedSince(ctx context.Context, since int64) ([]contentmodels.PublishedRecord, error) {
	filter := bson.M{"publishedAt": bson.M{"$gte": since}}
	opts := options.Find().SetSort(bson.D{{Key: "publishedAt", Value: -1}})
	return s.Find(ctx, filter, opts)
}

// ExistsByHashSince kiểm tra có bài nào cùng contentHash được đăng từ since trở lại không
func (s *PublishedRecordService) ExistsByHashSince(ctx context.Context, contentHash string, since int64) (bool, error) {
	return s.DocumentExists(ctx, bson.M{
		"contentHash": contentHash,
		"publishedAt": bson.M{"$gte": since},
	})
}

// ExistsBySourceSince kiểm tra có bài nào cùng sourceUrl được đăng từ since trở lại không
func (s *PublishedRecordService) ExistsBySourceSince(ctx context.Context, sourceURL string, since int64) (bool, error) {
	if sourceURL == "" {
		return false, nil
	}
	return s.DocumentExists(ctx, bson.M{
		"sourceUrl":   sourceURL,
		"publishedAt": bson.M{"$gte": since},
	})
}

// LastN lấy n bài đăng gần nhất theo publishedAt giảm dần, phục vụ tính engagement trung bình
func (s *PublishedRecordService) LastN(ctx context.Context, n int64) ([]contentmodels.PublishedRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "publishedAt", Value: -1}}).
		SetLimit(n)
	return s.Find(ctx, bson.D{}, opts)
}

// CountSince đếm số bài đã đăng từ thời điểm since (unix giây) trở lại đây,
// dùng để kiểm tra giới hạn số bài trong ngày
func (s *PublishedRecordService) CountSince(ctx context.Context, since int64) (int64, error) {
	return s.CountDocuments(ctx, bson.M{"publishedAt": bson.M{"$gte": since}})
}

// LastPublishedAt trả về thời điểm đăng của bài gần nhất (unix giây), 0 nếu chưa có bài nào
func (s *PublishedRecordService) LastPublishedAt(ctx context.Context) (int64, error) {
	records, err := s.LastN(ctx, 1)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}
	return records[0].PublishedAt, nil
}

// FirstPublishedAt trả về thời điểm đăng của bài đầu tiên (unix giây), 0 nếu chưa có bài nào.
// Tuổi tài khoản để tính tier giới hạn ngày được suy từ thời điểm này.
func (s *PublishedRecordService) FirstPublishedAt(ctx context.Context) (int64, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "publishedAt", Value: 1}}).
		SetLimit(1)
	records, err := s.Find(ctx, bson.D{}, opts)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}
	return records[0].PublishedAt, nil
}

// UpdateEngagement cập nhật snapshot tương tác cho một bài theo platformPostId
func (s *PublishedRecordService) UpdateEngagement(ctx context.Context, platformPostID string, snapshot contentmodels.EngagementSnapshot) (contentmodels.PublishedRecord, error) {
	return s.UpdateOne(ctx, bson.M{"platformPostId": platformPostID}, &basesvc.UpdateData{
		Set: map[string]interface{}{"engagement": snapshot},
	}, nil)
}
