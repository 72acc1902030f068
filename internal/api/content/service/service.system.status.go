package contentsvc

import (
	"context"
	"fmt"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"

	contentmodels "content_factory/internal/api/content/models"
	basesvc "content_factory/internal/api/base/service"
	"content_factory/internal/common"
	"content_factory/internal/global"
)

// SystemStatusService là service quản lý các cặp key/value trạng thái hệ thống.
// Cooldown và lớp DB của process lock đều nằm trên collection này.
type SystemStatusService struct {
	*basesvc.BaseServiceMongoImpl[contentmodels.SystemStatus]
}

// NewSystemStatusService tạo mới SystemStatusService
func NewSystemStatusService() (*SystemStatusService, error) {
	collection, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.SystemStatus)
	if !exist {
		return nil, fmt.Errorf("failed to get system_status collection: %v", common.ErrNotFound)
	}

	return &SystemStatusService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[contentmodels.SystemStatus](collection),
	}, nil
}

// GetValue lấy giá trị theo key, trả về chuỗi rỗng nếu key chưa tồn tại
func (s *SystemStatusService) GetValue(ctx context.Context, key string) (string, error) {
	status, err := s.FindOne(ctx, bson.M{"key": key}, nil)
	if err == common.ErrNotFound {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return status.Value, nil
}

// GetInt64 lấy giá trị theo key và parse thành int64, trả về 0 nếu key chưa tồn tại
func (s *SystemStatusService) GetInt64(ctx context.Context, key string) (int64, error) {
	value, err := s.GetValue(ctx, key)
	if err != nil {
		return 0, err
	}
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, common.ErrInvalidFormat
	}
	return parsed, nil
}

// SetValue ghi giá trị cho key, tạo mới nếu chưa tồn tại
func (s *SystemStatusService) SetValue(ctx context.Context, key string, value string) error {
	_, err := s.Upsert(ctx, bson.M{"key": key}, &basesvc.UpdateData{
		Set: map[string]interface{}{
			"key":   key,
			"value": value,
		},
	})
	return err
}

// SetInt64 ghi giá trị số cho key dưới dạng chuỗi thập phân
func (s *SystemStatusService) SetInt64(ctx context.Context, key string, value int64) error {
	return s.SetValue(ctx, key, strconv.FormatInt(value, 10))
}

// SetValueIfAbsent tạo key mới với giá trị cho trước.
// Trả về ErrDuplicate nếu key đã tồn tại (dựa vào unique index trên key).
func (s *SystemStatusService) SetValueIfAbsent(ctx context.Context, key string, value string) error {
	_, err := s.InsertOne(ctx, contentmodels.SystemStatus{
		Key:   key,
		Value: value,
	})
	return err
}

// DeleteKey xóa key, không báo lỗi nếu key không tồn tại
func (s *SystemStatusService) DeleteKey(ctx context.Context, key string) error {
	err := s.DeleteOne(ctx, bson.M{"key": key})
	if err == common.ErrNotFound {
		return nil
	}
	return err
}

// SetCooldown ghi trạng thái cooldown: thời điểm hết hạn, mã lỗi và hành động đã thực hiện
func (s *SystemStatusService) SetCooldown(ctx context.Context, until int64, errCode string, action string) error {
	if err := s.SetInt64(ctx, contentmodels.StatusKeyCooldownUntil, until); err != nil {
		return err
	}
	if err := s.SetValue(ctx, contentmodels.StatusKeyLastErrorCode, errCode); err != nil {
		return err
	}
	return s.SetValue(ctx, contentmodels.StatusKeyLastErrorAction, action)
}

// GetCooldownUntil trả về unix giây hết hạn cooldown, 0 nếu không có cooldown
func (s *SystemStatusService) GetCooldownUntil(ctx context.Context) (int64, error) {
	return s.GetInt64(ctx, contentmodels.StatusKeyCooldownUntil)
}

// ClearCooldown xóa trạng thái cooldown đã hết hạn
func (s *SystemStatusService) ClearCooldown(ctx context.Context) error {
	return s.DeleteKey(ctx, contentmodels.StatusKeyCooldownUntil)
}
