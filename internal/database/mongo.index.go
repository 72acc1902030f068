// Package database - Tạo index MongoDB từ struct tag `index:` của model.
package database

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"content_factory/internal/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateIndexes tạo index cho collection dựa trên struct tag `index:` của model.
// Các dạng tag hỗ trợ (phân cách bởi dấu chấm phẩy):
//   - "single:1" / "single:-1": index đơn tăng/giảm dần
//   - "unique": unique index tăng dần
//   - "text": text index
//   - "sparse": kết hợp với unique/single, bỏ qua document thiếu field
//
// Ví dụ: `index:"unique;text"` tạo một unique index và một text index cho field.
func CreateIndexes(ctx context.Context, collection *mongo.Collection, model interface{}) error {
	t := reflect.TypeOf(model)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return fmt.Errorf("model must be a struct, got %s", t.Kind())
	}

	var indexModels []mongo.IndexModel

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		indexTag := field.Tag.Get("index")
		if indexTag == "" {
			continue
		}

		// Lấy tên field trong MongoDB từ bson tag
		bsonName := strings.Split(field.Tag.Get("bson"), ",")[0]
		if bsonName == "" || bsonName == "-" {
			continue
		}

		sparse := strings.Contains(indexTag, "sparse")

		for _, part := range strings.Split(indexTag, ";") {
			part = strings.TrimSpace(part)
			switch {
			case part == "unique":
				opts := options.Index().SetUnique(true)
				if sparse {
					opts.SetSparse(true)
				}
				indexModels = append(indexModels, mongo.IndexModel{
					Keys:    bson.D{{Key: bsonName, Value: 1}},
					Options: opts,
				})
			case part == "text":
				indexModels = append(indexModels, mongo.IndexModel{
					Keys: bson.D{{Key: bsonName, Value: "text"}},
				})
			case strings.HasPrefix(part, "single:"):
				order := 1
				if strings.TrimPrefix(part, "single:") == "-1" {
					order = -1
				}
				opts := options.Index()
				if sparse {
					opts.SetSparse(true)
				}
				indexModels = append(indexModels, mongo.IndexModel{
					Keys:    bson.D{{Key: bsonName, Value: order}},
					Options: opts,
				})
			}
		}
	}

	if len(indexModels) == 0 {
		return nil
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexModels); err != nil && !isIndexExistsError(err) {
		return fmt.Errorf("failed to create indexes for %s: %w", collection.Name(), err)
	}

	logger.WithCollection(collection.Name()).
		WithFields(map[string]interface{}{"count": len(indexModels)}).
		Debug("Indexes ensured")
	return nil
}

func isIndexExistsError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "already exists") || strings.Contains(s, "duplicate")
}
