// Package database - Index bổ sung cho publication engine (compound) không thể định nghĩa qua model tags.
package database

import (
	"context"

	"content_factory/internal/global"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreatePublicationAdditionalIndexes tạo các index compound cho publication engine.
// Gọi sau CreateIndexes cho từng collection.
func CreatePublicationAdditionalIndexes(ctx context.Context, db *mongo.Database) error {
	// content_items (status, scheduledAt) cho truy vấn fetch các bài đến hạn đăng
	contentItems := db.Collection(global.MongoDB_ColNames.ContentItems)
	if _, err := contentItems.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "status", Value: 1},
			{Key: "scheduledAt", Value: 1},
		},
		Options: options.Index().SetName("content_item_status_scheduled"),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	// published_records (contentHash, publishedAt) cho tra cứu trùng lặp exact hash trong cửa sổ cooldown
	publishedRecords := db.Collection(global.MongoDB_ColNames.PublishedRecords)
	if _, err := publishedRecords.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "contentHash", Value: 1},
			{Key: "publishedAt", Value: -1},
		},
		Options: options.Index().SetName("published_record_hash_time"),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	// published_records (sourceUrl, publishedAt) sparse cho kiểm tra cooldown theo nguồn
	if _, err := publishedRecords.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "sourceUrl", Value: 1},
			{Key: "publishedAt", Value: -1},
		},
		Options: options.Index().SetName("published_record_source_time").SetSparse(true),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	// scheduled_slots (slotAt, contentKind) cho truy vấn slot trống theo thời gian và loại nội dung
	scheduledSlots := db.Collection(global.MongoDB_ColNames.ScheduledSlots)
	if _, err := scheduledSlots.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "slotAt", Value: 1},
			{Key: "contentKind", Value: 1},
		},
		Options: options.Index().SetName("scheduled_slot_time_kind"),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	return nil
}
