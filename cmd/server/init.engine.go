package main

import (
	"time"

	contentrouter "content_factory/internal/api/content/router"
	contentsvc "content_factory/internal/api/content/service"
	"content_factory/internal/engine/classify"
	"content_factory/internal/engine/dedup"
	"content_factory/internal/engine/lock"
	"content_factory/internal/engine/publish"
	"content_factory/internal/engine/ratelimit"
	"content_factory/internal/engine/scheduling"
	"content_factory/internal/global"
	"content_factory/internal/logger"
)

// InitPublicationEngine lắp ráp các lớp an toàn thành orchestrator và scheduler.
// Orchestrator được gán vào router để phục vụ endpoint đăng bài thủ công.
func InitPublicationEngine() (*publish.Orchestrator, *scheduling.Scheduler) {
	log := logger.GetAppLogger()
	cfg := global.MongoDB_ServerConfig

	contentItemService, err := contentsvc.NewContentItemService()
	if err != nil {
		log.Fatalf("Failed to create content item service: %v", err)
	}
	publishedRecordService, err := contentsvc.NewPublishedRecordService()
	if err != nil {
		log.Fatalf("Failed to create published record service: %v", err)
	}
	systemStatusService, err := contentsvc.NewSystemStatusService()
	if err != nil {
		log.Fatalf("Failed to create system status service: %v", err)
	}
	scheduledSlotService, err := contentsvc.NewScheduledSlotService()
	if err != nil {
		log.Fatalf("Failed to create scheduled slot service: %v", err)
	}
	pageAccountService, err := contentsvc.NewPageAccountService()
	if err != nil {
		log.Fatalf("Failed to create page account service: %v", err)
	}

	// Lock hai lớp: file lock trên máy + lock key trong database
	guard := lock.NewGuard(systemStatusService, lock.Config{
		FilePath:   cfg.LockFilePath,
		StaleAfter: time.Duration(cfg.LockStaleMinutes) * time.Minute,
	})

	// Phát hiện trùng lặp ba lớp: hash chính xác, nguồn, simhash
	detector := dedup.NewDetector(publishedRecordService, dedup.Config{
		SimilarityThreshold: cfg.DedupSimilarityThreshold,
		ContentCooldown:     time.Duration(cfg.ContentCooldownHours) * time.Hour,
		SourceCooldown:      time.Duration(cfg.SourceCooldownHours) * time.Hour,
	})

	// Phân loại lỗi nền tảng và quyết định cooldown / retry
	controller := classify.NewController(contentItemService, systemStatusService, classify.Config{
		CooldownDuration: time.Duration(cfg.SystemCooldownHours) * time.Hour,
		MaxRetries:       cfg.MaxRetries,
		RetryBase:        time.Duration(cfg.RetryBaseMinutes) * time.Minute,
	})

	// Giới hạn bài đăng theo tuổi tài khoản và sức khỏe tương tác
	limiter := ratelimit.NewLimiter(publishedRecordService, ratelimit.Config{
		MinEngagementRate: cfg.MinEngagementRate,
	})

	// Sinh slot đăng bài quanh giờ cao điểm của các zone khán giả
	scheduler := scheduling.NewScheduler(scheduledSlotService, contentItemService, scheduling.Config{
		AudienceZones: cfg.AudienceZones,
		JitterMin:     time.Duration(cfg.JitterMinMinutes) * time.Minute,
		JitterMax:     time.Duration(cfg.JitterMaxMinutes) * time.Minute,
		TextRatio:     cfg.ContentMixTextRatio,
		HorizonDays:   cfg.ScheduleHorizonDays,
	})

	// Client Graph API với retry, circuit breaker và phân loại lỗi
	graphClient := publish.NewGraphClient(publish.GraphConfig{
		BaseURL:     cfg.FbGraphBaseURL,
		PageID:      cfg.FbPageID,
		AccessToken: cfg.FbPageAccessToken,
	})

	orchestrator := publish.NewOrchestrator(
		publish.Config{PageID: cfg.FbPageID},
		contentItemService,
		publishedRecordService,
		systemStatusService,
		pageAccountService,
		guard,
		detector,
		controller,
		limiter,
		graphClient,
	)

	// Endpoint đăng bài thủ công dùng chung orchestrator với worker
	contentrouter.PublishEngine = orchestrator

	log.Info("Publication engine initialized")
	return orchestrator, scheduler
}
