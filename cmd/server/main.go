package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3"

	"content_factory/internal/global"
	"content_factory/internal/logger"
	"content_factory/internal/worker"
)

// initLogger khởi tạo và cấu hình logger cho toàn bộ ứng dụng
func initLogger() {
	// Khởi tạo logger với cấu hình mặc định
	// Logger sẽ tự động đọc environment variables để cấu hình
	if err := logger.Init(nil); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	// Log thông tin khởi tạo bằng logger mới
	log := logger.GetAppLogger()
	log.Info("Logger system initialized successfully")
}

// main_thread khởi tạo và chạy Fiber server
func main_thread() {
	// Khởi tạo app với cấu hình
	app := InitFiberApp()

	// Khởi động server với cấu hình listen
	cfg := global.MongoDB_ServerConfig
	address := cfg.Address

	log := logger.GetAppLogger()
	log.WithFields(map[string]interface{}{
		"address":  address,
		"protocol": "HTTP",
	}).Info("Starting Fiber server...")

	listenConfig := fiber.ListenConfig{}
	if err := app.Listen(address, listenConfig); err != nil {
		log.Fatalf("Error in Fiber Listen: %v", err)
	}
}

// startWorker chạy một worker trong goroutine riêng với recover
func startWorker(ctx context.Context, name string, run func(ctx context.Context)) {
	log := logger.GetAppLogger()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.WithFields(map[string]interface{}{
					"worker": name,
					"panic":  r,
				}).Error("Worker goroutine panic")
			}
		}()
		run(ctx)
	}()
	log.Infof("%s started successfully", name)
}

// Hàm main
func main() {
	// Khởi tạo logger
	initLogger()

	// Khởi tạo các biến toàn cục
	InitGlobal()

	// Khởi tạo registry
	InitRegistry()

	// Khởi tạo dữ liệu mặc định
	InitDefaultData()

	// Lắp ráp engine đăng bài (lock, dedup, rate limit, classify, scheduler, Graph client)
	orchestrator, scheduler := InitPublicationEngine()

	// Tạo context với cancel để có thể dừng các worker khi cần
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := global.MongoDB_ServerConfig

	// Worker đăng bài định kỳ qua đầy đủ các lớp an toàn
	publishWorker := worker.NewPublishWorker(orchestrator, time.Duration(cfg.PublishIntervalMinutes)*time.Minute)
	startWorker(ctx, "Publish Worker", publishWorker.Start)

	// Worker quét item retry đến hạn trở lại hàng đợi
	retrySweepWorker, err := worker.NewRetrySweepWorker(time.Duration(cfg.RetrySweepIntervalMinutes) * time.Minute)
	if err != nil {
		log := logger.GetAppLogger()
		log.WithError(err).Error("Failed to create retry sweep worker, continuing without it")
	} else {
		startWorker(ctx, "Retry Sweep Worker", retrySweepWorker.Start)
	}

	// Worker sinh slot đăng bài quanh giờ cao điểm
	scheduleWorker := worker.NewScheduleWorker(scheduler, time.Duration(cfg.ScheduleIntervalHours)*time.Hour)
	startWorker(ctx, "Schedule Worker", scheduleWorker.Start)

	// Chạy Fiber server trên main thread
	main_thread()
}
