package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

// Configuration chứa thông tin tĩnh cần thiết để chạy ứng dụng:
// kết nối cơ sở dữ liệu, thông tin page Facebook và các ngưỡng an toàn của engine.
type Configuration struct {
	Address               string `env:"ADDRESS" envDefault:":8080"`                // Địa chỉ server
	MongoDB_ConnectionURI string `env:"MONGODB_CONNECTION_URI,required"`           // URL kết nối cơ sở dữ liệu
	MongoDB_DBName        string `env:"MONGODB_DBNAME,required"`                   // Tên cơ sở dữ liệu chính
	CORS_Origins          string `env:"CORS_ORIGINS" envDefault:"*"`               // Các origins được phép (phân cách bởi dấu phẩy, * = tất cả)
	CORS_AllowCredentials bool   `env:"CORS_ALLOW_CREDENTIALS" envDefault:"false"` // Cho phép gửi credentials
	RateLimit_Max         int    `env:"RATE_LIMIT_MAX" envDefault:"100"`           // Số request tối đa trong window (0 = disable rate limit)
	RateLimit_Window      int    `env:"RATE_LIMIT_WINDOW" envDefault:"60"`         // Thời gian window (giây)
	RateLimit_Enabled     bool   `env:"RATE_LIMIT_ENABLED" envDefault:"true"`      // Bật/tắt rate limiting cho HTTP surface

	// Facebook Graph API
	FbGraphBaseURL    string `env:"FB_GRAPH_BASE_URL" envDefault:"https://graph.facebook.com/v19.0"` // Base URL của Graph API
	FbPageID          string `env:"FB_PAGE_ID,required"`                                             // ID của page đăng bài
	FbPageAccessToken string `env:"FB_PAGE_ACCESS_TOKEN,required"`                                   // Page access token

	// Duplicate detection
	DedupSimilarityThreshold float64 `env:"DEDUP_SIMILARITY_THRESHOLD" envDefault:"0.8"` // Ngưỡng simhash similarity coi là trùng
	ContentCooldownHours     int     `env:"CONTENT_COOLDOWN_HOURS" envDefault:"72"`      // Cửa sổ chặn nội dung trùng (giờ)
	SourceCooldownHours      int     `env:"SOURCE_COOLDOWN_HOURS" envDefault:"168"`      // Cửa sổ chặn tái sử dụng nguồn (giờ)

	// Retry / cooldown
	MaxRetries          int `env:"MAX_RETRIES" envDefault:"3"`            // Số lần retry tối đa cho một bài
	RetryBaseMinutes    int `env:"RETRY_BASE_MINUTES" envDefault:"5"`     // Delay cơ sở cho backoff (phút)
	SystemCooldownHours int `env:"SYSTEM_COOLDOWN_HOURS" envDefault:"24"` // Thời gian cooldown khi dính rate limit (giờ)

	// Adaptive rate limiting
	MinEngagementRate float64 `env:"MIN_ENGAGEMENT_RATE" envDefault:"0.5"` // Ngưỡng engagement tối thiểu (%)

	// Process lock
	LockFilePath     string `env:"LOCK_FILE_PATH" envDefault:"/tmp/content_factory_publish.lock"` // Đường dẫn file lock
	LockStaleMinutes int    `env:"LOCK_STALE_MINUTES" envDefault:"30"`                            // Thời gian DB lock được coi là stale (phút)

	// Scheduling
	AudienceZones       []string `env:"AUDIENCE_ZONES" envSeparator:"," envDefault:"US_EST,US_PST,UK_GMT"` // Các múi giờ khán giả mục tiêu (US_EST, US_PST, UK_GMT)
	JitterMinMinutes    int      `env:"JITTER_MIN_MINUTES" envDefault:"5"`                                 // Jitter tối thiểu cho slot (phút)
	JitterMaxMinutes    int      `env:"JITTER_MAX_MINUTES" envDefault:"25"`                                // Jitter tối đa cho slot (phút)
	ContentMixTextRatio float64  `env:"CONTENT_MIX_TEXT_RATIO" envDefault:"0.6"`                           // Tỉ lệ bài text trong content mix (còn lại là reel)
	ScheduleHorizonDays int      `env:"SCHEDULE_HORIZON_DAYS" envDefault:"7"`                              // Số ngày lên lịch trước

	// Workers
	PublishIntervalMinutes    int `env:"PUBLISH_INTERVAL_MINUTES" envDefault:"10"`    // Chu kỳ chạy publish worker (phút)
	RetrySweepIntervalMinutes int `env:"RETRY_SWEEP_INTERVAL_MINUTES" envDefault:"5"` // Chu kỳ quét retry đến hạn (phút)
	ScheduleIntervalHours     int `env:"SCHEDULE_INTERVAL_HOURS" envDefault:"24"`     // Chu kỳ chạy schedule worker (giờ)
}

// getEnvPath trả về đường dẫn đến file env dựa trên môi trường
func getEnvPath() string {
	// Mặc định sử dụng môi trường development
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	// Tìm thư mục config
	currentDir, err := os.Getwd()
	if err != nil {
		// Sử dụng fmt.Printf vì logger có thể chưa được init ở đây
		fmt.Printf("Không thể lấy được thư mục hiện tại: %v\n", err)
		return ""
	}

	// Tìm thư mục config/env bằng cách đi lên các thư mục cha
	for {
		envDir := filepath.Join(currentDir, "config", "env")
		if _, err := os.Stat(envDir); err == nil {
			envPath := filepath.Join(envDir, fmt.Sprintf("%s.env", env))
			return envPath
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return ""
		}
		currentDir = parentDir
	}
}

// NewConfig sẽ đọc dữ liệu cấu hình từ file env được cung cấp
func NewConfig(files ...string) *Configuration {
	envPath := getEnvPath()
	if envPath == "" {
		// Sử dụng fmt.Printf vì logger có thể chưa được init ở đây
		fmt.Printf("Không tìm thấy thư mục config/env\n")
		return nil
	}

	err := godotenv.Load(envPath)
	if err != nil {
		fmt.Printf("Không thể load file env tại %s: %v\n", envPath, err)
		return nil
	}

	cfg := Configuration{}
	err = env.Parse(&cfg)
	if err != nil {
		fmt.Printf("Lỗi khi parse config: %+v\n", err)
		return nil
	}

	return &cfg
}
