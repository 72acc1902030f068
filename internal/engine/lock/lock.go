// Package lock bảo đảm chỉ một tiến trình đăng bài chạy tại một thời điểm,
// bằng hai lớp: file lock trên máy và cờ trong database cho nhiều máy.
package lock

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	contentmodels "content_factory/internal/api/content/models"
	"content_factory/internal/common"
	"content_factory/internal/logger"
)

// statusStore là phần của SystemStatusService mà lock cần
type statusStore interface {
	GetValue(ctx context.Context, key string) (string, error)
	GetInt64(ctx context.Context, key string) (int64, error)
	SetValueIfAbsent(ctx context.Context, key string, value string) error
	SetInt64(ctx context.Context, key string, value int64) error
	DeleteKey(ctx context.Context, key string) error
}

// Config cấu hình lock
type Config struct {
	FilePath   string        // Đường dẫn file lock trên máy
	StaleAfter time.Duration // Lock DB cũ hơn khoảng này bị coi là mồ côi (30 phút)
}

// Guard giữ cả hai lớp lock trong suốt một lượt đăng bài
type Guard struct {
	status   statusStore
	cfg      Config
	fileLock *flock.Flock
	lockID   string
}

// NewGuard tạo mới Guard. Mỗi lần Acquire sinh một lock ID riêng.
func NewGuard(status statusStore, cfg Config) *Guard {
	return &Guard{
		status:   status,
		cfg:      cfg,
		fileLock: flock.New(cfg.FilePath),
	}
}

// newLockID sinh định danh duy nhất cho lượt giữ lock: pid, nanosecond và uuid
func newLockID() string {
	return fmt.Sprintf("%d_%d_%s", os.Getpid(), time.Now().UnixNano(), uuid.New().String())
}

// Acquire giành lock theo thứ tự file trước rồi DB.
// Trả về ErrLockNotAcquired khi một tiến trình khác đang giữ.
// Lock DB bỏ lại bởi tiến trình chết được thu hồi sau StaleAfter.
func (g *Guard) Acquire(ctx context.Context) error {
	locked, err := g.fileLock.TryLock()
	if err != nil {
		// Filesystem không hỗ trợ flock hoặc read-only: lớp DB vẫn đủ chặn chạy song song
		logger.WithModule("lock").WithError(err).Warnf("🔒 [LOCK] Không dùng được file lock %s, chỉ dựa vào lock DB", g.cfg.FilePath)
	} else if !locked {
		logger.WithModule("lock").Warn("🔒 [LOCK] File lock đang bị giữ bởi tiến trình khác trên máy này")
		return common.ErrLockNotAcquired
	}

	if err := g.acquireDB(ctx); err != nil {
		g.fileLock.Unlock()
		return err
	}

	logger.WithModule("lock").Infof("🔒 [LOCK] Đã giành lock %s", g.lockID)
	return nil
}

func (g *Guard) acquireDB(ctx context.Context) error {
	holder, err := g.status.GetValue(ctx, contentmodels.StatusKeyRunning)
	if err != nil {
		return err
	}

	if holder != "" {
		since, err := g.status.GetInt64(ctx, contentmodels.StatusKeyRunningSince)
		if err != nil {
			return err
		}
		age := time.Since(time.Unix(since, 0))
		if since > 0 && age < g.cfg.StaleAfter {
			logger.WithModule("lock").Warnf("🔒 [LOCK] Lock DB đang bị giữ bởi %s (%.0fs)", holder, age.Seconds())
			return common.ErrLockNotAcquired
		}

		// Lock mồ côi: tiến trình giữ đã chết quá lâu, thu hồi
		logger.WithModule("lock").Warnf("🔒 [LOCK] Thu hồi lock mồ côi của %s (giữ %s)", holder, age.Round(time.Second))
		if err := g.status.DeleteKey(ctx, contentmodels.StatusKeyRunning); err != nil {
			return err
		}
	}

	lockID := newLockID()
	if err := g.status.SetValueIfAbsent(ctx, contentmodels.StatusKeyRunning, lockID); err != nil {
		// Unique index trên key chặn hai tiến trình cùng insert, bên thua nhận duplicate
		if err == common.ErrDuplicate {
			return common.ErrLockNotAcquired
		}
		return err
	}

	if err := g.status.SetInt64(ctx, contentmodels.StatusKeyRunningSince, time.Now().Unix()); err != nil {
		g.status.DeleteKey(ctx, contentmodels.StatusKeyRunning)
		return err
	}

	g.lockID = lockID
	return nil
}

// Release nhả cả hai lớp lock. Chỉ xóa cờ DB khi còn là chủ sở hữu,
// tránh xóa nhầm lock của tiến trình đã thu hồi từ mình.
func (g *Guard) Release(ctx context.Context) {
	defer g.fileLock.Unlock()

	if g.lockID == "" {
		return
	}

	holder, err := g.status.GetValue(ctx, contentmodels.StatusKeyRunning)
	if err != nil {
		logger.WithModule("lock").WithError(err).Error("🔒 [LOCK] Không đọc được chủ sở hữu lock khi release")
		return
	}
	if holder != g.lockID {
		logger.WithModule("lock").Warnf("🔒 [LOCK] Lock đã bị thu hồi bởi %s, bỏ qua release", holder)
		g.lockID = ""
		return
	}

	if err := g.status.DeleteKey(ctx, contentmodels.StatusKeyRunning); err != nil {
		logger.WithModule("lock").WithError(err).Error("🔒 [LOCK] Không xóa được cờ lock DB")
		return
	}
	g.status.DeleteKey(ctx, contentmodels.StatusKeyRunningSince)

	logger.WithModule("lock").Infof("🔒 [LOCK] Đã nhả lock %s", g.lockID)
	g.lockID = ""
}

// LockID trả về định danh của lượt giữ lock hiện tại, rỗng nếu chưa giữ
func (g *Guard) LockID() string {
	return g.lockID
}
