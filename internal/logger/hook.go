package logger

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"sync"

	"github.com/sirupsen/logrus"
)

// AsyncHook ghi log qua một goroutine riêng để file I/O chậm không block
// luồng xử lý chính. Entry được đưa vào queue có giới hạn, queue đầy thì
// entry bị bỏ thay vì block.
type AsyncHook struct {
	writers []io.Writer
	queue   chan *logrus.Entry
	wg      sync.WaitGroup
	mu      sync.Mutex
	closed  bool
}

// NewAsyncHookWithWriters tạo async hook ghi ra nhiều writers (file, stdout).
// bufferSize <= 0 dùng mặc định 1000 entries.
func NewAsyncHookWithWriters(writers []io.Writer, bufferSize int) *AsyncHook {
	if bufferSize <= 0 {
		bufferSize = 1000
	}

	hook := &AsyncHook{
		writers: writers,
		queue:   make(chan *logrus.Entry, bufferSize),
	}

	hook.wg.Add(1)
	go hook.drain()

	return hook
}

// Levels trả về các log levels mà hook này xử lý
func (h *AsyncHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire đưa entry vào queue, không bao giờ block.
// Sau khi Close, entry được ghi thẳng vào writers.
func (h *AsyncHook) Fire(entry *logrus.Entry) error {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()

	if closed {
		data, err := h.format(entry)
		if err != nil {
			return err
		}
		for _, writer := range h.writers {
			_, _ = writer.Write(data)
		}
		return nil
	}

	select {
	case h.queue <- entry:
	default:
		// Queue đầy, bỏ entry. Không log ở đây vì sẽ tạo vòng lặp.
	}

	return nil
}

// drain ghi lần lượt các entry trong queue ra writers.
// Panic trong lúc ghi được recover để goroutine logger không kéo sập server.
func (h *AsyncHook) drain() {
	defer h.wg.Done()

	for entry := range h.queue {
		h.write(entry)
	}
}

func (h *AsyncHook) write(entry *logrus.Entry) {
	defer func() {
		if r := recover(); r != nil {
			// Ghi thẳng vào stderr, dùng logger ở đây sẽ tạo vòng lặp
			fmt.Fprintf(os.Stderr, "[LOGGER PANIC] Logger goroutine panic recovered: %v\n", r)
			debug.PrintStack()
		}
	}()

	// FilterHook đánh dấu entry bị loại bằng field "_filtered"
	if filtered, ok := entry.Data["_filtered"].(bool); ok && filtered {
		return
	}
	if _, ok := entry.Data["_filtered"]; ok {
		entry = entry.Dup()
		delete(entry.Data, "_filtered")
	}

	data, err := h.format(entry)
	if err != nil {
		return
	}

	for _, writer := range h.writers {
		if _, err := writer.Write(data); err != nil {
			// Writer lỗi thì thử writer tiếp theo, không có chỗ nào để báo lỗi
			continue
		}
	}
}

// format render entry bằng formatter của logger gốc
func (h *AsyncHook) format(entry *logrus.Entry) ([]byte, error) {
	if entry.Logger.Formatter != nil {
		return entry.Logger.Formatter.Format(entry)
	}
	line, err := entry.String()
	if err != nil {
		return nil, err
	}
	return []byte(line), nil
}

// Close đóng queue và đợi các entry còn lại được ghi hết
func (h *AsyncHook) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()

	close(h.queue)
	h.wg.Wait()
	return nil
}
