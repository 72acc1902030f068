// Package scheduling sinh các slot đăng bài quanh giờ cao điểm của khán giả,
// có jitter ngẫu nhiên và khoảng cách tối thiểu thích ứng theo tỷ lệ lỗi.
package scheduling

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	contentmodels "content_factory/internal/api/content/models"
	"content_factory/internal/logger"
)

// Giờ cao điểm theo múi giờ khán giả (giờ địa phương)
var audienceZones = map[string]struct {
	peakHours []int
	location  string
}{
	"US_EST": {peakHours: []int{7, 12, 18, 20}, location: "America/New_York"},
	"US_PST": {peakHours: []int{9, 14, 20, 22}, location: "America/Los_Angeles"},
	"UK_GMT": {peakHours: []int{8, 13, 17, 21}, location: "Europe/London"},
}

// DefaultAudienceZones trả về toàn bộ các zone được hỗ trợ.
// Không cấu hình zone nào thì scheduler phủ cả ba.
func DefaultAudienceZones() []string {
	return []string{"US_EST", "US_PST", "UK_GMT"}
}

// PeakHours trả về các giờ cao điểm và location của một audience zone
func PeakHours(zone string) ([]int, *time.Location, error) {
	z, ok := audienceZones[zone]
	if !ok {
		return nil, nil, fmt.Errorf("unknown audience zone %q", zone)
	}
	loc, err := time.LoadLocation(z.location)
	if err != nil {
		return nil, nil, err
	}
	return z.peakHours, loc, nil
}

// slotStore là phần của ScheduledSlotService mà scheduler cần
type slotStore interface {
	LastSlotAt(ctx context.Context) (int64, error)
	InsertMany(ctx context.Context, data []contentmodels.ScheduledSlot) ([]contentmodels.ScheduledSlot, error)
	FindUnassigned(ctx context.Context, from int64, limit int64) ([]contentmodels.ScheduledSlot, error)
	AssignContent(ctx context.Context, slotID primitive.ObjectID, contentID primitive.ObjectID) (contentmodels.ScheduledSlot, error)
	DeleteBefore(ctx context.Context, before int64) (int64, error)
}

// itemStore là phần của ContentItemService mà scheduler cần
type itemStore interface {
	FindDraftedByKind(ctx context.Context, kind string, limit int64) ([]contentmodels.ContentItem, error)
	AssignSchedule(ctx context.Context, id primitive.ObjectID, scheduledAt int64) (contentmodels.ContentItem, error)
	ErrorRate(ctx context.Context, since int64) (float64, error)
}

// Config cấu hình scheduler
type Config struct {
	AudienceZones []string      // Các múi giờ khán giả (US_EST, US_PST, UK_GMT), rỗng = cả ba
	JitterMin     time.Duration // Jitter tối thiểu quanh giờ cao điểm (5 phút)
	JitterMax     time.Duration // Jitter tối đa quanh giờ cao điểm (25 phút)
	TextRatio     float64       // Tỷ lệ nội dung text trong content mix (0.6)
	HorizonDays   int           // Số ngày sinh slot trước (7)
}

// Scheduler sinh slot và gán content drafted vào slot trống
type Scheduler struct {
	slots Config
	store slotStore
	items itemStore
	rng   *rand.Rand
}

// NewScheduler tạo mới Scheduler
func NewScheduler(store slotStore, items itemStore, cfg Config) *Scheduler {
	if len(cfg.AudienceZones) == 0 {
		cfg.AudienceZones = DefaultAudienceZones()
	}
	return &Scheduler{
		slots: cfg,
		store: store,
		items: items,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// MinGapRange trả về khoảng cách tối thiểu giữa hai slot theo tỷ lệ lỗi gần đây.
// Lỗi càng nhiều đăng càng thưa.
func MinGapRange(errorRate float64) (time.Duration, time.Duration) {
	switch {
	case errorRate > 0.40:
		return 6 * time.Hour, 8 * time.Hour
	case errorRate > 0.20:
		return 4 * time.Hour, 6 * time.Hour
	default:
		return 2 * time.Hour, 4 * time.Hour
	}
}

// jitter trả về độ lệch ngẫu nhiên trong [JitterMin, JitterMax], dấu ngẫu nhiên
func (s *Scheduler) jitter() time.Duration {
	span := s.slots.JitterMax - s.slots.JitterMin
	offset := s.slots.JitterMin + time.Duration(s.rng.Int63n(int64(span)+1))
	if s.rng.Intn(2) == 0 {
		return -offset
	}
	return offset
}

// pickKind chọn loại nội dung cho slot theo content mix
func (s *Scheduler) pickKind() string {
	if s.rng.Float64() < s.slots.TextRatio {
		return contentmodels.KindText
	}
	return contentmodels.KindReel
}

// GenerateSlots sinh slot cho HorizonDays ngày tới quanh giờ cao điểm của
// từng audience zone. Ứng viên của mọi zone được gộp lại và sắp xếp theo
// thời gian trước khi lọc khoảng cách tối thiểu, nên lịch cuối cùng đan xen
// các zone thay vì bám một múi giờ. Slot mới chỉ sinh sau slot muộn nhất
// đã có, khoảng cách tối thiểu thích ứng với tỷ lệ lỗi 24 giờ gần nhất.
// Trả về số slot đã sinh.
func (s *Scheduler) GenerateSlots(ctx context.Context, now time.Time) (int, error) {
	errorRate, err := s.items.ErrorRate(ctx, now.Add(-24*time.Hour).UnixMilli())
	if err != nil {
		return 0, err
	}
	gapMin, gapMax := MinGapRange(errorRate)

	lastAt, err := s.store.LastSlotAt(ctx)
	if err != nil {
		return 0, err
	}
	if lastAt < now.Unix() {
		lastAt = now.Unix()
	}

	var candidates []contentmodels.ScheduledSlot
	for _, zone := range s.slots.AudienceZones {
		peakHours, loc, err := PeakHours(zone)
		if err != nil {
			return 0, err
		}
		localNow := now.In(loc)

		for day := 0; day < s.slots.HorizonDays; day++ {
			date := localNow.AddDate(0, 0, day)
			for _, hour := range peakHours {
				slotTime := time.Date(date.Year(), date.Month(), date.Day(), hour, 0, 0, 0, loc).Add(s.jitter())
				if slotTime.Unix() <= now.Unix() {
					continue
				}
				candidates = append(candidates, contentmodels.ScheduledSlot{
					SlotAt:   slotTime.Unix(),
					Timezone: zone,
				})
			}
		}
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].SlotAt < candidates[j].SlotAt })

	var newSlots []contentmodels.ScheduledSlot
	for _, candidate := range candidates {
		// Khoảng cách tối thiểu với slot được giữ trước đó, ngẫu nhiên trong [gapMin, gapMax]
		gap := gapMin + time.Duration(s.rng.Int63n(int64(gapMax-gapMin)+1))
		if candidate.SlotAt < lastAt+int64(gap.Seconds()) {
			continue
		}
		candidate.ContentKind = s.pickKind()
		newSlots = append(newSlots, candidate)
		lastAt = candidate.SlotAt
	}

	if len(newSlots) == 0 {
		return 0, nil
	}

	if _, err := s.store.InsertMany(ctx, newSlots); err != nil {
		return 0, err
	}

	logger.WithModule("scheduling").Infof("📅 [SCHEDULER] Sinh %d slot cho %d zone (error rate %.0f%%, gap %s-%s)",
		len(newSlots), len(s.slots.AudienceZones), errorRate*100, gapMin, gapMax)
	return len(newSlots), nil
}

// AssignDrafted gán các item drafted vào slot trống theo loại nội dung của slot.
// Trả về số item đã gán.
func (s *Scheduler) AssignDrafted(ctx context.Context, now time.Time) (int, error) {
	slots, err := s.store.FindUnassigned(ctx, now.Unix(), 0)
	if err != nil {
		return 0, err
	}

	assigned := 0
	// Cache item drafted theo loại, lấy một lần cho cả lượt
	pending := map[string][]contentmodels.ContentItem{}
	for _, kind := range []string{contentmodels.KindText, contentmodels.KindReel} {
		items, err := s.items.FindDraftedByKind(ctx, kind, int64(len(slots)))
		if err != nil {
			return assigned, err
		}
		pending[kind] = items
	}

	for _, slot := range slots {
		items := pending[slot.ContentKind]
		if len(items) == 0 {
			continue
		}
		item := items[0]
		pending[slot.ContentKind] = items[1:]

		if _, err := s.items.AssignSchedule(ctx, item.ID, slot.SlotAt); err != nil {
			return assigned, err
		}
		if _, err := s.store.AssignContent(ctx, slot.ID, item.ID); err != nil {
			return assigned, err
		}
		assigned++
	}

	if assigned > 0 {
		logger.WithModule("scheduling").Infof("📅 [SCHEDULER] Gán %d item vào slot", assigned)
	}
	return assigned, nil
}

// CleanupPast xóa các slot đã qua quá 24 giờ
func (s *Scheduler) CleanupPast(ctx context.Context, now time.Time) (int64, error) {
	return s.store.DeleteBefore(ctx, now.Add(-24*time.Hour).Unix())
}
