// Package scheduling - Test sinh slot, jitter, gap thích ứng và content mix.
package scheduling

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	contentmodels "content_factory/internal/api/content/models"
)

// fakeSlotStore giả lập ScheduledSlotService
type fakeSlotStore struct {
	slots []contentmodels.ScheduledSlot
}

func (f *fakeSlotStore) LastSlotAt(ctx context.Context) (int64, error) {
	var last int64
	for _, s := range f.slots {
		if s.SlotAt > last {
			last = s.SlotAt
		}
	}
	return last, nil
}

func (f *fakeSlotStore) InsertMany(ctx context.Context, data []contentmodels.ScheduledSlot) ([]contentmodels.ScheduledSlot, error) {
	for i := range data {
		data[i].ID = primitive.NewObjectID()
	}
	f.slots = append(f.slots, data...)
	return data, nil
}

func (f *fakeSlotStore) FindUnassigned(ctx context.Context, from int64, limit int64) ([]contentmodels.ScheduledSlot, error) {
	var result []contentmodels.ScheduledSlot
	for _, s := range f.slots {
		if s.SlotAt >= from && s.ContentID.IsZero() {
			result = append(result, s)
		}
	}
	return result, nil
}

func (f *fakeSlotStore) AssignContent(ctx context.Context, slotID primitive.ObjectID, contentID primitive.ObjectID) (contentmodels.ScheduledSlot, error) {
	for i := range f.slots {
		if f.slots[i].ID == slotID {
			f.slots[i].ContentID = contentID
			return f.slots[i], nil
		}
	}
	return contentmodels.ScheduledSlot{}, nil
}

func (f *fakeSlotStore) DeleteBefore(ctx context.Context, before int64) (int64, error) {
	var kept []contentmodels.ScheduledSlot
	var deleted int64
	for _, s := range f.slots {
		if s.SlotAt < before {
			deleted++
			continue
		}
		kept = append(kept, s)
	}
	f.slots = kept
	return deleted, nil
}

// fakeItemStore giả lập ContentItemService cho scheduler
type fakeItemStore struct {
	drafted   map[string][]contentmodels.ContentItem
	assigned  map[primitive.ObjectID]int64
	errorRate float64
}

func newFakeItemStore() *fakeItemStore {
	return &fakeItemStore{
		drafted:  map[string][]contentmodels.ContentItem{},
		assigned: map[primitive.ObjectID]int64{},
	}
}

func (f *fakeItemStore) FindDraftedByKind(ctx context.Context, kind string, limit int64) ([]contentmodels.ContentItem, error) {
	return f.drafted[kind], nil
}

func (f *fakeItemStore) AssignSchedule(ctx context.Context, id primitive.ObjectID, scheduledAt int64) (contentmodels.ContentItem, error) {
	f.assigned[id] = scheduledAt
	return contentmodels.ContentItem{ID: id, ScheduledAt: scheduledAt}, nil
}

func (f *fakeItemStore) ErrorRate(ctx context.Context, since int64) (float64, error) {
	return f.errorRate, nil
}

func testSchedulerConfig() Config {
	return Config{
		AudienceZones: []string{"US_EST"},
		JitterMin:     5 * time.Minute,
		JitterMax:     25 * time.Minute,
		TextRatio:     0.6,
		HorizonDays:   7,
	}
}

func TestPeakHours(t *testing.T) {
	cases := []struct {
		zone  string
		hours []int
	}{
		{"US_EST", []int{7, 12, 18, 20}},
		{"US_PST", []int{9, 14, 20, 22}},
		{"UK_GMT", []int{8, 13, 17, 21}},
	}
	for _, c := range cases {
		hours, loc, err := PeakHours(c.zone)
		if err != nil {
			t.Fatalf("PeakHours(%s) lỗi: %v", c.zone, err)
		}
		if loc == nil {
			t.Fatalf("PeakHours(%s) không trả về location", c.zone)
		}
		if len(hours) != len(c.hours) {
			t.Fatalf("PeakHours(%s) = %v, muốn %v", c.zone, hours, c.hours)
		}
		for i := range hours {
			if hours[i] != c.hours[i] {
				t.Errorf("PeakHours(%s)[%d] = %d, muốn %d", c.zone, i, hours[i], c.hours[i])
			}
		}
	}

	if _, _, err := PeakHours("MARS"); err == nil {
		t.Error("zone không tồn tại phải trả về lỗi")
	}
}

func TestMinGapRange(t *testing.T) {
	cases := []struct {
		rate     float64
		min, max time.Duration
	}{
		{0.0, 2 * time.Hour, 4 * time.Hour},
		{0.20, 2 * time.Hour, 4 * time.Hour},
		{0.21, 4 * time.Hour, 6 * time.Hour},
		{0.40, 4 * time.Hour, 6 * time.Hour},
		{0.41, 6 * time.Hour, 8 * time.Hour},
		{1.0, 6 * time.Hour, 8 * time.Hour},
	}
	for _, c := range cases {
		gotMin, gotMax := MinGapRange(c.rate)
		if gotMin != c.min || gotMax != c.max {
			t.Errorf("MinGapRange(%v) = (%v, %v), muốn (%v, %v)", c.rate, gotMin, gotMax, c.min, c.max)
		}
	}
}

func TestGenerateSlots(t *testing.T) {
	store := &fakeSlotStore{}
	items := newFakeItemStore()
	scheduler := NewScheduler(store, items, testSchedulerConfig())

	now := time.Now()
	count, err := scheduler.GenerateSlots(context.Background(), now)
	if err != nil {
		t.Fatalf("GenerateSlots lỗi: %v", err)
	}
	if count == 0 {
		t.Fatal("phải sinh được slot cho 7 ngày tới")
	}
	if count != len(store.slots) {
		t.Errorf("count = %d nhưng store có %d slot", count, len(store.slots))
	}

	_, loc, _ := PeakHours("US_EST")
	peakSet := map[int]bool{7: true, 12: true, 18: true, 20: true}

	var prev int64
	for _, slot := range store.slots {
		if slot.SlotAt <= now.Unix() {
			t.Errorf("slot %d nằm trong quá khứ", slot.SlotAt)
		}
		if slot.ContentKind != contentmodels.KindText && slot.ContentKind != contentmodels.KindReel {
			t.Errorf("contentKind không hợp lệ: %q", slot.ContentKind)
		}
		if slot.Timezone != "US_EST" {
			t.Errorf("timezone = %q, muốn US_EST", slot.Timezone)
		}

		// Slot phải cách giờ cao điểm không quá 25 phút jitter
		local := time.Unix(slot.SlotAt, 0).In(loc)
		matched := false
		for hour := range peakSet {
			peak := time.Date(local.Year(), local.Month(), local.Day(), hour, 0, 0, 0, loc)
			diff := local.Sub(peak)
			if diff < 0 {
				diff = -diff
			}
			if diff <= 25*time.Minute {
				matched = true
				break
			}
		}
		if !matched {
			t.Errorf("slot %v không nằm quanh giờ cao điểm nào", local)
		}

		// Khoảng cách tối thiểu 2 giờ khi error rate bằng 0
		if prev != 0 && slot.SlotAt-prev < int64((2*time.Hour).Seconds()) {
			t.Errorf("hai slot cách nhau %ds, dưới gap tối thiểu", slot.SlotAt-prev)
		}
		prev = slot.SlotAt
	}
}

func TestGenerateSlots_MergesAllZones(t *testing.T) {
	store := &fakeSlotStore{}
	items := newFakeItemStore()

	// Không cấu hình zone nào thì scheduler phủ cả ba zone mặc định
	cfg := testSchedulerConfig()
	cfg.AudienceZones = nil
	scheduler := NewScheduler(store, items, cfg)

	now := time.Now()
	count, err := scheduler.GenerateSlots(context.Background(), now)
	if err != nil {
		t.Fatalf("GenerateSlots lỗi: %v", err)
	}
	if count == 0 {
		t.Fatal("phải sinh được slot cho các zone mặc định")
	}

	known := map[string]bool{}
	for _, zone := range DefaultAudienceZones() {
		known[zone] = true
	}

	var prev int64
	for _, slot := range store.slots {
		if !known[slot.Timezone] {
			t.Errorf("timezone %q không thuộc các zone mặc định", slot.Timezone)
			continue
		}

		// Sau khi gộp ứng viên của mọi zone, danh sách cuối phải tăng dần
		// và vẫn giữ khoảng cách tối thiểu 2 giờ khi error rate bằng 0
		if prev != 0 {
			if slot.SlotAt <= prev {
				t.Errorf("slot %d không được sắp xếp sau slot %d", slot.SlotAt, prev)
			}
			if slot.SlotAt-prev < int64((2*time.Hour).Seconds()) {
				t.Errorf("hai slot cách nhau %ds, dưới gap tối thiểu", slot.SlotAt-prev)
			}
		}
		prev = slot.SlotAt

		// Slot phải nằm quanh một giờ cao điểm của chính zone nó mang
		hours, loc, err := PeakHours(slot.Timezone)
		if err != nil {
			t.Fatalf("PeakHours(%s) lỗi: %v", slot.Timezone, err)
		}
		local := time.Unix(slot.SlotAt, 0).In(loc)
		matched := false
		for _, hour := range hours {
			peak := time.Date(local.Year(), local.Month(), local.Day(), hour, 0, 0, 0, loc)
			diff := local.Sub(peak)
			if diff < 0 {
				diff = -diff
			}
			if diff <= 25*time.Minute {
				matched = true
				break
			}
		}
		if !matched {
			t.Errorf("slot %v không nằm quanh giờ cao điểm nào của zone %s", local, slot.Timezone)
		}
	}
}

func TestGenerateSlots_HighErrorRateSpacesOut(t *testing.T) {
	lowStore := &fakeSlotStore{}
	lowItems := newFakeItemStore()
	low := NewScheduler(lowStore, lowItems, testSchedulerConfig())

	highStore := &fakeSlotStore{}
	highItems := newFakeItemStore()
	highItems.errorRate = 0.5
	high := NewScheduler(highStore, highItems, testSchedulerConfig())

	now := time.Now()
	lowCount, err := low.GenerateSlots(context.Background(), now)
	if err != nil {
		t.Fatalf("GenerateSlots lỗi: %v", err)
	}
	highCount, err := high.GenerateSlots(context.Background(), now)
	if err != nil {
		t.Fatalf("GenerateSlots lỗi: %v", err)
	}

	// Gap 6-8 giờ phải sinh ít slot hơn gap 2-4 giờ
	if highCount >= lowCount {
		t.Errorf("error rate cao phải sinh ít slot hơn: high=%d low=%d", highCount, lowCount)
	}
}

func TestAssignDrafted(t *testing.T) {
	store := &fakeSlotStore{}
	items := newFakeItemStore()
	scheduler := NewScheduler(store, items, testSchedulerConfig())

	now := time.Now()
	textItem := contentmodels.ContentItem{ID: primitive.NewObjectID(), ContentKind: contentmodels.KindText}
	reelItem := contentmodels.ContentItem{ID: primitive.NewObjectID(), ContentKind: contentmodels.KindReel}
	items.drafted[contentmodels.KindText] = []contentmodels.ContentItem{textItem}
	items.drafted[contentmodels.KindReel] = []contentmodels.ContentItem{reelItem}

	store.slots = []contentmodels.ScheduledSlot{
		{ID: primitive.NewObjectID(), SlotAt: now.Add(2 * time.Hour).Unix(), ContentKind: contentmodels.KindText},
		{ID: primitive.NewObjectID(), SlotAt: now.Add(5 * time.Hour).Unix(), ContentKind: contentmodels.KindReel},
		{ID: primitive.NewObjectID(), SlotAt: now.Add(8 * time.Hour).Unix(), ContentKind: contentmodels.KindText},
	}

	assigned, err := scheduler.AssignDrafted(context.Background(), now)
	if err != nil {
		t.Fatalf("AssignDrafted lỗi: %v", err)
	}
	if assigned != 2 {
		t.Fatalf("assigned = %d, muốn 2 (hết item drafted cho slot thứ ba)", assigned)
	}

	if items.assigned[textItem.ID] != store.slots[0].SlotAt {
		t.Error("item text phải được gán vào slot text đầu tiên")
	}
	if items.assigned[reelItem.ID] != store.slots[1].SlotAt {
		t.Error("item reel phải được gán vào slot reel")
	}
	if !store.slots[2].ContentID.IsZero() {
		t.Error("slot thứ ba phải còn trống")
	}
}

func TestCleanupPast(t *testing.T) {
	store := &fakeSlotStore{}
	items := newFakeItemStore()
	scheduler := NewScheduler(store, items, testSchedulerConfig())

	now := time.Now()
	store.slots = []contentmodels.ScheduledSlot{
		{SlotAt: now.Add(-48 * time.Hour).Unix()},
		{SlotAt: now.Add(-2 * time.Hour).Unix()},
		{SlotAt: now.Add(2 * time.Hour).Unix()},
	}

	deleted, err := scheduler.CleanupPast(context.Background(), now)
	if err != nil {
		t.Fatalf("CleanupPast lỗi: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, muốn 1 (chỉ slot quá 24 giờ)", deleted)
	}
}
