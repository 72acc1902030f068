// Package ratelimit - Test giới hạn theo tuổi tài khoản và engagement.
package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"

	contentmodels "content_factory/internal/api/content/models"
)

// fakeRecordStore giả lập PublishedRecordService
type fakeRecordStore struct {
	countToday int64
	recent     []contentmodels.PublishedRecord
}

func (f *fakeRecordStore) CountSince(ctx context.Context, since int64) (int64, error) {
	return f.countToday, nil
}

func (f *fakeRecordStore) LastN(ctx context.Context, n int64) ([]contentmodels.PublishedRecord, error) {
	if int64(len(f.recent)) > n {
		return f.recent[:n], nil
	}
	return f.recent, nil
}

func engagement(likes, comments, shares, reach int64) contentmodels.PublishedRecord {
	return contentmodels.PublishedRecord{
		Engagement: contentmodels.EngagementSnapshot{
			Likes: likes, Comments: comments, Shares: shares, Reach: reach,
		},
	}
}

func TestDailyLimitForAge(t *testing.T) {
	cases := []struct {
		ageDays int
		want    int
	}{
		{0, 2}, {6, 2},
		{7, 3}, {29, 3},
		{30, 5}, {89, 5},
		{90, 8}, {365, 8},
	}
	for _, c := range cases {
		if got := DailyLimitForAge(c.ageDays); got != c.want {
			t.Errorf("DailyLimitForAge(%d) = %d, muốn %d", c.ageDays, got, c.want)
		}
	}
}

func TestWeightedEngagementRate_NoRecords(t *testing.T) {
	if got := WeightedEngagementRate(nil); got != 100.0 {
		t.Errorf("chưa có bài nào phải trả về 100.0, got %v", got)
	}
}

func TestWeightedEngagementRate_ZeroReach(t *testing.T) {
	records := []contentmodels.PublishedRecord{engagement(10, 5, 2, 0)}
	if got := WeightedEngagementRate(records); got != 5.0 {
		t.Errorf("bài reach=0 phải được tính 5.0, got %v", got)
	}
}

func TestWeightedEngagementRate_Weighted(t *testing.T) {
	// (10 + 2*5 + 3*10) / 1000 * 100 = 5.0
	records := []contentmodels.PublishedRecord{engagement(10, 5, 10, 1000)}
	if got := WeightedEngagementRate(records); got != 5.0 {
		t.Errorf("rate = %v, muốn 5.0", got)
	}

	// Trung bình hai bài: (5.0 + 1.0) / 2 = 3.0
	records = append(records, engagement(10, 0, 0, 1000))
	if got := WeightedEngagementRate(records); got != 3.0 {
		t.Errorf("rate trung bình = %v, muốn 3.0", got)
	}
}

func TestCanPost_DailyLimit(t *testing.T) {
	store := &fakeRecordStore{countToday: 2}
	limiter := NewLimiter(store, Config{MinEngagementRate: 0.5})

	// Tài khoản 5 ngày tuổi: giới hạn 2 bài/ngày, đã đăng 2
	decision, err := limiter.CanPost(context.Background(), time.Now(), 5)
	if err != nil {
		t.Fatalf("CanPost trả về lỗi: %v", err)
	}
	if decision.Allowed {
		t.Fatal("đã chạm giới hạn ngày, phải bị chặn")
	}
	if decision.Reason != "Daily limit reached (2/2 posts)" {
		t.Errorf("reason = %q", decision.Reason)
	}
}

func TestCanPost_LowEngagement(t *testing.T) {
	// 5 bài gần nhất đều tương tác rất thấp: (1+0+0)/1000*100 = 0.1%
	var recent []contentmodels.PublishedRecord
	for i := 0; i < 5; i++ {
		recent = append(recent, engagement(1, 0, 0, 1000))
	}
	store := &fakeRecordStore{countToday: 1, recent: recent}
	limiter := NewLimiter(store, Config{MinEngagementRate: 0.5})

	decision, err := limiter.CanPost(context.Background(), time.Now(), 365)
	if err != nil {
		t.Fatalf("CanPost trả về lỗi: %v", err)
	}
	if decision.Allowed {
		t.Fatal("engagement dưới ngưỡng phải bị chặn")
	}
	want := fmt.Sprintf("Low engagement detected (%.2f%%), pausing to protect account", 0.1)
	if decision.Reason != want {
		t.Errorf("reason = %q, muốn %q", decision.Reason, want)
	}
}

func TestCanPost_Allowed(t *testing.T) {
	store := &fakeRecordStore{
		countToday: 1,
		recent:     []contentmodels.PublishedRecord{engagement(50, 10, 5, 1000)},
	}
	limiter := NewLimiter(store, Config{MinEngagementRate: 0.5})

	decision, err := limiter.CanPost(context.Background(), time.Now(), 365)
	if err != nil {
		t.Fatalf("CanPost trả về lỗi: %v", err)
	}
	if !decision.Allowed {
		t.Fatalf("phải được đăng, reason: %q", decision.Reason)
	}
	if decision.DailyLimit != 8 {
		t.Errorf("DailyLimit = %d, muốn 8", decision.DailyLimit)
	}
}

func TestCanPost_NoHistoryAllowed(t *testing.T) {
	// Page mới chưa có bài nào: engagement mặc định 100.0, không chặn
	store := &fakeRecordStore{}
	limiter := NewLimiter(store, Config{MinEngagementRate: 0.5})

	decision, err := limiter.CanPost(context.Background(), time.Now(), 0)
	if err != nil {
		t.Fatalf("CanPost trả về lỗi: %v", err)
	}
	if !decision.Allowed {
		t.Errorf("page chưa có lịch sử phải được đăng, reason: %q", decision.Reason)
	}
	if decision.EngagementRate != 100.0 {
		t.Errorf("EngagementRate = %v, muốn 100.0", decision.EngagementRate)
	}
}

func TestWaitUntilCanPost(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)

	daily := Decision{Reason: "Daily limit reached (2/2 posts)"}
	if got := WaitUntilCanPost(daily, now); !got.Equal(time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("giới hạn ngày phải chờ đến 00:00 UTC hôm sau, got %v", got)
	}

	low := Decision{Reason: "Low engagement detected (0.10%), pausing to protect account"}
	if got := WaitUntilCanPost(low, now); !got.Equal(now.Add(24*time.Hour)) {
		t.Errorf("engagement thấp phải chờ 24 giờ, got %v", got)
	}

	other := Decision{Reason: "some other reason"}
	if got := WaitUntilCanPost(other, now); !got.Equal(now.Add(1*time.Hour)) {
		t.Errorf("trường hợp khác phải chờ 1 giờ, got %v", got)
	}
}
