package stats

import (
	"context"
	"sort"
	"time"

	"nhadat-backend/internal/domain"

	"gorm.io/gorm"
)

const (
	staffWindowDays = 7
	adminWindowMons = 12
)

type Service struct {
	DB  *gorm.DB
	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// StatusTotals counts listings per status.
type StatusTotals struct {
	Pending  int64 `json:"cho_duyet"`
	Approved int64 `json:"da_duyet"`
	Rejected int64 `json:"tu_choi"`
	Expired  int64 `json:"het_han"`
}

// DayCount is the number of approvals on one calendar day (YYYY-MM-DD).
type DayCount struct {
	Day   string `json:"_id"`
	Count int64  `json:"count"`
}

type StaffStats struct {
	Totals StatusTotals `json:"tong_quan"`
	Daily  []DayCount   `json:"thong_ke_theo_ngay"`
}

// Staff returns status totals and approvals per day over the last seven days,
// oldest day first. Approval day is the listing's last update.
func (s *Service) Staff(ctx context.Context) (*StaffStats, error) {
	totals, err := s.statusTotals(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	since := now.AddDate(0, 0, -staffWindowDays)
	var stamps []time.Time
	if err := s.DB.WithContext(ctx).Model(&domain.Listing{}).
		Where("trang_thai = ? AND ngay_cap_nhat >= ?", domain.StatusApproved, since).
		Pluck("ngay_cap_nhat", &stamps).Error; err != nil {
		return nil, err
	}
	byDay := make(map[string]int64)
	for _, ts := range stamps {
		byDay[ts.In(now.Location()).Format("2006-01-02")]++
	}
	daily := make([]DayCount, 0, len(byDay))
	for day, n := range byDay {
		daily = append(daily, DayCount{Day: day, Count: n})
	}
	sort.Slice(daily, func(i, j int) bool { return daily[i].Day < daily[j].Day })
	return &StaffStats{Totals: totals, Daily: daily}, nil
}

func (s *Service) statusTotals(ctx context.Context) (StatusTotals, error) {
	var rows []struct {
		Status domain.ListingStatus `gorm:"column:trang_thai"`
		Count  int64                `gorm:"column:count"`
	}
	if err := s.DB.WithContext(ctx).Model(&domain.Listing{}).
		Select("trang_thai, COUNT(*) AS count").Group("trang_thai").
		Scan(&rows).Error; err != nil {
		return StatusTotals{}, err
	}
	var t StatusTotals
	for _, r := range rows {
		switch r.Status {
		case domain.StatusPending:
			t.Pending = r.Count
		case domain.StatusApproved:
			t.Approved = r.Count
		case domain.StatusRejected:
			t.Rejected = r.Count
		case domain.StatusExpired:
			t.Expired = r.Count
		}
	}
	return t, nil
}

type AdminTotals struct {
	Accounts       int64 `json:"tong_user"`
	Listings       int64 `json:"tong_tin_dang"`
	Pending        int64 `json:"tin_dang_cho_duyet"`
	Approved       int64 `json:"tin_dang_da_duyet"`
	LockedAccounts int64 `json:"user_bi_khoa"`
}

type Month struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

type MonthCount struct {
	Month Month `json:"_id"`
	Count int64 `json:"count"`
}

type AdminStats struct {
	Totals  AdminTotals  `json:"tong_quan"`
	Monthly []MonthCount `json:"thong_ke_theo_thang"`
}

// Admin returns account and listing totals plus listings created per month over the
// last twelve months, newest month first.
func (s *Service) Admin(ctx context.Context) (*AdminStats, error) {
	db := s.DB.WithContext(ctx)
	var t AdminTotals
	if err := db.Model(&domain.Account{}).Count(&t.Accounts).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&domain.Account{}).Where("trang_thai = ?", domain.Locked).Count(&t.LockedAccounts).Error; err != nil {
		return nil, err
	}
	statuses, err := s.statusTotals(ctx)
	if err != nil {
		return nil, err
	}
	t.Pending, t.Approved = statuses.Pending, statuses.Approved
	t.Listings = statuses.Pending + statuses.Approved + statuses.Rejected + statuses.Expired

	now := s.now()
	since := now.AddDate(0, -adminWindowMons, 0)
	var stamps []time.Time
	if err := db.Model(&domain.Listing{}).Where("ngay_tao >= ?", since).Pluck("ngay_tao", &stamps).Error; err != nil {
		return nil, err
	}
	byMonth := make(map[Month]int64)
	for _, ts := range stamps {
		ts = ts.In(now.Location())
		byMonth[Month{Year: ts.Year(), Month: int(ts.Month())}]++
	}
	monthly := make([]MonthCount, 0, len(byMonth))
	for m, n := range byMonth {
		monthly = append(monthly, MonthCount{Month: m, Count: n})
	}
	sort.Slice(monthly, func(i, j int) bool {
		a, b := monthly[i].Month, monthly[j].Month
		if a.Year != b.Year {
			return a.Year > b.Year
		}
		return a.Month > b.Month
	})
	return &AdminStats{Totals: t, Monthly: monthly}, nil
}
