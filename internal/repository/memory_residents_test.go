package repository

import (
	"testing"
	"time"

	"village-connect/internal/domain"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func visibleResident(mutate func(*domain.Resident)) domain.Resident {
	res := domain.Resident{
		FullName:        "Ravi Kumar",
		PhoneNumber:     "9876543210",
		CurrentLocation: domain.LocationCity,
		Occupation:      domain.OccupationJob,
		IsVisible:       true,
	}
	if mutate != nil {
		mutate(&res)
	}
	return res
}

func TestMatchFilters_ReturningWindow(t *testing.T) {
	now := date(2026, time.August, 15)
	filters := ResidentFilters{Returning: true}

	tests := []struct {
		name       string
		returnDate *time.Time
		want       bool
	}{
		{"first day of month", timePtr(date(2026, time.August, 1)), true},
		{"last day of month", timePtr(date(2026, time.August, 31)), true},
		{"previous month", timePtr(date(2026, time.July, 31)), false},
		{"next month", timePtr(date(2026, time.September, 1)), false},
		{"no return date", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := visibleResident(func(r *domain.Resident) {
				r.ExpectedReturnDate = tt.returnDate
			})
			assert.Equal(t, tt.want, matchFilters(res, filters, now))
		})
	}
}

func TestMatchFilters_ReturningWindow_DecemberRollover(t *testing.T) {
	// 12 月窗口跨年：[12-01, 次年 01-01)
	now := date(2026, time.December, 20)
	res := visibleResident(func(r *domain.Resident) {
		r.ExpectedReturnDate = timePtr(date(2026, time.December, 31))
	})
	assert.True(t, matchFilters(res, ResidentFilters{Returning: true}, now))

	res.ExpectedReturnDate = timePtr(date(2027, time.January, 1))
	assert.False(t, matchFilters(res, ResidentFilters{Returning: true}, now))
}

func TestMatchFilters_AwayLongCutoff(t *testing.T) {
	now := date(2026, time.August, 15)
	filters := ResidentFilters{AwayLong: true}

	// 严格早于一年前才计入
	exactlyOneYear := visibleResident(func(r *domain.Resident) {
		r.DepartureDate = timePtr(date(2025, time.August, 15))
	})
	assert.False(t, matchFilters(exactlyOneYear, filters, now))

	overOneYear := visibleResident(func(r *domain.Resident) {
		r.DepartureDate = timePtr(date(2025, time.August, 14))
	})
	assert.True(t, matchFilters(overOneYear, filters, now))

	// 已回村则不计入，无论离村多久
	backInVillage := visibleResident(func(r *domain.Resident) {
		r.CurrentLocation = domain.LocationVillage
		r.DepartureDate = timePtr(date(2020, time.January, 1))
	})
	assert.False(t, matchFilters(backInVillage, filters, now))
}

func TestMatchFilters_HiddenNeverMatches(t *testing.T) {
	now := date(2026, time.August, 15)
	res := visibleResident(func(r *domain.Resident) {
		r.IsVisible = false
	})
	assert.False(t, matchFilters(res, ResidentFilters{}, now))
}

func TestMatchFilters_SearchFields(t *testing.T) {
	now := date(2026, time.August, 15)
	res := visibleResident(func(r *domain.Resident) {
		r.FullName = "Anita Singh"
		r.PhoneNumber = "9123456780"
		r.Company = strPtrRepo("Kumar Traders")
	})

	assert.True(t, matchFilters(res, ResidentFilters{Search: "anita"}, now))
	assert.True(t, matchFilters(res, ResidentFilters{Search: "912345"}, now))
	assert.True(t, matchFilters(res, ResidentFilters{Search: "kumar"}, now))
	assert.False(t, matchFilters(res, ResidentFilters{Search: "patel"}, now))
}

func TestMatchFilters_SearchMetacharactersAreLiteral(t *testing.T) {
	now := date(2026, time.August, 15)
	plain := visibleResident(func(r *domain.Resident) {
		r.FullName = "Anita Singh"
	})
	withPercent := visibleResident(func(r *domain.Resident) {
		r.Company = strPtrRepo("100% Organic")
	})

	// 内存路径按字面匹配：% 和 _ 不是通配符
	assert.False(t, matchFilters(plain, ResidentFilters{Search: "%"}, now))
	assert.False(t, matchFilters(plain, ResidentFilters{Search: "An_ta"}, now))
	assert.True(t, matchFilters(withPercent, ResidentFilters{Search: "100%"}, now))
}

func TestCurrentMonthWindow(t *testing.T) {
	start, end := currentMonthWindow(date(2026, time.December, 20))
	assert.Equal(t, date(2026, time.December, 1), start)
	assert.Equal(t, date(2027, time.January, 1), end)
}

func timePtr(t time.Time) *time.Time { return &t }
func strPtrRepo(s string) *string    { return &s }
