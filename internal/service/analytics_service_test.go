package service

import (
	"context"
	"testing"

	"village-connect/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTotalStats_Partition(t *testing.T) {
	_, residents, svc := newResidentFixture()
	analytics := NewAnalyticsService(residents)

	mustCreate(t, svc, "u1", nil) // village
	mustCreate(t, svc, "u2", func(r *CreateResidentRequest) {
		r.CurrentLocation = domain.LocationCity
	})
	mustCreate(t, svc, "u3", func(r *CreateResidentRequest) {
		r.CurrentLocation = domain.LocationCity
	})
	mustCreate(t, svc, "u4", func(r *CreateResidentRequest) {
		r.CurrentLocation = domain.LocationAbroad
	})
	// 不可见：不计入任何统计
	mustCreate(t, svc, "u5", func(r *CreateResidentRequest) {
		r.IsVisible = boolPtr(false)
	})

	stats, err := analytics.TotalStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 1, stats.InVillage)
	assert.Equal(t, 2, stats.InCity)
	assert.Equal(t, 1, stats.Abroad)
	assert.Equal(t, stats.Total, stats.InVillage+stats.InCity+stats.Abroad)
}

func TestLocationStats_OmitsEmptyGroups(t *testing.T) {
	_, residents, svc := newResidentFixture()
	analytics := NewAnalyticsService(residents)

	mustCreate(t, svc, "u1", nil)
	mustCreate(t, svc, "u2", nil)

	stats, err := analytics.LocationStats(context.Background())
	require.NoError(t, err)

	// 只有出现过的位置分组，无零值填充
	require.Len(t, stats, 1)
	assert.Equal(t, domain.LocationVillage, stats[0].Location)
	assert.Equal(t, 2, stats[0].Count)
}

func TestOccupationStats(t *testing.T) {
	_, residents, svc := newResidentFixture()
	analytics := NewAnalyticsService(residents)

	mustCreate(t, svc, "u1", nil) // farming
	mustCreate(t, svc, "u2", func(r *CreateResidentRequest) {
		r.Occupation = domain.OccupationStudent
	})
	mustCreate(t, svc, "u3", func(r *CreateResidentRequest) {
		r.Occupation = domain.OccupationStudent
	})

	stats, err := analytics.OccupationStats(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 2)

	counts := map[string]int{}
	for _, s := range stats {
		counts[s.Occupation] = s.Count
	}
	assert.Equal(t, 1, counts[domain.OccupationFarming])
	assert.Equal(t, 2, counts[domain.OccupationStudent])
}
