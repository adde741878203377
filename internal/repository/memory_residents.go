package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"village-connect/internal/domain"
	"village-connect/pkg/errs"
)

// MemoryResidentsRepo 内存住户Repository（DB 未就绪时的联测 + 单元测试）
// 与 Postgres 实现保持相同的过滤/排序语义
type MemoryResidentsRepo struct {
	mu     sync.RWMutex
	nextID int
	byID   map[int]domain.Resident

	// user 查询依赖（组装 ResidentWithUser）
	users *MemoryUsersRepo
}

// NewMemoryResidentsRepo 创建内存住户Repository
// users 可为 nil（此时 ResidentWithUser.User 始终为 nil）
func NewMemoryResidentsRepo(users *MemoryUsersRepo) *MemoryResidentsRepo {
	return &MemoryResidentsRepo{
		nextID: 1,
		byID:   map[int]domain.Resident{},
		users:  users,
	}
}

// 确保实现了接口
var _ ResidentsRepository = (*MemoryResidentsRepo)(nil)

func (r *MemoryResidentsRepo) withUser(ctx context.Context, res domain.Resident) domain.ResidentWithUser {
	out := domain.ResidentWithUser{Resident: res}
	if r.users != nil && res.UserID != nil {
		if u, err := r.users.GetUser(ctx, *res.UserID); err == nil {
			out.User = u
		}
	}
	return out
}

func (r *MemoryResidentsRepo) GetResident(ctx context.Context, id int) (*domain.ResidentWithUser, error) {
	r.mu.RLock()
	res, ok := r.byID[id]
	r.mu.RUnlock()
	if !ok {
		return nil, errs.ErrNotFound
	}
	out := r.withUser(ctx, res)
	return &out, nil
}

func (r *MemoryResidentsRepo) GetResidentByUserID(ctx context.Context, userID string) (*domain.ResidentWithUser, error) {
	r.mu.RLock()
	var found *domain.Resident
	for _, res := range r.byID {
		if res.UserID != nil && *res.UserID == userID {
			cp := res
			found = &cp
			break
		}
	}
	r.mu.RUnlock()
	if found == nil {
		return nil, nil
	}
	out := r.withUser(ctx, *found)
	return &out, nil
}

// matchFilters 过滤谓词（与 Postgres WHERE 语义一致）
// 已知偏差：SQL 路径将搜索串原样拼入 ILIKE，% 和 _ 是通配符；
// 这里按字面子串匹配。仅在搜索串含这两个字符时结果不同
func matchFilters(res domain.Resident, filters ResidentFilters, now time.Time) bool {
	if !res.IsVisible {
		return false
	}
	if filters.Location != "" && res.CurrentLocation != filters.Location {
		return false
	}
	if filters.Occupation != "" && res.Occupation != filters.Occupation {
		return false
	}
	if filters.Search != "" {
		needle := strings.ToLower(filters.Search)
		company := ""
		if res.Company != nil {
			company = *res.Company
		}
		if !strings.Contains(strings.ToLower(res.FullName), needle) &&
			!strings.Contains(strings.ToLower(res.PhoneNumber), needle) &&
			!strings.Contains(strings.ToLower(company), needle) {
			return false
		}
	}
	if filters.Returning {
		if res.ExpectedReturnDate == nil {
			return false
		}
		start, end := currentMonthWindow(now)
		d := dateOnly(*res.ExpectedReturnDate)
		if d.Before(start) || !d.Before(end) {
			return false
		}
	}
	if filters.AwayLong {
		if res.DepartureDate == nil || res.CurrentLocation == domain.LocationVillage {
			return false
		}
		cutoff := dateOnly(now).AddDate(-1, 0, 0)
		if !dateOnly(*res.DepartureDate).Before(cutoff) {
			return false
		}
	}
	return true
}

// sortResidents created_at DESC, id DESC（与 Postgres ORDER BY 一致）
func sortResidents(items []domain.Resident) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID > items[j].ID
	})
}

func (r *MemoryResidentsRepo) ListResidents(ctx context.Context, filters ResidentFilters) ([]domain.ResidentWithUser, error) {
	r.mu.RLock()
	now := time.Now()
	matched := []domain.Resident{}
	for _, res := range r.byID {
		if matchFilters(res, filters, now) {
			matched = append(matched, res)
		}
	}
	r.mu.RUnlock()

	sortResidents(matched)

	out := make([]domain.ResidentWithUser, 0, len(matched))
	for _, res := range matched {
		out = append(out, r.withUser(ctx, res))
	}
	return out, nil
}

func (r *MemoryResidentsRepo) ListAllResidents(_ context.Context) ([]domain.Resident, error) {
	r.mu.RLock()
	out := make([]domain.Resident, 0, len(r.byID))
	for _, res := range r.byID {
		out = append(out, res)
	}
	r.mu.RUnlock()

	sortResidents(out)
	return out, nil
}

func (r *MemoryResidentsRepo) CreateResident(_ context.Context, resident *domain.Resident) (*domain.Resident, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// user_id 唯一约束
	if resident.UserID != nil {
		for _, existing := range r.byID {
			if existing.UserID != nil && *existing.UserID == *resident.UserID {
				return nil, errs.ErrResidentExists
			}
		}
	}

	created := *resident
	created.ID = r.nextID
	r.nextID++
	now := time.Now()
	created.CreatedAt = now
	created.UpdatedAt = now
	r.byID[created.ID] = created

	cp := created
	return &cp, nil
}

func (r *MemoryResidentsRepo) UpdateResident(_ context.Context, id int, patch ResidentPatch) (*domain.Resident, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, ok := r.byID[id]
	if !ok {
		return nil, errs.ErrNotFound
	}

	if patch.FullName != nil {
		res.FullName = *patch.FullName
	}
	if patch.Age != nil {
		res.Age = *patch.Age
	}
	if patch.Gender != nil {
		res.Gender = *patch.Gender
	}
	if patch.PhoneNumber != nil {
		res.PhoneNumber = *patch.PhoneNumber
	}
	if patch.HouseNumber != nil {
		res.HouseNumber = *patch.HouseNumber
	}
	if patch.CurrentLocation != nil {
		res.CurrentLocation = *patch.CurrentLocation
	}
	if patch.CurrentCity != nil {
		res.CurrentCity = patch.CurrentCity
	}
	if patch.CurrentCountry != nil {
		res.CurrentCountry = patch.CurrentCountry
	}
	if patch.DepartureDate != nil {
		res.DepartureDate = patch.DepartureDate
	}
	if patch.ExpectedReturnDate != nil {
		res.ExpectedReturnDate = patch.ExpectedReturnDate
	}
	if patch.Occupation != nil {
		res.Occupation = *patch.Occupation
	}
	if patch.Company != nil {
		res.Company = patch.Company
	}
	if patch.WorkSector != nil {
		res.WorkSector = patch.WorkSector
	}
	if patch.WorkDetails != nil {
		res.WorkDetails = patch.WorkDetails
	}
	if patch.IsVisible != nil {
		res.IsVisible = *patch.IsVisible
	}
	if patch.ShowPhone != nil {
		res.ShowPhone = *patch.ShowPhone
	}
	if patch.ShowLocation != nil {
		res.ShowLocation = *patch.ShowLocation
	}
	if patch.ShowReturnDate != nil {
		res.ShowReturnDate = *patch.ShowReturnDate
	}

	res.UpdatedAt = time.Now()
	r.byID[id] = res

	cp := res
	return &cp, nil
}

func (r *MemoryResidentsRepo) DeleteResident(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return errs.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

// DeleteResidentByUserID 级联删除辅助（MemoryUsersRepo.DeleteUser 使用）
func (r *MemoryResidentsRepo) DeleteResidentByUserID(_ context.Context, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, res := range r.byID {
		if res.UserID != nil && *res.UserID == userID {
			delete(r.byID, id)
		}
	}
}

func (r *MemoryResidentsRepo) LocationStats(_ context.Context) ([]domain.LocationStat, error) {
	r.mu.RLock()
	counts := map[string]int{}
	for _, res := range r.byID {
		if res.IsVisible {
			counts[res.CurrentLocation]++
		}
	}
	r.mu.RUnlock()

	out := []domain.LocationStat{}
	for _, location := range []string{domain.LocationAbroad, domain.LocationCity, domain.LocationVillage} {
		if c, ok := counts[location]; ok {
			out = append(out, domain.LocationStat{Location: location, Count: c})
		}
	}
	return out, nil
}

func (r *MemoryResidentsRepo) OccupationStats(_ context.Context) ([]domain.OccupationStat, error) {
	r.mu.RLock()
	counts := map[string]int{}
	for _, res := range r.byID {
		if res.IsVisible {
			counts[res.Occupation]++
		}
	}
	r.mu.RUnlock()

	occupations := make([]string, 0, len(counts))
	for occupation := range counts {
		occupations = append(occupations, occupation)
	}
	sort.Strings(occupations)

	out := []domain.OccupationStat{}
	for _, occupation := range occupations {
		out = append(out, domain.OccupationStat{Occupation: occupation, Count: counts[occupation]})
	}
	return out, nil
}

func (r *MemoryResidentsRepo) TotalStats(_ context.Context) (*domain.TotalStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &domain.TotalStats{}
	for _, res := range r.byID {
		if !res.IsVisible {
			continue
		}
		stats.Total++
		switch res.CurrentLocation {
		case domain.LocationVillage:
			stats.InVillage++
		case domain.LocationCity:
			stats.InCity++
		case domain.LocationAbroad:
			stats.Abroad++
		}
	}
	return stats, nil
}
