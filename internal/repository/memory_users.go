package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"village-connect/internal/domain"
	"village-connect/pkg/errs"
)

// MemoryUsersRepo 内存用户Repository（DB 未就绪时的联测 + 单元测试）
type MemoryUsersRepo struct {
	mu   sync.RWMutex
	byID map[string]domain.User

	// 级联删除依赖（可为 nil）
	residents *MemoryResidentsRepo
}

// NewMemoryUsersRepo 创建内存用户Repository
func NewMemoryUsersRepo() *MemoryUsersRepo {
	return &MemoryUsersRepo{byID: map[string]domain.User{}}
}

// BindResidents 绑定住户Repository以支持级联删除
// Memory 模式没有外键，由这里手工维持引用完整性
func (r *MemoryUsersRepo) BindResidents(residents *MemoryResidentsRepo) {
	r.residents = residents
}

// 确保实现了接口
var _ UsersRepository = (*MemoryUsersRepo)(nil)

func (r *MemoryUsersRepo) GetUser(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cp := u
	return &cp, nil
}

func (r *MemoryUsersRepo) UpsertUser(_ context.Context, user domain.UpsertUser) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	existing, ok := r.byID[user.ID]
	if !ok {
		existing = domain.User{
			ID:        user.ID,
			Role:      domain.RoleUser,
			CreatedAt: now,
		}
	}
	// role 不随 upsert 变化
	existing.Email = user.Email
	existing.FirstName = user.FirstName
	existing.LastName = user.LastName
	existing.ProfileImageURL = user.ProfileImageURL
	existing.UpdatedAt = now
	r.byID[user.ID] = existing

	cp := existing
	return &cp, nil
}

func (r *MemoryUsersRepo) ListUsersWithResidents(ctx context.Context) ([]domain.UserWithResident, error) {
	r.mu.RLock()
	users := make([]domain.User, 0, len(r.byID))
	for _, u := range r.byID {
		users = append(users, u)
	}
	r.mu.RUnlock()

	sort.Slice(users, func(i, j int) bool {
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.After(users[j].CreatedAt)
		}
		return users[i].ID > users[j].ID
	})

	out := make([]domain.UserWithResident, 0, len(users))
	for _, u := range users {
		item := domain.UserWithResident{User: u}
		if r.residents != nil {
			if rw, err := r.residents.GetResidentByUserID(ctx, u.ID); err == nil && rw != nil {
				res := rw.Resident
				item.Resident = &res
			}
		}
		out = append(out, item)
	}
	return out, nil
}

func (r *MemoryUsersRepo) UpdateUserRole(_ context.Context, userID, role string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[userID]
	if !ok {
		return nil, errs.ErrNotFound
	}
	u.Role = role
	u.UpdatedAt = time.Now()
	r.byID[userID] = u

	cp := u
	return &cp, nil
}

func (r *MemoryUsersRepo) DeleteUser(ctx context.Context, userID string) error {
	r.mu.RLock()
	_, ok := r.byID[userID]
	r.mu.RUnlock()
	if !ok {
		return errs.ErrNotFound
	}

	// 与 Postgres 实现一致：先删 resident 再删 user
	if r.residents != nil {
		r.residents.DeleteResidentByUserID(ctx, userID)
	}

	r.mu.Lock()
	delete(r.byID, userID)
	r.mu.Unlock()
	return nil
}
