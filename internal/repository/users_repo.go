package repository

import (
	"context"

	"village-connect/internal/domain"
)

// UsersRepository 用户Repository接口
type UsersRepository interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)

	// 每次登录成功后调用：按 id upsert，刷新资料字段和 updated_at，保留 role
	UpsertUser(ctx context.Context, user domain.UpsertUser) (*domain.User, error)

	// 管理端：全部用户 LEFT JOIN 各自住户档案，users.created_at DESC
	ListUsersWithResidents(ctx context.Context) ([]domain.UserWithResident, error)

	UpdateUserRole(ctx context.Context, userID, role string) (*domain.User, error)

	// 级联删除：同一事务内先删 resident 再删 user
	DeleteUser(ctx context.Context, userID string) error
}
