package service

import (
	"context"

	"village-connect/internal/domain"
	"village-connect/internal/repository"
	"village-connect/pkg/errs"

	"go.uber.org/zap"
)

// UserService 用户管理服务接口
type UserService interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)

	// 每次登录成功后调用（upsert；role 保持不变）
	UpsertUser(ctx context.Context, user domain.UpsertUser) (*domain.User, error)

	// 管理端操作（调用方负责管理员鉴权）
	ListAllUsers(ctx context.Context) ([]domain.UserWithResident, error)
	UpdateUserRole(ctx context.Context, targetUserID, newRole string) (*domain.User, error)
	DeleteUser(ctx context.Context, targetUserID, actorID string) error
}

// userService 实现
type userService struct {
	usersRepo repository.UsersRepository
	logger    *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(usersRepo repository.UsersRepository, logger *zap.Logger) UserService {
	return &userService{
		usersRepo: usersRepo,
		logger:    logger,
	}
}

// GetUser 按 id 获取用户
func (s *userService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.usersRepo.GetUser(ctx, id)
}

// UpsertUser 登录成功后刷新用户资料
// 只更新资料字段和 updated_at；角色只通过 UpdateUserRole 修改
func (s *userService) UpsertUser(ctx context.Context, user domain.UpsertUser) (*domain.User, error) {
	ve := &errs.ValidationError{}
	if user.ID == "" {
		ve.Add("id", "required")
	}
	if ve.HasErrors() {
		return nil, ve
	}
	return s.usersRepo.UpsertUser(ctx, user)
}

// ListAllUsers 全部用户及各自住户档案（users.created_at DESC）
// 管理员限制在路由边界执行，这里不重复查角色
func (s *userService) ListAllUsers(ctx context.Context) ([]domain.UserWithResident, error) {
	return s.usersRepo.ListUsersWithResidents(ctx)
}

// UpdateUserRole 修改用户角色（role 枚举外的值拒绝）
func (s *userService) UpdateUserRole(ctx context.Context, targetUserID, newRole string) (*domain.User, error) {
	if !domain.IsValidRole(newRole) {
		return nil, errs.NewValidation("role", "must be one of: admin, user")
	}

	updated, err := s.usersRepo.UpdateUserRole(ctx, targetUserID, newRole)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User role updated",
		zap.String("user_id", targetUserID),
		zap.String("role", newRole),
	)
	return updated, nil
}

// DeleteUser 删除用户及其住户档案（单事务级联）
// 禁止自删：targetUserID == actorID 返回 InvalidOperation
func (s *userService) DeleteUser(ctx context.Context, targetUserID, actorID string) error {
	if targetUserID == actorID {
		return errs.ErrInvalidOperation
	}

	if err := s.usersRepo.DeleteUser(ctx, targetUserID); err != nil {
		return err
	}

	s.logger.Info("User deleted",
		zap.String("user_id", targetUserID),
		zap.String("actor_id", actorID),
	)
	return nil
}
