package domain

import (
	"time"
)

// 用户角色
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// IsValidRole 角色枚举校验
func IsValidRole(role string) bool {
	return role == RoleAdmin || role == RoleUser
}

// User 用户领域模型（对应 users 表）
// 主键由身份提供方下发，每次登录成功后 upsert（角色不随 upsert 变化）
type User struct {
	ID              string    `db:"id" json:"id"`
	Email           *string   `db:"email" json:"email"`
	FirstName       *string   `db:"first_name" json:"firstName"`
	LastName        *string   `db:"last_name" json:"lastName"`
	ProfileImageURL *string   `db:"profile_image_url" json:"profileImageUrl"`
	Role            string    `db:"role" json:"role"` // 'admin' | 'user'
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time `db:"updated_at" json:"updatedAt"`
}

// UpsertUser 登录成功后写入的用户资料（来自身份提供方 claims）
type UpsertUser struct {
	ID              string  `json:"id"`
	Email           *string `json:"email"`
	FirstName       *string `json:"firstName"`
	LastName        *string `json:"lastName"`
	ProfileImageURL *string `json:"profileImageUrl"`
}

// UserWithResident 管理端用户列表视图（User + 可选 Resident）
type UserWithResident struct {
	User
	Resident *Resident `json:"resident,omitempty"`
}
