package service

import (
	"village-connect/internal/domain"
)

// Actor 当前操作者（已认证主体：id + role）
// role 每请求从 users 表新取，不允许缓存过期角色
type Actor struct {
	ID   string
	Role string
}

// IsAdmin 是否管理员
func (a Actor) IsAdmin() bool {
	return a.Role == domain.RoleAdmin
}

// CanModifyResident 住户档案写权限：管理员 或 档案归属人
// update 和 delete 使用同一规则；每次调用现算，无副作用
func CanModifyResident(actor Actor, ownerUserID *string) bool {
	if actor.IsAdmin() {
		return true
	}
	return ownerUserID != nil && *ownerUserID == actor.ID
}

// CanAdminUsers 用户管理权限（列表/改角色/删用户）：仅管理员
func CanAdminUsers(actor Actor) bool {
	return actor.IsAdmin()
}
