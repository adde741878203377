package service

import (
	"testing"

	"village-connect/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestCanModifyResident(t *testing.T) {
	owner := "user-1"

	tests := []struct {
		name        string
		actor       Actor
		ownerUserID *string
		want        bool
	}{
		{
			name:        "owner can modify own profile",
			actor:       Actor{ID: "user-1", Role: domain.RoleUser},
			ownerUserID: &owner,
			want:        true,
		},
		{
			name:        "other user cannot modify",
			actor:       Actor{ID: "user-2", Role: domain.RoleUser},
			ownerUserID: &owner,
			want:        false,
		},
		{
			name:        "admin can modify any profile",
			actor:       Actor{ID: "admin-1", Role: domain.RoleAdmin},
			ownerUserID: &owner,
			want:        true,
		},
		{
			name:        "ownerless profile only modifiable by admin",
			actor:       Actor{ID: "user-1", Role: domain.RoleUser},
			ownerUserID: nil,
			want:        false,
		},
		{
			name:        "admin can modify ownerless profile",
			actor:       Actor{ID: "admin-1", Role: domain.RoleAdmin},
			ownerUserID: nil,
			want:        true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanModifyResident(tt.actor, tt.ownerUserID))
		})
	}
}

func TestCanAdminUsers(t *testing.T) {
	assert.True(t, CanAdminUsers(Actor{ID: "a", Role: domain.RoleAdmin}))
	assert.False(t, CanAdminUsers(Actor{ID: "u", Role: domain.RoleUser}))
	assert.False(t, CanAdminUsers(Actor{ID: "x", Role: ""}))
}
