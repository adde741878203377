package repository

import (
	"context"
	"time"

	"village-connect/internal/domain"
)

// ResidentFilters 住户列表查询过滤器
// 各条件独立可选，多个条件之间为 AND；列表查询始终叠加 is_visible = TRUE
type ResidentFilters struct {
	Location   string // 精确匹配 current_location
	Search     string // 模糊搜索：full_name / phone_number / company（OR）
	Occupation string // 精确匹配 occupation
	Returning  bool   // expected_return_date 落在当前自然月内
	AwayLong   bool   // departure_date 早于一年前 且 current_location != 'village'
}

// ResidentPatch 住户部分更新
// nil 字段表示不修改（omitted fields are left untouched）
type ResidentPatch struct {
	FullName           *string
	Age                *int
	Gender             *string
	PhoneNumber        *string
	HouseNumber        *string
	CurrentLocation    *string
	CurrentCity        *string
	CurrentCountry     *string
	DepartureDate      *time.Time
	ExpectedReturnDate *time.Time
	Occupation         *string
	Company            *string
	WorkSector         *string
	WorkDetails        *string
	IsVisible          *bool
	ShowPhone          *bool
	ShowLocation       *bool
	ShowReturnDate     *bool
}

// ResidentsRepository 住户Repository接口
// 使用强类型领域模型，不使用map[string]any
type ResidentsRepository interface {
	// 单条查询（无可见性过滤，按 id / user_id 直查）
	GetResident(ctx context.Context, id int) (*domain.ResidentWithUser, error)
	GetResidentByUserID(ctx context.Context, userID string) (*domain.ResidentWithUser, error)

	// 列表查询（仅可见住户，created_at DESC, id DESC）
	ListResidents(ctx context.Context, filters ResidentFilters) ([]domain.ResidentWithUser, error)

	// 全量查询（导出用，不过滤可见性）
	ListAllResidents(ctx context.Context) ([]domain.Resident, error)

	// 写入
	CreateResident(ctx context.Context, resident *domain.Resident) (*domain.Resident, error)
	UpdateResident(ctx context.Context, id int, patch ResidentPatch) (*domain.Resident, error)
	DeleteResident(ctx context.Context, id int) error

	// 统计（仅可见住户）
	LocationStats(ctx context.Context) ([]domain.LocationStat, error)
	OccupationStats(ctx context.Context) ([]domain.OccupationStat, error)
	TotalStats(ctx context.Context) (*domain.TotalStats, error)
}
