package service

import (
	"context"
	"time"

	"village-connect/internal/domain"
	"village-connect/internal/repository"
	"village-connect/pkg/errs"

	"go.uber.org/zap"
)

// ResidentService 住户档案管理服务接口
type ResidentService interface {
	// 查询
	ListResidents(ctx context.Context, req ListResidentsRequest) ([]domain.ResidentWithUser, error)
	GetResident(ctx context.Context, id int) (*domain.ResidentWithUser, error)
	GetResidentByUser(ctx context.Context, userID string) (*domain.ResidentWithUser, error)

	// 写入（update/delete 按 CanModifyResident 鉴权）
	CreateResident(ctx context.Context, userID string, req CreateResidentRequest) (*domain.Resident, error)
	UpdateResident(ctx context.Context, id int, actor Actor, req UpdateResidentRequest) (*domain.Resident, error)
	DeleteResident(ctx context.Context, id int, actor Actor) error
}

// residentService 实现
type residentService struct {
	residentsRepo repository.ResidentsRepository
	logger        *zap.Logger
}

// NewResidentService 创建 ResidentService 实例
func NewResidentService(residentsRepo repository.ResidentsRepository, logger *zap.Logger) ResidentService {
	return &residentService{
		residentsRepo: residentsRepo,
		logger:        logger,
	}
}

// ============================================
// Request DTOs
// ============================================

// ListResidentsRequest 住户列表查询请求（五个条件均可选，AND 组合）
type ListResidentsRequest struct {
	Location   string
	Search     string
	Occupation string
	Returning  bool
	AwayLong   bool
}

// CreateResidentRequest 创建住户档案请求
// 日期字段使用 "2006-01-02" 格式
type CreateResidentRequest struct {
	FullName           string  `json:"fullName"`
	Age                int     `json:"age"`
	Gender             string  `json:"gender"`
	PhoneNumber        string  `json:"phoneNumber"`
	HouseNumber        string  `json:"houseNumber"`
	CurrentLocation    string  `json:"currentLocation"`
	CurrentCity        *string `json:"currentCity"`
	CurrentCountry     *string `json:"currentCountry"`
	DepartureDate      *string `json:"departureDate"`
	ExpectedReturnDate *string `json:"expectedReturnDate"`
	Occupation         string  `json:"occupation"`
	Company            *string `json:"company"`
	WorkSector         *string `json:"workSector"`
	WorkDetails        *string `json:"workDetails"`
	IsVisible          *bool   `json:"isVisible"`
	ShowPhone          *bool   `json:"showPhone"`
	ShowLocation       *bool   `json:"showLocation"`
	ShowReturnDate     *bool   `json:"showReturnDate"`
}

// UpdateResidentRequest 部分更新请求（缺省字段不修改）
type UpdateResidentRequest struct {
	FullName           *string `json:"fullName"`
	Age                *int    `json:"age"`
	Gender             *string `json:"gender"`
	PhoneNumber        *string `json:"phoneNumber"`
	HouseNumber        *string `json:"houseNumber"`
	CurrentLocation    *string `json:"currentLocation"`
	CurrentCity        *string `json:"currentCity"`
	CurrentCountry     *string `json:"currentCountry"`
	DepartureDate      *string `json:"departureDate"`
	ExpectedReturnDate *string `json:"expectedReturnDate"`
	Occupation         *string `json:"occupation"`
	Company            *string `json:"company"`
	WorkSector         *string `json:"workSector"`
	WorkDetails        *string `json:"workDetails"`
	IsVisible          *bool   `json:"isVisible"`
	ShowPhone          *bool   `json:"showPhone"`
	ShowLocation       *bool   `json:"showLocation"`
	ShowReturnDate     *bool   `json:"showReturnDate"`
}

const dateLayout = "2006-01-02"

// parseDate 解析 "2006-01-02" 日期；格式错误记入 ve
func parseDate(ve *errs.ValidationError, field string, value *string) *time.Time {
	if value == nil || *value == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, *value)
	if err != nil {
		ve.Add(field, "invalid date, expected YYYY-MM-DD")
		return nil
	}
	return &t
}

// ============================================
// 查询
// ============================================

// ListResidents 住户列表查询
// 枚举非法值直接拒绝（ValidationError），不静默忽略；查询本身始终只返回可见住户
func (s *residentService) ListResidents(ctx context.Context, req ListResidentsRequest) ([]domain.ResidentWithUser, error) {
	ve := &errs.ValidationError{}
	if req.Location != "" && !domain.IsValidLocation(req.Location) {
		ve.Add("location", "must be one of: village, city, abroad")
	}
	if req.Occupation != "" && !domain.IsValidOccupation(req.Occupation) {
		ve.Add("occupation", "must be one of: student, job, business, farming, unemployed")
	}
	if ve.HasErrors() {
		return nil, ve
	}

	return s.residentsRepo.ListResidents(ctx, repository.ResidentFilters{
		Location:   req.Location,
		Search:     req.Search,
		Occupation: req.Occupation,
		Returning:  req.Returning,
		AwayLong:   req.AwayLong,
	})
}

// GetResident 按 id 获取住户
// 无可见性/归属过滤：任何已认证调用方都可按 id 查看（编辑权限另由鉴权控制）
func (s *residentService) GetResident(ctx context.Context, id int) (*domain.ResidentWithUser, error) {
	return s.residentsRepo.GetResident(ctx, id)
}

// GetResidentByUser 获取调用方自己的档案；"尚无档案"返回 nil, nil 不算错误
func (s *residentService) GetResidentByUser(ctx context.Context, userID string) (*domain.ResidentWithUser, error) {
	return s.residentsRepo.GetResidentByUserID(ctx, userID)
}

// ============================================
// 写入
// ============================================

// validateEnums 公共枚举校验
func validateEnums(ve *errs.ValidationError, gender, location, occupation string) {
	if !domain.IsValidGender(gender) {
		ve.Add("gender", "must be one of: male, female, other")
	}
	if !domain.IsValidLocation(location) {
		ve.Add("currentLocation", "must be one of: village, city, abroad")
	}
	if !domain.IsValidOccupation(occupation) {
		ve.Add("occupation", "must be one of: student, job, business, farming, unemployed")
	}
}

// CreateResident 创建住户档案（owner 取自已认证主体）
// user_id 唯一约束在持久层保障每用户至多一条档案
func (s *residentService) CreateResident(ctx context.Context, userID string, req CreateResidentRequest) (*domain.Resident, error) {
	ve := &errs.ValidationError{}
	if req.FullName == "" {
		ve.Add("fullName", "required")
	}
	if req.Age <= 0 {
		ve.Add("age", "must be a positive integer")
	}
	if req.PhoneNumber == "" {
		ve.Add("phoneNumber", "required")
	}
	if req.HouseNumber == "" {
		ve.Add("houseNumber", "required")
	}
	validateEnums(ve, req.Gender, req.CurrentLocation, req.Occupation)
	departureDate := parseDate(ve, "departureDate", req.DepartureDate)
	expectedReturnDate := parseDate(ve, "expectedReturnDate", req.ExpectedReturnDate)
	if ve.HasErrors() {
		return nil, ve
	}

	// 隐私开关默认值与表结构一致
	resident := &domain.Resident{
		UserID:             &userID,
		FullName:           req.FullName,
		Age:                req.Age,
		Gender:             req.Gender,
		PhoneNumber:        req.PhoneNumber,
		HouseNumber:        req.HouseNumber,
		CurrentLocation:    req.CurrentLocation,
		CurrentCity:        req.CurrentCity,
		CurrentCountry:     req.CurrentCountry,
		DepartureDate:      departureDate,
		ExpectedReturnDate: expectedReturnDate,
		Occupation:         req.Occupation,
		Company:            req.Company,
		WorkSector:         req.WorkSector,
		WorkDetails:        req.WorkDetails,
		IsVisible:          boolOrDefault(req.IsVisible, true),
		ShowPhone:          boolOrDefault(req.ShowPhone, false),
		ShowLocation:       boolOrDefault(req.ShowLocation, true),
		ShowReturnDate:     boolOrDefault(req.ShowReturnDate, true),
	}

	created, err := s.residentsRepo.CreateResident(ctx, resident)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Resident created",
		zap.Int("resident_id", created.ID),
		zap.String("user_id", userID),
	)
	return created, nil
}

// UpdateResident 部分更新住户档案
// 先取档案，不存在 NotFound；再鉴权，不通过 Forbidden；缺省字段不修改
func (s *residentService) UpdateResident(ctx context.Context, id int, actor Actor, req UpdateResidentRequest) (*domain.Resident, error) {
	existing, err := s.residentsRepo.GetResident(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanModifyResident(actor, existing.UserID) {
		s.logger.Warn("Resident update denied",
			zap.Int("resident_id", id),
			zap.String("actor_id", actor.ID),
			zap.String("actor_role", actor.Role),
		)
		return nil, errs.ErrForbidden
	}

	ve := &errs.ValidationError{}
	if req.FullName != nil && *req.FullName == "" {
		ve.Add("fullName", "required")
	}
	if req.Age != nil && *req.Age <= 0 {
		ve.Add("age", "must be a positive integer")
	}
	if req.Gender != nil && !domain.IsValidGender(*req.Gender) {
		ve.Add("gender", "must be one of: male, female, other")
	}
	if req.CurrentLocation != nil && !domain.IsValidLocation(*req.CurrentLocation) {
		ve.Add("currentLocation", "must be one of: village, city, abroad")
	}
	if req.Occupation != nil && !domain.IsValidOccupation(*req.Occupation) {
		ve.Add("occupation", "must be one of: student, job, business, farming, unemployed")
	}
	departureDate := parseDate(ve, "departureDate", req.DepartureDate)
	expectedReturnDate := parseDate(ve, "expectedReturnDate", req.ExpectedReturnDate)
	if ve.HasErrors() {
		return nil, ve
	}

	patch := repository.ResidentPatch{
		FullName:        req.FullName,
		Age:             req.Age,
		Gender:          req.Gender,
		PhoneNumber:     req.PhoneNumber,
		HouseNumber:     req.HouseNumber,
		CurrentLocation: req.CurrentLocation,
		CurrentCity:     req.CurrentCity,
		CurrentCountry:  req.CurrentCountry,
		Occupation:      req.Occupation,
		Company:         req.Company,
		WorkSector:      req.WorkSector,
		WorkDetails:     req.WorkDetails,
		IsVisible:       req.IsVisible,
		ShowPhone:       req.ShowPhone,
		ShowLocation:    req.ShowLocation,
		ShowReturnDate:  req.ShowReturnDate,
	}
	if req.DepartureDate != nil {
		patch.DepartureDate = departureDate
	}
	if req.ExpectedReturnDate != nil {
		patch.ExpectedReturnDate = expectedReturnDate
	}

	updated, err := s.residentsRepo.UpdateResident(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Resident updated",
		zap.Int("resident_id", id),
		zap.String("actor_id", actor.ID),
	)
	return updated, nil
}

// DeleteResident 删除住户档案（与 update 同一鉴权规则；重复删除返回 NotFound）
func (s *residentService) DeleteResident(ctx context.Context, id int, actor Actor) error {
	existing, err := s.residentsRepo.GetResident(ctx, id)
	if err != nil {
		return err
	}
	if !CanModifyResident(actor, existing.UserID) {
		s.logger.Warn("Resident delete denied",
			zap.Int("resident_id", id),
			zap.String("actor_id", actor.ID),
			zap.String("actor_role", actor.Role),
		)
		return errs.ErrForbidden
	}

	if err := s.residentsRepo.DeleteResident(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Resident deleted",
		zap.Int("resident_id", id),
		zap.String("actor_id", actor.ID),
	)
	return nil
}

func boolOrDefault(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
