package service

import (
	"context"

	"village-connect/internal/domain"
	"village-connect/internal/repository"
)

// AnalyticsService 统计服务接口
// 三个操作均为只读、无副作用，且只统计 is_visible = TRUE 的住户
type AnalyticsService interface {
	LocationStats(ctx context.Context) ([]domain.LocationStat, error)
	OccupationStats(ctx context.Context) ([]domain.OccupationStat, error)
	TotalStats(ctx context.Context) (*domain.TotalStats, error)
}

// analyticsService 实现
type analyticsService struct {
	residentsRepo repository.ResidentsRepository
}

// NewAnalyticsService 创建 AnalyticsService 实例
func NewAnalyticsService(residentsRepo repository.ResidentsRepository) AnalyticsService {
	return &analyticsService{residentsRepo: residentsRepo}
}

// LocationStats 按位置分组计数（出现过的位置才返回，无零值填充）
func (s *analyticsService) LocationStats(ctx context.Context) ([]domain.LocationStat, error) {
	return s.residentsRepo.LocationStats(ctx)
}

// OccupationStats 按职业分组计数
func (s *analyticsService) OccupationStats(ctx context.Context) ([]domain.OccupationStat, error) {
	return s.residentsRepo.OccupationStats(ctx)
}

// TotalStats 汇总统计（inVillage + inCity + abroad == total）
func (s *analyticsService) TotalStats(ctx context.Context) (*domain.TotalStats, error) {
	return s.residentsRepo.TotalStats(ctx)
}
