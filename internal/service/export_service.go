package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"village-connect/internal/domain"
	"village-connect/internal/repository"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ResidentExportHeader 导出表头（CSV 与 Excel 共用，列序固定）
var ResidentExportHeader = []string{
	"Name",
	"Age",
	"Gender",
	"Phone",
	"House Number",
	"Current Location",
	"City",
	"Country",
	"Departure Date",
	"Expected Return",
	"Occupation",
	"Company",
}

// ExportService 管理端住户数据导出
// 全量导出（含 is_visible = FALSE 的住户），管理员限制在路由边界执行
type ExportService interface {
	ExportResidentsCSV(ctx context.Context) (string, error)
	ExportResidentsExcel(ctx context.Context) ([]byte, error)
}

// exportService 实现
type exportService struct {
	residentsRepo repository.ResidentsRepository
	logger        *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(residentsRepo repository.ResidentsRepository, logger *zap.Logger) ExportService {
	return &exportService{
		residentsRepo: residentsRepo,
		logger:        logger,
	}
}

// exportRow 单行导出值（与 ResidentExportHeader 列序一致）
func exportRow(r domain.Resident) []string {
	return []string{
		r.FullName,
		fmt.Sprintf("%d", r.Age),
		r.Gender,
		r.PhoneNumber,
		r.HouseNumber,
		r.CurrentLocation,
		strOrEmpty(r.CurrentCity),
		strOrEmpty(r.CurrentCountry),
		dateOrEmpty(r.DepartureDate),
		dateOrEmpty(r.ExpectedReturnDate),
		r.Occupation,
		strOrEmpty(r.Company),
	}
}

// csvQuoted 标记哪些列输出为带引号的字符串
// 字段内嵌的引号不做转义（已知限制，与下游消费方约定一致）
var csvQuoted = []bool{
	true,  // Name
	false, // Age
	false, // Gender
	true,  // Phone
	true,  // House Number
	false, // Current Location
	true,  // City
	true,  // Country
	false, // Departure Date
	false, // Expected Return
	false, // Occupation
	true,  // Company
}

// ExportResidentsCSV 导出全量住户为 CSV 文本
func (s *exportService) ExportResidentsCSV(ctx context.Context) (string, error) {
	residents, err := s.residentsRepo.ListAllResidents(ctx)
	if err != nil {
		return "", err
	}

	lines := make([]string, 0, len(residents)+1)
	lines = append(lines, strings.Join(ResidentExportHeader, ","))
	for _, r := range residents {
		values := exportRow(r)
		cells := make([]string, len(values))
		for i, v := range values {
			if csvQuoted[i] {
				cells[i] = `"` + v + `"`
			} else {
				cells[i] = v
			}
		}
		lines = append(lines, strings.Join(cells, ","))
	}

	s.logger.Info("Residents exported as CSV", zap.Int("count", len(residents)))
	return strings.Join(lines, "\n"), nil
}

// ExportResidentsExcel 导出全量住户为 Excel 文件
func (s *exportService) ExportResidentsExcel(ctx context.Context) ([]byte, error) {
	residents, err := s.residentsRepo.ListAllResidents(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()

	sheetName := "Residents"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	// 表头样式
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range ResidentExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
	}

	for rowIdx, r := range residents {
		values := exportRow(r)
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write excel: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close excel: %w", err)
	}

	s.logger.Info("Residents exported as Excel", zap.Int("count", len(residents)))
	return buf.Bytes(), nil
}

func strOrEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func dateOrEmpty(v *time.Time) string {
	if v == nil {
		return ""
	}
	return v.Format(dateLayout)
}
