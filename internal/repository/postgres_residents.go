package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"village-connect/internal/domain"
	"village-connect/pkg/errs"

	"github.com/lib/pq"
)

// PostgresResidentsRepository 住户Repository实现
type PostgresResidentsRepository struct {
	db *sql.DB
}

// NewPostgresResidentsRepository 创建住户Repository
func NewPostgresResidentsRepository(db *sql.DB) *PostgresResidentsRepository {
	return &PostgresResidentsRepository{db: db}
}

// 确保实现了接口
var _ ResidentsRepository = (*PostgresResidentsRepository)(nil)

// residentColumns 住户字段列表（与 scanResident 顺序一致）
const residentColumns = `
	r.id,
	r.user_id,
	r.full_name,
	r.age,
	r.gender,
	r.phone_number,
	r.house_number,
	r.current_location,
	r.current_city,
	r.current_country,
	r.departure_date,
	r.expected_return_date,
	r.occupation,
	r.company,
	r.work_sector,
	r.work_details,
	r.is_visible,
	r.show_phone,
	r.show_location,
	r.show_return_date,
	r.created_at,
	r.updated_at`

// userJoinColumns LEFT JOIN users 的字段列表（与 scanJoinedUser 顺序一致）
const userJoinColumns = `
	u.id,
	u.email,
	u.first_name,
	u.last_name,
	u.profile_image_url,
	u.role,
	u.created_at,
	u.updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// scanResidentWithUser 扫描一行 residents LEFT JOIN users 的结果
func scanResidentWithUser(row rowScanner) (*domain.ResidentWithUser, error) {
	var r domain.Resident
	var userID, currentCity, currentCountry, company, workSector, workDetails sql.NullString
	var departureDate, expectedReturnDate sql.NullTime

	var uID, uEmail, uFirstName, uLastName, uImage, uRole sql.NullString
	var uCreatedAt, uUpdatedAt sql.NullTime

	err := row.Scan(
		&r.ID,
		&userID,
		&r.FullName,
		&r.Age,
		&r.Gender,
		&r.PhoneNumber,
		&r.HouseNumber,
		&r.CurrentLocation,
		&currentCity,
		&currentCountry,
		&departureDate,
		&expectedReturnDate,
		&r.Occupation,
		&company,
		&workSector,
		&workDetails,
		&r.IsVisible,
		&r.ShowPhone,
		&r.ShowLocation,
		&r.ShowReturnDate,
		&r.CreatedAt,
		&r.UpdatedAt,
		&uID,
		&uEmail,
		&uFirstName,
		&uLastName,
		&uImage,
		&uRole,
		&uCreatedAt,
		&uUpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	applyNullString(&r.UserID, userID)
	applyNullString(&r.CurrentCity, currentCity)
	applyNullString(&r.CurrentCountry, currentCountry)
	applyNullTime(&r.DepartureDate, departureDate)
	applyNullTime(&r.ExpectedReturnDate, expectedReturnDate)
	applyNullString(&r.Company, company)
	applyNullString(&r.WorkSector, workSector)
	applyNullString(&r.WorkDetails, workDetails)

	out := &domain.ResidentWithUser{Resident: r}

	// LEFT JOIN：user 可能不存在（级联删除下实际不会出现，但保持防空）
	if uID.Valid {
		u := &domain.User{
			ID:   uID.String,
			Role: uRole.String,
		}
		applyNullString(&u.Email, uEmail)
		applyNullString(&u.FirstName, uFirstName)
		applyNullString(&u.LastName, uLastName)
		applyNullString(&u.ProfileImageURL, uImage)
		if uCreatedAt.Valid {
			u.CreatedAt = uCreatedAt.Time
		}
		if uUpdatedAt.Valid {
			u.UpdatedAt = uUpdatedAt.Time
		}
		out.User = u
	}

	return out, nil
}

func applyNullString(dst **string, v sql.NullString) {
	if v.Valid {
		s := v.String
		*dst = &s
	}
}

func applyNullTime(dst **time.Time, v sql.NullTime) {
	if v.Valid {
		t := v.Time
		*dst = &t
	}
}

// GetResident 按 id 获取住户（含所属用户，不过滤可见性）
func (r *PostgresResidentsRepository) GetResident(ctx context.Context, id int) (*domain.ResidentWithUser, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s
		FROM residents r
		LEFT JOIN users u ON r.user_id = u.id
		WHERE r.id = $1
	`, residentColumns, userJoinColumns)

	out, err := scanResidentWithUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get resident: %w", err)
	}
	return out, nil
}

// GetResidentByUserID 按 user_id 获取住户（"尚无档案"返回 nil, nil）
func (r *PostgresResidentsRepository) GetResidentByUserID(ctx context.Context, userID string) (*domain.ResidentWithUser, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s
		FROM residents r
		LEFT JOIN users u ON r.user_id = u.id
		WHERE r.user_id = $1
	`, residentColumns, userJoinColumns)

	out, err := scanResidentWithUser(r.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get resident by user: %w", err)
	}
	return out, nil
}

// ListResidents 按过滤条件查询可见住户列表
// 始终叠加 r.is_visible = TRUE；排序 created_at DESC, id DESC
func (r *PostgresResidentsRepository) ListResidents(ctx context.Context, filters ResidentFilters) ([]domain.ResidentWithUser, error) {
	where := []string{"r.is_visible = TRUE"}
	args := []any{}
	argIdx := 1

	if filters.Location != "" {
		where = append(where, fmt.Sprintf("r.current_location = $%d", argIdx))
		args = append(args, filters.Location)
		argIdx++
	}
	if filters.Occupation != "" {
		where = append(where, fmt.Sprintf("r.occupation = $%d", argIdx))
		args = append(args, filters.Occupation)
		argIdx++
	}
	if filters.Search != "" {
		searchPattern := "%" + filters.Search + "%"
		where = append(where, fmt.Sprintf(
			"(r.full_name ILIKE $%d OR r.phone_number ILIKE $%d OR COALESCE(r.company, '') ILIKE $%d)",
			argIdx, argIdx, argIdx))
		args = append(args, searchPattern)
		argIdx++
	}
	if filters.Returning {
		// 预计返回日期落在当前自然月：[本月1日, 下月1日)
		monthStart, nextMonthStart := currentMonthWindow(time.Now())
		where = append(where, fmt.Sprintf(
			"r.expected_return_date >= $%d AND r.expected_return_date < $%d", argIdx, argIdx+1))
		args = append(args, monthStart, nextMonthStart)
		argIdx += 2
	}
	if filters.AwayLong {
		// 离村超一年：departure_date 早于一年前，且当前不在村内
		cutoff := dateOnly(time.Now()).AddDate(-1, 0, 0)
		where = append(where, fmt.Sprintf(
			"r.departure_date < $%d AND r.current_location != 'village'", argIdx))
		args = append(args, cutoff)
		argIdx++
	}

	query := fmt.Sprintf(`
		SELECT %s, %s
		FROM residents r
		LEFT JOIN users u ON r.user_id = u.id
		WHERE %s
		ORDER BY r.created_at DESC, r.id DESC
	`, residentColumns, userJoinColumns, strings.Join(where, " AND "))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list residents: %w", err)
	}
	defer rows.Close()

	out := []domain.ResidentWithUser{}
	for rows.Next() {
		rw, err := scanResidentWithUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resident: %w", err)
		}
		out = append(out, *rw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate residents: %w", err)
	}
	return out, nil
}

// ListAllResidents 全量住户（含不可见，导出用）
func (r *PostgresResidentsRepository) ListAllResidents(ctx context.Context) ([]domain.Resident, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s
		FROM residents r
		LEFT JOIN users u ON r.user_id = u.id
		ORDER BY r.created_at DESC, r.id DESC
	`, residentColumns, userJoinColumns)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list all residents: %w", err)
	}
	defer rows.Close()

	out := []domain.Resident{}
	for rows.Next() {
		rw, err := scanResidentWithUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resident: %w", err)
		}
		out = append(out, rw.Resident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate residents: %w", err)
	}
	return out, nil
}

// CreateResident 创建住户档案
// user_id 唯一约束保证每个用户至多一条档案，冲突返回 ErrResidentExists
func (r *PostgresResidentsRepository) CreateResident(ctx context.Context, resident *domain.Resident) (*domain.Resident, error) {
	query := `
		INSERT INTO residents (
			user_id, full_name, age, gender, phone_number, house_number,
			current_location, current_city, current_country,
			departure_date, expected_return_date,
			occupation, company, work_sector, work_details,
			is_visible, show_phone, show_location, show_return_date
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9,
			$10, $11,
			$12, $13, $14, $15,
			$16, $17, $18, $19
		)
		RETURNING id, created_at, updated_at
	`

	created := *resident
	err := r.db.QueryRowContext(ctx, query,
		resident.UserID,
		resident.FullName,
		resident.Age,
		resident.Gender,
		resident.PhoneNumber,
		resident.HouseNumber,
		resident.CurrentLocation,
		resident.CurrentCity,
		resident.CurrentCountry,
		resident.DepartureDate,
		resident.ExpectedReturnDate,
		resident.Occupation,
		resident.Company,
		resident.WorkSector,
		resident.WorkDetails,
		resident.IsVisible,
		resident.ShowPhone,
		resident.ShowLocation,
		resident.ShowReturnDate,
	).Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, errs.ErrResidentExists
		}
		return nil, fmt.Errorf("failed to create resident: %w", err)
	}
	return &created, nil
}

// UpdateResident 部分更新住户档案（patch 中 nil 字段不修改）
// 始终刷新 updated_at；目标不存在返回 ErrNotFound
func (r *PostgresResidentsRepository) UpdateResident(ctx context.Context, id int, patch ResidentPatch) (*domain.Resident, error) {
	set := []string{}
	args := []any{}
	argIdx := 1

	addSet := func(column string, value any) {
		set = append(set, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
	}

	if patch.FullName != nil {
		addSet("full_name", *patch.FullName)
	}
	if patch.Age != nil {
		addSet("age", *patch.Age)
	}
	if patch.Gender != nil {
		addSet("gender", *patch.Gender)
	}
	if patch.PhoneNumber != nil {
		addSet("phone_number", *patch.PhoneNumber)
	}
	if patch.HouseNumber != nil {
		addSet("house_number", *patch.HouseNumber)
	}
	if patch.CurrentLocation != nil {
		addSet("current_location", *patch.CurrentLocation)
	}
	if patch.CurrentCity != nil {
		addSet("current_city", *patch.CurrentCity)
	}
	if patch.CurrentCountry != nil {
		addSet("current_country", *patch.CurrentCountry)
	}
	if patch.DepartureDate != nil {
		addSet("departure_date", *patch.DepartureDate)
	}
	if patch.ExpectedReturnDate != nil {
		addSet("expected_return_date", *patch.ExpectedReturnDate)
	}
	if patch.Occupation != nil {
		addSet("occupation", *patch.Occupation)
	}
	if patch.Company != nil {
		addSet("company", *patch.Company)
	}
	if patch.WorkSector != nil {
		addSet("work_sector", *patch.WorkSector)
	}
	if patch.WorkDetails != nil {
		addSet("work_details", *patch.WorkDetails)
	}
	if patch.IsVisible != nil {
		addSet("is_visible", *patch.IsVisible)
	}
	if patch.ShowPhone != nil {
		addSet("show_phone", *patch.ShowPhone)
	}
	if patch.ShowLocation != nil {
		addSet("show_location", *patch.ShowLocation)
	}
	if patch.ShowReturnDate != nil {
		addSet("show_return_date", *patch.ShowReturnDate)
	}

	set = append(set, "updated_at = NOW()")

	query := fmt.Sprintf(`
		UPDATE residents SET %s
		WHERE id = $%d
		RETURNING id, user_id, full_name, age, gender, phone_number, house_number,
			current_location, current_city, current_country,
			departure_date, expected_return_date,
			occupation, company, work_sector, work_details,
			is_visible, show_phone, show_location, show_return_date,
			created_at, updated_at
	`, strings.Join(set, ", "), argIdx)
	args = append(args, id)

	var updated domain.Resident
	var userID, currentCity, currentCountry, company, workSector, workDetails sql.NullString
	var departureDate, expectedReturnDate sql.NullTime
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&updated.ID,
		&userID,
		&updated.FullName,
		&updated.Age,
		&updated.Gender,
		&updated.PhoneNumber,
		&updated.HouseNumber,
		&updated.CurrentLocation,
		&currentCity,
		&currentCountry,
		&departureDate,
		&expectedReturnDate,
		&updated.Occupation,
		&company,
		&workSector,
		&workDetails,
		&updated.IsVisible,
		&updated.ShowPhone,
		&updated.ShowLocation,
		&updated.ShowReturnDate,
		&updated.CreatedAt,
		&updated.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update resident: %w", err)
	}

	applyNullString(&updated.UserID, userID)
	applyNullString(&updated.CurrentCity, currentCity)
	applyNullString(&updated.CurrentCountry, currentCountry)
	applyNullTime(&updated.DepartureDate, departureDate)
	applyNullTime(&updated.ExpectedReturnDate, expectedReturnDate)
	applyNullString(&updated.Company, company)
	applyNullString(&updated.WorkSector, workSector)
	applyNullString(&updated.WorkDetails, workDetails)

	return &updated, nil
}

// DeleteResident 删除住户档案（重复删除返回 ErrNotFound，不保证幂等）
func (r *PostgresResidentsRepository) DeleteResident(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM residents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete resident: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete resident: %w", err)
	}
	if affected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// LocationStats 按位置分组计数（仅可见住户）
func (r *PostgresResidentsRepository) LocationStats(ctx context.Context) ([]domain.LocationStat, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT current_location, COUNT(*)
		FROM residents
		WHERE is_visible = TRUE
		GROUP BY current_location
		ORDER BY current_location
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get location stats: %w", err)
	}
	defer rows.Close()

	out := []domain.LocationStat{}
	for rows.Next() {
		var stat domain.LocationStat
		if err := rows.Scan(&stat.Location, &stat.Count); err != nil {
			return nil, fmt.Errorf("failed to scan location stat: %w", err)
		}
		out = append(out, stat)
	}
	return out, rows.Err()
}

// OccupationStats 按职业分组计数（仅可见住户）
func (r *PostgresResidentsRepository) OccupationStats(ctx context.Context) ([]domain.OccupationStat, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT occupation, COUNT(*)
		FROM residents
		WHERE is_visible = TRUE
		GROUP BY occupation
		ORDER BY occupation
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get occupation stats: %w", err)
	}
	defer rows.Close()

	out := []domain.OccupationStat{}
	for rows.Next() {
		var stat domain.OccupationStat
		if err := rows.Scan(&stat.Occupation, &stat.Count); err != nil {
			return nil, fmt.Errorf("failed to scan occupation stat: %w", err)
		}
		out = append(out, stat)
	}
	return out, rows.Err()
}

// TotalStats 汇总统计（仅可见住户，单次查询完成四个计数）
func (r *PostgresResidentsRepository) TotalStats(ctx context.Context) (*domain.TotalStats, error) {
	var stats domain.TotalStats
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE current_location = 'village'),
			COUNT(*) FILTER (WHERE current_location = 'city'),
			COUNT(*) FILTER (WHERE current_location = 'abroad')
		FROM residents
		WHERE is_visible = TRUE
	`).Scan(&stats.Total, &stats.InVillage, &stats.InCity, &stats.Abroad)
	if err != nil {
		return nil, fmt.Errorf("failed to get total stats: %w", err)
	}
	return &stats, nil
}

// dateOnly 截断到当天零点（服务器本地时区，按天比较）
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// currentMonthWindow 当前自然月窗口：[本月1日, 下月1日)
func currentMonthWindow(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 1, 0)
}
