package repository

import (
	"context"
	"database/sql"
	"fmt"

	"village-connect/internal/domain"
	"village-connect/pkg/errs"
)

// PostgresUsersRepository 用户Repository实现
type PostgresUsersRepository struct {
	db *sql.DB
}

// NewPostgresUsersRepository 创建用户Repository
func NewPostgresUsersRepository(db *sql.DB) *PostgresUsersRepository {
	return &PostgresUsersRepository{db: db}
}

// 确保实现了接口
var _ UsersRepository = (*PostgresUsersRepository)(nil)

const userColumns = `
	u.id,
	u.email,
	u.first_name,
	u.last_name,
	u.profile_image_url,
	u.role,
	u.created_at,
	u.updated_at`

// scanUser 扫描一行 users 结果
func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	var email, firstName, lastName, image sql.NullString
	err := row.Scan(
		&u.ID,
		&email,
		&firstName,
		&lastName,
		&image,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	applyNullString(&u.Email, email)
	applyNullString(&u.FirstName, firstName)
	applyNullString(&u.LastName, lastName)
	applyNullString(&u.ProfileImageURL, image)
	return &u, nil
}

// GetUser 按 id 获取用户
func (r *PostgresUsersRepository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users u WHERE u.id = $1`, userColumns)
	u, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// UpsertUser 按 id upsert 用户
// 冲突时只刷新资料字段和 updated_at；role 不变（角色只通过管理端操作修改）
func (r *PostgresUsersRepository) UpsertUser(ctx context.Context, user domain.UpsertUser) (*domain.User, error) {
	query := `
		INSERT INTO users (id, email, first_name, last_name, profile_image_url)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id)
		DO UPDATE SET email = EXCLUDED.email,
		              first_name = EXCLUDED.first_name,
		              last_name = EXCLUDED.last_name,
		              profile_image_url = EXCLUDED.profile_image_url,
		              updated_at = NOW()
		RETURNING id, email, first_name, last_name, profile_image_url, role, created_at, updated_at
	`
	u, err := scanUser(r.db.QueryRowContext(ctx, query,
		user.ID, user.Email, user.FirstName, user.LastName, user.ProfileImageURL))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return u, nil
}

// ListUsersWithResidents 管理端用户列表：全部用户 LEFT JOIN 各自住户档案
// users.created_at DESC 排序；user_id 唯一约束保证每个用户至多一条住户记录
func (r *PostgresUsersRepository) ListUsersWithResidents(ctx context.Context) ([]domain.UserWithResident, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s
		FROM users u
		LEFT JOIN residents r ON r.user_id = u.id
		ORDER BY u.created_at DESC, u.id DESC
	`, userColumns, residentColumns)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	out := []domain.UserWithResident{}
	for rows.Next() {
		var u domain.User
		var email, firstName, lastName, image sql.NullString

		// LEFT JOIN 下住户字段整体可空
		var rID sql.NullInt64
		var rUserID, rFullName, rGender, rPhone, rHouse, rLocation sql.NullString
		var rCity, rCountry, rOccupation, rCompany, rSector, rDetails sql.NullString
		var rAge sql.NullInt64
		var rDeparture, rReturn, rCreatedAt, rUpdatedAt sql.NullTime
		var rVisible, rShowPhone, rShowLocation, rShowReturn sql.NullBool

		err := rows.Scan(
			&u.ID,
			&email,
			&firstName,
			&lastName,
			&image,
			&u.Role,
			&u.CreatedAt,
			&u.UpdatedAt,
			&rID,
			&rUserID,
			&rFullName,
			&rAge,
			&rGender,
			&rPhone,
			&rHouse,
			&rLocation,
			&rCity,
			&rCountry,
			&rDeparture,
			&rReturn,
			&rOccupation,
			&rCompany,
			&rSector,
			&rDetails,
			&rVisible,
			&rShowPhone,
			&rShowLocation,
			&rShowReturn,
			&rCreatedAt,
			&rUpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}

		applyNullString(&u.Email, email)
		applyNullString(&u.FirstName, firstName)
		applyNullString(&u.LastName, lastName)
		applyNullString(&u.ProfileImageURL, image)

		item := domain.UserWithResident{User: u}
		if rID.Valid {
			res := &domain.Resident{
				ID:              int(rID.Int64),
				FullName:        rFullName.String,
				Age:             int(rAge.Int64),
				Gender:          rGender.String,
				PhoneNumber:     rPhone.String,
				HouseNumber:     rHouse.String,
				CurrentLocation: rLocation.String,
				Occupation:      rOccupation.String,
				IsVisible:       rVisible.Bool,
				ShowPhone:       rShowPhone.Bool,
				ShowLocation:    rShowLocation.Bool,
				ShowReturnDate:  rShowReturn.Bool,
				CreatedAt:       rCreatedAt.Time,
				UpdatedAt:       rUpdatedAt.Time,
			}
			applyNullString(&res.UserID, rUserID)
			applyNullString(&res.CurrentCity, rCity)
			applyNullString(&res.CurrentCountry, rCountry)
			applyNullTime(&res.DepartureDate, rDeparture)
			applyNullTime(&res.ExpectedReturnDate, rReturn)
			applyNullString(&res.Company, rCompany)
			applyNullString(&res.WorkSector, rSector)
			applyNullString(&res.WorkDetails, rDetails)
			item.Resident = res
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return out, nil
}

// UpdateUserRole 修改用户角色
func (r *PostgresUsersRepository) UpdateUserRole(ctx context.Context, userID, role string) (*domain.User, error) {
	query := `
		UPDATE users SET role = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING id, email, first_name, last_name, profile_image_url, role, created_at, updated_at
	`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, userID, role))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update user role: %w", err)
	}
	return u, nil
}

// DeleteUser 删除用户及其住户档案
// 单事务：先删 resident 再删 user，避免进程中断留下半删除状态
func (r *PostgresUsersRepository) DeleteUser(ctx context.Context, userID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete user tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM residents WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete user resident: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if affected == 0 {
		return errs.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete user tx: %w", err)
	}
	return nil
}
