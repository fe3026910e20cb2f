package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/ogurasousui/talent-explorer/internal/core/employee"
)

const listEmployeesQuery = `
        SELECT id,
               full_name,
               COALESCE(email, ''),
               COALESCE(location, ''),
               COALESCE(current_position, ''),
               COALESCE(department, '')
          FROM employees
         ORDER BY created_at ASC, id ASC
    `

// Querier は *sql.DB と *sql.Tx の共通部分です。
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// EmployeeRepository は SQLite を利用した社員コレクションの読み取り実装です。
type EmployeeRepository struct {
	db Querier
}

// NewEmployeeRepository は EmployeeRepository を生成します。
func NewEmployeeRepository(db Querier) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// List は全社員を登録順に取得します。
func (r *EmployeeRepository) List(ctx context.Context) ([]employee.Employee, error) {
	rows, err := r.db.QueryContext(ctx, listEmployeesQuery)
	if err != nil {
		return nil, translateSQLiteError(err)
	}
	defer rows.Close()

	employees := make([]employee.Employee, 0)
	for rows.Next() {
		var emp employee.Employee
		if err := rows.Scan(&emp.ID, &emp.FullName, &emp.Email, &emp.Location, &emp.CurrentPosition, &emp.Department); err != nil {
			return nil, fmt.Errorf("sqlite: scan employee: %w", err)
		}
		employees = append(employees, emp)
	}

	if err := rows.Err(); err != nil {
		return nil, translateSQLiteError(err)
	}

	return employees, nil
}

func translateSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "no such table") {
		return fmt.Errorf("%w: %v", employee.ErrRepositoryUnavailable, err)
	}
	return err
}
