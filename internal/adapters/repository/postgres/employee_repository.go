package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/talent-explorer/internal/core/employee"
	pgdb "github.com/ogurasousui/talent-explorer/internal/platform/db/postgres"
)

const undefinedTableCode = "42P01"

const listEmployeesQuery = `
        SELECT id::text,
               full_name,
               COALESCE(email, ''),
               COALESCE(location, ''),
               COALESCE(current_position, ''),
               COALESCE(department, '')
          FROM employees
         ORDER BY created_at ASC, id ASC
    `

// EmployeeRepository は PostgreSQL を利用した社員コレクションの読み取り実装です。
type EmployeeRepository struct {
	pool pgdb.Queryer
}

// NewEmployeeRepository は EmployeeRepository を生成します。
func NewEmployeeRepository(pool pgdb.Queryer) *EmployeeRepository {
	return &EmployeeRepository{pool: pool}
}

// List は全社員を登録順に取得します。
func (r *EmployeeRepository) List(ctx context.Context) ([]employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, listEmployeesQuery)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	defer rows.Close()

	employees := make([]employee.Employee, 0)
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, translateEmployeePgError(err)
		}
		employees = append(employees, emp)
	}

	if err := rows.Err(); err != nil {
		return nil, translateEmployeePgError(err)
	}

	return employees, nil
}

func scanEmployee(row pgx.Row) (employee.Employee, error) {
	var emp employee.Employee
	if err := row.Scan(
		&emp.ID,
		&emp.FullName,
		&emp.Email,
		&emp.Location,
		&emp.CurrentPosition,
		&emp.Department,
	); err != nil {
		return employee.Employee{}, err
	}
	return emp, nil
}

func translateEmployeePgError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == undefinedTableCode {
		return fmt.Errorf("%w: %s", employee.ErrRepositoryUnavailable, pgErr.Message)
	}

	return err
}
