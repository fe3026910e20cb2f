package employee

import (
	"context"
	"fmt"
	"strings"
)

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// UseCase は社員ユースケースの公開インターフェースです。
type UseCase interface {
	ListEmployees(ctx context.Context) ([]Employee, error)
}

// Service は社員一覧に関するユースケースをまとめます。
type Service struct {
	repo Repository
	tx   TransactionManager
}

// NewService は Service を生成します。
func NewService(repo Repository, tx TransactionManager) *Service {
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{repo: repo, tx: tx}
}

// ListEmployees は社員コレクション全体をストアの順序のまま取得します。
func (s *Service) ListEmployees(ctx context.Context) ([]Employee, error) {
	if s.repo == nil {
		return nil, ErrRepositoryUnavailable
	}

	var employees []Employee
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.List(txCtx)
		if err != nil {
			return err
		}
		employees = found
		return nil
	}); err != nil {
		return nil, err
	}

	for i, emp := range employees {
		if strings.TrimSpace(emp.ID) == "" {
			return nil, fmt.Errorf("index %d: %w", i, ErrInvalidRecord)
		}
	}

	if employees == nil {
		employees = []Employee{}
	}
	return employees, nil
}
