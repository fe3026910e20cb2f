package talent

import (
	"context"
	"log"
	"strings"

	"github.com/ogurasousui/talent-explorer/internal/core/employee"
	"github.com/ogurasousui/talent-explorer/internal/query"
)

// CacheKey は社員コレクションのキャッシュキーです。
const CacheKey = "employee-collection"

// Cache は社員コレクション用のクエリキャッシュです。
type Cache = query.Cache[[]employee.Employee]

// Observer は社員コレクションの購読です。
type Observer = query.Observer[[]employee.Employee]

// Fetcher は社員コレクションを取得する外部 API の抽象です。
type Fetcher interface {
	FetchEmployees(ctx context.Context) ([]employee.Employee, error)
}

// EmployeesQuery は社員コレクションをキャッシュ経由で購読させます。
type EmployeesQuery struct {
	cache   *Cache
	fetcher Fetcher
	logf    func(string, ...any)
}

// NewEmployeesQuery は EmployeesQuery を生成します。logf が nil の場合は log.Printf を使います。
func NewEmployeesQuery(cache *Cache, fetcher Fetcher, logf func(string, ...any)) *EmployeesQuery {
	if logf == nil {
		logf = log.Printf
	}
	return &EmployeesQuery{cache: cache, fetcher: fetcher, logf: logf}
}

// Mount は社員コレクションを購読します。利用後は Observer.Close でアンマウントしてください。
func (q *EmployeesQuery) Mount() (*Observer, error) {
	return q.cache.Mount(CacheKey, q.fetch)
}

// Refresh はキャッシュを無効化し、マウント中の購読者がいれば再取得します。
func (q *EmployeesQuery) Refresh() {
	q.cache.Invalidate(CacheKey)
}

func (q *EmployeesQuery) fetch(ctx context.Context) ([]employee.Employee, error) {
	employees, err := q.fetcher.FetchEmployees(ctx)
	if err != nil {
		return nil, err
	}
	// 重複 ID はそのまま描画する。ログにのみ残す。
	if dups := employee.DuplicateIDs(employees); len(dups) > 0 {
		q.logf("talent: employee collection contains duplicate ids: %s", strings.Join(dups, ", "))
	}
	return employees, nil
}
