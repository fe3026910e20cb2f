package handler

import (
	"net/http"

	"github.com/ogurasousui/talent-explorer/internal/adapters/employeeapi"
)

// NewAPIMux は社員 API のルーティングを構築します。
func NewAPIMux(employees http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle(employeeapi.EmployeesPath, employees)
	return mux
}

// NewExplorerMux は社員一覧画面のルーティングを構築します。
func NewExplorerMux(page, refresh http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/", page)
	mux.Handle("/refresh", refresh)
	return mux
}
