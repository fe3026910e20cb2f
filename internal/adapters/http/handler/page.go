package handler

import (
	"bytes"
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/ogurasousui/talent-explorer/internal/core/talent"
	"github.com/ogurasousui/talent-explorer/internal/ui/page"
	"github.com/ogurasousui/talent-explorer/internal/ui/table"
)

// EmployeesQuery はページが購読する社員クエリです。
type EmployeesQuery interface {
	Mount() (*talent.Observer, error)
	Refresh()
}

// PageHandler は社員一覧ページを描画します。
// リクエストごとにクエリをマウントし、renderWait まで確定を待ってから描画してアンマウントします。
type PageHandler struct {
	query      EmployeesQuery
	renderWait time.Duration
}

// NewPageHandler は PageHandler を生成します。
func NewPageHandler(query EmployeesQuery, renderWait time.Duration) *PageHandler {
	return &PageHandler{query: query, renderWait: renderWait}
}

// ServeHTTP は GET / を処理します。
func (h *PageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	obs, err := h.query.Mount()
	if err != nil {
		log.Printf("handler: mount employees query: %v", err)
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	defer obs.Close()

	ctx, cancel := context.WithTimeout(r.Context(), h.renderWait)
	defer cancel()

	res, err := obs.Settled(ctx)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		log.Printf("handler: wait for employees query: %v", err)
	}

	var buf bytes.Buffer
	if err := page.Render(&buf, res); err != nil {
		log.Printf("handler: render page: %v", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	view := table.Build(res)
	if view.Kind == table.KindLoading {
		// 確定前は再読み込みで次の描画を要求する。
		w.Header().Set("Refresh", "1")
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Render-Fingerprint", strconv.FormatUint(table.Fingerprint(view), 16))
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(buf.Bytes())
}

// RefreshHandler は POST /refresh でキャッシュを無効化し、ページへ戻します。
type RefreshHandler struct {
	query EmployeesQuery
}

// NewRefreshHandler は RefreshHandler を生成します。
func NewRefreshHandler(query EmployeesQuery) *RefreshHandler {
	return &RefreshHandler{query: query}
}

func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	h.query.Refresh()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
