package handler

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/ogurasousui/talent-explorer/internal/core/employee"
	"github.com/zeebo/xxh3"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type errorResponse struct {
	Detail string `json:"detail"`
}

// EmployeeHTTPHandler は GET /api/employees の実装です。
type EmployeeHTTPHandler struct {
	svc employee.UseCase
}

// NewEmployeeHTTPHandler は EmployeeHTTPHandler を生成します。
func NewEmployeeHTTPHandler(svc employee.UseCase) *EmployeeHTTPHandler {
	return &EmployeeHTTPHandler{svc: svc}
}

// ServeHTTP は社員コレクション全体を JSON 配列で返します。
func (h *EmployeeHTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	employees, err := h.svc.ListEmployees(r.Context())
	if err != nil {
		log.Printf("handler: list employees: %v", err)
		writeJSONError(w, toHTTPStatus(err), http.StatusText(toHTTPStatus(err)))
		return
	}

	body, err := json.Marshal(employees)
	if err != nil {
		log.Printf("handler: encode employees: %v", err)
		writeJSONError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	etag := `"` + strconv.FormatUint(xxh3.Hash(body), 16) + `"`
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if etagMatches(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(body)
}

func writeJSONError(w http.ResponseWriter, status int, detail string) {
	body, err := json.Marshal(errorResponse{Detail: detail})
	if err != nil {
		http.Error(w, detail, status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// etagMatches は If-None-Match を弱い比較で評価します。圧縮時に付く W/ の有無は区別しません。
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	want := strings.TrimPrefix(etag, "W/")
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == want {
			return true
		}
	}
	return false
}
