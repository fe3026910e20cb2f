package middleware

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// RequestIDHeader はリクエスト ID を受け渡すヘッダー名です。
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// RequestIDFromContext はコンテキストに格納されたリクエスト ID を返します。
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  uint64
}

func (r *statusRecorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(p)
	r.bytes += uint64(n)
	return n, err
}

// AccessLog はリクエスト ID を払い出し、1 リクエスト 1 行のアクセスログを出力します。
// 受信ヘッダーに有効な UUID があればそれを引き継ぎます。
func AccessLog(logf func(string, ...any), next http.Handler) http.Handler {
	if logf == nil {
		logf = log.Printf
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		rec := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		logf("http: %s %s %d %s %s request_id=%s", r.Method, r.URL.Path, status, humanize.Bytes(rec.bytes), time.Since(start).Round(time.Microsecond), id)
	})
}
