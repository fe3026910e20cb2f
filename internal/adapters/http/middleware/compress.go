package middleware

import (
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
)

const compressionLevel = 5

type brotliResponseWriter struct {
	http.ResponseWriter
	bw          *brotli.Writer
	wroteHeader bool
	compress    bool
}

func (w *brotliResponseWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true

	h := w.Header()
	// 304 やボディなしの応答、既にエンコード済みの応答は素通しする。
	w.compress = status != http.StatusNotModified && status != http.StatusNoContent && h.Get("Content-Encoding") == ""
	if w.compress {
		h.Set("Content-Encoding", "br")
		h.Del("Content-Length")
	}
	// br 表現は非圧縮表現とバイト列が異なるため、強い ETag は弱い ETag にする。
	if w.compress || status == http.StatusNotModified {
		if etag := h.Get("ETag"); etag != "" && !strings.HasPrefix(etag, "W/") {
			h.Set("ETag", "W/"+etag)
		}
	}
	h.Add("Vary", "Accept-Encoding")
	w.ResponseWriter.WriteHeader(status)
}

func (w *brotliResponseWriter) Write(p []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	if !w.compress {
		return w.ResponseWriter.Write(p)
	}
	if w.bw == nil {
		w.bw = brotli.NewWriterLevel(w.ResponseWriter, compressionLevel)
	}
	return w.bw.Write(p)
}

func (w *brotliResponseWriter) close() error {
	if w.bw == nil {
		return nil
	}
	return w.bw.Close()
}

// Brotli はクライアントが br を受け付ける場合にレスポンスを brotli 圧縮します。
func Brotli(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead || !acceptsBrotli(r.Header.Get("Accept-Encoding")) {
			next.ServeHTTP(w, r)
			return
		}

		bw := &brotliResponseWriter{ResponseWriter: w}
		defer bw.close()
		next.ServeHTTP(bw, r)
	})
}

func acceptsBrotli(header string) bool {
	for _, part := range strings.Split(header, ",") {
		coding, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		if !strings.EqualFold(strings.TrimSpace(coding), "br") {
			continue
		}
		params = strings.ReplaceAll(strings.TrimSpace(params), " ", "")
		return params != "q=0" && params != "q=0.0" && params != "q=0.00" && params != "q=0.000"
	}
	return false
}
