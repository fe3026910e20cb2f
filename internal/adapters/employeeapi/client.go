package employeeapi

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	jsoniter "github.com/json-iterator/go"
	"github.com/ogurasousui/talent-explorer/internal/core/employee"
)

// EmployeesPath は社員コレクションのエンドポイントです。
const EmployeesPath = "/api/employees"

const (
	defaultTimeout  = 10 * time.Second
	maxResponseSize = 32 << 20
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client は社員 API への唯一の接点です。状態は持ちません。
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// Option は Client の設定を変更します。
type Option func(*Client)

// WithHTTPClient は利用する http.Client を差し替えます。
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout はリクエスト全体のタイムアウトを設定します。
// WithHTTPClient との順序に関係なく、最後に http.Client へ適用されます。
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewClient は baseURL (例: http://localhost:8080) を対象とする Client を生成します。
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		clone := *c.httpClient
		clone.Timeout = c.timeout
		c.httpClient = &clone
	}
	return c
}

type wireEmployee struct {
	ID              jsoniter.RawMessage `json:"id"`
	FullName        string              `json:"full_name"`
	Email           string              `json:"email"`
	Location        string              `json:"location"`
	CurrentPosition string              `json:"current_position"`
	Department      string              `json:"department"`
}

// FetchEmployees は GET /api/employees を 1 回だけ発行し、サーバーの順序のまま社員を返します。
// 空配列は正常な結果です。リトライは行いません。
func (c *Client) FetchEmployees(ctx context.Context) ([]employee.Employee, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+EmployeesPath, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrFetchFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "br, gzip")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("%w: unexpected status %d", ErrFetchFailed, resp.StatusCode)
	}

	body, err := decodedBody(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer body.Close()

	raw, err := io.ReadAll(io.LimitReader(body, maxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrFetchFailed, err)
	}
	if len(raw) > maxResponseSize {
		return nil, fmt.Errorf("%w: response exceeds %d bytes", ErrFetchFailed, maxResponseSize)
	}

	employees, err := decodeEmployees(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	return employees, nil
}

func decodedBody(resp *http.Response) (io.ReadCloser, error) {
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "", "identity":
		return io.NopCloser(resp.Body), nil
	case "br":
		return io.NopCloser(brotli.NewReader(resp.Body)), nil
	case "gzip":
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip: %v", err)
		}
		return zr, nil
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", resp.Header.Get("Content-Encoding"))
	}
}

func decodeEmployees(raw []byte) ([]employee.Employee, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("response body is not a JSON array")
	}

	var wire []wireEmployee
	if err := json.Unmarshal(trimmed, &wire); err != nil {
		return nil, fmt.Errorf("decode body: %v", err)
	}

	employees := make([]employee.Employee, 0, len(wire))
	for i, w := range wire {
		id, err := decodeID(w.ID)
		if err != nil {
			return nil, fmt.Errorf("record %d: %v", i, err)
		}
		employees = append(employees, employee.Employee{
			ID:              id,
			FullName:        w.FullName,
			Email:           w.Email,
			Location:        w.Location,
			CurrentPosition: w.CurrentPosition,
			Department:      w.Department,
		})
	}
	return employees, nil
}

// decodeID は文字列または数値の id を文字列として受け取ります。
func decodeID(raw jsoniter.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "", fmt.Errorf("missing id")
	}

	switch {
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", fmt.Errorf("invalid id: %v", err)
		}
		return s, nil
	case trimmed[0] == '-' || (trimmed[0] >= '0' && trimmed[0] <= '9'):
		if _, err := strconv.ParseFloat(string(trimmed), 64); err != nil {
			return "", fmt.Errorf("invalid id: %v", err)
		}
		return string(trimmed), nil
	default:
		return "", fmt.Errorf("invalid id %s", trimmed)
	}
}
