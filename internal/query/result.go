package query

import "time"

// Status はクエリのライフサイクル状態です。
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Result はコンシューマーに公開されるクエリ結果です。
// Data は Status が StatusSuccess のときのみ意味を持ちます。エラーの詳細は公開しません。
type Result[T any] struct {
	Status    Status
	Data      T
	UpdatedAt time.Time
	Fetching  bool
}

// IsLoading は表示すべき成功データがまだ無い状態かを返します。
func (r Result[T]) IsLoading() bool {
	return r.Status == StatusIdle || r.Status == StatusLoading
}

// IsError は直近の取得が失敗したかを返します。
func (r Result[T]) IsError() bool {
	return r.Status == StatusError
}
