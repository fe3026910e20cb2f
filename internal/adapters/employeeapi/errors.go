package employeeapi

import "errors"

// ErrFetchFailed は社員コレクションの取得失敗を表す唯一のエラーです。
// 通信エラー、非 2xx ステータス、不正なレスポンスボディのいずれもこれに包まれます。
var ErrFetchFailed = errors.New("employeeapi: fetch failed")
