package employee

import "context"

// Repository は社員コレクションの読み取り専用ストアの抽象です。
type Repository interface {
	// List は全社員をストアの並び順で返します。該当なしは空スライスです。
	List(ctx context.Context) ([]Employee, error)
}
