package query

import "context"

// Observer は 1 回のマウントに対応するクエリ結果の購読です。
type Observer[T any] struct {
	cache   *Cache[T]
	key     string
	updates chan struct{}
	result  Result[T]
}

// Key はこの Observer が購読しているキャッシュキーです。
func (o *Observer[T]) Key() string {
	return o.key
}

// Result は現在のクエリ結果を返します。
func (o *Observer[T]) Result() Result[T] {
	o.cache.mu.Lock()
	defer o.cache.mu.Unlock()
	return o.result
}

// Updates は結果が変化したときに通知されるチャネルを返します。
// 通知は合体されるため、受信後は Result で最新の状態を読み直してください。
// アンマウントまたはキャッシュの Close で閉じられます。
func (o *Observer[T]) Updates() <-chan struct{} {
	return o.updates
}

// Settled は実行中の取得が終わるか ctx が終了するまで待ち、その時点の結果を返します。
func (o *Observer[T]) Settled(ctx context.Context) (Result[T], error) {
	for {
		res := o.Result()
		if !res.Fetching && res.Status != StatusIdle {
			return res, nil
		}
		select {
		case _, ok := <-o.updates:
			if !ok {
				return o.Result(), ErrCacheClosed
			}
		case <-ctx.Done():
			return o.Result(), ctx.Err()
		}
	}
}

// Close はアンマウントです。実行中の取得は継続し、共有エントリは通常どおり更新されます。
func (o *Observer[T]) Close() {
	o.cache.unmount(o)
}
