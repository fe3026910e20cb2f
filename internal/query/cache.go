package query

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrCacheClosed は Close 済みのキャッシュへのマウントで返されます。
var ErrCacheClosed = errors.New("query: cache closed")

// FetchFunc はキーに対応するデータを取得します。キャッシュ所有のゴルーチンから呼ばれます。
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Option は Cache の設定を変更します。
type Option func(*options)

type options struct {
	staleTime time.Duration
	now       func() time.Time
	onError   func(key string, err error)
}

// WithStaleTime は取得結果を再利用する期間を設定します。0 (既定) はマウントごとに再取得します。
func WithStaleTime(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.staleTime = d
		}
	}
}

// WithClock は現在時刻の取得方法を差し替えます。
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithErrorHandler は取得失敗の詳細を受け取るハンドラを設定します。
// コンシューマーには StatusError 以上の情報は渡りません。
func WithErrorHandler(fn func(key string, err error)) Option {
	return func(o *options) {
		o.onError = fn
	}
}

// Cache はキー単位でクエリ結果を保持し、実行中の取得を重複排除します。
// 1 キーにつき実行中の取得は常に高々 1 つです。
// アプリケーション起動時に生成してコンシューマーへ注入し、終了時に Close します。
type Cache[T any] struct {
	opts options

	mu      sync.Mutex
	entries map[string]*entry[T]
	closed  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type fetchOutcome[T any] struct {
	val T
	err error
}

type entry[T any] struct {
	result    Result[T]
	hasData   bool
	stale     bool
	refetch   bool
	fetch     FetchFunc[T]
	observers map[*Observer[T]]struct{}

	// unseenError は誰もマウントしていない間に失敗が確定したことを表します。
	// 次のマウントはその失敗をそのまま受け取り、再取得しません。
	unseenError bool
}

// New は Cache を生成します。
func New[T any](opts ...Option) *Cache[T] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Cache[T]{
		opts:    o,
		entries: make(map[string]*entry[T]),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Mount はコンシューマーのマウントを登録し Observer を返します。
// 取得中でなく、再利用可能な結果も無ければ非同期に取得を開始します。
func (c *Cache[T]) Mount(key string, fetch FetchFunc[T]) (*Observer[T], error) {
	if fetch == nil {
		return nil, errors.New("query: fetch function is required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrCacheClosed
	}

	e, ok := c.entries[key]
	if !ok {
		e = &entry[T]{observers: make(map[*Observer[T]]struct{})}
		c.entries[key] = e
	}
	e.fetch = fetch

	obs := &Observer[T]{
		cache:   c,
		key:     key,
		updates: make(chan struct{}, 1),
	}
	e.observers[obs] = struct{}{}

	if c.shouldFetchLocked(e) {
		c.startFetchLocked(key, e)
	}
	e.unseenError = false
	obs.result = e.result

	return obs, nil
}

// Invalidate はキーの結果を古いものとして扱い、マウント中のコンシューマーがいれば再取得します。
func (c *Cache[T]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || c.closed {
		return
	}
	e.stale = true
	if len(e.observers) == 0 {
		return
	}
	if e.result.Fetching {
		e.refetch = true
		return
	}
	c.startFetchLocked(key, e)
}

// Close は実行中の取得をキャンセルし、全 Observer の更新チャネルを閉じます。
func (c *Cache[T]) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.cancel()
	for key, e := range c.entries {
		for obs := range e.observers {
			close(obs.updates)
		}
		delete(c.entries, key)
	}
	c.mu.Unlock()

	c.wg.Wait()
}

func (c *Cache[T]) shouldFetchLocked(e *entry[T]) bool {
	if e.result.Fetching {
		return false
	}
	if e.stale {
		return true
	}
	switch e.result.Status {
	case StatusSuccess:
		return c.opts.now().Sub(e.result.UpdatedAt) >= c.opts.staleTime
	case StatusError:
		return !e.unseenError
	default:
		return true
	}
}

func (c *Cache[T]) startFetchLocked(key string, e *entry[T]) {
	e.result.Fetching = true
	if !(e.hasData && e.result.Status == StatusSuccess) {
		e.result.Status = StatusLoading
	}
	c.notifyLocked(e)

	fetch := e.fetch
	done := make(chan fetchOutcome[T], 1)
	// fetch が ctx を無視しても Close を止めないよう、待ち合わせ側だけを wg で管理する。
	go func() {
		val, err := fetch(c.ctx)
		done <- fetchOutcome[T]{val: val, err: err}
	}()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		select {
		case out := <-done:
			c.settle(key, out.val, out.err)
		case <-c.ctx.Done():
		}
	}()
}

func (c *Cache[T]) settle(key string, val T, err error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok || c.closed {
		c.mu.Unlock()
		return
	}

	e.result.Fetching = false
	e.stale = false
	if err != nil {
		e.result.Status = StatusError
		e.unseenError = len(e.observers) == 0
	} else {
		e.unseenError = false
		e.result.Status = StatusSuccess
		e.result.Data = val
		e.result.UpdatedAt = c.opts.now()
		e.hasData = true
	}
	c.notifyLocked(e)

	if e.refetch {
		e.refetch = false
		if len(e.observers) > 0 {
			c.startFetchLocked(key, e)
		}
	}
	onError := c.opts.onError
	c.mu.Unlock()

	if err != nil && onError != nil {
		onError(key, err)
	}
}

func (c *Cache[T]) notifyLocked(e *entry[T]) {
	for obs := range e.observers {
		obs.result = e.result
		select {
		case obs.updates <- struct{}{}:
		default:
		}
	}
}

func (c *Cache[T]) unmount(obs *Observer[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[obs.key]
	if !ok {
		return
	}
	if _, mounted := e.observers[obs]; !mounted {
		return
	}
	delete(e.observers, obs)
	close(obs.updates)
}
