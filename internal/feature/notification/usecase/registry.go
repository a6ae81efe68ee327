// Package usecase は通知フィーチャーのコアロジック（接続レジストリと
// ディスパッチャ）を実装します。
package usecase

import (
	"sync"

	"portfolio_backend/internal/feature/notification/domain/entity"
)

// Channel は接続中のクライアントセッション1つへの配信経路です。
// 実装はトランスポート層（WebSocket等）が提供します。Sendは並行呼び出しに
// 対して安全でなければなりません。
type Channel interface {
	// Send はエンベロープをシリアライズしてクライアントへ書き込みます。
	Send(env entity.Envelope) error
}

// Registry はユーザーIDから配信チャネル集合への多重化を管理します。
// 状態はプロセスメモリのみに存在し、再起動でゼロから再構築されます。
// すべての操作は複数ゴルーチンから安全に呼び出せます。
type Registry struct {
	mu    sync.RWMutex
	conns map[uint]map[Channel]struct{}
}

// NewRegistry はRegistryの新しいインスタンスを生成します。
func NewRegistry() *Registry {
	return &Registry{conns: make(map[uint]map[Channel]struct{})}
}

// Register はチャネルをユーザーの配信先集合に追加します。
// 1ユーザーあたりのチャネル数に上限はありません（複数クライアントの同時接続を許可）。
func (r *Registry) Register(userID uint, ch Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.conns[userID]
	if !ok {
		set = make(map[Channel]struct{})
		r.conns[userID] = set
	}
	set[ch] = struct{}{}
}

// Unregister はチャネルを配信先集合から取り除きます。集合が空になった場合、
// ユーザーのエントリ自体を削除します。存在しないチャネルの解除は黙って
// 無視されます（冪等）。
func (r *Registry) Unregister(userID uint, ch Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.conns[userID]
	if !ok {
		return
	}
	delete(set, ch)
	if len(set) == 0 {
		delete(r.conns, userID)
	}
}

// ChannelsFor はユーザーの現在のチャネル集合のスナップショット（コピー）を
// 返します。呼び出し後の接続・切断はスナップショットに影響しません。
func (r *Registry) ChannelsFor(userID uint) []Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.conns[userID]
	out := make([]Channel, 0, len(set))
	for ch := range set {
		out = append(out, ch)
	}
	return out
}

// ConnectedUsers は現在1つ以上のチャネルを持つユーザーIDの一覧を返します。
func (r *Registry) ConnectedUsers() []uint {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]uint, 0, len(r.conns))
	for id := range r.conns {
		out = append(out, id)
	}
	return out
}

// ConnectionCount は指定ユーザーのチャネル数を返します。
func (r *Registry) ConnectionCount(userID uint) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns[userID])
}

// TotalConnections は全ユーザーのチャネル数の合計を返します。
func (r *Registry) TotalConnections() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	total := 0
	for _, set := range r.conns {
		total += len(set)
	}
	return total
}
