// Package ws はgorilla/websocketによる通知配信のトランスポート層を提供します。
package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"portfolio_backend/internal/feature/notification/domain/entity"
)

// writeWait は1フレームの書き込みに許容する時間です。
const writeWait = 10 * time.Second

// wsChannel は1本のWebSocket接続をChannelとしてラップします。
// gorilla/websocketのコネクションは並行書き込みを許さないため、
// 書き込みはミューテックスで直列化します。
type wsChannel struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func newWSChannel(conn *websocket.Conn) *wsChannel {
	return &wsChannel{conn: conn}
}

// Send はエンベロープをJSONフレームとして書き込みます。
// 書き込みに失敗した接続は死んだとみなされ、呼び出し側で登録解除されます。
func (c *wsChannel) Send(env entity.Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteJSON(env)
}

// close は接続を閉じます。closeは冪等で、2回目以降のエラーは無視されます。
func (c *wsChannel) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.Close()
}
