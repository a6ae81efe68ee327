package usecase

import (
	"log/slog"

	"portfolio_backend/internal/feature/notification/domain/entity"
	portfolioentity "portfolio_backend/internal/feature/portfolio/domain/entity"
)

// Dispatcher は1つの論理通知をユーザーの全ライブチャネルへ配信します。
// 書き込みに失敗したチャネルはその場でレジストリから解除されるため、
// 死んだ接続が1回の配信サイクルを超えて残ることはありません。
type Dispatcher struct {
	registry *Registry
}

// NewDispatcher は指定されたレジストリを使うDispatcherを生成します。
func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

// Deliver はエンベロープをユーザーの全チャネルへ書き込み、成功した
// チャネル数を返します。チャネルが無い場合は0を返すだけでエラーには
// なりません（通知はベストエフォートであり、後送されません）。
// 各チャネルへの書き込みは独立しており、1チャネルの失敗は他に波及しません。
func (d *Dispatcher) Deliver(userID uint, env entity.Envelope) int {
	channels := d.registry.ChannelsFor(userID)
	if len(channels) == 0 {
		return 0
	}

	sent := 0
	for _, ch := range channels {
		if err := ch.Send(env); err != nil {
			// 書き込み時に死んだ接続を発見したら即座に解除する（自己修復）
			slog.Warn("channel write failed, unregistering",
				"user_id", userID, "type", env.Type, "error", err)
			d.registry.Unregister(userID, ch)
			continue
		}
		sent++
	}
	return sent
}

// Broadcast はエンベロープを接続中の全ユーザーへ配信し、成功した
// チャネル数の合計を返します。
func (d *Dispatcher) Broadcast(env entity.Envelope) int {
	total := 0
	for _, userID := range d.registry.ConnectedUsers() {
		total += d.Deliver(userID, env)
	}
	return total
}

// NotifyStrategyChanges は重要な戦略変更を1通のアグリゲート通知として配信します。
func (d *Dispatcher) NotifyStrategyChanges(userID uint, changes []portfolioentity.StrategyChange) int {
	return d.Deliver(userID, entity.NewEnvelope(entity.TypeStrategyChange, map[string]any{
		"changes":       changes,
		"total_changes": len(changes),
	}))
}

// NotifyPriceUpdates は価格更新を1通のアグリゲート通知として配信します。
func (d *Dispatcher) NotifyPriceUpdates(userID uint, updates []portfolioentity.PriceUpdate) int {
	return d.Deliver(userID, entity.NewEnvelope(entity.TypePriceUpdate, map[string]any{
		"portfolios":    updates,
		"total_updated": len(updates),
	}))
}

// BroadcastSystemMessage は管理者向けのシステムメッセージを全ユーザーへ配信します。
func (d *Dispatcher) BroadcastSystemMessage(message, messageType string) int {
	return d.Broadcast(entity.NewEnvelope(entity.TypeSystemMessage, map[string]any{
		"message":      message,
		"message_type": messageType,
	}))
}
