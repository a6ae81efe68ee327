package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"portfolio_backend/internal/api"
	"portfolio_backend/internal/feature/notification/domain/entity"
	"portfolio_backend/internal/feature/notification/usecase"
	portfolioentity "portfolio_backend/internal/feature/portfolio/domain/entity"
	portfoliodto "portfolio_backend/internal/feature/portfolio/transport/http/dto"
	jwtmw "portfolio_backend/internal/platform/jwt"
)

// readWait は次のクライアントメッセージを待つ最大時間です。
// メッセージを受信するたびに延長されます。
const readWait = 120 * time.Second

// greetingHours は接続直後に送る戦略変更履歴の対象時間です。
const greetingHours = 24

// クライアントから受信するメッセージタイプ。
const (
	inboundPing            = "PING"
	inboundStrategyUpdate  = "REQUEST_STRATEGY_UPDATE"
	inboundNewsSummary     = "REQUEST_NEWS_SUMMARY"
	inboundSubscribeNotify = "SUBSCRIBE_NOTIFICATIONS"
)

// StrategyUpdater は接続中クライアントからのオンデマンド更新要求を処理します。
// Goの慣例に従い、インターフェースはコンシューマー（transport）側で定義します。
type StrategyUpdater interface {
	UpdateUserStrategies(ctx context.Context, userID uint) ([]portfolioentity.StrategyUpdate, error)
}

// PortfolioReader はWebSocket経由の照会要求に応答するための読み取り操作です。
type PortfolioReader interface {
	NewsDigest(ctx context.Context, id, userID uint, days int) (*portfolioentity.NewsDigest, error)
	RecentStrategyChanges(ctx context.Context, userID uint, hours int) ([]portfolioentity.StrategyChange, error)
}

// inboundMessage はクライアントから受信するフレームの共通形式です。
type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// newsSummaryRequest はREQUEST_NEWS_SUMMARYのペイロードです。
type newsSummaryRequest struct {
	PortfolioID uint `json:"portfolio_id"`
}

// broadcastRequest はPOST /ws/broadcastのリクエストボディです。
type broadcastRequest struct {
	Message     string `json:"message" binding:"required"`
	MessageType string `json:"message_type"`
}

// WSHandler はWebSocket接続のライフサイクルと受信メッセージを処理します。
type WSHandler struct {
	registry   *usecase.Registry
	dispatcher *usecase.Dispatcher
	strategies StrategyUpdater
	portfolios PortfolioReader
	upgrader   websocket.Upgrader
}

// NewWSHandler はWSHandlerの新しいインスタンスを生成します。
func NewWSHandler(registry *usecase.Registry, dispatcher *usecase.Dispatcher, strategies StrategyUpdater, portfolios PortfolioReader) *WSHandler {
	return &WSHandler{
		registry:   registry,
		dispatcher: dispatcher,
		strategies: strategies,
		portfolios: portfolios,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// オリジン検証はCORSミドルウェアとJWT認証に委ねる
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Serve はGET /wsを処理します。接続をアップグレードしてレジストリに登録し、
// 切断まで受信ループを回します。登録解除は必ずdeferで行われます。
func (h *WSHandler) Serve(c *gin.Context) {
	userID := c.GetUint(jwtmw.ContextUserID)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "user_id", userID, "error", err)
		return
	}

	ch := newWSChannel(conn)
	h.registry.Register(userID, ch)
	slog.Info("websocket connected", "user_id", userID,
		"connections", h.registry.ConnectionCount(userID))

	defer func() {
		h.registry.Unregister(userID, ch)
		ch.close()
		slog.Info("websocket disconnected", "user_id", userID,
			"connections", h.registry.ConnectionCount(userID))
	}()

	h.greet(c.Request.Context(), userID, ch)
	h.readLoop(userID, ch)
}

// greet は接続確立通知と直近の戦略変更履歴を送信します。
func (h *WSHandler) greet(ctx context.Context, userID uint, ch *wsChannel) {
	established := entity.NewEnvelope(entity.TypeConnectionEstablished, map[string]any{
		"message": "接続が確立されました",
	})
	if err := ch.Send(established); err != nil {
		return
	}

	changes, err := h.portfolios.RecentStrategyChanges(ctx, userID, greetingHours)
	if err != nil {
		slog.Warn("failed to load recent strategy changes", "user_id", userID, "error", err)
		return
	}
	if len(changes) == 0 {
		return
	}
	greeting := entity.NewEnvelope(entity.TypeRecentStrategyChanges, map[string]any{
		"changes":       changes,
		"total_changes": len(changes),
	})
	if err := ch.Send(greeting); err != nil {
		slog.Warn("failed to send greeting", "user_id", userID, "error", err)
	}
}

// readLoop は切断かエラーまで受信メッセージを処理し続けます。
func (h *WSHandler) readLoop(userID uint, ch *wsChannel) {
	for {
		if err := ch.conn.SetReadDeadline(time.Now().Add(readWait)); err != nil {
			return
		}
		_, raw, err := ch.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket read failed", "user_id", userID, "error", err)
			}
			return
		}

		var msg inboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.sendError(ch, "invalid message format")
			continue
		}
		h.handleMessage(userID, ch, msg)
	}
}

// handleMessage は受信メッセージをタイプ別に処理します。
func (h *WSHandler) handleMessage(userID uint, ch *wsChannel, msg inboundMessage) {
	switch msg.Type {
	case inboundPing:
		_ = ch.Send(entity.NewEnvelope(entity.TypePong, nil))

	case inboundStrategyUpdate:
		_ = ch.Send(entity.NewEnvelope(entity.TypeUpdateStarted, map[string]any{
			"message": "戦略の更新を開始しました",
		}))
		// 更新は数十秒かかるため受信ループを塞がずに実行する
		go h.runStrategyUpdate(userID)

	case inboundNewsSummary:
		var req newsSummaryRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil || req.PortfolioID == 0 {
			h.sendError(ch, "portfolio_id is required")
			return
		}
		digest, err := h.portfolios.NewsDigest(context.Background(), req.PortfolioID, userID, 0)
		if err != nil {
			slog.Warn("news digest failed", "user_id", userID,
				"portfolio_id", req.PortfolioID, "error", err)
			h.sendError(ch, "failed to build news summary")
			return
		}
		_ = ch.Send(entity.NewEnvelope(entity.TypeNewsDigest, map[string]any{
			"portfolio_id": req.PortfolioID,
			"digest":       portfoliodto.NewNewsDigestResponse(digest),
		}))

	case inboundSubscribeNotify:
		_ = ch.Send(entity.NewEnvelope(entity.TypeSubscriptionConfirmed, map[string]any{
			"message": "通知を購読しました",
		}))

	default:
		h.sendError(ch, "unknown message type: "+msg.Type)
	}
}

// runStrategyUpdate はオンデマンドの戦略更新を実行し、完了レポートを
// ユーザーの全接続へ配信します。
func (h *WSHandler) runStrategyUpdate(userID uint) {
	updates, err := h.strategies.UpdateUserStrategies(context.Background(), userID)
	if err != nil {
		slog.Error("on-demand strategy update failed", "user_id", userID, "error", err)
		h.dispatcher.Deliver(userID, entity.NewEnvelope(entity.TypeError, map[string]any{
			"message": "戦略の更新に失敗しました",
		}))
		return
	}
	h.dispatcher.Deliver(userID, entity.NewEnvelope(entity.TypeUpdateReport, map[string]any{
		"updates":       updates,
		"total_updated": len(updates),
	}))
}

func (h *WSHandler) sendError(ch *wsChannel, message string) {
	_ = ch.Send(entity.NewEnvelope(entity.TypeError, map[string]any{
		"message": message,
	}))
}

// Status はGET /ws/statusを処理します。接続中ユーザーと接続数を返します。
func (h *WSHandler) Status(c *gin.Context) {
	users := h.registry.ConnectedUsers()
	perUser := make([]gin.H, 0, len(users))
	for _, id := range users {
		perUser = append(perUser, gin.H{
			"user_id":     id,
			"connections": h.registry.ConnectionCount(id),
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"total_connections": h.registry.TotalConnections(),
		"connected_users":   perUser,
	})
}

// Broadcast はPOST /ws/broadcastを処理します。全接続ユーザーへ
// SYSTEM_MESSAGEを配信し、送信数を返します。
func (h *WSHandler) Broadcast(c *gin.Context) {
	var req broadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "message is required"})
		return
	}
	messageType := req.MessageType
	if messageType == "" {
		messageType = "info"
	}
	sent := h.dispatcher.BroadcastSystemMessage(req.Message, messageType)
	c.JSON(http.StatusOK, gin.H{"recipients": sent})
}
