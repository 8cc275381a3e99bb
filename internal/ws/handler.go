package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"github.com/iamqureshi/realtime-messaging-mern-chat-app/internal/observability"
)

// Handler owns the websocket endpoint: handshake, the per-connection read
// loop and teardown.
type Handler struct {
	hub    *Hub
	router *DeliveryRouter
}

// NewHandler constructs a Handler.
func NewHandler(hub *Hub, router *DeliveryRouter) *Handler {
	return &Handler{hub: hub, router: router}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handle upgrades the connection and runs its event loop until disconnect.
//
// Trust boundary: the user id asserted in the setup event is NOT re-validated
// against the bearer token here. The REST layer issued that id to the client
// at login, and chat membership was checked when the chat was fetched;
// fan-out is address-based. This mirrors the deployed client contract.
func (h *Handler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("messaging/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	info := ConnInfo{
		ConnID:      NewConnID(),
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	session := NewSession(info, conn)
	h.hub.AddSession(session)

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	h.publishLifecycle(ctx, session, "ws_connect", "")

	h.readLoop(session, conn)

	userID, wentOffline := h.hub.RemoveSession(session)
	if wentOffline {
		h.hub.BroadcastAll(Event{Event: EventUserOffline, Data: userID})
	}
	observability.SetOnlineUsers(h.hub.Presence().Count())
	observability.DecWSActive()
	observability.IncWSEvent("ws_disconnect")
	h.publishLifecycle(context.Background(), session, "ws_disconnect", "")
	_ = conn.Close()
}

func (h *Handler) readLoop(session *Session, conn *websocket.Conn) {
	conn.SetReadLimit(64 * 1024)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("ws_error")
				h.publishLifecycle(context.Background(), session, "ws_error", err.Error())
			}
			return
		}

		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		h.dispatch(session, env)
	}
}

func (h *Handler) dispatch(session *Session, env envelope) {
	observability.IncWSEvent(env.Event)
	ctx := context.Background()

	switch env.Event {
	case EventSetup:
		var p SetupPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.UserID <= 0 {
			return
		}
		h.hub.Identify(session, p.UserID)
		_ = session.Push(Event{Event: EventConnected})
		_ = session.Push(Event{Event: EventOnlineUsers, Data: h.hub.Presence().Snapshot()})
		h.hub.BroadcastAll(Event{Event: EventUserOnline, Data: p.UserID})
		observability.SetOnlineUsers(h.hub.Presence().Count())

	case EventJoinChat:
		var p JoinChatPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.ChatID == "" {
			return
		}
		h.hub.JoinRoom(p.ChatID, session)

	case EventTyping:
		var p TypingPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return
		}
		h.router.HandleTyping(session, p)

	case EventStopTyping:
		var p TypingPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return
		}
		h.router.HandleStopTyping(session, p)

	case EventNewMessage:
		var p NewMessagePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return
		}
		if len(p.Members) == 0 {
			log.Printf("new_message without members, dropping")
			return
		}
		h.router.HandleNewMessage(session, p)

	case EventReadMessage:
		var p ReadMessagePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return
		}
		h.router.HandleReadMessage(ctx, session, p)

	case EventMessageDelivered:
		var p MessageDeliveredPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return
		}
		h.router.HandleMessageDelivered(ctx, session, p)

	default:
		// Unknown event names are ignored.
	}
}

func (h *Handler) publishLifecycle(ctx context.Context, session *Session, event, reason string) {
	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"event":       event,
			"conn_id":     session.Info.ConnID,
			"duration_ms": time.Since(session.Info.ConnectedAt).Milliseconds(),
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_id":   session.UserID,
			"device_id": session.Info.DeviceID,
			"ip":        session.Info.IP,
		},
	}

	headers := observability.BuildHeaders(session.Info.RequestID, session.Info.TraceID)
	_ = observability.PublishEvent(ctx, "ws_events.connections", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: event,
		Payload:   payload,
	}, headers)
}
