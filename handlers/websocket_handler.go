package handlers

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/in4everyall/tennisclub-league/events"
	"github.com/in4everyall/tennisclub-league/league"
)

type WebSocketHandler struct {
	hub      *events.Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWebSocketHandler accepts browser connections only from allowedOrigins ("*" allows any).
// Requests without an Origin header are not browsers and always pass.
func NewWebSocketHandler(hub *events.Hub, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger,
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		return slices.Contains(allowed, "*") || slices.Contains(allowed, origin)
	}
}

// ServeWs подписывает клиента на события фазы.
// Клиент подключается к /ws/phases/{phaseCode}
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	phaseCode := chi.URLParam(r, "phaseCode")
	if _, err := league.ParsePhaseCode(phaseCode); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade уже ответил клиенту
		h.logger.Warn("websocket upgrade failed", slog.String("phase_code", phaseCode), slog.Any("error", err))
		return
	}

	client := events.NewClient(h.hub, conn, events.PhaseRoom(phaseCode))
	if !h.hub.Subscribe(client) {
		h.logger.Info("websocket hub stopped, dropping client", slog.String("phase_code", phaseCode))
		_ = conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()

	h.logger.Info("websocket client subscribed", slog.String("room", client.Room))
}
