package server

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"
)

func (s *Server) registerWebSocketHandler(path string) {
	s.app.Use(path, WebSocketUpgrader)
	s.app.Get(path, websocket.New(s.handleWebSocket))
}

func WebSocketUpgrader(c *fiber.Ctx) error {
	// IsWebSocketUpgrade returns true if the client
	// requested upgrade to the WebSocket protocol.
	if websocket.IsWebSocketUpgrade(c) {
		c.Locals("allowed", true)
		return eris.Wrap(c.Next(), "")
	}
	return fiber.ErrUpgradeRequired
}

// handleWebSocket owns one client connection from spawn to cleanup. The read
// loop only ever touches this connection's own player record, so it is safe
// to run concurrently with the tick engine and every other connection.
func (s *Server) handleWebSocket(conn *websocket.Conn) {
	ctx := context.Background()
	session := NewSession(s.store, conn.Query("nick"), s.moveSpeed, s.startSize)
	logger := log.With().Str("connection", session.ID).Logger()

	if err := session.Connect(ctx); err != nil {
		logger.Error().Err(err).Msg(eris.ToString(err, true))
		return
	}
	logger.Info().Str("nick", session.Nick).Msg("Player connected")

	defer func() {
		s.hub.UnregisterConnection(conn)
		if err := session.Disconnect(ctx); err != nil {
			logger.Error().Err(err).Msg(eris.ToString(err, true))
		}
		logger.Info().Msg("Player disconnected")
	}()

	welcome, err := json.Marshal(NewWelcomeMessage(session.ID))
	if err != nil {
		logger.Error().Err(err).Msg("failed to encode welcome message")
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, welcome); err != nil {
		logger.Error().Err(err).Msg("failed to write welcome message")
		return
	}

	s.hub.RegisterConnection(conn)

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			logger.Debug().Err(err).Msg("websocket read ended")
			break
		}

		var in InboundMessage
		if err := json.Unmarshal(msg, &in); err != nil {
			logger.Debug().Err(err).Msg("discarding malformed message")
			continue
		}

		switch in.Type {
		case MessageTypeMove:
			if in.Dir == nil {
				logger.Debug().Msg("discarding move without a direction")
				continue
			}
			if err := session.ApplyMove(ctx, *in.Dir); err != nil {
				// The movement is simply dropped; the client will not see it
				// applied.
				logger.Warn().Err(err).Msg("movement update dropped")
			}
		default:
			logger.Debug().Str("type", in.Type).Msg("discarding unknown message type")
		}
	}
}
