// internal/handlers/chat.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"github.com/jason-s-yu/collabnet/internal/chat"
	"github.com/jason-s-yu/collabnet/internal/middleware"
	"github.com/jason-s-yu/collabnet/internal/models"
	"github.com/sirupsen/logrus"
)

const chatPingInterval = 30 * time.Second

var errInboxClosed = errors.New("message subscription closed")

func (s *Server) ChatHistory(w http.ResponseWriter, r *http.Request) {
	other, ok := s.lookupUser(w, r)
	if !ok {
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = min(n, chat.MaxHistoryLimit)
	}

	msgs, err := s.chat.History(r.Context(), currentUser(r), other.ID, limit)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

// SendMessage stores a direct message to {username} and pushes it to their live sessions.
//
// Request payload: { "text" }
func (s *Server) SendMessage(w http.ResponseWriter, r *http.Request) {
	other, ok := s.lookupUser(w, r)
	if !ok {
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	msg, err := s.chat.Send(r.Context(), currentUser(r), other.ID, req.Text)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, msg)
	case errors.Is(err, chat.ErrEmptyMessage),
		errors.Is(err, chat.ErrMessageTooLong),
		errors.Is(err, chat.ErrSelfMessage):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.internalError(w, r, err)
	}
}

func (s *Server) UnreadMessages(w http.ResponseWriter, r *http.Request) {
	n, err := s.chat.Unread(r.Context(), currentUser(r))
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"unread": n})
}

// ChatWS upgrades to a websocket that receives every message sent to the caller
// while it stays open. Anything the client sends is ignored.
func (s *Server) ChatWS(w http.ResponseWriter, r *http.Request) {
	if s.subscriber == nil {
		writeError(w, http.StatusServiceUnavailable, "live chat is not available")
		return
	}
	me := currentUser(r)

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.logger.Warnf("websocket accept error: %v", err)
		return
	}
	defer c.Close(websocket.StatusInternalError, "handler finished")

	middleware.LogWebSocketConnect(s.logger, r.RemoteAddr, r.URL.Path)

	// CloseRead drains client frames and cancels ctx once the client goes away.
	ctx := c.CloseRead(r.Context())

	inbox, err := s.subscriber.SubscribeMessages(ctx, me)
	if err != nil {
		s.logger.WithError(err).WithField("user", me).Warn("chat subscribe failed")
		c.Close(SubscribeFailedError, "subscription failed")
		return
	}

	err = chatWritePump(ctx, c, inbox, s.logger)
	middleware.LogWebSocketDisconnect(s.logger, r.RemoteAddr, r.URL.Path, err)
	if errors.Is(err, errInboxClosed) {
		c.Close(SubscriptionLostError, "message subscription ended")
		return
	}
	c.Close(websocket.StatusNormalClosure, "")
}

// chatWritePump forwards inbox to the socket and pings periodically until ctx ends,
// the inbox closes or a write fails.
func chatWritePump(ctx context.Context, c *websocket.Conn, inbox <-chan models.Message, logger *logrus.Logger) error {
	ticker := time.NewTicker(chatPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-inbox:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errInboxClosed
			}
			data, err := json.Marshal(msg)
			if err != nil {
				logger.Warnf("chat: failed to marshal message %s: %v", msg.ID, err)
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				return err
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				return err
			}
		}
	}
}
