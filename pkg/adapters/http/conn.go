package http

import (
	"context"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aretw0/beatpilot/pkg/protocol"
)

const (
	writeWait = 10 * time.Second
	// inboxSize bounds how many messages queue up while one is being handled.
	inboxSize = 16
)

// connection serves one WebSocket. A reader goroutine feeds an inbox and the
// serve loop handles one message at a time, so replies keep request order.
type connection struct {
	server *Server
	conn   *websocket.Conn
	id     string
}

func newConnection(s *Server, conn *websocket.Conn, id string) *connection {
	return &connection{server: s, conn: conn, id: id}
}

func (c *connection) serve(parent context.Context) {
	logger := c.server.logger.With("session_id", c.id)
	defer c.conn.Close()

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	agent, err := c.server.sessions.Activate(ctx, c.id)
	if err != nil {
		logger.Error("Failed to activate session", "err", err)
		_ = c.write(protocol.NewError(protocol.MsgInternal))
		return
	}
	defer c.server.sessions.Deactivate(c.id)

	if c.server.connObserver != nil {
		c.server.connObserver.ObserveConnection(1)
		defer c.server.connObserver.ObserveConnection(-1)
	}

	logger.Info("Connection opened")
	defer logger.Info("Connection closed")

	handler := protocol.NewHandler(agent, append([]protocol.Option{protocol.WithLogger(logger)}, c.server.protocolOpts...)...)

	c.conn.SetReadLimit(c.server.readLimit)
	inbox := make(chan []byte, inboxSize)
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		defer close(inbox)
		// A closed or broken socket cancels whatever is in flight.
		defer cancel()
		for {
			_, raw, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
					logger.Warn("Connection read failed", "err", err)
				}
				return
			}
			select {
			case inbox <- raw:
			case <-ctx.Done():
				return
			}
		}
	}()
	defer func() {
		cancel()
		c.conn.Close()
		<-readerDone
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-inbox:
			if !ok {
				return
			}
			out := handler.Handle(ctx, raw)
			if err := c.write(out); err != nil {
				logger.Warn("Connection write failed", "err", err)
				return
			}
		}
	}
}

func (c *connection) write(out protocol.Outbound) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteJSON(out)
}
