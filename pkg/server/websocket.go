package server

import (
	"runtime/debug"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kinet-dev/kinet/pkg/protocol"
)

// startAttached launches the connection-bound loops. The event loop is not
// among them; it starts at session creation and survives reconnects.
func (s *Session) startAttached() {
	go s.ReadLoop()
	go s.WriteLoop()
}

// ReadLoop reads frames from the current connection until it fails or the
// session closes. On disconnect the session is handed to onDisconnect (the
// resume window) rather than closed, unless closing already started.
func (s *Session) ReadLoop() {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return
	}

	conn.SetReadLimit(s.cfg.MaxMessageSize)

	for {
		conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("read error", "error", err)
			}
			break
		}

		s.LastActive = time.Now()
		s.bytesRecv.Add(uint64(len(msg)))

		frame, err := protocol.DecodeFrame(msg)
		if err != nil {
			s.logger.Error("frame decode error", "error", err)
			continue
		}

		switch frame.Type {
		case protocol.FrameEvent:
			s.handleEventFrame(frame.Payload)

		case protocol.FrameControl:
			s.handleControlFrame(frame.Payload)

		case protocol.FrameAck:
			s.handleAckFrame(frame.Payload)

		default:
			s.logger.Warn("unexpected frame type", "type", frame.Type.String())
		}
	}

	if s.closed.Load() {
		return
	}
	if s.onDisconnect != nil {
		s.onDisconnect(s)
		return
	}
	s.Close()
}

// handleEventFrame decodes and queues one client event.
func (s *Session) handleEventFrame(payload []byte) {
	pe, err := protocol.DecodeEvent(payload)
	if err != nil {
		s.logger.Error("event decode error", "error", err)
		s.sendErrorMessage(protocol.ErrInvalidEvent, "invalid event format")
		return
	}

	event := eventFromProtocol(pe, s)
	if err := s.QueueEvent(event); err != nil {
		s.sendErrorMessage(protocol.ErrRateLimited, "event queue full")
	}
}

// handleControlFrame handles ping, pong, and close.
func (s *Session) handleControlFrame(payload []byte) {
	ct, data, err := protocol.DecodeControl(payload)
	if err != nil {
		s.logger.Error("control decode error", "error", err)
		return
	}

	switch ct {
	case protocol.ControlPing:
		if pp, ok := data.(*protocol.PingPong); ok {
			s.sendPong(pp.Timestamp)
		}

	case protocol.ControlPong:
		s.logger.Debug("received pong")

	case protocol.ControlClose:
		if cm, ok := data.(*protocol.CloseMessage); ok {
			s.logger.Info("client closing",
				"reason", cm.Reason.String(),
				"message", cm.Message)
		}
		s.Close()
	}
}

// handleAckFrame records the client's last applied patch sequence.
func (s *Session) handleAckFrame(payload []byte) {
	ack, err := protocol.DecodeAck(payload)
	if err != nil {
		s.logger.Error("ack decode error", "error", err)
		return
	}
	s.ackSeq.Store(ack.LastSeq)
	s.logger.Debug("received ack", "seq", ack.LastSeq)
}

// sendPong answers a client ping, echoing its timestamp.
func (s *Session) sendPong(timestamp uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() || s.conn == nil {
		return
	}

	payload := protocol.EncodeControl(protocol.ControlPong,
		&protocol.PingPong{Timestamp: timestamp})
	frame := protocol.NewFrame(protocol.FrameControl, payload)

	s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	if err := s.conn.WriteMessage(websocket.BinaryMessage, frame.Encode()); err != nil {
		s.logger.Error("pong error", "error", err)
	}
}

// WriteLoop sends heartbeats until the connection drops or the session
// closes.
func (s *Session) WriteLoop() {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.sendPing(); err != nil {
				return
			}

		case <-s.done:
			return
		}
	}
}

// EventLoop serializes all session mutation: inbound events, dispatched
// functions, and render wake-ups all run here.
func (s *Session) EventLoop() {
	for {
		select {
		case event := <-s.events:
			s.handleEvent(event)

		case fn := <-s.dispatchCh:
			s.executeDispatch(fn)

		case <-s.renderCh:
			s.renderDirty()
			s.Flush()

		case <-s.done:
			return
		}
	}
}

// executeDispatch runs one dispatched function with panic recovery, then
// re-renders and flushes, mirroring event handling.
func (s *Session) executeDispatch(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("dispatch panic",
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()

	fn()

	s.renderDirty()
	s.Flush()
}
