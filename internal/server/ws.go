package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const wsWriteWait = 10 * time.Second

// handleWS speaks the line protocol over a websocket. Each text message
// may carry several commands separated by newlines; every reply is sent
// as its own text message.
func (srv *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := srv.ws.Upgrader.Upgrade(w, r, nil) // headers sent here
	if err != nil {
		srv.log.WithError(err).Warn("unable to upgrade")
		return
	}
	if !srv.track(conn) {
		conn.Close()
		return
	}
	defer srv.untrack(conn)
	conn.SetReadLimit(maxLineLength)

	s := srv.newSession(r.RemoteAddr, "ws")
	ctx := r.Context()

	send := func(text string) error {
		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		return conn.WriteMessage(websocket.TextMessage, []byte(text))
	}
	bye := func() {
		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(wsWriteWait),
		)
	}

	if err := send(s.greet()); err != nil {
		s.end("write failed: " + err.Error())
		return
	}

	for {
		mt, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.end("eof")
			} else {
				s.end("read failed: " + err.Error())
			}
			return
		}
		if mt != websocket.TextMessage {
			bye()
			s.end("non-text message")
			return
		}

		for line := range lines(string(msg)) {
			if err := s.wait(ctx); err != nil {
				s.end("shutdown")
				return
			}
			rep := s.execute(line)
			if rep.send {
				if err := send(rep.text); err != nil {
					s.end("write failed: " + err.Error())
					return
				}
			}
			if rep.close {
				bye()
				s.end("closed by server")
				return
			}
		}
	}
}
