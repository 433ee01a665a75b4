package server

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type sessionState int32

const (
	stateConnected sessionState = iota
	stateActive
	stateClosing
	stateClosed
)

func (s sessionState) String() string {
	switch s {
	case stateConnected:
		return "connected"
	case stateActive:
		return "active"
	case stateClosing:
		return "closing"
	case stateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// reply is what a session sends back for one line. When send is false
// nothing is written; when close is true the session ends after writing.
type reply struct {
	text  string
	send  bool
	close bool
}

func textReply(text string) reply {
	return reply{text: text, send: true}
}

// session is the per-connection protocol state machine. It is transport
// agnostic: the TCP and websocket loops feed it lines and write back its
// replies. A session is used by a single goroutine.
type session struct {
	id        string
	transport string
	srv       *Server
	log       logrus.FieldLogger
	limiter   *rate.Limiter
	state     sessionState
}

func (srv *Server) newSession(remote, transport string) *session {
	id := uuid.NewString()
	players := srv.players.Add(1)
	playersGauge.Inc()
	connectionsTotal.WithLabelValues(transport).Inc()

	limit, burst := rate.Inf, 0
	if srv.opts.CommandRate > 0 {
		limit, burst = rate.Limit(srv.opts.CommandRate), max(srv.opts.CommandBurst, 1)
	}

	s := &session{
		id:        id,
		transport: transport,
		srv:       srv,
		log: srv.log.WithFields(logrus.Fields{
			"session":   id,
			"remote":    remote,
			"transport": transport,
		}),
		limiter: rate.NewLimiter(limit, burst),
		state:   stateConnected,
	}
	s.log.WithField("players", players).Info("session opened")
	return s
}

// greet moves the session to active and returns the welcome line.
func (s *session) greet() string {
	s.state = stateActive
	rows, cols := s.srv.grid.Dimensions()
	return greetingMessage(int(s.srv.players.Load()), rows, cols)
}

// wait blocks until the rate limiter admits another command.
func (s *session) wait(ctx context.Context) error {
	return s.limiter.Wait(ctx)
}

func (s *session) execute(line string) reply {
	if s.state != stateActive {
		return reply{close: true}
	}

	cmd, err := parseCommand(line)
	commandsTotal.WithLabelValues(string(cmd.kind)).Inc()
	if err != nil {
		s.log.WithError(err).Debug("rejected command")
		return textReply(invalidMessage)
	}

	var rep reply
	switch cmd.kind {
	case cmdHelp:
		rep = textReply(helpMessage)
	case cmdBye:
		rep = reply{close: true}
	default:
		var exploded bool
		rep, exploded = s.srv.apply(cmd)
		if exploded {
			s.log.WithFields(logrus.Fields{"x": cmd.x, "y": cmd.y}).Info("bomb exploded")
			rep.close = !s.srv.opts.Debug
		}
	}

	if rep.close {
		s.state = stateClosing
	}
	return rep
}

func (s *session) end(reason string) {
	s.state = stateClosed
	players := s.srv.players.Add(-1)
	playersGauge.Dec()
	s.log.WithFields(logrus.Fields{
		"reason":  reason,
		"players": players,
	}).Info("session closed")
}
