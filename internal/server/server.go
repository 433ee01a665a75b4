// Package server runs the multiplayer minesweeper protocol. Every
// connection gets its own session goroutine and all sessions share one
// [mines.Grid].
package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vancomm/multisweeper/internal/config"
	"github.com/vancomm/multisweeper/internal/mines"
)

const maxLineLength = 4096

type Options struct {
	// Debug keeps a session open after it digs a bomb.
	Debug bool

	// CommandRate limits commands per second per session; zero disables
	// the limit. CommandBurst is the limiter's bucket size.
	CommandRate  float64
	CommandBurst int

	// IdleTimeout closes TCP sessions that send nothing for that long.
	// Zero disables it.
	IdleTimeout time.Duration
}

type Server struct {
	grid *mines.Grid
	opts Options
	log  logrus.FieldLogger
	ws   *config.WebSocket

	players atomic.Int64

	mu     sync.Mutex
	conns  map[io.Closer]struct{}
	closed bool
	wg     sync.WaitGroup
}

// New returns a server for grid. A nil log means the logrus standard
// logger.
func New(grid *mines.Grid, opts Options, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{
		grid:  grid,
		opts:  opts,
		log:   log.WithField("component", "server"),
		ws:    config.NewWebSocket(),
		conns: make(map[io.Closer]struct{}),
	}
}

func (srv *Server) Grid() *mines.Grid { return srv.grid }

// Players returns the number of open sessions over all transports.
func (srv *Server) Players() int {
	return int(srv.players.Load())
}

// ListenAndServe binds addr and serves until ctx is cancelled. A bind
// failure is returned immediately.
func (srv *Server) ListenAndServe(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("unable to listen on %s: %w", addr, err)
	}
	srv.log.WithField("addr", ln.Addr().String()).Info("accepting connections")
	return srv.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then closes ln
// and every open session and waits for their goroutines. It returns nil
// after a cancellation and the accept error otherwise.
func (srv *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		srv.closeAll()
		srv.wg.Wait()
	}()

	go func() {
		<-ctx.Done()
		ln.Close()
		srv.closeAll()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		if !srv.track(conn) {
			conn.Close()
			return nil
		}
		srv.wg.Add(1)
		go func() {
			defer srv.wg.Done()
			defer srv.untrack(conn)
			srv.serveConn(ctx, conn)
		}()
	}
}

func (srv *Server) track(c io.Closer) bool {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if srv.closed {
		return false
	}
	srv.conns[c] = struct{}{}
	return true
}

func (srv *Server) untrack(c io.Closer) {
	srv.mu.Lock()
	delete(srv.conns, c)
	srv.mu.Unlock()
	c.Close()
}

func (srv *Server) closeAll() {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	srv.closed = true
	for c := range srv.conns {
		c.Close()
	}
}

// serveConn runs one TCP session: greeting, then one reply per line until
// bye, an explosion outside debug mode, EOF or an I/O error.
func (srv *Server) serveConn(ctx context.Context, conn net.Conn) {
	s := srv.newSession(conn.RemoteAddr().String(), "tcp")

	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 0, 256), maxLineLength)
	w := bufio.NewWriter(conn)

	send := func(text string) error {
		if _, err := w.WriteString(text + "\n"); err != nil {
			return err
		}
		return w.Flush()
	}

	if err := send(s.greet()); err != nil {
		s.end("write failed: " + err.Error())
		return
	}

	for {
		if srv.opts.IdleTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(srv.opts.IdleTimeout))
		}
		if !sc.Scan() {
			s.end(scanEndReason(sc.Err()))
			return
		}
		if err := s.wait(ctx); err != nil {
			s.end("shutdown")
			return
		}
		rep := s.execute(sc.Text())
		if rep.send {
			if err := send(rep.text); err != nil {
				s.end("write failed: " + err.Error())
				return
			}
		}
		if rep.close {
			s.end("closed by server")
			return
		}
	}
}

func scanEndReason(err error) string {
	var ne net.Error
	switch {
	case err == nil:
		return "eof"
	case errors.As(err, &ne) && ne.Timeout():
		return "idle timeout"
	case errors.Is(err, bufio.ErrTooLong):
		return "line too long"
	default:
		return "read failed: " + err.Error()
	}
}

// apply runs a grid command and renders its reply. exploded reports a
// dig that hit a bomb; the reply is then BOOM! instead of the board.
func (srv *Server) apply(cmd command) (rep reply, exploded bool) {
	switch cmd.kind {
	case cmdDig:
		res := srv.grid.Dig(cmd.y, cmd.x)
		cellsRevealedTotal.Add(float64(res.Revealed))
		if res.Exploded {
			explosionsTotal.Inc()
			return textReply(boomMessage), true
		}
	case cmdFlag:
		srv.grid.Flag(cmd.y, cmd.x)
	case cmdDeflag:
		srv.grid.Deflag(cmd.y, cmd.x)
	case cmdLook:
	default:
		return textReply(invalidMessage), false
	}
	return textReply(srv.grid.Render()), false
}
