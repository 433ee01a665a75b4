package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/schema"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/vancomm/multisweeper/internal/middleware"
)

type boardQuery struct {
	Format string `schema:"format"`
}

type point struct {
	X int `schema:"x,required"`
	Y int `schema:"y,required"`
}

type boardDTO struct {
	Rows    int      `json:"rows"`
	Columns int      `json:"columns"`
	Players int      `json:"players"`
	Board   []string `json:"board"`
	Markers []string `json:"markers"`
}

func decodeQuery(dst any, src map[string][]string) error {
	dec := schema.NewDecoder()
	dec.IgnoreUnknownKeys(true)
	return dec.Decode(dst, src)
}

// Handler serves the websocket transport, the board endpoints, health and
// metrics.
func (srv *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", srv.handleWS)
	mux.HandleFunc("GET /board", srv.handleBoard)
	mux.HandleFunc("POST /board/{move}", srv.handleMove)
	mux.HandleFunc("GET /status", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	return middleware.Wrap(mux,
		middleware.Cors(),
		middleware.Logging(srv.log),
	)
}

func (srv *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	var q boardQuery
	if err := decodeQuery(&q, r.URL.Query()); err != nil {
		srv.badRequest(w, err.Error())
		return
	}

	switch q.Format {
	case "", "text":
		srv.replyText(w, srv.grid.Render())
	case "json":
		rows, cols := srv.grid.Dimensions()
		srv.replyJSON(w, boardDTO{
			Rows:    rows,
			Columns: cols,
			Players: srv.Players(),
			Board:   strings.Split(srv.grid.Render(), "\n"),
			Markers: strings.Split(srv.grid.RenderMarkers(), "\n"),
		})
	default:
		srv.badRequest(w, "format must be text or json")
	}
}

// handleMove applies dig, flag or deflag at ?x=&y= and replies with the
// text a line protocol session would get.
func (srv *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	kind := commandKind(r.PathValue("move"))
	if kind != cmdDig && kind != cmdFlag && kind != cmdDeflag {
		srv.badRequest(w, "move must be dig, flag or deflag")
		return
	}

	var p point
	if err := decodeQuery(&p, r.URL.Query()); err != nil {
		srv.badRequest(w, err.Error())
		return
	}

	commandsTotal.WithLabelValues(string(kind)).Inc()
	rep, exploded := srv.apply(command{kind: kind, x: p.X, y: p.Y})
	if exploded {
		srv.log.WithFields(logrus.Fields{
			"x": p.X, "y": p.Y, "remote": r.RemoteAddr,
		}).Info("bomb exploded over http")
	}
	srv.replyText(w, rep.text)
}

func (srv *Server) badRequest(w http.ResponseWriter, msg string) {
	http.Error(w, msg, http.StatusBadRequest)
}

func (srv *Server) replyText(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := w.Write([]byte(text + "\n")); err != nil {
		srv.log.WithError(err).Debug("failed to send text")
	}
}

func (srv *Server) replyJSON(w http.ResponseWriter, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		srv.log.WithError(err).Error("failed to marshal json")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(payload); err != nil {
		srv.log.WithError(err).Debug("failed to send json")
	}
}
