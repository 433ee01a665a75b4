package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vancomm/multisweeper/internal/config"
	"github.com/vancomm/multisweeper/internal/mines"
	"github.com/vancomm/multisweeper/internal/server"
)

var log = logrus.New()

type flags struct {
	configPath string
	debug      bool
	port       int
	size       string
	file       string
	httpAddr   string
}

func newRootCmd(runFn func(context.Context, *config.Config) error) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "minesweeper",
		Short: "Multiplayer minesweeper over a line protocol",
		Long: `minesweeper serves one shared board to any number of players.
Connect with a line client (nc, telnet) on --port, or with a websocket
client on --http at /ws.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			return runFn(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "config file path (yaml)")
	cmd.Flags().BoolVar(&f.debug, "debug", false, "keep players connected after they hit a bomb")
	cmd.Flags().IntVarP(&f.port, "port", "p", 4444, "line protocol port")
	cmd.Flags().StringVar(&f.size, "size", "", "random board size as COLUMNS,ROWS")
	cmd.Flags().StringVar(&f.file, "file", "", "board file to load instead of a random board")
	cmd.Flags().StringVar(&f.httpAddr, "http", ":8080", "websocket and http address, empty to disable")
	cmd.MarkFlagsMutuallyExclusive("size", "file")

	return cmd
}

// loadConfig reads the config file and environment, then applies the
// flags the user actually set.
func loadConfig(cmd *cobra.Command, f flags) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}

	fs := cmd.Flags()
	if fs.Changed("debug") {
		cfg.Debug = f.debug
	}
	if fs.Changed("port") {
		cfg.Port = f.port
	}
	if fs.Changed("http") {
		cfg.HTTPAddr = f.httpAddr
	}
	if fs.Changed("file") {
		cfg.Board.File = f.file
	}
	if fs.Changed("size") {
		cols, rows, err := parseSize(f.size)
		if err != nil {
			return nil, err
		}
		cfg.Board.File = ""
		cfg.Board.Columns, cfg.Board.Rows = cols, rows
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildGrid(b config.Board) (*mines.Grid, error) {
	if b.File != "" {
		return mines.LoadBoard(b.File)
	}
	return mines.New(b.Rows, b.Columns, mines.RandomBombs{Probability: b.Density})
}

func run(ctx context.Context, cfg *config.Config) error {
	if err := setupLogging(cfg); err != nil {
		return err
	}

	log.Info("starting up, mode = ", cfg.Mode)
	log.WithFields(cfg.Fields()).Debug("config")

	grid, err := buildGrid(cfg.Board)
	if err != nil {
		return fmt.Errorf("unable to build board: %w", err)
	}
	log.WithFields(logrus.Fields{
		"rows":    grid.Rows(),
		"columns": grid.Columns(),
	}).Info("board ready")

	srv := server.New(grid, server.Options{
		Debug:        cfg.Debug,
		CommandRate:  cfg.Session.CommandRate,
		CommandBurst: cfg.Session.CommandBurst,
		IdleTimeout:  cfg.Session.IdleTimeout,
	}, log)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(gCtx, cfg.Addr())
	})

	if cfg.HTTPAddr != "" {
		httpServer := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 15 * time.Second,
			BaseContext: func(net.Listener) context.Context {
				return gCtx
			},
		}
		g.Go(func() error {
			log.Infof("http ready @ %s", cfg.HTTPAddr)
			err := httpServer.ListenAndServe()
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		})
		g.Go(func() error {
			<-gCtx.Done()
			sCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			return httpServer.Shutdown(sCtx)
		})
	}

	err = g.Wait()
	log.Info("shut down")
	return err
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("unable to read .env: ", err)
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	if err := newRootCmd(run).ExecuteContext(ctx); err != nil {
		log.Fatal(err)
	}
}
