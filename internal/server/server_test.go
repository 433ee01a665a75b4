package server

import (
	"bufio"
	"context"
	"io"
	"math/rand/v2"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vancomm/multisweeper/internal/mines"
)

func quietLogger() *logrus.Logger {
	logger, _ := test.NewNullLogger()
	return logger
}

// publishedBoard is a 7x7 board with bombs at row 1 col 4 and row 6 col 0.
func publishedBoard(t *testing.T) *mines.Grid {
	t.Helper()
	m := make(mines.BombMatrix, 7)
	for y := range m {
		m[y] = make([]int, 7)
	}
	m[1][4] = 1
	m[6][0] = 1
	g, err := mines.New(7, 7, m)
	require.NoError(t, err)
	return g
}

func startServer(t *testing.T, g *mines.Grid, opts Options) (*Server, string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := New(g, opts, quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("server did not stop")
		}
	})
	return srv, ln.Addr().String()
}

type client struct {
	t    *testing.T
	conn net.Conn
	r    *bufio.Reader
}

func dial(t *testing.T, addr string) *client {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, 3*time.Second)
	require.NoError(t, err)
	require.NoError(t, conn.SetDeadline(time.Now().Add(10*time.Second)))
	t.Cleanup(func() { conn.Close() })
	return &client{t: t, conn: conn, r: bufio.NewReader(conn)}
}

func (c *client) send(line string) {
	c.t.Helper()
	_, err := io.WriteString(c.conn, line+"\n")
	require.NoError(c.t, err)
}

func (c *client) readLine() string {
	c.t.Helper()
	line, err := c.r.ReadString('\n')
	require.NoError(c.t, err)
	return strings.TrimSuffix(line, "\n")
}

func (c *client) readLines(n int) []string {
	c.t.Helper()
	out := make([]string, n)
	for i := range out {
		out[i] = c.readLine()
	}
	return out
}

func (c *client) expectClosed() {
	c.t.Helper()
	_, err := c.r.ReadString('\n')
	assert.ErrorIs(c.t, err, io.EOF)
}

func repeatLine(line string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = line
	}
	return out
}

func TestPublishedScenario(t *testing.T) {
	_, addr := startServer(t, publishedBoard(t), Options{Debug: true})
	c := dial(t, addr)

	assert.True(t, strings.HasPrefix(c.readLine(), "Welcome"))

	c.send("look")
	assert.Equal(t, repeatLine("- - - - - - -", 7), c.readLines(7))

	c.send("dig 3 1")
	want := repeatLine("- - - - - - -", 7)
	want[1] = "- - - 1 - - -"
	assert.Equal(t, want, c.readLines(7))

	c.send("dig 4 1")
	assert.Equal(t, "BOOM!", c.readLine())

	c.send("look")
	want = repeatLine("             ", 7)
	want[5] = "1 1          "
	want[6] = "- 1          "
	assert.Equal(t, want, c.readLines(7))

	c.send("bye")
	c.expectClosed()
}

func TestGreeting(t *testing.T) {
	g, err := mines.New(3, 5, mines.NoBombs{})
	require.NoError(t, err)
	srv, addr := startServer(t, g, Options{})

	first := dial(t, addr)
	assert.Equal(t,
		"Welcome to Minesweeper. Players: 1 including you. Board: 5 columns by 3 rows. Type 'help' for help.",
		first.readLine())

	second := dial(t, addr)
	assert.Contains(t, second.readLine(), "Players: 2 including you")

	first.send("bye")
	first.expectClosed()
	assert.Eventually(t, func() bool { return srv.Players() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestExplosionClosesConnection(t *testing.T) {
	srv, addr := startServer(t, publishedBoard(t), Options{})

	watcher := dial(t, addr)
	watcher.readLine()

	c := dial(t, addr)
	c.readLine()
	c.send("dig 4 1")
	assert.Equal(t, "BOOM!", c.readLine())
	c.expectClosed()

	watcher.send("look")
	board := watcher.readLines(7)
	assert.Equal(t, "- 1          ", board[6])
	assert.Eventually(t, func() bool { return srv.Players() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestInvalidInput(t *testing.T) {
	g, err := mines.New(2, 2, mines.NoBombs{})
	require.NoError(t, err)
	_, addr := startServer(t, g, Options{})
	c := dial(t, addr)
	c.readLine()

	for _, line := range []string{
		"",
		"   ",
		"dance",
		"DIG 1 1",
		"dig",
		"dig 1",
		"dig 1 2 3",
		"dig a b",
		"flag 1 x",
		"deflag 1.5 0",
		"look now",
		"help me",
		"bye bye",
	} {
		c.send(line)
		assert.Equal(t, invalidMessage, c.readLine(), "line %q", line)
	}

	c.send("look")
	assert.Equal(t, []string{"- -", "- -"}, c.readLines(2))
}

func TestHelp(t *testing.T) {
	g, err := mines.New(1, 1, mines.NoBombs{})
	require.NoError(t, err)
	_, addr := startServer(t, g, Options{})
	c := dial(t, addr)
	c.readLine()

	c.send("help")
	assert.Equal(t, helpMessage, c.readLine())
}

func TestFlagDeflagOverTCP(t *testing.T) {
	_, addr := startServer(t, publishedBoard(t), Options{})
	c := dial(t, addr)
	c.readLine()

	c.send("flag 4 1")
	assert.Equal(t, "- - - - F - -", c.readLines(7)[1])

	c.send("dig 4 1")
	assert.Equal(t, "- - - - F - -", c.readLines(7)[1], "flagged cells are not dug")

	c.send("deflag 4 1")
	assert.Equal(t, "- - - - - - -", c.readLines(7)[1])

	c.send("  look\r")
	assert.Len(t, c.readLines(7), 7)
}

func TestOutOfBoundsReturnsBoard(t *testing.T) {
	g, err := mines.New(2, 3, mines.NoBombs{})
	require.NoError(t, err)
	_, addr := startServer(t, g, Options{})
	c := dial(t, addr)
	c.readLine()

	for _, line := range []string{"dig 3 0", "dig 0 2", "flag -1 0", "deflag 0 -1", "dig 100 100"} {
		c.send(line)
		assert.Equal(t, []string{"- - -", "- - -"}, c.readLines(2), "line %q", line)
	}
}

func TestEOFEndsSession(t *testing.T) {
	g, err := mines.New(1, 1, mines.NoBombs{})
	require.NoError(t, err)
	srv, addr := startServer(t, g, Options{})

	c := dial(t, addr)
	c.readLine()
	require.Equal(t, 1, srv.Players())

	require.NoError(t, c.conn.(*net.TCPConn).CloseWrite())
	c.expectClosed()
	assert.Eventually(t, func() bool { return srv.Players() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestIdleTimeout(t *testing.T) {
	g, err := mines.New(1, 1, mines.NoBombs{})
	require.NoError(t, err)
	_, addr := startServer(t, g, Options{IdleTimeout: 100 * time.Millisecond})

	c := dial(t, addr)
	c.readLine()
	c.expectClosed()
}

func TestRateLimit(t *testing.T) {
	g, err := mines.New(1, 1, mines.NoBombs{})
	require.NoError(t, err)
	_, addr := startServer(t, g, Options{CommandRate: 5, CommandBurst: 1})

	c := dial(t, addr)
	c.readLine()

	start := time.Now()
	for range 3 {
		c.send("look")
		assert.Equal(t, "-", c.readLine())
	}
	assert.GreaterOrEqual(t, time.Since(start), 300*time.Millisecond)
}

func TestShutdownClosesSessions(t *testing.T) {
	g, err := mines.New(1, 1, mines.NoBombs{})
	require.NoError(t, err)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := New(g, Options{}, quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	c := dial(t, ln.Addr().String())
	c.readLine()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	_, err = c.r.ReadString('\n')
	assert.Error(t, err)
	assert.Equal(t, 0, srv.Players())
}

func TestListenAndServeBindFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	g, err := mines.New(1, 1, mines.NoBombs{})
	require.NoError(t, err)
	srv := New(g, Options{}, quietLogger())

	err = srv.ListenAndServe(context.Background(), ln.Addr().String())
	assert.ErrorContains(t, err, "unable to listen")
}

func TestConcurrentClients(t *testing.T) {
	const rows, cols = 6, 8

	r := rand.New(rand.NewPCG(7, 8))
	g, err := mines.New(rows, cols, mines.RandomBombs{Rand: r, Probability: 0.2})
	require.NoError(t, err)
	_, addr := startServer(t, g, Options{Debug: true})

	valid := map[string]bool{"-": true, "F": true, " ": true}
	for n := 1; n <= 8; n++ {
		valid[string(rune('0'+n))] = true
	}
	checkBoard := func(t *testing.T, board []string) {
		for _, line := range board {
			if !assert.Len(t, line, cols*2-1) {
				return
			}
			for i := 0; i < len(line); i += 2 {
				assert.True(t, valid[line[i:i+1]], "bad token %q", line[i:i+1])
				if i+1 < len(line) {
					assert.Equal(t, byte(' '), line[i+1])
				}
			}
		}
	}

	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := dial(t, addr)
			c.readLine()

			rnd := rand.New(rand.NewPCG(uint64(w), 1))
			cmds := []string{"dig", "flag", "deflag", "look"}
			for range 60 {
				cmd := cmds[rnd.IntN(len(cmds))]
				if cmd == "look" {
					c.send(cmd)
				} else {
					c.send(cmd + " " + strconv.Itoa(rnd.IntN(cols+2)-1) + " " + strconv.Itoa(rnd.IntN(rows+2)-1))
				}
				first := c.readLine()
				if first == boomMessage {
					continue
				}
				checkBoard(t, append([]string{first}, c.readLines(rows-1)...))
			}
			c.send("bye")
		}()
	}
	wg.Wait()
}
