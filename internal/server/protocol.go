package server

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type commandKind string

const (
	cmdLook    commandKind = "look"
	cmdDig     commandKind = "dig"
	cmdFlag    commandKind = "flag"
	cmdDeflag  commandKind = "deflag"
	cmdHelp    commandKind = "help"
	cmdBye     commandKind = "bye"
	cmdInvalid commandKind = "invalid"
)

const (
	boomMessage    = "BOOM!"
	helpMessage    = "Commands: look | dig X Y | flag X Y | deflag X Y | help | bye. X is the column and Y the row, counted from 0."
	invalidMessage = "invalid input. Type 'help' for help."
)

func greetingMessage(players, rows, cols int) string {
	return fmt.Sprintf(
		"Welcome to Minesweeper. Players: %d including you. Board: %d columns by %d rows. Type 'help' for help.",
		players, cols, rows,
	)
}

var errInvalidCommand = errors.New("invalid command")

// command is one parsed request line. X is the column and Y the row.
type command struct {
	kind commandKind
	x, y int
}

func parseCommand(line string) (command, error) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return command{kind: cmdInvalid}, fmt.Errorf("%w: empty line", errInvalidCommand)
	}

	kind, args := commandKind(tokens[0]), tokens[1:]
	switch kind {
	case cmdLook, cmdHelp, cmdBye:
		if len(args) != 0 {
			return command{kind: cmdInvalid}, fmt.Errorf("%w: %s takes no arguments", errInvalidCommand, kind)
		}
		return command{kind: kind}, nil
	case cmdDig, cmdFlag, cmdDeflag:
		x, y, err := parseXY(args)
		if err != nil {
			return command{kind: cmdInvalid}, fmt.Errorf("%w: %s: %w", errInvalidCommand, kind, err)
		}
		return command{kind: kind, x: x, y: y}, nil
	default:
		return command{kind: cmdInvalid}, fmt.Errorf("%w: unknown command %q", errInvalidCommand, tokens[0])
	}
}

func parseXY(args []string) (x int, y int, err error) {
	if len(args) != 2 {
		err = fmt.Errorf("want 2 arguments, got %d", len(args))
		return
	}
	if x, err = strconv.Atoi(args[0]); err != nil {
		err = fmt.Errorf("first argument must be an int")
		return
	}
	if y, err = strconv.Atoi(args[1]); err != nil {
		err = fmt.Errorf("second argument must be an int")
		return
	}
	return
}
