package uci

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/kestrelchess/engine/internal/board"
	"github.com/kestrelchess/engine/internal/engine"
)

// Console is an interactive REPL accepting short-algebraic moves and a
// handful of commands (new, fen, go, perft, eval, quit), for a human
// driving the engine directly rather than through a GUI.
type Console struct {
	engine   *engine.Engine
	position *board.Position
	out      io.Writer
}

// NewConsole creates a console-mode handler around eng.
func NewConsole(eng *engine.Engine) *Console {
	return &Console{
		engine:   eng,
		position: board.NewPosition(),
		out:      os.Stdout,
	}
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

// Run reads commands from r until EOF or "quit".
func (c *Console) Run(r io.Reader) {
	scanner := bufio.NewScanner(r)
	c.prompt()
	for scanner.Scan() {
		if c.RunLine(scanner.Text()) {
			return
		}
		c.prompt()
	}
}

func (c *Console) prompt() {
	c.printf("> ")
}

// RunLine handles one input line; returns true once "quit" is processed.
func (c *Console) RunLine(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	fields := strings.Fields(line)
	cmd := fields[0]
	args := fields[1:]

	switch cmd {
	case "quit", "exit":
		return true
	case "new":
		c.engine.Clear()
		c.position = board.NewPosition()
		c.printf("%s\n", c.position.String())
	case "fen":
		fen := strings.Join(args, " ")
		pos, err := board.ParseFEN(fen)
		if err != nil {
			c.printf("invalid fen: %v\n", err)
			return false
		}
		c.position = pos
		c.printf("%s\n", c.position.String())
	case "d", "show":
		c.printf("%s\n", c.position.String())
	case "perft":
		depth := 5
		if len(args) > 0 {
			fmt.Sscanf(args[0], "%d", &depth)
		}
		start := time.Now()
		nodes := c.engine.Perft(c.position, depth)
		c.printf("nodes: %d (%v)\n", nodes, time.Since(start))
	case "eval":
		c.printf("evaluation: %d\n", c.engine.Evaluate(c.position))
	case "go":
		c.search()
	default:
		c.tryMove(line)
	}
	return false
}

// tryMove parses moveStr as short or long algebraic against the legal
// moves of the current position and plays it if found.
func (c *Console) tryMove(moveStr string) {
	move := parseLongAlgebraic(c.position, moveStr)
	if move == board.NoMove {
		move, _ = board.ParseSAN(moveStr, c.position)
	}
	if move == board.NoMove {
		c.printf("unrecognized command or illegal move: %s\n", moveStr)
		return
	}
	if !c.position.MakeMove(move) {
		c.printf("illegal move: %s\n", moveStr)
		return
	}
	c.printf("%s\n", move.String())
	c.search()
}

func (c *Console) search() {
	results := c.engine.Search(c.position, engine.SearchLimits{MoveTime: 2 * time.Second})
	if len(results) == 0 || results[0].Move == board.NoMove {
		c.printf("no legal moves\n")
		return
	}
	move := results[0].Move
	if !c.position.MakeMove(move) {
		c.printf("no legal moves\n")
		return
	}
	c.printf("kestrel plays: %s (score %d)\n", move.String(), results[0].Score)
}

