package uci

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/kestrelchess/engine/internal/board"
	"github.com/kestrelchess/engine/internal/engine"
)

// XBoard implements the Winboard/XBoard "protover 2" protocol.
type XBoard struct {
	engine   *engine.Engine
	position *board.Position

	forceMode bool
	analyzing bool

	searching     bool
	searchDone    chan struct{}
	stopRequested atomic.Bool

	out io.Writer
}

// NewXBoard creates an XBoard protocol handler around eng.
func NewXBoard(eng *engine.Engine) *XBoard {
	return &XBoard{
		engine:   eng,
		position: board.NewPosition(),
		out:      os.Stdout,
	}
}

func (x *XBoard) printf(format string, args ...any) {
	fmt.Fprintf(x.out, format, args...)
}

// Run reads commands from r until EOF or "quit".
func (x *XBoard) Run(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if x.RunLine(scanner.Text()) {
			return
		}
	}
}

// RunLine handles one input line; returns true once "quit" is processed.
func (x *XBoard) RunLine(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	parts := strings.Fields(line)
	cmd := parts[0]
	args := parts[1:]

	switch cmd {
	case "xboard":
		// already in xboard mode; nothing to acknowledge
	case "protover":
		x.printf("feature myname=\"Kestrel\" setboard=1 analyze=1 colors=0 usermove=0 ping=1 sigint=0 sigterm=0 done=1\n")
	case "new":
		x.forceMode = false
		x.analyzing = false
		x.engine.Clear()
		x.position = board.NewPosition()
	case "setboard":
		fen := strings.Join(args, " ")
		pos, err := board.ParseFEN(fen)
		if err != nil {
			x.printf("tellusererror illegal position: %v\n", err)
			return false
		}
		x.position = pos
	case "force":
		x.forceMode = true
	case "analyze":
		x.analyzing = true
		x.startSearch(engine.SearchLimits{Infinite: true})
	case "exit":
		x.analyzing = false
		x.stopSearch()
	case "go":
		x.forceMode = false
		x.startSearch(x.defaultLimits())
	case "undo":
		// Single-move takeback is not supported once a move has been
		// played past the root; rebuild from scratch is the caller's job.
	case "ping":
		n := ""
		if len(args) > 0 {
			n = args[0]
		}
		x.printf("pong %s\n", n)
	case "quit":
		x.stopSearch()
		return true
	default:
		x.handleMoveOrUnknown(cmd)
	}
	return false
}

// handleMoveOrUnknown treats any command that isn't recognized as a move
// in long algebraic notation, per the protocol's "usermove=0" convention.
func (x *XBoard) handleMoveOrUnknown(token string) {
	move := parseLongAlgebraic(x.position, token)
	if move == board.NoMove {
		return
	}
	if !x.position.MakeMove(move) {
		return
	}
	if !x.forceMode && !x.analyzing {
		x.startSearch(x.defaultLimits())
	}
}

func (x *XBoard) defaultLimits() engine.SearchLimits {
	return engine.SearchLimits{MoveTime: 2 * time.Second}
}

func (x *XBoard) startSearch(limits engine.SearchLimits) {
	x.stopSearch()

	x.engine.OnInfo = nil
	x.searching = true
	x.stopRequested.Store(false)
	x.searchDone = make(chan struct{})

	pos := x.position.Copy()
	analyzing := x.analyzing

	go func() {
		defer close(x.searchDone)

		results := x.engine.Search(pos, limits)
		x.searching = false
		if analyzing || len(results) == 0 {
			return
		}

		move := results[0].Move
		legal := x.position.GenerateLegalMoves()
		found := false
		for i := 0; i < legal.Len(); i++ {
			if legal.Get(i) == move {
				found = true
				break
			}
		}
		if !found {
			return
		}
		x.position.MakeMove(move)
		x.printf("move %s\n", move.String())
	}()
}

func (x *XBoard) stopSearch() {
	if x.searching {
		x.stopRequested.Store(true)
		x.engine.Stop()
		<-x.searchDone
	}
}

// parseLongAlgebraic matches a long-algebraic move string ("e2e4",
// "e7e8q") against the legal moves of pos.
func parseLongAlgebraic(pos *board.Position, s string) board.Move {
	if len(s) < 4 {
		return board.NoMove
	}
	fromFile := int(s[0] - 'a')
	fromRank := int(s[1] - '1')
	toFile := int(s[2] - 'a')
	toRank := int(s[3] - '1')
	if fromFile < 0 || fromFile > 7 || fromRank < 0 || fromRank > 7 ||
		toFile < 0 || toFile > 7 || toRank < 0 || toRank > 7 {
		return board.NoMove
	}
	from := board.NewSquare(fromFile, fromRank)
	to := board.NewSquare(toFile, toRank)

	var promo board.PieceType
	if len(s) >= 5 {
		switch s[4] {
		case 'q':
			promo = board.Queen
		case 'r':
			promo = board.Rook
		case 'b':
			promo = board.Bishop
		case 'n':
			promo = board.Knight
		}
	}

	moves := pos.GenerateLegalMoves()
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		if m.From() != from || m.To() != to {
			continue
		}
		if promo != 0 {
			if m.IsPromotion() && m.Promotion() == promo {
				return m
			}
			continue
		}
		if !m.IsPromotion() {
			return m
		}
	}
	return board.NoMove
}
