// Package uci implements the Universal Chess Interface protocol handler;
// see also the xboard and console handlers in this package, selected by
// the Driver on the first line read from stdin.
package uci

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/kestrelchess/engine/internal/board"
	"github.com/kestrelchess/engine/internal/engine"
)

const (
	defaultHashMB = 128
	maxMultiPV    = 16
)

// UCI implements the Universal Chess Interface protocol over in/out.
type UCI struct {
	engine   *engine.Engine
	position *board.Position

	threads int
	multiPV int
	logging bool

	// Strength maps the Strength UCI option (0-100) to a node-rate cap; 0
	// means unlimited (full strength).
	strength int

	searching     bool
	searchDone    chan struct{}
	stopRequested atomic.Bool

	out io.Writer
}

// New creates a UCI protocol handler around eng.
func New(eng *engine.Engine) *UCI {
	return &UCI{
		engine:   eng,
		position: board.NewPosition(),
		threads:  eng.Threads(),
		multiPV:  1,
		out:      os.Stdout,
	}
}

func (u *UCI) printf(format string, args ...any) {
	fmt.Fprintf(u.out, format, args...)
}

// Run starts the UCI main loop, reading commands from r until EOF or quit.
func (u *UCI) Run(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if u.RunLine(scanner.Text()) {
			return
		}
	}
}

// RunLine handles a single input line; it returns true once "quit" has
// been processed, signalling the caller to stop reading.
func (u *UCI) RunLine(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	parts := strings.Fields(line)
	cmd := parts[0]
	args := parts[1:]

	switch cmd {
	case "":
		return false
	case "uci":
		u.handleUCI()
	case "isready":
		u.printf("readyok\n")
	case "ucinewgame":
		u.handleNewGame()
	case "position":
		u.handlePosition(args)
	case "go":
		u.handleGo(args)
	case "stop":
		u.handleStop()
	case "quit":
		u.handleQuit()
		return true
	case "setoption":
		u.handleSetOption(args)
	case "d":
		u.printf("%s\n", u.position.String())
	case "perft":
		u.handlePerft(args)
	}
	return false
}

func (u *UCI) handleUCI() {
	u.printf("id name Kestrel\n")
	u.printf("id author the Kestrel engine contributors\n")
	u.printf("\n")
	u.printf("option name Hash type spin default %d min 1 max 4096\n", defaultHashMB)
	u.printf("option name Threads type spin default %d min 1 max %d\n", u.threads, engine.MaxThreads)
	u.printf("option name MultiPV type spin default 1 min 1 max %d\n", maxMultiPV)
	u.printf("option name Strength type spin default 100 min 0 max 100\n")
	u.printf("option name Log type check default false\n")
	u.printf("uciok\n")
}

func (u *UCI) handleNewGame() {
	u.engine.Clear()
	u.position = board.NewPosition()
}

// handlePosition parses "position [startpos|fen <fen>] [moves <m>...]".
// Moves are replayed with Position.MakeMove so the position's own history
// (used for repetition detection) is built up naturally, rather than
// tracked as a separate parallel hash list.
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}

	var moveStart int
	switch args[0] {
	case "startpos":
		u.position = board.NewPosition()
		moveStart = 1
	case "fen":
		fenEnd := len(args)
		for i, arg := range args[1:] {
			if arg == "moves" {
				fenEnd = i + 1
				break
			}
		}
		fenStr := strings.Join(args[1:fenEnd], " ")
		pos, err := board.ParseFEN(fenStr)
		if err != nil {
			u.printf("info string invalid fen: %v\n", err)
			return
		}
		u.position = pos
		moveStart = fenEnd + 1
	default:
		return
	}

	for i, arg := range args {
		if arg == "moves" {
			moveStart = i + 1
			break
		}
	}

	if moveStart >= len(args) {
		return
	}
	for _, moveStr := range args[moveStart:] {
		move := u.parseMove(moveStr)
		if move == board.NoMove {
			u.printf("info string invalid move: %s\n", moveStr)
			return
		}
		if !u.position.MakeMove(move) {
			u.printf("info string illegal move: %s\n", moveStr)
			return
		}
	}
}

// parseMove converts a long-algebraic UCI move string ("e2e4", "e7e8q")
// into the matching legal move in the current position.
func (u *UCI) parseMove(moveStr string) board.Move {
	if len(moveStr) < 4 {
		return board.NoMove
	}

	fromFile := int(moveStr[0] - 'a')
	fromRank := int(moveStr[1] - '1')
	toFile := int(moveStr[2] - 'a')
	toRank := int(moveStr[3] - '1')
	if fromFile < 0 || fromFile > 7 || fromRank < 0 || fromRank > 7 ||
		toFile < 0 || toFile > 7 || toRank < 0 || toRank > 7 {
		return board.NoMove
	}

	from := board.NewSquare(fromFile, fromRank)
	to := board.NewSquare(toFile, toRank)

	var promo board.PieceType
	if len(moveStr) >= 5 {
		switch moveStr[4] {
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

	moves := u.position.GenerateLegalMoves()
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

// handleGo parses "go" options, starts the search asynchronously and
// prints "bestmove" once it completes.
func (u *UCI) handleGo(args []string) {
	limits := u.parseGoLimits(args)
	limits.MultiPV = u.multiPV
	limits.MaxKnps = strengthToKnps(u.strength)

	u.engine.OnInfo = func(info engine.SearchInfo) {
		u.sendInfo(info)
	}

	u.searching = true
	u.stopRequested.Store(false)
	u.searchDone = make(chan struct{})

	pos := u.position.Copy()
	origin := u.position.Copy()

	go func() {
		defer close(u.searchDone)

		results := u.engine.Search(pos, limits)
		u.searching = false

		var best board.Move
		if len(results) > 0 {
			best = results[0].Move
		}

		legal := origin.GenerateLegalMoves()
		found := best == board.NoMove
		for i := 0; i < legal.Len() && !found; i++ {
			found = legal.Get(i) == best
		}
		if found && best != board.NoMove {
			u.printf("bestmove %s\n", best.String())
			return
		}
		if legal.Len() > 0 {
			u.printf("bestmove %s\n", legal.Get(0).String())
		} else {
			u.printf("bestmove 0000\n")
		}
	}()
}

// parseGoLimits parses "go" command arguments into engine.SearchLimits.
func (u *UCI) parseGoLimits(args []string) engine.SearchLimits {
	var limits engine.SearchLimits

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "depth":
			if i+1 < len(args) {
				limits.Depth, _ = strconv.Atoi(args[i+1])
				i++
			}
		case "nodes":
			if i+1 < len(args) {
				limits.Nodes, _ = strconv.ParseUint(args[i+1], 10, 64)
				i++
			}
		case "movetime":
			if i+1 < len(args) {
				ms, _ := strconv.Atoi(args[i+1])
				limits.MoveTime = time.Duration(ms) * time.Millisecond
				i++
			}
		case "infinite":
			limits.Infinite = true
		case "wtime":
			if i+1 < len(args) {
				ms, _ := strconv.Atoi(args[i+1])
				limits.WTime = time.Duration(ms) * time.Millisecond
				i++
			}
		case "btime":
			if i+1 < len(args) {
				ms, _ := strconv.Atoi(args[i+1])
				limits.BTime = time.Duration(ms) * time.Millisecond
				i++
			}
		case "winc":
			if i+1 < len(args) {
				ms, _ := strconv.Atoi(args[i+1])
				limits.WInc = time.Duration(ms) * time.Millisecond
				i++
			}
		case "binc":
			if i+1 < len(args) {
				ms, _ := strconv.Atoi(args[i+1])
				limits.BInc = time.Duration(ms) * time.Millisecond
				i++
			}
		case "movestogo":
			if i+1 < len(args) {
				limits.MovesToGo, _ = strconv.Atoi(args[i+1])
				i++
			}
		}
	}
	return limits
}

// strengthToKnps maps the Strength option (0-100) onto a thousand-nodes-
// per-second cap; 100 (and the 0 sentinel meaning "not configured") means
// unlimited.
func strengthToKnps(strength int) int {
	if strength <= 0 || strength >= 100 {
		return 0
	}
	const maxKnps = 2000
	knps := strength * maxKnps / 100
	if knps < 1 {
		knps = 1
	}
	return knps
}

// sendInfo prints one "info" line for a completed (depth, PV) pair.
func (u *UCI) sendInfo(info engine.SearchInfo) {
	var b strings.Builder
	fmt.Fprintf(&b, "info depth %d seldepth %d multipv %d", info.Depth, info.SelDepth, max(1, info.MultiPV))

	switch {
	case info.Score > engine.MateScore-engine.MaxPly:
		fmt.Fprintf(&b, " score mate %d", (engine.MateScore-info.Score+1)/2)
	case info.Score < -engine.MateScore+engine.MaxPly:
		fmt.Fprintf(&b, " score mate %d", -(engine.MateScore+info.Score+1)/2)
	default:
		fmt.Fprintf(&b, " score cp %d", info.Score)
	}

	fmt.Fprintf(&b, " nodes %d time %d", info.Nodes, info.Time.Milliseconds())
	if info.Time > 0 {
		fmt.Fprintf(&b, " nps %d", uint64(float64(info.Nodes)/info.Time.Seconds()))
	}
	if info.HashFull > 0 {
		fmt.Fprintf(&b, " hashfull %d", info.HashFull)
	}

	if len(info.PV) > 0 {
		// Re-validate against a scratch copy: a PV collected mid-search may
		// run past a position the root has since moved beyond.
		testPos := u.position.Copy()
		var pvStrs []string
		for _, move := range info.PV {
			legal := testPos.GenerateLegalMoves()
			ok := false
			for i := 0; i < legal.Len(); i++ {
				if legal.Get(i) == move {
					ok = true
					break
				}
			}
			if !ok {
				break
			}
			pvStrs = append(pvStrs, move.String())
			testPos.MakeMove(move)
		}
		if len(pvStrs) > 0 {
			fmt.Fprintf(&b, " pv %s", strings.Join(pvStrs, " "))
		}
	}

	u.printf("%s\n", b.String())
}

func (u *UCI) handleStop() {
	if u.searching {
		u.stopRequested.Store(true)
		u.engine.Stop()
		<-u.searchDone
	}
}

func (u *UCI) handleQuit() {
	u.handleStop()
}

// handleSetOption processes "setoption name <name> value <value>".
func (u *UCI) handleSetOption(args []string) {
	var name, value string
	readingName, readingValue := false, false

	for _, arg := range args {
		switch arg {
		case "name":
			readingName, readingValue = true, false
		case "value":
			readingName, readingValue = false, true
		default:
			if readingName {
				if name != "" {
					name += " "
				}
				name += arg
			} else if readingValue {
				if value != "" {
					value += " "
				}
				value += arg
			}
		}
	}

	switch strings.ToLower(name) {
	case "hash":
		if mb, err := strconv.Atoi(value); err == nil && mb >= 1 {
			u.engine.Resize(mb)
		}
	case "threads":
		if n, err := strconv.Atoi(value); err == nil && n >= 1 {
			u.threads = n
			u.engine.SetThreads(n)
		}
	case "multipv":
		if n, err := strconv.Atoi(value); err == nil && n >= 1 && n <= maxMultiPV {
			u.multiPV = n
		}
	case "strength":
		if n, err := strconv.Atoi(value); err == nil && n >= 0 && n <= 100 {
			u.strength = n
		}
	case "log":
		u.logging = strings.ToLower(value) == "true"
	}
}

// handlePerft runs a perft node count from the current position.
func (u *UCI) handlePerft(args []string) {
	depth := 5
	if len(args) > 0 {
		depth, _ = strconv.Atoi(args[0])
	}

	start := time.Now()
	nodes := u.engine.Perft(u.position, depth)
	elapsed := time.Since(start)

	u.printf("Nodes: %d\n", nodes)
	u.printf("Time: %v\n", elapsed)
	if elapsed > 0 {
		u.printf("NPS: %.0f\n", float64(nodes)/elapsed.Seconds())
	}
}
