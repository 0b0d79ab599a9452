package engine

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kestrelchess/engine/internal/board"
)

// MaxThreads bounds the lazy-SMP worker pool.
const MaxThreads = 16

// SearchInfo is reported to Engine.OnInfo once per completed (depth, PV)
// pair, mirroring the data a UCI "info" line needs.
type SearchInfo struct {
	MultiPV  int
	Depth    int
	SelDepth int
	Score    int
	Nodes    uint64
	Time     time.Duration
	HashFull int
	PV       []board.Move
}

// SearchResult is one principal variation's outcome.
type SearchResult struct {
	Move  board.Move
	Score int
	Depth int
	PV    []board.Move
}

// Engine owns the transposition table and the pool of search threads. One
// Engine searches one position at a time; concurrent searches must use
// separate Engines (each with its own TT).
type Engine struct {
	tt      *TranspositionTable
	workers []*Worker

	stopFlag atomic.Bool

	// OnInfo, if set, is called from the searching goroutine every time a
	// (depth, PV) pair completes. Implementations must not block.
	OnInfo func(SearchInfo)
}

// NewEngine creates an engine with a ttSizeMB transposition table and one
// worker per available CPU, capped at MaxThreads.
func NewEngine(ttSizeMB int) *Engine {
	e := &Engine{tt: NewTranspositionTable(ttSizeMB)}
	e.SetThreads(runtime.GOMAXPROCS(0))
	return e
}

// SetThreads rebuilds the worker pool with n threads (n clamped to
// [1, MaxThreads]). Any in-flight search must be stopped first.
func (e *Engine) SetThreads(n int) {
	if n < 1 {
		n = 1
	}
	if n > MaxThreads {
		n = MaxThreads
	}
	e.workers = make([]*Worker, n)
	for i := range e.workers {
		e.workers[i] = NewWorker(i, e.tt, &e.stopFlag)
	}
}

// Threads reports the current worker-pool size.
func (e *Engine) Threads() int { return len(e.workers) }

// Resize replaces the transposition table with one of the given size.
// Any in-flight search must be stopped first.
func (e *Engine) Resize(ttSizeMB int) {
	e.tt = NewTranspositionTable(ttSizeMB)
	for _, w := range e.workers {
		w.tt = e.tt
	}
}

// Clear resets the transposition table and every worker's move-ordering
// state, as "ucinewgame" requires.
func (e *Engine) Clear() {
	e.tt.Clear()
	for _, w := range e.workers {
		w.orderer.Clear()
	}
}

// Stop requests that any in-progress search unwind as soon as possible.
func (e *Engine) Stop() {
	e.stopFlag.Store(true)
}

// HashFull reports the transposition table's permille occupancy.
func (e *Engine) HashFull() int { return e.tt.HashFull() }

func (e *Engine) totalNodes() uint64 {
	var total uint64
	for _, w := range e.workers {
		total += w.Nodes()
	}
	return total
}

// Search runs iterative deepening to the limits given and returns the best
// line(s) found; results[0] is the primary PV. It blocks until one of the
// stopping conditions in §4.6.1 is met or Stop is called.
func (e *Engine) Search(pos *board.Position, limits SearchLimits) []SearchResult {
	e.stopFlag.Store(false)
	e.tt.NewSearch()

	for _, w := range e.workers {
		w.Reset()
		w.InitSearch(pos)
	}

	tm := NewTimeManager(limits, pos.SideToMove)

	var stopTimer *time.Timer
	if hard := tm.Hard(); hard > 0 {
		stopTimer = time.AfterFunc(hard, func() { e.stopFlag.Store(true) })
		defer stopTimer.Stop()
	}

	maxDepth := MaxPly
	if limits.Depth > 0 && limits.Depth < maxDepth {
		maxDepth = limits.Depth
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	for i := 1; i < len(e.workers); i++ {
		w := e.workers[i]
		g.Go(func() error {
			e.helperLoop(ctx, w, maxDepth)
			return nil
		})
	}

	results := e.mainLoop(e.workers[0], pos, limits, maxDepth, tm)

	e.stopFlag.Store(true)
	cancel()
	g.Wait()

	return results
}

// helperLoop runs lazy-SMP iterative deepening for a non-root thread: no
// aspiration bookkeeping, no info output, just independent search sharing
// the transposition table, starting one ply deeper per worker id.
func (e *Engine) helperLoop(ctx context.Context, w *Worker, maxDepth int) {
	for depth := 1 + w.id; depth <= maxDepth; depth++ {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if e.stopFlag.Load() {
			return
		}
		w.SearchDepth(depth, -Infinity, Infinity)
	}
}

// mainLoop drives the root thread's iterative deepening: aspiration
// windows per §4.6.2/4.6.1, MultiPV root-move exclusion, info reporting
// and the iteration-level stop conditions.
func (e *Engine) mainLoop(w *Worker, pos *board.Position, limits SearchLimits, maxDepth int, tm *TimeManager) []SearchResult {
	start := time.Now()

	multiPV := limits.MultiPV
	if multiPV < 1 {
		multiPV = 1
	}
	rootMoves := pos.GenerateLegalMoves()
	if rootMoves.Len() < multiPV {
		multiPV = rootMoves.Len()
	}
	if multiPV < 1 {
		return nil
	}

	if rootMoves.Len() == 1 {
		move := rootMoves.Get(0)
		pv := []board.Move{move}
		score := Evaluate(pos, -Infinity, Infinity, NewPawnCache(1))
		if e.OnInfo != nil {
			e.OnInfo(SearchInfo{
				MultiPV:  1,
				Depth:    1,
				SelDepth: 1,
				Score:    score,
				Nodes:    e.totalNodes(),
				Time:     time.Since(start),
				HashFull: e.tt.HashFull(),
				PV:       pv,
			})
		}
		return []SearchResult{{Move: move, Score: score, Depth: 1, PV: pv}}
	}

	prevScore := make([]int, multiPV)
	haveScore := make([]bool, multiPV)

	var results []SearchResult

	for depth := 1; depth <= maxDepth; depth++ {
		if depth > 1 {
			if e.stopFlag.Load() || tm.SoftExceeded() {
				break
			}
			if limits.Nodes > 0 && e.totalNodes() >= limits.Nodes {
				break
			}
		}

		var depthResults []SearchResult
		var excluded []board.Move

		for pvIdx := 0; pvIdx < multiPV; pvIdx++ {
			w.SetExcludedMoves(excluded)

			alpha, beta := -Infinity, Infinity
			const aspirationWindow = 100
			if depth >= 5 && haveScore[pvIdx] {
				alpha = prevScore[pvIdx] - aspirationWindow/2
				beta = prevScore[pvIdx] + aspirationWindow/2
			}

			var move board.Move
			var score int
			for {
				move, score = w.SearchDepth(depth, alpha, beta)
				if e.stopFlag.Load() {
					break
				}
				if score <= alpha || score >= beta {
					alpha, beta = -Infinity, Infinity
					continue
				}
				break
			}

			if e.stopFlag.Load() {
				break
			}
			if move == board.NoMove {
				break
			}

			prevScore[pvIdx] = score
			haveScore[pvIdx] = true
			excluded = append(excluded, move)

			pv := w.GetPV()
			res := SearchResult{Move: move, Score: score, Depth: depth, PV: pv}
			depthResults = append(depthResults, res)

			if e.OnInfo != nil {
				e.OnInfo(SearchInfo{
					MultiPV:  pvIdx + 1,
					Depth:    depth,
					SelDepth: w.SelDepth(),
					Score:    score,
					Nodes:    e.totalNodes(),
					Time:     time.Since(start),
					HashFull: e.tt.HashFull(),
					PV:       pv,
				})
			}
		}

		if e.stopFlag.Load() || len(depthResults) == 0 {
			break
		}
		results = depthResults

		if abs(results[0].Score) >= MateScore-depth {
			break
		}

		if limits.MaxKnps > 0 {
			elapsed := time.Since(start)
			wantElapsed := time.Duration(e.totalNodes()) * time.Second / time.Duration(limits.MaxKnps*1000)
			if wantElapsed > elapsed {
				time.Sleep(wantElapsed - elapsed)
			}
		}
	}

	return results
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Evaluate returns the static evaluation of pos from the side to move's
// perspective, using a scratch pawn cache.
func (e *Engine) Evaluate(pos *board.Position) int {
	pc := NewPawnCache(1)
	return Evaluate(pos, -Infinity, Infinity, pc)
}

// Perft counts leaf nodes reachable in depth plies, for move-generator
// validation.
func (e *Engine) Perft(pos *board.Position, depth int) uint64 {
	if depth == 0 {
		return 1
	}
	moves := pos.GenerateLegalMoves()
	var nodes uint64
	for i := 0; i < moves.Len(); i++ {
		move := moves.Get(i)
		if !pos.MakeMove(move) {
			continue
		}
		nodes += e.Perft(pos, depth-1)
		pos.UnmakeMove()
	}
	return nodes
}
