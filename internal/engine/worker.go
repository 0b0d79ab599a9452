package engine

import (
	"sync/atomic"

	"github.com/kestrelchess/engine/internal/board"
)

// WorkerResult is one iteration's findings for a lazy-SMP helper (or the
// main thread) finishing a depth. The engine does not currently build or
// collect these values.
type WorkerResult struct {
	WorkerID int
	Depth    int
	Score    int
	Move     board.Move
	PV       []board.Move
	Nodes    uint64
}

// Worker runs iterative deepening on a private position copy. Workers
// share only the transposition table; the pawn cache, move-ordering
// tables and node counters are each worker's own (see DESIGN.md).
type Worker struct {
	id        int
	pos       *board.Position
	tt        *TranspositionTable
	pawnCache *PawnCache
	orderer   *MoveOrderer
	stopFlag  *atomic.Bool

	nodes    uint64
	selDepth int
	pv       PVTable

	rootDepth         int // currentIteration, gates the extension budget
	excludedRootMoves []board.Move
}

// NewWorker creates a search thread sharing tt and stopFlag with its
// siblings, with its own pawn cache and move-ordering state.
func NewWorker(id int, tt *TranspositionTable, stopFlag *atomic.Bool) *Worker {
	return &Worker{
		id:        id,
		tt:        tt,
		pawnCache: NewPawnCache(1),
		orderer:   NewMoveOrderer(),
		stopFlag:  stopFlag,
	}
}

// ID returns the worker's thread index (0 is the main thread).
func (w *Worker) ID() int { return w.id }

// Nodes returns the number of nodes searched since the last Reset.
func (w *Worker) Nodes() uint64 { return w.nodes }

// SelDepth returns the deepest ply reached since the last Reset.
func (w *Worker) SelDepth() int { return w.selDepth }

// Reset prepares the worker for a new search: node/depth counters, the PV
// table and the killer/refutation tables are cleared; the history table,
// the position and TT are untouched.
func (w *Worker) Reset() {
	w.nodes = 0
	w.selDepth = 0
	w.pv = PVTable{}
	w.orderer.Clear()
}

// InitSearch gives the worker its own copy of the root position, so that
// lazy-SMP helpers never mutate a shared Position concurrently.
func (w *Worker) InitSearch(pos *board.Position) {
	w.pos = pos.Copy()
}

// Pos returns the worker's private position.
func (w *Worker) Pos() *board.Position { return w.pos }

// SetExcludedMoves restricts the root move loop to moves not in this
// list, used by MultiPV to search subsequent PVs.
func (w *Worker) SetExcludedMoves(moves []board.Move) {
	w.excludedRootMoves = moves
}

func (w *Worker) isExcludedRootMove(m board.Move) bool {
	for _, e := range w.excludedRootMoves {
		if e == m {
			return true
		}
	}
	return false
}

// GetPV returns the principal variation from the most recent SearchDepth.
func (w *Worker) GetPV() []board.Move {
	return w.pv.Line()
}

func (w *Worker) stopped() bool {
	return w.stopFlag.Load()
}

func (w *Worker) evaluate(alpha, beta int) int {
	return Evaluate(w.pos, alpha, beta, w.pawnCache)
}

// SearchDepth drives one iterative-deepening iteration from the root.
func (w *Worker) SearchDepth(depth, alpha, beta int) (board.Move, int) {
	w.rootDepth = depth
	w.pv.length[0] = 0

	score := w.negamax(depth, 0, alpha, beta, board.NoMove, false)

	var move board.Move
	if w.pv.length[0] > 0 {
		move = w.pv.moves[0][0]
	}
	if move == board.NoMove {
		moves := w.pos.GenerateLegalMoves()
		for i := 0; i < moves.Len(); i++ {
			if m := moves.Get(i); !w.isExcludedRootMove(m) {
				move = m
				break
			}
		}
	}
	return move, score
}

// isPawnPushTo7th reports whether m pushes a pawn to the rank one step
// from promotion.
func isPawnPushTo7th(m board.Move) bool {
	if m.Piece().Type() != board.Pawn {
		return false
	}
	if m.Piece().Color() == board.White {
		return m.To().Rank() == 6
	}
	return m.To().Rank() == 1
}

// isRecapture reports whether m recaptures on the square prevMove just
// captured on.
func isRecapture(m, prevMove board.Move) bool {
	return prevMove != board.NoMove && prevMove.IsCapture() && m.IsCapture() && m.To() == prevMove.To()
}

// negamax is the alpha-beta search. prevMove is the move that led to this
// node (NoMove at the root or right after a null move); wasNull is true
// when prevMove was a null move.
func (w *Worker) negamax(depth, ply int, alpha, beta int, prevMove board.Move, wasNull bool) int {
	if ply > MaxPly {
		return alpha
	}
	if ply > w.selDepth {
		w.selDepth = ply
	}

	w.nodes++
	if w.stopped() {
		return alpha
	}

	w.pv.length[ply] = ply

	pos := w.pos
	if ply > 0 {
		if pos.Repetitions() >= 2 || pos.HalfMoveClock >= 100 || pos.IsInsufficientMaterial() {
			return 0
		}
		if alpha >= MateScore-ply {
			return alpha
		}
	}

	ttHash := pos.Hash()
	var ttMove board.Move
	if entry, ok := w.tt.Probe(ttHash); ok {
		ttMove = entry.BestMove
		if int(entry.Depth) >= depth && ply > 0 {
			score := AdjustScoreFromTT(int(entry.Score), ply)
			switch entry.Flag {
			case TTExact:
				return score
			case TTLowerBound:
				if score >= beta {
					return score
				}
			case TTUpperBound:
				if score <= alpha {
					return score
				}
			}
		}
	}

	inCheck := pos.InCheck()

	if !inCheck && depth <= 0 {
		return w.quiescence(ply, alpha, beta, 0)
	}

	static := w.evaluate(alpha, beta)

	if !inCheck && !wasNull && depth >= 1 && depth <= 3 {
		margin := futilityMargin[depth]
		if static <= alpha-margin {
			return w.quiescence(ply, alpha, beta, 0)
		}
		if static >= beta+margin {
			return beta
		}
	}

	if !inCheck && !wasNull && depth >= 2 && pos.MatIndex[pos.SideToMove] > 0 {
		bonus := static - beta
		if bonus < 0 {
			bonus = 0
		}
		r := 3 + (depth-2)/6 + bonus/120
		undo := pos.MakeNullMove()
		score := -w.negamax(depth-1-r, ply+1, -beta, -beta+1, board.NoMove, true)
		pos.UnmakeNullMove(undo)
		if w.stopped() {
			return alpha
		}
		if score >= beta {
			return beta
		}
	}

	if ttMove == board.NoMove && depth > 4 {
		w.negamax(depth-4, ply, alpha, beta, prevMove, wasNull)
		if w.stopped() {
			return alpha
		}
		if entry, ok := w.tt.Probe(ttHash); ok {
			ttMove = entry.BestMove
		}
	}

	moves := pos.GenerateLegalMoves()
	if moves.Len() == 0 {
		if inCheck {
			return -MateScore + ply
		}
		return 0
	}
	singleReply := moves.Len() == 1

	scores := w.orderer.ScoreMoves(moves, ttMove, prevMove, ply)

	originalAlpha := alpha
	bestScore := -Infinity
	bestMove := board.NoMove
	quietMoves := 0
	cutoff := false

	for i := 0; i < moves.Len(); i++ {
		PickMove(moves, scores, i)
		move := moves.Get(i)

		if ply == 0 && w.isExcludedRootMove(move) {
			continue
		}
		if !pos.MakeMove(move) {
			continue
		}

		isQuiet := move.IsQuiet()
		if isQuiet {
			quietMoves++
		}

		extension := 0
		if ply+depth <= 2*w.rootDepth {
			switch {
			case inCheck:
				extension = 1
			case isPawnPushTo7th(move):
				extension = 1
			case isRecapture(move, prevMove):
				extension = 1
			case singleReply:
				extension = 1
			}
		}
		newDepth := depth - 1 + extension

		reduction := 0
		if isQuiet && !inCheck && !pos.InCheck() && !wasNull &&
			quietMoves >= 3 && depth >= 4 && w.orderer.successRate(move) <= 50 {
			reduction = 1 + (depth-4)/10 + (quietMoves-3)/10
		}

		var score int
		if i == 0 {
			score = -w.negamax(newDepth, ply+1, -beta, -alpha, move, false)
		} else {
			score = -w.negamax(newDepth-reduction, ply+1, -alpha-1, -alpha, move, false)
			if score > alpha && reduction > 0 {
				score = -w.negamax(newDepth, ply+1, -alpha-1, -alpha, move, false)
			}
			if score > alpha && score < beta {
				score = -w.negamax(newDepth, ply+1, -beta, -alpha, move, false)
			}
		}

		pos.UnmakeMove()

		if w.stopped() {
			return alpha
		}

		if isQuiet {
			w.orderer.UpdateHistory(move, score >= beta)
		}

		if score > bestScore {
			bestScore = score
			bestMove = move
			if score > alpha {
				alpha = score
				w.pv.update(ply, move)
			}
		}

		if score >= beta {
			if isQuiet {
				w.orderer.UpdateKillers(move, ply, score)
				w.orderer.UpdateRefutation(move, prevMove, ply)
			}
			cutoff = true
			break
		}
	}

	var flag TTFlag
	switch {
	case cutoff:
		flag = TTLowerBound
	case bestScore > originalAlpha:
		flag = TTExact
	default:
		flag = TTUpperBound
	}
	w.tt.Record(ttHash, bestMove, AdjustScoreToTT(bestScore, ply), depth, flag)

	return bestScore
}

// quiescence resolves captures, promotions and (at qply 0) checks beyond
// the main search's horizon.
func (w *Worker) quiescence(ply, alpha, beta, qply int) int {
	if ply > MaxPly {
		return alpha
	}
	if ply > w.selDepth {
		w.selDepth = ply
	}

	w.nodes++
	if w.stopped() {
		return alpha
	}
	w.pv.length[ply] = ply

	pos := w.pos
	inCheck := pos.InCheck()

	var static int
	if !inCheck {
		static = w.evaluate(alpha, beta)
		if static >= beta {
			return beta
		}
		if static > alpha {
			alpha = static
		}
	}

	ml := board.NewMoveList()
	if inCheck {
		board.GenMovesInCheck(pos, ml)
	} else {
		board.GenCapturesAndPromotions(pos, ml, alpha-static)
		if qply < 1 {
			board.AddSimpleChecks(pos, ml)
		}
	}

	if ml.Len() == 0 {
		if inCheck {
			return -MateScore + ply
		}
		return alpha
	}

	scores := w.orderer.ScoreMoves(ml, board.NoMove, board.NoMove, ply)

	legalMoves := 0
	for i := 0; i < ml.Len(); i++ {
		PickMove(ml, scores, i)
		move := ml.Get(i)

		if !inCheck && SEE(pos, move) < 0 {
			continue
		}
		if !pos.MakeMove(move) {
			continue
		}
		legalMoves++

		score := -w.quiescence(ply+1, -beta, -alpha, qply+1)
		pos.UnmakeMove()

		if w.stopped() {
			return alpha
		}

		if score > alpha {
			alpha = score
			w.pv.update(ply, move)
		}
		if score >= beta {
			return beta
		}
	}

	if inCheck && legalMoves == 0 {
		return -MateScore + ply
	}

	return alpha
}
