package engine

import (
	"github.com/kestrelchess/engine/internal/board"
)

// Move ordering priorities, matching the source's SORT_* constants.
const (
	SortHash       = 6000000
	SortCapture    = 5000000
	SortMateKiller = 4000000
	SortKiller     = 3000000
	SortRefutation = 2000000
	SortOther      = 0
)

// MoveOrderer scores and remembers the move-ordering state for one search
// thread: killers, mate-killers, refutations and the [to][piece] history
// success-rate table. Owned per-Worker, not shared across threads.
type MoveOrderer struct {
	killers     [MaxPly + 1]board.Move
	mateKillers [MaxPly + 1]board.Move
	refutations [MaxPly + 1][64][12]board.Move

	histTry     [64][12]int
	histSuccess [64][12]int
}

// NewMoveOrderer creates a new move orderer.
func NewMoveOrderer() *MoveOrderer {
	return &MoveOrderer{}
}

// Clear resets killers, mate-killers and refutations for a new search,
// matching the source's per-search memset of m_killers/m_refutations. The
// history table is not cleared here; it ages itself in UpdateHistory.
func (mo *MoveOrderer) Clear() {
	for i := range mo.killers {
		mo.killers[i] = board.NoMove
		mo.mateKillers[i] = board.NoMove
		for sq := range mo.refutations[i] {
			for p := range mo.refutations[i][sq] {
				mo.refutations[i][sq][p] = board.NoMove
			}
		}
	}
}

// ScoreMoves assigns ordering scores to every move in the list.
func (mo *MoveOrderer) ScoreMoves(moves *board.MoveList, ttMove, lastMove board.Move, ply int) []int {
	scores := make([]int, moves.Len())

	var killerMove, mateKillerMove, refutationMove board.Move
	if ply <= MaxPly {
		killerMove = mo.killers[ply]
		mateKillerMove = mo.mateKillers[ply]
		if lastMove != board.NoMove {
			refutationMove = mo.refutations[ply][lastMove.To()][lastMove.Piece()]
		}
	}

	for i := 0; i < moves.Len(); i++ {
		scores[i] = mo.scoreMove(moves.Get(i), ttMove, killerMove, mateKillerMove, refutationMove)
	}
	return scores
}

// scoreMove returns the sort score for a single move, per §4.6.3.
func (mo *MoveOrderer) scoreMove(m, ttMove, killerMove, mateKillerMove, refutationMove board.Move) int {
	switch {
	case m == ttMove:
		return SortHash
	case m.IsCapture() || m.IsPromotion():
		moverValue := int(m.Piece().Type())
		capturedValue := 0
		if m.IsCapture() {
			capturedValue = int(m.Captured().Type())
		}
		promotionValue := 0
		if m.IsPromotion() {
			promotionValue = int(m.Promotion())
		}
		return SortCapture + 6*(capturedValue+promotionValue) - moverValue
	case m == mateKillerMove:
		return SortMateKiller
	case m == killerMove:
		return SortKiller
	case m == refutationMove:
		return SortRefutation
	default:
		return SortOther + mo.successRate(m)
	}
}

// successRate returns 100*histSuccess/histTry for a quiet move, or 0 if it
// has never been tried, matching the source's SuccessRate helper.
func (mo *MoveOrderer) successRate(m board.Move) int {
	to := m.To()
	piece := m.Piece()
	try := mo.histTry[to][piece]
	if try == 0 {
		return 0
	}
	return 100 * mo.histSuccess[to][piece] / try
}

// SortMoves sorts moves by their scores (descending).
func SortMoves(moves *board.MoveList, scores []int) {
	n := moves.Len()
	for i := 0; i < n-1; i++ {
		best := i
		for j := i + 1; j < n; j++ {
			if scores[j] > scores[best] {
				best = j
			}
		}
		if best != i {
			moves.Swap(i, best)
			scores[i], scores[best] = scores[best], scores[i]
		}
	}
}

// PickMove selects the best remaining move and moves it to position index,
// for lazy incremental sorting of the move loop.
func PickMove(moves *board.MoveList, scores []int, index int) {
	best := index
	for j := index + 1; j < moves.Len(); j++ {
		if scores[j] > scores[best] {
			best = j
		}
	}
	if best != index {
		moves.Swap(index, best)
		scores[index], scores[best] = scores[best], scores[index]
	}
}

// UpdateKillers records a quiet beta-cutoff move as this ply's killer, or
// mate-killer if it produced a mate score.
func (mo *MoveOrderer) UpdateKillers(m board.Move, ply int, score int) {
	if ply > MaxPly {
		return
	}
	if score > MateScore-MaxPly {
		mo.mateKillers[ply] = m
		return
	}
	mo.killers[ply] = m
}

// UpdateRefutation records a quiet beta-cutoff move as the refutation of
// whatever move immediately preceded it.
func (mo *MoveOrderer) UpdateRefutation(m, lastMove board.Move, ply int) {
	if ply > MaxPly || lastMove == board.NoMove {
		return
	}
	mo.refutations[ply][lastMove.To()][lastMove.Piece()] = m
}

// UpdateHistory records a trial of a quiet move, incrementing histTry
// always and histSuccess only when it caused the cutoff, matching the
// source's try/success counters that successRate divides.
func (mo *MoveOrderer) UpdateHistory(m board.Move, isGood bool) {
	to := m.To()
	piece := m.Piece()
	mo.histTry[to][piece]++
	if isGood {
		mo.histSuccess[to][piece]++
	}
	if mo.histTry[to][piece] > 1<<20 {
		mo.histTry[to][piece] /= 2
		mo.histSuccess[to][piece] /= 2
	}
}
