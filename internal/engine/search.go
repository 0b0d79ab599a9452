package engine

import (
	"github.com/kestrelchess/engine/internal/board"
)

// Search constants shared by every search thread.
const (
	Infinity  = 30000
	MateScore = 29000
	MaxPly    = 128
)

// Futility margins indexed by remaining depth (1-3); FM_alpha gates the
// drop to quiescence, FM_beta gates the early beta cutoff.
var futilityMargin = [4]int{0, 50, 350, 550}

// PVTable stores the principal variation collected at each ply of one
// search thread's negamax tree.
type PVTable struct {
	length [MaxPly + 1]int
	moves  [MaxPly + 1][MaxPly + 1]board.Move
}

// update records move as the best move at ply and splices in the child
// PV collected one ply deeper.
func (pv *PVTable) update(ply int, move board.Move) {
	pv.moves[ply][ply] = move
	for j := ply + 1; j < pv.length[ply+1]; j++ {
		pv.moves[ply][j] = pv.moves[ply+1][j]
	}
	pv.length[ply] = pv.length[ply+1]
}

// Line returns the PV collected from the root (ply 0).
func (pv *PVTable) Line() []board.Move {
	line := make([]board.Move, pv.length[0])
	copy(line, pv.moves[0][:pv.length[0]])
	return line
}
