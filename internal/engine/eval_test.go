package engine

import (
	"testing"

	"github.com/kestrelchess/engine/internal/board"
)

// TestDotProductMatchesEvaluate checks that DotProduct(GetFeatures(pos), ...)
// reproduces Evaluate's own white-perspective score exactly, for positions
// where the post-hoc draw/fifty-move scalings are no-ops (White to move,
// both sides still have pawns, half-move clock at zero).
func TestDotProductMatchesEvaluate(t *testing.T) {
	positions := []string{
		board.StartFEN,
		"r1bqkbnr/pppp1ppp/2n5/4p3/2B1P3/5N2/PPPP1PPP/RNBQK2R w KQkq - 0 4",
		"rnbqkb1r/pp3ppp/4pn2/2pp4/3P4/2N1PN2/PPP2PPP/R1BQKB1R w KQkq - 0 6",
	}

	for _, fen := range positions {
		pos, err := board.ParseFEN(fen)
		if err != nil {
			t.Fatalf("parse fen %q: %v", fen, err)
		}
		if pos.SideToMove != board.White {
			t.Fatalf("fixture %q must have White to move", fen)
		}

		features := make([]float64, NumFeatures)
		GetFeatures(pos, features)

		got := DotProduct(features, pos.Stage())
		want := Evaluate(pos, -Infinity, Infinity, nil)

		if got != want {
			t.Errorf("fen %q: DotProduct(GetFeatures(pos)) = %d, Evaluate(pos) = %d", fen, got, want)
		}
	}
}

// TestTempoFavorsSideToMove guards against the tempo bonus leaking White's
// way regardless of whose move it is. The starting position is perfectly
// symmetric (zero material/PSQT imbalance), so FastEval should return
// exactly +tempoBonus from either side's perspective: whoever is to move
// gets the bonus. Before the fix, tempo was added before the side-to-move
// negation, so Black-to-move would have come back at -tempoBonus instead.
func TestTempoFavorsSideToMove(t *testing.T) {
	whiteToMove := board.NewPosition()
	blackToMove, err := board.ParseFEN("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR b KQkq - 0 1")
	if err != nil {
		t.Fatalf("parse fen: %v", err)
	}

	tempo := weights[FeatureTempo].Mg

	if got := FastEval(whiteToMove); got != tempo {
		t.Errorf("FastEval(white to move, start position) = %d, want %d", got, tempo)
	}
	if got := FastEval(blackToMove); got != tempo {
		t.Errorf("FastEval(black to move, start position) = %d, want %d", got, tempo)
	}
}
