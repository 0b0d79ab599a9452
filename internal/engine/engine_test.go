package engine

import (
	"testing"
	"time"

	"github.com/kestrelchess/engine/internal/board"
)

func TestSearchBasic(t *testing.T) {
	pos := board.NewPosition()
	eng := NewEngine(16)

	results := eng.Search(pos, SearchLimits{Depth: 6, MoveTime: 2 * time.Second})
	if len(results) == 0 || results[0].Move == board.NoMove {
		t.Fatal("search returned no move for the starting position")
	}
	t.Logf("best move: %s (score %d)", results[0].Move.String(), results[0].Score)
}

func TestMultiPV(t *testing.T) {
	pos := board.NewPosition()
	eng := NewEngine(16)

	results := eng.Search(pos, SearchLimits{Depth: 5, MoveTime: 3 * time.Second, MultiPV: 3})
	if len(results) < 2 {
		t.Fatalf("expected at least 2 PVs, got %d", len(results))
	}
	if results[0].Move == results[1].Move {
		t.Errorf("first two PVs share the same move: %s", results[0].Move.String())
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("PV %d scores higher than PV %d (%d > %d)", i+1, i, results[i].Score, results[i-1].Score)
		}
	}
}

// TestConcurrentSearchRace stresses the lazy-SMP worker pool across several
// positions; run with -race to catch shared-state bugs in the TT.
func TestConcurrentSearchRace(t *testing.T) {
	eng := NewEngine(16)

	iterations := 10
	if testing.Short() {
		iterations = 3
	}

	pos := board.NewPosition()
	for i := 0; i < iterations; i++ {
		results := eng.Search(pos, SearchLimits{Depth: 6, MoveTime: 300 * time.Millisecond})
		if len(results) == 0 || results[0].Move == board.NoMove {
			t.Errorf("iteration %d: search returned no move", i)
		}

		var fen string
		if i%2 == 0 {
			fen = "rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq e6 0 2"
		} else {
			fen = "rnbqkbnr/ppp1pppp/8/3p4/3P4/8/PPP1PPPP/RNBQKBNR w KQkq d6 0 2"
		}
		var err error
		pos, err = board.ParseFEN(fen)
		if err != nil {
			t.Fatalf("iteration %d: parse fen: %v", i, err)
		}
	}
}

func TestConcurrentSearchMultiplePositions(t *testing.T) {
	eng := NewEngine(16)

	positions := []string{
		board.StartFEN,
		"r1bqkbnr/pppp1ppp/2n5/4p3/2B1P3/5N2/PPPP1PPP/RNBQK2R b KQkq - 3 3",
		"8/8/8/4k3/8/4K3/4P3/8 w - - 0 1",
	}

	for i, fen := range positions {
		pos, err := board.ParseFEN(fen)
		if err != nil {
			t.Fatalf("position %d: parse fen: %v", i, err)
		}

		results := eng.Search(pos, SearchLimits{Depth: 5, MoveTime: 300 * time.Millisecond})
		if len(results) == 0 || results[0].Move == board.NoMove {
			if !pos.InCheck() || pos.GenerateLegalMoves().Len() > 0 {
				t.Errorf("position %d: search returned no move", i)
			}
			continue
		}
		t.Logf("position %d: best move = %s", i, results[0].Move.String())
	}
}

func TestPerft(t *testing.T) {
	eng := NewEngine(16)
	pos := board.NewPosition()

	want := []uint64{1, 20, 400, 8902, 197281}
	for depth, w := range want {
		got := eng.Perft(pos, depth)
		if got != w {
			t.Errorf("perft(%d) = %d, want %d", depth, got, w)
		}
	}
}

func TestEvaluateStartPosition(t *testing.T) {
	eng := NewEngine(16)
	pos := board.NewPosition()

	score := eng.Evaluate(pos)
	if score < -50 || score > 50 {
		t.Errorf("starting position evaluated as %d, expected near 0", score)
	}
}
