// Package config loads the evaluator's tunable weight vector from a text
// file, in the line-oriented style used throughout this repository for
// FEN, UCI and weight parsing: one bufio.Scanner pass, fields split on
// whitespace.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/kestrelchess/engine/internal/engine"
)

// featureGroups registers the named groups a weights file may set, each
// spanning a contiguous run of engine feature indices. The names and order
// here are the parsing contract; GetFeatures/InitEval in the engine package
// define what the indices mean.
var featureGroups = map[string][]int{
	"material": {
		engine.FeaturePawnCount,
		engine.FeatureKnightCount,
		engine.FeatureBishopCount,
		engine.FeatureRookCount,
		engine.FeatureQueenCount,
	},
	"psq": {
		engine.FeaturePSQMg,
		engine.FeaturePSQEg,
	},
	"pawnStructure": {
		engine.FeaturePawnPassed,
		engine.FeaturePawnDoubled,
		engine.FeaturePawnIsolated,
		engine.FeaturePawnBackwards,
	},
	"passedPawns": {
		engine.FeaturePassedBaseMg,
		engine.FeaturePassedBaseEg,
		engine.FeaturePassedConnected,
		engine.FeaturePassedProtected,
		engine.FeaturePassedFreePath,
		engine.FeaturePassedUnstoppable,
		engine.FeaturePassedKingDistanceEg,
	},
	"mobility": {
		engine.FeatureKnightMobility,
		engine.FeatureBishopMobility,
		engine.FeatureRookMobility,
		engine.FeatureQueenMobility,
	},
	"minorOutposts": {
		engine.FeatureKnightOutpost,
		engine.FeatureKnightOutpostProtected,
		engine.FeatureBishopOutpost,
	},
	"rookFiles": {
		engine.FeatureRookOpenFile,
		engine.FeatureRookSemiOpenFile,
	},
	"kingSafety": {
		engine.FeatureKingAttackKnight,
		engine.FeatureKingAttackBishop,
		engine.FeatureKingAttackRook,
		engine.FeatureKingAttackQueen,
		engine.FeatureKingAttack,
		engine.FeatureKingShieldPresent,
		engine.FeatureKingShieldMissing,
		engine.FeatureKingOpenFile,
		engine.FeatureKingSemiOpenFile,
	},
	"tropism": {
		engine.FeatureKnightTropism,
		engine.FeatureBishopTropism,
		engine.FeatureRookTropism,
		engine.FeatureQueenTropism,
	},
	"threats": {
		engine.FeatureHangingPiece,
		engine.FeatureLoosePiece,
		engine.FeatureThreatByPawn,
		engine.FeatureThreatByMinor,
	},
	"rookCoordination": {
		engine.FeatureRookOn7th,
		engine.FeatureRookOn7thWithPawns,
		engine.FeatureDoubleRooksOn7th,
		engine.FeatureConnectedRooks,
		engine.FeatureDoubledRooksOnFile,
	},
	"space": {
		engine.FeatureSpaceControlled,
		engine.FeatureSpaceBehindPawn,
	},
	"trapped": {
		engine.FeatureBadBishop,
		engine.FeatureTrappedBishop,
		engine.FeatureTrappedRook,
		engine.FeatureKnightRim,
		engine.FeatureKnightCorner,
	},
	"bishopPair": {
		engine.FeatureBishopPair,
	},
	"tempo": {
		engine.FeatureTempo,
	},
}

// Weights is a flat, NumFeatures-length parameter vector in the engine
// package's feature order, along with a parallel Frozen mask of which
// indices a companion learn_params.txt locks against tuning (none by
// default).
type Weights struct {
	Values []float64
	Frozen []bool
}

// DefaultWeights returns the zero vector with nothing frozen; InitEval
// treats an all-zero vector as "keep built-in constants" (see DESIGN.md).
func DefaultWeights() Weights {
	return Weights{
		Values: make([]float64, engine.NumFeatures),
		Frozen: make([]bool, engine.NumFeatures),
	}
}

// LoadWeights reads a weights file of the form "<name> v0 v1 ... vk" per
// line, one line per registered feature group. Unrecognized names are
// skipped; names absent from the file keep their default (zero) values.
// A missing file is not an error: the caller falls back to defaults.
func LoadWeights(path string) (Weights, error) {
	w := DefaultWeights()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return w, nil
		}
		return w, fmt.Errorf("config: open weights file: %w", err)
	}
	defer f.Close()

	if err := scanGroups(f, func(name string, vals []float64) {
		indices, ok := featureGroups[name]
		if !ok {
			return
		}
		for i, idx := range indices {
			if i < len(vals) {
				w.Values[idx] = vals[i]
			}
		}
	}); err != nil {
		return w, err
	}

	return w, nil
}

// LoadLearnParams reads a learn_params.txt of the same per-group shape,
// where a value of 0 freezes the corresponding parameter against further
// tuning. Frozen defaults to false (tunable) for any index not mentioned.
func LoadLearnParams(path string, w *Weights) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config: open learn params file: %w", err)
	}
	defer f.Close()

	return scanGroups(f, func(name string, vals []float64) {
		indices, ok := featureGroups[name]
		if !ok {
			return
		}
		for i, idx := range indices {
			if i < len(vals) {
				w.Frozen[idx] = vals[i] == 0
			}
		}
	})
}

func scanGroups(f *os.File, set func(name string, vals []float64)) error {
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		vals := make([]float64, 0, len(fields)-1)
		for _, tok := range fields[1:] {
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return fmt.Errorf("config: parse %q: %w", line, err)
			}
			vals = append(vals, v)
		}
		set(fields[0], vals)
	}
	return scanner.Err()
}

// Apply installs w into the engine's evaluator through InitEval and
// returns any error it reports; a zero vector keeps the built-in defaults.
func Apply(w Weights) error {
	return engine.InitEval(w.Values)
}
