// Package engine implements the chess AI search engine.
package engine

import (
	"fmt"
	"math"

	"github.com/kestrelchess/engine/internal/board"
)

// Evaluation constants
const (
	PawnValue   = 100
	KnightValue = 320
	BishopValue = 330
	RookValue   = 500
	QueenValue  = 900
	KingValue   = 20000
)

// pieceValues is board.PieceValue, the single source of truth for
// material values shared with the rest of the board package.
var pieceValues = board.PieceValue

// Passed pawn bonuses by rank (from pawn's perspective)
// Index 1 = rank 2, Index 6 = rank 7 (about to promote)
var passedPawnBonus = [8]int{0, 10, 20, 40, 70, 120, 200, 0}

const (
	passedPawnConnectedBonus = 20 // Connected passed pawns
	passedPawnProtectedBonus = 15 // Protected by own pawn
	passedPawnFreePathBonus  = 30 // No blockers in front
)

// Mobility weights per piece type
var mobilityMgWeight = [6]int{0, 4, 5, 2, 1, 0} // Pawn, Knight, Bishop, Rook, Queen, King
var mobilityEgWeight = [6]int{0, 3, 4, 4, 2, 0}

// King safety weights per attacker type
var attackerWeight = [6]int{0, 20, 20, 40, 80, 0} // Pawn, Knight, Bishop, Rook, Queen, King

const (
	pawnShieldBonus      = 10  // Bonus per pawn in front of king
	pawnShieldMissing    = -15 // Penalty per missing shield pawn
	openFileNearKing     = -20 // Penalty for open file near king
	semiOpenFileNearKing = -10 // Penalty for semi-open file
)

// Bishop pair bonus (having two bishops)
const (
	bishopPairMgBonus = 25
	bishopPairEgBonus = 50
)

// Rook on open/semi-open file bonuses
const (
	rookOpenFileMg     = 20
	rookOpenFileEg     = 25
	rookSemiOpenFileMg = 10
	rookSemiOpenFileEg = 15
)

// Pawn structure penalties
const (
	doubledPawnMgPenalty  = -15
	doubledPawnEgPenalty  = -20
	isolatedPawnMgPenalty = -20
	isolatedPawnEgPenalty = -25
	backwardPawnMgPenalty = -15
	backwardPawnEgPenalty = -10
)

// Outpost bonuses
const (
	knightOutpostMg          = 25
	knightOutpostEg          = 15
	knightOutpostProtectedMg = 15
	knightOutpostProtectedEg = 10
	bishopOutpostMg          = 15
	bishopOutpostEg          = 10
)

// Tempo bonus - small advantage for having the move
const tempoBonus = 10

// Threat evaluation constants
const (
	hangingPiecePenalty = -40 // Undefended piece attacked by enemy
	threatByPawnBonus   = 25  // Attacking enemy piece with pawn
	threatByMinorBonus  = 20  // Attacking enemy major with minor
	loosePiecePenalty   = -10 // Undefended piece (potential target)
)

// King tropism weights per piece type (bonus for proximity to enemy king)
var tropismWeight = [6]int{0, 3, 2, 2, 5, 0} // Pawn, Knight, Bishop, Rook, Queen, King

// Passed pawn king distance bonus table
var kingDistanceBonus = [8]int{0, 0, 10, 20, 30, 40, 50, 60}

const passedPawnUnstoppableBonus = 200 // Pawn cannot be caught by enemy king

// Piece coordination constants
const (
	// Rooks on 7th rank
	rookOn7thMg          = 30
	rookOn7thEg          = 40
	rookOn7thWithPawnsMg = 15 // Extra bonus if enemy has pawns on 2nd rank
	rookOn7thWithPawnsEg = 20
	doubleRooksOn7thMg   = 50 // Both rooks on 7th (pig rooks)
	doubleRooksOn7thEg   = 60

	// Connected rooks (defending each other)
	connectedRooksMg = 10
	connectedRooksEg = 15

	// Doubled rooks on file
	doubledRooksOnFileMg = 20
	doubledRooksOnFileEg = 25
)

// Space evaluation constants
const (
	spaceSquareBonus     = 2 // Per safe square in space zone controlled
	spaceBehindPawnBonus = 3 // Extra bonus if behind our pawn chain
	spaceMinPieces       = 3 // Minimum pieces to apply space evaluation
)

// Space zones for each side (central files, ranks 2-5 for white, 4-7 for black)
var (
	whiteSpaceZone = (board.FileC | board.FileD | board.FileE | board.FileF) &
		(board.Rank2 | board.Rank3 | board.Rank4 | board.Rank5)
	blackSpaceZone = (board.FileC | board.FileD | board.FileE | board.FileF) &
		(board.Rank4 | board.Rank5 | board.Rank6 | board.Rank7)
)

// Trapped piece penalties
const (
	// Bad bishop penalty (per blocking pawn on same color)
	badBishopPenaltyMg = -5
	badBishopPenaltyEg = -10

	// Trapped bishop (on a6/h6/a3/h3 corners)
	trappedBishopPenaltyMg = -80
	trappedBishopPenaltyEg = -50

	// Trapped rook (in corner by own king, no castling rights)
	trappedRookPenaltyMg = -50
	trappedRookPenaltyEg = -25

	// Knight on rim penalties
	knightRimPenaltyMg    = -15 // On rim with 3 or fewer moves
	knightRimPenaltyEg    = -10
	knightCornerPenaltyMg = -30 // On corner squares
	knightCornerPenaltyEg = -20
)

// Rim and corner masks for knights
var (
	rimSquares    = board.FileA | board.FileH | board.Rank1 | board.Rank8
	cornerSquares = board.SquareBB(board.A1) | board.SquareBB(board.H1) |
		board.SquareBB(board.A8) | board.SquareBB(board.H8)
)

func init() {
	resetWeights()
}

// wpair holds a feature's middlegame/endgame coefficient, the unit DotProduct
// tapers by board.Position.Stage the same way Evaluate tapers its own score.
type wpair struct {
	Mg, Eg int
}

// weights is the mutable coefficient table every evaluation term below
// reads instead of its own named constant. resetWeights seeds it from those
// constants, so a fresh process evaluates identically to before InitEval
// wired this table up; InitEval is what lets a loaded weights file actually
// change Evaluate's output.
var weights [NumFeatures]wpair

func resetWeights() {
	weights = [NumFeatures]wpair{
		// Material counts are informational only: Position.Score already
		// folds material (board.PieceValue) into its piece-square running
		// sum (see FeaturePSQMg
		// / FeaturePSQEg below), so these carry zero weight to avoid
		// double-counting it.
		FeaturePawnCount:   {0, 0},
		FeatureKnightCount: {0, 0},
		FeatureBishopCount: {0, 0},
		FeatureRookCount:   {0, 0},
		FeatureQueenCount:  {0, 0},

		FeaturePSQMg: {1, 0},
		FeaturePSQEg: {0, 1},

		FeaturePawnPassed:    {0, 0},
		FeaturePawnDoubled:   {doubledPawnMgPenalty, doubledPawnEgPenalty},
		FeaturePawnIsolated:  {isolatedPawnMgPenalty, isolatedPawnEgPenalty},
		FeaturePawnBackwards: {backwardPawnMgPenalty, backwardPawnEgPenalty},

		FeaturePassedBaseMg:         {1, 0},
		FeaturePassedBaseEg:         {0, 1},
		FeaturePassedConnected:      {passedPawnConnectedBonus, passedPawnConnectedBonus * 3 / 2},
		FeaturePassedProtected:      {passedPawnProtectedBonus, passedPawnProtectedBonus * 3 / 2},
		FeaturePassedFreePath:       {passedPawnFreePathBonus, passedPawnFreePathBonus * 3 / 2},
		FeaturePassedUnstoppable:    {0, passedPawnUnstoppableBonus},
		FeaturePassedKingDistanceEg: {0, 1},

		FeatureKnightMobility: {mobilityMgWeight[board.Knight], mobilityEgWeight[board.Knight]},
		FeatureBishopMobility: {mobilityMgWeight[board.Bishop], mobilityEgWeight[board.Bishop]},
		FeatureRookMobility:   {mobilityMgWeight[board.Rook], mobilityEgWeight[board.Rook]},
		FeatureQueenMobility:  {mobilityMgWeight[board.Queen], mobilityEgWeight[board.Queen]},

		FeatureBishopPair: {bishopPairMgBonus, bishopPairEgBonus},

		FeatureRookOpenFile:     {rookOpenFileMg, rookOpenFileEg},
		FeatureRookSemiOpenFile: {rookSemiOpenFileMg, rookSemiOpenFileEg},

		// Per-piece-type attacker weights feed evaluateKingSafety's own
		// attacker-count scaling; FeatureKingAttack is the scaled result,
		// a frozen passthrough (the count scaling is not itself linear).
		FeatureKingAttackKnight: {attackerWeight[board.Knight], 0},
		FeatureKingAttackBishop: {attackerWeight[board.Bishop], 0},
		FeatureKingAttackRook:   {attackerWeight[board.Rook], 0},
		FeatureKingAttackQueen:  {attackerWeight[board.Queen], 0},
		FeatureKingAttack:       {1, 0},
		FeatureKingShieldPresent: {pawnShieldBonus, 0},
		FeatureKingShieldMissing: {pawnShieldMissing, 0},
		FeatureKingOpenFile:      {openFileNearKing, 0},
		FeatureKingSemiOpenFile:  {semiOpenFileNearKing, 0},

		FeatureKnightOutpost:          {knightOutpostMg, knightOutpostEg},
		FeatureKnightOutpostProtected: {knightOutpostProtectedMg, knightOutpostProtectedEg},
		FeatureBishopOutpost:          {bishopOutpostMg, bishopOutpostEg},

		FeatureKnightTropism: {tropismWeight[board.Knight], 0},
		FeatureBishopTropism: {tropismWeight[board.Bishop], 0},
		FeatureRookTropism:   {tropismWeight[board.Rook], 0},
		FeatureQueenTropism:  {tropismWeight[board.Queen], 0},

		FeatureHangingPiece: {hangingPiecePenalty, hangingPiecePenalty * 3 / 2},
		FeatureLoosePiece:   {loosePiecePenalty, 0},
		FeatureThreatByPawn: {threatByPawnBonus, threatByPawnBonus},
		FeatureThreatByMinor: {threatByMinorBonus, threatByMinorBonus},

		FeatureRookOn7th:          {rookOn7thMg, rookOn7thEg},
		FeatureRookOn7thWithPawns: {rookOn7thWithPawnsMg, rookOn7thWithPawnsEg},
		FeatureDoubleRooksOn7th:   {doubleRooksOn7thMg, doubleRooksOn7thEg},
		FeatureConnectedRooks:     {connectedRooksMg, connectedRooksEg},
		FeatureDoubledRooksOnFile: {doubledRooksOnFileMg, doubledRooksOnFileEg},

		FeatureSpaceControlled: {spaceSquareBonus, 0},
		FeatureSpaceBehindPawn: {spaceBehindPawnBonus, 0},

		FeatureBadBishop:     {badBishopPenaltyMg, badBishopPenaltyEg},
		FeatureTrappedBishop: {trappedBishopPenaltyMg, trappedBishopPenaltyEg},
		FeatureTrappedRook:   {trappedRookPenaltyMg, trappedRookPenaltyEg},
		FeatureKnightRim:     {knightRimPenaltyMg, knightRimPenaltyEg},
		FeatureKnightCorner:  {knightCornerPenaltyMg, knightCornerPenaltyEg},

		FeatureTempo: {tempoBonus, tempoBonus},
	}
}

// LazyMargin bounds the gap FastEval is trusted to resolve without a full
// evaluation: if the fast score already lies LazyMargin outside [alpha,beta]
// the full eval can't plausibly change which bound applies.
const LazyMargin = 200

// FastEval returns a cheap static evaluation built from the incremental
// material plus piece-square running sum maintained on Position (see
// board.Position.Score / board.Position.Stage) and the tempo bonus for
// the side to move. It never looks at pawn
// structure, mobility, king safety or any of the other EvalSide terms,
// which makes it safe to call on every node as a lazy first look.
func FastEval(pos *board.Position) int {
	score := pos.Score[board.White].Sub(pos.Score[board.Black])
	stage := pos.Stage()
	e := (score.Mid*stage.Mid + score.End*stage.End) / 64

	tempo := weights[FeatureTempo].Mg
	if pos.SideToMove == board.Black {
		tempo = -tempo
	}
	e += tempo

	if pos.SideToMove == board.Black {
		return -e
	}
	return e
}

// Evaluate returns the static evaluation of the position from the side to
// move's perspective. It first consults FastEval; only when the fast score
// falls within LazyMargin of the [alpha,beta] window does it pay for the
// full feature pass (passed pawns, mobility, king safety, pawn structure,
// outposts, threats, space, trapped pieces, piece coordination, tropism),
// folded through DotProduct against the tunable weight table.
func Evaluate(pos *board.Position, alpha, beta int, pc *PawnCache) int {
	fast := FastEval(pos)
	if fast-LazyMargin >= beta {
		return beta
	}
	if fast+LazyMargin <= alpha {
		return alpha
	}

	features := make([]float64, NumFeatures)
	computeFeatures(pos, features, pc)

	e := DotProduct(features, pos.Stage())

	e = applyMaterialDrawScaling(pos, e)
	e = applyFiftyMoveScaling(pos, e)

	if pos.SideToMove == board.Black {
		return -e
	}
	return e
}

// DotProduct folds a GetFeatures vector through the current weight table,
// tapering each feature's mid/endgame coefficient by stage the same way
// Evaluate itself tapers. Evaluate is implemented in terms of this function,
// so DotProduct(features, pos.Stage()) reproduces Evaluate's pre-lazy,
// pre-scaling output exactly for the same position.
func DotProduct(features []float64, stage board.Pair) int {
	var mg, eg float64
	for i, f := range features {
		if f == 0 {
			continue
		}
		mg += f * float64(weights[i].Mg)
		eg += f * float64(weights[i].Eg)
	}
	return (int(mg)*stage.Mid + int(eg)*stage.End) / 64
}

// lookupPawnStruct returns the cached PawnStruct for pos's pawn hash,
// recomputing and storing it on a miss. A nil cache always recomputes.
func lookupPawnStruct(pos *board.Position, pc *PawnCache) PawnStruct {
	pawnHash := pos.PawnHash()
	if pc != nil {
		if entry, ok := pc.Probe(pawnHash); ok {
			return entry.Struct
		}
	}

	ps := ReadPawnStruct(pos, pawnHash)
	if pc != nil {
		pc.Store(pawnHash, ps, 0, 0)
	}
	return ps
}

// applyMaterialDrawScaling clamps the score to 0 when the side with the
// advantage has no pawns and too little material to force a win.
func applyMaterialDrawScaling(pos *board.Position, e int) int {
	leader := board.White
	if e < 0 {
		leader = board.Black
	}
	if pos.Pieces[leader][board.Pawn] == 0 && pos.MatIndex[leader] < 5 {
		return 0
	}
	return e
}

// applyFiftyMoveScaling scales the score toward a draw as the half-move
// clock approaches the fifty-move limit.
func applyFiftyMoveScaling(pos *board.Position, e int) int {
	fifty := pos.HalfMoveClock
	if fifty > 100 {
		return 0
	}
	return e * (100 - fifty) / 100
}

// EvaluateMaterial returns just the material balance (for quick evaluation).
func EvaluateMaterial(pos *board.Position) int {
	score := 0
	for pt := board.Pawn; pt < board.King; pt++ {
		score += pos.Pieces[board.White][pt].PopCount() * pieceValues[pt]
		score -= pos.Pieces[board.Black][pt].PopCount() * pieceValues[pt]
	}
	if pos.SideToMove == board.Black {
		return -score
	}
	return score
}

// IsEndgame returns true if the position is in the endgame phase.
func IsEndgame(pos *board.Position) bool {
	whiteQueens := pos.Pieces[board.White][board.Queen].PopCount()
	blackQueens := pos.Pieces[board.Black][board.Queen].PopCount()

	if whiteQueens == 0 && blackQueens == 0 {
		return true
	}

	whitePieces := pos.Pieces[board.White][board.Knight].PopCount() +
		pos.Pieces[board.White][board.Bishop].PopCount() +
		pos.Pieces[board.White][board.Rook].PopCount()
	blackPieces := pos.Pieces[board.Black][board.Knight].PopCount() +
		pos.Pieces[board.Black][board.Bishop].PopCount() +
		pos.Pieces[board.Black][board.Rook].PopCount()

	return whiteQueens+blackQueens <= 1 && whitePieces+blackPieces <= 4
}

// evaluatePassedPawns accumulates the passed-pawn feature terms, using the
// Passed bitboard already classified in ps by ReadPawnStruct.
func evaluatePassedPawns(pos *board.Position, ps *PawnStruct, features []float64) {
	for color := board.White; color <= board.Black; color++ {
		sign := 1.0
		if color == board.Black {
			sign = -1.0
		}

		pawns := pos.Pieces[color][board.Pawn] & ps.Passed
		friendlyPawns := pos.Pieces[color][board.Pawn]
		enemy := color.Other()

		// Get king positions for distance calculations
		friendlyKingSq := pos.KingSquare[color]
		enemyKingSq := pos.KingSquare[enemy]

		for pawns != 0 {
			sq := pawns.PopLSB()

			// Get relative rank (0-7 from pawn's perspective)
			relRank := sq.RelativeRank(color)
			file := sq.File()

			// Base bonus by rank, passed through as-is (the table's shape
			// isn't linear in rank, so it's a frozen per-pawn feature).
			base := passedPawnBonus[relRank]
			features[FeaturePassedBaseMg] += sign * float64(base)
			features[FeaturePassedBaseEg] += sign * float64(base*3/2)

			// --- King Distance Evaluation (endgame) ---
			var promoSq board.Square
			if color == board.White {
				promoSq = board.NewSquare(file, 7)
			} else {
				promoSq = board.NewSquare(file, 0)
			}

			friendlyKingDist := friendlyKingSq.Distance(sq)
			kdExtra := kingDistanceBonus[7-minInt(friendlyKingDist, 7)]

			enemyKingDistToPromo := enemyKingSq.Distance(promoSq)
			kdExtra += kingDistanceBonus[minInt(enemyKingDistToPromo, 7)]

			features[FeaturePassedKingDistanceEg] += sign * float64(kdExtra)

			// Check if protected by own pawn
			pawnAttackers := board.PawnAttacks(sq, color.Other()) & friendlyPawns
			if pawnAttackers != 0 {
				features[FeaturePassedProtected] += sign
			}

			// Check for connected passed pawns (adjacent file)
			var adjacentFiles board.Bitboard
			if file > 0 {
				adjacentFiles |= board.FileMask[file-1]
			}
			if file < 7 {
				adjacentFiles |= board.FileMask[file+1]
			}
			connectedPawns := friendlyPawns & adjacentFiles & ps.Passed
			if connectedPawns != 0 {
				features[FeaturePassedConnected] += sign
			}

			// Check if path is free (no pieces blocking)
			var frontSquares board.Bitboard
			if color == board.White {
				frontSquares = board.SquareBB(sq).NorthFill() &^ board.SquareBB(sq)
			} else {
				frontSquares = board.SquareBB(sq).SouthFill() &^ board.SquareBB(sq)
			}
			frontSquares &= board.FileMask[file] // Only check same file
			pathClear := (frontSquares & pos.AllOccupied) == 0
			if pathClear {
				features[FeaturePassedFreePath] += sign
			}

			// --- Unstoppable Passed Pawn Detection ---
			if pathClear && relRank >= 4 { // Only check advanced pawns
				squaresToPromo := 7 - relRank
				enemyKingDistToPawn := enemyKingSq.Distance(sq)

				tempo := 0
				if pos.SideToMove == color {
					tempo = 1
				}

				if enemyKingDistToPawn > squaresToPromo+1-tempo {
					features[FeaturePassedUnstoppable] += sign
				}
			}
		}
	}
}

// evaluateMobility accumulates mobility counts per piece type.
func evaluateMobility(pos *board.Position, features []float64) {
	occupied := pos.AllOccupied

	for color := board.White; color <= board.Black; color++ {
		sign := 1.0
		if color == board.Black {
			sign = -1.0
		}

		// Calculate squares attacked by enemy pawns (unsafe squares)
		enemyPawns := pos.Pieces[color.Other()][board.Pawn]
		var unsafeSquares board.Bitboard
		if color == board.White {
			unsafeSquares = enemyPawns.SouthEast() | enemyPawns.SouthWest()
		} else {
			unsafeSquares = enemyPawns.NorthEast() | enemyPawns.NorthWest()
		}

		ownPieces := pos.Occupied[color]
		blockedSquares := unsafeSquares | ownPieces

		knights := pos.Pieces[color][board.Knight]
		for knights != 0 {
			sq := knights.PopLSB()
			count := (board.KnightAttacks(sq) &^ blockedSquares).PopCount()
			features[FeatureKnightMobility] += sign * float64(count)
		}

		bishops := pos.Pieces[color][board.Bishop]
		for bishops != 0 {
			sq := bishops.PopLSB()
			count := (board.BishopAttacks(sq, occupied) &^ blockedSquares).PopCount()
			features[FeatureBishopMobility] += sign * float64(count)
		}

		rooks := pos.Pieces[color][board.Rook]
		for rooks != 0 {
			sq := rooks.PopLSB()
			count := (board.RookAttacks(sq, occupied) &^ blockedSquares).PopCount()
			features[FeatureRookMobility] += sign * float64(count)
		}

		queens := pos.Pieces[color][board.Queen]
		for queens != 0 {
			sq := queens.PopLSB()
			count := (board.QueenAttacks(sq, occupied) &^ blockedSquares).PopCount()
			features[FeatureQueenMobility] += sign * float64(count)
		}
	}
}

// evaluateKingSafety accumulates king safety terms. The attacker-count
// scaling below is not linear in the per-piece-type attacker counts, so the
// scaled result is written to the single frozen FeatureKingAttack passthrough
// rather than exposed as four independently summable features; the four
// FeatureKingAttack{Knight,Bishop,Rook,Queen} weights still feed the scaling
// itself, so a loaded weights file can retune how dangerous each attacker is.
func evaluateKingSafety(pos *board.Position, features []float64) {
	occupied := pos.AllOccupied

	for color := board.White; color <= board.Black; color++ {
		sign := 1.0
		if color == board.Black {
			sign = -1.0
		}

		kingSq := pos.KingSquare[color]
		kingFile := kingSq.File()

		// Define king zone (3x3 area around king, extended forward)
		kingZone := board.KingAttacks(kingSq) | board.SquareBB(kingSq)
		if color == board.White {
			kingZone |= kingZone.North()
		} else {
			kingZone |= kingZone.South()
		}

		enemy := color.Other()

		attackerCount := 0
		attackWeight := 0

		enemyKnights := pos.Pieces[enemy][board.Knight]
		for temp := enemyKnights; temp != 0; {
			sq := temp.PopLSB()
			if board.KnightAttacks(sq)&kingZone != 0 {
				attackerCount++
				attackWeight += weights[FeatureKingAttackKnight].Mg
			}
		}

		enemyBishops := pos.Pieces[enemy][board.Bishop]
		for temp := enemyBishops; temp != 0; {
			sq := temp.PopLSB()
			if board.BishopAttacks(sq, occupied)&kingZone != 0 {
				attackerCount++
				attackWeight += weights[FeatureKingAttackBishop].Mg
			}
		}

		enemyRooks := pos.Pieces[enemy][board.Rook]
		for temp := enemyRooks; temp != 0; {
			sq := temp.PopLSB()
			if board.RookAttacks(sq, occupied)&kingZone != 0 {
				attackerCount++
				attackWeight += weights[FeatureKingAttackRook].Mg
			}
		}

		enemyQueens := pos.Pieces[enemy][board.Queen]
		for temp := enemyQueens; temp != 0; {
			sq := temp.PopLSB()
			if board.QueenAttacks(sq, occupied)&kingZone != 0 {
				attackerCount++
				attackWeight += weights[FeatureKingAttackQueen].Mg
			}
		}

		// Scale attack weight by number of attackers (more attackers = exponentially worse)
		if attackerCount >= 2 {
			attackWeight = attackWeight * attackerCount / 2
		}
		features[FeatureKingAttack] -= sign * float64(attackWeight)

		// Pawn shield evaluation
		ownPawns := pos.Pieces[color][board.Pawn]
		enemyFilePawns := pos.Pieces[enemy][board.Pawn]

		for f := kingFile - 1; f <= kingFile+1; f++ {
			if f < 0 || f > 7 {
				continue
			}

			filePawns := ownPawns & board.FileMask[f]
			enemyOnFile := enemyFilePawns & board.FileMask[f]

			var shieldRank int
			if color == board.White {
				shieldRank = 1 // Rank 2
			} else {
				shieldRank = 6 // Rank 7
			}

			shieldMask := board.FileMask[f] & board.RankMask[shieldRank]
			if ownPawns&shieldMask != 0 {
				features[FeatureKingShieldPresent] += sign
			} else if filePawns == 0 {
				features[FeatureKingShieldMissing] += sign
			}

			if filePawns == 0 && enemyOnFile == 0 {
				features[FeatureKingOpenFile] += sign
			} else if filePawns == 0 {
				features[FeatureKingSemiOpenFile] += sign
			}
		}
	}
}

// SEE (Static Exchange Evaluation) estimates the result of a capture sequence.
// Returns the estimated material gain/loss from the perspective of the moving side.
// This is a proper implementation that simulates the entire capture sequence.
func SEE(pos *board.Position, m board.Move) int {
	from := m.From()
	to := m.To()
	attacker := m.Piece()

	var capturedValue int
	if m.IsEnPassant() {
		capturedValue = PawnValue
	} else if m.IsCapture() {
		capturedValue = pieceValues[m.Captured().Type()]
	} else {
		return 0 // Not a capture
	}

	if m.IsPromotion() {
		capturedValue += pieceValues[m.Promotion()] - PawnValue
	}

	// Use the swap algorithm for SEE
	// This simulates captures alternating between sides
	return seeSwap(pos, to, from, attacker, capturedValue)
}

// seeSwap performs the SEE swap algorithm.
// It simulates alternating captures on the target square.
func seeSwap(pos *board.Position, target, excludeFrom board.Square, firstAttacker board.Piece, initialGain int) int {
	// Gain array for the swap algorithm
	var gain [32]int
	d := 0 // Depth in swap sequence

	// Start with initial capture gain
	gain[d] = initialGain

	// Occupied bitboard, excluding the initial attacker
	occupied := pos.AllOccupied &^ board.SquareBB(excludeFrom)

	// Current attacker info
	attackerValue := pieceValues[firstAttacker.Type()]
	side := firstAttacker.Color().Other() // Next side to capture

	// Find all attackers and simulate capture sequence
	for {
		d++

		// Gain at this depth is the attacker value minus what opponent gains after
		gain[d] = attackerValue - gain[d-1]

		// If we're clearly winning, we can stop (opponent won't recapture)
		if max(-gain[d-1], gain[d]) < 0 {
			break
		}

		// Find least valuable attacker for this side
		attackerSq, attackerPiece := getLeastValuableAttacker(pos, target, side, occupied)
		if attackerSq == board.NoSquare {
			break // No more attackers
		}

		// Remove attacker from occupied
		occupied &^= board.SquareBB(attackerSq)

		// Update attacker value and switch sides
		attackerValue = pieceValues[attackerPiece.Type()]
		side = side.Other()

		// Check for x-ray attackers revealed
		// (handled implicitly by getLeastValuableAttacker using updated occupied)
	}

	// Negamax the gain array to get final result
	for d--; d > 0; d-- {
		gain[d-1] = -max(-gain[d-1], gain[d])
	}

	return gain[0]
}

// getLeastValuableAttacker finds the least valuable piece attacking a square.
// Returns NoSquare if no attacker found.
func getLeastValuableAttacker(pos *board.Position, target board.Square, side board.Color, occupied board.Bitboard) (board.Square, board.Piece) {
	// Check attackers in order of value (pawn first, king last)

	// Pawns
	pawns := pos.Pieces[side][board.Pawn]
	pawnAttacks := board.PawnAttacks(target, side.Other()) // Squares that attack target
	attackers := pawns & pawnAttacks & occupied
	if attackers != 0 {
		sq := attackers.LSB()
		return sq, board.NewPiece(board.Pawn, side)
	}

	// Knights
	knights := pos.Pieces[side][board.Knight]
	knightAttacks := board.KnightAttacks(target)
	attackers = knights & knightAttacks & occupied
	if attackers != 0 {
		sq := attackers.LSB()
		return sq, board.NewPiece(board.Knight, side)
	}

	// Bishops (and diagonal queen attacks)
	bishops := pos.Pieces[side][board.Bishop]
	bishopAttacks := board.BishopAttacks(target, occupied)
	attackers = bishops & bishopAttacks & occupied
	if attackers != 0 {
		sq := attackers.LSB()
		return sq, board.NewPiece(board.Bishop, side)
	}

	// Rooks (and straight queen attacks)
	rooks := pos.Pieces[side][board.Rook]
	rookAttacks := board.RookAttacks(target, occupied)
	attackers = rooks & rookAttacks & occupied
	if attackers != 0 {
		sq := attackers.LSB()
		return sq, board.NewPiece(board.Rook, side)
	}

	// Queens (check both diagonal and straight)
	queens := pos.Pieces[side][board.Queen]
	attackers = queens & (bishopAttacks | rookAttacks) & occupied
	if attackers != 0 {
		sq := attackers.LSB()
		return sq, board.NewPiece(board.Queen, side)
	}

	// King (only if no other attackers, king captures last)
	kingBB := pos.Pieces[side][board.King]
	kingAttacks := board.KingAttacks(target)
	attackers = kingBB & kingAttacks & occupied
	if attackers != 0 {
		sq := attackers.LSB()
		return sq, board.NewPiece(board.King, side)
	}

	return board.NoSquare, board.NoPiece
}

// max returns the maximum of two integers.
func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// evaluateBishopPair accumulates the bishop-pair feature.
func evaluateBishopPair(pos *board.Position, features []float64) {
	for color := board.White; color <= board.Black; color++ {
		sign := 1.0
		if color == board.Black {
			sign = -1.0
		}

		if pos.Pieces[color][board.Bishop].PopCount() >= 2 {
			features[FeatureBishopPair] += sign
		}
	}
}

// fileHasPawn reports whether color has a pawn on the given 1..8 indexed
// file, reading ps.Ranks against that color's empty-file sentinel.
func fileHasPawn(ps *PawnStruct, color board.Color, file int) bool {
	if color == board.White {
		return ps.Ranks[board.White][file] != 0
	}
	return ps.Ranks[board.Black][file] != 7
}

// evaluateRooksOnFiles accumulates open/semi-open file counts for rooks,
// read off the frontmost-rank table rather than rescanning pawn bitboards.
func evaluateRooksOnFiles(pos *board.Position, ps *PawnStruct, features []float64) {
	for color := board.White; color <= board.Black; color++ {
		sign := 1.0
		if color == board.Black {
			sign = -1.0
		}
		enemy := color.Other()

		rooks := pos.Pieces[color][board.Rook]
		for rooks != 0 {
			sq := rooks.PopLSB()
			file := sq.File() + 1

			if !fileHasPawn(ps, color, file) {
				if !fileHasPawn(ps, enemy, file) {
					features[FeatureRookOpenFile] += sign
				} else {
					features[FeatureRookSemiOpenFile] += sign
				}
			}
		}
	}
}

// evaluatePawnStructure accumulates doubled/isolated/backwards counts
// directly from a precomputed PawnStruct's classification bitboards.
func evaluatePawnStructure(pos *board.Position, ps *PawnStruct, features []float64) {
	for color := board.White; color <= board.Black; color++ {
		sign := 1.0
		if color == board.Black {
			sign = -1.0
		}
		pawns := pos.Pieces[color][board.Pawn]

		features[FeaturePawnDoubled] += sign * float64((pawns & ps.Doubled).PopCount())
		features[FeaturePawnIsolated] += sign * float64((pawns & ps.Isolated).PopCount())
		features[FeaturePawnBackwards] += sign * float64((pawns & ps.Backwards).PopCount())
	}
}

// evaluateOutposts accumulates knight and bishop outpost counts, using
// ps.SafeFromPawnAttack in place of a fresh attacker/potential-attacker scan.
func evaluateOutposts(pos *board.Position, ps *PawnStruct, features []float64) {
	for color := board.White; color <= board.Black; color++ {
		sign := 1.0
		if color == board.Black {
			sign = -1.0
		}

		ownPawns := pos.Pieces[color][board.Pawn]

		var outpostRanks board.Bitboard
		if color == board.White {
			outpostRanks = board.RankMask[3] | board.RankMask[4] | board.RankMask[5] // Ranks 4, 5, 6
		} else {
			outpostRanks = board.RankMask[2] | board.RankMask[3] | board.RankMask[4] // Ranks 3, 4, 5
		}
		safe := ps.SafeFromPawnAttack[color] & outpostRanks

		knights := pos.Pieces[color][board.Knight] & safe
		for knights != 0 {
			sq := knights.PopLSB()
			features[FeatureKnightOutpost] += sign

			if board.PawnAttacks(sq, color.Other())&ownPawns != 0 {
				features[FeatureKnightOutpostProtected] += sign
			}
		}

		bishops := pos.Pieces[color][board.Bishop] & safe
		for bishops != 0 {
			bishops.PopLSB()
			features[FeatureBishopOutpost] += sign
		}
	}
}

// evaluateThreats accumulates hanging/loose-piece and cross-threat counts.
func evaluateThreats(pos *board.Position, features []float64) {
	for color := board.White; color <= board.Black; color++ {
		sign := 1.0
		if color == board.Black {
			sign = -1.0
		}

		enemy := color.Other()

		// Compute attack maps for our side
		ourPawnAttacks := pos.AttacksByPieceType(color, board.Pawn)
		ourAttacks := pos.AttacksBy(color)

		// Compute attack maps for enemy side
		enemyAttacks := pos.AttacksBy(enemy)

		// Evaluate threats TO us (penalties)
		ourPieces := pos.Occupied[color] &^ board.SquareBB(pos.KingSquare[color])

		// Hanging pieces: our pieces attacked by enemy but not defended by us
		hangingPieces := ourPieces & enemyAttacks &^ ourAttacks
		features[FeatureHangingPiece] += sign * float64(hangingPieces.PopCount())

		// Loose pieces: our pieces not defended (potential future targets)
		loosePieces := ourPieces &^ ourAttacks
		features[FeatureLoosePiece] += sign * float64(loosePieces.PopCount())

		// Evaluate threats BY us (bonuses)
		enemyPieces := pos.Occupied[enemy] &^ board.SquareBB(pos.KingSquare[enemy])

		// Pawn threats to enemy pieces (very strong)
		pawnThreats := enemyPieces & ourPawnAttacks &^ pos.Pieces[enemy][board.Pawn]
		features[FeatureThreatByPawn] += sign * float64(pawnThreats.PopCount())

		// Minor piece threats to enemy major pieces (rooks/queens)
		minorAttacks := pos.AttacksByPieceType(color, board.Knight) | pos.AttacksByPieceType(color, board.Bishop)
		majorPieces := pos.Pieces[enemy][board.Rook] | pos.Pieces[enemy][board.Queen]
		minorThreats := majorPieces & minorAttacks
		features[FeatureThreatByMinor] += sign * float64(minorThreats.PopCount())
	}
}

// minInt returns the minimum of two integers.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// evaluateKingTropism accumulates, per piece type, the sum of (7-distance)
// to the enemy king over every piece of that type - an exactly linear
// decomposition of "closer pieces score higher."
func evaluateKingTropism(pos *board.Position, features []float64) {
	for color := board.White; color <= board.Black; color++ {
		sign := 1.0
		if color == board.Black {
			sign = -1.0
		}

		enemy := color.Other()
		enemyKingSq := pos.KingSquare[enemy]

		for pt := board.Knight; pt <= board.Queen; pt++ {
			var feat int
			switch pt {
			case board.Knight:
				feat = FeatureKnightTropism
			case board.Bishop:
				feat = FeatureBishopTropism
			case board.Rook:
				feat = FeatureRookTropism
			case board.Queen:
				feat = FeatureQueenTropism
			}

			pieces := pos.Pieces[color][pt]
			for pieces != 0 {
				sq := pieces.PopLSB()
				dist := sq.Distance(enemyKingSq)
				if dist < 7 {
					features[feat] += sign * float64(7-dist)
				}
			}
		}
	}
}

// evaluatePieceCoordination accumulates rook-coordination counts: rooks on
// the 7th, doubled rooks on the 7th, and rooks connected/doubled on a file.
func evaluatePieceCoordination(pos *board.Position, features []float64) {
	occupied := pos.AllOccupied

	for color := board.White; color <= board.Black; color++ {
		sign := 1.0
		if color == board.Black {
			sign = -1.0
		}

		enemy := color.Other()
		rooks := pos.Pieces[color][board.Rook]

		// --- Rooks on 7th Rank ---
		var rank7th board.Bitboard
		var enemyPawnRank board.Bitboard
		if color == board.White {
			rank7th = board.Rank7
			enemyPawnRank = board.Rank2
		} else {
			rank7th = board.Rank2
			enemyPawnRank = board.Rank7
		}

		rooksOn7th := rooks & rank7th
		rooksOn7thCount := rooksOn7th.PopCount()

		if rooksOn7thCount > 0 {
			features[FeatureRookOn7th] += sign * float64(rooksOn7thCount)

			enemyPawnsOnRank := pos.Pieces[enemy][board.Pawn] & enemyPawnRank
			if enemyPawnsOnRank != 0 {
				features[FeatureRookOn7thWithPawns] += sign * float64(rooksOn7thCount)
			}

			if rooksOn7thCount >= 2 {
				features[FeatureDoubleRooksOn7th] += sign
			}
		}

		// --- Connected Rooks (defending each other) ---
		rookCount := rooks.PopCount()
		if rookCount >= 2 {
			tempRooks := rooks
			var rookSquares [2]board.Square
			idx := 0
			for tempRooks != 0 && idx < 2 {
				rookSquares[idx] = tempRooks.PopLSB()
				idx++
			}

			if idx == 2 {
				sq1, sq2 := rookSquares[0], rookSquares[1]
				rookAttacks := board.RookAttacks(sq1, occupied)

				if rookAttacks.IsSet(sq2) {
					features[FeatureConnectedRooks] += sign

					if sq1.File() == sq2.File() {
						features[FeatureDoubledRooksOnFile] += sign
					}
				}
			}
		}
	}
}

// evaluateSpace accumulates space-controlled square counts. Only reached
// when at least one side has spaceMinPieces pieces; the gate itself is not
// expressed as a feature since it's a threshold, not a tunable coefficient.
func evaluateSpace(pos *board.Position, features []float64) {
	whitePieceCount := pos.Pieces[board.White][board.Knight].PopCount() +
		pos.Pieces[board.White][board.Bishop].PopCount() +
		pos.Pieces[board.White][board.Rook].PopCount() +
		pos.Pieces[board.White][board.Queen].PopCount()
	blackPieceCount := pos.Pieces[board.Black][board.Knight].PopCount() +
		pos.Pieces[board.Black][board.Bishop].PopCount() +
		pos.Pieces[board.Black][board.Rook].PopCount() +
		pos.Pieces[board.Black][board.Queen].PopCount()

	if whitePieceCount < spaceMinPieces && blackPieceCount < spaceMinPieces {
		return
	}

	for color := board.White; color <= board.Black; color++ {
		sign := 1.0
		if color == board.Black {
			sign = -1.0
		}

		pieceCount := whitePieceCount
		if color == board.Black {
			pieceCount = blackPieceCount
		}
		if pieceCount < spaceMinPieces {
			continue
		}

		enemy := color.Other()
		ownPawns := pos.Pieces[color][board.Pawn]
		enemyPawns := pos.Pieces[enemy][board.Pawn]

		var spaceZone board.Bitboard
		if color == board.White {
			spaceZone = whiteSpaceZone
		} else {
			spaceZone = blackSpaceZone
		}

		var pawnControl board.Bitboard
		if color == board.White {
			pawnControl = ownPawns.NorthEast() | ownPawns.NorthWest()
		} else {
			pawnControl = ownPawns.SouthEast() | ownPawns.SouthWest()
		}

		var enemyPawnAttacks board.Bitboard
		if color == board.White {
			enemyPawnAttacks = enemyPawns.SouthEast() | enemyPawns.SouthWest()
		} else {
			enemyPawnAttacks = enemyPawns.NorthEast() | enemyPawns.NorthWest()
		}

		safeSpace := spaceZone &^ enemyPawnAttacks

		var behindPawns board.Bitboard
		if color == board.White {
			behindPawns = ownPawns.SouthFill()
		} else {
			behindPawns = ownPawns.NorthFill()
		}

		controlledSpace := (pawnControl | behindPawns) & safeSpace
		features[FeatureSpaceControlled] += sign * float64(controlledSpace.PopCount())

		behindChainSpace := controlledSpace & behindPawns
		features[FeatureSpaceBehindPawn] += sign * float64(behindChainSpace.PopCount())
	}
}

// evaluateTrappedPieces accumulates penalties for bad bishops, trapped
// bishops/rooks, and knights stuck on the rim or in a corner.
func evaluateTrappedPieces(pos *board.Position, features []float64) {
	for color := board.White; color <= board.Black; color++ {
		sign := 1.0
		if color == board.Black {
			sign = -1.0
		}

		enemy := color.Other()
		ownPawns := pos.Pieces[color][board.Pawn]
		enemyPawns := pos.Pieces[enemy][board.Pawn]

		// --- Bad Bishop Evaluation ---
		bishops := pos.Pieces[color][board.Bishop]
		for temp := bishops; temp != 0; {
			sq := temp.PopLSB()

			var blockingPawns int
			if sq.IsLight() {
				for temp2 := ownPawns; temp2 != 0; {
					if temp2.PopLSB().IsLight() {
						blockingPawns++
					}
				}
			} else {
				for temp2 := ownPawns; temp2 != 0; {
					if !temp2.PopLSB().IsLight() {
						blockingPawns++
					}
				}
			}
			if blockingPawns >= 3 {
				features[FeatureBadBishop] += sign * float64(blockingPawns)
			}

			// --- Trapped Bishop Detection ---
			if color == board.White {
				if sq == board.A6 && enemyPawns.IsSet(board.B7) && enemyPawns.IsSet(board.B5) {
					features[FeatureTrappedBishop] += sign
				}
				if sq == board.H6 && enemyPawns.IsSet(board.G7) && enemyPawns.IsSet(board.G5) {
					features[FeatureTrappedBishop] += sign
				}
			} else {
				if sq == board.A3 && enemyPawns.IsSet(board.B2) && enemyPawns.IsSet(board.B4) {
					features[FeatureTrappedBishop] += sign
				}
				if sq == board.H3 && enemyPawns.IsSet(board.G2) && enemyPawns.IsSet(board.G4) {
					features[FeatureTrappedBishop] += sign
				}
			}
		}

		// --- Trapped Rook Detection ---
		kingSquare := pos.KingSquare[color]
		rooks := pos.Pieces[color][board.Rook]

		if color == board.White {
			if kingSquare == board.F1 || kingSquare == board.G1 {
				trappedRookMask := board.SquareBB(board.G1) | board.SquareBB(board.H1)
				if rooks&trappedRookMask != 0 && pos.CastlingRights&board.WhiteKingSideCastle == 0 {
					features[FeatureTrappedRook] += sign
				}
			}
			if kingSquare == board.B1 || kingSquare == board.C1 || kingSquare == board.D1 {
				trappedRookMask := board.SquareBB(board.A1) | board.SquareBB(board.B1)
				if rooks&trappedRookMask != 0 && pos.CastlingRights&board.WhiteQueenSideCastle == 0 {
					features[FeatureTrappedRook] += sign
				}
			}
		} else {
			if kingSquare == board.F8 || kingSquare == board.G8 {
				trappedRookMask := board.SquareBB(board.G8) | board.SquareBB(board.H8)
				if rooks&trappedRookMask != 0 && pos.CastlingRights&board.BlackKingSideCastle == 0 {
					features[FeatureTrappedRook] += sign
				}
			}
			if kingSquare == board.B8 || kingSquare == board.C8 || kingSquare == board.D8 {
				trappedRookMask := board.SquareBB(board.A8) | board.SquareBB(board.B8)
				if rooks&trappedRookMask != 0 && pos.CastlingRights&board.BlackQueenSideCastle == 0 {
					features[FeatureTrappedRook] += sign
				}
			}
		}

		// --- Knight on Rim Detection ---
		knights := pos.Pieces[color][board.Knight]
		rimKnights := knights & rimSquares
		for temp := rimKnights; temp != 0; {
			sq := temp.PopLSB()

			if cornerSquares.IsSet(sq) {
				features[FeatureKnightCorner] += sign
				continue
			}

			attacks := board.KnightAttacks(sq) &^ pos.Occupied[color]
			if attacks.PopCount() <= 3 {
				features[FeatureKnightRim] += sign
			}
		}
	}
}

// Feature indices for the dense tuning vector produced by GetFeatures. Each
// slot counts occurrences of one evaluation term, signed white-minus-black.
// Terms that are inherently non-linear in their own inputs (the PSQT running
// sum, the passed-pawn rank/king-distance tables, the king-safety
// attacker-count scaling) are exposed as frozen passthrough features rather
// than split apart; every other term is a genuine count times a tunable
// per-feature weight. Evaluate is implemented as DotProduct(GetFeatures(pos),
// pos.Stage()) plus the draw/fifty-move scalings, so the identity holds
// exactly, not approximately, for any position.
const (
	FeaturePawnCount = iota
	FeatureKnightCount
	FeatureBishopCount
	FeatureRookCount
	FeatureQueenCount

	FeaturePSQMg
	FeaturePSQEg

	FeaturePawnPassed
	FeaturePawnDoubled
	FeaturePawnIsolated
	FeaturePawnBackwards

	FeaturePassedBaseMg
	FeaturePassedBaseEg
	FeaturePassedConnected
	FeaturePassedProtected
	FeaturePassedFreePath
	FeaturePassedUnstoppable
	FeaturePassedKingDistanceEg

	FeatureKnightMobility
	FeatureBishopMobility
	FeatureRookMobility
	FeatureQueenMobility

	FeatureBishopPair

	FeatureRookOpenFile
	FeatureRookSemiOpenFile

	FeatureKingAttackKnight
	FeatureKingAttackBishop
	FeatureKingAttackRook
	FeatureKingAttackQueen
	FeatureKingAttack
	FeatureKingShieldPresent
	FeatureKingShieldMissing
	FeatureKingOpenFile
	FeatureKingSemiOpenFile

	FeatureKnightOutpost
	FeatureKnightOutpostProtected
	FeatureBishopOutpost

	FeatureKnightTropism
	FeatureBishopTropism
	FeatureRookTropism
	FeatureQueenTropism

	FeatureHangingPiece
	FeatureLoosePiece
	FeatureThreatByPawn
	FeatureThreatByMinor

	FeatureRookOn7th
	FeatureRookOn7thWithPawns
	FeatureDoubleRooksOn7th
	FeatureConnectedRooks
	FeatureDoubledRooksOnFile

	FeatureSpaceControlled
	FeatureSpaceBehindPawn

	FeatureBadBishop
	FeatureTrappedBishop
	FeatureTrappedRook
	FeatureKnightRim
	FeatureKnightCorner

	FeatureTempo

	NumFeatures
)

// GetFeatures fills features (len NumFeatures) with the signed (white minus
// black) counts behind one evaluation, for the external weight-tuning
// collaborator. Evaluate calls the same accumulation internally, so this is
// not a parallel approximation of the hot path: it is the hot path.
func GetFeatures(pos *board.Position, features []float64) {
	computeFeatures(pos, features, nil)
}

// computeFeatures is GetFeatures' shared implementation; Evaluate passes a
// PawnCache through so the hot search path reuses the cached pawn structure,
// while external callers of GetFeatures recompute it directly.
func computeFeatures(pos *board.Position, features []float64, pc *PawnCache) {
	for i := range features {
		features[i] = 0
	}

	ps := lookupPawnStruct(pos, pc)

	for color := board.White; color <= board.Black; color++ {
		sign := 1.0
		if color == board.Black {
			sign = -1.0
		}

		features[FeaturePawnCount] += sign * float64(pos.Pieces[color][board.Pawn].PopCount())
		features[FeatureKnightCount] += sign * float64(pos.Pieces[color][board.Knight].PopCount())
		features[FeatureBishopCount] += sign * float64(pos.Pieces[color][board.Bishop].PopCount())
		features[FeatureRookCount] += sign * float64(pos.Pieces[color][board.Rook].PopCount())
		features[FeatureQueenCount] += sign * float64(pos.Pieces[color][board.Queen].PopCount())

		pawns := pos.Pieces[color][board.Pawn]
		features[FeaturePawnPassed] += sign * float64((pawns & ps.Passed).PopCount())
	}

	features[FeaturePSQMg] = float64(pos.Score[board.White].Mid - pos.Score[board.Black].Mid)
	features[FeaturePSQEg] = float64(pos.Score[board.White].End - pos.Score[board.Black].End)

	if pos.SideToMove == board.White {
		features[FeatureTempo] = 1
	} else {
		features[FeatureTempo] = -1
	}

	evaluatePassedPawns(pos, &ps, features)
	evaluateMobility(pos, features)
	evaluateKingSafety(pos, features)
	evaluateKingTropism(pos, features)
	evaluateBishopPair(pos, features)
	evaluateRooksOnFiles(pos, &ps, features)
	evaluatePieceCoordination(pos, features)
	evaluatePawnStructure(pos, &ps, features)
	evaluateOutposts(pos, &ps, features)
	evaluateThreats(pos, features)
	evaluateSpace(pos, features)
	evaluateTrappedPieces(pos, features)
}

// InitEval overwrites each nonzero entry of x into the corresponding
// feature's weight table entry, collapsing the mid/endgame split used by the
// package's own bonus constants into a single flat coefficient (the
// config.Weights file format carries one value per feature, not two). A
// zero entry leaves that feature's built-in default untouched, so the zero
// vector config.DefaultWeights returns changes nothing: this is what makes
// loading an absent or all-zero weights file a no-op while a populated one
// actually retunes Evaluate.
func InitEval(x []float64) error {
	if len(x) != NumFeatures {
		return fmt.Errorf("engine: InitEval expects %d weights, got %d", NumFeatures, len(x))
	}
	for i, v := range x {
		if v == 0 {
			continue
		}
		rounded := int(math.Round(v))
		weights[i] = wpair{Mg: rounded, Eg: rounded}
	}
	return nil
}

// ResetEval restores every feature weight to its compile-time default,
// undoing any prior InitEval call. Exported so tests can isolate themselves
// from the package-level weight table's state.
func ResetEval() {
	resetWeights()
}
