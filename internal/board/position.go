package board

import "fmt"

// CastlingRights represents the available castling options.
type CastlingRights uint8

const (
	WhiteKingSideCastle  CastlingRights = 1 << iota // K
	WhiteQueenSideCastle                            // Q
	BlackKingSideCastle                             // k
	BlackQueenSideCastle                             // q
	NoCastling           CastlingRights = 0
	AllCastling          CastlingRights = WhiteKingSideCastle | WhiteQueenSideCastle | BlackKingSideCastle | BlackQueenSideCastle
)

// String returns the FEN castling rights string.
func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	s := ""
	if cr&WhiteKingSideCastle != 0 {
		s += "K"
	}
	if cr&WhiteQueenSideCastle != 0 {
		s += "Q"
	}
	if cr&BlackKingSideCastle != 0 {
		s += "k"
	}
	if cr&BlackQueenSideCastle != 0 {
		s += "q"
	}
	return s
}

// CanCastle returns true if the given side can castle in the given direction.
func (cr CastlingRights) CanCastle(c Color, kingSide bool) bool {
	if c == White {
		if kingSide {
			return cr&WhiteKingSideCastle != 0
		}
		return cr&WhiteQueenSideCastle != 0
	}
	if kingSide {
		return cr&BlackKingSideCastle != 0
	}
	return cr&BlackQueenSideCastle != 0
}

// Pair is a {mid-game, end-game} tapered value, used both for the
// incrementally maintained piece-square running score and anywhere
// evaluation needs to carry two numbers through the same arithmetic.
type Pair struct {
	Mid int
	End int
}

// Add returns the component-wise sum.
func (a Pair) Add(b Pair) Pair {
	return Pair{Mid: a.Mid + b.Mid, End: a.End + b.End}
}

// Sub returns the component-wise difference.
func (a Pair) Sub(b Pair) Pair {
	return Pair{Mid: a.Mid - b.Mid, End: a.End - b.End}
}

// historyEntry records one played ply for Repetitions() to walk back
// over. The chain breaks at any irreversible move (pawn push, capture,
// castling-rights change, or null move).
type historyEntry struct {
	hash         uint64
	irreversible bool
}

// Position represents a complete chess position.
type Position struct {
	// Piece bitboards: [Color][PieceType]
	Pieces [2][6]Bitboard

	// Occupancy bitboards (cached for efficiency)
	Occupied    [2]Bitboard // All pieces of each color
	AllOccupied Bitboard    // All pieces on the board

	// Game state
	SideToMove     Color
	CastlingRights CastlingRights
	EnPassant      Square // Target square for en passant, NoSquare if none
	HalfMoveClock  int    // Moves since last pawn move or capture (for 50-move rule)
	FullMoveNumber int    // Full move counter, starts at 1
	Ply            int    // Half-moves made on this Position since it was set up

	// PieceHash is the Zobrist hash of piece placement only; side to move,
	// castling rights and en passant are folded in on read by Hash(). Its
	// upper 32 bits double as the pawn structure cache key (see zobrist.go).
	PieceHash uint64

	// Score is the incrementally maintained material plus piece-square
	// running sum, per side, from that side's own perspective.
	Score [2]Pair

	// MatIndex is the incrementally maintained material-weight index per
	// side, used by Stage() to taper mid/end scores.
	MatIndex [2]int

	// King positions (cached for check detection)
	KingSquare [2]Square

	// Checkers bitboard (pieces giving check)
	Checkers Bitboard

	undo    []Undo
	history []historyEntry
}

// NewPosition creates the starting position.
func NewPosition() *Position {
	pos, _ := ParseFEN(StartFEN)
	return pos
}

// Copy creates a deep copy of the position.
func (p *Position) Copy() *Position {
	newPos := *p
	newPos.undo = append([]Undo(nil), p.undo...)
	newPos.history = append([]historyEntry(nil), p.history...)
	return &newPos
}

// PieceAt returns the piece at the given square, or NoPiece if empty.
func (p *Position) PieceAt(sq Square) Piece {
	bb := SquareBB(sq)

	// Check if square is occupied
	if p.AllOccupied&bb == 0 {
		return NoPiece
	}

	// Find the color
	var c Color
	if p.Occupied[White]&bb != 0 {
		c = White
	} else {
		c = Black
	}

	// Find the piece type
	for pt := Pawn; pt <= King; pt++ {
		if p.Pieces[c][pt]&bb != 0 {
			return NewPiece(pt, c)
		}
	}

	return NoPiece
}

// IsEmpty returns true if the square is empty.
func (p *Position) IsEmpty(sq Square) bool {
	return p.AllOccupied&SquareBB(sq) == 0
}

// setPiece places a piece on a square, updating occupancy, the piece
// hash, the piece-square running score and the material index.
func (p *Position) setPiece(piece Piece, sq Square) {
	if piece == NoPiece {
		return
	}
	c := piece.Color()
	pt := piece.Type()
	bb := SquareBB(sq)

	p.Pieces[c][pt] |= bb
	p.Occupied[c] |= bb
	p.AllOccupied |= bb

	p.PieceHash ^= ZobristPiece(c, pt, sq)
	p.Score[c] = p.Score[c].Add(psqValue(c, pt, sq))
	p.MatIndex[c] += matWeight[pt]

	if pt == King {
		p.KingSquare[c] = sq
	}
}

// removePiece removes a piece from a square, undoing the same
// incremental bookkeeping setPiece applies.
func (p *Position) removePiece(sq Square) Piece {
	piece := p.PieceAt(sq)
	if piece == NoPiece {
		return NoPiece
	}

	c := piece.Color()
	pt := piece.Type()
	bb := SquareBB(sq)

	p.Pieces[c][pt] &^= bb
	p.Occupied[c] &^= bb
	p.AllOccupied &^= bb

	p.PieceHash ^= ZobristPiece(c, pt, sq)
	p.Score[c] = p.Score[c].Sub(psqValue(c, pt, sq))
	p.MatIndex[c] -= matWeight[pt]

	return piece
}

// movePiece moves a piece from one square to another, updating the same
// incremental state as a remove-then-set would, without touching
// material index (it does not change on a simple move).
func (p *Position) movePiece(from, to Square) {
	piece := p.PieceAt(from)
	if piece == NoPiece {
		return
	}

	c := piece.Color()
	pt := piece.Type()
	fromBB := SquareBB(from)
	toBB := SquareBB(to)
	moveBB := fromBB | toBB

	p.Pieces[c][pt] ^= moveBB
	p.Occupied[c] ^= moveBB
	p.AllOccupied ^= moveBB

	p.PieceHash ^= ZobristPiece(c, pt, from)
	p.PieceHash ^= ZobristPiece(c, pt, to)
	p.Score[c] = p.Score[c].Sub(psqValue(c, pt, from)).Add(psqValue(c, pt, to))

	if pt == King {
		p.KingSquare[c] = to
	}
}

// updateOccupied recalculates occupancy bitboards from piece bitboards.
func (p *Position) updateOccupied() {
	p.Occupied[White] = Empty
	p.Occupied[Black] = Empty

	for pt := Pawn; pt <= King; pt++ {
		p.Occupied[White] |= p.Pieces[White][pt]
		p.Occupied[Black] |= p.Pieces[Black][pt]
	}

	p.AllOccupied = p.Occupied[White] | p.Occupied[Black]
}

// findKings locates and caches the king positions.
func (p *Position) findKings() {
	p.KingSquare[White] = p.Pieces[White][King].LSB()
	p.KingSquare[Black] = p.Pieces[Black][King].LSB()
}

// recomputeIncremental rebuilds PieceHash, Score and MatIndex from the
// current piece bitboards. Called after bulk board setup (Mirror) and by
// ComputeHash, instead of accumulating through setPiece one at a time.
func (p *Position) recomputeIncremental() {
	p.PieceHash = 0
	p.Score = [2]Pair{}
	p.MatIndex = [2]int{}
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			bb := p.Pieces[c][pt]
			for bb != 0 {
				sq := bb.PopLSB()
				p.PieceHash ^= ZobristPiece(c, pt, sq)
				p.Score[c] = p.Score[c].Add(psqValue(c, pt, sq))
				p.MatIndex[c] += matWeight[pt]
			}
		}
	}
}

// Hash returns the full Zobrist key: piece placement plus side to move,
// castling rights and the en passant file, folded in on read.
func (p *Position) Hash() uint64 {
	h := p.PieceHash
	if p.SideToMove == Black {
		h ^= ZobristSideToMove()
	}
	h ^= ZobristCastling(p.CastlingRights)
	if p.EnPassant != NoSquare {
		h ^= ZobristEnPassant(p.EnPassant.File())
	}
	return h
}

// PawnHash returns the high 32 bits of PieceHash, which per the Zobrist
// split scheme are contributed only by pawn placement. This is the key
// the pawn structure cache is keyed on.
func (p *Position) PawnHash() uint32 {
	return uint32(p.PieceHash >> 32)
}

// Stage returns the tapered mid/end weights derived from the material
// index on the board, in 64ths: Mid is the summed material index of both
// sides capped at 64, and End is 64 - Mid, so the two always add up to 64.
func (p *Position) Stage() Pair {
	mid := (p.MatIndex[White] + p.MatIndex[Black])
	if mid > 64 {
		mid = 64
	}
	midF := mid
	return Pair{Mid: midF, End: 64 - midF}
}

// String returns a visual representation of the position.
func (p *Position) String() string {
	s := "\n"
	for rank := 7; rank >= 0; rank-- {
		s += fmt.Sprintf("%d  ", rank+1)
		for file := 0; file < 8; file++ {
			sq := NewSquare(file, rank)
			piece := p.PieceAt(sq)
			if piece == NoPiece {
				s += ". "
			} else {
				s += piece.String() + " "
			}
		}
		s += "\n"
	}
	s += "\n   a b c d e f g h\n\n"
	s += fmt.Sprintf("Side to move: %s\n", p.SideToMove)
	s += fmt.Sprintf("Castling: %s\n", p.CastlingRights)
	s += fmt.Sprintf("En passant: %s\n", p.EnPassant)
	s += fmt.Sprintf("Half-move clock: %d\n", p.HalfMoveClock)
	s += fmt.Sprintf("Full move: %d\n", p.FullMoveNumber)
	s += fmt.Sprintf("Hash: %016x\n", p.Hash())
	return s
}

// Clear resets the position to an empty board.
func (p *Position) Clear() {
	*p = Position{
		EnPassant:      NoSquare,
		FullMoveNumber: 1,
	}
	p.KingSquare[White] = NoSquare
	p.KingSquare[Black] = NoSquare
}

// Validate checks if the position is valid.
func (p *Position) Validate() error {
	// Check that each side has exactly one king
	if p.Pieces[White][King].PopCount() != 1 {
		return fmt.Errorf("white must have exactly one king")
	}
	if p.Pieces[Black][King].PopCount() != 1 {
		return fmt.Errorf("black must have exactly one king")
	}

	// Check that pawns are not on rank 1 or 8
	if (p.Pieces[White][Pawn]|p.Pieces[Black][Pawn])&(Rank1|Rank8) != 0 {
		return fmt.Errorf("pawns cannot be on rank 1 or 8")
	}

	// En passant target, if set, must sit on the rank a double push lands on
	if p.EnPassant != NoSquare {
		rank := p.EnPassant.Rank()
		if p.SideToMove == White && rank != 5 {
			return fmt.Errorf("en passant square %s invalid for white to move", p.EnPassant)
		}
		if p.SideToMove == Black && rank != 2 {
			return fmt.Errorf("en passant square %s invalid for black to move", p.EnPassant)
		}
	}

	// The side not to move must not be in check (would be an illegal
	// position to have arrived at).
	them := p.SideToMove.Other()
	theirKing := p.KingSquare[them]
	if theirKing != NoSquare && p.IsSquareAttacked(theirKing, p.SideToMove) {
		return fmt.Errorf("side not to move is in check")
	}

	return nil
}

// GameOver returns true if the game is over (checkmate, stalemate, or draw).
func (p *Position) GameOver() bool {
	return p.IsCheckmate() || p.IsStalemate() || p.IsDraw()
}

// InCheck returns true if the side to move is in check.
func (p *Position) InCheck() bool {
	return p.Checkers != 0
}

// Material returns the material balance (positive favors white).
func (p *Position) Material() int {
	score := 0
	for pt := Pawn; pt < King; pt++ {
		score += p.Pieces[White][pt].PopCount() * PieceValue[pt]
		score -= p.Pieces[Black][pt].PopCount() * PieceValue[pt]
	}
	return score
}

// ComputePinned computes pieces pinned to the king for the side to move.
// Uses Stockfish-style x-ray attack detection.
func (p *Position) ComputePinned() Bitboard {
	us := p.SideToMove
	them := us.Other()
	ksq := p.KingSquare[us]
	pinned := Bitboard(0)

	// Rook/Queen x-ray attacks (horizontal and vertical)
	snipers := RookAttacks(ksq, 0) & (p.Pieces[them][Rook] | p.Pieces[them][Queen])
	for snipers != 0 {
		sq := snipers.PopLSB()
		blockers := Between(sq, ksq) & p.AllOccupied
		if blockers.PopCount() == 1 && blockers&p.Occupied[us] != 0 {
			pinned |= blockers
		}
	}

	// Bishop/Queen x-ray attacks (diagonals)
	snipers = BishopAttacks(ksq, 0) & (p.Pieces[them][Bishop] | p.Pieces[them][Queen])
	for snipers != 0 {
		sq := snipers.PopLSB()
		blockers := Between(sq, ksq) & p.AllOccupied
		if blockers.PopCount() == 1 && blockers&p.Occupied[us] != 0 {
			pinned |= blockers
		}
	}

	return pinned
}

// pushHistory records the position reached after a played ply, for
// Repetitions() to walk back over later.
func (p *Position) pushHistory(irreversible bool) {
	p.history = append(p.history, historyEntry{hash: p.Hash(), irreversible: irreversible})
}

func (p *Position) popHistory() {
	p.history = p.history[:len(p.history)-1]
}

// Repetitions walks back through the played-move history counting
// positions with the same Hash() as the current one, stopping at the
// nearest irreversible move (pawn push, capture, castling-rights change,
// or null move).
func (p *Position) Repetitions() int {
	h := p.Hash()
	count := 0
	for i := len(p.history) - 1; i >= 0; i-- {
		if p.history[i].irreversible {
			break
		}
		if p.history[i].hash == h {
			count++
		}
	}
	return count
}

// NullMoveUndo stores state for unmake of null move.
// Returned by MakeNullMove and passed to UnmakeNullMove.
type NullMoveUndo = NullUndo

// MakeNullMove makes a null move (passes the turn without moving).
// Used for null move pruning in search.
// Returns undo info that must be passed to UnmakeNullMove.
func (p *Position) MakeNullMove() NullUndo {
	undo := NullUndo{
		EnPassant: p.EnPassant,
		PieceHash: p.PieceHash,
		Checkers:  p.Checkers,
	}

	p.EnPassant = NoSquare
	p.SideToMove = p.SideToMove.Other()
	p.Ply++

	p.UpdateCheckers()
	p.pushHistory(true)

	return undo
}

// UnmakeNullMove undoes a null move.
func (p *Position) UnmakeNullMove(undo NullUndo) {
	p.popHistory()
	p.EnPassant = undo.EnPassant
	p.PieceHash = undo.PieceHash
	p.Checkers = undo.Checkers
	p.SideToMove = p.SideToMove.Other()
	p.Ply--
}

// HasNonPawnMaterial returns true if the side to move has non-pawn material.
// Used for null move pruning (avoid in pure pawn endgames due to zugzwang).
func (p *Position) HasNonPawnMaterial() bool {
	us := p.SideToMove
	return p.Pieces[us][Knight]|p.Pieces[us][Bishop]|p.Pieces[us][Rook]|p.Pieces[us][Queen] != 0
}

// Mirror returns a new position that is the vertical flip of p with
// colors swapped. Used by evaluation symmetry tests: Evaluate(p) must
// equal -Evaluate(p.Mirror()) for a symmetric weight set.
func (p *Position) Mirror() *Position {
	m := &Position{
		SideToMove:     p.SideToMove.Other(),
		EnPassant:      NoSquare,
		HalfMoveClock:  p.HalfMoveClock,
		FullMoveNumber: p.FullMoveNumber,
	}
	m.KingSquare[White] = NoSquare
	m.KingSquare[Black] = NoSquare

	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			bb := p.Pieces[c][pt]
			for bb != 0 {
				sq := bb.PopLSB()
				msq := sq.Mirror()
				mc := c.Other()
				mbb := SquareBB(msq)
				m.Pieces[mc][pt] |= mbb
				m.Occupied[mc] |= mbb
				m.AllOccupied |= mbb
				if pt == King {
					m.KingSquare[mc] = msq
				}
			}
		}
	}

	if p.EnPassant != NoSquare {
		m.EnPassant = p.EnPassant.Mirror()
	}

	var cr CastlingRights
	if p.CastlingRights&WhiteKingSideCastle != 0 {
		cr |= BlackKingSideCastle
	}
	if p.CastlingRights&WhiteQueenSideCastle != 0 {
		cr |= BlackQueenSideCastle
	}
	if p.CastlingRights&BlackKingSideCastle != 0 {
		cr |= WhiteKingSideCastle
	}
	if p.CastlingRights&BlackQueenSideCastle != 0 {
		cr |= WhiteQueenSideCastle
	}
	m.CastlingRights = cr

	m.recomputeIncremental()
	m.UpdateCheckers()
	return m
}
