package board

import "fmt"

// Move encodes a chess move in 32 bits:
// bits 0-5:   from square (0-63)
// bits 6-11:  to square (0-63)
// bits 12-15: promotion piece (PieceType, NoPieceType if none)
// bits 16-19: captured piece (Piece, NoPiece if none)
// bits 20-23: moving piece (Piece)
// bits 24-25: special flag (0=normal, 1=promotion, 2=en passant, 3=castling)
//
// Embedding the captured and moving piece directly in the move means move
// ordering and SEE never have to consult the position to classify a move;
// they only need the Move value itself.
type Move uint32

const (
	moveFromShift  = 0
	moveToShift    = 6
	movePromoShift = 12
	moveCaptShift  = 16
	movePieceShift = 20
	moveFlagShift  = 24

	moveSquareMask = 0x3F
	movePieceMask4 = 0xF
	moveFlagMask   = 0x3
)

// Move flags.
const (
	FlagNormal    uint32 = 0
	FlagPromotion uint32 = 1
	FlagEnPassant uint32 = 2
	FlagCastling  uint32 = 3
)

// NoMove represents an invalid or null move (the all-zeros encoding).
const NoMove Move = 0

func pack(from, to Square, promo, captured, piece Piece, flag uint32) Move {
	return Move(uint32(from)<<moveFromShift |
		uint32(to)<<moveToShift |
		uint32(promo)<<movePromoShift |
		uint32(captured)<<moveCaptShift |
		uint32(piece)<<movePieceShift |
		flag<<moveFlagShift)
}

// NewMove creates a normal (possibly capturing) move.
func NewMove(from, to Square, piece, captured Piece) Move {
	return pack(from, to, Piece(NoPieceType), captured, piece, FlagNormal)
}

// NewPromotion creates a promotion move.
func NewPromotion(from, to Square, piece, captured Piece, promo PieceType) Move {
	return pack(from, to, Piece(promo), captured, piece, FlagPromotion)
}

// NewEnPassant creates an en passant capture move. The captured piece is
// always the enemy pawn, even though it does not sit on the `to` square.
func NewEnPassant(from, to Square, piece, capturedPawn Piece) Move {
	return pack(from, to, Piece(NoPieceType), capturedPawn, piece, FlagEnPassant)
}

// NewCastling creates a castling move (the king's own step).
func NewCastling(from, to Square, king Piece) Move {
	return pack(from, to, Piece(NoPieceType), NoPiece, king, FlagCastling)
}

// From returns the origin square.
func (m Move) From() Square {
	return Square(uint32(m) >> moveFromShift & moveSquareMask)
}

// To returns the destination square.
func (m Move) To() Square {
	return Square(uint32(m) >> moveToShift & moveSquareMask)
}

// Piece returns the moving piece.
func (m Move) Piece() Piece {
	return Piece(uint32(m) >> movePieceShift & movePieceMask4)
}

// Captured returns the captured piece, or NoPiece if this move captures
// nothing.
func (m Move) Captured() Piece {
	return Piece(uint32(m) >> moveCaptShift & movePieceMask4)
}

// Flag returns the move's special flag.
func (m Move) Flag() uint32 {
	return uint32(m) >> moveFlagShift & moveFlagMask
}

// Promotion returns the promotion piece type; only valid if IsPromotion().
func (m Move) Promotion() PieceType {
	return PieceType(uint32(m) >> movePromoShift & movePieceMask4)
}

// IsPromotion returns true if this is a promotion move.
func (m Move) IsPromotion() bool {
	return m.Flag() == FlagPromotion
}

// IsCastling returns true if this is a castling move.
func (m Move) IsCastling() bool {
	return m.Flag() == FlagCastling
}

// IsEnPassant returns true if this is an en passant capture.
func (m Move) IsEnPassant() bool {
	return m.Flag() == FlagEnPassant
}

// IsCapture returns true if this move captures a piece (en passant
// included).
func (m Move) IsCapture() bool {
	return m.Captured() != NoPiece
}

// IsQuiet returns true if this is neither a capture nor a promotion.
func (m Move) IsQuiet() bool {
	return !m.IsCapture() && !m.IsPromotion()
}

// String returns the UCI format of the move (e.g., "e2e4", "e7e8q").
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}

	s := m.From().String() + m.To().String()

	if m.IsPromotion() {
		promoChars := []byte{0: ' ', Knight: 'n', Bishop: 'b', Rook: 'r', Queen: 'q'}
		s += string(promoChars[m.Promotion()])
	}

	return s
}

// ParseMove parses a UCI format move string against the given position,
// filling in the moving/captured piece and special-move flags.
func ParseMove(s string, pos *Position) (Move, error) {
	if len(s) < 4 {
		return NoMove, fmt.Errorf("invalid move string: %s", s)
	}

	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, err
	}

	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, err
	}

	piece := pos.PieceAt(from)
	if piece == NoPiece {
		return NoMove, fmt.Errorf("no piece at %s", from)
	}
	pt := piece.Type()
	captured := pos.PieceAt(to)

	if len(s) == 5 {
		var promo PieceType
		switch s[4] {
		case 'n':
			promo = Knight
		case 'b':
			promo = Bishop
		case 'r':
			promo = Rook
		case 'q':
			promo = Queen
		default:
			return NoMove, fmt.Errorf("invalid promotion piece: %c", s[4])
		}
		return NewPromotion(from, to, piece, captured, promo), nil
	}

	if pt == King && abs(int(to)-int(from)) == 2 {
		return NewCastling(from, to, piece), nil
	}

	if pt == Pawn && to == pos.EnPassant && captured == NoPiece {
		capturedPawn := NewPiece(Pawn, piece.Color().Other())
		return NewEnPassant(from, to, piece, capturedPawn), nil
	}

	return NewMove(from, to, piece, captured), nil
}

// ScoredMove pairs a move with its move-ordering sort score, matching the
// spec's MoveList data model of {move, sortScore} entries.
type ScoredMove struct {
	Move  Move
	Score int
}

// MoveList is a fixed-capacity list of scored moves; it never reallocates
// while a node is being processed.
type MoveList struct {
	items [256]ScoredMove
	count int
}

// NewMoveList creates an empty move list.
func NewMoveList() *MoveList {
	return &MoveList{}
}

// Add adds a move with a zero sort score to the list.
func (ml *MoveList) Add(m Move) {
	ml.items[ml.count] = ScoredMove{Move: m}
	ml.count++
}

// Len returns the number of moves in the list.
func (ml *MoveList) Len() int {
	return ml.count
}

// Get returns the move at index i.
func (ml *MoveList) Get(i int) Move {
	return ml.items[i].Move
}

// Score returns the sort score at index i.
func (ml *MoveList) Score(i int) int {
	return ml.items[i].Score
}

// SetScore sets the sort score at index i.
func (ml *MoveList) SetScore(i, score int) {
	ml.items[i].Score = score
}

// Swap swaps two entries in the list.
func (ml *MoveList) Swap(i, j int) {
	ml.items[i], ml.items[j] = ml.items[j], ml.items[i]
}

// PickBest selection-sorts the highest-scoring move starting at index i to
// the front of the list and returns it. Used by the search's move loop,
// which re-sorts lazily one move at a time instead of up front.
func (ml *MoveList) PickBest(i int) Move {
	best := i
	for j := i + 1; j < ml.count; j++ {
		if ml.items[j].Score > ml.items[best].Score {
			best = j
		}
	}
	ml.Swap(i, best)
	return ml.items[i].Move
}

// Clear clears the list.
func (ml *MoveList) Clear() {
	ml.count = 0
}

// Contains returns true if the list contains the move.
func (ml *MoveList) Contains(m Move) bool {
	for i := 0; i < ml.count; i++ {
		if ml.items[i].Move == m {
			return true
		}
	}
	return false
}

// Slice returns the moves (without scores) as a slice.
func (ml *MoveList) Slice() []Move {
	out := make([]Move, ml.count)
	for i := 0; i < ml.count; i++ {
		out[i] = ml.items[i].Move
	}
	return out
}

// Undo stores the information needed to reverse MakeMove.
type Undo struct {
	Move           Move
	CapturedPiece  Piece
	CastlingRights CastlingRights
	EnPassant      Square
	HalfMoveClock  int
	PieceHash      uint64
	Checkers       Bitboard
	KingSquare     [2]Square
	Score          [2]Pair
	MatIndex       [2]int
}

// NullUndo stores the information needed to reverse MakeNullMove.
type NullUndo struct {
	EnPassant Square
	PieceHash uint64
	Checkers  Bitboard
}
