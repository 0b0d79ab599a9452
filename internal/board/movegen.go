package board

// GenAllMoves appends every pseudo-legal move for the side to move to ml.
// Legality (self-check) is left to MakeMove.
func GenAllMoves(p *Position, ml *MoveList) {
	p.generateAllMoves(ml)
}

// GenCapturesAndPromotions appends pseudo-legal captures and promotions for
// quiescence search. deltaAlpha, if non-zero, lets the generator skip
// captures whose best possible gain still can't reach alpha (delta
// pruning); promotions are never skipped regardless of deltaAlpha.
func GenCapturesAndPromotions(p *Position, ml *MoveList, deltaAlpha int) {
	p.generateCaptures(ml, deltaAlpha)
}

// GenMovesInCheck appends evasions when the side to move is in check: king
// moves, captures of the checking piece, and (for a single checker) blocks
// along the checking ray. Double checks only admit king moves.
func GenMovesInCheck(p *Position, ml *MoveList) {
	p.generateEvasions(ml)
}

// AddSimpleChecks appends quiet moves that give check, for the shallow
// check-extension pass some quiescence implementations run. It excludes
// captures and promotions, which the capture generator already covers.
func AddSimpleChecks(p *Position, ml *MoveList) {
	p.generateQuietChecks(ml)
}

// GenerateLegalMoves generates all legal moves for the position.
func (p *Position) GenerateLegalMoves() *MoveList {
	ml := NewMoveList()
	p.generateAllMoves(ml)
	return p.filterLegalMoves(ml)
}

// GeneratePseudoLegalMoves generates all pseudo-legal moves (may leave king in check).
func (p *Position) GeneratePseudoLegalMoves() *MoveList {
	ml := NewMoveList()
	p.generateAllMoves(ml)
	return ml
}

// GenerateCaptures generates all legal capture moves (and promotions).
func (p *Position) GenerateCaptures() *MoveList {
	ml := NewMoveList()
	p.generateCaptures(ml, 0)
	return p.filterLegalMoves(ml)
}

// generateAllMoves generates all pseudo-legal moves.
func (p *Position) generateAllMoves(ml *MoveList) {
	if p.InCheck() {
		p.generateEvasions(ml)
		return
	}

	us := p.SideToMove
	them := us.Other()
	occupied := p.AllOccupied
	enemies := p.Occupied[them]

	p.generatePawnMoves(ml, us, enemies, occupied)

	knights := p.Pieces[us][Knight]
	for knights != 0 {
		from := knights.PopLSB()
		attacks := KnightAttacks(from) & ^p.Occupied[us]
		p.addMovesFrom(ml, from, NewPiece(Knight, us), attacks)
	}

	bishops := p.Pieces[us][Bishop]
	for bishops != 0 {
		from := bishops.PopLSB()
		attacks := BishopAttacks(from, occupied) & ^p.Occupied[us]
		p.addMovesFrom(ml, from, NewPiece(Bishop, us), attacks)
	}

	rooks := p.Pieces[us][Rook]
	for rooks != 0 {
		from := rooks.PopLSB()
		attacks := RookAttacks(from, occupied) & ^p.Occupied[us]
		p.addMovesFrom(ml, from, NewPiece(Rook, us), attacks)
	}

	queens := p.Pieces[us][Queen]
	for queens != 0 {
		from := queens.PopLSB()
		attacks := QueenAttacks(from, occupied) & ^p.Occupied[us]
		p.addMovesFrom(ml, from, NewPiece(Queen, us), attacks)
	}

	p.generateKingMoves(ml, us)
	p.generateCastlingMoves(ml, us)
}

// addMovesFrom adds one non-pawn, non-king move per destination bit set in
// targets, filling in the captured piece from the board.
func (p *Position) addMovesFrom(ml *MoveList, from Square, piece Piece, targets Bitboard) {
	for targets != 0 {
		to := targets.PopLSB()
		ml.Add(NewMove(from, to, piece, p.PieceAt(to)))
	}
}

// generatePawnMoves generates all pawn moves.
func (p *Position) generatePawnMoves(ml *MoveList, us Color, enemies, occupied Bitboard) {
	pawns := p.Pieces[us][Pawn]
	empty := ^occupied
	pawnPiece := NewPiece(Pawn, us)

	var push1, push2, attackL, attackR Bitboard
	var promotionRank Bitboard
	var pushDir int

	if us == White {
		push1 = pawns.North() & empty
		push2 = (push1 & Rank3).North() & empty
		attackL = pawns.NorthWest() & enemies
		attackR = pawns.NorthEast() & enemies
		promotionRank = Rank8
		pushDir = 8
	} else {
		push1 = pawns.South() & empty
		push2 = (push1 & Rank6).South() & empty
		attackL = pawns.SouthWest() & enemies
		attackR = pawns.SouthEast() & enemies
		promotionRank = Rank1
		pushDir = -8
	}

	nonPromo := push1 & ^promotionRank
	for nonPromo != 0 {
		to := nonPromo.PopLSB()
		from := Square(int(to) - pushDir)
		ml.Add(NewMove(from, to, pawnPiece, NoPiece))
	}

	for push2 != 0 {
		to := push2.PopLSB()
		from := Square(int(to) - 2*pushDir)
		ml.Add(NewMove(from, to, pawnPiece, NoPiece))
	}

	nonPromoL := attackL & ^promotionRank
	for nonPromoL != 0 {
		to := nonPromoL.PopLSB()
		from := Square(int(to) - pushDir + 1)
		ml.Add(NewMove(from, to, pawnPiece, p.PieceAt(to)))
	}

	nonPromoR := attackR & ^promotionRank
	for nonPromoR != 0 {
		to := nonPromoR.PopLSB()
		from := Square(int(to) - pushDir - 1)
		ml.Add(NewMove(from, to, pawnPiece, p.PieceAt(to)))
	}

	promoPush := push1 & promotionRank
	for promoPush != 0 {
		to := promoPush.PopLSB()
		from := Square(int(to) - pushDir)
		addPromotions(ml, from, to, pawnPiece, NoPiece)
	}

	promoL := attackL & promotionRank
	for promoL != 0 {
		to := promoL.PopLSB()
		from := Square(int(to) - pushDir + 1)
		addPromotions(ml, from, to, pawnPiece, p.PieceAt(to))
	}

	promoR := attackR & promotionRank
	for promoR != 0 {
		to := promoR.PopLSB()
		from := Square(int(to) - pushDir - 1)
		addPromotions(ml, from, to, pawnPiece, p.PieceAt(to))
	}

	if p.EnPassant != NoSquare {
		epBB := SquareBB(p.EnPassant)
		var epAttackers Bitboard
		if us == White {
			epAttackers = (epBB.SouthWest() | epBB.SouthEast()) & pawns
		} else {
			epAttackers = (epBB.NorthWest() | epBB.NorthEast()) & pawns
		}
		capturedPawn := NewPiece(Pawn, us.Other())
		for epAttackers != 0 {
			from := epAttackers.PopLSB()
			ml.Add(NewEnPassant(from, p.EnPassant, pawnPiece, capturedPawn))
		}
	}
}

// addPromotions adds all four promotion moves.
func addPromotions(ml *MoveList, from, to Square, piece, captured Piece) {
	ml.Add(NewPromotion(from, to, piece, captured, Queen))
	ml.Add(NewPromotion(from, to, piece, captured, Rook))
	ml.Add(NewPromotion(from, to, piece, captured, Bishop))
	ml.Add(NewPromotion(from, to, piece, captured, Knight))
}

// generateKingMoves generates king moves (non-castling).
func (p *Position) generateKingMoves(ml *MoveList, us Color) {
	from := p.KingSquare[us]
	attacks := KingAttacks(from) & ^p.Occupied[us]
	p.addMovesFrom(ml, from, NewPiece(King, us), attacks)
}

// generateCastlingMoves generates castling moves.
func (p *Position) generateCastlingMoves(ml *MoveList, us Color) {
	them := us.Other()
	king := NewPiece(King, us)

	if us == White {
		if p.CastlingRights&WhiteKingSideCastle != 0 {
			if p.AllOccupied&((1<<F1)|(1<<G1)) == 0 {
				if !p.IsSquareAttacked(E1, them) && !p.IsSquareAttacked(F1, them) && !p.IsSquareAttacked(G1, them) {
					ml.Add(NewCastling(E1, G1, king))
				}
			}
		}
		if p.CastlingRights&WhiteQueenSideCastle != 0 {
			if p.AllOccupied&((1<<B1)|(1<<C1)|(1<<D1)) == 0 {
				if !p.IsSquareAttacked(E1, them) && !p.IsSquareAttacked(D1, them) && !p.IsSquareAttacked(C1, them) {
					ml.Add(NewCastling(E1, C1, king))
				}
			}
		}
	} else {
		if p.CastlingRights&BlackKingSideCastle != 0 {
			if p.AllOccupied&((1<<F8)|(1<<G8)) == 0 {
				if !p.IsSquareAttacked(E8, them) && !p.IsSquareAttacked(F8, them) && !p.IsSquareAttacked(G8, them) {
					ml.Add(NewCastling(E8, G8, king))
				}
			}
		}
		if p.CastlingRights&BlackQueenSideCastle != 0 {
			if p.AllOccupied&((1<<B8)|(1<<C8)|(1<<D8)) == 0 {
				if !p.IsSquareAttacked(E8, them) && !p.IsSquareAttacked(D8, them) && !p.IsSquareAttacked(C8, them) {
					ml.Add(NewCastling(E8, C8, king))
				}
			}
		}
	}
}

// generateCaptures generates capture and promotion moves only. If
// deltaAlpha is non-zero, captures whose maximum possible material gain
// (captured piece value, plus a queen's worth for a potential promotion)
// still falls short of deltaAlpha are skipped; promotions are always kept.
func (p *Position) generateCaptures(ml *MoveList, deltaAlpha int) {
	us := p.SideToMove
	them := us.Other()
	enemies := p.Occupied[them]
	occupied := p.AllOccupied
	pawnPiece := NewPiece(Pawn, us)

	worthConsidering := func(capturedValue int) bool {
		if deltaAlpha == 0 {
			return true
		}
		return capturedValue+PieceValue[Queen]+deltaPruningMargin >= deltaAlpha
	}

	pawns := p.Pieces[us][Pawn]
	var attackL, attackR Bitboard
	var promotionRank Bitboard
	var pushDir int

	if us == White {
		attackL = pawns.NorthWest() & enemies
		attackR = pawns.NorthEast() & enemies
		promotionRank = Rank8
		pushDir = 8
	} else {
		attackL = pawns.SouthWest() & enemies
		attackR = pawns.SouthEast() & enemies
		promotionRank = Rank1
		pushDir = -8
	}

	nonPromoL := attackL & ^promotionRank
	for nonPromoL != 0 {
		to := nonPromoL.PopLSB()
		from := Square(int(to) - pushDir + 1)
		captured := p.PieceAt(to)
		if worthConsidering(PieceValue[captured.Type()]) {
			ml.Add(NewMove(from, to, pawnPiece, captured))
		}
	}

	nonPromoR := attackR & ^promotionRank
	for nonPromoR != 0 {
		to := nonPromoR.PopLSB()
		from := Square(int(to) - pushDir - 1)
		captured := p.PieceAt(to)
		if worthConsidering(PieceValue[captured.Type()]) {
			ml.Add(NewMove(from, to, pawnPiece, captured))
		}
	}

	promoL := attackL & promotionRank
	for promoL != 0 {
		to := promoL.PopLSB()
		from := Square(int(to) - pushDir + 1)
		addPromotions(ml, from, to, pawnPiece, p.PieceAt(to))
	}

	promoR := attackR & promotionRank
	for promoR != 0 {
		to := promoR.PopLSB()
		from := Square(int(to) - pushDir - 1)
		addPromotions(ml, from, to, pawnPiece, p.PieceAt(to))
	}

	empty := ^occupied
	var push1 Bitboard
	if us == White {
		push1 = pawns.North() & empty & Rank8
	} else {
		push1 = pawns.South() & empty & Rank1
	}
	for push1 != 0 {
		to := push1.PopLSB()
		from := Square(int(to) - pushDir)
		addPromotions(ml, from, to, pawnPiece, NoPiece)
	}

	if p.EnPassant != NoSquare {
		epBB := SquareBB(p.EnPassant)
		var epAttackers Bitboard
		if us == White {
			epAttackers = (epBB.SouthWest() | epBB.SouthEast()) & pawns
		} else {
			epAttackers = (epBB.NorthWest() | epBB.NorthEast()) & pawns
		}
		capturedPawn := NewPiece(Pawn, them)
		for epAttackers != 0 {
			from := epAttackers.PopLSB()
			ml.Add(NewEnPassant(from, p.EnPassant, pawnPiece, capturedPawn))
		}
	}

	addCaptures := func(pt PieceType, attacksFn func(Square, Bitboard) Bitboard) {
		pieces := p.Pieces[us][pt]
		piece := NewPiece(pt, us)
		for pieces != 0 {
			from := pieces.PopLSB()
			attacks := attacksFn(from, occupied) & enemies
			for attacks != 0 {
				to := attacks.PopLSB()
				captured := p.PieceAt(to)
				if worthConsidering(PieceValue[captured.Type()]) {
					ml.Add(NewMove(from, to, piece, captured))
				}
			}
		}
	}

	addCaptures(Knight, func(sq Square, _ Bitboard) Bitboard { return KnightAttacks(sq) })
	addCaptures(Bishop, BishopAttacks)
	addCaptures(Rook, RookAttacks)
	addCaptures(Queen, QueenAttacks)

	from := p.KingSquare[us]
	attacks := KingAttacks(from) & enemies
	king := NewPiece(King, us)
	for attacks != 0 {
		to := attacks.PopLSB()
		captured := p.PieceAt(to)
		if worthConsidering(PieceValue[captured.Type()]) {
			ml.Add(NewMove(from, to, king, captured))
		}
	}
}

// deltaPruningMargin absorbs the uncertainty in delta pruning's material
// estimate (a pawn's worth of slack for positional factors SEE ignores).
const deltaPruningMargin = 100

// generateEvasions generates moves when the side to move is in check:
// king moves away from attack, captures of a lone checker, and blocks
// along the checking ray. A double check only admits king moves.
func (p *Position) generateEvasions(ml *MoveList) {
	us := p.SideToMove
	them := us.Other()
	ksq := p.KingSquare[us]

	p.generateKingMoves(ml, us)

	if p.Checkers.PopCount() > 1 {
		return
	}

	checkerSq := p.Checkers.LSB()
	checkerPiece := p.PieceAt(checkerSq)

	captureSquares := SquareBB(checkerSq)
	blockSquares := Between(checkerSq, ksq)

	pawns := p.Pieces[us][Pawn]
	pawnPiece := NewPiece(Pawn, us)
	empty := ^p.AllOccupied
	var pushDir int
	var promotionRank Bitboard
	if us == White {
		pushDir = 8
		promotionRank = Rank8
	} else {
		pushDir = -8
		promotionRank = Rank1
	}

	addPawnMove := func(from, to Square) {
		captured := p.PieceAt(to)
		if SquareBB(to)&promotionRank != 0 {
			addPromotions(ml, from, to, pawnPiece, captured)
		} else {
			ml.Add(NewMove(from, to, pawnPiece, captured))
		}
	}

	// Pawn captures of the checker.
	target := SquareBB(checkerSq)
	var capL, capR Bitboard
	if us == White {
		capL = pawns.NorthWest() & target
		capR = pawns.NorthEast() & target
	} else {
		capL = pawns.SouthWest() & target
		capR = pawns.SouthEast() & target
	}
	for capL != 0 {
		capL.PopLSB()
		from := Square(int(checkerSq) - pushDir + 1)
		addPawnMove(from, checkerSq)
	}
	for capR != 0 {
		capR.PopLSB()
		from := Square(int(checkerSq) - pushDir - 1)
		addPawnMove(from, checkerSq)
	}

	// En passant capture of a checking pawn.
	if p.EnPassant != NoSquare && checkerPiece.Type() == Pawn {
		var epAttackers Bitboard
		epBB := SquareBB(p.EnPassant)
		if us == White {
			epAttackers = (epBB.SouthWest() | epBB.SouthEast()) & pawns
		} else {
			epAttackers = (epBB.NorthWest() | epBB.NorthEast()) & pawns
		}
		capturedPawn := NewPiece(Pawn, them)
		for epAttackers != 0 {
			from := epAttackers.PopLSB()
			ml.Add(NewEnPassant(from, p.EnPassant, pawnPiece, capturedPawn))
		}
	}

	// Blocks along the checking ray (and pushes that land on the checker
	// itself are already handled above, so only interior squares here).
	blocks := blockSquares
	for blocks != 0 {
		to := blocks.PopLSB()
		if SquareBB(to)&empty == 0 {
			continue
		}
		push1 := Bitboard(0)
		if us == White {
			push1 = pawns.North() & empty
		} else {
			push1 = pawns.South() & empty
		}
		if push1&SquareBB(to) != 0 {
			from := Square(int(to) - pushDir)
			addPawnMove(from, to)
		}
		push2 := Bitboard(0)
		if us == White {
			push2 = (pawns.North() & empty & Rank3).North() & empty
		} else {
			push2 = (pawns.South() & empty & Rank6).South() & empty
		}
		if push2&SquareBB(to) != 0 {
			from := Square(int(to) - 2*pushDir)
			ml.Add(NewMove(from, to, pawnPiece, NoPiece))
		}
	}

	// Non-pawn, non-king pieces that can reach a capture or block square.
	targets := captureSquares | blockSquares
	addFrom := func(pt PieceType, attacksFn func(Square, Bitboard) Bitboard) {
		pieces := p.Pieces[us][pt]
		piece := NewPiece(pt, us)
		for pieces != 0 {
			from := pieces.PopLSB()
			reach := attacksFn(from, p.AllOccupied) & targets
			p.addMovesFrom(ml, from, piece, reach)
		}
	}
	addFrom(Knight, func(sq Square, _ Bitboard) Bitboard { return KnightAttacks(sq) })
	addFrom(Bishop, BishopAttacks)
	addFrom(Rook, RookAttacks)
	addFrom(Queen, QueenAttacks)
}

// generateQuietChecks appends non-capturing, non-promoting moves that
// give check to the enemy king: direct checks (piece attacks the enemy
// king square from its destination) only, discovered checks are left to
// full-width search depths where they show up naturally via legality.
func (p *Position) generateQuietChecks(ml *MoveList) {
	us := p.SideToMove
	them := us.Other()
	eksq := p.KingSquare[them]
	occupied := p.AllOccupied
	empty := ^occupied

	addFrom := func(pt PieceType, attacksFn func(Square, Bitboard) Bitboard, checkMask func(Square) Bitboard) {
		pieces := p.Pieces[us][pt]
		piece := NewPiece(pt, us)
		for pieces != 0 {
			from := pieces.PopLSB()
			quietTargets := attacksFn(from, occupied) & empty
			for quietTargets != 0 {
				to := quietTargets.PopLSB()
				if checkMask(to)&SquareBB(eksq) != 0 {
					ml.Add(NewMove(from, to, piece, NoPiece))
				}
			}
		}
	}

	addFrom(Knight, func(sq Square, _ Bitboard) Bitboard { return KnightAttacks(sq) },
		func(to Square) Bitboard { return KnightAttacks(to) })
	addFrom(Bishop, BishopAttacks, func(to Square) Bitboard { return BishopAttacks(to, occupied) })
	addFrom(Rook, RookAttacks, func(to Square) Bitboard { return RookAttacks(to, occupied) })
	addFrom(Queen, QueenAttacks, func(to Square) Bitboard { return QueenAttacks(to, occupied) })
}

// filterLegalMoves filters out illegal moves (those that leave king in check).
func (p *Position) filterLegalMoves(ml *MoveList) *MoveList {
	result := NewMoveList()

	for i := 0; i < ml.Len(); i++ {
		m := ml.Get(i)
		if p.MakeMove(m) {
			p.UnmakeMove()
			result.Add(m)
		}
	}

	return result
}

// HasLegalMoves returns true if the side to move has any legal moves.
func (p *Position) HasLegalMoves() bool {
	ml := NewMoveList()
	p.generateAllMoves(ml)
	for i := 0; i < ml.Len(); i++ {
		if p.MakeMove(ml.Get(i)) {
			p.UnmakeMove()
			return true
		}
	}
	return false
}

// IsCheckmate returns true if the position is checkmate.
func (p *Position) IsCheckmate() bool {
	return p.InCheck() && !p.HasLegalMoves()
}

// IsStalemate returns true if the position is stalemate.
func (p *Position) IsStalemate() bool {
	return !p.InCheck() && !p.HasLegalMoves()
}

// IsDraw returns true if the position is a draw (stalemate, 50-move,
// threefold repetition, or insufficient material).
func (p *Position) IsDraw() bool {
	if p.IsStalemate() {
		return true
	}
	if p.HalfMoveClock >= 100 {
		return true
	}
	if p.Repetitions() >= 2 {
		return true
	}
	return p.IsInsufficientMaterial()
}

// IsInsufficientMaterial returns true if neither side can checkmate.
func (p *Position) IsInsufficientMaterial() bool {
	if p.Pieces[White][Pawn]|p.Pieces[Black][Pawn] != 0 ||
		p.Pieces[White][Rook]|p.Pieces[Black][Rook] != 0 ||
		p.Pieces[White][Queen]|p.Pieces[Black][Queen] != 0 {
		return false
	}

	wKnights := p.Pieces[White][Knight].PopCount()
	wBishops := p.Pieces[White][Bishop].PopCount()
	bKnights := p.Pieces[Black][Knight].PopCount()
	bBishops := p.Pieces[Black][Bishop].PopCount()

	if wKnights+wBishops+bKnights+bBishops == 0 {
		return true
	}
	if wKnights+wBishops <= 1 && bKnights+bBishops == 0 {
		return true
	}
	if bKnights+bBishops <= 1 && wKnights+wBishops == 0 {
		return true
	}

	return false
}

// castlingDeltaMask returns the castling rights touching sq loses, used to
// update CastlingRights on any move whose from/to square is a king's home
// square or a rook's original corner.
func castlingDeltaMask(sq Square) CastlingRights {
	switch sq {
	case E1:
		return WhiteKingSideCastle | WhiteQueenSideCastle
	case A1:
		return WhiteQueenSideCastle
	case H1:
		return WhiteKingSideCastle
	case E8:
		return BlackKingSideCastle | BlackQueenSideCastle
	case A8:
		return BlackQueenSideCastle
	case H8:
		return BlackKingSideCastle
	default:
		return NoCastling
	}
}

// MakeMove applies a pseudo-legal move. If it would leave the mover's own
// king in check, the move is reversed and MakeMove returns false; the
// position is left unchanged from the caller's point of view either way
// once UnmakeMove is (or, on rejection, already was) called.
func (p *Position) MakeMove(m Move) bool {
	us := p.SideToMove
	them := us.Other()
	from, to := m.From(), m.To()
	piece := m.Piece()
	pt := piece.Type()

	u := Undo{
		Move:           m,
		CapturedPiece:  NoPiece,
		CastlingRights: p.CastlingRights,
		EnPassant:      p.EnPassant,
		HalfMoveClock:  p.HalfMoveClock,
		PieceHash:      p.PieceHash,
		Checkers:       p.Checkers,
		KingSquare:     p.KingSquare,
		Score:          p.Score,
		MatIndex:       p.MatIndex,
	}

	p.EnPassant = NoSquare

	if m.IsEnPassant() {
		var capturedSq Square
		if us == White {
			capturedSq = to - 8
		} else {
			capturedSq = to + 8
		}
		u.CapturedPiece = p.removePiece(capturedSq)
	} else if m.IsCapture() {
		u.CapturedPiece = p.removePiece(to)
	}

	p.movePiece(from, to)

	if m.IsPromotion() {
		promoPt := m.Promotion()
		p.removePiece(to)
		p.setPiece(NewPiece(promoPt, us), to)
	}

	if m.IsCastling() {
		var rookFrom, rookTo Square
		if to > from {
			rookFrom = NewSquare(7, from.Rank())
			rookTo = NewSquare(5, from.Rank())
		} else {
			rookFrom = NewSquare(0, from.Rank())
			rookTo = NewSquare(3, from.Rank())
		}
		p.movePiece(rookFrom, rookTo)
	}

	p.CastlingRights &^= castlingDeltaMask(from) | castlingDeltaMask(to)

	if pt == Pawn && abs(int(to)-int(from)) == 16 {
		p.EnPassant = Square((int(from) + int(to)) / 2)
	}

	irreversible := pt == Pawn || u.CapturedPiece != NoPiece
	if irreversible {
		p.HalfMoveClock = 0
	} else {
		p.HalfMoveClock++
	}

	if us == Black {
		p.FullMoveNumber++
	}

	p.SideToMove = them
	p.Ply++
	p.UpdateCheckers()

	p.undo = append(p.undo, u)
	p.pushHistory(irreversible || p.CastlingRights != u.CastlingRights)

	if p.IsSquareAttacked(p.KingSquare[us], them) {
		p.UnmakeMove()
		return false
	}
	return true
}

// UnmakeMove undoes the most recent MakeMove.
func (p *Position) UnmakeMove() {
	n := len(p.undo)
	u := p.undo[n-1]
	p.undo = p.undo[:n-1]
	p.popHistory()

	m := u.Move
	them := p.SideToMove
	us := them.Other()
	from, to := m.From(), m.To()

	if m.IsPromotion() {
		promoPt := m.Promotion()
		p.Pieces[us][promoPt] &^= SquareBB(to)
		p.Occupied[us] &^= SquareBB(to)
		p.AllOccupied &^= SquareBB(to)
		p.Pieces[us][Pawn] |= SquareBB(to)
		p.Occupied[us] |= SquareBB(to)
		p.AllOccupied |= SquareBB(to)
	}

	// Move piece back (bitboards only; hash/score/matIndex are restored
	// wholesale below from the snapshot taken at make time). m.Piece() is
	// always the pre-promotion pawn even for a promotion move.
	moveBB := SquareBB(from) | SquareBB(to)
	p.Pieces[us][m.Piece().Type()] ^= moveBB
	p.Occupied[us] ^= moveBB
	p.AllOccupied ^= moveBB

	if m.IsCastling() {
		var rookFrom, rookTo Square
		if to > from {
			rookFrom = NewSquare(7, from.Rank())
			rookTo = NewSquare(5, from.Rank())
		} else {
			rookFrom = NewSquare(0, from.Rank())
			rookTo = NewSquare(3, from.Rank())
		}
		rookBB := SquareBB(rookFrom) | SquareBB(rookTo)
		p.Pieces[us][Rook] ^= rookBB
		p.Occupied[us] ^= rookBB
		p.AllOccupied ^= rookBB
	}

	if u.CapturedPiece != NoPiece {
		var capturedSq Square
		if m.IsEnPassant() {
			if us == White {
				capturedSq = to - 8
			} else {
				capturedSq = to + 8
			}
		} else {
			capturedSq = to
		}
		bb := SquareBB(capturedSq)
		c := u.CapturedPiece.Color()
		pt := u.CapturedPiece.Type()
		p.Pieces[c][pt] |= bb
		p.Occupied[c] |= bb
		p.AllOccupied |= bb
	}

	p.CastlingRights = u.CastlingRights
	p.EnPassant = u.EnPassant
	p.HalfMoveClock = u.HalfMoveClock
	p.PieceHash = u.PieceHash
	p.Checkers = u.Checkers
	p.KingSquare = u.KingSquare
	p.Score = u.Score
	p.MatIndex = u.MatIndex
	p.SideToMove = us
	p.Ply--
	if us == Black {
		p.FullMoveNumber--
	}
}
