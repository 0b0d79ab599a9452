package engine

import (
	"unsafe"

	"github.com/kestrelchess/engine/internal/board"
)

// PawnStruct is a recomputed snapshot of both sides' pawn skeleton: which
// pawns are doubled, isolated, backwards or passed, the frontmost rank
// reached on each file, and which squares are attacked by a pawn now or
// could become attacked by one advancing later (used for minor-piece
// outpost scoring). Indexed by board.White/board.Black throughout.
type PawnStruct struct {
	PawnHash uint32

	Passed    board.Bitboard
	Doubled   board.Bitboard
	Isolated  board.Bitboard
	Backwards board.Bitboard

	// Ranks[c][file+1] is White's highest / Black's lowest occupied rank
	// (0-7) on that file; files 0 and 9 are sentinels (always 0 for
	// White, always 7 for Black) so edge-file neighbor lookups need no
	// bounds check.
	Ranks [2][10]int

	AttackedByPawn     [2]board.Bitboard
	SafeFromPawnAttack [2]board.Bitboard
}

// clear resets a PawnStruct to the state ReadPawnStruct starts from.
func (ps *PawnStruct) clear() {
	*ps = PawnStruct{}
	ps.SafeFromPawnAttack[board.White] = ^board.Bitboard(0)
	ps.SafeFromPawnAttack[board.Black] = ^board.Bitboard(0)
	for file := 0; file < 10; file++ {
		ps.Ranks[board.White][file] = 0
		ps.Ranks[board.Black][file] = 7
	}
}

// ReadPawnStruct recomputes the full pawn skeleton from a position's pawn
// bitboards. Two passes: the first records per-file frontmost ranks and
// pawn-attack/outpost-safety bitboards; the second classifies each pawn
// against its neighbors using the ranks recorded in the first pass.
func ReadPawnStruct(pos *board.Position, pawnHash uint32) PawnStruct {
	var ps PawnStruct
	ps.clear()
	ps.PawnHash = pawnHash

	whitePawns := pos.Pieces[board.White][board.Pawn]
	blackPawns := pos.Pieces[board.Black][board.Pawn]

	// First pass: frontmost ranks, pawn attacks, outpost safety.
	for bb := whitePawns; bb != 0; {
		sq := bb.PopLSB()
		file := sq.File() + 1
		rank := sq.Rank()
		if rank > ps.Ranks[board.White][file] {
			ps.Ranks[board.White][file] = rank
		}

		ps.AttackedByPawn[board.White] |= board.PawnAttacks(sq, board.White)

		rayNorth := board.SquareBB(sq).North().NorthFill()
		ps.SafeFromPawnAttack[board.Black] &^= rayNorth.East() | rayNorth.West()
	}

	for bb := blackPawns; bb != 0; {
		sq := bb.PopLSB()
		file := sq.File() + 1
		rank := sq.Rank()
		if rank < ps.Ranks[board.Black][file] {
			ps.Ranks[board.Black][file] = rank
		}

		ps.AttackedByPawn[board.Black] |= board.PawnAttacks(sq, board.Black)

		raySouth := board.SquareBB(sq).South().SouthFill()
		ps.SafeFromPawnAttack[board.White] &^= raySouth.East() | raySouth.West()
	}

	// Second pass: classify each pawn against the recorded ranks.
	for bb := whitePawns; bb != 0; {
		sq := bb.PopLSB()
		file := sq.File() + 1
		rank := sq.Rank()
		single := board.SquareBB(sq)

		if board.SquareBB(sq).North().NorthFill()&whitePawns != 0 {
			ps.Doubled |= single
		}

		if ps.Ranks[board.White][file-1] == 0 && ps.Ranks[board.White][file+1] == 0 {
			ps.Isolated |= single
		} else if rank < ps.Ranks[board.White][file-1] && rank < ps.Ranks[board.White][file+1] {
			ps.Backwards |= single
		}

		if span := single.North().NorthFill(); (span|span.East()|span.West())&blackPawns == 0 {
			ps.Passed |= single
		}
	}

	for bb := blackPawns; bb != 0; {
		sq := bb.PopLSB()
		file := sq.File() + 1
		rank := sq.Rank()
		single := board.SquareBB(sq)

		if board.SquareBB(sq).South().SouthFill()&blackPawns != 0 {
			ps.Doubled |= single
		}

		if ps.Ranks[board.Black][file-1] == 7 && ps.Ranks[board.Black][file+1] == 7 {
			ps.Isolated |= single
		} else if rank > ps.Ranks[board.Black][file-1] && rank > ps.Ranks[board.Black][file+1] {
			ps.Backwards |= single
		}

		if span := single.South().SouthFill(); (span|span.East()|span.West())&whitePawns == 0 {
			ps.Passed |= single
		}
	}

	return ps
}

// PawnCacheEntry stores a recomputed pawn skeleton, so evaluation code can
// read outposts/open-files without recomputing ReadPawnStruct on a hit.
// MgScore/EgScore hold whatever the caller passes to Store; the evaluator
// stores zeros there and does not read them.
type PawnCacheEntry struct {
	Key     uint32
	Valid   bool
	Struct  PawnStruct
	MgScore int16
	EgScore int16
}

// PawnCache is a hash table caching pawn-structure evaluations keyed by
// the high 32 bits of PieceHash (the pawn-only Zobrist component). Not
// safe for concurrent use: each search thread owns a private PawnCache
// (see DESIGN.md), since pawn-cache misses are idempotent but a shared
// single-writer table is not safe under lazy SMP without locking.
type PawnCache struct {
	entries []PawnCacheEntry
	mask    uint64
}

// NewPawnCache creates a new pawn hash table with the given size in MB.
func NewPawnCache(sizeMB int) *PawnCache {
	entrySize := int(unsafe.Sizeof(PawnCacheEntry{}))
	numEntries := (sizeMB * 1024 * 1024) / entrySize
	size := 1
	for size*2 <= numEntries {
		size *= 2
	}
	if size == 0 {
		size = 1
	}

	return &PawnCache{
		entries: make([]PawnCacheEntry, size),
		mask:    uint64(size - 1),
	}
}

// Probe looks up a pawn-structure evaluation by pawn hash. Returns the
// cached skeleton and scores if present.
func (pc *PawnCache) Probe(pawnHash uint32) (PawnCacheEntry, bool) {
	entry := &pc.entries[uint64(pawnHash)&pc.mask]
	if entry.Valid && entry.Key == pawnHash {
		return *entry, true
	}
	return PawnCacheEntry{}, false
}

// Store saves a freshly computed pawn-structure evaluation.
func (pc *PawnCache) Store(pawnHash uint32, ps PawnStruct, mg, eg int) {
	entry := &pc.entries[uint64(pawnHash)&pc.mask]
	entry.Key = pawnHash
	entry.Valid = true
	entry.Struct = ps
	entry.MgScore = int16(mg)
	entry.EgScore = int16(eg)
}

// Clear clears the pawn cache.
func (pc *PawnCache) Clear() {
	for i := range pc.entries {
		pc.entries[i] = PawnCacheEntry{}
	}
}
