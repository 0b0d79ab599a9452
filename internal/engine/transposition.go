package engine

import (
	"sync/atomic"

	"github.com/kestrelchess/engine/internal/board"
)

// TTFlag indicates the type of bound stored in the transposition table.
type TTFlag uint8

const (
	TTExact      TTFlag = iota // Exact score
	TTLowerBound               // Failed high (beta cutoff)
	TTUpperBound               // Failed low
)

// TTEntry is the value extracted from a transposition table slot.
type TTEntry struct {
	Key      uint32     // Upper 32 bits of Hash(), used as a lock
	BestMove board.Move // Best move found
	Score    int16      // Score (bounded by Flag, mate-adjusted to ply 0)
	Depth    int8       // Search depth
	Flag     TTFlag     // Type of bound
	Age      uint8      // Generation this slot was last written
}

// ttSlot packs a TTEntry into two atomic 64-bit words so that Probe/Store
// never take a lock. lo holds the lock key and the packed move; hi holds
// score/depth/flag/age. Reads/writes of each word are individually
// tear-free, but the pair as a whole is not: a concurrent Store can leave
// a Probe reading a lo from one write and a hi from another. This is the
// classic lock-free, possibly-inconsistent TT — a mismatched key rejects
// the slot outright, and a mismatched move is caught downstream by the
// legality check in MakeMove.
type ttSlot struct {
	lo atomic.Uint64
	hi atomic.Uint64
}

func packLo(key uint32, m board.Move) uint64 {
	return uint64(key)<<32 | uint64(uint32(m))
}

func unpackLo(lo uint64) (key uint32, m board.Move) {
	return uint32(lo >> 32), board.Move(uint32(lo))
}

func packHi(score int16, depth int8, flag TTFlag, age uint8) uint64 {
	return uint64(uint16(score)) | uint64(uint8(depth))<<16 | uint64(flag)<<24 | uint64(age)<<32
}

func unpackHi(hi uint64) (score int16, depth int8, flag TTFlag, age uint8) {
	score = int16(uint16(hi))
	depth = int8(uint8(hi >> 16))
	flag = TTFlag(uint8(hi >> 24))
	age = uint8(hi >> 32)
	return
}

// TranspositionTable is a fixed-size, power-of-two, direct-mapped hash
// table of search results keyed by Zobrist hash. Replacement is
// overwrite-always: no depth-preferred bucketing. Shared across all
// lazy-SMP search threads without locking.
type TranspositionTable struct {
	entries []ttSlot
	size    uint64
	mask    uint64
	age     atomic.Uint32

	hits   atomic.Uint64
	probes atomic.Uint64
}

// NewTranspositionTable creates a transposition table with the given size in MB.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	entrySize := uint64(16)
	numEntries := (uint64(sizeMB) * 1024 * 1024) / entrySize
	numEntries = roundDownToPowerOf2(numEntries)
	if numEntries == 0 {
		numEntries = 1
	}

	return &TranspositionTable{
		entries: make([]ttSlot, numEntries),
		size:    numEntries,
		mask:    numEntries - 1,
	}
}

// roundDownToPowerOf2 rounds n down to the nearest power of 2.
func roundDownToPowerOf2(n uint64) uint64 {
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return (n + 1) >> 1
}

// Probe looks up a position in the transposition table by full Zobrist
// hash. Returns the slot's contents and true iff the stored lock matches
// the hash's high 32 bits.
func (tt *TranspositionTable) Probe(hash uint64) (TTEntry, bool) {
	tt.probes.Add(1)

	slot := &tt.entries[hash&tt.mask]
	lo := slot.lo.Load()
	hi := slot.hi.Load()

	key, move := unpackLo(lo)
	if key != uint32(hash>>32) {
		return TTEntry{}, false
	}

	score, depth, flag, age := unpackHi(hi)
	tt.hits.Add(1)
	return TTEntry{Key: key, BestMove: move, Score: score, Depth: depth, Flag: flag, Age: age}, true
}

// Record stores a search result, overwrite-always. score is the score
// relative to the node's ply; callers must call AdjustScoreToTT first
// so that stored mate scores are ply-independent (mate-from-root).
func (tt *TranspositionTable) Record(hash uint64, move board.Move, score int, depth int, flag TTFlag) {
	slot := &tt.entries[hash&tt.mask]
	key := uint32(hash >> 32)
	slot.lo.Store(packLo(key, move))
	slot.hi.Store(packHi(int16(score), int8(depth), flag, uint8(tt.age.Load())))
}

// Store is Record with its arguments in (hash, depth, score, flag, move)
// order, kept for call-site symmetry with Probe; the table is
// overwrite-always.
func (tt *TranspositionTable) Store(hash uint64, depth int, score int, flag TTFlag, move board.Move) {
	tt.Record(hash, move, score, depth, flag)
}

// NewSearch increments the age counter for a new search. Age is recorded
// on write but, per the overwrite-always policy, never gates replacement;
// it exists purely for HashFull reporting.
func (tt *TranspositionTable) NewSearch() {
	tt.age.Add(1)
}

// Clear zeroes the table and resets age and statistics.
func (tt *TranspositionTable) Clear() {
	for i := range tt.entries {
		tt.entries[i].lo.Store(0)
		tt.entries[i].hi.Store(0)
	}
	tt.age.Store(0)
	tt.hits.Store(0)
	tt.probes.Store(0)
}

// HashFull returns the permille (parts per thousand) of the table that
// holds an entry from the current search generation.
func (tt *TranspositionTable) HashFull() int {
	used := 0
	sampleSize := 1000
	if uint64(sampleSize) > tt.size {
		sampleSize = int(tt.size)
	}

	age := uint8(tt.age.Load())
	for i := 0; i < sampleSize; i++ {
		hi := tt.entries[i].hi.Load()
		_, depth, _, entryAge := unpackHi(hi)
		if depth > 0 && entryAge == age {
			used++
		}
	}

	return (used * 1000) / sampleSize
}

// HitRate returns the cache hit rate as a percentage.
func (tt *TranspositionTable) HitRate() float64 {
	probes := tt.probes.Load()
	if probes == 0 {
		return 0
	}
	return float64(tt.hits.Load()) / float64(probes) * 100
}

// Size returns the number of entries in the table.
func (tt *TranspositionTable) Size() uint64 {
	return tt.size
}

// AdjustScoreFromTT converts a mate-from-root score read out of the TT
// into a mate-from-this-node score, applied symmetrically in both the
// mate-for-me and mate-for-you directions.
func AdjustScoreFromTT(score int, ply int) int {
	if score > MateScore-MaxPly {
		return score - ply
	}
	if score < -MateScore+MaxPly {
		return score + ply
	}
	return score
}

// AdjustScoreToTT converts a mate-from-this-node score into a
// mate-from-root score suitable for storage, the inverse of
// AdjustScoreFromTT, applied with the same symmetric ±ply correction.
func AdjustScoreToTT(score int, ply int) int {
	if score > MateScore-MaxPly {
		return score + ply
	}
	if score < -MateScore+MaxPly {
		return score - ply
	}
	return score
}
