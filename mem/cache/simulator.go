// Package cache simulates a set-associative cache with LRU replacement.
// It classifies a stream of addresses into hits and misses; it stores no
// data.
package cache

import (
	"github.com/tracelab/gemmcache/mem/addressing"
)

// A Line holds the tag of one cached block.
type Line struct {
	Tag   uint64
	Valid bool
}

// A Set is the group of lines an address can be placed in. Lines are kept
// in recency order, most recently used first, so the LRU victim is always
// the tail.
type Set struct {
	Lines []Line
}

// lookup returns the position of tag in the set, or -1.
func (s *Set) lookup(tag uint64) int {
	for i, line := range s.Lines {
		if line.Valid && line.Tag == tag {
			return i
		}
	}

	return -1
}

// touch moves the line at pos to the front.
func (s *Set) touch(pos int) {
	line := s.Lines[pos]
	copy(s.Lines[1:pos+1], s.Lines[:pos])
	s.Lines[0] = line
}

// insert places a new MRU line at the front, evicting the LRU tail if the
// set is at capacity. It reports whether an eviction happened.
func (s *Set) insert(tag uint64, capacity int) bool {
	evicted := false
	if len(s.Lines) >= capacity {
		s.Lines = s.Lines[:len(s.Lines)-1]
		evicted = true
	}

	s.Lines = append(s.Lines, Line{})
	copy(s.Lines[1:], s.Lines)
	s.Lines[0] = Line{Tag: tag, Valid: true}

	return evicted
}

// A Result classifies one access.
type Result struct {
	Hit     bool
	Evicted bool
}

// A Simulator models the cache state. It is not safe for concurrent use;
// the pipeline that feeds it is synchronous.
type Simulator struct {
	geometry Geometry
	mapper   *addressing.Mapper
	sets     []Set
}

// NewSimulator builds a simulator, rejecting malformed geometry before
// any access can be made.
func NewSimulator(geometry Geometry) (*Simulator, error) {
	if err := geometry.Validate(); err != nil {
		return nil, err
	}

	mapper, err := addressing.NewMapper(
		geometry.LineSizeBytes, geometry.NumSets())
	if err != nil {
		return nil, err
	}

	s := &Simulator{
		geometry: geometry,
		mapper:   mapper,
	}

	s.Reset()

	return s, nil
}

// Geometry returns the cache geometry.
func (s *Simulator) Geometry() Geometry {
	return s.geometry
}

// Mapper returns the address mapper derived from the geometry.
func (s *Simulator) Mapper() *addressing.Mapper {
	return s.mapper
}

// Access classifies one address. Hits move their line to the MRU front.
// Misses insert a new MRU line, evicting the LRU line when the set is
// full.
func (s *Simulator) Access(addr uint64) Result {
	tag, setID, _ := s.mapper.Decompose(addr)
	set := &s.sets[setID]

	if pos := set.lookup(tag); pos >= 0 {
		set.touch(pos)
		return Result{Hit: true}
	}

	evicted := set.insert(tag, int(s.geometry.Associativity))

	return Result{Evicted: evicted}
}

// Reset discards all cache state, keeping the geometry.
func (s *Simulator) Reset() {
	s.sets = make([]Set, s.geometry.NumSets())
}

// Sets exposes the per-set state for inspection.
func (s *Simulator) Sets() []Set {
	return s.sets
}
