// Package dynlist implements a ragged adjacency array: N owners, each with a
// fixed-capacity run of ids inside one contiguous buffer (CSR layout).
//
// Lists are built in two passes. The caller first counts the entries of every
// owner and calls Allocate, then fills each owner through Append or SetList.
// Allocation must complete before any fill begins; after that each owner's
// write cursor is independent of every other owner's.
package dynlist

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
)

// ErrCapacity is returned when an owner is filled past its allocated count.
var ErrCapacity = errors.New("dynlist: owner capacity exceeded")

// Count is the per-owner entry count type.
type Count interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64 | ~int32 | ~int64
}

// Index is the stored id type.
type Index interface {
	~int32 | ~int64 | ~uint32 | ~uint64
}

// List is a ragged array of ids of type E with per-owner counts of type C.
type List[C Count, E Index] struct {
	counts  []C
	offsets []int // offsets[i] is the start of owner i; len == owners+1
	cursor  []C   // fill position per owner
	data    []E
}

// New returns an unallocated list for the given number of owners.
func New[C Count, E Index](owners int) *List[C, E] {
	return &List[C, E]{
		counts:  make([]C, owners),
		offsets: make([]int, owners+1),
		cursor:  make([]C, owners),
	}
}

// Allocate sizes every owner's run from counts and resets all cursors.
func (l *List[C, E]) Allocate(counts []C) error {
	if len(counts) != len(l.counts) {
		return fmt.Errorf("dynlist: %d counts supplied for %d owners", len(counts), len(l.counts))
	}
	total := 0
	for i, c := range counts {
		l.counts[i] = c
		l.offsets[i] = total
		l.cursor[i] = 0
		total += int(c)
	}
	l.offsets[len(counts)] = total
	l.data = make([]E, total)
	return nil
}

// Append writes id at owner's cursor and advances it.
func (l *List[C, E]) Append(owner int, id E) error {
	if l.cursor[owner] >= l.counts[owner] {
		return errors.Wrapf(ErrCapacity, "owner %d holds %d entries", owner, l.counts[owner])
	}
	l.data[l.offsets[owner]+int(l.cursor[owner])] = id
	l.cursor[owner]++
	return nil
}

// SetList replaces the whole run of owner. len(ids) must equal the allocated count.
func (l *List[C, E]) SetList(owner int, ids []E) error {
	if len(ids) != int(l.counts[owner]) {
		return fmt.Errorf("dynlist: owner %d allocated %d entries, got %d", owner, l.counts[owner], len(ids))
	}
	copy(l.data[l.offsets[owner]:l.offsets[owner+1]], ids)
	l.cursor[owner] = l.counts[owner]
	return nil
}

// Owners returns the number of owners.
func (l *List[C, E]) Owners() int { return len(l.counts) }

// Len returns the total number of stored ids.
func (l *List[C, E]) Len() int { return len(l.data) }

// Count returns the number of entries allocated for owner.
func (l *List[C, E]) Count(owner int) C { return l.counts[owner] }

// List returns owner's run. The slice aliases the backing buffer.
func (l *List[C, E]) List(owner int) []E {
	return l.data[l.offsets[owner]:l.offsets[owner+1]]
}

// Verify checks that counts sum to the buffer length, that every owner was
// completely filled, and that every id lies in [0, limit).
func (l *List[C, E]) Verify(limit int) error {
	total := 0
	for i, c := range l.counts {
		total += int(c)
		if l.cursor[i] != c {
			return fmt.Errorf("dynlist: owner %d filled %d of %d entries", i, l.cursor[i], c)
		}
	}
	if total != len(l.data) {
		return fmt.Errorf("dynlist: counts sum to %d but buffer holds %d", total, len(l.data))
	}
	for i := range l.counts {
		for j, id := range l.List(i) {
			if int64(id) < 0 || int64(id) >= int64(limit) {
				return fmt.Errorf("dynlist: owner %d entry %d id %d outside [0,%d)", i, j, id, limit)
			}
		}
	}
	return nil
}

// DeepCopy returns an independent copy.
func (l *List[C, E]) DeepCopy() *List[C, E] {
	if l == nil {
		return nil
	}
	return &List[C, E]{
		counts:  append([]C(nil), l.counts...),
		offsets: append([]int(nil), l.offsets...),
		cursor:  append([]C(nil), l.cursor...),
		data:    append([]E(nil), l.data...),
	}
}

// Serialize flattens the list to little-endian (count, ids[count]) records in
// owner order.
func (l *List[C, E]) Serialize() []byte {
	var c C
	var e E
	buf := make([]byte, 0, len(l.counts)*binary.Size(c)+len(l.data)*binary.Size(e))
	for i, n := range l.counts {
		buf, _ = binary.Append(buf, binary.LittleEndian, n)
		if n > 0 {
			buf, _ = binary.Append(buf, binary.LittleEndian, l.List(i))
		}
	}
	return buf
}

// Deserialize parses records produced by Serialize for a known owner count.
func Deserialize[C Count, E Index](buf []byte, owners int) (*List[C, E], error) {
	var c C
	var e E
	cSize, eSize := binary.Size(c), binary.Size(e)

	// first pass: counts
	counts := make([]C, owners)
	offset := 0
	for i := 0; i < owners; i++ {
		if offset+cSize > len(buf) {
			return nil, fmt.Errorf("dynlist: buffer truncated reading count of owner %d at byte %d", i, offset)
		}
		if _, err := binary.Decode(buf[offset:], binary.LittleEndian, &counts[i]); err != nil {
			return nil, errors.Wrapf(err, "dynlist: owner %d count", i)
		}
		offset += cSize + int(counts[i])*eSize
		if offset > len(buf) {
			return nil, fmt.Errorf("dynlist: buffer truncated in ids of owner %d (need %d bytes, have %d)", i, offset, len(buf))
		}
	}
	if offset != len(buf) {
		return nil, fmt.Errorf("dynlist: %d trailing bytes after %d owners", len(buf)-offset, owners)
	}

	l := New[C, E](owners)
	if err := l.Allocate(counts); err != nil {
		return nil, err
	}
	// second pass: ids
	offset = 0
	for i := 0; i < owners; i++ {
		offset += cSize
		ids := make([]E, counts[i])
		if len(ids) > 0 {
			if _, err := binary.Decode(buf[offset:], binary.LittleEndian, ids); err != nil {
				return nil, errors.Wrapf(err, "dynlist: owner %d ids", i)
			}
		}
		offset += len(ids) * eSize
		if err := l.SetList(i, ids); err != nil {
			return nil, err
		}
	}
	return l, nil
}
