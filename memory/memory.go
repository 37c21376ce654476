// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package memory implements the segmented MIPS address space.
//
// The address space is a fixed table of disjoint segments. Each segment is
// backed by sparse 4KiB pages that are allocated on the first write, so the
// multi-gigabyte segments of the MIPS layout cost nothing until touched.
// Multi-byte values are stored least significant byte first.
//
// Accesses outside every segment are not errors: reads return zero and
// writes are ignored.
package memory

import (
	"errors"
	"fmt"
	"iter"
	"maps"
	"slices"

	"github.com/ezrec/mumips/translate"
)

var f = translate.From

// MIPS memory layout. Bounds are inclusive.
const (
	MEM_TEXT_BEGIN  = uint32(0x00400000)
	MEM_TEXT_END    = uint32(0x0FFFFFFF)
	MEM_DATA_BEGIN  = uint32(0x10010000)
	MEM_DATA_END    = uint32(0x7FFFFFFF)
	MEM_KTEXT_BEGIN = uint32(0x80000000)
	MEM_KTEXT_END   = uint32(0x8FFFFFFF)
	MEM_KDATA_BEGIN = uint32(0x90000000)
	MEM_KDATA_END   = uint32(0xFFFEFFFF)

	// The stack grows down from the top of the data segment.
	MEM_STACK_BEGIN = uint32(0x7FFFFFFF)
	MEM_STACK_END   = uint32(0x10010000)
)

const (
	PAGE_SHIFT = 12
	PAGE_SIZE  = 1 << PAGE_SHIFT
	PAGE_MASK  = PAGE_SIZE - 1
)

var _memory_defines = map[string]string{
	"MEM_TEXT_BEGIN":  fmt.Sprintf("0x%08x", MEM_TEXT_BEGIN),
	"MEM_TEXT_END":    fmt.Sprintf("0x%08x", MEM_TEXT_END),
	"MEM_DATA_BEGIN":  fmt.Sprintf("0x%08x", MEM_DATA_BEGIN),
	"MEM_DATA_END":    fmt.Sprintf("0x%08x", MEM_DATA_END),
	"MEM_KTEXT_BEGIN": fmt.Sprintf("0x%08x", MEM_KTEXT_BEGIN),
	"MEM_KTEXT_END":   fmt.Sprintf("0x%08x", MEM_KTEXT_END),
	"MEM_KDATA_BEGIN": fmt.Sprintf("0x%08x", MEM_KDATA_BEGIN),
	"MEM_KDATA_END":   fmt.Sprintf("0x%08x", MEM_KDATA_END),
	"MEM_STACK_BEGIN": fmt.Sprintf("0x%08x", MEM_STACK_BEGIN),
	"MEM_STACK_END":   fmt.Sprintf("0x%08x", MEM_STACK_END),
}

var (
	ErrSegmentOverlap = errors.New(f("segment overlap"))
	ErrSegmentBounds  = errors.New(f("segment bounds inverted"))
)

// Layout is the standard MIPS segment table, in declaration order.
var Layout = []Range{
	{Name: "text", Begin: MEM_TEXT_BEGIN, End: MEM_TEXT_END},
	{Name: "data", Begin: MEM_DATA_BEGIN, End: MEM_DATA_END},
	{Name: "kdata", Begin: MEM_KDATA_BEGIN, End: MEM_KDATA_END},
	{Name: "ktext", Begin: MEM_KTEXT_BEGIN, End: MEM_KTEXT_END},
}

// Range describes a segment's inclusive address bounds.
type Range struct {
	Name  string
	Begin uint32
	End   uint32
}

// Contains returns true if addr lies within the range.
func (r Range) Contains(addr uint32) bool {
	return addr >= r.Begin && addr <= r.End
}

// Segment is a contiguous address range with its own backing pages.
type Segment struct {
	Range
	pages map[uint32][]byte
}

// Pages returns the number of allocated backing pages.
func (seg *Segment) Pages() int {
	return len(seg.pages)
}

func (seg *Segment) readByte(addr uint32) byte {
	offset := addr - seg.Begin
	page, ok := seg.pages[offset>>PAGE_SHIFT]
	if !ok {
		return 0
	}
	return page[offset&PAGE_MASK]
}

func (seg *Segment) writeByte(addr uint32, value byte) {
	offset := addr - seg.Begin
	index := offset >> PAGE_SHIFT
	page, ok := seg.pages[index]
	if !ok {
		if value == 0 {
			// Unallocated pages already read as zero.
			return
		}
		page = make([]byte, PAGE_SIZE)
		seg.pages[index] = page
	}
	page[offset&PAGE_MASK] = value
}

// Memory is the simulated address space.
type Memory struct {
	segments []*Segment
}

// NewMemory creates an address space from a segment table.
// Segments must not overlap.
func NewMemory(layout []Range) (mem *Memory, err error) {
	mem = &Memory{}

	for _, r := range layout {
		if r.End < r.Begin {
			err = errors.Join(ErrSegmentBounds, fmt.Errorf("%v", r.Name))
			return nil, err
		}
		for _, seg := range mem.segments {
			if r.Begin <= seg.End && seg.Begin <= r.End {
				err = errors.Join(ErrSegmentOverlap, fmt.Errorf("%v %v", seg.Name, r.Name))
				return nil, err
			}
		}
		mem.segments = append(mem.segments, &Segment{
			Range: r,
			pages: make(map[uint32][]byte),
		})
	}

	return
}

// NewMips creates the standard MIPS address space.
func NewMips() (mem *Memory) {
	mem, err := NewMemory(Layout)
	if err != nil {
		panic(err)
	}
	return
}

// Defines returns the memory layout constants by name.
func (mem *Memory) Defines() iter.Seq2[string, string] {
	return maps.All(_memory_defines)
}

// Segments iterates over the segments in table order.
func (mem *Memory) Segments() iter.Seq[*Segment] {
	return slices.Values(mem.segments)
}

// Segment locates the segment containing addr.
func (mem *Memory) Segment(addr uint32) (seg *Segment, ok bool) {
	for _, seg = range mem.segments {
		if seg.Contains(addr) {
			return seg, true
		}
	}
	return nil, false
}

// Reset zeroes every segment.
func (mem *Memory) Reset() {
	for _, seg := range mem.segments {
		clear(seg.pages)
	}
}

// read assembles size bytes, least significant first.
func (mem *Memory) read(addr uint32, size int) (value uint32) {
	seg, ok := mem.Segment(addr)
	if !ok {
		return
	}

	for n := range size {
		at := addr + uint32(n)
		if at < addr || !seg.Contains(at) {
			break
		}
		value |= uint32(seg.readByte(at)) << (8 * n)
	}

	return
}

// write stores size bytes, least significant first.
func (mem *Memory) write(addr uint32, value uint32, size int) {
	seg, ok := mem.Segment(addr)
	if !ok {
		return
	}

	for n := range size {
		at := addr + uint32(n)
		if at < addr || !seg.Contains(at) {
			break
		}
		seg.writeByte(at, byte(value>>(8*n)))
	}
}

// Read8 reads a byte.
func (mem *Memory) Read8(addr uint32) uint8 {
	return uint8(mem.read(addr, 1))
}

// Read16 reads a little-endian halfword.
func (mem *Memory) Read16(addr uint32) uint16 {
	return uint16(mem.read(addr, 2))
}

// Read32 reads a little-endian word.
func (mem *Memory) Read32(addr uint32) uint32 {
	return mem.read(addr, 4)
}

// Write8 writes a byte.
func (mem *Memory) Write8(addr uint32, value uint8) {
	mem.write(addr, uint32(value), 1)
}

// Write16 writes a little-endian halfword.
func (mem *Memory) Write16(addr uint32, value uint16) {
	mem.write(addr, uint32(value), 2)
}

// Write32 writes a little-endian word.
func (mem *Memory) Write32(addr uint32, value uint32) {
	mem.write(addr, value, 4)
}
