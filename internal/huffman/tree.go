// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package huffman builds and decodes the canonical Huffman trees used
// throughout LZXD: the main tree, the length tree, the 8-symbol aligned
// offset tree, and the 20-symbol pretree used to delta-update the
// others. Decoding is a single saturated-table lookup: the build
// produces a flat array of size 2^largestLength, so a peek of that
// width maps directly to a symbol without walking any nodes.
package huffman

import "github.com/lzxd-go/lzxd/internal/lzxerr"

// MaxPathLength is the largest path length a tree element may carry.
const MaxPathLength = 16

// CanonicalTree holds the rolling path-length state for a tree whose
// contents are delivered across blocks as deltas (the main and length
// trees). It cannot decode symbols itself — it is a builder for Tree
// instances.
type CanonicalTree struct {
	pathLengths []byte
}

// NewCanonicalTree returns a CanonicalTree with count symbols, all
// initially absent (path length 0), matching the convention that the
// very first tree's delta is computed against an all-zero tree.
func NewCanonicalTree(count int) *CanonicalTree {
	return &CanonicalTree{pathLengths: make([]byte, count)}
}

// PathLengths exposes the current path lengths for diagnostics and
// tests; callers must not mutate the returned slice.
func (c *CanonicalTree) PathLengths() []byte {
	return c.pathLengths
}

// Tree is an immutable decode instance built from a CanonicalTree's
// path lengths: a flat array of size 2^largestLength where every slot
// holds the symbol whose canonical code prefixes that slot's index.
type Tree struct {
	pathLengths   []byte
	largestLength uint
	table         []uint16
}

// FromPathLengths builds a non-empty decode instance directly from a
// set of path lengths, used for the aligned offset tree (read as 8
// verbatim 3-bit lengths, with no delta coding).
func FromPathLengths(pathLengths []byte) (*Tree, error) {
	c := &CanonicalTree{pathLengths: pathLengths}
	t, err := c.buildAllowEmpty()
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, lzxerr.New(lzxerr.EmptyTree)
	}
	return t, nil
}

// CreateInstance builds a non-empty decode instance from the current
// path lengths, failing with EmptyTree if every length is zero.
func (c *CanonicalTree) CreateInstance() (*Tree, error) {
	t, err := c.buildAllowEmpty()
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, lzxerr.New(lzxerr.EmptyTree)
	}
	return t, nil
}

// CreateInstanceAllowEmpty builds a decode instance, returning (nil,
// nil) if every path length is zero — valid for the length tree, whose
// absence only matters if a match later tries to use it.
func (c *CanonicalTree) CreateInstanceAllowEmpty() (*Tree, error) {
	return c.buildAllowEmpty()
}

// buildAllowEmpty is the flat-table construction: find the
// largest path length, allocate a table of that size, then for each
// bit-length in ascending order, write each symbol of that length into
// its 2^(largest-bit) run of consecutive slots in ascending symbol
// order. A short or long final position indicates an invalid set of
// path lengths.
func (c *CanonicalTree) buildAllowEmpty() (*Tree, error) {
	var largest byte
	for _, l := range c.pathLengths {
		if l > largest {
			largest = l
		}
	}
	if largest == 0 {
		return nil, nil
	}

	size := 1 << largest
	table := make([]uint16, size)

	pos := 0
	for bit := byte(1); bit <= largest; bit++ {
		amount := 1 << (largest - bit)
		for code, length := range c.pathLengths {
			if length != bit {
				continue
			}
			if pos+amount > size {
				return nil, lzxerr.New(lzxerr.InvalidPathLengths)
			}
			for i := pos; i < pos+amount; i++ {
				table[i] = uint16(code)
			}
			pos += amount
		}
	}
	if pos != size {
		return nil, lzxerr.New(lzxerr.InvalidPathLengths)
	}

	lengths := make([]byte, len(c.pathLengths))
	copy(lengths, c.pathLengths)
	return &Tree{pathLengths: lengths, largestLength: uint(largest), table: table}, nil
}

// bitReader is the subset of bitstream.Reader the tree package needs;
// declared locally so this package does not depend on the concrete
// bitstream type.
type bitReader interface {
	ReadBits(n uint) (uint32, error)
	PeekBits(n uint) uint32
}

// DecodeElement decodes one symbol: peek largestLength bits, look the
// symbol up in the flat table, then consume exactly that symbol's
// path length. Because the table is saturated, any bit pattern decodes
// to some symbol — the path-length set's validity is what guarantees
// the result is a true prefix code.
func (t *Tree) DecodeElement(r bitReader) (uint16, error) {
	code := t.table[r.PeekBits(t.largestLength)]
	if _, err := r.ReadBits(uint(t.pathLengths[code])); err != nil {
		return 0, err
	}
	return code, nil
}

// PathLength returns the canonical path length of symbol.
func (t *Tree) PathLength(symbol uint16) byte {
	return t.pathLengths[symbol]
}

// UpdateRangeWithPretree applies the delta-update protocol to
// pathLengths[start:end], reading a fresh 20-symbol pretree first.
// Codes 0-16 are per-element deltas modulo 17; 17 and 18 are runs of
// zeros; 19 is a short run of one repeated delta.
func (c *CanonicalTree) UpdateRangeWithPretree(r bitReader, start, end int) error {
	pretreeLengths := make([]byte, 20)
	for i := range pretreeLengths {
		v, err := r.ReadBits(4)
		if err != nil {
			return err
		}
		pretreeLengths[i] = byte(v)
	}
	pretree, err := FromPathLengths(pretreeLengths)
	if err != nil {
		return err
	}

	i := start
	for i < end {
		code, err := pretree.DecodeElement(r)
		if err != nil {
			return err
		}
		switch {
		case code <= 16:
			c.pathLengths[i] = (17 + c.pathLengths[i] - byte(code)) % 17
			i++
		case code == 17:
			z, err := r.ReadBits(4)
			if err != nil {
				return err
			}
			end := i + int(z) + 4
			if end > len(c.pathLengths) {
				return lzxerr.New(lzxerr.InvalidPretreeRle)
			}
			for ; i < end; i++ {
				c.pathLengths[i] = 0
			}
		case code == 18:
			z, err := r.ReadBits(5)
			if err != nil {
				return err
			}
			end := i + int(z) + 20
			if end > len(c.pathLengths) {
				return lzxerr.New(lzxerr.InvalidPretreeRle)
			}
			for ; i < end; i++ {
				c.pathLengths[i] = 0
			}
		case code == 19:
			same, err := r.ReadBits(1)
			if err != nil {
				return err
			}
			nested, err := pretree.DecodeElement(r)
			if err != nil {
				return err
			}
			if nested > 16 {
				return lzxerr.NewValue(lzxerr.InvalidPretreeElement, int(nested))
			}
			value := (17 + c.pathLengths[i] - byte(nested)) % 17
			end := i + int(same) + 4
			if end > len(c.pathLengths) {
				return lzxerr.New(lzxerr.InvalidPretreeRle)
			}
			for ; i < end; i++ {
				c.pathLengths[i] = value
			}
		default:
			return lzxerr.NewValue(lzxerr.InvalidPretreeElement, int(code))
		}
	}
	return nil
}
