// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package lzxd

import (
	"github.com/lzxd-go/lzxd/internal/bitstream"
	"github.com/lzxd-go/lzxd/internal/huffman"
	"github.com/lzxd-go/lzxd/internal/lzxerr"
)

// blockKind is the 3-bit tag read at the head of every block.
type blockKind byte

const (
	blockVerbatim      blockKind = 0b001
	blockAlignedOffset blockKind = 0b010
	blockUncompressed  blockKind = 0b011
)

// block is one section of the compressed stream sharing one set of
// Huffman trees (or, for Uncompressed, a raw byte run). remaining and
// size track how much of the block's declared output is left to
// produce; the per-block-type decode state hangs off kind.
type block struct {
	remaining int
	size      int
	kind      blockKind

	alignedTree *huffman.Tree // AlignedOffset only
	mainTree    *huffman.Tree // Verbatim, AlignedOffset
	lengthTree  *huffman.Tree // Verbatim, AlignedOffset; may be nil (empty)

	uncompressedR [3]uint32 // Uncompressed only
}

// done reports whether this block has no more bytes to produce.
func (b *block) done() bool {
	return b.remaining == 0
}

// readMainAndLengthTrees applies the pretree delta update to the main
// tree's literal half [0,256) and match half [256, 256+8*slots), then
// to the 249-element length tree.
func readMainAndLengthTrees(r *bitstream.Reader, ws WindowSize, mainTree, lengthTree *huffman.CanonicalTree) error {
	if err := mainTree.UpdateRangeWithPretree(r, 0, 256); err != nil {
		return err
	}
	end := 256 + 8*ws.positionSlots()
	if err := mainTree.UpdateRangeWithPretree(r, 256, end); err != nil {
		return err
	}
	return lengthTree.UpdateRangeWithPretree(r, 0, 249)
}

// readBlock reads a new block header: the 3-bit kind and the 24-bit
// declared size, then any type-specific header data (the aligned
// offset tree, the pretree-delta-updated main/length trees, or the
// three new LRU offsets for an Uncompressed block).
func readBlock(r *bitstream.Reader, ws WindowSize, mainTree, lengthTree *huffman.CanonicalTree) (*block, error) {
	kindBits, err := r.ReadBits(3)
	if err != nil {
		return nil, err
	}
	size, err := r.ReadU24BE()
	if err != nil {
		return nil, err
	}
	if size == 0 {
		return nil, lzxerr.NewValue(lzxerr.InvalidBlockSize, int(size))
	}

	b := &block{remaining: int(size), size: int(size), kind: blockKind(kindBits)}

	switch b.kind {
	case blockVerbatim:
		if err := readMainAndLengthTrees(r, ws, mainTree, lengthTree); err != nil {
			return nil, err
		}
		b.mainTree, err = mainTree.CreateInstance()
		if err != nil {
			return nil, err
		}
		b.lengthTree, err = lengthTree.CreateInstanceAllowEmpty()
		if err != nil {
			return nil, err
		}
	case blockAlignedOffset:
		pathLengths := make([]byte, 8)
		for i := range pathLengths {
			v, err := r.ReadBits(3)
			if err != nil {
				return nil, err
			}
			pathLengths[i] = byte(v)
		}
		b.alignedTree, err = huffman.FromPathLengths(pathLengths)
		if err != nil {
			return nil, err
		}
		if err := readMainAndLengthTrees(r, ws, mainTree, lengthTree); err != nil {
			return nil, err
		}
		b.mainTree, err = mainTree.CreateInstance()
		if err != nil {
			return nil, err
		}
		b.lengthTree, err = lengthTree.CreateInstanceAllowEmpty()
		if err != nil {
			return nil, err
		}
	case blockUncompressed:
		// The padding that aligns the raw run is 1 to 16 bits, never 0:
		// a header that already ends on a word boundary is followed by
		// a full padding word.
		if r.Aligned() {
			if _, err := r.ReadBits(16); err != nil {
				return nil, err
			}
		} else if err := r.Align(); err != nil {
			return nil, err
		}
		for i := range b.uncompressedR {
			v, err := r.ReadU32LE()
			if err != nil {
				return nil, err
			}
			b.uncompressedR[i] = v
		}
	default:
		return nil, lzxerr.NewValue(lzxerr.InvalidBlock, int(b.kind))
	}

	return b, nil
}

// decodedKind distinguishes what decodeElement produced for the main
// loop to apply to the window.
type decodedKind int

const (
	decodedLiteral decodedKind = iota
	decodedMatch
)

// decoded is the result of decoding one element of a Verbatim or
// AlignedOffset block.
type decoded struct {
	kind   decodedKind
	lit    byte
	offset int
	length int
}

// matchLength257Extension gates the extra-length extension for matches
// of length 257. It is disabled: the extension breaks on at least one
// known KB64 stream, so it stays off pending a reproducible test case.
const matchLength257Extension = false

// decodeElement decodes one literal or match from a Verbatim or
// AlignedOffset block and updates the repeated-offset LRU in place.
func (b *block) decodeElement(r *bitstream.Reader, lru *[3]uint32) (decoded, error) {
	mainElement, err := b.mainTree.DecodeElement(r)
	if err != nil {
		return decoded{}, err
	}

	if mainElement < 256 {
		return decoded{kind: decodedLiteral, lit: byte(mainElement)}, nil
	}

	lengthHeader := (mainElement - 256) & 7
	positionSlot := int((mainElement - 256) >> 3)

	var matchLength int
	if lengthHeader == 7 {
		if b.lengthTree == nil {
			return decoded{}, lzxerr.New(lzxerr.EmptyTree)
		}
		extra, err := b.lengthTree.DecodeElement(r)
		if err != nil {
			return decoded{}, err
		}
		matchLength = int(extra) + 7 + 2
	} else {
		matchLength = int(lengthHeader) + 2
	}

	var matchOffset uint32
	switch positionSlot {
	case 0:
		matchOffset = lru[0]
	case 1:
		matchOffset = lru[1]
		lru[0], lru[1] = lru[1], lru[0]
	case 2:
		matchOffset = lru[2]
		lru[0], lru[2] = lru[2], lru[0]
	default:
		offsetBits := footerBits[positionSlot]
		var verbatimBits, alignedBits uint32
		if b.alignedTree != nil {
			if offsetBits >= 3 {
				v, err := r.ReadBits(uint(offsetBits - 3))
				if err != nil {
					return decoded{}, err
				}
				verbatimBits = v << 3
				aligned, err := b.alignedTree.DecodeElement(r)
				if err != nil {
					return decoded{}, err
				}
				alignedBits = uint32(aligned)
			} else {
				v, err := r.ReadBits(uint(offsetBits))
				if err != nil {
					return decoded{}, err
				}
				verbatimBits = v
			}
		} else {
			v, err := r.ReadBits(uint(offsetBits))
			if err != nil {
				return decoded{}, err
			}
			verbatimBits = v
		}
		formattedOffset := basePosition[positionSlot] + verbatimBits + alignedBits
		matchOffset = formattedOffset - 2
		lru[2], lru[1], lru[0] = lru[1], lru[0], matchOffset
	}

	if matchLength257Extension && matchLength == 257 {
		// The prefix-coded 8/10/12/15-bit extra-length decode would
		// go here; see matchLength257Extension.
	}

	return decoded{kind: decodedMatch, offset: int(matchOffset), length: matchLength}, nil
}
