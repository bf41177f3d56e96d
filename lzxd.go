// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package lzxd implements a streaming decoder for LZXD (Lempel-Ziv
// Extended Delta), the block-oriented LZ77 variant used by Microsoft
// cabinet and patch file formats. The decoder consumes a sequence of
// independently framed compressed chunks and produces the
// corresponding decompressed byte runs against a caller-sized sliding
// window; chunk framing, container parsing and I/O are the caller's
// concern (see cmd/lzxdcat for a worked example of supplying both).
package lzxd

import (
	"encoding/binary"

	"github.com/lzxd-go/lzxd/internal/bitstream"
	"github.com/lzxd-go/lzxd/internal/huffman"
	"github.com/lzxd-go/lzxd/internal/lzxerr"
	"github.com/lzxd-go/lzxd/internal/window"
)

// e8TranslationCutoff is the total decoded-byte offset past which E8
// call translation is disabled for the remainder of the stream,
// evaluated against chunkOffset before this chunk's bytes are added
// to it.
const e8TranslationCutoff = 0x4000_0000

// Lzxd decodes a sequence of LZXD chunks sharing one sliding window.
// Two instances are fully independent: all state lives in the struct,
// so separate *Lzxd values may run concurrently on different
// goroutines.
type Lzxd struct {
	windowSize WindowSize
	window     *window.Window
	r          [3]uint32

	mainTree   *huffman.CanonicalTree
	lengthTree *huffman.CanonicalTree
	block      *block

	firstChunkRead  bool
	translationSize uint32
	e8Scratch       []byte

	chunkOffset    int
	pendingBytePad bool
}

// New returns a decoder that uses a window of the given size. windowSize
// must be one of the eleven enumerated WindowSize constants; the size
// is never carried in the compressed stream itself, so supplying the
// wrong one produces garbage output rather than an error.
func New(windowSize WindowSize) *Lzxd {
	return &Lzxd{
		windowSize: windowSize,
		window:     window.New(int(windowSize)),
		r:          [3]uint32{1, 1, 1},
		mainTree:   huffman.NewCanonicalTree(windowSize.mainTreeSize()),
		lengthTree: huffman.NewCanonicalTree(249),
		block:      &block{},
	}
}

// Reset discards all decoder state and starts over with a fresh window
// of the same size, as if New had just been called.
func (l *Lzxd) Reset() {
	*l = *New(l.windowSize)
}

// readFirstChunkHeader reads the one-time, first-call-only chunk
// header: a single bit indicating whether E8 call translation is
// active for the stream, followed by (if set) a 32-bit translation
// size. The translation size is two ReadU16LE words, high word first,
// the opposite order from ReadU32LE's low-word-first convention used
// everywhere else.
func (l *Lzxd) readFirstChunkHeader(r *bitstream.Reader) error {
	e8, err := r.ReadBit()
	if err != nil {
		return err
	}
	if e8 == 0 {
		l.firstChunkRead = true
		return nil
	}
	hi, err := r.ReadU16LE()
	if err != nil {
		return err
	}
	lo, err := r.ReadU16LE()
	if err != nil {
		return err
	}
	l.translationSize = uint32(hi)<<16 | uint32(lo)
	l.e8Scratch = make([]byte, MaxChunkSize)
	l.firstChunkRead = true
	return nil
}

// DecompressNext decompresses one chunk, returning exactly outputLen
// decompressed bytes. Block and tree state persists across calls, so a
// block (in particular an Uncompressed block) may legitimately span
// more than one call's worth of chunk data.
func (l *Lzxd) DecompressNext(chunk []byte, outputLen int) ([]byte, error) {
	r := bitstream.New(chunk)

	if !l.firstChunkRead {
		if err := l.readFirstChunkHeader(r); err != nil {
			return nil, err
		}
	}

	produced := 0
	for produced < outputLen {
		if l.block.done() {
			if err := l.openNextBlock(r); err != nil {
				return nil, err
			}
		}

		n, err := l.decodeOne(r)
		if err != nil {
			return nil, err
		}
		produced += n
	}

	out, err := l.window.PastView(outputLen, MaxChunkSize)
	if err != nil {
		return nil, err
	}

	if l.e8Scratch != nil && l.chunkOffset < e8TranslationCutoff && outputLen > 10 {
		scratch := l.e8Scratch[:outputLen]
		copy(scratch, out)
		e8Translate(scratch, l.chunkOffset, l.translationSize)
		out = scratch
	}

	l.chunkOffset += outputLen
	return out, nil
}

// openNextBlock consumes any pending word-alignment pad left over from
// an odd-sized Uncompressed block, then reads the next block's header.
func (l *Lzxd) openNextBlock(r *bitstream.Reader) error {
	if l.pendingBytePad {
		if _, err := r.ReadByte(); err != nil {
			return err
		}
		l.pendingBytePad = false
	}
	b, err := readBlock(r, l.windowSize, l.mainTree, l.lengthTree)
	if err != nil {
		return err
	}
	l.block = b
	if b.kind == blockUncompressed {
		l.r = b.uncompressedR
	}
	return nil
}

// decodeOne advances the current block by one step (one raw run for
// Uncompressed, one literal/match element otherwise) and applies it to
// the window, returning the number of output bytes it produced.
func (l *Lzxd) decodeOne(r *bitstream.Reader) (int, error) {
	if l.block.kind == blockUncompressed {
		n := l.block.remaining
		if avail := r.RemainingBytes(); avail < n {
			n = avail
		}
		if n == 0 {
			return 0, lzxerr.New(lzxerr.UnexpectedEof)
		}
		if err := l.window.CopyFromBitstream(r, n); err != nil {
			return 0, err
		}
		l.block.remaining -= n
		if l.block.remaining == 0 && l.block.size%2 == 1 {
			l.pendingBytePad = true
		}
		return n, nil
	}

	d, err := l.block.decodeElement(r, &l.r)
	if err != nil {
		return 0, err
	}
	switch d.kind {
	case decodedLiteral:
		if l.block.remaining < 1 {
			return 0, lzxerr.New(lzxerr.OverreadBlock)
		}
		l.window.Push(d.lit)
		l.block.remaining--
		return 1, nil
	default:
		if d.length > l.block.remaining {
			return 0, lzxerr.New(lzxerr.OverreadBlock)
		}
		l.window.CopyFromSelf(d.offset, d.length)
		l.block.remaining -= d.length
		return d.length, nil
	}
}

// e8Translate rewrites 32-bit little-endian immediates following an
// 0xE8 (x86 CALL) opcode between PC-relative and absolute addressing.
// chunkOffset is the total number of decompressed bytes already
// emitted before this chunk (i.e. buf[0] is chunkOffset bytes into the
// overall stream).
func e8Translate(buf []byte, chunkOffset int, translationSize uint32) {
	n := len(buf)
	for p := 0; p+10 <= n; p++ {
		if buf[p] != 0xE8 {
			continue
		}
		v := int64(int32(binary.LittleEndian.Uint32(buf[p+1 : p+5])))
		pos := int64(chunkOffset + p)
		if v >= -pos && v < int64(translationSize) {
			var nv int64
			if v > 0 {
				nv = v - pos
			} else {
				nv = v + int64(translationSize)
			}
			binary.LittleEndian.PutUint32(buf[p+1:p+5], uint32(nv))
		}
		p += 4 // loop's p++ makes the net advance 5, skipping the consumed bytes
	}
}
