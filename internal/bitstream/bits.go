// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package bitstream reads the LZXD bitstream: a sequence of aligned
// 16-bit little-endian words whose bits are consumed MSB-first, one
// word at a time.
package bitstream

import "github.com/lzxd-go/lzxd/internal/lzxerr"

// MaxPeekBits is the widest symbol this package is ever asked to peek
// without consuming (the largest canonical tree has up to 16-bit codes).
const MaxPeekBits = 16

// Reader reads bits from a byte slice two bytes (one LZXD word) at a
// time. It holds up to two words (32 bits) in acc, left-justified so
// that the next unconsumed bit is always the current MSB of acc,
// refilling a word at a time on demand.
type Reader struct {
	buf   []byte
	acc   uint32
	bits  uint // number of valid unconsumed bits currently in acc, 0..32
	total uint // total bits consumed so far, used only to track word alignment
}

// New returns a Reader over buf. buf is not copied or modified.
func New(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// refill loads one more 16-bit word into acc. When soft is true and the
// underlying buffer is exhausted, it pads with a zero word instead of
// failing — this is how PeekBits tolerates peeking past the last
// consumed bit of a fixed-width decode table.
func (r *Reader) refill(soft bool) error {
	if len(r.buf) < 2 {
		if !soft {
			return lzxerr.New(lzxerr.UnexpectedEof)
		}
		r.bits += 16
		return nil
	}
	word := uint32(r.buf[0]) | uint32(r.buf[1])<<8
	r.buf = r.buf[2:]
	r.acc |= word << (16 - r.bits)
	r.bits += 16
	return nil
}

func (r *Reader) need(n uint, soft bool) error {
	for r.bits < n {
		if err := r.refill(soft); err != nil {
			return err
		}
	}
	return nil
}

// ReadBits reads the next n bits, n in [0,32], MSB-first, returning them
// packed into the low n bits of the result. For 16 < n <= 32 the value
// is the concatenation of two reads, the first 16 bits read forming the
// high part of the result. Wide reads must go through that two-step
// composition: refill only supports up to 16 pending bits at a time,
// since the accumulator tops out at two words.
func (r *Reader) ReadBits(n uint) (uint32, error) {
	if n > 16 {
		hi, err := r.ReadBits(16)
		if err != nil {
			return 0, err
		}
		lo, err := r.ReadBits(n - 16)
		if err != nil {
			return 0, err
		}
		return hi<<(n-16) | lo, nil
	}
	if err := r.need(n, false); err != nil {
		return 0, err
	}
	return r.consume(n), nil
}

// PeekBits returns the next n bits (n <= MaxPeekBits) without consuming
// them. Peeking past the end of the buffer is tolerated by treating the
// missing bits as zero: the fixed-width Huffman table lookups may
// legitimately peek slightly past the last real bit.
func (r *Reader) PeekBits(n uint) uint32 {
	_ = r.need(n, true) // soft refill never fails
	if n == 0 {
		return 0
	}
	return r.acc >> (32 - n)
}

func (r *Reader) consume(n uint) uint32 {
	var v uint32
	if n > 0 {
		v = r.acc >> (32 - n)
	}
	r.acc <<= n
	r.bits -= n
	r.total += n
	return v
}

// ReadBit reads a single bit.
func (r *Reader) ReadBit() (uint32, error) {
	return r.ReadBits(1)
}

// ReadU16LE reads a logical little-endian 16-bit value encoded with
// LZXD's word-swapped bit order: the raw MSB-first 16-bit read is
// byte-swapped to recover the value as it was originally written.
func (r *Reader) ReadU16LE() (uint16, error) {
	v, err := r.ReadBits(16)
	if err != nil {
		return 0, err
	}
	x := uint16(v)
	return x>>8 | x<<8, nil
}

// ReadU32LE reads a logical little-endian 32-bit value as two 16-bit
// values, low word first then high word.
func (r *Reader) ReadU32LE() (uint32, error) {
	lo, err := r.ReadU16LE()
	if err != nil {
		return 0, err
	}
	hi, err := r.ReadU16LE()
	if err != nil {
		return 0, err
	}
	return uint32(lo) | uint32(hi)<<16, nil
}

// ReadU24BE reads a 24-bit big-endian value (high 16 bits, then low 8).
func (r *Reader) ReadU24BE() (uint32, error) {
	return r.ReadBits(24)
}

// Align discards bits up to the next 16-bit word boundary. It is a
// no-op if the stream is already word-aligned.
func (r *Reader) Align() error {
	rem := r.total % 16
	if rem == 0 {
		return nil
	}
	_, err := r.ReadBits(16 - rem)
	return err
}

// ReadRaw copies len(dst) raw bytes straight from the underlying
// buffer, byte for byte. It must only be called word-aligned (bits ==
// 0), which every caller guarantees: the header of an Uncompressed
// block is padded to a word boundary on entry and every field read
// since is a whole number of words. Unlike ReadBits, this does NOT go through the MSB-first
// word-swap accumulator — an Uncompressed block's raw run is literal
// pass-through data, not a sequence of logical bit-packed values, and
// running it through the swap would reorder byte pairs. The caller is
// responsible for consuming the one-time word-alignment pad byte that
// follows an odd-sized Uncompressed block in its entirety — see
// (*lzxd.Lzxd) in the root package — since that pad is tied to the
// block's total declared size, not to the length of any individual
// ReadRaw call (a raw run may be split across several calls when it
// spans more than one chunk).
func (r *Reader) ReadRaw(dst []byte) error {
	for len(dst) > 0 {
		if len(r.buf) == 0 {
			return lzxerr.New(lzxerr.UnexpectedEof)
		}
		n := copy(dst, r.buf)
		r.buf = r.buf[n:]
		r.total += uint(n) * 8
		dst = dst[n:]
	}
	return nil
}

// ReadByte pops the next raw byte from the backing buffer. Like
// ReadRaw it bypasses the word-swap accumulator and must only be
// called when no buffered bits are pending: its single use is the
// alignment pad byte that follows an odd-sized raw run, where routing
// the skip through ReadBits would load the pad and the first header
// byte as one word and discard the wrong half.
func (r *Reader) ReadByte() (byte, error) {
	if len(r.buf) == 0 {
		return 0, lzxerr.New(lzxerr.UnexpectedEof)
	}
	b := r.buf[0]
	r.buf = r.buf[1:]
	r.total += 8
	return b, nil
}

// Aligned reports whether the stream currently sits on a 16-bit word
// boundary.
func (r *Reader) Aligned() bool {
	return r.total%16 == 0
}

// RemainingBytes reports how many more whole bytes this reader could
// produce: the unread tail of the backing buffer plus any already
// buffered but unconsumed bits. The driver uses this to cap an
// Uncompressed block's raw read so a block may legitimately span more
// than one chunk, the rest being supplied by the caller's next call.
func (r *Reader) RemainingBytes() int {
	return int(r.bits/8) + len(r.buf)
}
