// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package window implements LZXD's sliding dictionary window: a flat,
// power-of-two ring buffer that supports pushing single bytes,
// self-referential (LZ77) copies with overlap propagation, bulk raw
// fills from the bitstream, and extracting a contiguous "last N bytes"
// view. The buffer is allocated once and indexed with wraparound
// arithmetic rather than reallocated per call.
package window

import "github.com/lzxd-go/lzxd/internal/lzxerr"

// Reader is the subset of bitstream.Reader the window needs to fill
// itself directly from compressed input, declared locally so this
// package stays independent of the concrete bitstream type.
type Reader interface {
	ReadRaw(dst []byte) error
}

// Window is a fixed-size ring buffer. Size must be a power of two,
// enforced by the caller (lzxd.WindowSize only enumerates powers of
// two); the mask arithmetic trusts that invariant.
type Window struct {
	buf []byte
	pos int
}

// New allocates a Window of the given size, which must be a power of
// two not smaller than the largest chunk the caller will ever request
// a past view of.
func New(size int) *Window {
	return &Window{buf: make([]byte, size)}
}

func (w *Window) mask() int {
	return len(w.buf) - 1
}

func (w *Window) advance(delta int) {
	w.pos += delta
	if w.pos >= len(w.buf) {
		w.pos -= len(w.buf)
	}
}

// Push appends a single literal byte.
func (w *Window) Push(b byte) {
	w.buf[w.pos] = b
	w.advance(1)
}

// CopyFromSelf performs an LZ77-style self-copy of length bytes starting
// offset bytes before the current position, propagating any overlap so
// that repeating patterns (offset < length) replicate correctly. A
// single contiguous copy is used when neither range wraps and the
// ranges cannot overlap.
func (w *Window) CopyFromSelf(offset, length int) {
	if offset <= w.pos && length <= offset && w.pos+length < len(w.buf) {
		start := w.pos - offset
		copy(w.buf[w.pos:w.pos+length], w.buf[start:start+length])
	} else {
		mask := w.mask()
		for i := 0; i < length; i++ {
			dst := (w.pos + i) & mask
			src := (len(w.buf) + w.pos + i - offset) & mask
			w.buf[dst] = w.buf[src]
		}
	}
	w.advance(length)
}

// CopyFromBitstream bulk-fills the next len bytes directly from r. If
// the write would otherwise run past the end of the buffer, the
// buffer's contents are first shifted toward the front so that the
// write region ends exactly at the end of the buffer.
func (w *Window) CopyFromBitstream(r Reader, length int) error {
	if length > len(w.buf) {
		return lzxerr.New(lzxerr.WindowTooSmall)
	}
	if w.pos+length > len(w.buf) {
		shift := w.pos + length - len(w.buf)
		w.pos -= shift
		copy(w.buf, w.buf[shift:])
	}
	if err := r.ReadRaw(w.buf[w.pos : w.pos+length]); err != nil {
		return err
	}
	w.advance(length)
	return nil
}

// PastView returns a contiguous view of the last length bytes written,
// rotating the buffer in place if necessary so the view doesn't wrap.
// length must not exceed the caller's MaxChunkSize.
func (w *Window) PastView(length, maxChunkSize int) ([]byte, error) {
	if length > maxChunkSize {
		return nil, lzxerr.New(lzxerr.ChunkTooLong)
	}
	if w.pos != 0 && length > w.pos {
		shift := length - w.pos
		w.advance(shift)

		tmp := make([]byte, shift)
		copy(tmp, w.buf[len(w.buf)-shift:])
		copy(w.buf[shift:], w.buf[:len(w.buf)-shift])
		copy(w.buf[:shift], tmp)
	}
	pos := w.pos
	if pos == 0 {
		pos = len(w.buf)
	}
	return w.buf[pos-length : pos], nil
}
