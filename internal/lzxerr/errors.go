// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package lzxerr defines the error kinds shared by every layer of the
// decoder (bitstream, huffman, window and the block/driver state
// machine), so that a single concrete error type crosses package
// boundaries unwrapped rather than being re-wrapped at each call site.
package lzxerr

import "fmt"

// Kind enumerates the ways a compressed stream can fail to decode.
type Kind int

const (
	// OverreadBlock is returned when an element claims to produce more
	// bytes than its enclosing block has remaining.
	OverreadBlock Kind = iota
	// UnexpectedEof is returned when a read needs more bits than the
	// supplied chunk contains.
	UnexpectedEof
	// InvalidBlock is returned for a block type other than 0b001, 0b010
	// or 0b011.
	InvalidBlock
	// InvalidBlockSize is returned when a block declares a zero size.
	InvalidBlockSize
	// InvalidPretreeElement is returned when a pretree-decoded symbol is
	// out of its expected range.
	InvalidPretreeElement
	// InvalidPretreeRle is returned when a 17/18/19 run-length code would
	// write outside the path-length table.
	InvalidPretreeRle
	// InvalidPathLengths is returned when a set of canonical path lengths
	// does not fill its decode table exactly, i.e. does not describe a
	// valid prefix code.
	InvalidPathLengths
	// EmptyTree is returned when a main, aligned offset or pretree is
	// built with no symbols, or when a match requires a length-tree
	// lookup but the block's length tree carries no symbols.
	EmptyTree
	// WindowTooSmall is returned when an uncompressed run is longer than
	// the sliding window.
	WindowTooSmall
	// ChunkTooLong is returned when a requested view is longer than
	// MaxChunkSize.
	ChunkTooLong
)

func (k Kind) String() string {
	switch k {
	case OverreadBlock:
		return "overread block"
	case UnexpectedEof:
		return "unexpected end of stream"
	case InvalidBlock:
		return "invalid block type"
	case InvalidBlockSize:
		return "invalid block size"
	case InvalidPretreeElement:
		return "invalid pretree element"
	case InvalidPretreeRle:
		return "invalid pretree run-length code"
	case InvalidPathLengths:
		return "invalid path lengths"
	case EmptyTree:
		return "empty tree"
	case WindowTooSmall:
		return "window too small"
	case ChunkTooLong:
		return "chunk too long"
	default:
		return "unknown decode error"
	}
}

// Error is the concrete error type returned by every failing operation
// in this module. Value carries an optional numeric payload (the
// offending block type, block size or pretree code) when Kind defines
// one; it is zero otherwise.
type Error struct {
	Kind  Kind
	Value int
}

func (e *Error) Error() string {
	switch e.Kind {
	case InvalidBlock:
		return fmt.Sprintf("%s: %#b", e.Kind, e.Value)
	case InvalidBlockSize, InvalidPretreeElement:
		return fmt.Sprintf("%s: %d", e.Kind, e.Value)
	default:
		return e.Kind.String()
	}
}

// New returns an Error of the given kind with no payload.
func New(kind Kind) error {
	return &Error{Kind: kind}
}

// NewValue returns an Error of the given kind carrying a numeric payload.
func NewValue(kind Kind, value int) error {
	return &Error{Kind: kind, Value: value}
}
