// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package lzxd

import "github.com/lzxd-go/lzxd/internal/lzxerr"

// Kind enumerates the ways a compressed stream can fail to decode.
// This is a re-export of internal/lzxerr.Kind: the internal packages
// that actually detect these failures (bitstream, huffman, window,
// the block state machine) construct the error directly so that it
// crosses package boundaries unwrapped.
type Kind = lzxerr.Kind

// DecodeError is the concrete error type returned by every failing
// decode operation.
type DecodeError = lzxerr.Error

const (
	OverreadBlock          = lzxerr.OverreadBlock
	UnexpectedEof          = lzxerr.UnexpectedEof
	InvalidBlock           = lzxerr.InvalidBlock
	InvalidBlockSize       = lzxerr.InvalidBlockSize
	InvalidPretreeElement  = lzxerr.InvalidPretreeElement
	InvalidPretreeRle      = lzxerr.InvalidPretreeRle
	InvalidPathLengths     = lzxerr.InvalidPathLengths
	EmptyTree              = lzxerr.EmptyTree
	WindowTooSmall         = lzxerr.WindowTooSmall
	ChunkTooLong           = lzxerr.ChunkTooLong
)
