// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Command lzxdcat decompresses files in a minimal, self-defined
// chunk-sequence container format, demonstrating the lzxd package end
// to end. The container is a convenience of this command, not part of
// the lzxd package's contract: real-world callers of lzxd get their
// chunk boundaries and output lengths from CAB or XNB framing instead.
//
// Container layout (all integers little-endian):
//
//	magic      [4]byte  "LZXC"
//	windowSize uint32   one of the eleven lzxd.WindowSize values
//	chunks     repeated until EOF:
//	  outputLen uint32
//	  chunkLen  uint32
//	  chunk     [chunkLen]byte
package main

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/lzxd-go/lzxd"
)

var containerMagic = [4]byte{'L', 'Z', 'X', 'C'}

type containerChunk struct {
	outputLen int
	data      []byte
}

type container struct {
	windowSize lzxd.WindowSize
	chunks     []containerChunk
}

func readContainer(r io.Reader) (*container, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("lzxdcat: reading container magic: %w", err)
	}
	if magic != containerMagic {
		return nil, fmt.Errorf("lzxdcat: not an LZXC container (got magic %v)", magic)
	}

	var wsBuf [4]byte
	if _, err := io.ReadFull(r, wsBuf[:]); err != nil {
		return nil, fmt.Errorf("lzxdcat: reading window size: %w", err)
	}
	c := &container{windowSize: lzxd.WindowSize(binary.LittleEndian.Uint32(wsBuf[:]))}

	for {
		var hdr [8]byte
		_, err := io.ReadFull(r, hdr[:])
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("lzxdcat: reading chunk header: %w", err)
		}
		outputLen := binary.LittleEndian.Uint32(hdr[0:4])
		chunkLen := binary.LittleEndian.Uint32(hdr[4:8])
		data := make([]byte, chunkLen)
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, fmt.Errorf("lzxdcat: reading chunk data: %w", err)
		}
		c.chunks = append(c.chunks, containerChunk{outputLen: int(outputLen), data: data})
	}
	return c, nil
}

// decompressAll runs every chunk in c through a single *lzxd.Lzxd in
// order and writes the concatenated output to w.
func (c *container) decompressAll(w io.Writer) error {
	dec := lzxd.New(c.windowSize)
	for i, ch := range c.chunks {
		out, err := dec.DecompressNext(ch.data, ch.outputLen)
		if err != nil {
			return fmt.Errorf("lzxdcat: chunk %d: %w", i, err)
		}
		if _, err := w.Write(out); err != nil {
			return err
		}
	}
	return nil
}

// asStream converts the container into a lzxd.Stream for batch use.
func (c *container) asStream() lzxd.Stream {
	s := lzxd.Stream{WindowSize: c.windowSize, Chunks: make([]lzxd.StreamChunk, len(c.chunks))}
	for i, ch := range c.chunks {
		s.Chunks[i] = lzxd.StreamChunk{Data: ch.data, OutputLen: ch.outputLen}
	}
	return s
}
