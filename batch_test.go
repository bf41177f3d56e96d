// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package lzxd

import (
	"context"
	"fmt"
	"testing"
)

// uncompressedStream builds a single-chunk Stream whose one block is an
// Uncompressed run of payload, padded when the size is odd.
func uncompressedStream(payload []byte) Stream {
	w := &testBitWriter{}
	w.writeBits(0, 1)               // no E8 translation
	w.writeBits(0b011, 3)           // kind: Uncompressed
	w.writeBits(uint32(len(payload)), 24)
	buf := w.bytes()
	buf = append(buf, 1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0) // r0,r1,r2
	buf = append(buf, payload...)
	if len(payload)%2 == 1 {
		buf = append(buf, 0) // alignment pad
	}
	return Stream{
		WindowSize: KB32,
		Chunks:     []StreamChunk{{Data: buf, OutputLen: len(payload)}},
	}
}

// TestBatchDecompressorOrderPreserving submits several independent
// streams out of any particular completion order and checks Wait
// reassembles them indexed by submission order.
func TestBatchDecompressorOrderPreserving(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bd := NewBatchDecompressor(ctx, BatchConcurrency(3))

	payloads := [][]byte{[]byte("abc"), []byte("hello"), []byte("xy"), []byte("lzxd")}
	for _, p := range payloads {
		bd.Submit(uncompressedStream(p))
	}

	results := bd.Wait()
	if len(results) != len(payloads) {
		t.Fatalf("got %d results, want %d", len(results), len(payloads))
	}
	for i, want := range payloads {
		if results[i].Err != nil {
			t.Fatalf("stream %d: %v", i, results[i].Err)
		}
		if string(results[i].Data) != string(want) {
			t.Fatalf("stream %d: got %q, want %q", i, results[i].Data, want)
		}
	}
}

// TestBatchDecompressorReportsErrors checks a malformed stream's error
// lands in its own Result slot without disturbing the others.
func TestBatchDecompressorReportsErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bd := NewBatchDecompressor(ctx, BatchConcurrency(2))

	badW := &testBitWriter{}
	badW.writeBits(0, 1)
	badW.writeBits(0b001, 3) // Verbatim
	badW.writeBits(0, 24)    // size 0: invalid
	bad := Stream{WindowSize: KB32, Chunks: []StreamChunk{{Data: badW.bytes(), OutputLen: 1}}}

	bd.Submit(uncompressedStream([]byte("ok")))
	bd.Submit(bad)
	bd.Submit(uncompressedStream([]byte("fine")))

	results := bd.Wait()
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[0].Err != nil || string(results[0].Data) != "ok" {
		t.Fatalf("stream 0: got %q, %v", results[0].Data, results[0].Err)
	}
	if results[1].Err == nil {
		t.Fatal("stream 1: expected an error")
	}
	if results[2].Err != nil || string(results[2].Data) != "fine" {
		t.Fatalf("stream 2: got %q, %v", results[2].Data, results[2].Err)
	}
}

// TestBatchDecompressorProgress checks BatchSendUpdates reports one
// Progress per submitted stream.
func TestBatchDecompressorProgress(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	progressCh := make(chan Progress, 8)
	bd := NewBatchDecompressor(ctx, BatchConcurrency(2), BatchSendUpdates(progressCh))

	const n = 5
	for i := 0; i < n; i++ {
		bd.Submit(uncompressedStream([]byte(fmt.Sprintf("s%d", i))))
	}
	bd.Wait()
	close(progressCh)

	seen := 0
	for range progressCh {
		seen++
	}
	if seen != n {
		t.Fatalf("got %d progress reports, want %d", seen, n)
	}
}
