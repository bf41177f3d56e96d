// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.
package bitstream

import "testing"

func le16(v uint16) []byte {
	return []byte{byte(v), byte(v >> 8)}
}

func TestReadSequential(t *testing.T) {
	// The values 0 through 10 packed left-to-right, each using the
	// fewest bits possible.
	words := []uint16{0b0_1_10_11_100_101_110_1, 0b11_1000_1001_1010_00}
	lengths := []uint{1, 1, 2, 2, 3, 3, 3, 3, 4, 4, 4}

	var buf []byte
	for _, w := range words {
		buf = append(buf, le16(w)...)
	}
	r := New(buf)
	for value, length := range lengths {
		got, err := r.ReadBits(length)
		if err != nil {
			t.Fatalf("ReadBits(%d): %v", length, err)
		}
		if got != uint32(value) {
			t.Fatalf("value %d: got %d, want %d", value, got, value)
		}
	}
}

func TestReadU16LEAligned(t *testing.T) {
	words := []uint16{0b11100000_00000111, 0b00011111_11111000}
	var buf []byte
	for _, w := range words {
		buf = append(buf, le16(w)...)
	}
	r := New(buf)
	want := []uint16{0b00000111_11100000, 0b11111000_00011111}
	for i, w := range want {
		got, err := r.ReadU16LE()
		if err != nil {
			t.Fatalf("ReadU16LE[%d]: %v", i, err)
		}
		if got != w {
			t.Fatalf("ReadU16LE[%d] = %#04x, want %#04x", i, got, w)
		}
	}
}

func TestReadU16LEUnaligned(t *testing.T) {
	words := []uint16{0b00000000000_10001, 0b10000000001_00000}
	var buf []byte
	for _, w := range words {
		buf = append(buf, le16(w)...)
	}
	r := New(buf)

	if v, err := r.ReadBits(11); err != nil || v != 0 {
		t.Fatalf("leading ReadBits(11) = %d, %v", v, err)
	}
	got, err := r.ReadU16LE()
	if err != nil {
		t.Fatalf("ReadU16LE: %v", err)
	}
	want := uint16(0b00000001_10001_100)
	if got != want {
		t.Fatalf("ReadU16LE = %#04x, want %#04x", got, want)
	}
	if v, err := r.ReadBits(5); err != nil || v != 0 {
		t.Fatalf("trailing ReadBits(5) = %d, %v", v, err)
	}
}

func TestReadU24BE(t *testing.T) {
	words := []uint16{0b0000_1100_0001_1000, 0b0001_1000_0011_0000}
	var buf []byte
	for _, w := range words {
		buf = append(buf, le16(w)...)
	}
	r := New(buf)

	if v, err := r.ReadBits(4); err != nil || v != 0 {
		t.Fatalf("leading ReadBits(4) = %d, %v", v, err)
	}
	got, err := r.ReadU24BE()
	if err != nil {
		t.Fatalf("ReadU24BE: %v", err)
	}
	want := uint32(0b1100_0001_1000_0001_1000_0011)
	if got != want {
		t.Fatalf("ReadU24BE = %#x, want %#x", got, want)
	}
	if v, err := r.ReadBits(4); err != nil || v != 0 {
		t.Fatalf("trailing ReadBits(4) = %d, %v", v, err)
	}
}

func TestPeekThenReadAgree(t *testing.T) {
	buf := []byte{0x5b, 0xda, 0x3f, 0xf8}
	r := New(buf)
	if _, err := r.ReadBits(11); err != nil {
		t.Fatal(err)
	}
	peeked := r.PeekBits(6)
	got, err := r.ReadBits(6)
	if err != nil {
		t.Fatal(err)
	}
	if peeked != got {
		t.Fatalf("peek %d != read %d", peeked, got)
	}
}

func TestReadBitsSplitEqualsCombined(t *testing.T) {
	buf := []byte{0x5b, 0xda, 0x3f, 0xf8, 0x12, 0x34}
	r1 := New(buf)
	a, err := r1.ReadBits(5)
	if err != nil {
		t.Fatal(err)
	}
	b, err := r1.ReadBits(9)
	if err != nil {
		t.Fatal(err)
	}
	combinedSplit := a<<9 | b

	r2 := New(buf)
	whole, err := r2.ReadBits(14)
	if err != nil {
		t.Fatal(err)
	}
	if combinedSplit != whole {
		t.Fatalf("split reads gave %#x, single read gave %#x", combinedSplit, whole)
	}
}

func TestAlignNoopWhenAligned(t *testing.T) {
	r := New([]byte{1, 2, 3, 4})
	if _, err := r.ReadBits(16); err != nil {
		t.Fatal(err)
	}
	if !r.Aligned() {
		t.Fatal("expected aligned after a whole word")
	}
	if err := r.Align(); err != nil {
		t.Fatal(err)
	}
	v, err := r.ReadU16LE()
	if err != nil {
		t.Fatal(err)
	}
	// Word 1 is bytes[2],bytes[3] = (3,4): the raw word value 0x0403
	// byte-swapped, per the ReadU16LE = ReadBits(16).swap_bytes() rule.
	if v != 0x0304 {
		t.Fatalf("got %#04x, want 0x0304", v)
	}
}

func TestAlignDiscardsToWordBoundary(t *testing.T) {
	r := New([]byte{1, 2, 3, 4})
	if _, err := r.ReadBits(3); err != nil {
		t.Fatal(err)
	}
	if err := r.Align(); err != nil {
		t.Fatal(err)
	}
	if !r.Aligned() {
		t.Fatal("expected aligned after Align")
	}
	v, err := r.ReadU16LE()
	if err != nil {
		t.Fatal(err)
	}
	if v != 0x0304 {
		t.Fatalf("got %#04x, want 0x0304", v)
	}
}

func TestReadRawWordAligned(t *testing.T) {
	r := New([]byte{1, 2, 3, 4, 5})
	dst := make([]byte, 4)
	if err := r.ReadRaw(dst); err != nil {
		t.Fatal(err)
	}
	if string(dst) != "\x01\x02\x03\x04" {
		t.Fatalf("got %v", dst)
	}
}

func TestReadBitsWideAfterPeek(t *testing.T) {
	// A peek can leave more than 16 buffered bits; a following wide
	// read must still compose the next 24 bits in stream order.
	buf := append(append(le16(0xABCD), le16(0x1234)...), le16(0x5678)...)
	r := New(buf)
	if v, err := r.ReadBits(15); err != nil || v != 0x55E6 {
		t.Fatalf("ReadBits(15) = %#x, %v; want 0x55E6", v, err)
	}
	if got := r.PeekBits(16); got != 0x891A {
		t.Fatalf("PeekBits(16) = %#x, want 0x891A", got)
	}
	v, err := r.ReadBits(24)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0x891A2B {
		t.Fatalf("ReadBits(24) = %#x, want 0x891A2B", v)
	}
}

func TestReadU32LE(t *testing.T) {
	// ReadU32LE reads the low word then the high word, each through the
	// ReadU16LE byte-swap, so the logical value 0x12345678 is laid out
	// on the wire as 56 78 12 34 — neither plain little- nor big-endian.
	r := New([]byte{0x56, 0x78, 0x12, 0x34})
	got, err := r.ReadU32LE()
	if err != nil {
		t.Fatal(err)
	}
	if got != 0x12345678 {
		t.Fatalf("ReadU32LE = %#08x, want 0x12345678", got)
	}
}

func TestReadByteAfterOddRawRun(t *testing.T) {
	// After an odd-length raw run the stream sits mid-word; ReadByte
	// must skip exactly the pad byte so the following word is read from
	// the correct pair of bytes.
	r := New([]byte{'a', 0x00, 0x03, 0x04})
	dst := make([]byte, 1)
	if err := r.ReadRaw(dst); err != nil {
		t.Fatal(err)
	}
	if dst[0] != 'a' {
		t.Fatalf("raw byte = %q, want 'a'", dst[0])
	}
	if _, err := r.ReadByte(); err != nil { // the pad
		t.Fatal(err)
	}
	if !r.Aligned() {
		t.Fatal("expected word alignment after the pad byte")
	}
	v, err := r.ReadU16LE()
	if err != nil {
		t.Fatal(err)
	}
	if v != 0x0304 {
		t.Fatalf("word after pad = %#04x, want 0x0304", v)
	}
}

func TestReadByteEOF(t *testing.T) {
	r := New(nil)
	if _, err := r.ReadByte(); err == nil {
		t.Fatal("expected error on empty buffer")
	}
}

func TestUnexpectedEOF(t *testing.T) {
	r := New([]byte{0x00})
	if _, err := r.ReadBits(16); err == nil {
		t.Fatal("expected error on short buffer")
	}
}

func TestPeekPastEndIsZeroPadded(t *testing.T) {
	r := New([]byte{0xff, 0xff})
	if _, err := r.ReadBits(16); err != nil {
		t.Fatal(err)
	}
	if got := r.PeekBits(16); got != 0 {
		t.Fatalf("PeekBits past end = %#x, want 0", got)
	}
}
