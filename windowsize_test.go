// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package lzxd

import "testing"

func TestWindowSizePositionSlots(t *testing.T) {
	cases := []struct {
		ws   WindowSize
		want int
	}{
		{KB32, 30}, {KB64, 32}, {KB128, 34}, {KB256, 36}, {KB512, 38},
		{MB1, 42}, {MB2, 50}, {MB4, 66}, {MB8, 98}, {MB16, 162}, {MB32, 290},
	}
	for _, c := range cases {
		if got := c.ws.positionSlots(); got != c.want {
			t.Errorf("%v.positionSlots() = %d, want %d", c.ws, got, c.want)
		}
		if !c.ws.Valid() {
			t.Errorf("%v.Valid() = false, want true", c.ws)
		}
	}
}

func TestWindowSizeInvalid(t *testing.T) {
	var ws WindowSize = 0x1234
	if ws.Valid() {
		t.Fatalf("%v.Valid() = true, want false", ws)
	}
}

func TestWindowSizeMainTreeSize(t *testing.T) {
	if got := KB32.mainTreeSize(); got != 256+8*30 {
		t.Fatalf("KB32.mainTreeSize() = %d, want %d", got, 256+8*30)
	}
	if got := MB32.mainTreeSize(); got != 256+8*290 {
		t.Fatalf("MB32.mainTreeSize() = %d, want %d", got, 256+8*290)
	}
}

func TestWindowSizeIsPowerOfTwo(t *testing.T) {
	all := []WindowSize{KB32, KB64, KB128, KB256, KB512, MB1, MB2, MB4, MB8, MB16, MB32}
	for _, ws := range all {
		n := uint32(ws)
		if n&(n-1) != 0 {
			t.Errorf("%v = %#x is not a power of two", ws, n)
		}
	}
}
