// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package lzxd

import "testing"

// TestBasePositionRecurrence checks the defining recurrence:
// BASE_POSITION[ps] == BASE_POSITION[ps-1] + (1 << FOOTER_BITS[ps-1]).
func TestBasePositionRecurrence(t *testing.T) {
	for ps := 1; ps < len(basePosition); ps++ {
		want := basePosition[ps-1] + (1 << footerBits[ps-1])
		if basePosition[ps] != want {
			t.Fatalf("basePosition[%d] = %d, want %d", ps, basePosition[ps], want)
		}
	}
}

func TestFooterBitsLength(t *testing.T) {
	if len(footerBits) != 289 {
		t.Fatalf("len(footerBits) = %d, want 289", len(footerBits))
	}
	if len(basePosition) != 290 {
		t.Fatalf("len(basePosition) = %d, want 290", len(basePosition))
	}
}

func TestFooterBitsMonotonic(t *testing.T) {
	for i := 1; i < len(footerBits); i++ {
		if footerBits[i] < footerBits[i-1] {
			t.Fatalf("footerBits[%d] = %d < footerBits[%d] = %d", i, footerBits[i], i-1, footerBits[i-1])
		}
	}
}
