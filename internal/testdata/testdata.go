// Copyright 2021 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package testdata generates reproducible pseudo-random and patterned
// byte slices for window and block tests, in place of shelling out to
// an external encoder; compressed fixtures are instead hand-built bit
// by bit in the tests that need them.
package testdata

import (
	"fmt"
	"math/rand"
	"time"
)

// Seed for the pseudorandom generator, shared across callers that need
// the exact same bytes on every run.
const fixedRandSeed = 0x1234

var randSource rand.Source

func init() {
	randSeed := time.Now().UnixNano()
	fmt.Printf("rand seed for GenReproducibleRandomData: %v\n", randSeed)
	randSource = rand.NewSource(randSeed)
}

// GenPredictableRandomData generates random data starting with a fixed,
// known seed: the same size always produces the same bytes, across runs
// and across processes.
func GenPredictableRandomData(size int) []byte {
	gen := rand.New(rand.NewSource(fixedRandSeed))
	out := make([]byte, size)
	for i := range out {
		out[i] = byte(gen.Intn(256))
	}
	return out
}

// GenReproducibleRandomData uses the random seed printed out by this
// package's init function, so a failing run can be reproduced by fixing
// that seed.
func GenReproducibleRandomData(size int) []byte {
	gen := rand.New(randSource)
	out := make([]byte, size)
	for i := range out {
		out[i] = byte(gen.Intn(256))
	}
	return out
}

// FirstN returns at most the first n bytes of b.
func FirstN(n int, b []byte) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}

// RepeatingPattern returns size bytes formed by repeating pattern,
// useful for exercising window.CopyFromSelf's overlap propagation
// (offset < length) with a known, checkable output.
func RepeatingPattern(pattern []byte, size int) []byte {
	out := make([]byte, size)
	for i := range out {
		out[i] = pattern[i%len(pattern)]
	}
	return out
}
