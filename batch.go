// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package lzxd

import (
	"container/heap"
	"context"
	"log"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// Stream describes one independent LZXD stream to be decompressed by a
// BatchDecompressor: its window size and the sequence of (chunk,
// outputLen) pairs to feed to DecompressNext in order.
type Stream struct {
	WindowSize WindowSize
	Chunks     []StreamChunk
}

// StreamChunk is one call's worth of input to DecompressNext.
type StreamChunk struct {
	Data      []byte
	OutputLen int
}

// Result is the outcome of fully decompressing one Stream: either the
// concatenation of every chunk's decompressed output, or the error the
// first failing DecompressNext call returned.
type Result struct {
	Data []byte
	Err  error
}

type batchOpts struct {
	concurrency int
	verbose     bool
	progressCh  chan<- Progress
}

// BatchOption configures a BatchDecompressor.
type BatchOption func(*batchOpts)

// BatchConcurrency sets the number of streams decompressed concurrently.
// It defaults to GOMAXPROCS.
func BatchConcurrency(n int) BatchOption {
	return func(o *batchOpts) { o.concurrency = n }
}

// BatchVerbose controls verbose logging of the worker and reassembly
// lifecycle, useful for debugging and testing.
func BatchVerbose(v bool) BatchOption {
	return func(o *batchOpts) { o.verbose = v }
}

// BatchSendUpdates sets a channel progress reports are sent over as
// each stream finishes.
func BatchSendUpdates(ch chan<- Progress) BatchOption {
	return func(o *batchOpts) { o.progressCh = ch }
}

// Progress reports the completion of one stream's decompression.
type Progress struct {
	Duration time.Duration
	Index    uint64
	Size     int
	Err      error
}

// BatchDecompressor runs many independent Lzxd streams concurrently and
// returns their results in the same order the streams were submitted,
// even though the underlying decoding finishes out of order. Each
// stream gets its own *Lzxd instance: chunks within one stream share
// mutable decoder state and are strictly sequential, so the unit of
// concurrency is the whole stream.
type BatchDecompressor struct {
	order uint64 // must be first field for 64-bit alignment on 32-bit platforms.

	workCh     chan *streamJob
	doneCh     chan *streamJob
	progressCh chan<- Progress
	verbose    bool

	workWg sync.WaitGroup
	doneWg sync.WaitGroup

	mu      sync.Mutex
	results []Result
	heap    *jobHeap
}

type streamJob struct {
	order  uint64
	stream Stream

	err      error
	data     []byte
	duration time.Duration
}

func (j *streamJob) decompress() {
	start := time.Now()
	dec := New(j.stream.WindowSize)
	var out []byte
	for _, c := range j.stream.Chunks {
		chunk, err := dec.DecompressNext(c.Data, c.OutputLen)
		if err != nil {
			j.err = err
			j.duration = time.Since(start)
			return
		}
		out = append(out, chunk...)
	}
	j.data = out
	j.duration = time.Since(start)
}

// NewBatchDecompressor starts a pool of worker goroutines and returns a
// BatchDecompressor ready to accept streams via Submit.
func NewBatchDecompressor(ctx context.Context, opts ...BatchOption) *BatchDecompressor {
	o := batchOpts{concurrency: runtime.GOMAXPROCS(-1)}
	for _, fn := range opts {
		fn(&o)
	}
	bd := &BatchDecompressor{
		workCh:     make(chan *streamJob, o.concurrency),
		doneCh:     make(chan *streamJob, o.concurrency),
		progressCh: o.progressCh,
		verbose:    o.verbose,
		heap:       &jobHeap{},
	}
	heap.Init(bd.heap)
	bd.workWg.Add(o.concurrency)
	for i := 0; i < o.concurrency; i++ {
		go func() {
			defer bd.workWg.Done()
			bd.worker(ctx, bd.workCh, bd.doneCh)
		}()
	}
	bd.doneWg.Add(1)
	go func() {
		defer bd.doneWg.Done()
		bd.assemble(ctx, bd.doneCh)
	}()
	return bd
}

func (bd *BatchDecompressor) trace(format string, args ...interface{}) {
	if bd.verbose {
		log.Printf(format, args...)
	}
}

func (bd *BatchDecompressor) worker(ctx context.Context, in <-chan *streamJob, out chan<- *streamJob) {
	for {
		select {
		case job, ok := <-in:
			if !ok {
				return
			}
			bd.trace("decompressing: stream %v, %v chunks", job.order, len(job.stream.Chunks))
			job.decompress()
			bd.trace("decompressed: stream %v, %v bytes, err %v", job.order, len(job.data), job.err)
			select {
			case out <- job:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// Submit enqueues one stream for decompression and returns the index
// its Result will occupy once Wait returns.
func (bd *BatchDecompressor) Submit(s Stream) uint64 {
	order := atomic.AddUint64(&bd.order, 1) - 1
	bd.workCh <- &streamJob{order: order, stream: s}
	return order
}

// Wait closes the submission channel, waits for every submitted stream
// to finish, and returns the results indexed by submission order.
func (bd *BatchDecompressor) Wait() []Result {
	close(bd.workCh)
	bd.workWg.Wait()
	close(bd.doneCh)
	bd.doneWg.Wait()
	bd.mu.Lock()
	defer bd.mu.Unlock()
	return bd.results
}

func (bd *BatchDecompressor) assemble(ctx context.Context, ch <-chan *streamJob) {
	expected := uint64(0)
	for {
		select {
		case job, ok := <-ch:
			if !ok {
				return
			}
			bd.trace("assemble: stream %v, waiting for %v", job.order, expected)
			heap.Push(bd.heap, job)
			for len(*bd.heap) > 0 && (*bd.heap)[0].order == expected {
				min := heap.Pop(bd.heap).(*streamJob)
				bd.mu.Lock()
				for uint64(len(bd.results)) <= min.order {
					bd.results = append(bd.results, Result{})
				}
				bd.results[min.order] = Result{Data: min.data, Err: min.err}
				bd.mu.Unlock()
				if bd.progressCh != nil {
					bd.progressCh <- Progress{
						Duration: min.duration,
						Index:    min.order,
						Size:     len(min.data),
						Err:      min.err,
					}
				}
				expected++
			}
		case <-ctx.Done():
			return
		}
	}
}

type jobHeap []*streamJob

func (h jobHeap) Len() int            { return len(h) }
func (h jobHeap) Less(i, j int) bool  { return h[i].order < h[j].order }
func (h jobHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *jobHeap) Push(x interface{}) { *h = append(*h, x.(*streamJob)) }
func (h *jobHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}
