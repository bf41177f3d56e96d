// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"cloudeng.io/cmdutil"
	"cloudeng.io/cmdutil/subcmd"
	"cloudeng.io/errors"
	"github.com/lzxd-go/lzxd"
	"github.com/schollz/progressbar/v2"
	"golang.org/x/crypto/ssh/terminal"
)

type catFlags struct {
	Verbose bool `subcmd:"verbose,false,verbose debug/trace information"`
}

type batchFlags struct {
	Concurrency int  `subcmd:"concurrency,4,'concurrency for the batch decompression'"`
	ProgressBar bool `subcmd:"progress,true,display a progress bar"`
	Verbose     bool `subcmd:"verbose,false,verbose debug/trace information"`
}

func trace(verbose bool, format string, args ...interface{}) {
	if verbose {
		log.Printf(format, args...)
	}
}

var cmdSet *subcmd.CommandSet

func init() {
	catCmd := subcmd.NewCommand("cat",
		subcmd.MustRegisterFlagStruct(&catFlags{}, nil, nil),
		cat, subcmd.AtLeastNArguments(0))
	catCmd.Document(`decompress LZXC container files, or stdin, to stdout.`)

	batchCmd := subcmd.NewCommand("batch",
		subcmd.MustRegisterFlagStruct(&batchFlags{}, nil, nil),
		batch, subcmd.AtLeastNArguments(1))
	batchCmd.Document(`decompress multiple LZXC container files concurrently, each to "<input>.out".`)

	cmdSet = subcmd.NewCommandSet(catCmd, batchCmd)
	cmdSet.Document(`decompress LZXD chunk sequences packaged in the LZXC container format.`)
}

func main() {
	cmdSet.MustDispatch(context.Background())
}

func cat(ctx context.Context, values interface{}, args []string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	cl := values.(*catFlags)
	cmdutil.HandleSignals(cancel, os.Interrupt)

	if len(args) == 0 {
		c, err := readContainer(os.Stdin)
		if err != nil {
			return err
		}
		trace(cl.Verbose, "stdin: %v chunks, window %#x", len(c.chunks), uint32(c.windowSize))
		return c.decompressAll(os.Stdout)
	}

	for _, name := range args {
		f, err := os.Open(name)
		if err != nil {
			return err
		}
		c, err := readContainer(f)
		f.Close()
		if err != nil {
			return err
		}
		trace(cl.Verbose, "%v: %v chunks, window %#x", name, len(c.chunks), uint32(c.windowSize))
		if err := c.decompressAll(os.Stdout); err != nil {
			return err
		}
	}
	return nil
}

func progressBar(ctx context.Context, w io.Writer, ch <-chan lzxd.Progress, total int64) {
	bar := progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetPredictTime(true))
	bar.RenderBlank()
	for {
		select {
		case p, ok := <-ch:
			if !ok {
				fmt.Fprintf(w, "\n")
				return
			}
			bar.Add(1)
		case <-ctx.Done():
			return
		}
	}
}

func batch(ctx context.Context, values interface{}, args []string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	cl := values.(*batchFlags)
	cmdutil.HandleSignals(cancel, os.Interrupt)

	containers := make([]*container, len(args))
	for i, name := range args {
		f, err := os.Open(name)
		if err != nil {
			return err
		}
		c, err := readContainer(f)
		f.Close()
		if err != nil {
			return err
		}
		containers[i] = c
	}

	var progressCh chan lzxd.Progress
	progressWr := os.Stdout
	if !terminal.IsTerminal(int(os.Stdout.Fd())) {
		progressWr = os.Stderr
	}
	if cl.ProgressBar {
		progressCh = make(chan lzxd.Progress, cl.Concurrency)
		go progressBar(ctx, progressWr, progressCh, int64(len(containers)))
	}

	bd := lzxd.NewBatchDecompressor(ctx,
		lzxd.BatchConcurrency(cl.Concurrency),
		lzxd.BatchVerbose(cl.Verbose),
		lzxd.BatchSendUpdates(progressCh))
	for i, c := range containers {
		trace(cl.Verbose, "%v: %v chunks, window %#x", args[i], len(c.chunks), uint32(c.windowSize))
		bd.Submit(c.asStream())
	}
	results := bd.Wait()
	if cl.ProgressBar {
		close(progressCh)
	}

	errs := &errors.M{}
	for i, res := range results {
		if res.Err != nil {
			errs.Append(fmt.Errorf("%s: %w", args[i], res.Err))
			continue
		}
		out, err := os.Create(args[i] + ".out")
		if err != nil {
			errs.Append(err)
			continue
		}
		_, err = out.Write(res.Data)
		errs.Append(err)
		errs.Append(out.Close())
	}
	return errs.Err()
}
