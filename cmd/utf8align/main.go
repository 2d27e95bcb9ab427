// Copyright 2026 Tamás Gulácsi. All rights reserved.
//
// SPDX-License-Identifier: Apache-2.0

// utf8align copies its inputs (files, http(s) URLs or stdin) to stdout or a directory,
// such that every write ends on a UTF-8 sequence boundary.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/UNO-SOFT/zlog/v2"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/klauspost/pgzip"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/tgulacsi/utf8align/align"
	"github.com/tgulacsi/utf8align/bufpool"
	"github.com/tgulacsi/utf8align/httpclient"
	"github.com/tgulacsi/utf8align/iohlp"
	"github.com/tgulacsi/utf8align/stream"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := Main(ctx, os.Args, os.Stdin, os.Stdout, os.Stderr)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %+v\n", err)
		os.Exit(1)
	}
}

// Main parses the args, and copies the inputs.
func Main(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := newFlagSet(stderr)
	fc := newFlagConfig(fs)
	flagConfigFile := fs.String("config", "", "TOML config file")
	flagVerbose := fs.Bool("v", false, "verbose logging")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage of %s:\n", args[0])
		fmt.Fprintf(fs.Output(), "\n%s [flags] [file|URL...]\n\nReads stdin if no input is given.\n\n", args[0])
		fs.PrintDefaults()
	}
	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	var level slog.LevelVar
	if *flagVerbose {
		level.Set(slog.LevelDebug)
	}
	logger := zlog.NewLogger(zlog.MaybeConsoleHandler(&level, stderr)).SLog()
	ctx = zlog.NewSContext(ctx, logger)

	cfg := fc.Config
	if *flagConfigFile != "" {
		fileCfg, err := LoadConfig(*flagConfigFile)
		if err != nil {
			return err
		}
		cfg = fc.Merge(fileCfg)
	}
	logger.Debug("config", "cfg", cfg)

	cl := httpclient.NewWithClient("utf8align", nil,
		cfg.HTTP.Timeout.Duration, cfg.HTTP.Interval.Duration, cfg.HTTP.FailureRatio)
	httpclient.SetLogger(cl, logger)
	c := copier{Config: cfg, client: cl, pool: bufpool.New(cfg.ChunkSize), stdin: stdin}

	inputs := fs.Args()
	if len(inputs) == 0 {
		inputs = []string{"-"}
	}
	if cfg.OutDir == "" {
		for _, nm := range inputs {
			if err := c.copy(ctx, stdout, nm); err != nil {
				return err
			}
		}
		return nil
	}

	if err := os.MkdirAll(cfg.OutDir, 0755); err != nil {
		return errors.Wrap(err, cfg.OutDir)
	}
	dests := destNames(inputs)
	grp, grpCtx := errgroup.WithContext(ctx)
	grp.SetLimit(max(1, cfg.Concurrency))
	for i, nm := range inputs {
		grp.Go(func() error {
			dest := filepath.Join(cfg.OutDir, dests[i])
			fh, err := os.Create(dest)
			if err != nil {
				return errors.Wrap(err, dest)
			}
			if err = c.copy(grpCtx, fh, nm); err != nil {
				fh.Close()
				return err
			}
			return errors.Wrap(fh.Close(), dest)
		})
	}
	return grp.Wait()
}

func newFlagSet(w io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("utf8align", flag.ContinueOnError)
	fs.SetOutput(w)
	return fs
}

type copier struct {
	Config
	client *retryablehttp.Client
	pool   *bufpool.Pool
	stdin  io.Reader
}

// copy the named input to w, each input through its own Realigner.
func (c copier) copy(ctx context.Context, w io.Writer, name string) error {
	rc, err := c.open(ctx, name)
	if err != nil {
		return err
	}
	defer rc.Close()
	n, err := stream.Pump(ctx, w, rc, align.New(), c.pool)
	zlog.SFromContext(ctx).Info("copied", "input", name, "bytes", n, "error", err)
	return errors.Wrap(err, name)
}

func (c copier) open(ctx context.Context, name string) (io.ReadCloser, error) {
	var rc io.ReadCloser
	var err error
	switch {
	case name == "-":
		rc = io.NopCloser(c.stdin)
	case isURL(name):
		rc, err = httpclient.Get(ctx, c.client, name)
	default:
		rc, err = os.Open(name)
	}
	if err != nil {
		return nil, err
	}
	mc := iohlp.NewMultiCloser(rc)
	isGz, r, err := iohlp.IsGzip(rc)
	if err != nil {
		mc.Close()
		return nil, errors.Wrap(err, name)
	}
	if isGz || c.Gunzip {
		zr, err := pgzip.NewReader(r)
		if err != nil {
			mc.Close()
			return nil, errors.Wrapf(err, "gunzip %s", name)
		}
		mc.Insert(zr)
		r = zr
	}
	return iohlp.ReadCloser{Reader: r, MultiCloser: mc}, nil
}

func isURL(name string) bool {
	return strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://")
}

// destName returns the file name for the input in the destination directory.
func destName(name string) string {
	if name == "-" {
		return "stdin"
	}
	if isURL(name) {
		if u, err := url.Parse(name); err == nil {
			name = path.Base(u.Path)
		}
		if name == "" || name == "/" || name == "." {
			name = "index"
		}
	} else {
		name = filepath.Base(name)
	}
	return strings.TrimSuffix(name, ".gz")
}

// destNames returns the destination file names for the inputs,
// the repeated ones suffixed with "-1", "-2"... before the extension.
func destNames(inputs []string) []string {
	names := make([]string, len(inputs))
	seen := make(map[string]struct{}, len(inputs))
	for i, nm := range inputs {
		nm = destName(nm)
		if _, ok := seen[nm]; ok {
			ext := filepath.Ext(nm)
			base := strings.TrimSuffix(nm, ext)
			for j := 1; ; j++ {
				cand := fmt.Sprintf("%s-%d%s", base, j, ext)
				if _, ok := seen[cand]; !ok {
					nm = cand
					break
				}
			}
		}
		seen[nm] = struct{}{}
		names[i] = nm
	}
	return names
}
