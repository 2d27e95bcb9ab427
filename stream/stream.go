// Copyright 2017, 2026 Tamás Gulácsi
//
//
//    Licensed under the Apache License, Version 2.0 (the "License");
//    you may not use this file except in compliance with the License.
//    You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS,
//    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//    See the License for the specific language governing permissions and
//    limitations under the License.

// Package stream drives an align.ChunkTransformer over readers, writers and channels.
package stream

import (
	"context"
	"errors"
	"io"

	"github.com/UNO-SOFT/zlog/v2"
	perrors "github.com/pkg/errors"
	"github.com/tgulacsi/utf8align/align"
	"github.com/tgulacsi/utf8align/bufpool"
	"golang.org/x/text/transform"
)

// NewAlignWriter returns an io.WriteCloser which writes only whole sequences to w.
// Close writes the held back bytes.
func NewAlignWriter(w io.Writer) io.WriteCloser {
	return transform.NewWriter(w, align.NewTransformer())
}

// Pump reads src chunk by chunk, and writes what t emits to dst, one Write per emitted chunk.
// At io.EOF, t is flushed.
//
// If t is nil, a new align.Realigner is used. If pool is nil, bufpool.Default is used.
func Pump(ctx context.Context, dst io.Writer, src io.Reader, t align.ChunkTransformer, pool *bufpool.Pool) (int64, error) {
	if t == nil {
		t = align.New()
	}
	if pool == nil {
		pool = bufpool.Default
	}
	logger := zlog.SFromContext(ctx)
	buf := pool.Get()
	defer pool.Put(buf)

	var written int64
	var chunks int
	write := func(p []byte) error {
		if len(p) == 0 {
			return nil
		}
		chunks++
		n, err := dst.Write(p)
		written += int64(n)
		if err == nil && n < len(p) {
			err = io.ErrShortWrite
		}
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		n, readErr := src.Read(*buf)
		if n > 0 {
			if err := write(t.Process((*buf)[:n])); err != nil {
				return written, perrors.Wrapf(err, "write chunk %d", chunks)
			}
		}
		if readErr == nil {
			continue
		}
		if !errors.Is(readErr, io.EOF) {
			return written, perrors.Wrap(readErr, "read")
		}
		if err := write(t.Flush()); err != nil {
			return written, perrors.Wrap(err, "write flushed")
		}
		logger.Debug("pump finished", "written", written, "chunks", chunks)
		return written, nil
	}
}

// Chan returns a channel of the chunks t emits, processing the chunks received on in, in order.
//
// When in is closed, t is flushed and the returned channel is closed.
// When ctx is done, the returned channel is closed without flushing.
//
// The sender gives up the ownership of each chunk it sends on in:
// the emitted chunks may share memory with the received ones.
func Chan(ctx context.Context, t align.ChunkTransformer, in <-chan []byte) <-chan []byte {
	if t == nil {
		t = align.New()
	}
	out := make(chan []byte)
	go func() {
		defer close(out)
		send := func(p []byte) bool {
			if len(p) == 0 {
				return true
			}
			select {
			case out <- p:
				return true
			case <-ctx.Done():
				return false
			}
		}
		for {
			select {
			case <-ctx.Done():
				zlog.SFromContext(ctx).Debug("chan canceled", "error", ctx.Err())
				return
			case chunk, ok := <-in:
				if !ok {
					send(t.Flush())
					return
				}
				if !send(t.Process(chunk)) {
					return
				}
			}
		}
	}()
	return out
}
