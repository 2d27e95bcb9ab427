// Copyright 2025, 2026 Tamás Gulácsi. All rights reserved.
//
// SPDX-License-Identifier: Apache-2.0

package iohlp

import (
	"bytes"
	"errors"
	"io"
)

// Peek reads (at most) n bytes from r, and returns them, with an io.Reader
// which returns the peeked bytes then the rest of r.
//
// A shorter input is not an error.
func Peek(r io.Reader, n int) ([]byte, io.Reader, error) {
	b := make([]byte, n)
	n, err := io.ReadFull(r, b)
	b = b[:n]
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return b, bytes.NewReader(b), nil
	}
	return b, io.MultiReader(bytes.NewReader(b), r), err
}

var gzipMagic = []byte{0x1f, 0x8b}

// IsGzip reports whether r starts with the gzip magic, and returns a reader
// with the full content of r.
func IsGzip(r io.Reader) (bool, io.Reader, error) {
	b, r, err := Peek(r, len(gzipMagic))
	return bytes.Equal(b, gzipMagic), r, err
}
