// Copyright 2026 Tamás Gulácsi. All rights reserved.
//
// SPDX-License-Identifier: Apache-2.0

package align

import (
	"golang.org/x/text/transform"
)

var _ transform.Transformer = Transformer{}

// Transformer is a transform.Transformer which passes only whole sequences,
// asking for more input (transform.ErrShortSrc) when src ends with a truncated one.
//
// It is stateless: the pending bytes are kept by the transform.Reader/Writer.
type Transformer struct {
	transform.NopResetter
}

// NewTransformer returns a new Transformer.
func NewTransformer() Transformer { return Transformer{} }

// Transform copies the longest safe prefix of src to dst.
func (Transformer) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	n := len(src)
	if !atEOF {
		n = Boundary(src)
	}
	if n > len(dst) {
		n = Boundary(src[:len(dst)])
		err = transform.ErrShortDst
	} else if n < len(src) {
		err = transform.ErrShortSrc
	}
	copy(dst, src[:n])
	return n, n, err
}
