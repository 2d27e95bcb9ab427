/*
Copyright 2014, 2026 Tamás Gulácsi

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package text contains UTF-8 text readers.
package text

import (
	"io"

	"github.com/tgulacsi/utf8align/align"
)

// NewStringReader wraps an io.Reader which reads UTF-8, and splits reads
// between sequences, never inside one.
//
// The bytes are not validated: what r returns is passed through, just
// the truncated tail of a read is held back till the next.
func NewStringReader(r io.Reader) io.Reader {
	return &stringReader{r: r}
}

type stringReader struct {
	r      io.Reader
	err    error
	rem    [align.MaxSeqLen - 1]byte
	remLen int
}

func (sr *stringReader) Read(p []byte) (int, error) {
	if sr.err != nil {
		return 0, sr.err
	}
	if len(p) == 0 {
		return 0, nil
	}
	for {
		if len(p) <= sr.remLen {
			return 0, io.ErrShortBuffer
		}
		k := copy(p, sr.rem[:sr.remLen])
		n, err := sr.r.Read(p[k:])
		n += k
		sr.remLen = 0
		if err != nil {
			// everything goes at the end
			sr.err = err
			return n, err
		}
		i := align.Boundary(p[:n])
		sr.remLen = copy(sr.rem[:], p[i:n])
		if i != 0 || n == k {
			return i, nil
		}
	}
}
