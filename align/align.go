// Copyright 2026 Tamás Gulácsi. All rights reserved.
//
// SPDX-License-Identifier: Apache-2.0

// Package align re-chunks a stream of UTF-8 encoded bytes, such that no
// emitted chunk ends in the middle of a multi-byte sequence.
//
// The bytes are never decoded nor validated, just held back until the
// sequence they start is complete (or the stream ends).
package align

// MaxSeqLen is the length of the longest sequence the lead bytes can announce.
const MaxSeqLen = 6

// ChunkTransformer is what a chunked-stream framework needs from a realigner.
type ChunkTransformer interface {
	// Process consumes the next chunk, and returns what can be emitted (maybe nothing).
	Process(chunk []byte) []byte
	// Flush returns everything held back. Called once, at the end of the stream.
	Flush() []byte
}

var _ ChunkTransformer = (*Realigner)(nil)

// SeqLen returns the sequence length the given byte announces as a lead byte.
//
// Continuation bytes (10xxxxxx) and the invalid 0xFE, 0xFF are 1 long.
func SeqLen(b byte) int {
	switch {
	case b < 0xC0:
		return 1
	case b < 0xE0:
		return 2
	case b < 0xF0:
		return 3
	case b < 0xF8:
		return 4
	case b < 0xFC:
		return 5
	case b < 0xFE:
		return 6
	}
	return 1
}

// Boundary returns the length of the longest prefix of p which does not end
// with a truncated sequence.
//
// Only the last MaxSeqLen bytes are inspected.
func Boundary(p []byte) int {
	end := len(p)
	for i := end - 1; i >= 0 && i >= end-MaxSeqLen; i-- {
		if p[i]&0xC0 == 0x80 {
			continue
		}
		if i+SeqLen(p[i]) > end {
			return i
		}
		return end
	}
	// continuation bytes only
	return end
}

// Realigner holds back the incomplete sequence at the end of a chunk, and
// prepends it to the next one.
//
// The zero value is ready to use. A Realigner serves one stream at a time,
// and must not be used concurrently.
type Realigner struct {
	pending [MaxSeqLen - 1]byte
	n       int
}

// New returns a new, empty Realigner.
func New() *Realigner { return new(Realigner) }

// Process returns the safe prefix of the pending fragment + chunk, and keeps
// the rest for the next call.
//
// The returned slice is nil if nothing can be emitted yet.
// If nothing was pending, the returned slice shares chunk's backing array.
func (r *Realigner) Process(chunk []byte) []byte {
	buf := chunk
	if r.n != 0 {
		buf = make([]byte, r.n+len(chunk))
		copy(buf[copy(buf, r.pending[:r.n]):], chunk)
		r.n = 0
	}
	if len(buf) == 0 {
		return nil
	}
	i := Boundary(buf)
	r.n = copy(r.pending[:], buf[i:])
	if i == 0 {
		return nil
	}
	return buf[:i:i]
}

// Flush returns the pending fragment (nil if there is none), and clears it.
//
// After Flush the Realigner is as new, so it can serve another stream.
func (r *Realigner) Flush() []byte {
	if r.n == 0 {
		return nil
	}
	p := make([]byte, r.n)
	copy(p, r.pending[:r.n])
	r.n = 0
	return p
}

// Buffered returns the number of bytes held back.
func (r *Realigner) Buffered() int { return r.n }

// Reset drops the pending fragment.
func (r *Realigner) Reset() { r.n = 0 }
