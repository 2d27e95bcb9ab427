// Copyright 2026 Tamás Gulácsi. All rights reserved.
//
// SPDX-License-Identifier: Apache-2.0

package align_test

import (
	"bytes"
	"fmt"
	"math/rand"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
	"github.com/tgulacsi/utf8align/align"
)

func TestSeqLen(t *testing.T) {
	for _, tC := range []struct {
		b    byte
		want int
	}{
		{0x10, 1}, {0x80, 1}, {0xBF, 1},
		{0xC0, 2}, {0xDF, 2},
		{0xE0, 3}, {0xEF, 3},
		{0xF0, 4}, {0xF7, 4},
		{0xF8, 5}, {0xFB, 5},
		{0xFC, 6}, {0xFD, 6},
		{0xFE, 1}, {0xFF, 1},
	} {
		if got := align.SeqLen(tC.b); got != tC.want {
			t.Errorf("%#02x: got %d, wanted %d", tC.b, got, tC.want)
		}
	}
	for b := 0; b < 256; b++ {
		if n := align.SeqLen(byte(b)); n < 1 || n > align.MaxSeqLen {
			t.Errorf("%#02x: %d out of range", b, n)
		}
	}
}

func TestBoundary(t *testing.T) {
	for tN, tC := range []struct {
		in   []byte
		want int
	}{
		{nil, 0},
		{[]byte("foo"), 3},
		{[]byte{0xF0}, 0},
		{[]byte{0x66, 0x6f, 0x6f, 0xF0, 0x9F}, 3},
		{[]byte{0xF0, 0xF0, 0x9F}, 1},
		{[]byte{0xF0, 0x9F, 0x92, 0x95}, 4},
		{[]byte{0xFC, 0x80, 0x80, 0x80, 0x80}, 0},
		{[]byte{0xFC, 0x80, 0x80, 0x80, 0x80, 0x80}, 6},
		{[]byte{0xF8, 0x80, 0x80, 0x80, 0x80, 0x80}, 6},
		{[]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80}, 7},
		// the lead byte is out of the scan window
		{[]byte{0xFC, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80}, 7},
	} {
		if got := align.Boundary(tC.in); got != tC.want {
			t.Errorf("%d. % x: got %d, wanted %d", tN, tC.in, got, tC.want)
		}
	}
}

type step struct {
	in, out []byte
}

func TestRealigner(t *testing.T) {
	for _, tC := range []struct {
		name  string
		steps []step
		flush []byte
	}{
		{"ascii", []step{{[]byte("f"), []byte("f")}}, nil},
		{"whole", []step{{
			[]byte{0x66, 0x6f, 0x6f, 0xF0, 0x9F, 0x92, 0x95, 0x62, 0x61, 0x72},
			[]byte{0x66, 0x6f, 0x6f, 0xF0, 0x9F, 0x92, 0x95, 0x62, 0x61, 0x72},
		}}, nil},
		{"split4", []step{
			{[]byte{0xF0}, nil},
			{[]byte{0x80, 0x80, 0x80}, []byte{0xF0, 0x80, 0x80, 0x80}},
		}, nil},
		{"mixed", []step{
			{[]byte{0x66, 0x6f, 0x6f, 0xF0, 0x9F}, []byte{0x66, 0x6f, 0x6f}},
			{[]byte{0x92, 0x95, 0x62, 0x61, 0x72}, []byte{0xF0, 0x9F, 0x92, 0x95, 0x62, 0x61, 0x72}},
		}, nil},
		{"invalid_lead", []step{
			{[]byte{0xF0, 0xF0, 0x9F}, []byte{0xF0}},
			{[]byte{0x92, 0x95}, []byte{0xF0, 0x9F, 0x92, 0x95}},
		}, nil},
		{"flush", []step{
			{[]byte{0x66, 0x6f, 0x6f, 0xF0, 0x9F}, []byte{0x66, 0x6f, 0x6f}},
		}, []byte{0xF0, 0x9F}},
		{"empty", []step{{nil, nil}, {[]byte{}, nil}}, nil},
		{"empty_keeps_pending", []step{
			{[]byte{0xE2, 0x82}, nil},
			{nil, nil},
			{[]byte{0xAC}, []byte("€")},
		}, nil},
	} {
		t.Run(tC.name, func(t *testing.T) {
			var r align.Realigner
			for i, s := range tC.steps {
				got := r.Process(s.in)
				if d := cmp.Diff(s.out, got); d != "" {
					t.Errorf("%d. Process(% x): %s", i, s.in, d)
				}
			}
			if d := cmp.Diff(tC.flush, r.Flush()); d != "" {
				t.Errorf("Flush: %s", d)
			}
			if got := r.Flush(); got != nil {
				t.Errorf("second Flush: % x", got)
			}
			if r.Buffered() != 0 {
				t.Errorf("%d bytes buffered after Flush", r.Buffered())
			}
		})
	}
}

// Every sequence length, split at every offset.
func TestRealignerOffsets(t *testing.T) {
	for _, lead := range []byte{0xC0, 0xE0, 0xF0, 0xF8, 0xFC} {
		n := align.SeqLen(lead)
		seq := append([]byte{lead}, bytes.Repeat([]byte{0x80}, n-1)...)
		for off := 0; off < n; off++ {
			t.Run(fmt.Sprintf("%d_%d", n, off), func(t *testing.T) {
				r := align.New()
				if off == 0 {
					if d := cmp.Diff(seq, r.Process(seq)); d != "" {
						t.Error(d)
					}
				} else {
					if got := r.Process(seq[:off]); got != nil {
						t.Errorf("first part: got % x, wanted nothing", got)
					}
					if r.Buffered() != off {
						t.Errorf("buffered %d, wanted %d", r.Buffered(), off)
					}
					if d := cmp.Diff(seq, r.Process(seq[off:])); d != "" {
						t.Error(d)
					}
				}
				if got := r.Flush(); got != nil {
					t.Errorf("Flush: % x", got)
				}
			})
		}
	}
}

func TestRealignerReuse(t *testing.T) {
	r := align.New()
	r.Process([]byte{0xE2})
	if got := r.Flush(); !bytes.Equal(got, []byte{0xE2}) {
		t.Errorf("Flush: % x", got)
	}
	if got := r.Process([]byte("a")); string(got) != "a" {
		t.Errorf("after Flush: got %q", got)
	}
	r.Process([]byte{0xE2, 0x82})
	r.Reset()
	if got := r.Process([]byte("b")); string(got) != "b" {
		t.Errorf("after Reset: got %q", got)
	}
}

func TestRealignerRandom(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	var sb bytes.Buffer
	for sb.Len() < 1<<14 {
		switch rnd.Intn(4) {
		case 0:
			sb.WriteByte(byte('a' + rnd.Intn(26)))
		case 1:
			sb.WriteRune(rune(0x80 + rnd.Intn(0x780)))
		case 2:
			sb.WriteRune(rune(0x800 + rnd.Intn(0xD000-0x800)))
		default:
			sb.WriteRune(rune(0x10000 + rnd.Intn(0x100000)))
		}
	}
	valid := sb.Bytes()
	garbage := make([]byte, 1<<14)
	rnd.Read(garbage)

	for _, input := range [][]byte{valid, garbage} {
		for _, maxChunk := range []int{1, 2, 3, 7, 64, 4096} {
			var r align.Realigner
			var got bytes.Buffer
			emit := func(p []byte) {
				if p == nil {
					return
				}
				if len(p) == 0 {
					t.Error("empty emission")
				}
				if utf8.Valid(input) && !utf8.Valid(p) {
					t.Errorf("chunk size %d: invalid emission % x", maxChunk, p)
				}
				got.Write(p)
			}
			for rest := input; len(rest) > 0; {
				n := min(len(rest), 1+rnd.Intn(maxChunk))
				emit(r.Process(rest[:n]))
				rest = rest[n:]
			}
			emit(r.Flush())
			if !bytes.Equal(got.Bytes(), input) {
				t.Errorf("chunk size %d: output differs from input", maxChunk)
			}
		}
	}
}

func BenchmarkRealigner(b *testing.B) {
	// file reads come in 64KiB, http bodies in ~12500 bytes
	for _, size := range []int{65536, 12500} {
		clean := make([]byte, size)
		worst := make([]byte, size)
		// a 6-byte sequence missing its last byte
		copy(worst[size-5:], []byte{0xFC, 0x80, 0x80, 0x80, 0x80})
		for _, bc := range []struct {
			name string
			buf  []byte
		}{{"clean", clean}, {"worst", worst}} {
			b.Run(fmt.Sprintf("%s_%d", bc.name, size), func(b *testing.B) {
				b.SetBytes(int64(size))
				var r align.Realigner
				for i := 0; i < b.N; i++ {
					r.Process(bc.buf)
				}
				r.Flush()
			})
		}
	}
}
