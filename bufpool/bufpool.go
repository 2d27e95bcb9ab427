/*
  Copyright 2017, 2026 Tamás Gulácsi

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

// Package bufpool pools fixed size chunk buffers.
package bufpool

import (
	"sync"
)

// DefaultSize is the usual size of a chunk read from a file.
const DefaultSize = 64 << 10

var Default = New(DefaultSize)

// New returns a Pool of size-long buffers (DefaultSize if size <= 0).
func New(size int) *Pool {
	if size <= 0 {
		size = DefaultSize
	}
	p := Pool{size: size}
	p.pool.New = func() interface{} { b := make([]byte, size); return &b }
	return &p
}

func Get() *[]byte { return Default.Get() }
func Put(buf *[]byte) { Default.Put(buf) }

// Pool is a sync.Pool of same-sized byte slices.
type Pool struct {
	pool sync.Pool
	size int
}

// Size of the buffers.
func (p *Pool) Size() int { return p.size }

// Get a buffer with len == p.Size().
func (p *Pool) Get() *[]byte {
	buf := p.pool.Get().(*[]byte)
	*buf = (*buf)[:p.size]
	return buf
}

// Put the buffer back, if it is the right size.
func (p *Pool) Put(buf *[]byte) {
	if buf == nil || cap(*buf) < p.size {
		return
	}
	p.pool.Put(buf)
}
