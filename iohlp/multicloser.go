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

// Package iohlp contains small io-related utility functions for opening layered inputs.
package iohlp

import (
	"errors"
	"io"
)

// ReadCloser reads from Reader, and closes all the Closers.
type ReadCloser struct {
	io.Reader
	*MultiCloser
}

// MultiCloser closes all contained io.Closers, in the given order.
type MultiCloser struct {
	closers []io.Closer
}

// NewMultiCloser returns an io.Closer which will close all contained io.Closer,
// in the given order.
func NewMultiCloser(c ...io.Closer) *MultiCloser {
	return &MultiCloser{closers: c}
}

// Insert inserts new closers at the beginning (to be called first).
//
// A wrapping reader (decompressor) should be closed before the underlying one.
func (mc *MultiCloser) Insert(c ...io.Closer) {
	mc.closers = append(append(make([]io.Closer, 0, len(c)+len(mc.closers)), c...), mc.closers...)
}

// Close all contained Closers, returning all the errors joined.
// Closing again is a no-op.
func (mc *MultiCloser) Close() error {
	var errs []error
	for _, c := range mc.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	mc.closers = mc.closers[:0]
	return errors.Join(errs...)
}
