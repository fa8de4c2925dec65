/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package testutil

import (
	"bytes"
	"errors"
	"io"
	"sync"
)

// The maximum number of entries in the timeline
const bufferSize = 4096

var ErrClosedConn = errors.New("test connection is closed")

type testConnTimelineEntry interface {
	Value() (byte, error)
}

type byteTimelineEntry struct {
	value byte
}

func AsByteTimelineEntries(b ...byte) []testConnTimelineEntry {
	entries := make([]testConnTimelineEntry, len(b))
	for i := range b {
		entries[i] = &byteTimelineEntry{value: b[i]}
	}

	return entries
}

func (bte *byteTimelineEntry) Value() (byte, error) {
	return bte.value, nil
}

type errorTimelineEntry struct {
	err error
}

func AsErrorTimelineEntry(err error) testConnTimelineEntry {
	// If err is nil, return EOF as the default error
	if err == nil {
		err = io.EOF
	}

	return &errorTimelineEntry{err: err}
}

func (ete *errorTimelineEntry) Value() (byte, error) {
	return 0, ete.err
}

// TestConn is an in-memory io.ReadWriteCloser. Reads replay a scripted timeline of bytes
// and errors, and return EOF once the timeline is exhausted. Writes are recorded.
type TestConn struct {
	timeline chan testConnTimelineEntry
	lock     sync.Mutex
	written  bytes.Buffer
	closed   bool
}

func NewTestConn() *TestConn {
	return &TestConn{
		timeline: make(chan testConnTimelineEntry, bufferSize),
	}
}

func (tc *TestConn) AddEntry(entries ...testConnTimelineEntry) {
	for i := range entries {
		tc.timeline <- entries[i]
	}
}

func (tc *TestConn) isClosed() bool {
	tc.lock.Lock()
	defer tc.lock.Unlock()
	return tc.closed
}

func (tc *TestConn) Read(p []byte) (int, error) {
	if tc.isClosed() {
		return 0, ErrClosedConn
	}

	for i := range p {
		select {
		case entry := <-tc.timeline:
			b, err := entry.Value()
			if err != nil {
				return i, err
			}

			p[i] = b
		default:
			// If we go to read from the timeline and there's nothing there, we need to respond with EOF
			return i, io.EOF
		}
	}

	return len(p), nil
}

func (tc *TestConn) Write(p []byte) (int, error) {
	tc.lock.Lock()
	defer tc.lock.Unlock()

	if tc.closed {
		return 0, ErrClosedConn
	}
	return tc.written.Write(p)
}

// Written returns a copy of everything written so far.
func (tc *TestConn) Written() []byte {
	tc.lock.Lock()
	defer tc.lock.Unlock()
	return bytes.Clone(tc.written.Bytes())
}

func (tc *TestConn) Close() error {
	tc.lock.Lock()
	defer tc.lock.Unlock()
	tc.closed = true
	return nil
}
