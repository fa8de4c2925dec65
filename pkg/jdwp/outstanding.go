/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package jdwp

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Pending is a request that is waiting for its reply.
// It is resolved exactly once: by its reply, by a decode failure of its reply,
// by being abandoned, or by the table being drained.
type Pending struct {
	ID uint32

	// Expect is the command whose reply shape the reply is decoded as.
	Expect Code

	// Request is the command that was sent, if it was registered with Track.
	Request Message

	SentAt time.Time

	key   MatchKey
	keyed bool

	// waiters is guarded by the owning table's lock.
	waiters int

	once   sync.Once
	done   chan struct{}
	packet *Packet
	err    error
}

func newPending(id uint32, expect Code, req Message) *Pending {
	return &Pending{
		ID:      id,
		Expect:  expect,
		Request: req,
		SentAt:  time.Now(),
		waiters: 1,
		done:    make(chan struct{}),
	}
}

// Done is closed when the request is resolved.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Result returns the outcome of a resolved request. It must only be called after Done is closed.
func (p *Pending) Result() (*Packet, error) {
	return p.packet, p.err
}

// Wait blocks until the request is resolved or ctx is done.
func (p *Pending) Wait(ctx context.Context) (*Packet, error) {
	select {
	case <-p.done:
		return p.packet, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// resolve records the outcome. Only the first call has any effect.
func (p *Pending) resolve(pkt *Packet, err error) bool {
	resolved := false
	p.once.Do(func() {
		p.packet = pkt
		p.err = err
		close(p.done)
		resolved = true
	})
	return resolved
}

// Key returns the match key of the request, if it has one.
func (p *Pending) Key() (MatchKey, bool) {
	return p.key, p.keyed
}

// Outstanding is the table of requests sent on one connection and not yet answered.
// It is safe for concurrent use; every insert and removal happens under its lock,
// so a reply and a cancellation racing for the same entry cannot both win.
type Outstanding struct {
	mu      sync.Mutex
	entries map[uint32]*Pending
	byKey   map[MatchKey]*Pending
}

func NewOutstanding() *Outstanding {
	return &Outstanding{
		entries: make(map[uint32]*Pending),
		byKey:   make(map[MatchKey]*Pending),
	}
}

// Register records that a request with the given id was sent and that its reply
// has the shape of expect's reply.
func (o *Outstanding) Register(id uint32, expect Code) (*Pending, error) {
	return o.add(newPending(id, expect, nil))
}

// Track registers req under id. Keyable requests also become visible to Join.
func (o *Outstanding) Track(id uint32, req Message) (*Pending, error) {
	p := newPending(id, req.Code(), req)
	p.key, p.keyed = KeyOf(req)
	return o.add(p)
}

func (o *Outstanding) add(p *Pending) (*Pending, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, exists := o.entries[p.ID]; exists {
		return nil, fmt.Errorf("%w: %d", ErrDuplicateRequestID, p.ID)
	}

	o.entries[p.ID] = p
	if p.keyed {
		if _, exists := o.byKey[p.key]; !exists {
			o.byKey[p.key] = p
		}
	}
	return p, nil
}

// Join attaches another waiter to an outstanding request with the same key.
// Each successful Join must be balanced by a Release or by the request being resolved.
func (o *Outstanding) Join(key MatchKey) (*Pending, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	p, found := o.byKey[key]
	if !found {
		return nil, false
	}
	p.waiters++
	return p, true
}

// Release detaches one waiter from p. When the last waiter leaves before the reply
// arrives, the request is abandoned. Release reports whether that happened.
func (o *Outstanding) Release(p *Pending) bool {
	o.mu.Lock()
	if o.entries[p.ID] != p {
		o.mu.Unlock()
		return false
	}
	p.waiters--
	if p.waiters > 0 {
		o.mu.Unlock()
		return false
	}
	o.removeLocked(p)
	o.mu.Unlock()

	p.resolve(nil, ErrRequestAbandoned)
	return true
}

// Abandon removes the request with the given id, regardless of how many callers wait for it.
// A reply that arrives for it later is reported as ErrUnmatchedReply.
func (o *Outstanding) Abandon(id uint32) bool {
	o.mu.Lock()
	p, found := o.entries[id]
	if found {
		o.removeLocked(p)
	}
	o.mu.Unlock()

	if found {
		p.resolve(nil, ErrRequestAbandoned)
	}
	return found
}

// Get returns the request outstanding under id without removing it.
func (o *Outstanding) Get(id uint32) (*Pending, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	p, found := o.entries[id]
	return p, found
}

// take removes and returns the request outstanding under id.
func (o *Outstanding) take(id uint32) (*Pending, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	p, found := o.entries[id]
	if found {
		o.removeLocked(p)
	}
	return p, found
}

func (o *Outstanding) removeLocked(p *Pending) {
	delete(o.entries, p.ID)
	if p.keyed && o.byKey[p.key] == p {
		delete(o.byKey, p.key)
	}
}

// Len returns the number of outstanding requests.
func (o *Outstanding) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.entries)
}

// DrainWithError resolves every outstanding request with err and empties the table.
// It is used when the connection goes away. It returns the number of requests drained.
func (o *Outstanding) DrainWithError(err error) int {
	o.mu.Lock()
	entries := o.entries
	o.entries = make(map[uint32]*Pending)
	o.byKey = make(map[MatchKey]*Pending)
	o.mu.Unlock()

	for _, p := range entries {
		p.resolve(nil, err)
	}
	return len(entries)
}
