// Copyright 2022-2024 Boris HUISGEN. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package host

import (
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ElementState is the load state of an element.
type ElementState int

const (
	// StateCreated is the state of an element not yet loading.
	StateCreated ElementState = iota
	// StatePending is the state of a script element being fetched or executed.
	StatePending
	// StateLoaded is the state of a script element executed successfully.
	StateLoaded
	// StateFailed is the state of a script element that failed to load.
	StateFailed
)

// String returns the state name.
func (s ElementState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StatePending:
		return "pending"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Element implements a document element.
type Element struct {
	id      string
	node    *html.Node
	doc     *Document
	mu      sync.Mutex
	state   ElementState
	err     error
	onLoad  func(*Element)
	onError func(*Element, error)
}

// newElement wraps the given node.
func newElement(doc *Document, id string, node *html.Node) *Element {
	return &Element{
		id:   id,
		node: node,
		doc:  doc,
	}
}

// ID returns the element id.
func (e *Element) ID() string {
	return e.id
}

// TagName returns the element tag name.
func (e *Element) TagName() string {
	return e.node.Data
}

// Src returns the src attribute.
func (e *Element) Src() string {
	return e.GetAttribute("src")
}

// SetSrc sets the src attribute.
func (e *Element) SetSrc(src string) {
	e.SetAttribute("src", src)
}

// GetAttribute returns the given attribute value.
func (e *Element) GetAttribute(key string) string {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	for _, a := range e.node.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// SetAttribute sets the given attribute value.
func (e *Element) SetAttribute(key string, value string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	for i, a := range e.node.Attr {
		if a.Key == key {
			e.node.Attr[i].Val = value
			return
		}
	}
	e.node.Attr = append(e.node.Attr, html.Attribute{Key: key, Val: value})
}

// OnLoad sets the function called once the script is executed. It must be
// set before the element is appended.
func (e *Element) OnLoad(fn func(*Element)) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.onLoad = fn
}

// OnError sets the function called if the script cannot be fetched or
// executed. It must be set before the element is appended.
func (e *Element) OnError(fn func(*Element, error)) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.onError = fn
}

// State returns the element load state.
func (e *Element) State() ElementState {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.state
}

// Err returns the load error of a failed element.
func (e *Element) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.err
}

// AppendChild appends the child element. Appending a script element with a
// src to a connected element of a document owned by an environment starts
// its load.
func (e *Element) AppendChild(child *Element) error {
	if child.doc != e.doc {
		return ErrWrongDocument
	}

	d := e.doc
	d.mu.Lock()
	if child.node.Parent != nil || child.node == d.root {
		d.mu.Unlock()
		return ErrAlreadyAttached
	}
	load := d.env != nil && child.node.DataAtom == atom.Script && hasAttr(child.node, "src") &&
		isConnected(d.root, e.node)
	if load {
		if err := d.env.acquire(); err != nil {
			d.mu.Unlock()
			return err
		}
	}
	e.node.AppendChild(child.node)
	d.mu.Unlock()

	if load {
		d.env.load(child)
	}

	return nil
}

// begin moves the element to the pending state.
func (e *Element) begin() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateCreated {
		return false
	}
	e.state = StatePending
	return true
}

// settle records the load outcome and returns the notification to call. It
// returns nil functions if the element is not pending, so an outcome is
// reported at most once.
func (e *Element) settle(err error) (func(*Element), func(*Element, error), bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StatePending {
		return nil, nil, false
	}
	if err != nil {
		e.state = StateFailed
		e.err = err
		return nil, e.onError, true
	}
	e.state = StateLoaded
	return e.onLoad, nil, true
}

// hasAttr checks if the node has the given attribute.
func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

// isConnected checks if the node is a descendant of root.
func isConnected(root *html.Node, n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n == root {
			return true
		}
	}
	return false
}
