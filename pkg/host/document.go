// Copyright 2022-2024 Boris HUISGEN. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package host

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document implements an HTML document.
type Document struct {
	root     *html.Node
	head     *Element
	body     *Element
	env      *Environment
	elements map[*html.Node]*Element
	mu       sync.Mutex
	newID    func() string
}

const (
	documentDefaultIndex string = "<!DOCTYPE html><html><head></head><body></body></html>"
)

// documentNewID redirects to uuid.NewString.
func documentNewID() string {
	return uuid.NewString()
}

// NewDocument parses the given index page. An empty index creates an empty
// document. The document is inert: appending scripts does not load them.
func NewDocument(index []byte) (*Document, error) {
	if len(bytes.TrimSpace(index)) == 0 {
		index = []byte(documentDefaultIndex)
	}
	root, err := html.Parse(bytes.NewReader(index))
	if err != nil {
		return nil, fmt.Errorf("parse index: %w", err)
	}

	d := &Document{
		root:     root,
		elements: make(map[*html.Node]*Element),
		newID:    documentNewID,
	}

	head := findElement(root, atom.Head)
	body := findElement(root, atom.Body)
	if head == nil || body == nil {
		return nil, errors.New("parse index: missing head or body")
	}
	d.head = d.wrap(head)
	d.body = d.wrap(body)

	return d, nil
}

// Environment returns the environment owning the document, or nil for a
// document created with NewDocument.
func (d *Document) Environment() *Environment {
	return d.env
}

// CreateElement creates a detached element with the given tag name.
func (d *Document) CreateElement(tag string) *Element {
	tag = strings.ToLower(tag)
	node := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Lookup([]byte(tag)),
		Data:     tag,
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	return d.wrap(node)
}

// Head returns the head element.
func (d *Document) Head() *Element {
	return d.head
}

// Body returns the body element.
func (d *Document) Body() *Element {
	return d.body
}

// Scripts returns the script elements created by this document and attached
// to the tree, in document order.
func (d *Document) Scripts() []*Element {
	d.mu.Lock()
	defer d.mu.Unlock()

	var scripts []*Element
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Script {
			if e, ok := d.elements[n]; ok {
				scripts = append(scripts, e)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(d.root)

	return scripts
}

// GetElementByID returns the element created by this document with the given
// id.
func (d *Document) GetElementByID(id string) (*Element, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, e := range d.elements {
		if e.id == id {
			return e, true
		}
	}
	return nil, false
}

// Render writes the document HTML.
func (d *Document) Render(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := html.Render(w, d.root); err != nil {
		return fmt.Errorf("render document: %w", err)
	}
	return nil
}

// wrap returns a new element for the node. The caller must hold d.mu or own
// the document exclusively.
func (d *Document) wrap(node *html.Node) *Element {
	e := newElement(d, d.newID(), node)
	d.elements[node] = e
	return e
}

// findElement returns the first element node with the given atom.
func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}
