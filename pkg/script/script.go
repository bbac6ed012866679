// Copyright 2022-2024 Boris HUISGEN. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package script

import (
	"errors"
	"fmt"

	"github.com/bhuisgen/scriptloader/pkg/host"
)

// Document is the document scripts are appended to.
type Document interface {
	CreateElement(tag string) *host.Element
	Head() *host.Element
	Environment() *host.Environment
}

// ErrLoad matches every LoadError.
var ErrLoad = errors.New("script load failed")

// LoadError implements the error reported when a script fails to load.
type LoadError struct {
	// Src is the script locator.
	Src string
	// Err is the cause reported by the host environment.
	Err error
}

// Error returns the error message.
func (e *LoadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("error while loading %s", e.Src)
	}
	return fmt.Sprintf("error while loading %s: %v", e.Src, e.Err)
}

// Unwrap returns the cause.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrLoad.
func (e *LoadError) Is(target error) bool {
	return target == ErrLoad
}

// Load appends a script element with the given src to the document head. The
// outcome is not reported; the host environment logs failures.
func Load(doc Document, src string) {
	_ = appendScript(doc, src, nil, nil)
}

// LoadThen appends a script element with the given src to the document head
// and calls onLoad once the script is executed. onLoad is never called if the
// script fails, and the failure is not reported.
func LoadThen(doc Document, src string, onLoad func(*host.Element)) {
	_ = appendScript(doc, src, onLoad, nil)
}

// LoadCallback appends a script element with the given src to the document
// head. Once issued, callback is called exactly once, with a nil error and the
// script element on success, or with a *LoadError and a nil element on
// failure. An error is returned if the load cannot be issued, such as for a
// document without environment, in which case callback is never called.
func LoadCallback(doc Document, src string, callback func(err error, el *host.Element)) error {
	if callback == nil {
		return errors.New("missing callback")
	}

	return appendScript(doc, src,
		func(el *host.Element) {
			callback(nil, el)
		},
		func(el *host.Element, err error) {
			callback(&LoadError{Src: src, Err: err}, nil)
		})
}

// appendScript creates the script element and appends it to the head.
func appendScript(doc Document, src string, onLoad func(*host.Element),
	onError func(*host.Element, error)) error {
	if doc.Environment() == nil {
		return &LoadError{Src: src, Err: host.ErrNoEnvironment}
	}

	el := doc.CreateElement("script")
	el.SetSrc(src)
	el.OnLoad(onLoad)
	el.OnError(onError)

	if err := doc.Head().AppendChild(el); err != nil {
		return &LoadError{Src: src, Err: err}
	}

	return nil
}
