// Copyright 2022-2024 Boris HUISGEN. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package script

import (
	"context"

	"github.com/bhuisgen/scriptloader/pkg/host"
)

// Step is a unit of sequential work.
type Step func(ctx context.Context) error

// Series runs the steps one after another and returns the first error. The
// steps following a failed step are not run. A nil step is skipped.
func Series(ctx context.Context, steps ...Step) error {
	for _, step := range steps {
		if step == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := step(ctx); err != nil {
			return err
		}
	}

	return nil
}

// LoadStep returns a step loading the script with the given src. If then is
// not nil, it is called with the script element once loaded, on the caller
// goroutine.
func LoadStep(doc Document, src string, then func(*host.Element)) Step {
	return func(ctx context.Context) error {
		el, err := LoadAsync(doc, src).Await(ctx)
		if err != nil {
			return err
		}
		if then != nil {
			then(el)
		}
		return nil
	}
}

// Sequence loads the scripts in order: a script is appended only once the
// previous one is executed. It stops at the first failure and returns it
// with the elements loaded before.
func Sequence(ctx context.Context, doc Document, srcs ...string) ([]*host.Element, error) {
	scripts := make([]*host.Element, 0, len(srcs))

	steps := make([]Step, 0, len(srcs))
	for _, src := range srcs {
		steps = append(steps, LoadStep(doc, src, func(el *host.Element) {
			scripts = append(scripts, el)
		}))
	}

	if err := Series(ctx, steps...); err != nil {
		return scripts, err
	}

	return scripts, nil
}
