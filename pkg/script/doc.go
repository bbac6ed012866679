// Copyright 2022-2024 Boris HUISGEN. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package script loads external scripts into a host document.
//
// Three notification styles are provided: [Load] (none), [LoadThen] (success
// only) and [LoadCallback] (exactly one (error, element) call). Loading
// several scripts in order is expressed with [LoadAsync], [Sequence] or
// [Series] rather than by nesting callbacks:
//
//	scripts, err := script.Sequence(ctx, doc, "1.js", "2.js", "3.js")
//	if err != nil {
//		handleError(err)
//		return
//	}
//
// A failure stops the sequence: no later script is loaded.
package script
