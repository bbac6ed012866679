// Copyright 2022-2024 Boris HUISGEN. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package host implements the environment scripts are loaded into.
//
// A [Document] is an HTML document. Appending a script element with a src to
// the document of an [Environment] makes the environment fetch the script
// through a [core.Fetcher], execute it with a [core.Engine] and call exactly
// one of the element OnLoad or OnError functions.
//
// Notifications run on the environment loop goroutine, one at a time. They
// must not block waiting for another load, since that load can only complete
// on the same goroutine.
package host
