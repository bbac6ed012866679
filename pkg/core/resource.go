// Copyright 2022-2024 Boris HUISGEN. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package core

// Resource implements a fetched resource.
type Resource struct {
	// The locator the resource was fetched from.
	Locator string
	// The resource content.
	Data []byte
	// The content type, empty if unknown.
	Type string
}
