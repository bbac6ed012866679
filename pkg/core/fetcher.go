// Copyright 2022-2024 Boris HUISGEN. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package core

import "context"

// Fetcher is the interface of the fetcher component.
//
// The fetcher component fetches resources through providers.
type Fetcher interface {
	// Fetch fetches the resource identified by the given locator.
	Fetch(ctx context.Context, locator string) (*Resource, error)
}

// FetcherProviderModule is the interface of a provider module.
type FetcherProviderModule interface {
	// Module is the interface of a module.
	Module

	// Fetch fetches the resource identified by the given locator.
	Fetch(ctx context.Context, locator string) (*Resource, error)
}
