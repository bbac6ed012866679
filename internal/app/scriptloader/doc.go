// Copyright 2022-2024 Boris HUISGEN. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package scriptloader implements the application: it loads the
// configuration, initializes the fetcher, engine, document and loader
// components, and runs ordered script loads into a document.
package scriptloader
