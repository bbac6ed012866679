// Copyright 2022-2024 Boris HUISGEN. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package scriptloader

import (
	_ "github.com/bhuisgen/scriptloader/pkg/modules/fetcher/providers/file"
	_ "github.com/bhuisgen/scriptloader/pkg/modules/fetcher/providers/http"

	_ "github.com/bhuisgen/scriptloader/pkg/modules/engine/engines/js"
)
