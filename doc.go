// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

// Package tickwheel implements a four-level hierarchical hashed timing
// wheel with an overflow bucket and a side-table keyed cancellable layer.
//
// The wheel itself is single-owner: it is not safe for concurrent use and
// expects a single goroutine (typically the worker goroutine owned by a
// ThreadDriver) to call Tick, Skip, Insert and Cancel without overlap.
package tickwheel
