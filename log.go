// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package tickwheel

import (
	"fmt"

	"github.com/intuitivelabs/slog"
)

// Log is the package-wide logger. Callers embedding this module in a
// larger service may repoint its level or prefix at init time.
var Log = slog.Log{Level: slog.LWARN, Prefix: "tickwheel: "}

func DBGon() bool  { return Log.L(slog.LDBG) }
func ERRon() bool  { return Log.L(slog.LERR) }
func WARNon() bool { return Log.L(slog.LWARN) }

func DBG(f string, args ...interface{}) {
	Log.LOG(slog.LDBG, f, args...)
}

func ERR(f string, args ...interface{}) {
	Log.LOG(slog.LERR, f, args...)
}

func WARN(f string, args ...interface{}) {
	Log.LOG(slog.LWARN, f, args...)
}

// BUG reports a recoverable invariant violation: logged, execution
// continues.
func BUG(f string, args ...interface{}) {
	Log.LOG(slog.LERR, "BUG: "+f, args...)
}

// PANIC reports an unrecoverable invariant violation.
func PANIC(f string, args ...interface{}) {
	Log.LOG(slog.LCRIT, f, args...)
	panic(fmt.Sprintf(f, args...))
}
