// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

// Package debug provides a trace logging hook shared by uacp, uasc and the
// root client package. It is off by default; set OPCUA_DEBUG=1 or flip
// Enable to turn it on.
package debug

import (
	"log"
	"os"
)

// Enable turns trace logging on. Defaults to true when OPCUA_DEBUG is set to
// a non-empty value.
var Enable = os.Getenv("OPCUA_DEBUG") != ""

// Printf writes a trace line when Enable is true. It is a no-op otherwise.
func Printf(format string, v ...interface{}) {
	if !Enable {
		return
	}
	log.Printf(format, v...)
}
