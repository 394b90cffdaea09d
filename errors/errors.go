// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

// Package errors wraps github.com/pkg/errors so that the rest of the module
// has one error-construction surface and stack traces are attached at the
// point a fault first occurs rather than where it is logged.
package errors

import "github.com/pkg/errors"

// Errorf formats according to a format specifier and returns the string as a
// value that satisfies error, annotated with a stack trace.
func Errorf(format string, args ...interface{}) error {
	return errors.Errorf(format, args...)
}

// New returns an error with the supplied message, annotated with a stack trace.
func New(msg string) error {
	return errors.New(msg)
}

// Wrap annotates err with a message and a stack trace. Returns nil if err is nil.
func Wrap(err error, msg string) error {
	return errors.Wrap(err, msg)
}

// Wrapf annotates err with a formatted message and a stack trace. Returns nil if err is nil.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// Cause returns the underlying cause of err, if possible.
func Cause(err error) error {
	return errors.Cause(err)
}
