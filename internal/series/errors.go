package series

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind classifies a failure to produce a prepared frame.
type ErrorKind int

const (
	// NotFound means the source file does not exist.
	NotFound ErrorKind = iota
	// ParseFailure covers every other read, parse or preparation failure.
	ParseFailure
)

func (k ErrorKind) String() string {
	switch k {
	case NotFound:
		return "not found"
	case ParseFailure:
		return "parse failure"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// LoadError is returned by Load and Prepare. Kind is always one of the
// ErrorKind constants.
type LoadError struct {
	Kind ErrorKind
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Kind == NotFound {
		return fmt.Sprintf("file not found: %s", e.Path)
	}
	return e.Err.Error()
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func notFound(path string, err error) *LoadError {
	return &LoadError{Kind: NotFound, Path: path, Err: err}
}

func parseFailure(path string, err error) *LoadError {
	return &LoadError{Kind: ParseFailure, Path: path, Err: err}
}

// Kind reports the ErrorKind of err. Errors that are not a LoadError are
// reported as ParseFailure.
func Kind(err error) ErrorKind {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Kind
	}
	return ParseFailure
}

// IsNotFound reports whether err is a NotFound LoadError.
func IsNotFound(err error) bool {
	return err != nil && Kind(err) == NotFound
}
