// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package cmd

import (
	"io"
	"os"

	"github.com/juju/errors"
)

// FileVar represents a path to a file given on the command line.
type FileVar struct {
	Path string
}

// Set implements gnuflag.Value.
func (f *FileVar) Set(v string) error {
	f.Path = v
	return nil
}

// String implements gnuflag.Value.
func (f *FileVar) String() string {
	return f.Path
}

// AbsPath returns the path relative to the context, or "" when unset.
func (f *FileVar) AbsPath(ctx *Context) string {
	if f.Path == "" {
		return ""
	}
	return ctx.AbsPath(f.Path)
}

// Open returns an io.ReadCloser to the file relative to the context.
func (f *FileVar) Open(ctx *Context) (io.ReadCloser, error) {
	if f.Path == "" {
		return nil, errors.NotValidf("empty path")
	}
	file, err := os.Open(ctx.AbsPath(f.Path))
	return file, errors.Trace(err)
}
