// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package cmd

import (
	"encoding/json"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"gopkg.in/yaml.v3"
)

// Formatter converts an arbitrary object into a []byte.
type Formatter func(value interface{}) ([]byte, error)

// FormatYaml marshals value to a yaml-formatted []byte, unless value is nil.
func FormatYaml(value interface{}) ([]byte, error) {
	if value == nil {
		return nil, nil
	}
	return yaml.Marshal(value)
}

// FormatJson marshals value to an indented json-formatted []byte, unless
// value is nil.
func FormatJson(value interface{}) ([]byte, error) {
	if value == nil {
		return nil, nil
	}
	return json.MarshalIndent(value, "", "  ")
}

// DefaultFormatters are used by commands writing structured output.
var DefaultFormatters = map[string]Formatter{
	"yaml": FormatYaml,
	"json": FormatJson,
}

// formatterValue implements gnuflag.Value for the --format flag.
type formatterValue struct {
	name       string
	formatters map[string]Formatter
}

// newFormatterValue returns a new formatterValue. The initial Formatter name
// must be present in formatters.
func newFormatterValue(initial string, formatters map[string]Formatter) *formatterValue {
	v := &formatterValue{formatters: formatters}
	if err := v.Set(initial); err != nil {
		panic(err)
	}
	return v
}

// Set stores the chosen formatter name in v.name.
func (v *formatterValue) Set(value string) error {
	if v.formatters[value] == nil {
		return errors.NotValidf("format %q", value)
	}
	v.name = value
	return nil
}

// String returns the chosen formatter name.
func (v *formatterValue) String() string {
	return v.name
}

func (v *formatterValue) doc() string {
	choices := make([]string, 0, len(v.formatters))
	for name := range v.formatters {
		choices = append(choices, name)
	}
	sort.Strings(choices)
	return "specify output format (" + strings.Join(choices, "|") + ")"
}

func (v *formatterValue) format(value interface{}) ([]byte, error) {
	return v.formatters[v.name](value)
}

// Output is responsible for interpreting output-related command line flags
// and writing a value to a file or to stdout as directed.
type Output struct {
	formatter *formatterValue
	outPath   string
}

// AddFlags injects appropriate command line flags into f.
func (c *Output) AddFlags(f *gnuflag.FlagSet, name string, formatters map[string]Formatter) {
	c.formatter = newFormatterValue(name, formatters)
	f.Var(c.formatter, "format", c.formatter.doc())
	f.StringVar(&c.outPath, "o", "", "specify an output file")
	f.StringVar(&c.outPath, "output", "", "")
}

// Name returns the chosen format.
func (c *Output) Name() string {
	return c.formatter.name
}

// Write formats and outputs value as directed by the --format and --output
// command line flags.
func (c *Output) Write(ctx *Context, value interface{}) error {
	data, err := c.formatter.format(value)
	if err != nil {
		return errors.Trace(err)
	}
	if data == nil {
		return nil
	}
	if c.outPath == "" {
		return errors.Trace(writeLine(ctx.Stdout, data))
	}
	file, err := createOutput(ctx.AbsPath(c.outPath))
	if err != nil {
		return errors.Trace(err)
	}
	if err := writeLine(file, data); err != nil {
		_ = file.Close()
		return errors.Trace(err)
	}
	return errors.Annotatef(file.Close(), "closing %q", c.outPath)
}

// createOutput opens the file --output names.
var createOutput = func(path string) (io.WriteCloser, error) {
	return os.Create(path)
}

// writeLine writes data, terminated by a newline.
func writeLine(w io.Writer, data []byte) error {
	if _, err := w.Write(data); err != nil {
		return errors.Trace(err)
	}
	if data[len(data)-1] != '\n' {
		if _, err := w.Write([]byte{'\n'}); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}
