// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package output provides writers in different formats.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"k8s.io/client-go/util/jsonpath"
)

// Writer renders a list of items.
//
// Table writers print the cells, structured writers encode the item itself.
type Writer interface {
	WriteHeader(columns ...string) error
	WriteItem(item any, cells ...string) error
	Flush() error
}

// NewWriter builds writer from format, "jsonpath=<template>" selects the JSONPath writer.
func NewWriter(format string, w io.Writer) (Writer, error) {
	if template, ok := strings.CutPrefix(format, "jsonpath="); ok {
		jp := jsonpath.New("output").AllowMissingKeys(true)

		if err := jp.Parse(template); err != nil {
			return nil, fmt.Errorf("error parsing jsonpath %q: %w", template, err)
		}

		return NewJSONPath(w, jp), nil
	}

	switch format {
	case "table":
		return NewTable(w), nil
	case "yaml":
		return NewYAML(w), nil
	case "json":
		return NewJSON(w), nil
	default:
		return nil, fmt.Errorf("output format %q is not supported", format)
	}
}

// CompleteOutputArg represents tab completion for `--output` argument.
func CompleteOutputArg(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return []string{"json", "table", "yaml", "jsonpath="}, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}
