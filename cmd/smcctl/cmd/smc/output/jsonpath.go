// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package output

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"

	"k8s.io/client-go/util/jsonpath"
)

// JSONPath outputs the result of a JSONPath template for every item.
type JSONPath struct {
	jsonPath *jsonpath.JSONPath
	writer   io.Writer
}

// NewJSONPath initializes JSONPath output.
func NewJSONPath(writer io.Writer, jsonPath *jsonpath.JSONPath) *JSONPath {
	return &JSONPath{
		jsonPath: jsonPath,
		writer:   writer,
	}
}

// WriteHeader implements output.Writer interface.
func (j *JSONPath) WriteHeader(...string) error {
	return nil
}

// printResult prints maps, slices and structs as JSON and scalars as plain text.
func printResult(wr io.Writer, result reflect.Value) error {
	kind := result.Kind()
	if kind == reflect.Interface {
		if result.IsNil() {
			_, err := fmt.Fprintln(wr, "null")

			return err
		}

		result = result.Elem()
		kind = result.Kind()
	}

	switch kind { //nolint:exhaustive
	case reflect.Map, reflect.Array, reflect.Slice, reflect.Struct:
		text, err := json.MarshalIndent(result.Interface(), "", "    ")
		if err != nil {
			return err
		}

		_, err = fmt.Fprintln(wr, string(text))

		return err
	default:
		_, err := fmt.Fprintln(wr, result.Interface())

		return err
	}
}

// WriteItem implements output.Writer interface.
func (j *JSONPath) WriteItem(item any, _ ...string) error {
	data, err := toGeneric(item)
	if err != nil {
		return err
	}

	results, err := j.jsonPath.FindResults(data)
	if err != nil {
		return fmt.Errorf("error finding result for jsonpath: %w", err)
	}

	for _, resultGroup := range results {
		for _, result := range resultGroup {
			if err = printResult(j.writer, result); err != nil {
				return fmt.Errorf("error generating jsonpath results: %w", err)
			}
		}
	}

	return nil
}

// Flush implements output.Writer interface.
func (j *JSONPath) Flush() error {
	return nil
}
