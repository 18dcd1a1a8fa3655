// Package literal serializes flattened records into the array literal that
// replaces a keys<T>() call in emitted JavaScript.
package literal

import (
	"github.com/go-json-experiment/json"
	"gitlab.com/tozd/go/errors"

	"github.com/tsgonest/tskeys/internal/typedesc"
)

// Mode selects the shape of the emitted array.
type Mode string

const (
	// ModeRecords emits [{"name":"a","optional":false,"type":"string"}, ...].
	ModeRecords Mode = "records"
	// ModePaths emits the legacy shape: ["a", "c.a", ...].
	ModePaths Mode = "paths"
)

// Modes lists the accepted modes.
var Modes = []Mode{ModeRecords, ModePaths}

// ParseMode validates s as a Mode. The empty string means ModeRecords.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeRecords:
		return ModeRecords, nil
	case ModePaths:
		return ModePaths, nil
	}
	return "", errors.Errorf("unknown output mode %q (expected %q or %q)", s, ModeRecords, ModePaths)
}

// Array renders records as a JavaScript array literal. JSON is valid
// JavaScript expression syntax, so the literal is the JSON encoding.
func Array(records []typedesc.PropertyRecord, mode Mode) (string, error) {
	var v any
	switch mode {
	case ModeRecords, "":
		if records == nil {
			records = []typedesc.PropertyRecord{}
		}
		v = records
	case ModePaths:
		paths := make([]string, len(records))
		for i, r := range records {
			paths[i] = r.Path
		}
		v = paths
	default:
		return "", errors.Errorf("unknown output mode %q", mode)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", errors.Errorf("encoding literal: %w", err)
	}
	return string(b), nil
}
