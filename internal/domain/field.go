package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownField is returned when a variable name is not one of the plottable fields.
var ErrUnknownField = errors.New("unknown field")

// Field names one of the numeric columns of an observation.
type Field string

const (
	ActualPrecipitation  Field = "actual_precipitation"
	AveragePrecipitation Field = "average_precipitation"
	RecordPrecipitation  Field = "record_precipitation"
)

// Fields lists the plottable fields in selector order.
var Fields = []Field{ActualPrecipitation, AveragePrecipitation, RecordPrecipitation}

// ParseField validates a variable name coming from the selector.
func ParseField(s string) (Field, error) {
	for _, f := range Fields {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
}

// Label is the human-readable axis label, e.g. "actual precipitation".
func (f Field) Label() string {
	return strings.ReplaceAll(string(f), "_", " ")
}
