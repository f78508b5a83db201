// Figura - Deterministic Visual Generation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/figura

package schema

import (
	"fmt"
	"sort"
)

// DataPoint is a single observation. Value is polymorphic: numeric for
// charts, string for categorical displays.
type DataPoint struct {
	Label    string                 `json:"label" validate:"required"`
	Value    interface{}            `json:"value" validate:"required"`
	Category string                 `json:"category,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// NumericValue returns the point's value as a float64. The second return is
// false when the value is not numeric (string-valued categorical points).
func (p DataPoint) NumericValue() (float64, bool) {
	switch v := p.Value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// DataSpec describes the data to visualize and optional shaping hints.
// Statistical fields (TotalValue, MinValue, MaxValue) are caller-supplied
// hints, never derived automatically.
type DataSpec struct {
	DataType   DataType               `json:"data_type" validate:"required,datatype"`
	DataPoints []DataPoint            `json:"data_points" validate:"required,min=1,dive"`
	GroupBy    string                 `json:"group_by,omitempty"`
	SortBy     string                 `json:"sort_by,omitempty"`
	SortOrder  SortOrder              `json:"sort_order,omitempty" validate:"omitempty,oneof=asc desc"`
	Limit      int                    `json:"limit,omitempty" validate:"omitempty,min=1,max=100"`
	Filters    map[string]interface{} `json:"filters,omitempty"`
	TotalValue *float64               `json:"total_value,omitempty"`
	MinValue   *float64               `json:"min_value,omitempty"`
	MaxValue   *float64               `json:"max_value,omitempty"`
}

// NewDataSpec constructs a validated DataSpec. The data point list must be
// non-empty; every point needs a label and a value.
func NewDataSpec(dataType DataType, points []DataPoint) (*DataSpec, error) {
	ds := &DataSpec{
		DataType:   dataType,
		DataPoints: points,
		SortOrder:  SortAsc,
	}
	if err := ValidateStruct(ds); err != nil {
		return nil, fmt.Errorf("data spec: %w", err)
	}
	return ds, nil
}

// SortedByLabel returns the data points ordered by label ascending. The
// receiver is not modified. Used by the content-hash normalization so that
// point order never affects cache identity.
func (ds *DataSpec) SortedByLabel() []DataPoint {
	out := make([]DataPoint, len(ds.DataPoints))
	copy(out, ds.DataPoints)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// MaxNumeric returns the largest numeric value among the data points, or 0
// when no point is numeric.
func (ds *DataSpec) MaxNumeric() float64 {
	var max float64
	for _, p := range ds.DataPoints {
		if v, ok := p.NumericValue(); ok && v > max {
			max = v
		}
	}
	return max
}
