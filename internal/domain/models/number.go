package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Quantity is a float64 that also accepts numeric strings, the shape form
// posts arrive in ("100", "12.5").
type Quantity float64

func (q *Quantity) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	raw, err := numericText(data)
	if err != nil {
		return err
	}
	if raw == "" {
		*q = 0
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%q is not a number", raw)
	}
	*q = Quantity(v)
	return nil
}

// Float returns the value as float64.
func (q Quantity) Float() float64 { return float64(q) }

// Count is an integer that also accepts numeric strings. Fractional values
// are rejected.
type Count int

func (c *Count) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	raw, err := numericText(data)
	if err != nil {
		return err
	}
	if raw == "" {
		*c = 0
		return nil
	}
	if v, err := strconv.Atoi(raw); err == nil {
		*c = Count(v)
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return fmt.Errorf("%q is not an integer", raw)
	}
	*c = Count(int(f))
	return nil
}

// Int returns the value as int.
func (c Count) Int() int { return int(c) }

func numericText(data []byte) (string, error) {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", err
		}
		return strings.TrimSpace(s), nil
	}
	return string(bytes.TrimSpace(data)), nil
}

// QuantityPtr converts an optional Quantity into an optional float64.
func QuantityPtr(q *Quantity) *float64 {
	if q == nil {
		return nil
	}
	v := float64(*q)
	return &v
}
