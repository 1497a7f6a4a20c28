package venus

import (
	"errors"
	"fmt"
)

var (
	ErrMetricNotFound = errors.New("metric not found")
	ErrNotWritable    = errors.New("metric is not writable")
	ErrReadOnly       = errors.New("hub is in read-only mode")
	ErrEmptyPayload   = errors.New("empty payload")
)

// UnknownEnumCodeError keeps the offending wire code so consumers can
// report exactly what the device sent.
type UnknownEnumCodeError struct {
	Table string
	Code  int
}

func (e *UnknownEnumCodeError) Error() string {
	return fmt.Sprintf("unknown %s enum code %d", e.Table, e.Code)
}

// RangeError rejects an outgoing write outside the descriptor bounds.
type RangeError struct {
	ShortID string
	Value   float64
	Min     *float64
	Max     *float64
}

func (e *RangeError) Error() string {
	min, max := "-inf", "+inf"
	if e.Min != nil {
		min = fmt.Sprintf("%g", *e.Min)
	}
	if e.Max != nil {
		max = fmt.Sprintf("%g", *e.Max)
	}
	return fmt.Sprintf("value %g for %s out of range [%s, %s]", e.Value, e.ShortID, min, max)
}

// DuplicateShortIDError signals that two different descriptors resolved
// to the same (device, short id) pair. This is a configuration defect,
// not a runtime condition.
type DuplicateShortIDError struct {
	Device  DeviceIdentity
	ShortID string
}

func (e *DuplicateShortIDError) Error() string {
	return fmt.Sprintf("duplicate short id %q on device %s from different descriptors", e.ShortID, e.Device)
}
