// Copyright © 2021-2025 The Gomon Project.

package process

import (
	"encoding/json"
	"time"
)

type (
	// Optional holds a value that may be unavailable.
	Optional[T uint64 | float64] struct {
		value T
		ok    bool
	}

	// Sample is one point in time observation of a process' memory.
	Sample struct {
		Pid     Pid               `json:"pid"`
		Time    time.Time         `json:"time"`
		Rss     uint64            `json:"rss"`
		Vms     uint64            `json:"vms"`
		Uss     Optional[uint64]  `json:"uss"`
		Percent Optional[float64] `json:"percent"`
	}
)

// Present wraps an available value.
func Present[T uint64 | float64](v T) Optional[T] {
	return Optional[T]{value: v, ok: true}
}

// Unavailable reports a value that could not be read.
func Unavailable[T uint64 | float64]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it is available.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.ok
}

// Available reports whether the value was read.
func (o Optional[T]) Available() bool {
	return o.ok
}

// MarshalJSON encodes an unavailable value as null.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.ok {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}
