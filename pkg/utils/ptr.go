package utils

import (
	"time"

	"github.com/aarondl/null/v8"
)

func NullStringPtr(s null.String) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

func NullTimePtr(t null.Time) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}

func NullUint64Ptr(v null.Uint64) *uint64 {
	if !v.Valid {
		return nil
	}
	return &v.Uint64
}
