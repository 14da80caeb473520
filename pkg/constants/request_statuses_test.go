package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{RequestStatusPending, RequestStatusAccepted, true},
		{RequestStatusPending, RequestStatusRejected, true},
		{RequestStatusAccepted, RequestStatusDetached, true},
		{RequestStatusPending, RequestStatusDetached, false},
		{RequestStatusAccepted, RequestStatusAccepted, false},
		{RequestStatusAccepted, RequestStatusRejected, false},
		{RequestStatusRejected, RequestStatusAccepted, false},
		{RequestStatusRejected, RequestStatusPending, false},
		{RequestStatusDetached, RequestStatusPending, false},
		{RequestStatusDetached, RequestStatusAccepted, false},
		{"unknown", RequestStatusAccepted, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestIsFinalStatus(t *testing.T) {
	assert.False(t, IsFinalStatus(RequestStatusPending))
	assert.False(t, IsFinalStatus(RequestStatusAccepted))
	assert.True(t, IsFinalStatus(RequestStatusRejected))
	assert.True(t, IsFinalStatus(RequestStatusDetached))
}
