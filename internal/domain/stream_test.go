package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRoutePromotedEvent_NeedsThumbnail(t *testing.T) {
	tests := []struct {
		name     string
		event    RoutePromotedEvent
		expected bool
	}{
		{
			name:     "promoted without thumbnail",
			event:    RoutePromotedEvent{RouteID: "r1", PromotedAt: time.Now()},
			expected: true,
		},
		{
			name:     "promoted with thumbnail",
			event:    RoutePromotedEvent{RouteID: "r1", HasThumbnail: true},
			expected: false,
		},
		{
			name:     "missing route id",
			event:    RoutePromotedEvent{},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.event.NeedsThumbnail())
		})
	}
}
