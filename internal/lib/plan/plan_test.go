package plan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDuration(t *testing.T) {
	tests := []struct {
		name      string
		planID    string
		trialDays int
		want      time.Duration
	}{
		{"monthly", "monthly", 7, 30 * 24 * time.Hour},
		{"annually", "annually", 7, 365 * 24 * time.Hour},
		{"trial configured", "trial", 14, 14 * 24 * time.Hour},
		{"trial default", "trial", 0, 7 * 24 * time.Hour},
		{"unknown plan falls back to month", "lifetime", 7, 30 * 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Duration(tt.planID, tt.trialDays))
		})
	}
}
