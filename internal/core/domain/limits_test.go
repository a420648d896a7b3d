package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampRowLimit(t *testing.T) {
	tests := []struct {
		name      string
		requested int
		max       int
		want      int
		wantErr   bool
	}{
		{name: "within range", requested: 50, max: 10000, want: 50},
		{name: "at max", requested: 10000, max: 10000, want: 10000},
		{name: "above max is capped", requested: 50000, max: 10000, want: 10000},
		{name: "one", requested: 1, max: 10000, want: 1},
		{name: "zero is invalid", requested: 0, max: 10000, wantErr: true},
		{name: "negative is invalid", requested: -5, max: 10000, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ClampRowLimit(tt.requested, tt.max)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidRowLimit)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
