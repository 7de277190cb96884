package messaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatIDNumber(t *testing.T) {
	tests := []struct {
		v        float64
		decimals int
		want     string
	}{
		{0, 0, "0"},
		{999, 0, "999"},
		{1000, 0, "1.000"},
		{1234.5, 2, "1.234,50"},
		{1000.0, 2, "1.000"},
		{2700000, 0, "2.700.000"},
		{-1234567.891, 1, "-1.234.567,9"},
		{0.004, 2, "0"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatIDNumber(tt.v, tt.decimals))
	}
}
