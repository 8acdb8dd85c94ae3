package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func coord(v float64) *float64 { return &v }

func TestMilesBetween(t *testing.T) {
	// Kennewick to Richland, roughly ten miles.
	miles, ok := MilesBetween(coord(46.2112), coord(-119.1372), coord(46.2857), coord(-119.2845))
	require.True(t, ok)
	assert.InDelta(t, 8.7, miles, 1.0)
}

func TestMilesBetweenSamePoint(t *testing.T) {
	miles, ok := MilesBetween(coord(46.21), coord(-119.13), coord(46.21), coord(-119.13))
	require.True(t, ok)
	assert.Zero(t, miles)
}

func TestMilesBetweenMissingCoordinates(t *testing.T) {
	_, ok := MilesBetween(nil, coord(-119.13), coord(46.28), coord(-119.28))
	assert.False(t, ok)
	_, ok = MilesBetween(coord(46.21), coord(-119.13), coord(46.28), nil)
	assert.False(t, ok)
	_, ok = MilesBetween(nil, nil, nil, nil)
	assert.False(t, ok)
}
