package checkpoint

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestChecksumDeterministic(t *testing.T) {
	assert.Equal(t, checksum([]byte("hello")), checksum([]byte("hello")))
	assert.NotEqual(t, checksum([]byte("hello")), checksum([]byte("world")))
}

func TestFileNameSortsByTime(t *testing.T) {
	earlier := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	later := earlier.Add(time.Second)
	assert.True(t, fileName(earlier) < fileName(later))
}
