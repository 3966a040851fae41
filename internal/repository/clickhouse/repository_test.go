package clickhouse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInsertVersion_DecreasesAndStaysBelowUpserts(t *testing.T) {
	earlier := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	later := earlier.Add(time.Millisecond)

	assert.Greater(t, insertVersion(earlier), insertVersion(later))
	assert.Less(t, insertVersion(earlier), uint64(earlier.UnixNano()))
	assert.Less(t, insertVersion(time.Unix(0, 0)), uint64(earlier.UnixNano()))
}
