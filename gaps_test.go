package migverify

import (
	"errors"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

func versions(vs ...int) []Migration {
	migrations := make([]Migration, 0, len(vs))
	for _, v := range vs {
		migrations = append(migrations, Migration{Version: v})
	}
	return migrations
}

func TestCheckContiguous(t *testing.T) {
	t.Parallel()
	check.Nil(t, CheckContiguous(nil))
	check.Nil(t, CheckContiguous(versions(7)))
	check.Nil(t, CheckContiguous(versions(1, 2, 3, 4)))
	check.Nil(t, CheckContiguous(versions(41, 42, 43)))
}

func TestCheckContiguousReportsFirstGap(t *testing.T) {
	t.Parallel()
	err := CheckContiguous(versions(1, 2, 4, 5, 7))
	var gap *MigrationGapError
	assert.True(t, errors.As(err, &gap))
	check.Equal(t, 3, gap.Expected)
	check.Equal(t, 4, gap.Actual)
	check.Equal(t, "Gap in migrations detected. Expected migration 3, got 4.", err.Error())
}

func TestCheckContiguousDuplicateVersion(t *testing.T) {
	t.Parallel()
	err := CheckContiguous(versions(1, 2, 2, 3))
	var gap *MigrationGapError
	assert.True(t, errors.As(err, &gap))
	check.Equal(t, 3, gap.Expected)
	check.Equal(t, 2, gap.Actual)
}
