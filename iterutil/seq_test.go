package iterutil_test

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/odklm/spotfetch/iterutil"
)

func TestWithIndex(t *testing.T) {
	t.Parallel()

	elems := []string{"a", "b", "c"}
	seq := slices.Values(elems)

	indexes := make([]int, 0, len(elems))
	values := make([]string, 0, len(elems))
	for i, v := range iterutil.WithIndex(seq) {
		indexes = append(indexes, i)
		values = append(values, v)
	}

	assert.Equal(t, []int{0, 1, 2}, indexes)
	assert.Equal(t, elems, values)
}

func TestWithIndexStopsOnBreak(t *testing.T) {
	t.Parallel()

	seq := slices.Values([]int{10, 20, 30, 40})

	var seen int
	for i := range iterutil.WithIndex(seq) {
		seen++
		if i == 1 {
			break
		}
	}

	assert.Equal(t, 2, seen)
}
