package functools

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapWithError(t *testing.T) {
	got, err := MapWithError([]string{"1", "2"}, strconv.Atoi)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, got)

	calls := 0
	_, err = MapWithError([]string{"1", "x", "3"}, func(s string) (int, error) {
		calls++
		return strconv.Atoi(s)
	})
	var numErr *strconv.NumError
	require.ErrorAs(t, err, &numErr)
	assert.Equal(t, "x", numErr.Num)
	assert.Equal(t, 2, calls)

	got, err = MapWithError[string, int](nil, strconv.Atoi)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMap(t *testing.T) {
	assert.Equal(t, []int{2, 4}, Map([]int{1, 2}, func(v int) int { return v * 2 }))
	assert.Nil(t, Map[int, int](nil, func(v int) int { return v }))
}
