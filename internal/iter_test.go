package internal

import (
	"maps"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIterSeq2Concat(t *testing.T) {
	assert := assert.New(t)

	first := []string{"a", "b"}
	second := []string{"c"}

	keys := []int{}
	values := []string{}
	for key, value := range IterSeq2Concat(slices.All(first), slices.All(second)) {
		keys = append(keys, key)
		values = append(values, value)
	}
	assert.Equal([]int{0, 1, 0}, keys)
	assert.Equal([]string{"a", "b", "c"}, values)

	// Early exit from the consumer.
	count := 0
	for range IterSeq2Concat(slices.All(first), slices.All(second)) {
		count++
		break
	}
	assert.Equal(1, count)

	merged := maps.Collect(IterSeq2Concat(maps.All(map[string]int{"x": 1}), maps.All(map[string]int{"y": 2})))
	assert.Equal(map[string]int{"x": 1, "y": 2}, merged)

	assert.Empty(maps.Collect(IterSeq2Concat[string, int]()))
}
