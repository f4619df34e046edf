//go:build unit
// +build unit

package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeToCategory(t *testing.T) {
	assert.Equal(t, "Automotive", CodeToCategory("1"))
	assert.Equal(t, "999999", CodeToCategory("999999"))
	assert.Equal(t, "moving soon", CodeToCategory("moving soon"))
}

func TestCategoryToCode(t *testing.T) {
	code, ok := CategoryToCode("Automotive")
	require.True(t, ok)
	assert.Equal(t, 1, code)

	_, ok = CategoryToCode("Not A Category")
	assert.False(t, ok)
}
