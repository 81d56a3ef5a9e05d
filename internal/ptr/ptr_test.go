package ptr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClone(t *testing.T) {
	assert.Nil(t, Clone[int](nil))

	orig := To(42)
	cp := Clone(orig)
	assert.Equal(t, 42, *cp)

	*cp = 7
	assert.Equal(t, 42, *orig)
}
