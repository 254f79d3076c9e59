package genealogy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "lineage/pkg/domain-errors"
)

func TestEnforce(t *testing.T) {
	t.Run("valid result passes under any policy", func(t *testing.T) {
		assert.NoError(t, Enforce(OK(), Blocking))
		assert.NoError(t, Enforce(OK(), Advisory))
	})

	t.Run("blocking policy fails with joined reasons", func(t *testing.T) {
		err := Enforce(Invalid("a", "b"), Blocking)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		assert.Equal(t, "a; b", err.Error())
	})

	t.Run("advisory policy never fails", func(t *testing.T) {
		assert.NoError(t, Enforce(Invalid("a"), Advisory))
	})
}

func TestMerge(t *testing.T) {
	r := Merge(Invalid("first"), OK(), Invalid("second", "third"))
	assert.False(t, r.Valid())
	assert.Equal(t, []string{"first", "second", "third"}, r.Reasons)
	assert.True(t, Merge().Valid())
}
