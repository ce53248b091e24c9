package classification_test

import (
	"testing"

	"github.com/stafflow/stafflow/engine/classification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("Should accept every taxonomy value", func(t *testing.T) {
		for _, c := range classification.All() {
			parsed, err := classification.Parse(c.String())
			require.NoError(t, err)
			assert.Equal(t, c, parsed)
		}
	})
	t.Run("Should reject an unknown value", func(t *testing.T) {
		_, err := classification.Parse("catering")
		require.Error(t, err)
		assert.ErrorIs(t, err, classification.ErrUnknown)
	})
	t.Run("Should reject the empty string", func(t *testing.T) {
		_, err := classification.Parse("")
		assert.ErrorIs(t, err, classification.ErrUnknown)
	})
}

func TestAll(t *testing.T) {
	t.Run("Should return a stable ordering with labels and descriptions", func(t *testing.T) {
		all := classification.All()
		require.Len(t, all, 10)
		assert.Equal(t, classification.Documentation, all[0])
		assert.Equal(t, classification.Communication, all[len(all)-1])
		for _, c := range all {
			assert.NotEmpty(t, c.Label(), "label for %s", c)
			assert.NotEmpty(t, c.Description(), "description for %s", c)
		}
	})
	t.Run("Should not share the backing slice between calls", func(t *testing.T) {
		first := classification.All()
		first[0] = classification.Finance
		assert.Equal(t, classification.Documentation, classification.All()[0])
	})
}
