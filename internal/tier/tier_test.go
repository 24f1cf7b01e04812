package tier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input    string
		expected Tier
	}{
		{"basic", Basic},
		{"", Basic},
		{"Intermediate", Intermediate},
		{" expert ", Expert},
		{"full-fathom-five", FullFathomFive},
		{"fullfathomfive", FullFathomFive},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	t.Run("unknown", func(t *testing.T) {
		_, err := Parse("scholarly")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unknown tier")
	})
}

func TestTier_Budget(t *testing.T) {
	assert.Equal(t, 0, Basic.Budget())
	assert.Equal(t, 2, Intermediate.Budget())
	assert.Equal(t, 3, Expert.Budget())
	assert.Equal(t, 5, FullFathomFive.Budget())

	assert.False(t, Basic.WantsBibleContext())
	assert.True(t, Expert.WantsBibleContext())
}

func TestTier_Policies(t *testing.T) {
	// Every tier must be present in the lookup table.
	for _, tr := range All {
		assert.True(t, tr.Valid(), tr.String())
		assert.NotEmpty(t, tr.Sections(), tr.String())
		assert.NotEmpty(t, tr.Mode(), tr.String())
	}

	assert.Equal(t, "expert", Intermediate.Mode())
	assert.Equal(t, "fullfathomfive", FullFathomFive.Mode())
	assert.False(t, Tier("bogus").Valid())
	assert.Equal(t, "basic", Tier("bogus").Mode())
}

func TestTier_SectionsIsCopy(t *testing.T) {
	s := Expert.Sections()
	s[0] = "changed"
	assert.Equal(t, "Plain Meaning", Expert.Sections()[0])
}
