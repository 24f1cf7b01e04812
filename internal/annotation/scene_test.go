package annotation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSceneID(t *testing.T) {
	tests := []struct {
		input    string
		expected SceneID
	}{
		{"ACT 1, SCENE 1", SceneID{1, 1}},
		{"Act 1 Scene 7", SceneID{1, 7}},
		{"act 2, sc. 3", SceneID{2, 3}},
		{"ACT V, SCENE I", SceneID{5, 1}},
		{"Act iv scene iii", SceneID{4, 3}},
		{"3.4", SceneID{3, 4}},
		{"  ACT 1, SCENE 2  ", SceneID{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			id, err := ParseSceneID(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, id)
		})
	}
}

func TestParseSceneID_Invalid(t *testing.T) {
	for _, input := range []string{"", "the heath", "ACT 1", "ACT 0, SCENE 1", "ACT Q, SCENE 1", "1.2.3"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseSceneID(input)
			assert.ErrorIs(t, err, ErrInvalidSceneID)
		})
	}
}

func TestSceneID_String(t *testing.T) {
	assert.Equal(t, "ACT 2, SCENE 1", SceneID{2, 1}.String())

	id, err := ParseSceneID(SceneID{4, 1}.String())
	require.NoError(t, err)
	assert.Equal(t, SceneID{4, 1}, id)
}

func TestSceneID_Less(t *testing.T) {
	assert.True(t, SceneID{1, 7}.Less(SceneID{2, 1}))
	assert.True(t, SceneID{2, 1}.Less(SceneID{2, 2}))
	assert.False(t, SceneID{2, 2}.Less(SceneID{2, 2}))
}
