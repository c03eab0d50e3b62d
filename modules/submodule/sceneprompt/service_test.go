package sceneprompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePromptArrayStripsMarkdownFence(t *testing.T) {
	raw := "```json\n[\"the fox leaps over a log\", \"the fox pauses at the river\"]\n```"

	prompts, err := parsePromptArray(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"the fox leaps over a log", "the fox pauses at the river"}, prompts)
}

func TestParsePromptArrayPlainJSON(t *testing.T) {
	prompts, err := parsePromptArray(`["scene one", "scene two", "scene three"]`)
	require.NoError(t, err)
	assert.Len(t, prompts, 3)
}

func TestParsePromptArrayDropsEmptyEntries(t *testing.T) {
	prompts, err := parsePromptArray(`["scene one", "   ", ""]`)
	require.NoError(t, err)
	assert.Equal(t, []string{"scene one"}, prompts)
}

func TestParsePromptArrayRejectsNonJSON(t *testing.T) {
	_, err := parsePromptArray("Sure! Here are the prompts you asked for:")
	assert.Error(t, err)
}
