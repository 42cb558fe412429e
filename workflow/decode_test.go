package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSelection(t *testing.T) {
	raw := `Sure, here is the selection:
{"needed_components": [{"title": "Header", "reason": "page header"}, {"title": "Divider", "reason": "separator"}]}`

	sel, err := DecodeSelection(raw)
	require.NoError(t, err)
	require.Len(t, sel.NeededComponents, 2)
	assert.Equal(t, "Header", sel.NeededComponents[0].Title)
}

func TestDecodeSelectionRejectsMissingJSON(t *testing.T) {
	_, err := DecodeSelection("I could not decide on any components.")
	assert.ErrorIs(t, err, ErrSelection)
}

func TestDecodeSelectionRejectsEmptyList(t *testing.T) {
	_, err := DecodeSelection(`{"needed_components": []}`)
	assert.ErrorIs(t, err, ErrSelection)
}

func TestDecodeSelectionRejectsEmptyTitle(t *testing.T) {
	_, err := DecodeSelection(`{"needed_components": [{"title": " ", "reason": "x"}]}`)
	assert.ErrorIs(t, err, ErrSelection)
}

func TestDecodeIterSelection(t *testing.T) {
	raw := "```json\n" + `{"instructions": "Add a Divider under the Header", "components_to_modify": [{"title": "Divider", "reason": "requested"}]}` + "\n```"

	sel, err := DecodeIterSelection(raw)
	require.NoError(t, err)
	assert.Equal(t, "Add a Divider under the Header", sel.Instructions)
	require.Len(t, sel.ComponentsToModify, 1)
}

func TestDecodeIterSelectionRejectsEmptyInstructions(t *testing.T) {
	_, err := DecodeIterSelection(`{"instructions": "", "components_to_modify": []}`)
	assert.ErrorIs(t, err, ErrSelection)
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, "const x = 1;", StripFences("```tsx\nconst x = 1;\n```"))
	assert.Equal(t, "const x = 1;", StripFences("```jsx\nconst x = 1;\n```"))
	assert.Equal(t, "const x = 1;", StripFences("const x = 1;"))
	assert.Equal(t, "a\nb", StripFences("```\na\nb\n```"))
}
