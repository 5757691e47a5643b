package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/blockstorm/internal/dom"
)

func TestEncodeState_DropsOnlyUnserializableValues(t *testing.T) {
	data, err := encodeState(dom.BlockState{
		Props: map[string]any{
			"latex": "x^2",
			"handlers": map[string]any{
				"onChange": func() {},
				"name":     "n",
				"queue":    make(chan int),
			},
			"list": []any{1, func() {}, "two"},
		},
	})
	require.NoError(t, err)

	got := decodeState(data)
	assert.Equal(t, map[string]any{
		"latex":    "x^2",
		"handlers": map[string]any{"name": "n"},
		"list":     []any{1, "two"},
	}, got.Props)
	assert.Nil(t, got.State)
}

func TestDecodeState_KeepsNumberKinds(t *testing.T) {
	data, err := encodeState(dom.BlockState{
		State: map[string]any{"count": 3, "ratio": 0.5, "nested": map[string]any{"depth": 2}},
	})
	require.NoError(t, err)

	got := decodeState(data)
	assert.Equal(t, map[string]any{
		"count":  3,
		"ratio":  0.5,
		"nested": map[string]any{"depth": 2},
	}, got.State)
}

func TestHistory_NestedUnserializableStateKeepsRest(t *testing.T) {
	h := newHarness(t)
	blk := h.doc.Root().FirstChild
	h.doc.SetBlockState(blk, dom.BlockState{
		Props: map[string]any{
			"latex":    "x^2",
			"handlers": map[string]any{"onChange": func() {}, "name": "n"},
		},
		State: map[string]any{"count": 3},
	})
	h.m.Attach(h.doc)

	h.reg.Run("append", nil)
	h.l.Advance(DefaultCommandDelay)
	require.True(t, h.m.Undo())

	st, ok := h.doc.BlockState(h.doc.Root().FirstChild)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"latex": "x^2", "handlers": map[string]any{"name": "n"}}, st.Props)
	assert.Equal(t, map[string]any{"count": 3}, st.State)
}
