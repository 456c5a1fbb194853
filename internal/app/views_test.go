package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/toolbox/internal/plugin"
)

func TestViewManager(t *testing.T) {
	vm := NewViewManager()
	var added []string
	vm.OnAdd(func(v OpenView) { added = append(added, v.Title) })

	a := vm.Add(plugin.View{Title: "a"})
	b := vm.Add(plugin.View{Title: "b"})
	c := vm.Add(plugin.View{Title: "c"})
	assert.Equal(t, []string{"a", "b", "c"}, added)
	assert.Equal(t, 3, vm.Count())

	active, ok := vm.Active()
	require.True(t, ok)
	assert.Equal(t, c.ID, active.ID)

	require.NoError(t, vm.Close(c.ID))
	active, _ = vm.Active()
	assert.Equal(t, b.ID, active.ID)

	require.NoError(t, vm.Close(a.ID))
	active, _ = vm.Active()
	assert.Equal(t, b.ID, active.ID)

	assert.ErrorIs(t, vm.Close(a.ID), ErrViewNotFound)

	got, ok := vm.Get(b.ID)
	require.True(t, ok)
	assert.Equal(t, "b", got.Title)

	require.NoError(t, vm.Close(b.ID))
	_, ok = vm.Active()
	assert.False(t, ok)
	assert.Empty(t, vm.All())
}
