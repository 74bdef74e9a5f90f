package filestate_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/gitstate/filestate"
)

func TestTarget_Walk_parents_first(t *testing.T) {
	t.Parallel()

	root, err := filestate.NewTarget(t.TempDir(), "")
	require.NoError(t, err)

	a := root.AddChild("a", "")
	a.AddChild("a1", filestate.KindFile)
	root.AddChild("b", "")

	var names []string

	err = root.Walk(func(tg *filestate.Target) error {
		names = append(names, tg.Name())

		return nil
	})
	require.NoError(t, err)

	assert.Equal(
		t,
		[]string{root.Name(), "a", "a1", "b"},
		names,
	)
}

func TestTarget_Walk_stops_on_error(t *testing.T) {
	t.Parallel()

	root, err := filestate.NewTarget(t.TempDir(), "")
	require.NoError(t, err)

	root.AddChild("a", "")
	root.AddChild("b", "")

	errStop := errors.New("stop")
	visited := 0

	err = root.Walk(func(tg *filestate.Target) error {
		visited++

		if tg.Name() == "a" {
			return errStop
		}

		return nil
	})

	require.ErrorIs(t, err, errStop)
	assert.Equal(t, 2, visited)
}

func TestTarget_IsAncestorOf(t *testing.T) {
	t.Parallel()

	root, err := filestate.NewTarget(t.TempDir(), "")
	require.NoError(t, err)

	a := root.AddChild("a", "")
	a1 := a.AddChild("a1", "")
	b := root.AddChild("b", "")

	assert.True(t, root.IsAncestorOf(a1))
	assert.True(t, a.IsAncestorOf(a1))
	assert.False(t, a.IsAncestorOf(a))
	assert.False(t, b.IsAncestorOf(a1))
	assert.False(t, a1.IsAncestorOf(root))
}

func TestTarget_ShouldExist_defaults_true(t *testing.T) {
	t.Parallel()

	root, err := filestate.NewTarget(t.TempDir(), "")
	require.NoError(t, err)

	assert.True(t, root.ShouldExist())

	root.SetOption(
		filestate.OptionShouldExist,
		filestate.NewValue(false),
	)

	assert.False(t, root.ShouldExist())
}

func TestValue_normalizes_nested_maps(t *testing.T) {
	t.Parallel()

	val := filestate.NewValue(map[any]any{
		"remote": []any{
			map[any]any{"name": "origin"},
		},
	})

	require.True(t, val.IsDict())

	remotes, ok := val.Get("remote")
	require.True(t, ok)
	require.Len(t, remotes.List(), 1)

	entry := filestate.NewValue(remotes.List()[0])
	name, ok := entry.Get("name")
	require.True(t, ok)
	assert.Equal(t, "origin", name.String())
}

func TestValue_accessors_on_wrong_type(t *testing.T) {
	t.Parallel()

	val := filestate.NewValue(true)

	assert.True(t, val.IsBool())
	assert.True(t, val.Bool())
	assert.False(t, val.IsDict())
	assert.Nil(t, val.Dict())
	assert.Nil(t, val.List())
	assert.Empty(t, val.String())

	_, ok := val.Get("remote")
	assert.False(t, ok)
	assert.True(t, filestate.Value{}.IsNil())
}

func TestOptionRegistry_Register_duplicate(t *testing.T) {
	t.Parallel()

	reg := filestate.DefaultOptionRegistry()

	err := reg.Register(filestate.Option{
		Key: filestate.OptionShouldExist,
	})
	assert.ErrorContains(t, err, "already registered")

	err = reg.Register(filestate.Option{})
	assert.ErrorContains(t, err, "empty key")

	assert.Equal(
		t,
		[]filestate.OptionKey{filestate.OptionShouldExist},
		reg.Keys(),
	)
}
