package task

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuncTask_ReportClampsAndTagsID(t *testing.T) {
	tk := New("t", func(ctx context.Context, report ReportFunc) error {
		report(-5, "low")
		report(57, "mid")
		report(250, "high")
		return nil
	}, WithID("fixed"), WithType("kind"))

	var got []Progress
	tk.OnProgress(func(p Progress) { got = append(got, p) })
	tk.OnProgress(nil)

	require.NoError(t, tk.Run(context.Background()))
	assert.Equal(t, []Progress{
		{TaskID: "fixed", Percent: 0, Message: "low"},
		{TaskID: "fixed", Percent: 57, Message: "mid"},
		{TaskID: "fixed", Percent: 100, Message: "high"},
	}, got)
	assert.Equal(t, "kind", tk.Type())
}

func TestFuncTask_Defaults(t *testing.T) {
	a, b := New("a", nil), New("b", nil, WithID(""))
	assert.NotEmpty(t, a.ID())
	assert.NotEqual(t, a.ID(), b.ID())
	assert.NoError(t, a.Run(context.Background()))
	assert.Empty(t, a.Type())
}

func TestConfigurations(t *testing.T) {
	c := NewConfigurations()
	noop := func() (Configurator, error) { return ConfiguratorFunc(nil), nil }

	assert.ErrorIs(t, c.Register("", noop), ErrEmptyTaskType)
	assert.ErrorIs(t, c.Register("x", nil), ErrNilConfigurator)
	require.NoError(t, c.Register("b", noop))
	require.NoError(t, c.Register("a", noop))

	_, ok := c.Lookup("")
	assert.False(t, ok)
	_, ok = c.Lookup("a")
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, c.Types())

	_, err := build(func() (Configurator, error) { return nil, nil })
	assert.ErrorIs(t, err, ErrNilConfigurator)
}
