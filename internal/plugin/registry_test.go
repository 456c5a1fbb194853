package plugin

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

type basePlugin struct{ id string }

func (p *basePlugin) ID() string { return p.id }

type openerPlugin struct {
	basePlugin
}

func (p *openerPlugin) SupportsFileOpen(string) bool { return true }
func (p *openerPlugin) OpenFile(string) error        { return nil }

type fullPlugin struct {
	openerPlugin
	declared CapabilitySet
}

func (p *fullPlugin) SupportsPopupMenu(string) bool         { return true }
func (p *fullPlugin) PopupMenu(string) []MenuAction         { return nil }
func (p *fullPlugin) Preferences() []PreferenceContribution { return nil }
func (p *fullPlugin) LoadPreferences(KeyValueStore)         {}
func (p *fullPlugin) StorePreferences(KeyValueStore)        {}
func (p *fullPlugin) DeclaredCapabilities() CapabilitySet   { return p.declared }

func factoryFor(p Plugin) Factory {
	return func() (Plugin, error) { return p, nil }
}

func TestRegistry_ProbesCapabilities(t *testing.T) {
	r := NewRegistry()

	d, err := r.Register(factoryFor(&basePlugin{id: "plain"}))
	require.NoError(t, err)
	assert.True(t, d.Capabilities().IsEmpty())
	assert.Nil(t, d.FileOpener())

	d, err = r.Register(factoryFor(&openerPlugin{basePlugin{id: "opener"}}))
	require.NoError(t, err)
	assert.True(t, d.Has(CapFileOpen))
	assert.False(t, d.Has(CapPopupMenu))
	assert.NotNil(t, d.FileOpener())

	all := NewCapabilitySet(CapFileOpen, CapPopupMenu, CapPreference)
	d, err = r.Register(factoryFor(&fullPlugin{openerPlugin: openerPlugin{basePlugin{id: "full"}}, declared: all}))
	require.NoError(t, err)
	assert.Equal(t, all, d.Capabilities())
	assert.NotNil(t, d.PopupMenu())
	assert.NotNil(t, d.Preference())
	assert.Equal(t, 2, d.Order())
}

func TestRegistry_DeclaredCapabilitiesNarrow(t *testing.T) {
	r := NewRegistry()
	p := &fullPlugin{
		openerPlugin: openerPlugin{basePlugin{id: "narrow"}},
		declared:     NewCapabilitySet(CapPopupMenu),
	}

	d, err := r.Register(factoryFor(p))
	require.NoError(t, err)
	assert.Equal(t, "popup-menu", d.Capabilities().String())
	assert.Nil(t, d.FileOpener())
	assert.Nil(t, d.Preference())
	assert.NotNil(t, d.PopupMenu())
}

func TestRegistry_InstantiationFailures(t *testing.T) {
	boom := errors.New("boom")
	var nilPtr *basePlugin

	tests := []struct {
		name    string
		factory Factory
		want    error
	}{
		{"error", func() (Plugin, error) { return nil, boom }, boom},
		{"nil plugin", func() (Plugin, error) { return nil, nil }, ErrNilPlugin},
		{"typed nil", func() (Plugin, error) { return nilPtr, nil }, ErrNilPlugin},
		{"empty id", factoryFor(&basePlugin{}), ErrEmptyID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			_, err := r.Register(tt.factory)
			var ie *InstantiationError
			require.ErrorAs(t, err, &ie)
			assert.ErrorIs(t, err, tt.want)
			assert.NotEmpty(t, ie.Factory)
			assert.Equal(t, 0, r.Len())
		})
	}
}

func TestRegistry_PanicInFactory(t *testing.T) {
	r := NewRegistry()
	_, err := r.Register(func() (Plugin, error) { panic("ctor") })

	var ie *InstantiationError
	require.ErrorAs(t, err, &ie)
	assert.Contains(t, err.Error(), "ctor")
}

type panickyID struct{}

func (panickyID) ID() string { panic("no identity") }

func TestRegistry_PanicInID(t *testing.T) {
	r := NewRegistry()
	_, err := r.Register(factoryFor(panickyID{}))

	var ie *InstantiationError
	require.ErrorAs(t, err, &ie)
	assert.Contains(t, err.Error(), "no identity")
	assert.Equal(t, 0, r.Len())

	_, err = r.Register(factoryFor(&basePlugin{id: "after"}))
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_NilFactory(t *testing.T) {
	_, err := NewRegistry().Register(nil)
	assert.ErrorIs(t, err, ErrNilFactory)
}

func TestRegistry_DuplicateKeepsFirst(t *testing.T) {
	r := NewRegistry()
	first := &basePlugin{id: "same"}

	_, err := r.Register(factoryFor(first))
	require.NoError(t, err)
	_, err = r.Register(factoryFor(&basePlugin{id: "same"}))
	assert.ErrorIs(t, err, ErrAlreadyRegistered)

	d, ok := r.Get("same")
	require.True(t, ok)
	assert.Same(t, first, d.Plugin())
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_Freeze(t *testing.T) {
	r := NewRegistry()
	constructed := false
	r.Freeze()

	_, err := r.Register(func() (Plugin, error) {
		constructed = true
		return &basePlugin{id: "late"}, nil
	})
	assert.ErrorIs(t, err, ErrRegistryFrozen)
	assert.False(t, constructed)
	assert.True(t, r.Frozen())
}

func TestRegistry_RegisterAllContinues(t *testing.T) {
	r := NewRegistry()
	err := r.RegisterAll(
		factoryFor(&basePlugin{id: "a"}),
		func() (Plugin, error) { return nil, errors.New("broken") },
		factoryFor(&basePlugin{id: "b"}),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")

	var ids []string
	for _, d := range r.All() {
		ids = append(ids, d.ID())
	}
	assert.Equal(t, []string{"a", "b"}, ids)
}

// ByCapability always lists a subset of All in registration order.
func TestRegistry_OrderProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		r := NewRegistry()
		n := rapid.IntRange(0, 12).Draw(rt, "n")

		var wantOpeners []string
		for i := 0; i < n; i++ {
			id := fmt.Sprintf("p%d", i)
			var p Plugin = &basePlugin{id: id}
			if rapid.Bool().Draw(rt, "opener") {
				p = &openerPlugin{basePlugin{id: id}}
				wantOpeners = append(wantOpeners, id)
			}
			if _, err := r.Register(factoryFor(p)); err != nil {
				rt.Fatalf("register %s: %v", id, err)
			}
		}

		all := r.All()
		if len(all) != n {
			rt.Fatalf("All() = %d, want %d", len(all), n)
		}
		for i, d := range all {
			if d.Order() != i {
				rt.Fatalf("order of %s = %d, want %d", d.ID(), d.Order(), i)
			}
		}

		got := r.ByCapability(CapFileOpen)
		if len(got) != len(wantOpeners) {
			rt.Fatalf("ByCapability = %d, want %d", len(got), len(wantOpeners))
		}
		for i, d := range got {
			if d.ID() != wantOpeners[i] {
				rt.Fatalf("opener %d = %s, want %s", i, d.ID(), wantOpeners[i])
			}
		}
	})
}
