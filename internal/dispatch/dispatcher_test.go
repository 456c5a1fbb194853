package dispatch

import (
	"errors"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/dshills/toolbox/internal/plugin"
	"github.com/dshills/toolbox/internal/task"
)

type fakeHost struct {
	views []plugin.View
}

func (h *fakeHost) SubmitTask(task.Task) (task.SubmitOutcome, error) { return task.SubmitAccepted, nil }
func (h *fakeHost) AddView(v plugin.View)                            { h.views = append(h.views, v) }
func (h *fakeHost) Logger() hclog.Logger                             { return hclog.NewNullLogger() }

// stubPlugin matches paths by suffix and records calls.
type stubPlugin struct {
	id      string
	suffix  string
	items   []string
	prefs   []string
	openErr error
	panics  bool

	host   plugin.Host
	binds  int
	opened []string
}

func (p *stubPlugin) ID() string { return p.id }

func (p *stubPlugin) BindHost(h plugin.Host) {
	p.binds++
	p.host = h
}

func (p *stubPlugin) SupportsFileOpen(path string) bool {
	if p.panics {
		panic("predicate")
	}
	return strings.HasSuffix(path, p.suffix)
}

func (p *stubPlugin) OpenFile(path string) error {
	p.opened = append(p.opened, path)
	if p.host != nil {
		p.host.AddView(plugin.View{Title: path})
	}
	return p.openErr
}

func (p *stubPlugin) SupportsPopupMenu(path string) bool {
	return p.SupportsFileOpen(path)
}

func (p *stubPlugin) PopupMenu(string) []plugin.MenuAction {
	out := make([]plugin.MenuAction, 0, len(p.items))
	for _, it := range p.items {
		out = append(out, plugin.MenuAction{ID: it, Title: it})
	}
	return out
}

func (p *stubPlugin) Preferences() []plugin.PreferenceContribution {
	out := make([]plugin.PreferenceContribution, 0, len(p.prefs))
	for _, path := range p.prefs {
		out = append(out, plugin.PreferenceContribution{Path: path, Title: path})
	}
	return out
}

func (p *stubPlugin) LoadPreferences(plugin.KeyValueStore)  {}
func (p *stubPlugin) StorePreferences(plugin.KeyValueStore) {}

func setup(t *testing.T, plugins ...*stubPlugin) (*Dispatcher, *fakeHost) {
	t.Helper()
	reg := plugin.NewRegistry()
	for _, p := range plugins {
		p := p
		_, err := reg.Register(func() (plugin.Plugin, error) { return p, nil })
		require.NoError(t, err)
	}
	reg.Freeze()
	host := &fakeHost{}
	return New(reg, host), host
}

func TestFileHandler_FirstMatchWins(t *testing.T) {
	first := &stubPlugin{id: "first", suffix: ".png"}
	second := &stubPlugin{id: "second", suffix: ".png"}
	d, _ := setup(t, first, second)

	desc, ok := d.FileHandler("cat.png")
	require.True(t, ok)
	assert.Equal(t, "first", desc.ID())
}

func TestFileHandler_NoHandler(t *testing.T) {
	d, _ := setup(t, &stubPlugin{id: "img", suffix: ".png"})

	desc, ok := d.FileHandler("notes.txt")
	assert.False(t, ok)
	assert.Nil(t, desc)

	handled, err := d.OpenFile("notes.txt")
	assert.False(t, handled)
	assert.NoError(t, err)
}

func TestOpenFile_BindsHostOnce(t *testing.T) {
	p := &stubPlugin{id: "img", suffix: ".png"}
	d, host := setup(t, p)

	for i := 0; i < 3; i++ {
		handled, err := d.OpenFile("a.png")
		require.NoError(t, err)
		require.True(t, handled)
	}
	d.BindAll()

	assert.Equal(t, 1, p.binds)
	assert.True(t, d.Bound("img"))
	assert.Len(t, host.views, 3)
}

func TestOpenFile_PluginError(t *testing.T) {
	boom := errors.New("corrupt")
	d, _ := setup(t, &stubPlugin{id: "img", suffix: ".png", openErr: boom})

	handled, err := d.OpenFile("a.png")
	assert.True(t, handled)
	var oe *OpenError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, "img", oe.PluginID)
	assert.ErrorIs(t, err, boom)
}

func TestFileHandler_PanickingPredicateSkipped(t *testing.T) {
	bad := &stubPlugin{id: "bad", suffix: ".png", panics: true}
	good := &stubPlugin{id: "good", suffix: ".png"}
	d, _ := setup(t, bad, good)

	desc, ok := d.FileHandler("x.png")
	require.True(t, ok)
	assert.Equal(t, "good", desc.ID())
}

func TestPopupMenu_AggregatesInOrder(t *testing.T) {
	d, _ := setup(t,
		&stubPlugin{id: "a", suffix: ".png", items: []string{"thumb", "info"}},
		&stubPlugin{id: "b", suffix: ".txt", items: []string{"edit"}},
		&stubPlugin{id: "c", suffix: ".png", items: []string{"thumb"}},
	)

	items := d.PopupMenu("cat.png")
	require.Len(t, items, 3)

	var got []string
	for _, it := range items {
		got = append(got, it.PluginID+":"+it.ID)
	}
	assert.Equal(t, []string{"a:thumb", "a:info", "c:thumb"}, got)
}

func TestPreferences_Aggregate(t *testing.T) {
	d, _ := setup(t,
		&stubPlugin{id: "a", prefs: []string{"viewer/thumbnail"}},
		&stubPlugin{id: "b"},
		&stubPlugin{id: "c", prefs: []string{"tasks/shell", "tasks/env"}},
	)

	prefs := d.Preferences()
	require.Len(t, prefs, 3)
	assert.Equal(t, "a", prefs[0].PluginID)
	assert.Equal(t, "tasks/env", prefs[2].Path)
	assert.Equal(t, "c", prefs[2].PluginID)
}

// Popup aggregation is the concatenation of every matching plugin's items.
func TestPopupMenu_ConcatenationProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		reg := plugin.NewRegistry()
		n := rapid.IntRange(0, 6).Draw(rt, "plugins")

		var want []string
		for i := 0; i < n; i++ {
			suffix := rapid.SampledFrom([]string{".png", ".jpg"}).Draw(rt, "suffix")
			count := rapid.IntRange(0, 3).Draw(rt, "items")
			p := &stubPlugin{id: string(rune('a' + i)), suffix: suffix}
			for j := 0; j < count; j++ {
				p.items = append(p.items, string(rune('0'+j)))
				if suffix == ".png" {
					want = append(want, p.id+p.items[j])
				}
			}
			if _, err := reg.Register(func() (plugin.Plugin, error) { return p, nil }); err != nil {
				rt.Fatal(err)
			}
		}

		var got []string
		for _, it := range New(reg, nil).PopupMenu("x.png") {
			got = append(got, it.PluginID+it.ID)
		}
		if len(got) != len(want) {
			rt.Fatalf("got %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				rt.Fatalf("got %v, want %v", got, want)
			}
		}
	})
}
