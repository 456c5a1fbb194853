package task

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func fixedClock(tb *Table) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	n := 0
	tb.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
}

func TestTable_Lifecycle(t *testing.T) {
	tb := NewTable()
	fixedClock(tb)
	tk := New("build", nil, WithID("t1"))

	require.True(t, tb.Add(tk))
	assert.False(t, tb.Add(tk), "duplicate id")

	row, ok := tb.Get("t1")
	require.True(t, ok)
	assert.Equal(t, StateQueued, row.State)
	assert.Equal(t, "build", row.Name)

	require.True(t, tb.Start("t1"))
	require.True(t, tb.Update("t1", 40, "compiling"))
	require.True(t, tb.Finish("t1", StateSucceeded))

	row, _ = tb.Get("t1")
	assert.Equal(t, StateSucceeded, row.State)
	assert.Equal(t, 40.0, row.Percent)
	assert.Equal(t, "compiling", row.Message)
	assert.True(t, row.Finished.After(row.Started))

	assert.False(t, tb.Update("t1", 90, "late"), "terminal rows ignore progress")
	assert.False(t, tb.Start("t1"))
	assert.False(t, tb.Finish("t1", StateFailed))
}

func TestTable_FinishWithoutStart(t *testing.T) {
	tb := NewTable()
	require.True(t, tb.Add(New("x", nil, WithID("x"))))
	require.True(t, tb.Finish("x", StateCancelled))

	row, _ := tb.Get("x")
	assert.Equal(t, StateCancelled, row.State)
	assert.Equal(t, row.Started, row.Finished)
	assert.False(t, tb.Finish("x", StateRunning))
}

func TestTable_UnknownID(t *testing.T) {
	tb := NewTable()
	require.True(t, tb.Add(New("a", nil, WithID("a"))))

	assert.False(t, tb.Update("missing", 10, "x"))
	assert.False(t, tb.Start("missing"))
	assert.False(t, tb.Remove("missing"))

	row, _ := tb.Get("a")
	assert.Equal(t, 0.0, row.Percent)
}

func TestTable_RemoveAndOrder(t *testing.T) {
	tb := NewTable()
	for _, id := range []string{"a", "b", "c"} {
		tb.Add(New(id, nil, WithID(id)))
	}
	require.True(t, tb.Remove("b"))

	var ids []string
	for _, r := range tb.Rows() {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"a", "c"}, ids)
	assert.Equal(t, 2, tb.Len())
}

func TestTable_OnChange(t *testing.T) {
	tb := NewTable()
	var seen []State
	unsub := tb.OnChange(func(r Row) { seen = append(seen, r.State) })

	tb.Add(New("a", nil, WithID("a")))
	tb.Start("a")
	unsub()
	tb.Finish("a", StateFailed)

	assert.Equal(t, []State{StateQueued, StateRunning}, seen)
}

// Progress for one id never touches another row.
func TestTable_ProgressMatchesByID(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		tb := NewTable()
		n := rapid.IntRange(1, 8).Draw(rt, "rows")
		for i := 0; i < n; i++ {
			id := fmt.Sprintf("t%d", i)
			tb.Add(New(id, nil, WithID(id)))
		}

		want := make(map[string]float64)
		updates := rapid.IntRange(0, 40).Draw(rt, "updates")
		for i := 0; i < updates; i++ {
			idx := rapid.IntRange(0, n+2).Draw(rt, "target")
			pct := rapid.Float64Range(0, 100).Draw(rt, "pct")
			id := fmt.Sprintf("t%d", idx)

			ok := tb.Update(id, pct, "")
			if idx < n {
				if !ok {
					rt.Fatalf("update of known id %s rejected", id)
				}
				want[id] = pct
			} else if ok {
				rt.Fatalf("update of unknown id %s accepted", id)
			}
		}

		for _, r := range tb.Rows() {
			if r.Percent != want[r.ID] {
				rt.Fatalf("row %s percent %v, want %v", r.ID, r.Percent, want[r.ID])
			}
		}
	})
}
