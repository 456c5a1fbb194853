package lua

import (
	"fmt"
	"sort"
	"strconv"

	lua "github.com/yuin/gopher-lua"
)

// ToGoValue converts a Lua value to a Go value. Tables become []any when
// they are sequences and map[string]any otherwise. Functions convert to nil.
func ToGoValue(lv lua.LValue) any {
	return toGo(lv, make(map[*lua.LTable]bool))
}

func toGo(lv lua.LValue, visited map[*lua.LTable]bool) any {
	switch v := lv.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		f := float64(v)
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(v)
	case *lua.LTable:
		if visited[v] {
			return nil
		}
		visited[v] = true
		return tableToGo(v, visited)
	case *lua.LUserData:
		return v.Value
	default:
		return nil
	}
}

func tableToGo(t *lua.LTable, visited map[*lua.LTable]bool) any {
	if n := t.Len(); n > 0 && countKeys(t) == n {
		arr := make([]any, n)
		for i := 1; i <= n; i++ {
			arr[i-1] = toGo(t.RawGetInt(i), visited)
		}
		return arr
	}

	m := make(map[string]any)
	t.ForEach(func(k, v lua.LValue) {
		m[keyString(k)] = toGo(v, visited)
	})
	return m
}

// ToLuaValue converts a Go value to a Lua value.
func ToLuaValue(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case lua.LValue:
		return val
	case bool:
		return lua.LBool(val)
	case int:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case []string:
		t := L.CreateTable(len(val), 0)
		for _, s := range val {
			t.Append(lua.LString(s))
		}
		return t
	case []any:
		t := L.CreateTable(len(val), 0)
		for _, item := range val {
			t.Append(ToLuaValue(L, item))
		}
		return t
	case map[string]string:
		t := L.CreateTable(0, len(val))
		for k, s := range val {
			t.RawSetString(k, lua.LString(s))
		}
		return t
	case map[string]any:
		t := L.CreateTable(0, len(val))
		for k, item := range val {
			t.RawSetString(k, ToLuaValue(L, item))
		}
		return t
	default:
		return lua.LString(fmt.Sprint(val))
	}
}

// StringMap converts a table to string keys and values. Non-table values
// give an empty map.
func StringMap(lv lua.LValue) map[string]string {
	out := make(map[string]string)
	t, ok := lv.(*lua.LTable)
	if !ok {
		return out
	}
	t.ForEach(func(k, v lua.LValue) {
		if v.Type() == lua.LTFunction || v.Type() == lua.LTTable {
			return
		}
		out[keyString(k)] = v.String()
	})
	return out
}

// Records converts a sequence of tables to string maps, skipping entries
// that are not tables.
func Records(lv lua.LValue) []map[string]string {
	t, ok := lv.(*lua.LTable)
	if !ok {
		return nil
	}
	out := make([]map[string]string, 0, t.Len())
	for i := 1; i <= t.Len(); i++ {
		if rec, ok := t.RawGetInt(i).(*lua.LTable); ok {
			out = append(out, StringMap(rec))
		}
	}
	return out
}

// SortedKeys returns the keys of m in order.
func SortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func countKeys(t *lua.LTable) int {
	n := 0
	t.ForEach(func(_, _ lua.LValue) { n++ })
	return n
}

func keyString(k lua.LValue) string {
	switch kv := k.(type) {
	case lua.LString:
		return string(kv)
	case lua.LNumber:
		return strconv.FormatFloat(float64(kv), 'f', -1, 64)
	default:
		return k.String()
	}
}
