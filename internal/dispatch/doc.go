// Package dispatch resolves which extensions act on a file or request.
//
// Three patterns are provided over plugin.Registry.ByCapability:
//
//   - first match: FileHandler and OpenFile pick the earliest registered
//     file opener whose predicate accepts the path
//   - popup aggregation: PopupMenu concatenates the items of every matching
//     popup provider in registration order
//   - preference aggregation: Preferences concatenates every contribution
//
// Before a plugin's predicate or action is invoked, the dispatcher binds it
// to the host once. A predicate that panics is logged and treated as not
// matching. "No handler" is a normal outcome, not an error.
package dispatch
