// Package preference persists plugin settings as Java-style .properties
// files, one per plugin identity:
//
//	<root>/plugin/<plugin-id>/preference.properties
//
// A missing file loads as an empty store. Parent directories are created on
// save. Load and save for the same plugin id are serialized; different ids
// use disjoint paths and proceed independently.
package preference
