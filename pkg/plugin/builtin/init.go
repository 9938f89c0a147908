// Package builtin is the registration point for plugins vx ships with.
// Importing it (blank) from the CLI wires every built-in plugin into the
// global plugin registry. The set is currently empty: everything the
// catalog needs is expressible as a manifest post_process pipeline.
package builtin
