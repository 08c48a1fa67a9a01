// Package engine implements reconciliation and bulk sync of watch records
// against the remote Trakt history.
//
// The core abstraction is [Engine], which drives two long-running passes:
// a check pass ([Engine.CheckAll]) that classifies each record against the
// remote state without writing, and a sync pass ([Engine.SyncAll]) that
// submits history and rating writes for the selected records. Both passes
// emit [ProgressUpdate] values via channels for non-blocking status
// reporting to the CLI/TUI layers, process records strictly in order, and
// stop cooperatively when their context is cancelled. The in-flight record
// always completes first.
package engine
