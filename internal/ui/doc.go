// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for syncing watch records:
//  1. [RecordListView] : Browse imported records and toggle which to submit
//  2. [ConfirmView] : Confirm the run before any remote writes
//  3. [RunView] : Monitor real-time progress updates
//  4. [ResultView] : Display run totals and per-record failures
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the sync engine, providing non-blocking status reporting during a run.
//
// Keyboard navigation uses vim-style bindings (j/k, space, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
