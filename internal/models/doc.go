// Package models defines the data model for imported watch records.
//
// A [WatchRecord] is one entry from a Letterboxd export, identified by its
// (title, year) pair on the remote side and a generated ID locally. Records
// move through the [SyncStatus] state machine: the reconciliation engine
// sets ReadyToSync/AlreadyPresent, the sync driver sets Synced/Failed.
package models
