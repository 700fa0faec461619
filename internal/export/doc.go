// Package export writes decision logs as a spreadsheet dataset for offline
// model training.
package export
