// Package difficulty is the application service around the adaptive engine.
// It gathers a user's stats and recent attempts, asks the engine for a
// decision, and hands the decision to a recorder for the audit log.
package difficulty
