// Package adaptive implements the rule engine that decides the next exercise
// difficulty for a learner.
//
// Three independent rules vote on a history window: consistency of the
// trailing answers, the overall error rate and the average response speed.
// Their votes are summed and clamped so a single decision never moves
// difficulty by more than one level, and the result is kept inside the
// configured range. A mastery score in [0,1] is reported alongside for
// auditing; it never drives the adjustment.
//
// The engine is a set of pure functions. It performs no I/O and keeps no
// mutable state, so a Service may be shared between goroutines.
package adaptive
