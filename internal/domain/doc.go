// Package domain contains the core records of the adaptive difficulty
// service: exercise attempts, user standing statistics and the decisions the
// engine produces about the next exercise difficulty. It is independent of
// any storage or delivery mechanism.
package domain
