// Package task manages in-process background work: a bounded queue and a
// pool of workers draining it. The service uses it to write decision logs
// off the request path so a slow database never delays a difficulty answer.
package task
