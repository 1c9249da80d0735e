// Package launcher turns a resolved experiment into a single distributed
// launch invocation, executes it as a scoped blocking operation, and reports
// the outcome as a RunResult. It never retries; continuation policy belongs
// to the sequencer.
package launcher
