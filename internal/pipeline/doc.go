// Package pipeline composes asset processing stages into a strictly linear
// run.
//
// An Item flows through each Stage in order, starting empty. Input stages
// seed it with paths or in-memory data, transform stages (Concat, Replace,
// the minifiers, Markdown) rewrite its bytes, and Output persists the result,
// optionally under a content-hashed filename recorded in a manifest. The
// first failing stage aborts the run; side effects of earlier stages are not
// rolled back.
//
// Stages are immutable once built, so one stage slice may be run repeatedly
// or from several goroutines. Each run hands stages their logger through the
// context. The only shared resource is a manifest passed to Output, which
// callers must not mutate from several goroutines at once.
package pipeline
