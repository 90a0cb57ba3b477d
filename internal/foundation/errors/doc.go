// Package errors provides the classified error primitives used across the page watcher.
//
// A ClassifiedError carries a category (what kind of failure), a severity (how bad it
// is for the current operation) and a retry hint, plus free-form context. The CLI
// adapter maps categories to process exit codes so the scheduler invoking a cycle can
// tell fetch and storage failures apart from configuration mistakes.
//
// Example usage:
//
//	err := errors.NetworkError("fetch failed").
//		WithContext("url", target.URL).
//		WithCause(originalErr).
//		Build()
package errors
