// Package detect holds the pure functions the watch cycle runs over fetched markup:
// the content fingerprint, the availability predicates and label extraction.
//
// Nothing in this package returns an error. Markup that cannot be parsed is
// evidence of absence, so predicates report false and labels report "unknown".
package detect
