// Package types defines the Store and table interfaces, entity types, query
// and patch types, and the standard errors for the listings storage layer.
//
// Every error returned by a table operation wraps one of the sentinels in this
// package, so callers can branch on the failure kind with errors.Is.
package types
