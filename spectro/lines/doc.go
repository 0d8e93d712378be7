// Package lines holds absorption-line reference data.
//
// A [Database] is an immutable snapshot: it is validated and sorted once on
// construction and can then be shared across goroutines without locking.
// Adding lines produces a new snapshot via [Database.With]; the receiver is
// never modified.
package lines
