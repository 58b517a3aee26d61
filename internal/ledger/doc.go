// Package ledger records the registry fingerprint of every successful
// generation run in a SQLite database.
//
// The ledger answers one question: did the scriptable surface change since
// the last build? It never stores the registry itself, only fingerprints,
// build metadata and which outputs were rewritten.
//
// # Database Configuration
//
//   - WAL mode: history can be read while a run records
//   - busy_timeout=5000: parallel builds wait for the lock
//   - foreign_keys=ON: outputs cascade with their generation
//
// Rows are ordered by seq, assigned as max(seq)+1 inside the recording
// transaction.
package ledger
