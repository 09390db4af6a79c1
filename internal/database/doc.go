// Package database provides SQLite-based lookup history for wikiscope.
//
// Every finished lookup can be stored with its full JSON form and a few
// indexed summary columns (status, page size, edit counts, entity ID), so
// that the compare command can show how an article changed between two
// lookups without decoding every stored document.
//
// The database is a single file opened through modernc.org/sqlite, a CGO-free
// driver, with WAL journaling and one connection.
package database
