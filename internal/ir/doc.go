// Package ir holds the typed catalog produced by the compiler.
//
// Every type reference in the catalog is a resolved TypeRef; names are kept
// only for diagnostics and generated identifiers. The catalog is built once
// and is read-only afterwards, so downstream stages may share it across
// goroutines without locking.
//
// ir imports no other internal package. Canonical JSON and the schema
// fingerprint live here so every stage hashes the catalog the same way.
package ir
