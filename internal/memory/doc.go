// Package memory turns extraction output into persisted memory records.
//
// The local SQLite store is the source of truth. When a mem0 API key is
// configured, every stored memory is additionally mirrored upstream; mirror
// failures are logged and swallowed because the relay must keep working
// without the hosted service.
package memory
