// Package core provides the business logic for contact CSV imports.
//
// This package holds all domain logic independent of any transport. It is
// used by the HTTP server, the contactctl CLI and tests without modification.
//
// # Pipeline
//
// An import call reads a CSV stream record by record:
//
//   - The first record is the header and is skipped without inspection.
//   - [DecodeRow] maps positional cells to [Fields]. Missing cells are empty.
//   - [Validator] applies the ordered row rules and returns a [RowError]
//     for the first rule that fails.
//   - Valid rows are persisted through a [Store]. A failed insert becomes a
//     row error and the loop continues.
//
// Row failures never abort the call. Only an unreadable stream or a cancelled
// context does, and those surface as an error from [Importer.Import].
//
// # Service
//
// [Service] wraps the importer for long-running processes. It bounds
// concurrent imports with an [ImportLimiter], applies a per-call timeout,
// strips BOMs and invalid UTF-8 from the stream and reports every call to a
// [Recorder].
//
//	svc := core.NewService(store, core.ServiceConfig{MaxConcurrent: 4}, metrics)
//	result, err := svc.Import(ctx, "contacts.csv", file, size)
//
// # Stores
//
// [PostgresStore] persists through the generated queries in the database
// package. [MemoryStore] keeps contacts in a map and backs dry runs and tests.
package core
