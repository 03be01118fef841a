// Package repository provides data access interfaces and PostgreSQL
// implementations for the research agent.
//
// The package follows the repository pattern: interfaces abstract
// persistence from the workflow and HTTP layers, and Pg* types
// implement them over PostgreSQL.
//
// All repository implementations are safe for concurrent use; the
// underlying pgxpool handles connection pooling and synchronization.
// Methods return domain-specific errors (domain.ErrNotFound,
// domain.ErrInvalidInput) and wrap database errors with fmt.Errorf %w.
//
// Repositories accept the DBTX interface so they work against both a
// connection pool and a transaction:
//
//	err := db.WithTransaction(ctx, func(tx pgx.Tx) error {
//	    txRepo := repository.NewPgTopicRepository(tx)
//	    return txRepo.Create(ctx, topic)
//	})
package repository

import (
	"github.com/inquiro/research-agent/internal/database"
)

// DBTX is the database interface supporting both pool and transaction contexts.
type DBTX = database.DBTX
