// Package db embeds the SQL schema used by the PostgreSQL storage backend.
package db

import _ "embed"

// Schema contains idempotent DDL for the orders table.
//
//go:embed migrations/001_schema.sql
var Schema string
