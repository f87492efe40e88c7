// Package store реализует Job State Store — durable key-value
// хранилище состояний jobs с атомарным create-if-absent.
//
// Бэкенды:
//   - memory.go   — in-memory (dev/test)
//   - sqlite.go   — SQLite через database/sql (single-node durable)
//   - postgres.go — PostgreSQL через pgx (resilient-развёртывание)
//
// Терминальные jobs остаются в хранилище — автоматического удаления нет.
package store
