// Package repository provides a generic repository over Bun models: CRUD,
// attribute filling guarded by fillable columns, condition based finders,
// pagination, eager loading of relations and a name based model registry.
package repository
