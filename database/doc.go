// Package database opens and supervises the Bun connection the repositories
// run on: configuration loading, driver selection, pool tuning, health
// checks, query hooks, logging and driver error classification.
package database
