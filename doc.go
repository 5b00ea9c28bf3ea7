// Package repokit is the service facade over the generic repository: a
// lazily resolved Service per model type and YAML fixture seeding through
// the model registry.
package repokit
