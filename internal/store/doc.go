// Package store defines the persistence contracts for the application's
// entities (sessions, achievements, users, lab reports) together with the
// sentinel error taxonomy shared by all implementations. Concrete stores
// live in internal/platform/postgres.
package store
