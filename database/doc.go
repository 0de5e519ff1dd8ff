// Package database provides connection management for mysql, postgres and
// sqlite on top of Bun, table creation for registered models, startup seed
// SQL, query hooks, health checks and the classification of driver errors
// into SQLSTATE codes.
package database
