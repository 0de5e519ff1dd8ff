// Package repository executes assembled grid queries with Bun: listing,
// single lookups, pagination, upserts from request bodies, bulk deletes by
// primary key and the synchronisation of many-to-many join tables.
package repository
