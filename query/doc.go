// Package query turns grid filter, sort and relation requests into bun select
// queries: the assembler, the per-field filter engine and the typed
// datas/values predicate builder.
package query
