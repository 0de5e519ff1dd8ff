// Package crudgrid provides a declarative CRUD controller for grid widgets.
//
// A Controller is declared once per Bun model with its eager relations,
// filter definitions, many-to-many pivots and hooks. It answers list,
// single record, paginated, upsert and bulk delete requests with the
// {status, data, message, total} envelope the grid expects. The router
// package exposes controllers over HTTP.
package crudgrid
