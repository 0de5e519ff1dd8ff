// Package types holds request value types shared across packages: page
// requests, pagination results, sort directions and JSON objects.
package types
