// Package i18n looks up user facing messages by key in YAML or JSON locale
// catalogues and substitutes :name placeholders.
package i18n
