// Package migrations menyimpan skema database yang di-embed ke binary.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
