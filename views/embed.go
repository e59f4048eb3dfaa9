// Package views holds the HTML templates rendered by the web server.
package views

import "embed"

//go:embed *.html imports/*.html
var FS embed.FS
