// Package templates embeds the default page templates so the binary can serve
// the site without a templates directory on disk.
package templates

import "embed"

//go:embed *.html
var FS embed.FS
