package posts

import "embed"

// FS holds the markdown posts shipped inside the binary.
//
//go:embed *.md
var FS embed.FS
