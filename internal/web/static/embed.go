// Package static embeds the viewer page.
package static

import (
	"embed"
)

//go:embed dist/index.html
var distFS embed.FS

// Index returns the viewer page.
func Index() []byte {
	data, err := distFS.ReadFile("dist/index.html")
	if err != nil {
		panic(err)
	}
	return data
}
