// Package scripts bundles the default Risor rule scripts. Scripts at the
// top level run for every language; scripts under a language directory
// run only for that language. Files starting with "_" are helper modules.
package scripts

import "embed"

//go:embed *.risor go
var FS embed.FS
