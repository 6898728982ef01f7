// Package assets bundles static files into the binary.
package assets

import _ "embed"

//go:embed i18n.json
var I18n []byte
