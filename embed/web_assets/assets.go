package web_assets

import "embed"

// Assets holds the static board page served at /.
//
//go:embed index.html
var Assets embed.FS
