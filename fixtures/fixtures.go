package fixtures

import (
	"embed"
)

//go:embed config/config.yaml.template
var ConfigTemplate []byte

// TestData holds small raw datasets under tests/data.
//
//go:embed tests/data/*.bin
var TestData embed.FS
