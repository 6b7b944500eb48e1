// Package configs provides the embedded configuration template written by
// `talentsift init`. Embedding at build time keeps the template available in
// every distribution of the binary.
package configs

import _ "embed"

// ConfigTemplate is the annotated starting config, created at
// ~/.config/talentsift/config.yaml by `talentsift init`.
//
//go:embed config.example.yaml
var ConfigTemplate string
