// Package configs provides embedded configuration templates for grepmcp.
//
// Templates are embedded at build time using Go's //go:embed directive,
// so they are available in every distribution: source builds, binary
// releases, and package-manager installs.
//
// The templates are used by:
//   - cmd/grepmcp/cmd/config.go → `grepmcp config init` creates
//     ~/.config/grepmcp/config.yaml
//   - cmd/grepmcp/cmd/config.go → `grepmcp config init --project`
//     creates .grepmcp.yaml in the project root
//
// Configuration hierarchy (see internal/config/config.go Load()):
//  1. Hardcoded defaults (internal/config/config.go NewConfig())
//  2. User config (~/.config/grepmcp/config.yaml)
//  3. Project config (.grepmcp.yaml)
//  4. Environment variables (GREPMCP_*)
//
// To modify templates, edit the .yaml files in this directory and
// rebuild.
package configs

import _ "embed"

// UserConfigTemplate is the template for user/machine-level configuration.
// Created by: `grepmcp config init` at ~/.config/grepmcp/config.yaml
// Contains: machine-wide defaults like log level, rotation sizes, and
// the history database location.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string

// ProjectConfigTemplate is the template for project-level configuration.
// Created by: `grepmcp config init --project` at .grepmcp.yaml in the
// project root.
// Contains: per-repository settings like the extension allow-list and
// history opt-out, version-controlled with the project.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string
