// SPDX-License-Identifier: MPL-2.0

// Package config handles march configuration using Viper, with CUE or TOML
// as the file format.
//
// Files are layered over built-in defaults: the system file
// /etc/march/config.{cue,toml} first, then the user file under the XDG
// config directory. Each file is validated against the embedded CUE schema
// (config_schema.cue) before it is merged.
package config
