// SPDX-License-Identifier: MPL-2.0

// Package config handles emanate configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/emanate/config.cue (or the XDG equivalent on
// Linux, ~/Library/Application Support/emanate/config.cue on macOS, %APPDATA%\emanate\config.cue
// on Windows), falling back to ./config.cue and then to built-in defaults. Every key can be
// overridden through an EMANATE_ environment variable, e.g. EMANATE_REGISTRY_URL.
//
// Config files are validated against an embedded CUE schema (config_schema.cue) so that typos
// and wrong types are reported with the offending path.
package config
