// SPDX-License-Identifier: MPL-2.0

package config

// configDirsOverride allows tests to replace the config search directories.
var configDirsOverride []string

// Reset clears test overrides. Call from test cleanup to restore defaults.
func Reset() {
	configDirsOverride = nil
}

// SetConfigDirsOverride replaces the directories searched for config files,
// lowest precedence first.
func SetConfigDirsOverride(dirs ...string) {
	configDirsOverride = dirs
}
