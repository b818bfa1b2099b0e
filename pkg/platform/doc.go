// SPDX-License-Identifier: MPL-2.0

// Package platform holds operating system names used for runtime.GOOS checks.
package platform
