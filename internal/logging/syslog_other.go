// SPDX-License-Identifier: MPL-2.0

//go:build windows || plan9

package logging

import (
	"errors"
	"io"
)

func openSyslog(string) (io.WriteCloser, error) {
	return nil, errors.New("syslog is not supported on this platform")
}
