// SPDX-License-Identifier: MPL-2.0

//go:build !windows && !plan9

package logging

import (
	"io"
	"log/syslog"
)

func openSyslog(tag string) (io.WriteCloser, error) {
	return syslog.New(syslog.LOG_ERR|syslog.LOG_USER, tag)
}
