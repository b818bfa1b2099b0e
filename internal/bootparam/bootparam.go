// SPDX-License-Identifier: MPL-2.0

// Package bootparam reads key=value parameters from the kernel command line.
package bootparam

import (
	"fmt"
	"os"
	"strings"
)

const (
	// DefaultCmdlinePath is where Linux exposes the boot command line.
	DefaultCmdlinePath = "/proc/cmdline"

	// MarchKey is the boot parameter selecting the system-wide level.
	MarchKey = "march"
)

// Split breaks a kernel command line into parameters the way the kernel's
// next_arg does. Parameters are separated by whitespace and only double
// quotes group; quotes around a whole parameter or around its value are
// removed (foo="a b" becomes foo=a b). An unterminated quote runs to the end
// of the line. Single quotes, backslashes and '#' have no special meaning.
func Split(cmdline string) []string {
	var params []string
	rest := cmdline
	for {
		rest = strings.TrimLeftFunc(rest, isSpace)
		if rest == "" {
			return params
		}
		var param string
		param, rest = nextParam(rest)
		params = append(params, param)
	}
}

// nextParam consumes one parameter from the non-empty, space-trimmed s.
func nextParam(s string) (param, rest string) {
	quoted := s[0] == '"'
	if quoted {
		s = s[1:]
	}
	inQuote := quoted
	equals := -1
	end := len(s)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !inQuote && isSpace(rune(c)) {
			end = i
			break
		}
		if equals < 0 && c == '=' {
			equals = i
		}
		if c == '"' {
			inQuote = !inQuote
		}
	}
	word, rest := s[:end], s[end:]

	if equals >= 0 {
		name, value := word[:equals], word[equals+1:]
		if strings.HasPrefix(value, `"`) {
			value = strings.TrimSuffix(value[1:], `"`)
		} else if quoted {
			value = strings.TrimSuffix(value, `"`)
		}
		return name + "=" + value, rest
	}
	if quoted {
		word = strings.TrimSuffix(word, `"`)
	}
	return word, rest
}

// isSpace matches the kernel's isspace for the ASCII range.
func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

// Lookup returns the value of the first key=value parameter named key.
// A bare key without "=" is reported as present with an empty value.
func Lookup(cmdline, key string) (string, bool) {
	for _, param := range Split(cmdline) {
		name, value, _ := strings.Cut(param, "=")
		if name == key {
			return value, true
		}
	}
	return "", false
}

// Read loads the command line at path and looks up key. A missing file is
// not an error: it yields found == false, as on non-Linux systems.
func Read(path, key string) (value string, found bool, err error) {
	if path == "" {
		path = DefaultCmdlinePath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read kernel command line %s: %w", path, err)
	}
	value, found = Lookup(strings.TrimSpace(string(data)), key)
	return value, found, nil
}
