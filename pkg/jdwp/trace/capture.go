/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package trace

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"unicode"
)

// maxCaptureLineLength bounds a single line of a text capture; a 16 MiB packet in hex fits.
const maxCaptureLineLength = 40 * 1024 * 1024

// ParseCaptureLine parses one line of a text capture. A line holds a direction marker,
// '>' for packets the debugger sent and '<' for packets the VM sent, followed by the
// complete packet in hex. Whitespace between hex digits is ignored.
// Blank lines and lines starting with '#' are skipped; ok is false for them.
func ParseCaptureLine(line string) (dir Direction, data []byte, ok bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return 0, nil, false, nil
	}

	switch line[0] {
	case '>':
		dir = FromDebugger
	case '<':
		dir = FromVM
	default:
		return 0, nil, false, fmt.Errorf("capture line must start with '>' or '<': %q", truncate(line))
	}

	digits := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, line[1:])

	data, err = hex.DecodeString(digits)
	if err != nil {
		return 0, nil, false, fmt.Errorf("capture line is not valid hex: %w", err)
	}
	return dir, data, true, nil
}

// ReadCapture parses a text capture and calls observe for every packet, in order.
// It stops at the first malformed line or the first error returned by observe.
func ReadCapture(r io.Reader, observe func(dir Direction, data []byte) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxCaptureLineLength)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		dir, data, ok, err := ParseCaptureLine(scanner.Text())
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		if !ok {
			continue
		}
		if err = observe(dir, data); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read capture: %w", err)
	}
	return nil
}

// FormatCaptureLine renders a packet the way ParseCaptureLine reads it.
func FormatCaptureLine(dir Direction, data []byte) string {
	marker := ">"
	if dir == FromVM {
		marker = "<"
	}
	return marker + " " + hex.EncodeToString(data)
}

func truncate(s string) string {
	const max = 32
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
