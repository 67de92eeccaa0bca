// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"io"
)

// scannerReader reads lines from a non-terminal input, such as a pipe.
// The prompt is not echoed.
type scannerReader struct {
	sc *bufio.Scanner
}

func newScannerReader(r io.Reader) *scannerReader {
	return &scannerReader{sc: bufio.NewScanner(r)}
}

// Prompt implements LineReader. It returns io.EOF at end of input.
func (s *scannerReader) Prompt(string) (string, error) {
	if s.sc.Scan() {
		return s.sc.Text(), nil
	}
	if err := s.sc.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
