//go:build !windows
// +build !windows

package progress

import "os"

// enableWindowsANSI is a no-op where terminals speak ANSI natively.
func enableWindowsANSI(f *os.File) {}
