//go:build windows

package main

import "fmt"

func createFifo(path string) error {
	return fmt.Errorf("device: named FIFOs are not supported on windows")
}
