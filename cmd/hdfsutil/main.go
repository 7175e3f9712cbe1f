// Package main provides the hdfsutil CLI tool for managing files on a remote
// filesystem, archiving directory trees and transcoding files with codecs.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
