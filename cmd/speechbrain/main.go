// Copyright 2025 SpeechBrain-Go. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Command speechbrain prints version information for the encoder
// library.
package main

import (
	"fmt"
	"os"
)

const version = "0.1.0"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("speechbrain %s\n", version)
		return
	}

	fmt.Println("speechbrain - Branchformer speech encoder in pure Go")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  speechbrain version    Print version information")
}
