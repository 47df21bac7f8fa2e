// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"log"
	"os"

	"github.com/relabs-tech/channelling_portal/internal/app"
)

func main() {
	if err := app.NewCLI("portal", "drive one spirit device and report its state", app.RunPortal).Run(os.Args); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
