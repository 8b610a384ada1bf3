/*
 * Copyright 2025 The Labtrail Authors
 * SPDX-License-Identifier: Apache-2.0
 */
package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/labtrail/labtrail/cmd"
	"github.com/labtrail/labtrail/logging"
)

func main() {
	// A .env file is optional; environment variables win either way.
	_ = godotenv.Load()

	logging.Init()

	app := &cli.Command{
		Name:  "labtrail",
		Usage: "Labtrail - Personal Lab Result Tracker",
		Commands: []*cli.Command{
			cmd.CmdStart,
			cmd.CmdMigrate,
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
