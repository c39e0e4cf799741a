// SPDX-License-Identifier: GPL-3.0-or-later
package main

import (
	"os"

	"github.com/CrawX/go-notmuch/log"
)

func main() {
	logger := log.Logger(log.LOG_MAIN)

	envFile := os.Getenv("NMSAFE_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	err := loadEnv(envFile)
	if err != nil {
		logger.WithField("error", err).Fatal("Could not load environment")
	}

	app := newApp(&nmsafe{})
	err = app.Run(os.Args)
	if err != nil {
		logger.WithField("error", err).Fatal("Command failed")
	}
}
