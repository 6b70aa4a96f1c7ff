// Command web serves the billing API over HTTP.
package main

import (
	"log/slog"
	"os"

	"autobill/internal/app"
	"autobill/internal/infrastructure"
)

func main() {
	application, err := app.NewApplication()
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	err = application.Run()
	if err != nil {
		application.Logger.Error("Application error", slog.String("error", err.Error()))
	}
	infrastructure.CloseLogFile()
	if err != nil {
		os.Exit(1)
	}
}
