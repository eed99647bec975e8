// Command rigview is a terminal dashboard for vehicle test-bench telemetry.
// It browses stored test runs, follows them live via polling, renders six
// time-series charts and the characterization grid, and can upload new runs.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/lmittmann/tint"

	"github.com/rigbench/rigview/internal/api"
	"github.com/rigbench/rigview/internal/app"
)

func main() {
	apiURL := flag.String("api", "http://localhost:8077", "backend base URL")
	logPath := flag.String("log", "", "log file (empty: logging disabled)")
	uploadPath := flag.String("upload", "", "upload a CSV file and exit")
	exportDir := flag.String("export-dir", "rigview_charts", "directory for PNG chart exports")
	flag.Parse()

	log, closeLog, err := openLogger(*logPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "rigview:", err)
		os.Exit(1)
	}
	defer closeLog()

	client := api.New(*apiURL)

	if *uploadPath != "" {
		res, err := client.Upload(context.Background(), *uploadPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "rigview:", err)
			os.Exit(1)
		}
		fmt.Printf("uploaded %s: %d rows, test id %s\n", res.Test, res.Rows, res.TestID)
		return
	}

	m := app.New(client, log, *exportDir)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintln(os.Stderr, "rigview:", err)
		os.Exit(1)
	}
}

// openLogger logs to a file so output never interleaves with the TUI.
func openLogger(path string) (*slog.Logger, func(), error) {
	if path == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	log := slog.New(tint.NewHandler(f, &tint.Options{NoColor: true}))
	return log, func() { f.Close() }, nil
}
