package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/radiobatch/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Exit codes of the radiobatch binary.
const (
	ExitUsage    = 2
	ExitFailure  = 1
	ExitWorklist = -1
)

// DefaultOutputPath derives the output table path from the worklist path:
// data/cases.csv becomes data/cases_radiomics.csv.
func DefaultOutputPath(worklist string) string {
	ext := filepath.Ext(worklist)
	return strings.TrimSuffix(worklist, ext) + "_radiomics.csv"
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("radiobatch", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
radiobatch - batch radiomics feature extraction over a CSV worklist.

Usage:
  radiobatch [options] [WORKLIST]

Arguments:
  WORKLIST
    CSV file with the columns ID, Image and Mask.

Options:
`)
		flagSet.PrintDefaults()
	}

	worklistFlag := flagSet.String("worklist", "", "Path to the worklist CSV.")
	wFlag := flagSet.String("w", "", "Path to the worklist CSV (shorthand).")
	outputFlag := flagSet.String("output", "", "Path of the output features CSV. Defaults to <worklist>_radiomics.csv.")
	oFlag := flagSet.String("o", "", "Path of the output features CSV (shorthand).")
	paramsFlag := flagSet.String("params", "Params.yaml", "Extraction parameters file (.yaml or .hcl). Built-in defaults apply when missing.")
	toolkitFlag := flagSet.String("toolkit", "", "Optional HCL file configuring the toolkit command.")
	logDirFlag := flagSet.String("log-dir", "log", "Directory for the timestamped log file. Empty logs to stdout.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	logFormatFlag := flagSet.String("log-format", "line", "Log output format. Options: 'line', 'text' or 'json'.")
	workersFlag := flagSet.Int("workers", 0, "Number of concurrent workers. 0 uses one less than the CPU count.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	progressURLFlag := flagSet.String("progress-url", "", "Socket.IO endpoint receiving progress events.")
	uploadURLFlag := flagSet.String("upload-url", "", "URL the finished features CSV is PUT to.")
	keepBackgroundFlag := flagSet.Bool("keep-background", false, "Also extract features for mask label 0.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: ExitUsage, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *worklistFlag != "" {
		path = *worklistFlag
	} else if *wFlag != "" {
		path = *wFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}

	if path == "" {
		slog.Debug("No worklist provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	outPath := *outputFlag
	if outPath == "" {
		outPath = *oFlag
	}
	if outPath == "" {
		outPath = DefaultOutputPath(path)
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: ExitUsage, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	logFormat := strings.ToLower(*logFormatFlag)
	switch logFormat {
	case "line", "text", "json":
	default:
		return nil, false, &ExitError{Code: ExitUsage, Message: "invalid log-format: must be 'line', 'text' or 'json'"}
	}

	config, err := app.NewConfig(app.Config{
		WorklistPath:    path,
		OutputPath:      outPath,
		ParamsPath:      *paramsFlag,
		ToolkitPath:     *toolkitFlag,
		LogDir:          *logDirFlag,
		LogLevel:        logLevel,
		LogFormat:       logFormat,
		WorkerCount:     *workersFlag,
		HealthcheckPort: *healthPortFlag,
		ProgressURL:     *progressURLFlag,
		UploadURL:       *uploadURLFlag,
		KeepBackground:  *keepBackgroundFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: ExitUsage, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
