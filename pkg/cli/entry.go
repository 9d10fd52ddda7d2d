// Package cli implements the exprassert command.
package cli

import (
	"context"
	"fmt"
	"github.com/funvibe/exprassert/internal/config"
	"github.com/funvibe/exprassert/pkg/sqlcheck"
	"github.com/funvibe/exprassert/pkg/suite"
	"github.com/funvibe/exprassert/pkg/verify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"io"
	"os"
	"path/filepath"
)

// Exit statuses
const (
	ExitOK     = 0
	ExitFailed = 1
	ExitUsage  = 2
)

const usage = `Usage:
  exprassert check <suite.yaml> <subject.yaml|json> [more subjects...]
  exprassert sql <suite.yaml> <db-path> <query>
  exprassert help
  exprassert -version

Flags:
  -debug    log every predicate at debug level
`

type command struct {
	args   []string
	stdout io.Writer
	stderr io.Writer
	cfg    *verify.Config
	logger *zap.Logger
}

// Run is the process entry point.
func Run() {
	os.Exit(Main(os.Args, os.Stdout, os.Stderr))
}

// Main runs the command line args (program name first) and returns the
// exit status.
func Main(args []string, stdout, stderr io.Writer) (status int) {
	// Catch panics and show user-friendly error
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("DEBUG") == "1" {
				panic(r) // Re-panic to get stack trace
			}
			fmt.Fprintf(stderr, "Internal error: %v\n", r)
			status = ExitUsage
		}
	}()

	c := &command{stdout: stdout, stderr: stderr}
	debugMode := false
	for _, arg := range args[1:] {
		if arg == "-debug" || arg == "--debug" {
			debugMode = true
			continue
		}
		c.args = append(c.args, arg)
	}

	if len(c.args) == 1 {
		switch c.args[0] {
		case "-v", "-version", "--version":
			fmt.Fprintln(stdout, "exprassert "+config.Version)
			return ExitOK
		}
	}

	if handled, status := c.handleHelp(); handled {
		return status
	}

	cfg, err := verify.LoadConfig(".")
	if err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return ExitUsage
	}
	if debugMode {
		cfg.LogLevel = "debug"
	}
	c.cfg = cfg
	if c.logger, err = cfg.NewLogger(); err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return ExitUsage
	}
	defer c.logger.Sync()

	if handled, status := c.handleCheck(); handled {
		return status
	}
	if handled, status := c.handleSQL(); handled {
		return status
	}

	fmt.Fprint(stderr, usage)
	return ExitUsage
}

func (c *command) handleHelp() (bool, int) {
	if len(c.args) == 0 {
		fmt.Fprint(c.stderr, usage)
		return true, ExitUsage
	}
	switch c.args[0] {
	case "help", "-help", "--help", "-h":
		fmt.Fprint(c.stdout, usage)
		return true, ExitOK
	}
	return false, 0
}

// handleCheck runs a suite against subject files.
func (c *command) handleCheck() (bool, int) {
	if c.args[0] != "check" {
		return false, 0
	}
	if len(c.args) < 3 {
		fmt.Fprintf(c.stderr, "Usage: exprassert check <suite.yaml> <subject.yaml|json> [more subjects...]\n")
		return true, ExitUsage
	}

	s, err := suite.Load(c.args[1], nil)
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %s\n", err)
		return true, ExitUsage
	}
	session := c.session(s)
	reporter := verify.NewReporterFromConfig(c.stdout, c.cfg)

	status := ExitOK
	for _, path := range c.args[2:] {
		subject, err := readSubject(path)
		if err != nil {
			fmt.Fprintf(c.stderr, "Error: %s\n", err)
			return true, ExitUsage
		}
		f, err := session.Run(subject)
		if err != nil {
			fmt.Fprintf(c.stderr, "Error: %s: %s\n", path, err)
			return true, ExitUsage
		}
		if f != nil {
			fmt.Fprintf(c.stdout, "=== %s ===\n", path)
			if err := reporter.Report(f); err != nil {
				return true, ExitUsage
			}
			status = ExitFailed
			continue
		}
		fmt.Fprintf(c.stdout, "ok  %s (%d predicates)\n", path, len(s.Predicates))
	}
	return true, status
}

// handleSQL runs a suite against every row of a query.
func (c *command) handleSQL() (bool, int) {
	if c.args[0] != "sql" {
		return false, 0
	}
	if len(c.args) != 4 {
		fmt.Fprintf(c.stderr, "Usage: exprassert sql <suite.yaml> <db-path> <query>\n")
		return true, ExitUsage
	}

	s, err := suite.Load(c.args[1], nil)
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %s\n", err)
		return true, ExitUsage
	}
	db, err := sqlcheck.Open(c.args[2])
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: opening %s: %s\n", c.args[2], err)
		return true, ExitUsage
	}
	defer db.Close()

	f, n, err := sqlcheck.VerifyRows(context.Background(), db, c.session(s), c.args[3])
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %s\n", err)
		return true, ExitUsage
	}
	if f != nil {
		fmt.Fprintf(c.stdout, "=== row %d ===\n", f.Row)
		if err := verify.NewReporterFromConfig(c.stdout, c.cfg).Report(f.Failure); err != nil {
			return true, ExitUsage
		}
		return true, ExitFailed
	}
	fmt.Fprintf(c.stdout, "ok  %d rows (%d predicates)\n", n, len(s.Predicates))
	return true, ExitOK
}

func (c *command) session(s *suite.Suite) *verify.Session {
	return s.Session(verify.WithConfig(c.cfg), verify.WithLogger(c.logger))
}

// readSubject decodes a YAML or JSON file; JSON is read as YAML.
func readSubject(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading subject %s: %w", path, err)
	}
	var subject any
	if err := yaml.Unmarshal(data, &subject); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return subject, nil
}
