package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"

	"vculaunch/internal/config"
	"vculaunch/internal/launcher"
	"vculaunch/internal/model"
	"vculaunch/internal/report"
	"vculaunch/internal/tui"
	"vculaunch/internal/web"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"github.com/tcnksm/go-latest"
)

// options are the parsed command line flags.
type options struct {
	gui         bool
	console     bool
	updatePaths bool
	web         bool
	addr        string
	configPath  string
	version     bool
	checkUpdate bool
	debug       bool
	help        bool
	args        []string
}

func newFlagSet(opts *options) *pflag.FlagSet {
	fs := pflag.NewFlagSet("vculaunch", pflag.ContinueOnError)
	fs.BoolVarP(&opts.gui, "gui", "g", false, "Start the interactive terminal UI")
	fs.BoolVarP(&opts.console, "console", "c", false, "Dispatch source_path without the UI")
	fs.BoolVarP(&opts.updatePaths, "update-paths", "u", false, "Only update the compiler paths in the makefiles")
	fs.BoolVarP(&opts.web, "web", "w", false, "Start the web panel")
	fs.StringVar(&opts.addr, "addr", "", "Listen address for --web (default from config, 127.0.0.1:8080)")
	fs.StringVar(&opts.configPath, "config", "", "Path to a YAML config file")
	fs.BoolVarP(&opts.version, "version", "V", false, "Print version information")
	fs.BoolVar(&opts.checkUpdate, "check-update", false, "Check for a newer release")
	fs.BoolVar(&opts.debug, "debug", false, "Show debug log lines")
	fs.BoolVarP(&opts.help, "help", "h", false, "Show this help message")
	return fs
}

func printUsage(out io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintf(out, "Usage: vculaunch [options] [source_path]\n\n")
	fmt.Fprintf(out, "vculaunch prepares the VCU compile tree, stages a MVCU or SVCU source\n")
	fmt.Fprintf(out, "into it and starts the MSYS build shell.\n\n")
	fmt.Fprintf(out, "Options:\n")
	fmt.Fprint(out, fs.FlagUsages())
	fmt.Fprintf(out, "\nExamples:\n")
	fmt.Fprintf(out, "  vculaunch                       # Start the terminal UI\n")
	fmt.Fprintf(out, "  vculaunch -c ./Project_MVCU     # Stage and compile without the UI\n")
	fmt.Fprintf(out, "  vculaunch ./Project_SVCU        # Same, for a folder dropped on the executable\n")
	fmt.Fprintf(out, "  vculaunch --update-paths        # Rewrite makefile toolchain paths\n")
	fmt.Fprintf(out, "  vculaunch --web --addr :9090    # Serve the browser panel\n")
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run is main without the exit, so a panic anywhere below is reported
// instead of crashing with a trace.
func run(argv []string, stdout, stderr io.Writer) (code int) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(stderr, "%s Unexpected error: %v\n", model.IconError, r)
			if os.Getenv("VCULAUNCH_DEBUG") != "" {
				fmt.Fprintf(stderr, "%s\n", debug.Stack())
			}
			code = 1
		}
	}()

	var opts options
	fs := newFlagSet(&opts)
	fs.SetOutput(stderr)
	fs.Usage = func() { printUsage(stderr, fs) }
	if err := fs.Parse(argv); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 1
	}
	opts.args = fs.Args()

	if opts.help {
		printUsage(stdout, fs)
		return 0
	}
	if opts.version {
		fmt.Fprintf(stdout, "vculaunch version %s\n", model.Version)
		return 0
	}
	if opts.checkUpdate {
		checkUpdate(stdout, model.Version)
		return 0
	}

	cfg, err := config.Load(configPath(opts.configPath))
	if err != nil {
		fmt.Fprintf(stderr, "%s Invalid configuration: %v\n", model.IconError, err)
		return 1
	}
	if opts.debug {
		cfg.Debug = true
	}
	if opts.addr != "" {
		cfg.WebAddr = opts.addr
	}

	ops := launcher.New(cfg)
	log := report.New(cfg.Debug, report.NewConsole(stdout, stderr))

	// Both run on every start, whatever the mode.
	paths, startErr := ops.Startup(log)
	if startErr != nil {
		log.Warnf("Startup incomplete: %v", startErr)
	}

	switch {
	case opts.updatePaths:
		return runUpdatePaths(ops, log, stdout)
	case opts.web:
		return runWeb(ops, cfg, log)
	case opts.gui:
		return runTUI(ops, cfg, firstArg(opts.args), paths, stderr)
	case opts.console || len(opts.args) > 0:
		// A bare path argument is also what a folder dropped on the
		// executable looks like.
		if len(opts.args) == 0 {
			printUsage(stderr, fs)
			fmt.Fprintf(stderr, "\nError: console mode requires a source path.\n")
			return 1
		}
		return runConsole(ops, opts.args[0], log)
	}
	return runTUI(ops, cfg, "", paths, stderr)
}

// configPath picks --config, then VCULAUNCH_CONFIG, then vculaunch.yaml
// next to the executable.
func configPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("VCULAUNCH_CONFIG"); env != "" {
		return env
	}
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	return filepath.Join(filepath.Dir(exe), config.FileName)
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// runUpdatePaths reports on the profile step only and always exits 0.
func runUpdatePaths(ops launcher.Operations, log *report.Logger, stdout io.Writer) int {
	up, err := ops.UpdatePaths(log)
	if err != nil {
		fmt.Fprintf(stdout, "%s Compiler path update failed.\n", model.IconError)
		return 0
	}
	fmt.Fprintf(stdout, "%s Compiler paths updated.\n", model.IconOK)
	fmt.Fprintf(stdout, "MVCU path: %s\n", up.BuildPaths.MVCU)
	fmt.Fprintf(stdout, "SVCU path: %s\n", up.BuildPaths.SVCU)
	return 0
}

func runConsole(ops launcher.Operations, source string, log *report.Logger) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// The profile was regenerated at startup; only the makefiles may still
	// point at an old install location.
	ops.RewriteMakefiles(log)
	if _, err := ops.Dispatch(ctx, source, log); err != nil {
		log.Errorf("Compile failed: %v", err)
		return 1
	}
	log.Infof("%s Compile started", model.IconOK)
	return 0
}

func runWeb(ops launcher.Operations, cfg config.Config, log *report.Logger) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := web.NewServer(ops, cfg.Debug).ListenAndServe(ctx, cfg.WebAddr, log); err != nil {
		log.Errorf("Web server stopped: %v", err)
		return 1
	}
	return 0
}

func runTUI(ops launcher.Operations, cfg config.Config, initialPath string, paths model.BuildPaths, stderr io.Writer) int {
	m := tui.New(ops, cfg.Debug, initialPath)
	m.Paths = paths
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(stderr, "Alas, there's been an error: %v\n", err)
		return 1
	}
	return 0
}

func checkUpdate(stdout io.Writer, currentVer string) {
	githubTag := &latest.GithubTag{
		Owner:      "vculaunch",
		Repository: "vculaunch",
	}

	res, err := latest.Check(githubTag, currentVer)
	if err != nil {
		fmt.Fprintf(stdout, "Could not check for updates: %v\n", err)
		return
	}

	if res.Outdated {
		fmt.Fprintf(stdout, "\n✨ A new version is available: %s (you have %s)\n", res.Current, currentVer)
		fmt.Fprintf(stdout, "👉 Download it from https://github.com/vculaunch/vculaunch/releases\n")
	} else {
		fmt.Fprintf(stdout, "✅ You are using the latest version: %s\n", currentVer)
	}
}
