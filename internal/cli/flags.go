package cli

import (
	"flag"
	"os"

	"github.com/eshaffer321/billmatch/internal/application/reconcile"
)

// ReconcileFlags are the flags of the reconcile command
type ReconcileFlags struct {
	ConfigPath   string
	DryRun       bool
	LookbackDays int
	Verbose      bool
}

// ParseReconcileFlags parses reconcile flags from command line
func ParseReconcileFlags() ReconcileFlags {
	flags, _ := parseReconcileFlags(flag.CommandLine, os.Args[1:])
	return flags
}

func parseReconcileFlags(fs *flag.FlagSet, args []string) (ReconcileFlags, error) {
	var flags ReconcileFlags
	fs.StringVar(&flags.ConfigPath, "config", "", "Configuration file path")
	fs.BoolVar(&flags.DryRun, "dry-run", false, "Propose matches without storing them")
	fs.IntVar(&flags.LookbackDays, "days", 0, "Number of days to look back (0 = config value)")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")
	err := fs.Parse(args)
	return flags, err
}

// ToRunOptions converts ReconcileFlags to reconcile.RunOptions
func (f ReconcileFlags) ToRunOptions() reconcile.RunOptions {
	return reconcile.RunOptions{
		DryRun:       f.DryRun,
		LookbackDays: f.LookbackDays,
	}
}

// ServeFlags holds the CLI flags for the serve command.
type ServeFlags struct {
	ConfigPath string
	Port       int
	Verbose    bool
}

// ParseServeFlags parses command line flags for the serve command.
func ParseServeFlags() *ServeFlags {
	flags, _ := parseServeFlags(flag.CommandLine, os.Args[1:])
	return flags
}

func parseServeFlags(fs *flag.FlagSet, args []string) (*ServeFlags, error) {
	flags := &ServeFlags{}
	fs.StringVar(&flags.ConfigPath, "config", "", "Configuration file path")
	fs.IntVar(&flags.Port, "port", 0, "Port to listen on (0 = config value)")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")
	err := fs.Parse(args)
	return flags, err
}

// ImportFlags holds the CLI flags for the import command.
type ImportFlags struct {
	ConfigPath string
	File       string
	Verbose    bool
}

// ParseImportFlags parses command line flags for the import command.
func ParseImportFlags() ImportFlags {
	flags, _ := parseImportFlags(flag.CommandLine, os.Args[1:])
	return flags
}

func parseImportFlags(fs *flag.FlagSet, args []string) (ImportFlags, error) {
	var flags ImportFlags
	fs.StringVar(&flags.ConfigPath, "config", "", "Configuration file path")
	fs.StringVar(&flags.File, "file", "", "YAML fixture with bills and transactions")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")
	err := fs.Parse(args)
	return flags, err
}
