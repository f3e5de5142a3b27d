package main

import (
	"fmt"
	"os"

	"github.com/eshaffer321/billmatch/internal/cli"
	"github.com/eshaffer321/billmatch/internal/infrastructure/storage"
)

func main() {
	flags := cli.ParseImportFlags()
	if flags.File == "" {
		fmt.Fprintln(os.Stderr, "Usage: import -file fixture.yaml [-config config.yaml]")
		os.Exit(2)
	}

	cfg, err := cli.LoadConfig(flags.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger := cli.NewLogger(cfg, "import", flags.Verbose)

	store, err := storage.NewStorageWithLogger(cfg.Storage.DatabasePath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	result, err := cli.NewImporter(store, logger).ImportFile(flags.File)
	_ = store.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Imported %d bills and %d transactions (%d warnings)\n",
		result.Bills, result.Transactions, result.Warnings)
}
