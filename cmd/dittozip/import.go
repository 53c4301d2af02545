package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/marmos91/dittozip/pkg/config"
	"github.com/marmos91/dittozip/pkg/importer"
	"github.com/marmos91/dittozip/pkg/store/catalog"
	"github.com/spf13/cobra"
)

var importOpts struct {
	title       string
	depositor   string
	groups      []string
	embargo     string
	access      string
	license     string
	licenseName string
}

var importCmd = &cobra.Command{
	Use:   "import <directory>",
	Short: "Import a directory tree as a new dataset",
	Long: `Import walks a directory and stores it as a dataset: directories become
folders, regular files become files with a SHA-1 checksum, and a
"<name>.metadata.xml" file next to "<name>" becomes its descriptive metadata.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	f := importCmd.Flags()
	f.StringVar(&importOpts.title, "title", "", "Dataset title (default: directory name)")
	f.StringVar(&importOpts.depositor, "depositor", "", "User ID of the depositor")
	f.StringSliceVar(&importOpts.groups, "group", nil, "Group allowed to download restricted_group files (repeatable)")
	f.StringVar(&importOpts.embargo, "embargo-until", "", "Embargo end date (RFC 3339 or YYYY-MM-DD)")
	f.StringVar(&importOpts.access, "access", string(catalog.AccessAnonymous), "Access category of the imported files")
	f.StringVar(&importOpts.license, "license", "", "Additional license document")
	f.StringVar(&importOpts.licenseName, "license-name", "", "Archive name of the license (default: file name)")
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts := importer.Options{
		Title:        importOpts.title,
		DepositorID:  importOpts.depositor,
		Groups:       importOpts.groups,
		AccessibleTo: catalog.AccessCategory(importOpts.access),
		LicensePath:  importOpts.license,
		LicenseName:  importOpts.licenseName,
	}
	if importOpts.embargo != "" {
		until, err := parseDate(importOpts.embargo)
		if err != nil {
			return err
		}
		opts.EmbargoUntil = &until
	}

	ctx := cmd.Context()

	catalogStore, err := config.CreateCatalogStore(ctx, &cfg.Catalog)
	if err != nil {
		return err
	}
	defer func() { _ = catalogStore.Close() }()

	contentStore, err := config.CreateContentStore(ctx, &cfg.Content)
	if err != nil {
		return err
	}

	result, err := importer.New(catalogStore, contentStore).Import(ctx, args[0], opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Dataset:  %s\n", result.Dataset.ID)
	fmt.Fprintf(out, "Root:     %s\n", result.Dataset.RootID)
	fmt.Fprintf(out, "Folders:  %d\n", result.Folders)
	fmt.Fprintf(out, "Files:    %d (%s)\n", result.Files, humanize.IBytes(uint64(result.Bytes)))
	fmt.Fprintf(out, "Metadata: %d\n", result.Metadata)
	if len(result.Skipped) > 0 {
		fmt.Fprintf(out, "Skipped:  %d\n", len(result.Skipped))
	}
	return nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use RFC 3339 or YYYY-MM-DD", s)
	}
	return t, nil
}
