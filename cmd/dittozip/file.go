package main

import (
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/marmos91/dittozip/pkg/config"
	"github.com/marmos91/dittozip/pkg/store/catalog"
	"github.com/spf13/cobra"
)

var fileOpts struct {
	identityFlags
	output string
}

var fileCmd = &cobra.Command{
	Use:   "file <dataset> <file>",
	Short: "Download a single file of a dataset",
	Args:  cobra.ExactArgs(2),
	RunE:  runFile,
}

func init() {
	fileOpts.register(fileCmd)
	fileCmd.Flags().StringVarP(&fileOpts.output, "output", "o", "", "Destination (default: the file name)")
}

func runFile(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	reg, err := config.InitializeRegistry(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer func() { _ = reg.Close() }()

	svc, err := reg.Service()
	if err != nil {
		return err
	}

	fc, err := svc.GetFileContent(ctx, fileOpts.identity(), catalog.DatasetID(args[0]), catalog.ItemID(args[1]))
	if err != nil {
		return err
	}

	rc, err := reg.Opener().Open(ctx, fc.URL)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", fc.Item.Name, err)
	}
	defer func() { _ = rc.Close() }()

	dest := fileOpts.output
	if dest == "" {
		dest = filepath.Base(fc.Item.Name)
	}
	if err := writeTo(dest, rc); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", dest, humanize.IBytes(uint64(fc.Item.Size)))
	return nil
}
