package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/marmos91/dittozip/internal/logger"
	"github.com/marmos91/dittozip/pkg/config"
	"github.com/marmos91/dittozip/pkg/policy"
	"github.com/marmos91/dittozip/pkg/store/catalog"
	"github.com/spf13/cobra"
)

// identityFlags carries the acting user for the offline commands. The HTTP
// adapter takes the same values from request headers.
type identityFlags struct {
	user   string
	roles  []string
	groups []string
	grants []string
}

func (f *identityFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.user, "user", "", "Acting user ID (empty for anonymous)")
	cmd.Flags().StringSliceVar(&f.roles, "role", nil, "Role of the acting user (repeatable)")
	cmd.Flags().StringSliceVar(&f.groups, "group", nil, "Group of the acting user (repeatable)")
	cmd.Flags().StringSliceVar(&f.grants, "grant", nil, "Dataset the user was granted access to (repeatable)")
}

func (f *identityFlags) identity() policy.Identity {
	id := policy.Identity{UserID: f.user, Roles: f.roles, Groups: f.groups}
	for _, g := range f.grants {
		id.Grants = append(id.Grants, catalog.DatasetID(g))
	}
	return id
}

var zipOpts struct {
	identityFlags
	files     []string
	filesOnly []string
	output    string
}

var zipCmd = &cobra.Command{
	Use:   "zip <dataset> [folder...]",
	Short: "Build a download archive for a dataset",
	Long: `Zip resolves the requested items, keeps those the acting user may
download and writes the archive to --output (default: the generated archive
name in the current directory).

Positional folders are expanded recursively, --files-only folders one level
deep, and --file selects single files.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runZip,
}

func init() {
	zipOpts.register(zipCmd)
	zipCmd.Flags().StringSliceVar(&zipOpts.files, "file", nil, "File to include (repeatable)")
	zipCmd.Flags().StringSliceVar(&zipOpts.filesOnly, "files-only", nil, "Folder whose direct files to include (repeatable)")
	zipCmd.Flags().StringVarP(&zipOpts.output, "output", "o", "", "Archive destination")
}

func runZip(cmd *cobra.Command, args []string) (err error) {
	requested := make([]catalog.RequestedItem, 0, len(args)-1+len(zipOpts.files)+len(zipOpts.filesOnly))
	for _, id := range args[1:] {
		requested = append(requested, catalog.RequestedItem{ID: catalog.ItemID(id)})
	}
	for _, id := range zipOpts.filesOnly {
		requested = append(requested, catalog.RequestedItem{ID: catalog.ItemID(id), FilesOnly: true})
	}
	for _, id := range zipOpts.files {
		requested = append(requested, catalog.RequestedItem{ID: catalog.ItemID(id), IsFile: true})
	}
	if len(requested) == 0 {
		return errors.New("nothing requested: pass at least one folder, --files-only or --file")
	}

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

	result, err := svc.GetZippedContent(ctx, zipOpts.identity(), catalog.DatasetID(args[0]), requested)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := result.Cleanup(); cerr != nil {
			logger.Warn("Failed to clean up archive %s: %v", result.Path, cerr)
		}
	}()

	dest := zipOpts.output
	if dest == "" {
		dest = result.Filename
	}
	if err := copyFile(result.Path, dest); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d entries, %s (%s uncompressed)\n",
		dest, result.Entries, humanize.IBytes(uint64(result.Size)), humanize.IBytes(uint64(result.UncompressedSize)))
	return nil
}

// copyFile copies src to dst. The archive lives in the holding directory
// which may sit on another filesystem, so it is copied rather than renamed.
func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	return writeTo(dst, in)
}

func writeTo(dst string, r io.Reader) (err error) {
	if dir := filepath.Dir(dst); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(dst)
		}
	}()

	_, err = io.Copy(out, r)
	return err
}
