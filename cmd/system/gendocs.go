package system

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"github.com/Alijeyrad/simorq_sessions/pkg/constants"
)

func NewGenDocsCommand() *cobra.Command {
	var (
		outDir string
		format string
	)

	cmd := &cobra.Command{
		Use:   "gendocs",
		Short: "Generate CLI documentation",
		Long: `Generate documentation for every CLI command.

Formats: markdown (default), man and yaml. Output goes to ./docs/cli unless
--outdir is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			absOutDir, err := filepath.Abs(outDir)
			if err != nil {
				return fmt.Errorf("failed to resolve absolute path for %q: %w", outDir, err)
			}
			if err := os.MkdirAll(absOutDir, 0o755); err != nil {
				return fmt.Errorf("failed to create docs directory %q: %w", absOutDir, err)
			}

			root := cmd.Root()
			root.DisableAutoGenTag = true

			switch format {
			case "markdown", "md":
				err = doc.GenMarkdownTree(root, absOutDir)
			case "man":
				err = doc.GenManTree(root, &doc.GenManHeader{Title: constants.AppName, Section: "1"}, absOutDir)
			case "yaml":
				err = doc.GenYamlTree(root, absOutDir)
			default:
				return fmt.Errorf("unknown format %q: want markdown, man or yaml", format)
			}
			if err != nil {
				return fmt.Errorf("failed to generate CLI docs: %w", err)
			}

			fmt.Printf("CLI docs (%s) generated in %s\n", format, absOutDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&outDir, "outdir", "docs/cli", "Output directory for generated CLI docs")
	cmd.Flags().StringVar(&format, "format", "markdown", "Output format: markdown, man or yaml")

	return cmd
}
