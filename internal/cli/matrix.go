package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/blockmat"
	"github.com/hupe1980/blockmat/codec"
)

// loadCommand creates the load command.
func (c *CLI) loadCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "load <name>",
		Short: "Split a matrix into pages",
		Long: `Load reads <data-dir>/<name>.csv, decides between the dense and the sparse
representation and writes every page. With --file the given CSV (or "-" for
stdin) is copied to a scratch source first; it becomes permanent on export.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			return c.withCatalogue(cmd, func(ctx context.Context, cat *blockmat.Catalogue) error {
				prog := newProgress(loggerFromContext(ctx))

				m, err := c.load(ctx, cat, name, file)
				if err != nil {
					return err
				}
				prog.done(fmt.Sprintf("Loaded %s", name))

				kind := "dense"
				if m.IsSparse() {
					kind = "sparse"
				}
				printSuccess(c.Out, "Loaded %s (%d×%d, %s)", name, m.Size(), m.Size(), kind)
				printDetail(c.Out, "%d blocks of %d", m.BlockCount(), m.UnitsPerBlock())
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", `import from this CSV file ("-" for stdin)`)
	return cmd
}

func (c *CLI) load(ctx context.Context, cat *blockmat.Catalogue, name, file string) (*blockmat.Matrix, error) {
	switch file {
	case "":
		return cat.Load(ctx, name)
	case "-":
		return cat.Import(ctx, name, c.In)
	default:
		f, err := os.Open(file)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return cat.Import(ctx, name, f)
	}
}

// printCommand creates the print command.
func (c *CLI) printCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "print <name>",
		Short: "Print the top-left window of a matrix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withCatalogue(cmd, func(ctx context.Context, cat *blockmat.Catalogue) error {
				return cat.Print(ctx, args[0], c.Out)
			})
		},
	}
}

// transposeCommand creates the transpose command.
func (c *CLI) transposeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "transpose <name>",
		Short: "Transpose a matrix in place",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			return c.withCatalogue(cmd, func(ctx context.Context, cat *blockmat.Catalogue) error {
				prog := newProgress(loggerFromContext(ctx))
				if err := cat.Transpose(ctx, name); err != nil {
					return err
				}
				prog.done(fmt.Sprintf("Transposed %s", name))
				printSuccess(c.Out, "Transposed %s", name)
				return nil
			})
		},
	}
}

// exportCommand creates the export command.
func (c *CLI) exportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export <name>",
		Short: "Write a matrix to <data-dir>/<name>.csv",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			return c.withCatalogue(cmd, func(ctx context.Context, cat *blockmat.Catalogue) error {
				if err := cat.Export(ctx, name); err != nil {
					return err
				}
				m, err := cat.Get(name)
				if err != nil {
					return err
				}
				printSuccess(c.Out, "Exported %s", name)
				printDetail(c.Out, "%s", m.Source())
				return nil
			})
		},
	}
}

// unloadCommand creates the unload command.
func (c *CLI) unloadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unload <name>",
		Short: "Delete every page of a matrix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			return c.withCatalogue(cmd, func(ctx context.Context, cat *blockmat.Catalogue) error {
				if err := cat.Unload(ctx, name); err != nil {
					return err
				}
				printSuccess(c.Out, "Unloaded %s", name)
				return nil
			})
		},
	}
}

// statsCommand creates the stats command.
func (c *CLI) statsCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats <name>",
		Short: "Show the layout of a matrix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withCatalogue(cmd, func(ctx context.Context, cat *blockmat.Catalogue) error {
				st, err := cat.Stats(ctx, args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(c.Out, st)
				}
				printStats(c.Out, st)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func printStats(w io.Writer, st blockmat.Stats) {
	printName(w, st.Name)
	printKeyValue(w, "source", st.Source)
	printKeyValue(w, "permanent", st.Permanent)
	printKeyValue(w, "size", st.Size)
	printKeyValue(w, "sparse", st.Sparse)
	printKeyValue(w, "units/block", st.UnitsPerBlock)
	if !st.Sparse {
		printKeyValue(w, "blocks/row", st.BlocksPerRow)
	}
	printKeyValue(w, "blocks", st.BlockCount)
	printKeyValue(w, "zeros", st.Zeros)
	printKeyValue(w, "zero fraction", fmt.Sprintf("%.3f", st.ZeroFraction))
}

func writeJSON(w io.Writer, v any) error {
	b, err := codec.Default.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

// listCommand creates the list command.
func (c *CLI) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List matrices with pages in the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withCatalogue(cmd, func(ctx context.Context, cat *blockmat.Catalogue) error {
				names, err := cat.Stored(ctx)
				if err != nil {
					return err
				}
				if len(names) == 0 {
					printInfo(c.Out, "No matrices loaded")
					return nil
				}
				for _, name := range names {
					fmt.Fprintln(c.Out, name)
				}
				return nil
			})
		},
	}
}
