package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/nikogura/academic-cv/pkg/config"
	"github.com/nikogura/academic-cv/pkg/sections"
	"github.com/nikogura/academic-cv/pkg/style"
)

//nolint:gochecknoglobals // Cobra boilerplate
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List available sections and templates",
	RunE:  runCatalog,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(catalogCmd)
}

func runCatalog(cmd *cobra.Command, args []string) (err error) {
	var cfg config.Config
	cfg, err = config.Load(getConfigFile())
	if err != nil {
		err = errors.Wrap(err, "failed to load config")
		return err
	}

	var catalog *style.Catalog
	catalog, err = loadCatalog(cfg)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, "SECTION\tTITLE")
	for _, e := range sections.Catalog() {
		fmt.Fprintf(w, "%s\t%s\n", e.ID, e.Title)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "TEMPLATE\tNAME")
	for _, s := range catalog.All() {
		marker := ""
		if s.ID == cfg.DefaultTemplate {
			marker = " (default)"
		}
		fmt.Fprintf(w, "%s\t%s%s\n", s.ID, s.Name, marker)
	}

	err = w.Flush()
	return err
}
