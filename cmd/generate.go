package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/nikogura/academic-cv/pkg/config"
	"github.com/nikogura/academic-cv/pkg/cvgen"
	"github.com/nikogura/academic-cv/pkg/records"
	"github.com/nikogura/academic-cv/pkg/renderer"
	"github.com/nikogura/academic-cv/pkg/sections"
	"github.com/nikogura/academic-cv/pkg/style"
)

//nolint:gochecknoglobals // Cobra boilerplate
var generateTemplate string

//nolint:gochecknoglobals // Cobra boilerplate
var generateFormat string

//nolint:gochecknoglobals // Cobra boilerplate
var generateSections []string

//nolint:gochecknoglobals // Cobra boilerplate
var generateOutputDir string

//nolint:gochecknoglobals // Cobra boilerplate
var generateCmd = &cobra.Command{
	Use:   "generate <records-file-or-url>",
	Short: "Generate a CV from a records bundle",
	Long: `Generate a CV from a JSON records bundle read from a file or an http(s) URL.

Sections are always emitted in catalog order, and sections without records are
left out. Personal data is always included.

Example:
  academic-cv generate profile.json
  academic-cv generate profile.json --template elegant --format docx
  academic-cv generate https://example.edu/cv/42.json --sections education,articles`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringVar(&generateTemplate, "template", "", "Template: institutional, elegant or academic-colored (default from config)")
	generateCmd.Flags().StringVar(&generateFormat, "format", "pdf", "Output format: pdf or docx")
	generateCmd.Flags().StringSliceVar(&generateSections, "sections", nil, "Comma separated sections to include (default all)")
	generateCmd.Flags().StringVar(&generateOutputDir, "output-dir", "", "Output directory (default from config)")
}

func runGenerate(cmd *cobra.Command, args []string) (err error) {
	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	// Load configuration
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

	if getVerbose() {
		fmt.Printf("Loading records from: %s\n", args[0])
	}

	var bundle records.Bundle
	bundle, err = records.LoadWithContext(ctx, args[0])
	if err != nil {
		err = errors.Wrap(err, "failed to load records")
		return err
	}

	template := generateTemplate
	if template == "" {
		template = cfg.DefaultTemplate
	}

	req := cvgen.Request{
		ProfileID: bundle.Profile.ID,
		Template:  template,
		Format:    generateFormat,
		Sections:  generateSections,
	}

	if getVerbose() {
		fmt.Printf("Template: %s\n", req.Template)
		fmt.Printf("Format: %s\n", req.Format)
	}

	gen := cvgen.New(catalog, cvgen.WithTemplateFallback(cfg.TemplateFallback))

	var result cvgen.Result
	result, err = gen.Generate(ctx, req, bundle)
	if err != nil {
		err = errors.Wrap(err, "failed to generate CV")
		return err
	}

	if getVerbose() {
		fmt.Printf("Sections: %s\n", joinIDs(result.Sections))
		if len(result.Skipped) > 0 {
			fmt.Printf("Skipped (no records): %s\n", joinIDs(result.Skipped))
		}
		if result.Pages > 0 {
			fmt.Printf("Pages: %d\n", result.Pages)
		}
	}

	outDir := getOutputDir(generateOutputDir, cfg.OutputDir)
	outputPath := filepath.Join(outDir, result.FileName)

	err = renderer.WriteFile(result.Data, outputPath)
	if err != nil {
		return err
	}

	fmt.Printf("Created: %s\n", outputPath)

	return err
}

func getOutputDir(flagValue, configValue string) (outDir string) {
	outDir = flagValue
	if outDir == "" {
		outDir = configValue
	}
	return outDir
}

// loadCatalog reads the configured styles file, or the built-in catalog.
func loadCatalog(cfg config.Config) (catalog *style.Catalog, err error) {
	if cfg.StylesPath != "" {
		catalog, err = style.LoadCatalog(cfg.StylesPath)
		if err != nil {
			err = errors.Wrap(err, "failed to load styles")
		}
		return catalog, err
	}

	catalog, err = style.DefaultCatalog()
	if err != nil {
		err = errors.Wrap(err, "failed to load built-in styles")
	}
	return catalog, err
}

func joinIDs(in []sections.ID) (out string) {
	ids := make([]string, 0, len(in))
	for _, id := range in {
		ids = append(ids, string(id))
	}
	out = strings.Join(ids, ", ")
	return out
}
