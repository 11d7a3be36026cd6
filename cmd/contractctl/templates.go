package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"FIT-CONTRACTS/internal/app"
	"FIT-CONTRACTS/internal/config"
	"FIT-CONTRACTS/internal/models"
	"FIT-CONTRACTS/internal/processor"
	"FIT-CONTRACTS/internal/services"
	"FIT-CONTRACTS/internal/templates"

	"github.com/spf13/cobra"
)

func fieldsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fields [template.pdf]",
		Short: "List the fillable fields of a PDF template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			form, err := processor.NewPDFCPUEngine().Open(data)
			if err != nil {
				return err
			}
			fields := form.Fields()
			for _, f := range fields {
				fmt.Printf("%-10s %s\n", f.Kind, f.Name)
			}
			fmt.Printf("%d fields\n", len(fields))
			return nil
		},
	}
}

func fillCmd() *cobra.Command {
	var kind, submissionPath, out, templatePath, catalogPath, templateDir string

	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Fill one contract from a submission JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := models.ParseDocumentKind(kind)
			if err != nil {
				return err
			}
			catalog, err := templates.Load(catalogPath)
			if err != nil {
				return err
			}

			raw, err := os.ReadFile(submissionPath)
			if err != nil {
				return err
			}
			var sub models.ClientSubmission
			if err := json.Unmarshal(raw, &sub); err != nil {
				return fmt.Errorf("invalid submission: %w", err)
			}

			tmpl := services.NewTemplateService(nil, catalog, templateDir)
			desc, err := tmpl.Descriptor(k)
			if err != nil {
				return err
			}
			var data []byte
			if templatePath != "" {
				data, err = os.ReadFile(templatePath)
			} else {
				data, err = tmpl.Load(cmd.Context(), desc)
			}
			if err != nil {
				return err
			}

			filler := processor.NewFiller(processor.NewPDFCPUEngine(), nil)
			doc, report, err := filler.Fill(cmd.Context(), desc, data, sub)
			if err != nil {
				return err
			}
			if out == "" {
				out = doc.Filename()
			}
			if err := os.WriteFile(out, doc.Data, 0644); err != nil {
				return err
			}

			fmt.Printf("Wrote %s (%d bytes)\n", out, len(doc.Data))
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "", "Contract kind (registration, agreement, waiver)")
	cmd.Flags().StringVarP(&submissionPath, "submission", "s", "", "Submission JSON file")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output PDF path")
	cmd.Flags().StringVarP(&templatePath, "template", "t", "", "Template PDF, overrides the catalog's bundled file")
	cmd.Flags().StringVar(&catalogPath, "catalog", os.Getenv("TEMPLATE_CATALOG"), "Template catalog YAML")
	cmd.Flags().StringVar(&templateDir, "dir", envOr("TEMPLATE_DIR", "."), "Base directory of bundled templates")
	_ = cmd.MarkFlagRequired("kind")
	_ = cmd.MarkFlagRequired("submission")

	return cmd
}

func syncTemplatesCmd() *cobra.Command {
	var templateDir string

	cmd := &cobra.Command{
		Use:   "sync-templates",
		Short: "Upload the bundled templates to object storage",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if templateDir == "" {
				templateDir = cfg.Storage.TemplateDir
			}

			ctx := cmd.Context()
			store, err := app.NewObjectStore(ctx, cfg)
			if err != nil {
				return err
			}
			if store == nil {
				return fmt.Errorf("STORAGE_PROVIDER %q has no bucket to sync to", cfg.Storage.Provider)
			}
			defer store.Close()

			catalog, err := templates.Load(cfg.Storage.TemplateCatalog)
			if err != nil {
				return err
			}
			keys, err := services.NewTemplateService(store, catalog, templateDir).Sync(ctx)
			for _, k := range keys {
				fmt.Printf("uploaded %s\n", k)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&templateDir, "dir", "", "Base directory of bundled templates (default TEMPLATE_DIR)")
	return cmd
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

