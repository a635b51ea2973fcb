package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"ravito/internal/repository"
	"ravito/internal/service"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Exports de rapports",
	}
	cmd.AddCommand(annualReportCmd())
	return cmd
}

func annualReportCmd() *cobra.Command {
	var (
		orgID  string
		year   int
		format string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "annual",
		Short: "Exporte le rapport annuel d'un établissement (pdf ou xlsx)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := uuid.Parse(orgID)
			if err != nil {
				return fmt.Errorf("--org: %w", err)
			}
			if format != "pdf" && format != "xlsx" {
				return errors.New("--format doit valoir pdf ou xlsx")
			}
			cfg, db, err := openDB()
			if err != nil {
				return err
			}
			svc := service.NewAnnualService(
				repository.NewDailySheetRepository(db),
				repository.NewProductRepository(db),
				repository.NewOrganizationRepository(db),
				cfg,
			)

			var data []byte
			if format == "pdf" {
				data, err = svc.PDF(cmd.Context(), id, year)
			} else {
				data, err = svc.XLSX(cmd.Context(), id, year)
			}
			if err != nil {
				return err
			}
			if out == "" {
				out = fmt.Sprintf("rapport-annuel-%d.%s", year, format)
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d octets)\n", out, len(data))
			return nil
		},
	}
	cmd.Flags().StringVar(&orgID, "org", "", "identifiant de l'établissement")
	cmd.Flags().IntVar(&year, "year", time.Now().Year(), "année")
	cmd.Flags().StringVar(&format, "format", "pdf", "pdf | xlsx")
	cmd.Flags().StringVarP(&out, "out", "o", "", "fichier de sortie")
	_ = cmd.MarkFlagRequired("org")
	return cmd
}
