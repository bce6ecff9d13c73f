package main

import (
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/rtucker-mozilla/minventory/internal/services"
	"github.com/spf13/cobra"
)

var (
	exportModel  string
	exportOutput string

	warrantySerialColumn string
	warrantyStartColumn  string
	warrantyEndColumn    string
	warrantyDateLayout   string
)

func init() {
	exportCSVCmd.Flags().StringVar(&exportModel, "model", "", "export every column of a model (e.g. System) instead of the summary sheet")
	exportCSVCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "write to a file instead of stdout")

	importWarrantyCmd.Flags().StringVar(&warrantySerialColumn, "serial-column", "serial", "column holding the serial number")
	importWarrantyCmd.Flags().StringVar(&warrantyStartColumn, "start-column", "warranty_start", "column holding the warranty start date")
	importWarrantyCmd.Flags().StringVar(&warrantyEndColumn, "end-column", "warranty_end", "column holding the warranty end date")
	importWarrantyCmd.Flags().StringVar(&warrantyDateLayout, "date-layout", services.DefaultWarrantyDateLayout, "Go time layout of the date columns")
}

var exportCSVCmd = &cobra.Command{
	Use:   "export-csv",
	Short: "Export systems as CSV",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		csvService := services.NewCSVService(db, services.NewSystemService(db, services.NewRevisionService(db), cfg.Inventory.DefaultWarrantyYears))

		var w io.Writer = cmd.OutOrStdout()
		if exportOutput != "" {
			f, err := os.Create(exportOutput)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}

		if exportModel != "" {
			return csvService.ExportModel(exportModel, w)
		}
		return csvService.ExportSystems(w)
	},
}

var importCSVCmd = &cobra.Command{
	Use:   "import-csv FILE",
	Short: "Create systems from a CSV sheet whose first row names the columns",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		systems := services.NewSystemService(db, services.NewRevisionService(db), cfg.Inventory.DefaultWarrantyYears)
		result, err := services.NewCSVService(db, systems).ImportSystems(f, cliActor())
		if err != nil {
			return err
		}
		printImportResult(cmd.OutOrStdout(), result)
		return nil
	},
}

var importWarrantyCmd = &cobra.Command{
	Use:   "import-warranty FILE",
	Short: "Set warranty dates on systems matched by serial number",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		systems := services.NewSystemService(db, services.NewRevisionService(db), cfg.Inventory.DefaultWarrantyYears)
		cols := services.WarrantyColumns{
			Serial:        warrantySerialColumn,
			WarrantyStart: warrantyStartColumn,
			WarrantyEnd:   warrantyEndColumn,
		}
		result, err := services.NewWarrantyImportService(db, systems).Import(f, cols, warrantyDateLayout, cliActor())
		if err != nil {
			return err
		}
		printWarrantyResult(cmd.OutOrStdout(), result)
		return nil
	},
}

func printImportResult(w io.Writer, result *services.ImportResult) {
	fmt.Fprintf(w, "created %d systems, skipped %d rows\n", result.Created, len(result.Skipped))
	if len(result.Skipped) == 0 {
		return
	}
	table := newTable(w, []string{"Line", "Hostname", "Error"})
	for _, row := range result.Skipped {
		table.Append([]string{fmt.Sprint(row.Line), row.Hostname, row.Error})
	}
	table.Render()
}

func printWarrantyResult(w io.Writer, result *services.WarrantyImportResult) {
	table := newTable(w, []string{"Rows", "Matched", "Missing", "Updated"})
	table.Append([]string{
		fmt.Sprint(result.Total),
		fmt.Sprint(result.Matched),
		fmt.Sprint(result.Missing),
		fmt.Sprint(result.Updated),
	})
	table.Render()
	for _, serial := range result.Multiple {
		fmt.Fprintf(w, "serial %s matched more than one system\n", serial)
	}
	for _, msg := range result.Errors {
		fmt.Fprintln(w, msg)
	}
}

// newTable returns a writer with side borders only.
func newTable(w io.Writer, headers []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetBorders(tablewriter.Border{
		Left:   true,
		Right:  true,
		Top:    false,
		Bottom: false,
	})
	table.SetAutoWrapText(false)
	table.SetHeader(headers)
	return table
}
