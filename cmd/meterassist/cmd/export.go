package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var (
	exportOut    string
	exportEnrich bool
)

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "readings.json", "output file path")
	exportCmd.Flags().BoolVar(&exportEnrich, "enrich", false, "overlay readings from the telemetry vendor before exporting")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Dumps the meter records to a JSON document.",
	Run: func(cmd *cobra.Command, args []string) {
		err := service.ExportReadings(cmd.Context(), exportOut, exportEnrich)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println("wrote", exportOut)
	},
}
