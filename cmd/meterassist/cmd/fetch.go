package cmd

import (
	"log"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var fetchEnrich bool

func init() {
	fetchCmd.Flags().BoolVar(&fetchEnrich, "enrich", false, "overlay readings from the telemetry vendor")
	rootCmd.AddCommand(fetchCmd)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Prints the meters known to the portal and their readings.",
	Run: func(cmd *cobra.Command, args []string) {
		records, err := service.FetchReadings(cmd.Context(), fetchEnrich)
		if err != nil {
			log.Fatal(err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{
			"Id", "Service", "Serial", "Last reading", "Current", "Source", "Next verification",
		})
		for _, r := range records {
			last := r.LastReading.Value
			if r.LastReading.Date != "" {
				last += " (" + r.LastReading.Date + ")"
			}
			t.AppendRow(table.Row{
				r.Id,
				r.Service,
				r.SerialNumber,
				last,
				r.CurrentReading.Value,
				r.CurrentReading.Source,
				r.NextVerification,
			})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
