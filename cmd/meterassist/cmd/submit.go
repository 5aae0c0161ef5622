package cmd

import (
	"fmt"
	"log"
	"strings"

	"meterassist-backend/lib/scrapers/gorod"

	"github.com/spf13/cobra"
)

var submitFromVendor bool

func init() {
	submitCmd.Flags().BoolVar(&submitFromVendor, "from-vendor", false, "submit the values reported by the telemetry vendor")
	rootCmd.AddCommand(submitCmd)
}

var submitCmd = &cobra.Command{
	Use:   "submit [meterId=value]...",
	Short: "Submits new readings, given as meterId=value pairs.",
	Run: func(cmd *cobra.Command, args []string) {
		var result gorod.SubmissionResult
		var err error

		if submitFromVendor {
			result, err = service.SubmitFromVendor(cmd.Context())
		} else {
			values := map[string]string{}
			for _, arg := range args {
				id, value, ok := strings.Cut(arg, "=")
				if !ok || id == "" || value == "" {
					log.Fatalf("malformed reading %q, expected meterId=value", arg)
				}
				values[id] = value
			}
			if len(values) == 0 {
				log.Fatal("nothing to submit: pass meterId=value pairs or --from-vendor")
			}
			result, err = service.SubmitReadings(cmd.Context(), values)
		}
		if err != nil {
			log.Fatal(err)
		}

		if !result.Success {
			log.Fatalf("submission rejected: %s", result.Message)
		}
		fmt.Println(result.Message)
		for id, seen := range result.Validated {
			if !seen {
				fmt.Printf("warning: meter %s disappeared from the page after submission\n", id)
			}
		}
	},
}
