package cmd

import (
	"context"
	"fmt"
	"os"

	"meterassist-backend/lib/configutil"
	"meterassist-backend/lib/credentials"
	"meterassist-backend/lib/scrapers/gorod"
	"meterassist-backend/lib/scrapers/saures"
	"meterassist-backend/lib/serviceutil"
	"meterassist-backend/services/meters"

	"github.com/spf13/cobra"
)

type PortalConfig struct {
	BaseUrl string `json:"base_url"`
}

type VendorConfig struct {
	BaseUrl  string `json:"base_url"`
	ObjectId int64  `json:"object_id"`
}

type Config struct {
	Portal PortalConfig `json:"portal"`
	// optional; leave out to run portal-only
	Vendor  *VendorConfig `json:"vendor"`
	Secrets string        `json:"secrets"`
}

var service *meters.Service

var rootCmd = &cobra.Command{
	Use:   "meterassist",
	Short: "meterassist reads and reports utility meter readings through the УК Город portal.",
}

func Execute(ctx context.Context) {
	config, err := configutil.ReadRecursively[Config]("meterassist.json5")
	if err != nil {
		serviceutil.Fatal("failed to read meterassist.json5", err)
	}

	secrets := config.Secrets
	if secrets == "" {
		secrets = "secrets.json5"
	}
	portalCreds, err := credentials.LoadRecursively(secrets, "uk_gorod")
	if err != nil {
		serviceutil.Fatal("failed to load portal credentials", err)
	}

	portal, err := gorod.NewClient(ctx, gorod.ClientOptions{BaseUrl: config.Portal.BaseUrl})
	if err != nil {
		serviceutil.Fatal("failed to create portal client", err)
	}
	defer portal.Logout()

	opts := meters.Options{
		Portal:            portal,
		PortalCredentials: portalCreds,
	}
	if config.Vendor != nil {
		vendorCreds, err := credentials.LoadRecursively(secrets, "saures")
		if err != nil {
			serviceutil.Fatal("failed to load vendor credentials", err)
		}
		opts.Vendor = saures.NewClient(saures.ClientOptions{BaseUrl: config.Vendor.BaseUrl})
		opts.VendorCredentials = vendorCreds
		opts.VendorObjectId = config.Vendor.ObjectId
	}
	service = meters.NewService(opts)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
