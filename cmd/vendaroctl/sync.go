// Copyright (c) 2026 Vendaro. All rights reserved.
// Author: dev@vendaro.app

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var flagForce bool

func init() {
	syncCmd.Flags().BoolVar(&flagForce, "force", false, "bypass cache freshness and re-walk the upstream")
	rootCmd.AddCommand(syncCmd)
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Trigger a catalog sync and print the summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "/api/v1/sync"
		if flagForce {
			path += "?force=true"
		}

		var summary struct {
			Brands     int    `json:"brands"`
			Locations  int    `json:"locations"`
			BrandRoots int    `json:"brand_roots"`
			SyncedAt   string `json:"synced_at"`
		}
		if err := call("POST", path, nil, &summary); err != nil {
			return err
		}

		fmt.Printf("Brands:      %d\n", summary.Brands)
		fmt.Printf("Locations:   %d\n", summary.Locations)
		fmt.Printf("Brand roots: %d\n", summary.BrandRoots)
		fmt.Printf("Synced at:   %s\n", summary.SyncedAt)
		return nil
	},
}
