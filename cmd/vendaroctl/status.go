// Copyright (c) 2026 Vendaro. All rights reserved.
// Author: dev@vendaro.app

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

type queueCounts struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Failed     int `json:"failed"`
	Total      int `json:"total"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show upstream connectivity and queue depth",
	RunE: func(cmd *cobra.Command, args []string) error {
		var status struct {
			Online  bool        `json:"online"`
			Queue   queueCounts `json:"queue"`
			Uploads queueCounts `json:"uploads"`
		}
		if err := call("GET", "/api/v1/status", nil, &status); err != nil {
			return err
		}

		state := "ONLINE"
		if !status.Online {
			state = "OFFLINE"
		}
		fmt.Printf("Upstream:  %s\n", state)
		fmt.Println()
		fmt.Println("Mutation queue:")
		printCounts(status.Queue)
		fmt.Println("Upload queue:")
		printCounts(status.Uploads)
		return nil
	},
}

func printCounts(counts queueCounts) {
	fmt.Printf("  pending:    %d\n", counts.Pending)
	fmt.Printf("  processing: %d\n", counts.Processing)
	fmt.Printf("  failed:     %d\n", counts.Failed)
	fmt.Printf("  total:      %d\n", counts.Total)
}
