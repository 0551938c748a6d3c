// Copyright (c) 2026 Vendaro. All rights reserved.
// Author: dev@vendaro.app

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	queueCmd.AddCommand(queueListCmd, queueProcessCmd, queueRetryCmd, queueClearCmd)
	rootCmd.AddCommand(queueCmd)
}

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect and manage the offline operation queues",
}

type queuedOperation struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	Method     string `json:"method"`
	URL        string `json:"url"`
	Status     string `json:"status"`
	Attempts   int    `json:"attempts"`
	LastError  string `json:"last_error"`
	EnqueuedAt string `json:"enqueued_at"`
}

var queueListCmd = &cobra.Command{
	Use:   "list",
	Short: "List queued operations in replay order",
	RunE: func(cmd *cobra.Command, args []string) error {
		var queues struct {
			Operations []queuedOperation `json:"operations"`
			Uploads    []queuedOperation `json:"uploads"`
		}
		if err := call("GET", "/api/v1/queue", nil, &queues); err != nil {
			return err
		}

		if len(queues.Operations)+len(queues.Uploads) == 0 {
			fmt.Println("Queue is empty.")
			return nil
		}

		for _, op := range append(queues.Operations, queues.Uploads...) {
			fmt.Printf("%s  %-7s %-6s %-8s attempts=%d  %s\n",
				op.ID, op.Kind, op.Method, op.Status, op.Attempts, op.URL)
			if op.LastError != "" {
				fmt.Printf("    last error: %s\n", op.LastError)
			}
		}
		return nil
	},
}

var queueProcessCmd = &cobra.Command{
	Use:   "process",
	Short: "Replay pending operations now",
	RunE: func(cmd *cobra.Command, args []string) error {
		var outcome struct {
			Results []struct {
				ID      string `json:"id"`
				Success bool   `json:"success"`
				Error   string `json:"error"`
			} `json:"results"`
			UploadResults []struct {
				ID      string `json:"id"`
				Success bool   `json:"success"`
				Error   string `json:"error"`
			} `json:"upload_results"`
		}
		if err := call("POST", "/api/v1/queue/process", nil, &outcome); err != nil {
			return err
		}

		total := len(outcome.Results) + len(outcome.UploadResults)
		if total == 0 {
			fmt.Println("Nothing to replay.")
			return nil
		}
		for _, result := range outcome.Results {
			printResult("mutation", result.ID, result.Success, result.Error)
		}
		for _, result := range outcome.UploadResults {
			printResult("upload", result.ID, result.Success, result.Error)
		}
		return nil
	},
}

var queueRetryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Reset failed operations back to pending",
	RunE: func(cmd *cobra.Command, args []string) error {
		var outcome struct {
			Reset        int `json:"reset"`
			UploadsReset int `json:"uploads_reset"`
		}
		if err := call("POST", "/api/v1/queue/retry", nil, &outcome); err != nil {
			return err
		}
		fmt.Printf("Reset %d mutation(s), %d upload(s).\n", outcome.Reset, outcome.UploadsReset)
		return nil
	},
}

var queueClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every queued operation (destructive)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := call("DELETE", "/api/v1/queue", nil, nil); err != nil {
			return err
		}
		fmt.Println("Queues cleared.")
		return nil
	},
}

func printResult(kind, id string, success bool, errMsg string) {
	if success {
		fmt.Printf("ok    %-8s %s\n", kind, id)
		return
	}
	fmt.Printf("FAIL  %-8s %s: %s\n", kind, id, errMsg)
}
