// Copyright (c) 2026 Vendaro. All rights reserved.
// Author: dev@vendaro.app

// Command vendaroctl is the operator CLI for a running Vendaro API server.
//
// It speaks the same HTTP API the vendor PWA uses, so everything it shows
// is exactly what the app would see: connectivity state, queue contents,
// catalog sync summaries.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	flagAddr  string
	flagToken string
)

var rootCmd = &cobra.Command{
	Use:           "vendaroctl",
	Short:         "Operate a running Vendaro API server",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagAddr, "addr", envOr("VENDARO_ADDR", "http://localhost:8080"), "base URL of the Vendaro API server")
	rootCmd.PersistentFlags().StringVar(&flagToken, "token", os.Getenv("VENDARO_TOKEN"), "vendor bearer token for protected endpoints")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func envOr(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// call performs one API request and decodes the response envelope into out.
func call(method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequest(method, flagAddr+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	request.Header.Set("Accept", "application/json")
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if flagToken != "" {
		request.Header.Set("Authorization", "Bearer "+flagToken)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	response, err := client.Do(request)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = response.Body.Close() }()

	payload, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if response.StatusCode >= 400 {
		var envelope struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		if json.Unmarshal(payload, &envelope) == nil && envelope.Error != "" {
			return fmt.Errorf("%s (%s)", envelope.Error, envelope.Code)
		}
		return fmt.Errorf("server returned status %d", response.StatusCode)
	}

	if out == nil {
		return nil
	}
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil || envelope.Data == nil {
		// Not enveloped; decode the body directly.
		return json.Unmarshal(payload, out)
	}
	return json.Unmarshal(envelope.Data, out)
}
