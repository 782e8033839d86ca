package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/printdock/labelsync/internal/application/port"
	"github.com/printdock/labelsync/internal/domain/entity"
	"github.com/printdock/labelsync/internal/infrastructure/external/notion"
)

func main() {
	// Parse command line flags
	token := flag.String("token", "", "Notion integration token (or set NOTION_TOKEN env var)")
	databaseID := flag.String("database", "", "Notion database ID (or set NOTION_DATABASE_ID env var)")
	timeout := flag.Duration("timeout", 30*time.Second, "API call timeout")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	// Initialize logger
	var logger *zap.Logger
	var err error
	if *verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Get credentials from flags or environment
	_ = gotenv.Load()
	if *token == "" {
		*token = os.Getenv("NOTION_TOKEN")
	}
	if *databaseID == "" {
		*databaseID = os.Getenv("NOTION_DATABASE_ID")
	}

	if *token == "" {
		fmt.Fprintf(os.Stderr, "ERROR: NOTION_TOKEN not set and no --token flag provided\n")
		fmt.Fprintf(os.Stderr, "Usage: test-notion-connection --token secret_... --database <id> [--timeout 30s]\n")
		os.Exit(1)
	}
	if *databaseID == "" {
		fmt.Fprintf(os.Stderr, "ERROR: NOTION_DATABASE_ID not set and no --database flag provided\n")
		os.Exit(1)
	}

	fmt.Println("=== Notion Connection Test ===")

	// Diagnostic info
	fmt.Println("Configuration:")
	fmt.Printf("  Token length: %d chars\n", len(*token))
	if len(*token) >= 7 {
		fmt.Printf("  Token prefix: %s...\n", (*token)[:7])
	}
	fmt.Printf("  Database ID: %s\n", *databaseID)
	fmt.Printf("  Timeout: %v\n", *timeout)
	fmt.Println()

	// Create the record source using the infrastructure package
	client := notion.NewClient(notion.Config{
		Token:      *token,
		DatabaseID: *databaseID,
		PageSize:   10,
		Timeout:    *timeout,
	}, logger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	// Fetch database metadata
	fmt.Println("Fetching database metadata...")
	startTime := time.Now()
	title, err := client.DatabaseTitle(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ ERROR: Notion API call failed\n")
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		fmt.Fprintf(os.Stderr, "Possible causes:\n")
		fmt.Fprintf(os.Stderr, "  1. Invalid or expired NOTION_TOKEN\n")
		fmt.Fprintf(os.Stderr, "  2. Database not shared with the integration\n")
		fmt.Fprintf(os.Stderr, "  3. Wrong database ID\n")
		fmt.Fprintf(os.Stderr, "  4. Network connectivity issue\n")
		fmt.Fprintf(os.Stderr, "  5. Notion API service unavailable\n")
		os.Exit(1)
	}
	fmt.Printf("✓ Database reachable: %q\n", title)
	fmt.Printf("API Response Time: %v\n\n", time.Since(startTime))

	// List records
	fmt.Println("Listing records...")
	records, err := client.ListRecords(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ ERROR: Failed to list records: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ Found %d records\n\n", len(records))

	// Show the first few records
	limit := 5
	if len(records) < limit {
		limit = len(records)
	}
	for i := 0; i < limit; i++ {
		rec := records[i]
		fmt.Printf("  %d. %s (id=%s, %d properties)\n", i+1, recordTitle(rec), rec.ID, len(rec.Properties))
	}
	if len(records) > limit {
		fmt.Printf("  ... and %d more\n", len(records)-limit)
	}

	fmt.Println("\n✅ Notion Connection Test PASSED!")
	os.Exit(0)
}

// recordTitle returns the first title property of a record, or a placeholder.
func recordTitle(rec entity.Record) string {
	for _, prop := range rec.Properties {
		if prop.Kind == entity.PropertyKindTitle && prop.Text != "" {
			return prop.Text
		}
	}
	return "(untitled)"
}

// Ensure the client implements port.RecordSource (compile-time check)
var _ port.RecordSource = (*notion.Client)(nil)
