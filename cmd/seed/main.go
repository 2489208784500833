package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Baaaki/message-board/internal/config"
	"github.com/Baaaki/message-board/internal/database"
	"github.com/Baaaki/message-board/internal/repository"
	"github.com/Baaaki/message-board/internal/seed"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
	"gorm.io/gorm"
)

const (
	defaultFakeCount = 10
	defaultBulkCount = 100
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	templates, err := seed.LoadTemplates()
	if err != nil {
		color.Red.Println("Failed to load templates:", err)
		return 1
	}

	if len(args) == 0 {
		printUsage(templates)
		return 0
	}
	command, rest := args[0], args[1:]

	// Listing commands need no database
	switch command {
	case "categories":
		printCategories(templates)
		return 0
	case "types":
		printTypes()
		return 0
	}

	if !isKnownCommand(command, templates) {
		color.Yellow.Printf("Unknown command: %s\n", command)
		printUsage(templates)
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		color.Red.Println(err)
		return 1
	}

	db, err := database.Connect(cfg)
	if err != nil {
		reportError(err)
		return 1
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		reportError(err)
		return 1
	}

	if err := execute(context.Background(), db, templates, command, rest); err != nil {
		reportError(err)
		return 1
	}
	return 0
}

func isKnownCommand(command string, templates *seed.Templates) bool {
	switch command {
	case "all", "fake", "bulk", "clear":
		return true
	}
	return templates.Has(command)
}

func execute(ctx context.Context, db *gorm.DB, templates *seed.Templates, command string, args []string) error {
	seeder := seed.NewSeeder(repository.NewMessageRepository(db), templates, seed.NewGenerator(0))

	switch command {
	case "all":
		color.Cyan.Println("Seeding messages from every category...")
		inserted, err := seeder.SeedAll(ctx)
		if err != nil {
			return err
		}
		color.Green.Printf("Inserted %d messages\n", inserted)

	case "fake":
		count := parseCount(args, 0, defaultFakeCount)
		fakeType, err := seed.ParseFakeType(argAt(args, 1))
		if err != nil {
			return err
		}

		color.Cyan.Printf("Generating %d %s messages...\n", count, fakeType)
		inserted, err := seeder.SeedFake(ctx, count, fakeType)
		if err != nil {
			return err
		}
		color.Green.Printf("Inserted %d generated messages\n", inserted)

	case "bulk":
		count := parseCount(args, 0, defaultBulkCount)

		color.Cyan.Printf("Generating %d messages in batches of %d...\n", count, seed.BulkBatchSize)
		inserted, err := seeder.SeedBulk(ctx, count, func(batch, n int) {
			fmt.Printf("  batch %d: %d messages\n", batch, n)
		})
		if err != nil {
			return err
		}
		color.Green.Printf("Inserted %d generated messages in total\n", inserted)

	case "clear":
		color.Yellow.Println("Deleting every message...")
		deleted, err := seeder.Clear(ctx)
		if err != nil {
			return err
		}
		color.Green.Printf("Deleted %d messages\n", deleted)

	default:
		color.Cyan.Printf("Seeding category %s...\n", command)
		inserted, err := seeder.SeedCategory(ctx, command)
		if err != nil {
			return err
		}
		color.Green.Printf("Inserted %d messages\n", inserted)
	}

	return nil
}

// parseCount falls back to def for a missing, non-numeric or non-positive argument
func parseCount(args []string, i, def int) int {
	n, err := strconv.Atoi(argAt(args, i))
	if err != nil || n < 1 {
		return def
	}
	return n
}

func argAt(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func reportError(err error) {
	color.Red.Println("Error:", err)
	if database.IsUnavailable(err) {
		color.Yellow.Println("Hint: make sure PostgreSQL is running and the DB_* settings in .env are correct")
	}
}

func printCategories(templates *seed.Templates) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Category", "Messages"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, name := range templates.Names() {
		messages, _ := templates.Category(name)
		table.Append([]string{name, strconv.Itoa(len(messages))})
	}
	table.Render()
}

func printTypes() {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Type"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, t := range seed.FakeTypes {
		table.Append([]string{string(t)})
	}
	table.Render()
}

func printUsage(templates *seed.Templates) {
	color.Cyan.Println("Usage: seed <command> [args]")
	fmt.Println(`
Template seeds:
  all                   insert every template message
  <category>            insert one category's templates
  categories            list categories

Generated seeds:
  fake [count] [type]   insert count (default 10) messages of a type (default mixed)
  bulk [count]          insert count (default 100) mixed messages in batches of 50
  types                 list generator types

Maintenance:
  clear                 delete every message

Examples:
  seed fake 20 tech
  seed bulk 500`)
	fmt.Printf("\nCategories: %s\n", strings.Join(templates.Names(), ", "))
}
