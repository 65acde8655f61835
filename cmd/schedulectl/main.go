// Command schedulectl answers one availability query against the schedule
// source and prints the result.
//
//	schedulectl [-source URL | -file PATH] <days|busy|free|available|slot> [flags]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/joho/godotenv"

	"github.com/wolfman30/schedule-availability/cmd/mainconfig"
	appconfig "github.com/wolfman30/schedule-availability/internal/config"
	"github.com/wolfman30/schedule-availability/internal/schedule"
	"github.com/wolfman30/schedule-availability/internal/source"
	"github.com/wolfman30/schedule-availability/pkg/logging"
)

const usage = `usage: schedulectl [-source URL | -file PATH] <command> [flags]

commands:
  days      [-date YYYY-MM-DD]                  list working days
  busy      [-date YYYY-MM-DD]                  list booked intervals
  free      [-date YYYY-MM-DD]                  list free intervals
  available -date D -start HH:MM -end HH:MM     check an interval
  slot      -duration MINUTES                   earliest free interval that fits
`

var errUsage = errors.New("invalid usage")

// loader opens the model a command runs against.
type loader func(ctx context.Context) (*schedule.Model, error)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()
	// Logs go to stderr so stdout stays parseable.
	logger := logging.NewWithWriter(cfg.LogLevel, os.Stderr)
	os.Exit(run(context.Background(), os.Args[1:], cfg, logger, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, cfg *appconfig.Config, logger *logging.Logger, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("schedulectl", flag.ContinueOnError)
	global.SetOutput(stderr)
	global.Usage = func() { fmt.Fprint(stderr, usage) }
	sourceURL := global.String("source", cfg.SourceURL, "schedule source URL")
	file := global.String("file", "", "read the snapshot from a local JSON file instead of the source")
	if err := global.Parse(args); err != nil {
		return 2
	}
	if global.NArg() == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	load := func(ctx context.Context) (*schedule.Model, error) {
		if *file != "" {
			return loadFile(*file)
		}
		fetcher, err := mainconfig.NewFetcher(ctx, cfg, logger, nil)
		if err != nil {
			return nil, err
		}
		defer fetcher.Close()
		return schedule.New(ctx, *sourceURL, true, fetcher)
	}

	if err := dispatch(ctx, global.Arg(0), global.Args()[1:], load, stdout, stderr); err != nil {
		if errors.Is(err, errUsage) {
			return 2
		}
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

func loadFile(path string) (*schedule.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	snap, err := source.Decode(data)
	if err != nil {
		return nil, err
	}
	return schedule.NewFromSnapshot(snap)
}

func dispatch(ctx context.Context, cmd string, args []string, load loader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)
	date := fs.String("date", "", "date as YYYY-MM-DD")
	parse := func() error {
		if err := fs.Parse(args); err != nil {
			return errUsage
		}
		*date = strings.TrimSpace(*date)
		return nil
	}

	switch cmd {
	case "days":
		if err := parse(); err != nil {
			return err
		}
		on, err := dateFilter(*date)
		if err != nil {
			return err
		}
		m, err := load(ctx)
		if err != nil {
			return err
		}
		days, err := m.Days(on)
		if err != nil {
			return err
		}
		for _, d := range days {
			fmt.Fprintf(stdout, "%d %s %s %s\n", d.ID, d.Date, d.Start, d.End)
		}
		return nil

	case "busy", "free":
		if err := parse(); err != nil {
			return err
		}
		if _, err := dateFilter(*date); err != nil {
			return err
		}
		m, err := load(ctx)
		if err != nil {
			return err
		}
		query := m.BusySlots
		if cmd == "free" {
			query = m.FreeSlots
		}
		slots, err := query(*date)
		if err != nil {
			return err
		}
		for _, s := range slots {
			printSlot(stdout, s)
		}
		return nil

	case "available":
		start := fs.String("start", "", "start time as HH:MM")
		end := fs.String("end", "", "end time as HH:MM")
		if err := parse(); err != nil {
			return err
		}
		m, err := load(ctx)
		if err != nil {
			return err
		}
		ok, err := m.IsAvailable(*date, *start, *end)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, ok)
		return nil

	case "slot":
		minutes := fs.Int("duration", 0, "duration in minutes")
		if err := parse(); err != nil {
			return err
		}
		if err := schedule.ValidateDuration(*minutes); err != nil {
			return err
		}
		m, err := load(ctx)
		if err != nil {
			return err
		}
		slot, ok, err := m.FindSlotForDuration(*minutes)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(stdout, "none")
			return nil
		}
		printSlot(stdout, slot)
		return nil

	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", cmd, usage)
		return errUsage
	}
}

func dateFilter(date string) (*civil.Date, error) {
	if date == "" {
		return nil, nil
	}
	d, err := schedule.ParseDate(date)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func printSlot(w io.Writer, s schedule.Slot) {
	fmt.Fprintf(w, "%s %s %s\n", s.Date, s.Start, s.End)
}
