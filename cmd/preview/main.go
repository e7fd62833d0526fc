// Command preview renders one panel frame from a saved forecast payload at a
// fixed instant, without touching the network. It runs the same scheduler and
// render loop as the display, driven by a fake clock.
//
// Usage:
//
//	go run ./cmd/preview \
//	  -payload testdata/onecall.json \
//	  -at 2024-04-22T18:30:00-04:00 \
//	  -out frame.png
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/weather-matrix/internal/adapter/matrix"
	"github.com/couchcryptid/weather-matrix/internal/domain"
	"github.com/couchcryptid/weather-matrix/internal/observability"
	"github.com/couchcryptid/weather-matrix/internal/render"
	"github.com/couchcryptid/weather-matrix/internal/scheduler"
	"github.com/jonboulle/clockwork"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

// fileFetcher serves the same payload for every query.
type fileFetcher struct{ raw []byte }

func (f fileFetcher) FetchForecast(context.Context, domain.ForecastQuery) ([]byte, error) {
	return f.raw, nil
}

// noopSyncer leaves the fake clock where it is.
type noopSyncer struct{}

func (noopSyncer) Sync(context.Context) error { return nil }

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("preview", flag.ContinueOnError)
	payloadPath := fs.String("payload", "", "path to a One Call JSON payload")
	at := fs.String("at", "", "render instant, RFC 3339 (default: now)")
	show := fs.String("show", "rotating", "show mode: rotating, today or tomorrow")
	dimming := fs.Bool("night-dimming", false, "enable quiet-hours dimming")
	quietStart := fs.String("quiet-start", "23:00", "quiet hours start, HH:MM")
	quietEnd := fs.String("quiet-end", "07:00", "quiet hours end, HH:MM")
	out := fs.String("out", "frame.png", "output PNG path")
	printJSON := fs.Bool("json", false, "also print the frame as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *payloadPath == "" {
		fs.Usage()
		return fmt.Errorf("missing required flag: -payload")
	}

	raw, err := os.ReadFile(*payloadPath)
	if err != nil {
		return fmt.Errorf("read payload: %w", err)
	}

	instant := time.Now()
	if *at != "" {
		if instant, err = time.Parse(time.RFC3339, *at); err != nil {
			return fmt.Errorf("parse -at: %w", err)
		}
	}
	if _, err := domain.ParseForecast(raw, instant); err != nil {
		return err
	}

	opts := domain.DisplayOptions{NightDimming: *dimming}
	if opts.Show, err = domain.ParseShowMode(*show); err != nil {
		return err
	}
	if opts.QuietStart, err = domain.ParseClockTime(*quietStart); err != nil {
		return err
	}
	if opts.QuietEnd, err = domain.ParseClockTime(*quietEnd); err != nil {
		return err
	}

	// A fixed clock makes the frame reproducible.
	clock := clockwork.NewFakeClockAt(instant)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()

	sched := scheduler.New(noopSyncer{}, fileFetcher{raw: raw}, clock, domain.ForecastQuery{}, clock, logger, metrics)
	panel := matrix.NewPanel(*out, logger)
	coord := render.NewCoordinator(sched, clock, panel, render.Options{Display: opts}, clock, logger, metrics)

	if _, err := coord.Tick(context.Background()); err != nil {
		return err
	}
	frame, err := panel.Frame()
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "%s frame at %s written to %s\n", frame.Mode, instant.Format(time.RFC3339), *out)
	if *printJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(frame); err != nil {
			return fmt.Errorf("encode frame: %w", err)
		}
	}
	return nil
}
