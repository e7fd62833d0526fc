// Command validate checks a saved One Call payload against everything the
// display relies on: payload shape, coverage of today and tomorrow, graph
// column invariants and, when a proxied copy is given, that the trimming
// proxy preserved every field the display reads.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -payload testdata/onecall.json \
//	  -proxied testdata/onecall_trimmed.json \
//	  -at 2024-04-22T10:00:00-04:00
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/couchcryptid/weather-matrix/internal/domain"
	"github.com/google/go-cmp/cmp"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	payload := flag.String("payload", "", "path to a One Call JSON payload")
	proxied := flag.String("proxied", "", "optional path to the proxy's trimmed copy of the same payload")
	at := flag.String("at", "", "reference instant, RFC 3339 (default: now)")
	flag.Parse()

	if *payload == "" {
		flag.Usage()
		os.Exit(1)
	}

	ref := time.Now()
	if *at != "" {
		t, err := time.Parse(time.RFC3339, *at)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: parse -at: %v\n", err)
			os.Exit(1)
		}
		ref = t
	}

	os.Exit(run(*payload, *proxied, ref, os.Stdout))
}

func run(payloadPath, proxiedPath string, ref time.Time, out io.Writer) int {
	fmt.Fprintln(out, "=== Forecast Payload Validation ===")
	fmt.Fprintln(out)

	payload, err := loadPayload(payloadPath)
	if err != nil {
		fmt.Fprintf(out, "FATAL: load payload: %v\n", err)
		return 1
	}

	shape := validateShape(payload)
	phases := []*phase{shape}
	if shape.passed() {
		series, _ := payload.Series(ref)
		phases = append(phases, validateCoverage(series))
	}
	if proxiedPath != "" {
		proxied, err := loadPayload(proxiedPath)
		if err != nil {
			fmt.Fprintf(out, "FATAL: load proxied payload: %v\n", err)
			return 1
		}
		phases = append(phases, validateProxyParity(payload, proxied, ref))
	}

	fmt.Fprintln(out)
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Hourly samples: %d, timezone offset: %ds\n", len(payload.Hourly), payload.TimezoneOffset)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

func loadPayload(path string) (domain.Payload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Payload{}, err
	}
	var p domain.Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.Payload{}, err
	}
	return p, nil
}

// ── Phase 1: Payload Shape ──

func validateShape(p domain.Payload) *phase {
	ph := &phase{name: "Phase 1: Payload Shape"}

	if _, err := p.Series(time.Now()); err != nil {
		ph.errorf("%v", err)
	}
	if p.TimezoneOffset%900 != 0 || p.TimezoneOffset < -12*3600 || p.TimezoneOffset > 14*3600 {
		ph.errorf("timezone_offset %d is not a real UTC offset", p.TimezoneOffset)
	}
	for i := 1; i < len(p.Hourly); i++ {
		if gap := p.Hourly[i].Dt - p.Hourly[i-1].Dt; gap != 3600 {
			ph.errorf("hourly[%d]: dt %d is %ds after the previous sample, want 3600", i, p.Hourly[i].Dt, gap)
		}
	}
	for i, h := range p.Hourly {
		if h.Rain != nil && h.Rain.OneHour != nil && *h.Rain.OneHour < 0 {
			ph.errorf("hourly[%d]: negative rain %v", i, *h.Rain.OneHour)
		}
	}
	return ph
}

// ── Phase 2: Day Coverage ──

func validateCoverage(series domain.ForecastSeries) *phase {
	ph := &phase{name: "Phase 2: Day Coverage and Graph Columns"}

	for _, day := range []domain.Day{domain.DayToday, domain.DayTomorrow} {
		cols, err := domain.Bucketize(series, day)
		if err != nil {
			ph.errorf("%v", err)
			continue
		}
		if cols.Len() > domain.PanelWidth {
			ph.errorf("%s: %d columns do not fit the panel", day, cols.Len())
		}
		for i := range cols.Len() {
			h, top, pop := cols.TempHeights[i], cols.TempTops[i], cols.PrecipHeights[i]
			if h < 1 || h > domain.GraphHeight {
				ph.errorf("%s column %d: temperature height %d out of range", day, i, h)
			}
			if top > h {
				ph.errorf("%s column %d: top %d above height %d", day, i, top, h)
			}
			if pop < 0 || pop > domain.GraphHeight {
				ph.errorf("%s column %d: precipitation height %d out of range", day, i, pop)
			}
		}
		if cols.Low > cols.High {
			ph.errorf("%s: low %d above high %d", day, cols.Low, cols.High)
		}
	}
	return ph
}

// ── Phase 3: Proxy Parity ──

func validateProxyParity(upstream, proxied domain.Payload, ref time.Time) *phase {
	ph := &phase{name: "Phase 3: Proxy Parity"}

	want, err := upstream.Series(ref)
	if err != nil {
		ph.errorf("upstream: %v", err)
		return ph
	}
	got, err := proxied.Series(ref)
	if err != nil {
		ph.errorf("proxied: %v", err)
		return ph
	}
	if diff := cmp.Diff(want, got); diff != "" {
		ph.errorf("series mismatch (-upstream +proxied):\n%s", diff)
	}
	for i := range min(len(upstream.Hourly), len(proxied.Hourly)) {
		if (upstream.Hourly[i].Rain == nil) != (proxied.Hourly[i].Rain == nil) {
			ph.errorf("hourly[%d]: rain presence changed", i)
		}
	}
	return ph
}
