// Package main verifies stored calculation results by recomputing them.
// Exits non-zero when any stored result diverges from a fresh computation,
// so it can run from cron as a drift alarm.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	_ "github.com/joho/godotenv/autoload"

	"bodycomp-lab/internal/calc"
	"bodycomp-lab/internal/verification"

	pgstore "bodycomp-lab/internal/storage/postgres"
)

func main() {
	// Parse flags
	measurementID := flag.String("measurement-id", "", "Verify a single measurement (default: verify all)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	outputJSON := flag.Bool("json", false, "Output as JSON")
	flag.Parse()

	// Setup logger
	logger := log.New(os.Stderr, "[verify] ", log.LstdFlags)

	// Validate required flags
	if *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required")
	}

	ctx := context.Background()

	// Connect to PostgreSQL
	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatalf("connect to postgres: %v", err)
	}
	defer pool.Close()

	verifier := verification.NewRecomputeVerifier(verification.RecomputeVerifierOptions{
		ResultStore:      pgstore.NewResultStore(pool),
		MeasurementStore: pgstore.NewMeasurementStore(pool),
		Calculator:       calc.NewCalculator(calc.ConfigFromEnv()),
	})

	if *measurementID != "" {
		verifyOne(ctx, logger, verifier, *measurementID, *outputJSON)
		return
	}

	verifyAll(ctx, logger, verifier, *outputJSON)
}

// verifyOne verifies a single stored result and prints the outcome.
func verifyOne(ctx context.Context, logger *log.Logger, verifier *verification.RecomputeVerifier, measurementID string, outputJSON bool) {
	result, err := verifier.VerifyResult(ctx, measurementID)
	switch {
	case errors.Is(err, verification.ErrResultNotFound):
		logger.Fatalf("no stored result for measurement %s", measurementID)
	case errors.Is(err, verification.ErrMeasurementNotFound):
		logger.Fatalf("measurement %s is gone but its result remains; run reconciliation", measurementID)
	case err != nil:
		logger.Fatalf("verify %s: %v", measurementID, err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(toResultJSON(result), "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("\n=== Verification Result ===\n")
		fmt.Printf("Measurement ID:    %s\n", result.MeasurementID)
		fmt.Printf("Subject ID:        %s\n", result.SubjectID)
		if result.Match {
			fmt.Printf("Match:             yes\n")
		} else {
			fmt.Printf("Match:             NO (%d divergent fields)\n", len(result.Divergences))
			for _, d := range result.Divergences {
				fmt.Printf("  %s: stored=%v recomputed=%v\n", d.Field, d.Expected, d.Actual)
			}
		}
	}

	if !result.Match {
		os.Exit(1)
	}
}

// verifyAll verifies every stored result and prints a summary.
func verifyAll(ctx context.Context, logger *log.Logger, verifier *verification.RecomputeVerifier, outputJSON bool) {
	report, err := verifier.VerifyAll(ctx)
	if err != nil {
		logger.Fatalf("verify all: %v", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(toReportJSON(report), "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("\n=== Verification Summary ===\n")
		fmt.Printf("Total Results:     %d\n", report.TotalResults)
		fmt.Printf("Matched:           %d\n", report.MatchedResults)
		fmt.Printf("Divergent:         %d\n", report.DivergentResults)

		if report.DivergentResults > 0 {
			fmt.Printf("\nDrift by Field:\n")
			fields := make([]string, 0, len(report.DriftByField))
			for f := range report.DriftByField {
				fields = append(fields, f)
			}
			sort.Strings(fields)
			for _, f := range fields {
				fmt.Printf("  %-28s %d\n", f, report.DriftByField[f])
			}

			fmt.Printf("\nDivergent Results:\n")
			for _, r := range report.Results {
				if r.Match {
					continue
				}
				fmt.Printf("  %s (%s):\n", r.MeasurementID, r.SubjectID)
				for _, d := range r.Divergences {
					fmt.Printf("    %s: stored=%v recomputed=%v\n", d.Field, d.Expected, d.Actual)
				}
			}
		}
	}

	if report.DivergentResults > 0 {
		os.Exit(1)
	}
}

// resultJSON is the JSON shape for a single verification outcome.
type resultJSON struct {
	MeasurementID string           `json:"measurement_id"`
	SubjectID     string           `json:"subject_id"`
	Match         bool             `json:"match"`
	Divergences   []divergenceJSON `json:"divergences,omitempty"`
}

type divergenceJSON struct {
	Field    string      `json:"field"`
	Expected interface{} `json:"expected"`
	Actual   interface{} `json:"actual"`
}

// reportJSON is the JSON shape for a batch verification summary.
type reportJSON struct {
	TotalResults     int            `json:"total_results"`
	MatchedResults   int            `json:"matched_results"`
	DivergentResults int            `json:"divergent_results"`
	DriftByField     map[string]int `json:"drift_by_field,omitempty"`
	Divergent        []resultJSON   `json:"divergent,omitempty"`
}

func toResultJSON(r *verification.VerificationResult) resultJSON {
	out := resultJSON{
		MeasurementID: r.MeasurementID,
		SubjectID:     r.SubjectID,
		Match:         r.Match,
	}
	for _, d := range r.Divergences {
		out.Divergences = append(out.Divergences, divergenceJSON{
			Field:    d.Field,
			Expected: d.Expected,
			Actual:   d.Actual,
		})
	}
	return out
}

func toReportJSON(report *verification.VerificationReport) reportJSON {
	out := reportJSON{
		TotalResults:     report.TotalResults,
		MatchedResults:   report.MatchedResults,
		DivergentResults: report.DivergentResults,
		DriftByField:     report.DriftByField,
	}
	for i := range report.Results {
		if report.Results[i].Match {
			continue
		}
		out.Divergent = append(out.Divergent, toResultJSON(&report.Results[i]))
	}
	return out
}
