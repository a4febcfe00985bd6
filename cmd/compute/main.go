// Package main runs one measurement through the calculation engine and
// prints the derived values. Input is a JSON file in the intake message
// schema; nothing is persisted. Useful for spot-checking a capture
// against the engine before it enters the database.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"bodycomp-lab/internal/calc"
	"bodycomp-lab/internal/domain"
	"bodycomp-lab/internal/intake"
)

func main() {
	// Parse flags
	inputPath := flag.String("input", "", "Path to a JSON measurement file (required)")
	outputJSON := flag.Bool("json", false, "Output as JSON")
	flag.Parse()

	// Setup logger
	logger := log.New(os.Stderr, "[compute] ", log.LstdFlags)

	// Validate required flags
	if *inputPath == "" {
		logger.Fatal("--input is required")
	}

	data, err := os.ReadFile(*inputPath)
	if err != nil {
		logger.Fatalf("read input: %v", err)
	}

	var msg intake.MeasurementMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		logger.Fatalf("parse measurement: %v", err)
	}

	calculator := calc.NewCalculator(calc.ConfigFromEnv())
	result, err := calculator.Compute(msg.ToDomain())
	if err != nil {
		logger.Fatalf("compute failed: %v", err)
	}

	if *outputJSON {
		// Wire form; the full breakdown is the human-readable output.
		output, _ := json.MarshalIndent(intake.NewResultMessage(result), "", "  ")
		fmt.Println(string(output))
	} else {
		printResult(result)
	}
}

// printResult outputs a human-readable calculation result.
func printResult(r *domain.CalculationResult) {
	fmt.Println()
	fmt.Println("=== Calculation Result ===")
	fmt.Printf("Measurement ID:     %s\n", r.MeasurementID)
	fmt.Printf("Subject ID:         %s\n", r.SubjectID)
	fmt.Printf("Computed At:        %s\n", time.UnixMilli(r.ComputedAtMs).UTC().Format(time.RFC3339))
	fmt.Printf("Engine Version:     %s\n", r.EngineVersion)
	fmt.Printf("Fingerprint:        %s\n", r.InputFingerprint)
	fmt.Println()

	fmt.Println("Skinfold Sums:")
	fmt.Printf("  Sum 4 (Durnin-Womersley): %s\n", fmtPtr(r.Sum4Skinfolds, "%.1f mm"))
	fmt.Printf("  Sum 6 (ISAK):             %s\n", fmtPtr(r.Sum6Skinfolds, "%.1f mm"))
	fmt.Printf("  Sum 3 (Heath-Carter):     %s\n", fmtPtr(r.Sum3Skinfolds, "%.1f mm"))
	fmt.Printf("  Sum 8 (full profile):     %s\n", fmtPtr(r.Sum8Skinfolds, "%.1f mm"))
	fmt.Println()

	fmt.Println("Density and Fat:")
	fmt.Printf("  Body Density:     %s\n", fmtPtr(r.BodyDensity, "%.4f g/mL"))
	fmt.Printf("  Body Fat:         %s\n", fmtPtr(r.BodyFatPct, "%.1f %%"))
	fmt.Printf("  Fat Mass:         %s\n", fmtPtr(r.FatMassKG, "%.2f kg"))
	fmt.Printf("  Lean Mass:        %s\n", fmtPtr(r.LeanMassKG, "%.2f kg"))
	fmt.Println()

	fmt.Println("Fractionation (Kerr):")
	printComponent("Muscle", r.MuscleMassKG, r.MuscleMassPct)
	printComponent("Adipose", r.AdiposeMassKG, r.AdiposeMassPct)
	printComponent("Bone", r.BoneMassKG, r.BoneMassPct)
	printComponent("Residual", r.ResidualMassKG, r.ResidualMassPct)
	printComponent("Skin", r.SkinMassKG, r.SkinMassPct)
	if r.ComponentSumKG != nil {
		fmt.Printf("  Component Sum:    %.2f kg (deviation %s)\n",
			*r.ComponentSumKG, fmtPtr(r.ComponentSumDeviationPct, "%+.2f %%"))
	}
	fmt.Println()

	fmt.Println("Somatotype (Heath-Carter):")
	fmt.Printf("  Endomorphy:       %s\n", fmtPtr(r.Endomorphy, "%.1f"))
	fmt.Printf("  Mesomorphy:       %s\n", fmtPtr(r.Mesomorphy, "%.1f"))
	fmt.Printf("  Ectomorphy:       %s\n", fmtPtr(r.Ectomorphy, "%.1f"))
	fmt.Println()

	fmt.Println("Energy Targets:")
	fmt.Printf("  BMR:              %s\n", fmtPtr(r.BMRKcal, "%.0f kcal"))
	fmt.Printf("  Maintenance:      %s\n", fmtPtr(r.MaintenanceKcal, "%.0f kcal"))
	fmt.Printf("  Target:           %s\n", fmtPtr(r.TargetKcal, "%.0f kcal"))
	fmt.Printf("  Protein:          %s\n", fmtPtr(r.ProteinG, "%.0f g"))
	fmt.Printf("  Fat:              %s\n", fmtPtr(r.FatG, "%.0f g"))
	fmt.Printf("  Carbs:            %s\n", fmtPtr(r.CarbsG, "%.0f g"))

	if len(r.Warnings) > 0 {
		fmt.Println()
		fmt.Println("Warnings:")
		for _, w := range r.Warnings {
			if w.Field != "" {
				fmt.Printf("  - %s (%s): %s\n", w.Code, w.Field, w.Message)
			} else {
				fmt.Printf("  - %s: %s\n", w.Code, w.Message)
			}
		}
	}
}

// printComponent prints one fractionation component with its body-weight share.
func printComponent(name string, kg, pct *float64) {
	if kg == nil {
		fmt.Printf("  %-17s n/a\n", name+":")
		return
	}
	fmt.Printf("  %-17s %.2f kg (%s of body weight)\n", name+":", *kg, fmtPtr(pct, "%.1f %%"))
}

// fmtPtr formats a nullable value, rendering nil as "n/a".
func fmtPtr(p *float64, format string) string {
	if p == nil {
		return "n/a"
	}
	return fmt.Sprintf(format, *p)
}
