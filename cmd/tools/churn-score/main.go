// cmd/tools/churn-score/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"churn-workers/internal/churn"
	"churn-workers/internal/churn/encoding"
	"churn-workers/internal/churn/model"
	"churn-workers/internal/churn/report"
	"churn-workers/internal/churn/retention"
	"churn-workers/internal/churn/risk"
)

type result struct {
	CustomerID       string              `json:"customerId,omitempty"`
	ModelVersion     string              `json:"modelVersion"`
	Features         churn.FeatureRecord `json:"features"`
	ChurnProbability float64             `json:"churnProbability"`
	RiskTier         risk.Tier           `json:"riskTier"`
	Strategies       []string            `json:"strategies"`
	Probes           []retention.Probe   `json:"probes"`
}

func main() {
	profilePath := flag.String("profile", "-", "Profile JSON file, - for stdin")
	modelPath := flag.String("model", "configs/model/churn_model.json", "Logistic model artifact")
	encodersPath := flag.String("encoders", "configs/model/encoders.json", "Label encoder artifact")
	rules := flag.String("rules", "", "Comma-separated retention rules (default: all)")
	low := flag.Float64("low", risk.DefaultLowThreshold, "Upper bound of the low tier")
	high := flag.Float64("high", risk.DefaultHighThreshold, "Lower bound of the high tier")
	asJSON := flag.Bool("json", false, "Print the full result as JSON")
	timeout := flag.Duration("timeout", 5*time.Second, "Scoring timeout")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	res, err := run(ctx, *profilePath, *modelPath, *encodersPath, splitRules(*rules), risk.Thresholds{Low: *low, High: *high})
	if err != nil {
		fmt.Fprintf(os.Stderr, "churn-score: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			fmt.Fprintf(os.Stderr, "churn-score: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Printf("model: %s\n\n", res.ModelVersion)
	fmt.Print(report.New(res.CustomerID, res.ChurnProbability, res.RiskTier, res.Strategies, time.Now()).Text())
}

func run(ctx context.Context, profilePath, modelPath, encodersPath string, ruleNames []string, thresholds risk.Thresholds) (*result, error) {
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}

	profile, err := readProfile(profilePath)
	if err != nil {
		return nil, err
	}

	scorer, err := model.LoadLogistic(modelPath)
	if err != nil {
		return nil, err
	}
	encoders, err := encoding.LoadSet(encodersPath)
	if err != nil {
		return nil, err
	}
	selected, err := retention.SelectRules(ruleNames)
	if err != nil {
		return nil, err
	}

	record, err := profile.FeatureRecord(encoders)
	if err != nil {
		return nil, err
	}

	eval, err := retention.NewEngine(selected...).Evaluate(ctx, scorer, record)
	if err != nil {
		return nil, err
	}
	tier, err := thresholds.Classify(eval.BaseProbability)
	if err != nil {
		return nil, err
	}

	return &result{
		CustomerID:       profile.CustomerID,
		ModelVersion:     scorer.Version(),
		Features:         record,
		ChurnProbability: eval.BaseProbability,
		RiskTier:         tier,
		Strategies:       eval.Recommendations(),
		Probes:           eval.Probes,
	}, nil
}

func readProfile(path string) (*churn.Profile, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open profile: %w", err)
		}
		defer f.Close()
		r = f
	}

	var p churn.Profile
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &p, nil
}

func splitRules(s string) []string {
	var out []string
	for _, r := range strings.Split(s, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}
