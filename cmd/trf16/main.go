// Command trf16 reads a historical tournament report and prints the
// standings computed from it as JSON.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/Dosada05/tournament-pairing/models"
	"github.com/Dosada05/tournament-pairing/services"
	"github.com/Dosada05/tournament-pairing/trf16"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	tiebreaks := flag.String("tiebreaks", "game_points,head_to_head,games_won,sonneborn_berger", "comma-separated tiebreak order")
	scoring := flag.String("scoring", "", "scoring system name (default standard)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] report.trf\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(flag.Arg(0), splitList(*tiebreaks), *scoring); err != nil {
		logger.Error("failed to compute standings", slog.String("file", flag.Arg(0)), slog.Any("error", err))
		os.Exit(1)
	}
}

func run(path string, order []string, scoring string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	report, err := trf16.Parse(f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	t, err := trf16.Convert(report)
	if err != nil {
		return fmt.Errorf("convert %s: %w", path, err)
	}
	if scoring != "" {
		t.Scoring = models.ScoringByName(scoring)
	}

	table, err := services.ComputeStandings(t, order)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "\t")
	return enc.Encode(map[string]interface{}{
		"tournament": report.Header.Name,
		"rounds":     t.TotalRounds,
		"standings":  table,
	})
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
