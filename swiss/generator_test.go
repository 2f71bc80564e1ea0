package swiss

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/Dosada05/tournament-pairing/models"
	"github.com/Dosada05/tournament-pairing/oracle"
)

type scriptedOracle struct {
	responses [][]oracle.Pair
	err       error
	// errs fails the n-th call; err fails them all
	errs   []error
	calls  []oracle.Mode
	inputs []string
}

func (o *scriptedOracle) Pair(_ context.Context, trf string, mode oracle.Mode) ([]oracle.Pair, error) {
	o.calls = append(o.calls, mode)
	o.inputs = append(o.inputs, trf)
	if o.err != nil {
		return nil, o.err
	}
	if n := len(o.calls); n <= len(o.errs) && o.errs[n-1] != nil {
		return nil, o.errs[n-1]
	}
	if len(o.calls) > len(o.responses) {
		return nil, nil
	}
	return o.responses[len(o.calls)-1], nil
}

func lonePlayers(ratings ...int) []models.Competitor {
	out := make([]models.Competitor, 0, len(ratings))
	for i, r := range ratings {
		out = append(out, models.Competitor{ID: i + 1, SeedRating: r, IsActive: true, Kind: models.CompetitorLone})
	}
	return out
}

func played(white, black int, r models.GameResult) models.Match {
	m := models.NewMatch(white, black, 1)
	m.Games = []models.Game{{
		Board:   1,
		Player1: &models.Player{ID: white, CompetitorID: white},
		Player2: &models.Player{ID: black, CompetitorID: black},
		Result:  r,
	}}
	return m
}

// checkParticipation fails unless every active competitor appears exactly once.
func checkParticipation(t *testing.T, tour models.Tournament, r models.Round) {
	t.Helper()
	count := make(map[int]int)
	for _, m := range r.Matches {
		count[m.Competitor1ID]++
		if m.Competitor2ID != nil {
			count[*m.Competitor2ID]++
		}
	}
	for _, c := range tour.Competitors {
		if c.IsActive && count[c.ID] != 1 {
			t.Fatalf("competitor %d appears %d times in round %d", c.ID, count[c.ID], r.Number)
		}
		if !c.IsActive && count[c.ID] != 0 {
			t.Fatalf("inactive competitor %d was paired", c.ID)
		}
	}
}

func TestGenerateFirstRound(t *testing.T) {
	tour := models.Tournament{Competitors: lonePlayers(1800, 2100, 1500, 1900, 1700), Scoring: models.StandardScoring}
	tour.Competitors = append(tour.Competitors, models.Competitor{ID: 6, SeedRating: 2500, IsActive: false})

	g := NewGenerator(oracle.NewMemoryOracle())
	res, err := g.Generate(context.Background(), Request{Tournament: tour, Round: 1, TotalRounds: 5})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	checkParticipation(t, tour, res.Round)

	if n := len(res.Round.Pairings()); n != 2 {
		t.Fatalf("got %d pairings, want 2", n)
	}
	byes := res.Round.Byes()
	if len(byes) != 1 || byes[0].ByeType != models.ByeFullPointPairing {
		t.Fatalf("byes = %+v", byes)
	}
	for _, m := range res.Round.Pairings() {
		if m.PairingOrder < 1 || len(m.Games) != 1 || m.Games[0].Result.IsTerminal() {
			t.Fatalf("unexpected pairing %+v", m)
		}
	}

	lines := strings.Split(res.Input, "\n")
	if lines[0] != "XXR 5" {
		t.Fatalf("header = %q", lines[0])
	}
	// record order follows seed rating when nobody has points yet
	if !strings.HasPrefix(lines[1], "001    1") || !strings.HasSuffix(lines[1], "  0000 - -") {
		t.Fatalf("inactive top seed should be first and excluded: %q", lines[1])
	}
	if len(res.Attempts) != 1 || res.Attempts[0] != oracle.Heuristic {
		t.Fatalf("attempts = %v", res.Attempts)
	}
}

func TestGenerateRetriesDeterministically(t *testing.T) {
	tour := models.Tournament{Competitors: lonePlayers(2000, 1900)}
	o := &scriptedOracle{responses: [][]oracle.Pair{nil, {{White: 1, Black: 2}}}}

	res, err := NewGenerator(o).Generate(context.Background(), Request{Tournament: tour, Round: 1, TotalRounds: 3})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(o.calls) != 2 || o.calls[0] != oracle.Heuristic || o.calls[1] != oracle.Deterministic {
		t.Fatalf("calls = %v", o.calls)
	}
	if o.inputs[0] != o.inputs[1] {
		t.Fatal("retry must reuse the same input")
	}
	m := res.Round.Matches[0]
	if m.Competitor1ID != 1 || *m.Competitor2ID != 2 {
		t.Fatalf("match = %+v", m)
	}
}

func TestGenerateRetriesAfterHeuristicDeadline(t *testing.T) {
	tour := models.Tournament{Competitors: lonePlayers(2000, 1900)}
	o := &scriptedOracle{
		responses: [][]oracle.Pair{nil, {{White: 2, Black: 1}}},
		errs:      []error{fmt.Errorf("heuristic run: %w", context.DeadlineExceeded)},
	}

	res, err := NewGenerator(o).Generate(context.Background(), Request{Tournament: tour, Round: 1})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(res.Attempts) != 2 || res.Attempts[1] != oracle.Deterministic {
		t.Fatalf("attempts = %v", res.Attempts)
	}
	if m := res.Round.Matches[0]; m.Competitor1ID != 2 {
		t.Fatalf("match = %+v", m)
	}

	// a caller that is already gone gets no retry
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	o = &scriptedOracle{errs: []error{context.DeadlineExceeded}}
	if _, err := NewGenerator(o).Generate(ctx, Request{Tournament: tour, Round: 1}); !errors.Is(err, models.ErrPairingGeneration) {
		t.Fatalf("canceled: err = %v", err)
	}
	if len(o.calls) != 1 {
		t.Fatalf("canceled: oracle called %d times", len(o.calls))
	}
}

func TestGenerateFailsAfterRetry(t *testing.T) {
	tour := models.Tournament{Competitors: lonePlayers(2000, 1900, 1800)}
	o := &scriptedOracle{}
	_, err := NewGenerator(o).Generate(context.Background(), Request{Tournament: tour, Round: 1})
	if !errors.Is(err, models.ErrPairingGeneration) {
		t.Fatalf("err = %v, want ErrPairingGeneration", err)
	}
	if len(o.calls) != 2 {
		t.Fatalf("oracle called %d times, want 2", len(o.calls))
	}
}

func TestGenerateNoRetryForSingleCompetitor(t *testing.T) {
	tour := models.Tournament{Competitors: lonePlayers(2000)}
	o := &scriptedOracle{responses: [][]oracle.Pair{{{White: 1}}}}
	res, err := NewGenerator(o).Generate(context.Background(), Request{Tournament: tour, Round: 1})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(o.calls) != 1 || len(res.Round.Byes()) != 1 {
		t.Fatalf("calls = %v, round = %+v", o.calls, res.Round)
	}
}

func TestGenerateOracleErrorIsGenerationFailure(t *testing.T) {
	tour := models.Tournament{Competitors: lonePlayers(2000, 1900)}
	o := &scriptedOracle{err: errors.New("boom")}
	_, err := NewGenerator(o).Generate(context.Background(), Request{Tournament: tour, Round: 1})
	if !errors.Is(err, models.ErrPairingGeneration) {
		t.Fatalf("err = %v", err)
	}
	if len(o.calls) != 1 {
		t.Fatalf("errors must not be retried, calls = %v", o.calls)
	}
}

func TestGenerateRejectsBadOracleOutput(t *testing.T) {
	tour := models.Tournament{Competitors: lonePlayers(2000, 1900, 1800, 1700)}
	tests := []struct {
		name  string
		pairs []oracle.Pair
	}{
		{"out of range", []oracle.Pair{{White: 1, Black: 2}, {White: 3, Black: 9}}},
		{"twice", []oracle.Pair{{White: 1, Black: 2}, {White: 2, Black: 3}}},
		{"left out", []oracle.Pair{{White: 1, Black: 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &scriptedOracle{responses: [][]oracle.Pair{tt.pairs}}
			_, err := NewGenerator(o).Generate(context.Background(), Request{Tournament: tour, Round: 1})
			if !errors.Is(err, models.ErrPairingGeneration) {
				t.Fatalf("err = %v", err)
			}
		})
	}
}

func TestGeneratePreconditions(t *testing.T) {
	base := func(result models.GameResult) models.Tournament {
		return models.Tournament{
			Competitors: lonePlayers(2000, 1900, 1800),
			Rounds: []models.Round{{Number: 1, Matches: []models.Match{
				played(1, 2, result),
				models.NewBye(3, models.ByeFullPointPairing),
			}}},
		}
	}
	g := NewGenerator(oracle.NewMemoryOracle())

	_, err := g.Generate(context.Background(), Request{Tournament: base(models.ResultNone), Round: 1})
	if !errors.Is(err, models.ErrPairingsExist) {
		t.Fatalf("without overwrite: err = %v", err)
	}

	_, err = g.Generate(context.Background(), Request{Tournament: base(models.ResultDraw), Round: 1, Overwrite: true})
	if !errors.Is(err, models.ErrPairingHasResult) {
		t.Fatalf("overwrite with result: err = %v", err)
	}

	tour := base(models.ResultNone)
	res, err := g.Generate(context.Background(), Request{Tournament: tour, Round: 1, Overwrite: true})
	if err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if len(res.Discarded) != 2 {
		t.Fatalf("discarded = %+v", res.Discarded)
	}
	checkParticipation(t, tour, res.Round)
}

func TestGenerateReplacesPairingByesKeepsRequested(t *testing.T) {
	tour := models.Tournament{
		Competitors: lonePlayers(2000, 1900, 1800, 1700, 1600),
		Rounds: []models.Round{{Number: 1, Matches: []models.Match{
			models.NewBye(4, models.ByeFullPointPairing),
			models.NewBye(5, models.ByeZeroPoint),
		}}},
	}
	res, err := NewGenerator(oracle.NewMemoryOracle()).Generate(context.Background(), Request{
		Tournament:  tour,
		Round:       1,
		Unavailable: map[int]bool{3: true},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	checkParticipation(t, tour, res.Round)

	byType := make(map[int]models.ByeType)
	for _, m := range res.Round.Byes() {
		byType[m.Competitor1ID] = m.ByeType
	}
	if byType[5] != models.ByeZeroPoint || byType[3] != models.ByeHalfPoint {
		t.Fatalf("byes = %v", byType)
	}
	if len(res.Round.Pairings()) != 1 || len(res.Discarded) != 1 {
		t.Fatalf("pairings = %+v discarded = %+v", res.Round.Pairings(), res.Discarded)
	}
}

func TestGenerateSecondRoundUsesHistory(t *testing.T) {
	tour := models.Tournament{
		Competitors: lonePlayers(2000, 1900, 1800, 1700),
		Scoring:     models.StandardScoring,
		Rounds: []models.Round{{Number: 1, IsCompleted: true, Matches: []models.Match{
			played(1, 3, models.ResultP2Win),
			played(4, 2, models.ResultDraw),
		}}},
	}
	res, err := NewGenerator(oracle.NewMemoryOracle()).Generate(context.Background(), Request{Tournament: tour, Round: 2, TotalRounds: 3})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	checkParticipation(t, tour, res.Round)

	lines := strings.Split(res.Input, "\n")
	// competitor 3 leads with a full point, competitors 2 and 4 follow on half a point
	if !strings.HasSuffix(lines[1], "     4 b 1") {
		t.Fatalf("leader record = %q", lines[1])
	}
	for _, m := range res.Round.Pairings() {
		if m.PairKey() == [2]int{1, 3} || m.PairKey() == [2]int{2, 4} {
			t.Fatalf("rematch %v", m.PairKey())
		}
	}
}

func TestGenerateScoreMatchesHistory(t *testing.T) {
	tour := models.Tournament{
		Competitors: lonePlayers(2000, 1900, 1800),
		Scoring:     models.StandardScoring,
		Rounds: []models.Round{{Number: 1, IsCompleted: true, Matches: []models.Match{
			played(1, 2, models.ResultP1Win),
			models.NewBye(3, models.ByeFullPointPairing),
		}}},
	}
	res, err := NewGenerator(oracle.NewMemoryOracle()).Generate(context.Background(), Request{Tournament: tour, Round: 2, TotalRounds: 3})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	want := map[string]string{
		"0000 - +": "1.0", // pairing bye recipient
		"w 1":      "1.0",
		"b 0":      "0.0",
	}
	found := 0
	for _, line := range strings.Split(res.Input, "\n") {
		if !strings.HasPrefix(line, "001") {
			continue
		}
		fields := strings.Fields(line)
		for suffix, score := range want {
			if strings.HasSuffix(line, suffix) {
				found++
				if fields[2] != score {
					t.Fatalf("record %q: score %s, want %s", line, fields[2], score)
				}
			}
		}
	}
	if found != 3 {
		t.Fatalf("matched %d records in\n%s", found, res.Input)
	}
}

func TestHistoryLateJoin(t *testing.T) {
	tour := models.Tournament{
		Competitors: lonePlayers(2000, 1900, 1800),
		Rounds: []models.Round{
			{Number: 1, Matches: []models.Match{played(1, 2, models.ResultP1Win)}},
			{Number: 2, Matches: []models.Match{played(2, 1, models.ResultP1ForfeitWin)}},
			{Number: 3, Matches: []models.Match{played(1, 2, models.ResultNone)}},
		},
	}
	entries := History(tour, 3, 5, 1.5)
	if len(entries) != 4 {
		t.Fatalf("got %d entries", len(entries))
	}
	want := []string{"+", "=", " ", " "}
	for i, e := range entries {
		got := " "
		if e.Score != nil {
			switch *e.Score {
			case 1:
				got = "+"
			case 0.5:
				got = "="
			}
		}
		if got != want[i] || e.OpponentID != nil || !e.Forfeit {
			t.Fatalf("round %d: %+v", i+1, e)
		}
	}

	h := History(tour, 1, 4, 0)
	if *h[0].OpponentID != 2 || h[0].Color != oracle.ColorWhite || *h[0].Score != 1 || h[0].Forfeit {
		t.Fatalf("round 1 for competitor 1: %+v", h[0])
	}
	if h[1].Color != oracle.ColorBlack || *h[1].Score != 0 || !h[1].Forfeit {
		t.Fatalf("round 2 for competitor 1 should be a forfeit loss: %+v", h[1])
	}
	if h[2].Score != nil {
		t.Fatalf("unplayed round 3 must have no score: %+v", h[2])
	}
}

func TestAssignBakuGroups(t *testing.T) {
	comps := lonePlayers(2400, 2300, 2200, 2100, 2000, 1900, 1800, 1700, 1600)
	included := make(map[int]bool)
	for _, c := range comps[:8] {
		included[c.ID] = true
	}

	groups := AssignBakuGroups(1, comps, included, nil)
	for id := 1; id <= 4; id++ {
		if groups[id] != 1 {
			t.Fatalf("competitor %d group %d, want 1", id, groups[id])
		}
	}
	for id := 5; id <= 8; id++ {
		if groups[id] != 2 {
			t.Fatalf("competitor %d group %d, want 2", id, groups[id])
		}
	}
	if groups[9] != 0 {
		t.Fatalf("excluded competitor got group %d", groups[9])
	}

	comps = append(comps, models.Competitor{ID: 10, SeedRating: 2150, IsActive: true})
	later := AssignBakuGroups(2, comps, nil, groups)
	if later[10] != 1 || later[9] != 2 || later[5] != 2 || later[1] != 1 {
		t.Fatalf("round 2 groups = %v", later)
	}
}

func TestGenerateBakuAcceleration(t *testing.T) {
	tour := models.Tournament{Competitors: lonePlayers(2400, 2300, 2200, 2100, 2000, 1900)}
	res, err := NewGenerator(oracle.NewMemoryOracle()).Generate(context.Background(), Request{
		Tournament:   tour,
		Round:        1,
		TotalRounds:  7,
		Acceleration: AccelerationBaku,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	// 2*ceil(6/4) = 4 accelerated competitors
	if n := strings.Count(res.Input, "XXA "); n != 4 {
		t.Fatalf("got %d acceleration lines:\n%s", n, res.Input)
	}
	if !strings.Contains(res.Input, "XXA    1  1.0  1.0  1.0  0.5  0.5\n") {
		t.Fatalf("missing acceleration for the top seed:\n%s", res.Input)
	}
	if res.AccelerationGroups[5] != 2 {
		t.Fatalf("groups = %v", res.AccelerationGroups)
	}
}

func TestGenerateTeamRound(t *testing.T) {
	roster := func(id int, players ...int) *models.Roster {
		boards := make(map[int]int)
		for i, p := range players {
			boards[i+1] = p
		}
		return &models.Roster{CompetitorID: id, Boards: boards}
	}
	tour := models.Tournament{
		GamesPerMatch: 4,
		Competitors: []models.Competitor{
			{ID: 1, SeedRating: 2000, IsActive: true, Kind: models.CompetitorTeam, Roster: roster(1, 11, 12, 13, 14)},
			{ID: 2, SeedRating: 1900, IsActive: true, Kind: models.CompetitorTeam, Roster: roster(2, 21, 22, 23)},
		},
	}
	o := &scriptedOracle{responses: [][]oracle.Pair{{{White: 1, Black: 2}}}}
	res, err := NewGenerator(o).Generate(context.Background(), Request{Tournament: tour, Round: 1})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	m := res.Round.Matches[0]
	if len(m.Games) != 4 {
		t.Fatalf("got %d games", len(m.Games))
	}
	if m.Games[0].Player1.ID != 11 || m.Games[1].Player1.ID != 22 || m.Games[1].Player2.ID != 12 {
		t.Fatalf("board colors should alternate: %+v", m.Games[:2])
	}
	if m.Games[3].Player1 != nil || m.Games[3].Player2.ID != 14 {
		t.Fatalf("empty board 4 slot expected: %+v", m.Games[3])
	}
	if m.Games[3].Result != models.ResultP2ForfeitWin || m.Games[0].Result != models.ResultNone {
		t.Fatalf("board 4 should be forfeited on pairing: %+v", m.Games)
	}

	// a forfeit on an empty slot is not a played result
	if _, _, err := DeletePairings(res.Round); err != nil {
		t.Fatalf("DeletePairings with only slot forfeits: %v", err)
	}
	tour.Rounds = []models.Round{res.Round}
	o.responses = append(o.responses, []oracle.Pair{{White: 2, Black: 1}})
	if _, err := NewGenerator(o).Generate(context.Background(), Request{Tournament: tour, Round: 1, Overwrite: true}); err != nil {
		t.Fatalf("overwrite with only slot forfeits: %v", err)
	}

	m.Games[0].Result = models.ResultP1Win
	if _, _, err := DeletePairings(res.Round); !errors.Is(err, models.ErrPairingHasResult) {
		t.Fatalf("played board: err = %v", err)
	}
}

func TestDeletePairings(t *testing.T) {
	r := models.Round{Number: 2, Matches: []models.Match{
		played(1, 2, models.ResultNone),
		models.NewBye(3, models.ByeFullPointPairing),
		models.NewBye(4, models.ByeHalfPoint),
	}}
	out, discarded, err := DeletePairings(r)
	if err != nil {
		t.Fatalf("DeletePairings: %v", err)
	}
	if len(out.Matches) != 1 || out.Matches[0].Competitor1ID != 4 || len(discarded) != 2 {
		t.Fatalf("kept %+v discarded %+v", out.Matches, discarded)
	}

	r.Matches[0] = played(1, 2, models.ResultP1Win)
	if _, _, err := DeletePairings(r); !errors.Is(err, models.ErrPairingHasResult) {
		t.Fatalf("err = %v", err)
	}
}
