package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dosada05/tournament-pairing/models"
	"github.com/Dosada05/tournament-pairing/oracle"
	"github.com/Dosada05/tournament-pairing/storage"
	"github.com/Dosada05/tournament-pairing/swiss"
)

type pairingFixture struct {
	db       *memDB
	tx       *fakeTransactor
	oracle   *oracle.MemoryOracle
	uploader *storage.MemoryUploader
	svc      PairingService
}

func newPairingFixture() *pairingFixture {
	db := newMemDB()
	f := &pairingFixture{
		db:       db,
		tx:       &fakeTransactor{},
		oracle:   oracle.NewMemoryOracle(),
		uploader: storage.NewMemoryUploader(),
	}
	f.svc = NewPairingService(
		f.tx,
		fakeTournamentRepo{db}, fakeFormatRepo{db}, fakeCompetitorRepo{db}, fakeRosterRepo{db},
		fakeRoundRepo{db}, fakeExchangeRepo{db},
		swiss.NewGenerator(f.oracle),
		storage.NewExchangeArchive(f.uploader),
		discardLogger(),
	)
	return f
}

func appearances(r models.Round) map[int]int {
	seen := make(map[int]int)
	for _, m := range r.Matches {
		seen[m.Competitor1ID]++
		if m.Competitor2ID != nil {
			seen[*m.Competitor2ID]++
		}
	}
	return seen
}

func TestGeneratePairingsStoresRoundAndArchive(t *testing.T) {
	f := newPairingFixture()
	tour, ids := seedTournament(f.db, models.PairingSwissDutch, 5, 2400, 2300, 2200, 2100)

	round, err := f.svc.GeneratePairings(context.Background(), tour.ID, 1, false)
	if err != nil {
		t.Fatalf("GeneratePairings: %v", err)
	}
	if got := len(round.Pairings()); got != 2 {
		t.Fatalf("pairings = %d, want 2", got)
	}
	seen := appearances(*round)
	for _, id := range ids {
		if seen[id] != 1 {
			t.Fatalf("competitor %d appears %d times", id, seen[id])
		}
	}

	stored := f.db.round(tour.ID, 1)
	if stored == nil || len(stored.Matches) != 2 {
		t.Fatalf("stored round = %+v", stored)
	}
	if len(f.db.exchanges) != 1 {
		t.Fatalf("exchanges = %d, want 1", len(f.db.exchanges))
	}
	e := f.db.exchanges[0]
	if len(e.Attempts) != 1 || e.Attempts[0] != "heuristic" {
		t.Fatalf("attempts = %v", e.Attempts)
	}
	if _, _, ok := f.uploader.Object(e.InputKey); !ok {
		t.Fatalf("input %s not archived", e.InputKey)
	}
	if _, _, ok := f.uploader.Object(e.OutputKey); !ok {
		t.Fatalf("output %s not archived", e.OutputKey)
	}
}

func TestGeneratePairingsOverwrite(t *testing.T) {
	f := newPairingFixture()
	tour, _ := seedTournament(f.db, models.PairingSwissDutch, 5, 2400, 2300, 2200, 2100)
	ctx := context.Background()

	if _, err := f.svc.GeneratePairings(ctx, tour.ID, 1, false); err != nil {
		t.Fatalf("first generation: %v", err)
	}
	if _, err := f.svc.GeneratePairings(ctx, tour.ID, 1, false); !errors.Is(err, models.ErrPairingsExist) {
		t.Fatalf("err = %v, want ErrPairingsExist", err)
	}
	if _, err := f.svc.GeneratePairings(ctx, tour.ID, 1, true); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	if !recordAll(f.db, tour.ID, 1, 1, models.ResultP1Win) {
		t.Fatalf("no pairing 1 to record")
	}
	if _, err := f.svc.GeneratePairings(ctx, tour.ID, 1, true); !errors.Is(err, models.ErrPairingHasResult) {
		t.Fatalf("err = %v, want ErrPairingHasResult", err)
	}
}

func TestGeneratePairingsByes(t *testing.T) {
	f := newPairingFixture()
	tour, ids := seedTournament(f.db, models.PairingSwissDutch, 5, 2400, 2300, 2200, 2100, 2000, 1900)
	f.db.unavailable[1] = map[int]bool{ids[0]: true}

	round, err := f.svc.GeneratePairings(context.Background(), tour.ID, 1, false)
	if err != nil {
		t.Fatalf("GeneratePairings: %v", err)
	}
	var half, pairingBye int
	for _, m := range round.Byes() {
		switch m.ByeType {
		case models.ByeHalfPoint:
			half++
			if m.Competitor1ID != ids[0] {
				t.Fatalf("half-point bye went to %d", m.Competitor1ID)
			}
		case models.ByeFullPointPairing:
			pairingBye++
		}
	}
	if half != 1 || pairingBye != 1 {
		t.Fatalf("half = %d, pairing byes = %d", half, pairingBye)
	}
	if len(round.Pairings()) != 2 {
		t.Fatalf("pairings = %d, want 2", len(round.Pairings()))
	}
}

func TestGeneratePairingsRejects(t *testing.T) {
	ctx := context.Background()

	f := newPairingFixture()
	if _, err := f.svc.GeneratePairings(ctx, 99, 1, false); !errors.Is(err, ErrTournamentNotFound) {
		t.Fatalf("unknown tournament: err = %v", err)
	}

	f = newPairingFixture()
	tour, _ := seedTournament(f.db, models.PairingKnockoutSingle, 0, 2400, 2300)
	if _, err := f.svc.GeneratePairings(ctx, tour.ID, 1, false); !errors.Is(err, ErrNotSwiss) {
		t.Fatalf("knockout: err = %v", err)
	}
	if _, err := f.svc.GeneratePairings(ctx, tour.ID, 0, false); !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("round 0: err = %v", err)
	}

	f = newPairingFixture()
	tour, _ = seedTournament(f.db, models.PairingSwissDutch, 3, 2400, 2300)
	f.db.tournaments[tour.ID].Status = models.StatusCompleted
	if _, err := f.svc.GeneratePairings(ctx, tour.ID, 1, false); !errors.Is(err, ErrTournamentClosed) {
		t.Fatalf("completed: err = %v", err)
	}
}

func TestGeneratePairingsDiscardsArchiveOnFailedSave(t *testing.T) {
	f := newPairingFixture()
	tour, _ := seedTournament(f.db, models.PairingSwissDutch, 5, 2400, 2300, 2200, 2100)
	f.db.saveRoundErr = errSaveFailed

	if _, err := f.svc.GeneratePairings(context.Background(), tour.ID, 1, false); !errors.Is(err, errSaveFailed) {
		t.Fatalf("err = %v, want errSaveFailed", err)
	}
	if keys := f.uploader.Keys(); len(keys) != 0 {
		t.Fatalf("archive kept %v", keys)
	}
	if len(f.db.exchanges) != 0 {
		t.Fatalf("exchange recorded after failed save")
	}
}

func TestDeletePairingsKeepsRequestedByes(t *testing.T) {
	f := newPairingFixture()
	tour, ids := seedTournament(f.db, models.PairingSwissDutch, 5, 2400, 2300, 2200, 2100, 2000)
	f.db.unavailable[1] = map[int]bool{ids[4]: true}
	ctx := context.Background()

	if _, err := f.svc.GeneratePairings(ctx, tour.ID, 1, false); err != nil {
		t.Fatalf("GeneratePairings: %v", err)
	}
	round, err := f.svc.DeletePairings(ctx, tour.ID, 1)
	if err != nil {
		t.Fatalf("DeletePairings: %v", err)
	}
	if len(round.Matches) != 1 || round.Matches[0].ByeType != models.ByeHalfPoint {
		t.Fatalf("remaining matches = %+v", round.Matches)
	}
	if stored := f.db.round(tour.ID, 1); len(stored.Matches) != 1 {
		t.Fatalf("stored matches = %d", len(stored.Matches))
	}

	if _, err := f.svc.DeletePairings(ctx, tour.ID, 4); !errors.Is(err, ErrRoundNotFound) {
		t.Fatalf("missing round: err = %v", err)
	}
}

func newKnockoutService(db *memDB) KnockoutService {
	return NewKnockoutService(
		&fakeTransactor{},
		fakeTournamentRepo{db}, fakeFormatRepo{db}, fakeCompetitorRepo{db}, fakeRosterRepo{db},
		fakeRoundRepo{db}, fakeBracketRepo{db},
		discardLogger(),
	)
}

func TestKnockoutSingleMatchToChampion(t *testing.T) {
	db := newMemDB()
	svc := newKnockoutService(db)
	tour, _ := seedTournament(db, models.PairingKnockoutSingle, 0, 2400, 2300, 2200, 2100)
	db.tournaments[tour.ID].Status = models.StatusRegistration
	ctx := context.Background()

	view, err := svc.CreateBracket(ctx, tour.ID)
	if err != nil {
		t.Fatalf("CreateBracket: %v", err)
	}
	if view.Bracket.BracketSize != 4 || len(view.Seedings) != 4 || len(view.Round.Pairings()) != 2 {
		t.Fatalf("view = %+v", view)
	}
	if db.tournaments[tour.ID].Status != models.StatusActive {
		t.Fatalf("status = %s", db.tournaments[tour.ID].Status)
	}
	if _, err := svc.CreateBracket(ctx, tour.ID); !errors.Is(err, ErrBracketExists) {
		t.Fatalf("second bracket: err = %v", err)
	}

	if _, err := svc.Advance(ctx, tour.ID, 1); !errors.Is(err, models.ErrPairingGeneration) {
		t.Fatalf("advance without results: err = %v", err)
	}

	var winners []int
	for _, m := range db.round(tour.ID, 1).Matches {
		recordAll(db, tour.ID, 1, m.PairingOrder, models.ResultP1Win)
		winners = append(winners, m.Competitor1ID)
	}
	p, err := svc.Advance(ctx, tour.ID, 1)
	if err != nil {
		t.Fatalf("Advance(1): %v", err)
	}
	if p.Completed || p.Round == nil || len(p.Round.Pairings()) != 1 {
		t.Fatalf("progress = %+v", p)
	}
	if len(p.Advanced) != 2 || len(db.advanced) != 2 {
		t.Fatalf("advanced = %d, stored = %d", len(p.Advanced), len(db.advanced))
	}
	final := p.Round.Pairings()[0]
	if !final.Involves(winners[0]) || !final.Involves(winners[1]) {
		t.Fatalf("final %+v does not pair winners %v", final, winners)
	}

	recordAll(db, tour.ID, 2, final.PairingOrder, models.ResultP1Win)
	p, err = svc.Advance(ctx, tour.ID, 2)
	if err != nil {
		t.Fatalf("Advance(2): %v", err)
	}
	if !p.Completed || p.ChampionID != final.Competitor1ID {
		t.Fatalf("progress = %+v, want champion %d", p, final.Competitor1ID)
	}
	if !db.brackets[tour.ID].IsCompleted || db.tournaments[tour.ID].Status != models.StatusCompleted {
		t.Fatalf("bracket or tournament not completed")
	}
	if len(db.advanced) != 2 {
		t.Fatalf("final recorded advancements: %d", len(db.advanced))
	}
}

func TestKnockoutAdvanceTwiceKeepsLaterResults(t *testing.T) {
	db := newMemDB()
	svc := newKnockoutService(db)
	tour, _ := seedTournament(db, models.PairingKnockoutSingle, 0, 2800, 2700, 2600, 2500, 2400, 2300, 2200, 2100)
	ctx := context.Background()

	if _, err := svc.CreateBracket(ctx, tour.ID); err != nil {
		t.Fatalf("CreateBracket: %v", err)
	}
	for _, m := range db.round(tour.ID, 1).Matches {
		recordAll(db, tour.ID, 1, m.PairingOrder, models.ResultP1Win)
	}
	if _, err := svc.Advance(ctx, tour.ID, 1); err != nil {
		t.Fatalf("Advance(1): %v", err)
	}
	if !recordAll(db, tour.ID, 2, 1, models.ResultP2Win) {
		t.Fatalf("round 2 not stored")
	}

	_, err := svc.Advance(ctx, tour.ID, 1)
	if !errors.Is(err, models.ErrPairingsExist) {
		t.Fatalf("second Advance(1): err = %v, want ErrPairingsExist", err)
	}
	if len(db.advanced) != 4 {
		t.Fatalf("advancement records = %d, want 4", len(db.advanced))
	}
	r2 := db.round(tour.ID, 2)
	if r2 == nil || r2.Matches[0].Games[0].Result != models.ResultP2Win {
		t.Fatalf("round 2 result lost: %+v", r2)
	}
}

func TestKnockoutAdvanceRefusesRecordedAdvancements(t *testing.T) {
	db := newMemDB()
	svc := newKnockoutService(db)
	tour, _ := seedTournament(db, models.PairingKnockoutSingle, 0, 2400, 2300, 2200, 2100)
	ctx := context.Background()

	if _, err := svc.CreateBracket(ctx, tour.ID); err != nil {
		t.Fatalf("CreateBracket: %v", err)
	}
	for _, m := range db.round(tour.ID, 1).Matches {
		recordAll(db, tour.ID, 1, m.PairingOrder, models.ResultP1Win)
	}
	if _, err := svc.Advance(ctx, tour.ID, 1); err != nil {
		t.Fatalf("Advance(1): %v", err)
	}
	// next round removed out of band; advancements stay
	db.rounds[tour.ID] = db.rounds[tour.ID][:1]

	if _, err := svc.Advance(ctx, tour.ID, 1); !errors.Is(err, ErrRoundAdvanced) {
		t.Fatalf("err = %v, want ErrRoundAdvanced", err)
	}
	if len(db.advanced) != 2 {
		t.Fatalf("advancement records = %d, want 2", len(db.advanced))
	}
}

func TestKnockoutMultiMatchReturnLeg(t *testing.T) {
	db := newMemDB()
	svc := newKnockoutService(db)
	tour, _ := seedTournament(db, models.PairingKnockoutMulti, 0, 2400, 2300)
	ctx := context.Background()

	view, err := svc.CreateBracket(ctx, tour.ID)
	if err != nil {
		t.Fatalf("CreateBracket: %v", err)
	}
	if view.Bracket.MatchesPerStage != 2 {
		t.Fatalf("matches per stage = %d", view.Bracket.MatchesPerStage)
	}
	first := view.Round.Pairings()[0]
	recordAll(db, tour.ID, 1, first.PairingOrder, models.ResultP1Win)

	p, err := svc.Advance(ctx, tour.ID, 1)
	if err != nil {
		t.Fatalf("Advance leg 1: %v", err)
	}
	if len(p.NextLeg) != 1 || p.Completed {
		t.Fatalf("progress = %+v", p)
	}
	leg := p.NextLeg[0]
	if leg.Competitor1ID != *first.Competitor2ID || *leg.Competitor2ID != first.Competitor1ID {
		t.Fatalf("return leg colors not flipped: %+v", leg)
	}
	if got := len(db.round(tour.ID, 1).Matches); got != 2 {
		t.Fatalf("round matches = %d, want 2", got)
	}

	recordAll(db, tour.ID, 1, leg.PairingOrder, models.ResultDraw)
	p, err = svc.Advance(ctx, tour.ID, 1)
	if err != nil {
		t.Fatalf("Advance stage: %v", err)
	}
	if !p.Completed || p.ChampionID != first.Competitor1ID {
		t.Fatalf("progress = %+v, want champion %d", p, first.Competitor1ID)
	}
}

func TestKnockoutMatchesPerStageFromSettings(t *testing.T) {
	db := newMemDB()
	svc := newKnockoutService(db)
	tour, _ := seedTournament(db, models.PairingKnockoutMulti, 0, 2400, 2300, 2200, 2100)
	settings := `{"matches_per_stage": 3}`
	db.formats[tour.FormatID].SettingsJSON = &settings

	view, err := svc.CreateBracket(context.Background(), tour.ID)
	if err != nil {
		t.Fatalf("CreateBracket: %v", err)
	}
	if view.Bracket.MatchesPerStage != 3 || db.brackets[tour.ID].MatchesPerStage != 3 {
		t.Fatalf("matches per stage = %d", view.Bracket.MatchesPerStage)
	}
}

func TestKnockoutRejectsSwissAndBadSize(t *testing.T) {
	ctx := context.Background()

	db := newMemDB()
	tour, _ := seedTournament(db, models.PairingSwissDutch, 3, 2400, 2300)
	if _, err := newKnockoutService(db).CreateBracket(ctx, tour.ID); !errors.Is(err, ErrNotKnockout) {
		t.Fatalf("swiss: err = %v", err)
	}

	db = newMemDB()
	tour, _ = seedTournament(db, models.PairingKnockoutSingle, 0, 2400, 2300, 2200)
	if _, err := newKnockoutService(db).CreateBracket(ctx, tour.ID); !errors.Is(err, models.ErrPairingGeneration) {
		t.Fatalf("three competitors: err = %v", err)
	}
	if _, err := newKnockoutService(db).Advance(ctx, tour.ID, 1); !errors.Is(err, ErrBracketNotFound) {
		t.Fatalf("advance without bracket: err = %v", err)
	}
}

func TestStandingsRecalculateAndGet(t *testing.T) {
	db := newMemDB()
	svc := NewStandingsService(
		&fakeTransactor{},
		fakeTournamentRepo{db}, fakeFormatRepo{db}, fakeCompetitorRepo{db}, fakeRosterRepo{db},
		fakeRoundRepo{db}, fakeStandingRepo{db},
		discardLogger(),
	)
	tour, ids := seedTournament(db, models.PairingSwissDutch, 3, 2400, 2300, 2200, 2100)

	game := func(white, black int, result models.GameResult) []models.Game {
		return []models.Game{{
			Board:   1,
			Player1: &models.Player{ID: white, CompetitorID: white},
			Player2: &models.Player{ID: black, CompetitorID: black},
			Result:  result,
		}}
	}
	m1 := models.NewMatch(ids[0], ids[1], 1)
	m1.Games = game(ids[0], ids[1], models.ResultP1Win)
	m2 := models.NewMatch(ids[2], ids[3], 2)
	m2.Games = game(ids[2], ids[3], models.ResultP1Win)
	_ = fakeRoundRepo{db}.SaveRound(context.Background(), nil, tour.ID, models.Round{Number: 1, Matches: []models.Match{m1, m2}})

	table, err := svc.Get(context.Background(), tour.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(table) != 4 {
		t.Fatalf("rows = %d, want 4", len(table))
	}
	if table[0].CompetitorID != ids[0] || table[0].Rank != 1 {
		t.Fatalf("leader = %+v", table[0])
	}
	if table[0].GamePoints != 1 || table[0].Competitor == nil || table[0].Competitor.Name != "A" {
		t.Fatalf("leader row = %+v", table[0])
	}
	if table[3].GamePoints != 0 {
		t.Fatalf("last row = %+v", table[3])
	}
	if len(db.standings[tour.ID]) != 4 {
		t.Fatalf("standings not stored")
	}
}

func TestTournamentServiceSetup(t *testing.T) {
	db := newMemDB()
	svc := NewTournamentService(
		&fakeTransactor{},
		fakeTournamentRepo{db}, fakeFormatRepo{db}, fakeCompetitorRepo{db}, fakeRosterRepo{db},
		fakeRoundRepo{db},
		discardLogger(),
	)
	ctx := context.Background()

	bad := &models.Format{Name: "x", PairingType: "round-robin", CompetitorType: models.CompetitorLone}
	if err := svc.CreateFormat(ctx, bad); !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("bad pairing type: err = %v", err)
	}
	settings := `{"tiebreaks": ["game_points", "buchholz"], "games_per_match": 4}`
	f := &models.Format{Name: "Team Swiss", PairingType: models.PairingSwissDutch, CompetitorType: models.CompetitorTeam, SettingsJSON: &settings}
	if err := svc.CreateFormat(ctx, f); err != nil {
		t.Fatalf("CreateFormat: %v", err)
	}
	if f.ParsedSettings == nil || f.ParsedSettings.GamesPerMatch != 4 {
		t.Fatalf("settings = %+v", f.ParsedSettings)
	}

	tour := &models.Tournament{Name: " League ", FormatID: f.ID, TotalRounds: 7, StartDate: time.Now()}
	if err := svc.CreateTournament(ctx, tour); err != nil {
		t.Fatalf("CreateTournament: %v", err)
	}
	if tour.Name != "League" || tour.Status != models.StatusRegistration {
		t.Fatalf("tournament = %+v", tour)
	}
	if err := svc.CreateTournament(ctx, &models.Tournament{Name: "x", FormatID: 999, StartDate: time.Now()}); !errors.Is(err, ErrFormatNotFound) {
		t.Fatalf("unknown format: err = %v", err)
	}

	team := &models.Competitor{Name: "Rooks", SeedRating: 2100, Roster: &models.Roster{Boards: map[int]int{1: 501, 2: 502}}}
	if err := svc.AddCompetitor(ctx, tour.ID, team); err != nil {
		t.Fatalf("AddCompetitor: %v", err)
	}
	if team.Kind != models.CompetitorTeam || !team.IsActive {
		t.Fatalf("competitor = %+v", team)
	}

	got, err := svc.GetTournament(ctx, tour.ID)
	if err != nil {
		t.Fatalf("GetTournament: %v", err)
	}
	if got.GamesPerMatch != 4 || got.TotalRounds != 7 || len(got.Competitors) != 1 {
		t.Fatalf("snapshot = %+v", got)
	}
	if ro := got.Competitors[0].Roster; ro == nil || ro.Boards[2] != 502 {
		t.Fatalf("roster = %+v", got.Competitors[0].Roster)
	}
}
