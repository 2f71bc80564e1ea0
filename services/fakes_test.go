package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/tournament-pairing/models"
	"github.com/Dosada05/tournament-pairing/repositories"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memDB is the shared state behind the fake repositories.
type memDB struct {
	mu sync.Mutex

	formats     map[int]*models.Format
	tournaments map[int]*models.Tournament
	competitors map[int][]models.Competitor
	rosters     map[int]*models.Roster
	unavailable map[int]map[int]bool // round -> competitor
	groups      map[int]int
	lateJoin    map[int]float64
	rounds      map[int][]models.Round
	brackets    map[int]*models.KnockoutBracket
	seedings    map[int][]models.KnockoutSeeding
	advanced    []models.KnockoutAdvancement
	standings   map[int][]models.TournamentStanding
	exchanges   []models.OracleExchange

	nextID       int
	saveRoundErr error
}

func newMemDB() *memDB {
	return &memDB{
		formats:     make(map[int]*models.Format),
		tournaments: make(map[int]*models.Tournament),
		competitors: make(map[int][]models.Competitor),
		rosters:     make(map[int]*models.Roster),
		unavailable: make(map[int]map[int]bool),
		groups:      make(map[int]int),
		lateJoin:    make(map[int]float64),
		rounds:      make(map[int][]models.Round),
		brackets:    make(map[int]*models.KnockoutBracket),
		seedings:    make(map[int][]models.KnockoutSeeding),
		standings:   make(map[int][]models.TournamentStanding),
	}
}

func (db *memDB) id() int {
	db.nextID++
	return db.nextID
}

func copyRound(r models.Round) models.Round {
	out := r
	out.Matches = make([]models.Match, len(r.Matches))
	for i, m := range r.Matches {
		m.Games = append([]models.Game(nil), m.Games...)
		out.Matches[i] = m
	}
	return out
}

// round returns a pointer into the stored round so tests can record results.
func (db *memDB) round(tournamentID, number int) *models.Round {
	rounds := db.rounds[tournamentID]
	for i := range rounds {
		if rounds[i].Number == number {
			return &rounds[i]
		}
	}
	return nil
}

type fakeTransactor struct {
	calls int
}

func (f *fakeTransactor) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	f.calls++
	return fn(nil)
}

type fakeFormatRepo struct{ db *memDB }

func (r fakeFormatRepo) Create(ctx context.Context, exec repositories.SQLExecutor, f *models.Format) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.formats {
		if existing.Name == f.Name {
			return repositories.ErrFormatNameConflict
		}
	}
	f.ID = r.db.id()
	c := *f
	r.db.formats[f.ID] = &c
	return nil
}

func (r fakeFormatRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Format, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	f, ok := r.db.formats[id]
	if !ok {
		return nil, repositories.ErrFormatNotFound
	}
	c := *f
	return &c, nil
}

type fakeTournamentRepo struct{ db *memDB }

func (r fakeTournamentRepo) Create(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.formats[t.FormatID]; !ok {
		return repositories.ErrTournamentInvalidFormat
	}
	t.ID = r.db.id()
	t.CreatedAt = time.Now()
	c := *t
	r.db.tournaments[t.ID] = &c
	return nil
}

func (r fakeTournamentRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Tournament, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t, ok := r.db.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	c := *t
	return &c, nil
}

func (r fakeTournamentRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.TournamentStatus) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t, ok := r.db.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = status
	return nil
}

type fakeCompetitorRepo struct{ db *memDB }

func (r fakeCompetitorRepo) Create(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, c *models.Competitor) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c.ID = r.db.id()
	stored := *c
	stored.Roster = nil
	r.db.competitors[tournamentID] = append(r.db.competitors[tournamentID], stored)
	return nil
}

func (r fakeCompetitorRepo) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) ([]models.Competitor, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return append([]models.Competitor(nil), r.db.competitors[tournamentID]...), nil
}

func (r fakeCompetitorRepo) GetPairingState(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) (*repositories.PairingState, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	st := &repositories.PairingState{AccelerationGroups: map[int]int{}, LateJoinPoints: map[int]float64{}}
	for k, v := range r.db.groups {
		st.AccelerationGroups[k] = v
	}
	for k, v := range r.db.lateJoin {
		st.LateJoinPoints[k] = v
	}
	return st, nil
}

func (r fakeCompetitorRepo) UpdateAccelerationGroups(ctx context.Context, exec repositories.SQLExecutor, groups map[int]int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for k, v := range groups {
		r.db.groups[k] = v
	}
	return nil
}

func (r fakeCompetitorRepo) ListUnavailable(ctx context.Context, exec repositories.SQLExecutor, tournamentID, round int) (map[int]bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make(map[int]bool)
	for id, v := range r.db.unavailable[round] {
		out[id] = v
	}
	return out, nil
}

type fakeRosterRepo struct{ db *memDB }

func (r fakeRosterRepo) ReplaceBoards(ctx context.Context, exec repositories.SQLExecutor, roster models.Roster) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c := roster
	r.db.rosters[roster.CompetitorID] = &c
	return nil
}

func (r fakeRosterRepo) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID, round int) (map[int]*models.Roster, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make(map[int]*models.Roster)
	for _, c := range r.db.competitors[tournamentID] {
		if ro, ok := r.db.rosters[c.ID]; ok {
			cp := *ro
			out[c.ID] = &cp
		}
	}
	return out, nil
}

type fakeRoundRepo struct{ db *memDB }

func (r fakeRoundRepo) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) ([]models.Round, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]models.Round, 0, len(r.db.rounds[tournamentID]))
	for _, rd := range r.db.rounds[tournamentID] {
		out = append(out, copyRound(rd))
	}
	return out, nil
}

func (r fakeRoundRepo) SaveRound(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, round models.Round) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.saveRoundErr != nil {
		return r.db.saveRoundErr
	}
	if existing := r.db.round(tournamentID, round.Number); existing != nil {
		*existing = copyRound(round)
		return nil
	}
	r.db.rounds[tournamentID] = append(r.db.rounds[tournamentID], copyRound(round))
	sort.Slice(r.db.rounds[tournamentID], func(i, j int) bool {
		return r.db.rounds[tournamentID][i].Number < r.db.rounds[tournamentID][j].Number
	})
	return nil
}

func (r fakeRoundRepo) pairing(tournamentID, roundNumber, pairingOrder int) *models.Match {
	rd := r.db.round(tournamentID, roundNumber)
	if rd == nil {
		return nil
	}
	for i := range rd.Matches {
		if m := &rd.Matches[i]; !m.IsBye() && m.PairingOrder == pairingOrder {
			return m
		}
	}
	return nil
}

func (r fakeRoundRepo) UpdateGameResult(ctx context.Context, exec repositories.SQLExecutor, tournamentID, roundNumber, pairingOrder, board int, result models.GameResult) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	m := r.pairing(tournamentID, roundNumber, pairingOrder)
	if m == nil {
		return repositories.ErrGameNotFound
	}
	for i := range m.Games {
		if m.Games[i].Board == board {
			m.Games[i].Result = result
			return nil
		}
	}
	return repositories.ErrGameNotFound
}

func (r fakeRoundRepo) UpdateManualTiebreak(ctx context.Context, exec repositories.SQLExecutor, tournamentID, roundNumber, pairingOrder int, value *int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	m := r.pairing(tournamentID, roundNumber, pairingOrder)
	if m == nil {
		return repositories.ErrPairingNotFound
	}
	if value == nil {
		m.ManualTiebreakValue = nil
		return nil
	}
	v := *value
	m.ManualTiebreakValue = &v
	return nil
}

type fakeBracketRepo struct{ db *memDB }

func (r fakeBracketRepo) Create(ctx context.Context, exec repositories.SQLExecutor, b *models.KnockoutBracket, seedings []models.KnockoutSeeding) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.brackets[b.TournamentID]; ok {
		return repositories.ErrBracketExists
	}
	b.ID = r.db.id()
	for i := range seedings {
		seedings[i].BracketID = b.ID
		seedings[i].ID = r.db.id()
	}
	c := *b
	r.db.brackets[b.TournamentID] = &c
	r.db.seedings[b.ID] = append([]models.KnockoutSeeding(nil), seedings...)
	return nil
}

func (r fakeBracketRepo) GetByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) (*models.KnockoutBracket, []models.KnockoutSeeding, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	b, ok := r.db.brackets[tournamentID]
	if !ok {
		return nil, nil, repositories.ErrBracketNotFound
	}
	c := *b
	return &c, append([]models.KnockoutSeeding(nil), r.db.seedings[b.ID]...), nil
}

func (r fakeBracketRepo) MarkCompleted(ctx context.Context, exec repositories.SQLExecutor, bracketID int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, b := range r.db.brackets {
		if b.ID == bracketID {
			b.IsCompleted = true
			return nil
		}
	}
	return repositories.ErrBracketNotFound
}

func (r fakeBracketRepo) CreateAdvancements(ctx context.Context, exec repositories.SQLExecutor, records []models.KnockoutAdvancement) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, rec := range records {
		for _, a := range r.db.advanced {
			if a.BracketID == rec.BracketID && a.CompetitorID == rec.CompetitorID && a.SourceRound == rec.SourceRound {
				return repositories.ErrAlreadyAdvanced
			}
		}
	}
	r.db.advanced = append(r.db.advanced, records...)
	return nil
}

func (r fakeBracketRepo) CountAdvancements(ctx context.Context, exec repositories.SQLExecutor, bracketID, sourceRound int) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	n := 0
	for _, a := range r.db.advanced {
		if a.BracketID == bracketID && a.SourceRound == sourceRound {
			n++
		}
	}
	return n, nil
}

type fakeStandingRepo struct{ db *memDB }

func (r fakeStandingRepo) ReplaceForTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, table []models.TournamentStanding) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.standings[tournamentID] = append([]models.TournamentStanding(nil), table...)
	return nil
}

func (r fakeStandingRepo) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) ([]models.TournamentStanding, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return append([]models.TournamentStanding(nil), r.db.standings[tournamentID]...), nil
}

type fakeExchangeRepo struct{ db *memDB }

func (r fakeExchangeRepo) Create(ctx context.Context, exec repositories.SQLExecutor, e *models.OracleExchange) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.tournaments[e.TournamentID]; !ok {
		return repositories.ErrExchangeTournamentInvalid
	}
	e.CreatedAt = time.Now()
	r.db.exchanges = append(r.db.exchanges, *e)
	return nil
}

func (r fakeExchangeRepo) ListByRound(ctx context.Context, exec repositories.SQLExecutor, tournamentID, round int) ([]models.OracleExchange, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.OracleExchange
	for _, e := range r.db.exchanges {
		if e.TournamentID == tournamentID && e.RoundNumber == round {
			out = append(out, e)
		}
	}
	return out, nil
}

var errSaveFailed = errors.New("save failed")

// seedTournament stores a format and an active tournament with lone
// competitors rated as given; competitor ids follow creation order.
func seedTournament(db *memDB, pairing models.PairingType, totalRounds int, ratings ...int) (models.Tournament, []int) {
	settings := `{"rounds": 0}`
	f := &models.Format{Name: string(pairing), PairingType: pairing, CompetitorType: models.CompetitorLone, SettingsJSON: &settings}
	_ = fakeFormatRepo{db}.Create(context.Background(), nil, f)
	t := &models.Tournament{Name: "Open", FormatID: f.ID, Status: models.StatusActive, TotalRounds: totalRounds, StartDate: time.Now()}
	_ = fakeTournamentRepo{db}.Create(context.Background(), nil, t)

	ids := make([]int, 0, len(ratings))
	for i, rating := range ratings {
		c := &models.Competitor{Name: string(rune('A' + i)), SeedRating: rating, IsActive: true, Kind: models.CompetitorLone}
		_ = fakeCompetitorRepo{db}.Create(context.Background(), nil, t.ID, c)
		ids = append(ids, c.ID)
	}
	return *t, ids
}

// recordAll sets every game of the given match of a stored round.
func recordAll(db *memDB, tournamentID, round, pairingOrder int, result models.GameResult) bool {
	r := db.round(tournamentID, round)
	if r == nil {
		return false
	}
	for i := range r.Matches {
		if r.Matches[i].PairingOrder != pairingOrder || r.Matches[i].IsBye() {
			continue
		}
		for g := range r.Matches[i].Games {
			r.Matches[i].Games[g].Result = result
		}
		return true
	}
	return false
}
