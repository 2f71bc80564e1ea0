package trf16

import (
	"fmt"
	"math"
	"sort"

	"github.com/Dosada05/tournament-pairing/models"
)

// Convert builds a completed tournament snapshot from a parsed report.
// With team lines every team becomes a competitor numbered by its position
// in the file and board games are grouped into team matches. Without them
// each player is a lone competitor keyed by start number.
func Convert(f *File) (models.Tournament, error) {
	t := models.Tournament{
		Name:        f.Header.Name,
		Status:      models.StatusCompleted,
		TotalRounds: f.Header.Rounds,
		StartDate:   f.Header.StartDate,
		Scoring:     models.StandardScoring,
	}
	if t.TotalRounds == 0 {
		for _, p := range f.Players {
			t.TotalRounds = max(t.TotalRounds, len(p.Results))
		}
	}

	var convertRound func(int) (models.Round, error)
	if len(f.Teams) > 0 {
		t.Competitors = teamCompetitors(f)
		t.GamesPerMatch = 1
		for _, c := range t.Competitors {
			t.GamesPerMatch = max(t.GamesPerMatch, len(c.Roster.Boards))
		}
		convertRound = f.teamRound
	} else {
		t.Competitors = loneCompetitors(f)
		t.GamesPerMatch = 1
		convertRound = f.loneRound
	}

	for n := 1; n <= t.TotalRounds; n++ {
		r, err := convertRound(n)
		if err != nil {
			return models.Tournament{}, fmt.Errorf("round %d: %w", n, err)
		}
		t.Rounds = append(t.Rounds, r)
	}
	return t, nil
}

func teamCompetitors(f *File) []models.Competitor {
	out := make([]models.Competitor, 0, len(f.Teams))
	for i, team := range f.Teams {
		id := i + 1
		roster := &models.Roster{CompetitorID: id, Boards: make(map[int]int)}
		var total, rated int
		for _, pid := range team.PlayerIDs {
			p, ok := f.Players[pid]
			if !ok {
				continue
			}
			roster.Boards[p.Board] = pid
			if p.Rating > 0 {
				total += p.Rating
				rated++
			}
		}
		seed := 0
		if rated > 0 {
			seed = int(math.Round(float64(total) / float64(rated)))
		}
		out = append(out, models.Competitor{
			ID:         id,
			Name:       team.Name,
			SeedRating: seed,
			IsActive:   true,
			Kind:       models.CompetitorTeam,
			Roster:     roster,
		})
	}
	return out
}

func loneCompetitors(f *File) []models.Competitor {
	out := make([]models.Competitor, 0, len(f.Players))
	for _, id := range f.startNumbers() {
		p := f.Players[id]
		out = append(out, models.Competitor{
			ID:         id,
			Name:       p.Name,
			SeedRating: p.Rating,
			IsActive:   true,
			Kind:       models.CompetitorLone,
		})
	}
	return out
}

func (f *File) loneRound(n int) (models.Round, error) {
	r := models.Round{Number: n, IsCompleted: true}
	order := 1
	for _, p := range f.RoundPairings(n) {
		if _, ok := f.Players[p.BlackID]; !ok {
			return models.Round{}, fmt.Errorf("%w: player %d meets unknown player %d", ErrMalformedLine, p.WhiteID, p.BlackID)
		}
		m := models.NewMatch(p.WhiteID, p.BlackID, order)
		m.Games = []models.Game{{
			Board:   1,
			Player1: &models.Player{ID: p.WhiteID, CompetitorID: p.WhiteID},
			Player2: &models.Player{ID: p.BlackID, CompetitorID: p.BlackID},
			Result:  p.Result,
		}}
		r.Matches = append(r.Matches, m)
		order++
	}
	for _, id := range f.startNumbers() {
		p := f.Players[id]
		if n > len(p.Results) || !p.Results[n-1].IsBye() {
			continue
		}
		r.Matches = append(r.Matches, models.NewBye(id, ByeFor(p.Results[n-1].Symbol)))
	}
	return r, nil
}

type teamPair struct {
	white, black int
	games        []models.Game
}

func (f *File) teamRound(n int) (models.Round, error) {
	pairs := make(map[[2]int]*teamPair)
	for _, p := range f.RoundPairings(n) {
		wt, ok := f.TeamOf(p.WhiteID)
		if !ok {
			continue
		}
		bt, ok := f.TeamOf(p.BlackID)
		if !ok {
			continue
		}
		if wt == bt {
			return models.Round{}, fmt.Errorf("%w: players %d and %d share a team", ErrMalformedLine, p.WhiteID, p.BlackID)
		}
		white, black := wt+1, bt+1
		key := [2]int{min(white, black), max(white, black)}
		tp, ok := pairs[key]
		if !ok {
			tp = &teamPair{white: white, black: black}
			pairs[key] = tp
		}
		tp.games = append(tp.games, models.Game{
			Board:   p.Board,
			Player1: &models.Player{ID: p.WhiteID, CompetitorID: white},
			Player2: &models.Player{ID: p.BlackID, CompetitorID: black},
			Result:  p.Result,
		})
	}

	// the team holding white on board 1 is listed first
	list := make([]*teamPair, 0, len(pairs))
	for _, tp := range pairs {
		sort.Slice(tp.games, func(i, j int) bool { return tp.games[i].Board < tp.games[j].Board })
		first := tp.games[0].Player1.CompetitorID
		if first != tp.white {
			tp.white, tp.black = tp.black, tp.white
		}
		list = append(list, tp)
	}
	sort.Slice(list, func(i, j int) bool {
		return min(list[i].white, list[i].black) < min(list[j].white, list[j].black)
	})

	r := models.Round{Number: n, IsCompleted: true}
	paired := make(map[int]bool)
	for i, tp := range list {
		m := models.NewMatch(tp.white, tp.black, i+1)
		m.Games = tp.games
		r.Matches = append(r.Matches, m)
		paired[tp.white] = true
		paired[tp.black] = true
	}
	for i := range f.Teams {
		if id := i + 1; !paired[id] && f.teamPlayed(i, n) {
			r.Matches = append(r.Matches, models.NewBye(id, models.ByeFullPointPairing))
		}
	}
	return r, nil
}

// teamPlayed reports whether any member of the team has a record for round n.
func (f *File) teamPlayed(team, n int) bool {
	for _, id := range f.Teams[team].PlayerIDs {
		if p, ok := f.Players[id]; ok && n <= len(p.Results) {
			return true
		}
	}
	return false
}
