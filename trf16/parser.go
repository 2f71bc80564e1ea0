package trf16

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Dosada05/tournament-pairing/models"
)

var ErrMalformedLine = errors.New("malformed trf16 line")

const (
	codePlayer = "001"
	codeTeam   = "013"
	noOpponent = "0000"

	// start number column of a player line
	startNumberFrom = 4
	startNumberTo   = 8
	minPlayerLine   = 90
)

var (
	teamLine  = regexp.MustCompile(`^013\s+(.+?)\s+(\d+(?:\s+\d+)*)\s*$`)
	roundDate = regexp.MustCompile(`\d{2}/\d{2}/\d{2}`)
	yearOnly  = regexp.MustCompile(`^\d{4}$`)
)

type Header struct {
	Name           string
	City           string
	Federation     string
	StartDate      time.Time
	EndDate        time.Time
	Players        int
	RatedPlayers   int
	Teams          int
	Type           string
	ChiefArbiter   string
	DeputyArbiters []string
	TimeControl    string
	RoundDates     []time.Time
	Rounds         int
}

// RoundResult is one round of a player line. OpponentID is nil for the
// "0000" marker.
type RoundResult struct {
	OpponentID *int
	Color      string
	Symbol     string
}

func (r RoundResult) IsBye() bool {
	return r.OpponentID == nil
}

type Player struct {
	StartNumber int
	Title       string
	Name        string
	Rating      int
	Federation  string
	FideID      string
	BirthYear   int
	Points      float64
	Rank        int
	Results     []RoundResult

	// Board is the position within the player's team, 0 without a team.
	Board int
}

type Team struct {
	Name      string
	PlayerIDs []int
}

// Pairing is a single game seen from the white player's line.
type Pairing struct {
	Round   int
	Board   int
	WhiteID int
	BlackID int
	Result  models.GameResult
}

type File struct {
	Header  Header
	Players map[int]*Player
	Teams   []Team
}

// Parse reads a TRF16 report. Header codes it does not know are ignored,
// malformed player and team lines are errors.
func Parse(r io.Reader) (*File, error) {
	f := &File{Players: make(map[int]*Player)}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if len(line) < 3 {
			continue
		}
		code := line[:3]
		var err error
		switch code {
		case codePlayer:
			var p *Player
			if p, err = parsePlayer(line); err == nil {
				if _, dup := f.Players[p.StartNumber]; dup {
					err = fmt.Errorf("duplicate start number %d", p.StartNumber)
				} else {
					f.Players[p.StartNumber] = p
				}
			}
		case codeTeam:
			var t Team
			if t, err = parseTeam(line); err == nil {
				f.Teams = append(f.Teams, t)
			}
		default:
			err = f.Header.set(code, line)
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	f.assignBoards()
	return f, nil
}

func (h *Header) set(code, line string) error {
	data := ""
	if len(line) > 4 {
		data = strings.TrimSpace(line[4:])
	}
	var err error
	switch code {
	case "012":
		h.Name = data
	case "022":
		h.City = data
	case "032":
		h.Federation = data
	case "042":
		h.StartDate = parseDate(data)
	case "052":
		h.EndDate = parseDate(data)
	case "062":
		parts := strings.Fields(data)
		if len(parts) == 0 {
			return fmt.Errorf("%w: empty player count", ErrMalformedLine)
		}
		if h.Players, err = strconv.Atoi(parts[0]); err != nil {
			return fmt.Errorf("%w: player count %q", ErrMalformedLine, parts[0])
		}
		if len(parts) > 1 && strings.HasPrefix(parts[1], "(") {
			if h.RatedPlayers, err = strconv.Atoi(strings.Trim(parts[1], "()")); err != nil {
				return fmt.Errorf("%w: rated player count %q", ErrMalformedLine, parts[1])
			}
		}
	case "072":
		if h.RatedPlayers, err = strconv.Atoi(data); err != nil {
			return fmt.Errorf("%w: rated player count %q", ErrMalformedLine, data)
		}
	case "082":
		if h.Teams, err = strconv.Atoi(data); err != nil {
			return fmt.Errorf("%w: team count %q", ErrMalformedLine, data)
		}
	case "092":
		h.Type = data
	case "102":
		h.ChiefArbiter = data
	case "112":
		h.DeputyArbiters = strings.Split(data, ", ")
	case "122":
		h.TimeControl = data
	case "132":
		for _, d := range roundDate.FindAllString(data, -1) {
			h.RoundDates = append(h.RoundDates, parseDate(d))
		}
	case "142":
		if h.Rounds, err = strconv.Atoi(data); err != nil {
			return fmt.Errorf("%w: round count %q", ErrMalformedLine, data)
		}
	}
	return nil
}

// parseDate accepts YYYY/MM/DD and the short YY/MM/DD round dates. Anything
// else yields the zero time.
func parseDate(s string) time.Time {
	for _, layout := range []string{"2006/01/02", "06/01/02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func parsePlayer(line string) (*Player, error) {
	if len(line) < minPlayerLine {
		return nil, fmt.Errorf("%w: player line too short", ErrMalformedLine)
	}
	start, err := strconv.Atoi(strings.TrimSpace(line[startNumberFrom:startNumberTo]))
	if err != nil {
		return nil, fmt.Errorf("%w: start number %q", ErrMalformedLine, line[startNumberFrom:startNumberTo])
	}

	parts := strings.Fields(line)
	if len(parts) < 4 {
		return nil, fmt.Errorf("%w: player %d has no name", ErrMalformedLine, start)
	}
	p := &Player{StartNumber: start, Title: parts[2]}

	idx := 3
	var name []string
	for idx < len(parts) && !yearOnly.MatchString(parts[idx]) {
		name = append(name, parts[idx])
		idx++
	}
	if idx >= len(parts) {
		return nil, fmt.Errorf("%w: player %d has no rating", ErrMalformedLine, start)
	}
	p.Name = strings.Join(name, " ")
	p.Rating, _ = strconv.Atoi(parts[idx]) // "0000" is unrated
	idx++

	next := func() string {
		if idx >= len(parts) {
			return ""
		}
		s := parts[idx]
		idx++
		return s
	}
	p.Federation = next()
	p.FideID = next()
	if birth, _, ok := strings.Cut(next(), "/"); ok {
		p.BirthYear, _ = strconv.Atoi(birth)
	}
	if s := next(); s != "" {
		if p.Points, err = strconv.ParseFloat(s, 64); err != nil {
			return nil, fmt.Errorf("%w: points %q for player %d", ErrMalformedLine, s, start)
		}
	}
	if s := next(); s != "" {
		if p.Rank, err = strconv.Atoi(s); err != nil {
			return nil, fmt.Errorf("%w: rank %q for player %d", ErrMalformedLine, s, start)
		}
	}

	for ; idx+2 < len(parts); idx += 3 {
		opp, color, symbol := parts[idx], parts[idx+1], parts[idx+2]
		if opp == noOpponent {
			p.Results = append(p.Results, RoundResult{Color: "-", Symbol: symbol})
			continue
		}
		n, err := strconv.Atoi(opp)
		if err != nil {
			return nil, fmt.Errorf("%w: opponent %q for player %d", ErrMalformedLine, opp, start)
		}
		p.Results = append(p.Results, RoundResult{OpponentID: &n, Color: color, Symbol: symbol})
	}
	return p, nil
}

func parseTeam(line string) (Team, error) {
	m := teamLine.FindStringSubmatch(line)
	if m == nil {
		return Team{}, fmt.Errorf("%w: team line %q", ErrMalformedLine, line)
	}
	t := Team{Name: m[1]}
	for _, s := range strings.Fields(m[2]) {
		id, err := strconv.Atoi(s)
		if err != nil {
			return Team{}, fmt.Errorf("%w: team member %q", ErrMalformedLine, s)
		}
		t.PlayerIDs = append(t.PlayerIDs, id)
	}
	return t, nil
}

// assignBoards numbers each team's players 1..n in the order the team line
// lists them.
func (f *File) assignBoards() {
	for _, t := range f.Teams {
		board := 1
		for _, id := range t.PlayerIDs {
			if p, ok := f.Players[id]; ok {
				p.Board = board
				board++
			}
		}
	}
}

// TeamOf returns the index into Teams of the player's team.
func (f *File) TeamOf(playerID int) (int, bool) {
	for i, t := range f.Teams {
		for _, id := range t.PlayerIDs {
			if id == playerID {
				return i, true
			}
		}
	}
	return -1, false
}

// RoundPairings lists the games of round n, read from the white players'
// lines and ordered by white start number.
func (f *File) RoundPairings(n int) []Pairing {
	var out []Pairing
	for _, id := range f.startNumbers() {
		p := f.Players[id]
		if n < 1 || n > len(p.Results) {
			continue
		}
		res := p.Results[n-1]
		if res.OpponentID == nil || res.Color != "w" {
			continue
		}
		out = append(out, Pairing{
			Round:   n,
			Board:   p.Board,
			WhiteID: id,
			BlackID: *res.OpponentID,
			Result:  ResultFor(res.Symbol),
		})
	}
	return out
}

func (f *File) startNumbers() []int {
	ids := make([]int, 0, len(f.Players))
	for id := range f.Players {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// ResultFor maps a result symbol from white's line to a game result.
func ResultFor(symbol string) models.GameResult {
	switch symbol {
	case "1", "W":
		return models.ResultP1Win
	case "0", "L":
		return models.ResultP2Win
	case "=", "1/2", "D":
		return models.ResultDraw
	case "+":
		return models.ResultP1ForfeitWin
	case "-":
		return models.ResultP2ForfeitWin
	default:
		return models.ResultNone
	}
}

// ByeFor maps the symbol of a "0000" round to the bye it records.
func ByeFor(symbol string) models.ByeType {
	switch symbol {
	case "U", "+", "1":
		return models.ByeFullPointPairing
	case "F":
		return models.ByeFullPoint
	case "H", "=":
		return models.ByeHalfPoint
	default:
		return models.ByeZeroPoint
	}
}
