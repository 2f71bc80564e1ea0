// Package oracle speaks the line-based pairing interchange format used by
// external Dutch-system pairing programs.
package oracle

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

type Color string

const (
	ColorWhite Color = "w"
	ColorBlack Color = "b"
	ColorNone  Color = "-"
)

// Entry is one prior round of a player's history. OpponentID is nil for
// byes and missed rounds; Score is nil when the round was not scored.
type Entry struct {
	OpponentID *int
	Color      Color
	Score      *float64
	Forfeit    bool
}

// Player is one record line. Players are encoded in slice order and that
// order defines their 1-based indices.
type Player struct {
	ID                 int
	Score              float64
	History            []Entry
	Include            bool
	AccelerationScores []float64
}

// Pair is one line of oracle output in 1-based indices. Black is 0 for a bye.
type Pair struct {
	White int
	Black int
}

func (p Pair) IsBye() bool {
	return p.Black == 0
}

const (
	recordTag       = "001"
	accelerationTag = "XXA"
	roundsTag       = "XXR"
	noOpponent      = "0000"
)

// EncodeTRF renders the oracle input file.
func EncodeTRF(totalRounds int, players []Player) string {
	index := make(map[int]int, len(players))
	for i, p := range players {
		if _, ok := index[p.ID]; !ok {
			index[p.ID] = i + 1
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %d\n", roundsTag, totalRounds)
	for i, p := range players {
		fmt.Fprintf(&b, "%s  %3d  %74.1f     ", recordTag, i+1, p.Score)
		for _, e := range p.History {
			opponent := noOpponent
			if e.OpponentID != nil {
				if n, ok := index[*e.OpponentID]; ok {
					opponent = strconv.Itoa(n)
				}
			}
			color := e.Color
			if color == "" {
				color = ColorNone
			}
			symbol := scoreSymbol(e.Score, e.Forfeit)
			if symbol == " " {
				color = ColorNone
			}
			fmt.Fprintf(&b, "%6s %s %s", opponent, color, symbol)
		}
		if !p.Include {
			fmt.Fprintf(&b, "%6s %s %s", noOpponent, ColorNone, "-")
		}
		b.WriteString("\n")
	}

	for i, p := range players {
		if len(p.AccelerationScores) == 0 {
			continue
		}
		scores := make([]string, 0, len(p.AccelerationScores))
		for _, s := range p.AccelerationScores {
			scores = append(scores, fmt.Sprintf("%4.1f", s))
		}
		fmt.Fprintf(&b, "%s %4d %s\n", accelerationTag, i+1, strings.Join(scores, " "))
	}
	return b.String()
}

func scoreSymbol(score *float64, forfeit bool) string {
	if score == nil {
		return " "
	}
	switch *score {
	case 1:
		if forfeit {
			return "+"
		}
		return "1"
	case 0:
		if forfeit {
			return "-"
		}
		return "0"
	case 0.5:
		return "="
	}
	return " "
}

// DecodePairs reads oracle output: a pair count followed by that many
// "white black" lines.
func DecodePairs(r io.Reader) ([]Pair, error) {
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("read pair count: %w", err)
		}
		return nil, fmt.Errorf("empty oracle output")
	}
	count, err := strconv.Atoi(strings.TrimSpace(sc.Text()))
	if err != nil || count < 0 {
		return nil, fmt.Errorf("invalid pair count %q", sc.Text())
	}

	pairs := make([]Pair, 0, count)
	for len(pairs) < count {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return nil, fmt.Errorf("read pair %d: %w", len(pairs)+1, err)
			}
			return nil, fmt.Errorf("expected %d pairs, got %d", count, len(pairs))
		}
		fields := strings.Fields(sc.Text())
		if len(fields) != 2 {
			return nil, fmt.Errorf("invalid pair line %q", sc.Text())
		}
		w, errW := strconv.Atoi(fields[0])
		bl, errB := strconv.Atoi(fields[1])
		if errW != nil || errB != nil || w < 1 || bl < 0 {
			return nil, fmt.Errorf("invalid pair line %q", sc.Text())
		}
		pairs = append(pairs, Pair{White: w, Black: bl})
	}
	return pairs, nil
}

// EncodePairs renders pairs in the oracle output format.
func EncodePairs(pairs []Pair) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d\n", len(pairs))
	for _, p := range pairs {
		fmt.Fprintf(&b, "%d %d\n", p.White, p.Black)
	}
	return b.String()
}
