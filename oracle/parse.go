package oracle

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Triple is one round of a parsed record. Opponent is 0 for "0000".
type Triple struct {
	Opponent int
	Color    Color
	Symbol   string
}

// IsBye reports a round without an opponent that still scored points.
func (t Triple) IsBye() bool {
	return t.Opponent == 0 && (t.Symbol == "+" || t.Symbol == "=" || t.Symbol == "1")
}

type Record struct {
	Index    int
	Score    float64
	Rounds   []Triple
	Excluded bool
}

// Input is a parsed oracle input file.
type Input struct {
	TotalRounds  int
	Records      []Record
	Acceleration map[int][]float64
}

const (
	recordPrefixLen = 89 // "001  nnn  " + 74-wide score + 5 spaces
	tripleLen       = 10
)

// ParseTRF reads back a file produced by EncodeTRF. The exclusion marker
// is recognised as the one extra triple that excluded records carry over
// the shortest history in the file.
func ParseTRF(r io.Reader) (*Input, error) {
	in := &Input{Acceleration: make(map[int][]float64)}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, roundsTag):
			n, err := strconv.Atoi(strings.TrimSpace(line[len(roundsTag):]))
			if err != nil {
				return nil, fmt.Errorf("invalid round count line %q", line)
			}
			in.TotalRounds = n
		case strings.HasPrefix(line, accelerationTag):
			fields := strings.Fields(line[len(accelerationTag):])
			if len(fields) < 1 {
				return nil, fmt.Errorf("invalid acceleration line %q", line)
			}
			idx, err := strconv.Atoi(fields[0])
			if err != nil {
				return nil, fmt.Errorf("invalid acceleration line %q", line)
			}
			for _, f := range fields[1:] {
				v, err := strconv.ParseFloat(f, 64)
				if err != nil {
					return nil, fmt.Errorf("invalid acceleration score %q", f)
				}
				in.Acceleration[idx] = append(in.Acceleration[idx], v)
			}
		case strings.HasPrefix(line, recordTag):
			rec, err := parseRecord(line)
			if err != nil {
				return nil, err
			}
			in.Records = append(in.Records, rec)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	if len(in.Records) > 0 {
		history := len(in.Records[0].Rounds)
		for _, rec := range in.Records {
			if len(rec.Rounds) < history {
				history = len(rec.Rounds)
			}
		}
		for i := range in.Records {
			rec := &in.Records[i]
			if len(rec.Rounds) > history {
				rec.Excluded = true
				rec.Rounds = rec.Rounds[:history]
			}
		}
	}
	return in, nil
}

func parseRecord(line string) (Record, error) {
	if len(line) < recordPrefixLen {
		line += strings.Repeat(" ", recordPrefixLen-len(line))
	}
	idx, err := strconv.Atoi(strings.TrimSpace(line[5:8]))
	if err != nil {
		return Record{}, fmt.Errorf("invalid record index in %q", line)
	}
	score, err := strconv.ParseFloat(strings.TrimSpace(line[10:84]), 64)
	if err != nil {
		return Record{}, fmt.Errorf("invalid score for record %d", idx)
	}

	rec := Record{Index: idx, Score: score}
	rest := line[recordPrefixLen:]
	for len(rest) > 0 {
		chunk := rest
		if len(chunk) > tripleLen {
			chunk = chunk[:tripleLen]
		}
		rest = rest[len(chunk):]
		if len(chunk) < tripleLen {
			chunk += strings.Repeat(" ", tripleLen-len(chunk))
		}
		opp := strings.TrimSpace(chunk[:6])
		n := 0
		if opp != noOpponent {
			if n, err = strconv.Atoi(opp); err != nil {
				return Record{}, fmt.Errorf("invalid opponent %q for record %d", opp, idx)
			}
		}
		rec.Rounds = append(rec.Rounds, Triple{
			Opponent: n,
			Color:    Color(chunk[7:8]),
			Symbol:   chunk[9:10],
		})
	}
	return rec, nil
}
