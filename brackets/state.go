package brackets

import "github.com/Dosada05/tournament-pairing/models"

type State string

const (
	StateCreated        State = "created"
	StateRoundPaired    State = "round-paired"
	StateRoundCompleted State = "round-completed"
	StateAdvanced       State = "advanced"
	StateCompleted      State = "completed"
)

// CurrentState derives where the bracket stands from its rounds.
func CurrentState(b models.KnockoutBracket, rounds []models.Round) State {
	if b.IsCompleted {
		return StateCompleted
	}
	var last *models.Round
	for i := range rounds {
		if len(rounds[i].Matches) == 0 {
			continue
		}
		if last == nil || rounds[i].Number > last.Number {
			last = &rounds[i]
		}
	}
	if last == nil {
		return StateCreated
	}
	if Status(b, *last).StageComplete {
		return StateRoundCompleted
	}
	if last.Number == 1 {
		return StateRoundPaired
	}
	return StateAdvanced
}
