package oracle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/Dosada05/tournament-pairing/models"
)

// Mode selects how hard the oracle searches.
type Mode int

const (
	// Heuristic is bounded in time and may give up with zero pairs.
	Heuristic Mode = iota
	// Deterministic is slower but always answers.
	Deterministic
)

func (m Mode) String() string {
	if m == Deterministic {
		return "deterministic"
	}
	return "heuristic"
}

// Oracle produces pairs for an encoded input file.
type Oracle interface {
	Pair(ctx context.Context, trf string, mode Mode) ([]Pair, error)
}

// Mode flags of JaVaFo. Other engines need their own.
var (
	DefaultHeuristicFlags     = []string{"-q", "10000"}
	DefaultDeterministicFlags = []string{"-w"}
)

// ProcessOracle runs an external pairing program:
// <command> <input> -p <output> <mode flags>.
type ProcessOracle struct {
	Command string
	TempDir string
	// Timeout bounds a heuristic run. A heuristic run that hits it gives
	// up with zero pairs; deterministic runs are bounded by ctx only.
	Timeout time.Duration

	HeuristicFlags     []string
	DeterministicFlags []string
}

func NewProcessOracle(command string) *ProcessOracle {
	return &ProcessOracle{Command: command}
}

func (o *ProcessOracle) flags(mode Mode) []string {
	if mode == Deterministic {
		if o.DeterministicFlags != nil {
			return o.DeterministicFlags
		}
		return DefaultDeterministicFlags
	}
	if o.HeuristicFlags != nil {
		return o.HeuristicFlags
	}
	return DefaultHeuristicFlags
}

func (o *ProcessOracle) Pair(ctx context.Context, trf string, mode Mode) ([]Pair, error) {
	argv := strings.Fields(o.Command)
	if len(argv) == 0 {
		return nil, fmt.Errorf("oracle command is not configured: %w", models.ErrPairingGeneration)
	}
	runCtx := ctx
	if mode == Heuristic && o.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, o.Timeout)
		defer cancel()
	}

	input, err := os.CreateTemp(o.TempDir, "pairing-*.trfx")
	if err != nil {
		return nil, fmt.Errorf("create oracle input: %w", err)
	}
	inputName := input.Name()
	outputName := inputName + ".out.txt"
	defer os.Remove(inputName)
	defer os.Remove(outputName)

	if _, err := input.WriteString(trf); err != nil {
		input.Close()
		return nil, fmt.Errorf("write oracle input: %w", err)
	}
	if err := input.Close(); err != nil {
		return nil, fmt.Errorf("close oracle input: %w", err)
	}

	args := append(argv[1:], inputName, "-p", outputName)
	args = append(args, o.flags(mode)...)
	cmd := exec.CommandContext(runCtx, argv[0], args...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		if ctx.Err() == nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, nil
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("oracle return code %d, output %q: %w",
				exitErr.ExitCode(), stdout.String(), models.ErrPairingGeneration)
		}
		return nil, fmt.Errorf("run oracle: %v: %w", err, models.ErrPairingGeneration)
	}

	out, err := os.Open(outputName)
	if err != nil {
		return nil, fmt.Errorf("open oracle output: %v: %w", err, models.ErrPairingGeneration)
	}
	defer out.Close()

	pairs, err := DecodePairs(out)
	if err != nil {
		return nil, fmt.Errorf("decode oracle output: %v: %w", err, models.ErrPairingGeneration)
	}
	return pairs, nil
}
