package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/tournament-pairing/models"
	"github.com/google/uuid"
)

const exchangeContentType = "text/plain; charset=utf-8"

// ExchangeArchive stores the text sent to and received from the pairing
// oracle so a generated round can be replayed later.
type ExchangeArchive struct {
	uploader FileUploader
}

func NewExchangeArchive(uploader FileUploader) *ExchangeArchive {
	return &ExchangeArchive{uploader: uploader}
}

// ExchangeKeys returns the object keys of one exchange.
func ExchangeKeys(tournamentID, round int, id uuid.UUID) (input, output string) {
	prefix := fmt.Sprintf("oracle/%d/round-%d/%s", tournamentID, round, id)
	return prefix + "/input.trf", prefix + "/output.txt"
}

// Store uploads both sides of an exchange under a fresh id. If the second
// upload fails the first object is removed again.
func (a *ExchangeArchive) Store(ctx context.Context, tournamentID, round int, input, output string) (*models.OracleExchange, error) {
	e := &models.OracleExchange{
		ID:           uuid.New(),
		TournamentID: tournamentID,
		RoundNumber:  round,
	}
	e.InputKey, e.OutputKey = ExchangeKeys(tournamentID, round, e.ID)

	if _, err := a.uploader.Upload(ctx, e.InputKey, exchangeContentType, strings.NewReader(input)); err != nil {
		return nil, fmt.Errorf("archive oracle input: %w", err)
	}
	if _, err := a.uploader.Upload(ctx, e.OutputKey, exchangeContentType, strings.NewReader(output)); err != nil {
		if delErr := a.uploader.Delete(ctx, e.InputKey); delErr != nil {
			err = errors.Join(err, delErr)
		}
		return nil, fmt.Errorf("archive oracle output: %w", err)
	}
	return e, nil
}

// Discard removes the objects of an exchange whose record was never saved.
func (a *ExchangeArchive) Discard(ctx context.Context, e *models.OracleExchange) error {
	return errors.Join(
		a.uploader.Delete(ctx, e.InputKey),
		a.uploader.Delete(ctx, e.OutputKey),
	)
}

func (a *ExchangeArchive) URLs(e models.OracleExchange) (input, output string) {
	return a.uploader.GetPublicURL(e.InputKey), a.uploader.GetPublicURL(e.OutputKey)
}
