package archive

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/pagehound/scraperd/internal/scraper"
)

func TestWriteOutcomeInsertsRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	writer, err := NewPostgresWriterWithPool(mock, "selector_outcomes")
	require.NoError(t, err)

	now := time.Unix(1700000000, 0).UTC()
	outcome := scraper.Outcome{
		URL:         "https://example.com/item",
		Selector:    ".price",
		ElementType: "price",
		Success:     true,
		Timestamp:   now,
	}

	mock.ExpectExec("INSERT INTO selector_outcomes").
		WithArgs(outcome.URL, outcome.Selector, outcome.ElementType, outcome.Success, outcome.Timestamp).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, writer.WriteOutcome(context.Background(), outcome))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWriteOutcomePropagatesExecError(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	writer, err := NewPostgresWriterWithPool(mock, "selector_outcomes")
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO selector_outcomes").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("connection reset"))

	err = writer.WriteOutcome(context.Background(), scraper.Outcome{URL: "https://example.com", Selector: ".a"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "insert outcome")
}

func TestNewPostgresWriterWithPoolValidation(t *testing.T) {
	t.Parallel()

	_, err := NewPostgresWriterWithPool(nil, "t")
	require.Error(t, err)

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewPostgresWriterWithPool(mock, "bad;table")
	require.Error(t, err)

	writer, err := NewPostgresWriterWithPool(mock, "")
	require.NoError(t, err)
	require.Equal(t, "selector_outcomes", writer.table)
}
