package collector

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/momentum/internal/domain"
)

const twoRows = `[
	[1709251200000, "100.5", "101.0", "99.5", "100.8", "12.5", 1709251499999, "1260.0", 42, "6.1", "615.0", "0"],
	[1709251500000, 100.8, 102.25, 100.1, 101.9, 3, 1709251799999, "300.0", 7, "1.0", "100.0", "0"]
]`

func TestDecodeKlineRows(t *testing.T) {
	observations, err := DecodeKlineRows([]byte(twoRows), DefaultColumns)
	require.NoError(t, err)
	require.Len(t, observations, 2)

	first := observations[0]
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), first.OpenTime)
	assert.Equal(t, time.UTC, first.CloseTime.Location())
	assert.True(t, first.CloseTime.After(first.OpenTime))
	assert.True(t, decimal.RequireFromString("100.5").Equal(first.Open))
	assert.True(t, decimal.RequireFromString("101").Equal(first.High))
	assert.True(t, decimal.RequireFromString("99.5").Equal(first.Low))
	assert.True(t, decimal.RequireFromString("100.8").Equal(first.Close))
	assert.True(t, decimal.RequireFromString("12.5").Equal(first.Volume))

	second := observations[1]
	assert.True(t, decimal.RequireFromString("102.25").Equal(second.High), "numeric prices are accepted")
	assert.True(t, decimal.NewFromInt(3).Equal(second.Volume))
}

func TestDecodeKlineRowsByName(t *testing.T) {
	columns := []string{ColumnClose, ColumnCloseTime, ColumnOpen, ColumnOpenTime, ColumnLow, ColumnHigh}
	payload := `[["10", 1709251499999, "9", 1709251200000, "8", "11"]]`

	observations, err := DecodeKlineRows([]byte(payload), columns)
	require.NoError(t, err)
	require.Len(t, observations, 1)

	o := observations[0]
	assert.True(t, decimal.NewFromInt(9).Equal(o.Open))
	assert.True(t, decimal.NewFromInt(10).Equal(o.Close))
	assert.True(t, decimal.NewFromInt(11).Equal(o.High))
	assert.True(t, decimal.NewFromInt(8).Equal(o.Low))
	assert.True(t, o.Volume.IsZero(), "volume is optional")
}

func TestDecodeKlineRowsErrors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		columns []string
		wantErr error
	}{
		{
			name:    "missing close column",
			payload: `[]`,
			columns: []string{ColumnOpenTime, ColumnOpen, ColumnHigh, ColumnLow, ColumnCloseTime},
			wantErr: domain.ErrUnknownColumn,
		},
		{
			name:    "missing open time column",
			payload: `[]`,
			columns: []string{ColumnOpen, ColumnHigh, ColumnLow, ColumnClose, ColumnCloseTime},
			wantErr: domain.ErrUnknownColumn,
		},
		{
			name:    "short row",
			payload: `[[1709251200000, "1", "1", "1"]]`,
			columns: DefaultColumns,
			wantErr: domain.ErrMalformedSeries,
		},
		{
			name:    "bad price",
			payload: `[[1709251200000, "abc", "1", "1", "1", "1", 1709251499999, "0", 0, "0", "0", "0"]]`,
			columns: DefaultColumns,
			wantErr: domain.ErrMalformedSeries,
		},
		{
			name:    "bad timestamp",
			payload: `[["yesterday", "1", "1", "1", "1", "1", 1709251499999, "0", 0, "0", "0", "0"]]`,
			columns: DefaultColumns,
			wantErr: domain.ErrMalformedSeries,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeKlineRows([]byte(tt.payload), tt.columns)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestDecodeKlineRowsInvalidJSON(t *testing.T) {
	_, err := DecodeKlineRows([]byte(`{"not": "rows"}`), DefaultColumns)
	require.Error(t, err)
}
