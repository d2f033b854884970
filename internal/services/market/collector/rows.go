package collector

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/momentum/internal/domain"
)

// Column names of a raw Binance kline row.
const (
	ColumnOpenTime            = "Open time"
	ColumnOpen                = "Open"
	ColumnHigh                = "High"
	ColumnLow                 = "Low"
	ColumnClose               = "Close"
	ColumnVolume              = "Volume"
	ColumnCloseTime           = "Close time"
	ColumnQuoteAssetVolume    = "Quote asset volume"
	ColumnNumberOfTrades      = "Number of trades"
	ColumnTakerBuyBaseVolume  = "Taker buy base asset volume"
	ColumnTakerBuyQuoteVolume = "Taker buy quote asset volume"
	ColumnIgnore              = "Ignore"
)

// DefaultColumns is the 12-field layout of the Binance klines endpoint.
var DefaultColumns = []string{
	ColumnOpenTime, ColumnOpen, ColumnHigh, ColumnLow, ColumnClose, ColumnVolume, ColumnCloseTime,
	ColumnQuoteAssetVolume, ColumnNumberOfTrades, ColumnTakerBuyBaseVolume, ColumnTakerBuyQuoteVolume, ColumnIgnore,
}

// Schema positions of the consumed fields inside a raw row.
type Schema struct {
	width     int
	openTime  int
	open      int
	high      int
	low       int
	close     int
	closeTime int
	// volume is -1 when the layout carries no volume column.
	volume int
}

// NewSchema resolves the consumed fields by name.
func NewSchema(columns []string) (Schema, error) {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[c] = i
	}

	lookup := func(name string) (int, error) {
		i, ok := index[name]
		if !ok {
			return 0, errors.Wrapf(domain.ErrUnknownColumn, "column %q not found in %q", name, columns)
		}
		return i, nil
	}

	var (
		s   = Schema{width: len(columns), volume: -1}
		err error
	)
	if s.openTime, err = lookup(ColumnOpenTime); err != nil {
		return Schema{}, err
	}
	if s.closeTime, err = lookup(ColumnCloseTime); err != nil {
		return Schema{}, err
	}
	if s.open, err = lookup(ColumnOpen); err != nil {
		return Schema{}, err
	}
	if s.high, err = lookup(ColumnHigh); err != nil {
		return Schema{}, err
	}
	if s.low, err = lookup(ColumnLow); err != nil {
		return Schema{}, err
	}
	if s.close, err = lookup(ColumnClose); err != nil {
		return Schema{}, err
	}
	if i, ok := index[ColumnVolume]; ok {
		s.volume = i
	}

	return s, nil
}

// DecodeKlineRows decodes a JSON array of raw kline rows laid out according to columns.
// Timestamps are epoch milliseconds; prices may be JSON strings or numbers.
func DecodeKlineRows(payload []byte, columns []string) ([]domain.Observation, error) {
	schema, err := NewSchema(columns)
	if err != nil {
		return nil, err
	}

	var rows [][]json.RawMessage
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, errors.Wrap(err, "decode kline rows")
	}

	result := make([]domain.Observation, len(rows))
	for i, row := range rows {
		observation, err := schema.decodeRow(row)
		if err != nil {
			return nil, errors.Wrapf(err, "kline row %d", i)
		}
		result[i] = observation
	}

	return result, nil
}

func (s Schema) decodeRow(row []json.RawMessage) (domain.Observation, error) {
	if len(row) != s.width {
		return domain.Observation{}, errors.Wrapf(domain.ErrMalformedSeries, "expected %d fields, got %d", s.width, len(row))
	}

	var (
		o   domain.Observation
		err error
	)

	var openTime, closeTime int64
	if err = json.Unmarshal(row[s.openTime], &openTime); err != nil {
		return domain.Observation{}, errors.Wrapf(domain.ErrMalformedSeries, "open time: %v", err)
	}
	if err = json.Unmarshal(row[s.closeTime], &closeTime); err != nil {
		return domain.Observation{}, errors.Wrapf(domain.ErrMalformedSeries, "close time: %v", err)
	}
	o.OpenTime = millisToTime(openTime)
	o.CloseTime = millisToTime(closeTime)

	if o.Open, err = decodeDecimal(row[s.open], ColumnOpen); err != nil {
		return domain.Observation{}, err
	}
	if o.High, err = decodeDecimal(row[s.high], ColumnHigh); err != nil {
		return domain.Observation{}, err
	}
	if o.Low, err = decodeDecimal(row[s.low], ColumnLow); err != nil {
		return domain.Observation{}, err
	}
	if o.Close, err = decodeDecimal(row[s.close], ColumnClose); err != nil {
		return domain.Observation{}, err
	}
	if s.volume >= 0 {
		if o.Volume, err = decodeDecimal(row[s.volume], ColumnVolume); err != nil {
			return domain.Observation{}, err
		}
	}

	return o, nil
}

func decodeDecimal(raw json.RawMessage, column string) (decimal.Decimal, error) {
	var v decimal.Decimal
	if err := json.Unmarshal(raw, &v); err != nil {
		return decimal.Zero, errors.Wrapf(domain.ErrMalformedSeries, "%s: %v", column, err)
	}
	return v, nil
}
