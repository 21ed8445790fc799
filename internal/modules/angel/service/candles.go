package service

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"signal_bot/internal/models"
)

const (
	requestLayout = "2006-01-02 15:04"
	rowTimeLayout = "2006-01-02T15:04:05-07:00"
)

type FetchRequest struct {
	Instrument models.Instrument
	Timeframe  models.Timeframe
	Count      int
	From, To   time.Time
}

type candleRequest struct {
	Exchange    string `json:"exchange"`
	SymbolToken string `json:"symboltoken"`
	Interval    string `json:"interval"`
	FromDate    string `json:"fromdate"`
	ToDate      string `json:"todate"`
}

// Fetch returns up to Count newest rows inside [From, To], oldest first.
// Malformed rows are dropped one by one. An auth failure triggers one renewal
// and one retry.
func (c *Client) Fetch(ctx context.Context, r FetchRequest) ([]models.Candle, error) {
	if !r.Timeframe.IsValid() {
		return nil, errors.Wrapf(models.ErrUnknownTimeframe, "%q", r.Timeframe)
	}
	req := candleRequest{
		Exchange:    r.Instrument.Exchange,
		SymbolToken: r.Instrument.Token,
		Interval:    r.Timeframe.ProviderInterval(),
		FromDate:    r.From.Format(requestLayout),
		ToDate:      r.To.Format(requestLayout),
	}

	if !c.current().valid() {
		if err := c.renew(ctx); err != nil {
			return nil, err
		}
	}

	var rows [][]any
	err := c.call(ctx, pathCandles, c.current().JWT, req, &rows)
	if errors.Is(err, ErrAuth) {
		c.log.Warn("candle request rejected, renewing session", zap.String("instrument", r.Instrument.ID), zap.Error(err))
		if rerr := c.renew(ctx); rerr != nil {
			return nil, rerr
		}
		rows = nil
		err = c.call(ctx, pathCandles, c.current().JWT, req, &rows)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "candles %s", r.Instrument.ID)
	}

	out := make([]models.Candle, 0, len(rows))
	for i, row := range rows {
		cd, perr := parseRow(row, r.To.Location())
		if perr != nil {
			c.log.Debug("dropping malformed candle", zap.String("instrument", r.Instrument.ID), zap.Int("row", i), zap.Error(perr))
			continue
		}
		out = append(out, cd)
	}
	if r.Count > 0 && len(out) > r.Count {
		out = out[len(out)-r.Count:]
	}
	return out, nil
}

func parseRow(row []any, loc *time.Location) (models.Candle, error) {
	if len(row) < 6 {
		return models.Candle{}, errors.Errorf("want 6 fields, got %d", len(row))
	}
	ts, ok := row[0].(string)
	if !ok {
		return models.Candle{}, errors.Errorf("timestamp is %T", row[0])
	}
	t, err := time.Parse(rowTimeLayout, ts)
	if err != nil {
		return models.Candle{}, errors.Wrap(err, "timestamp")
	}
	if loc != nil {
		t = t.In(loc)
	}

	var px [4]float64
	for i := range px {
		if px[i], err = number(row[i+1]); err != nil {
			return models.Candle{}, errors.Wrapf(err, "field %d", i+1)
		}
	}
	vol, err := number(row[5])
	if err != nil || vol < 0 {
		return models.Candle{}, errors.Errorf("bad volume %v", row[5])
	}

	return models.Candle{
		OpenTime: t,
		Open:     px[0],
		High:     px[1],
		Low:      px[2],
		Close:    px[3],
		Volume:   int64(vol),
	}, nil
}

func number(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	case string:
		return strconv.ParseFloat(n, 64)
	default:
		return 0, errors.Errorf("not a number: %T", v)
	}
}
