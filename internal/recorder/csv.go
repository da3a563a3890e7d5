package recorder

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"SignalSentinel/internal/model"
)

const csvSuffix = "_historical_data_"

var csvHeader = []string{"Asset", "Time", "Open", "High", "Low", "Close", "Tick_volume", "Spread", "Real_volume"}

// CSVRecorder stores one file per asset and timeframe under Dir, named
// {asset}_historical_data_{timeframe}.csv.
type CSVRecorder struct {
	Dir string
	mu  sync.Mutex
}

// NewCSVRecorder creates dir if needed.
func NewCSVRecorder(dir string) (*CSVRecorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &CSVRecorder{Dir: dir}, nil
}

func (r *CSVRecorder) path(asset string, tf model.Timeframe) string {
	return filepath.Join(r.Dir, asset+csvSuffix+string(tf)+".csv")
}

func (r *CSVRecorder) RecordBars(_ context.Context, asset string, tf model.Timeframe, bars []model.OHLCV) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Write to a temp file and rename so readers never see a partial file.
	final := r.path(asset, tf)
	tmp, err := os.CreateTemp(r.Dir, filepath.Base(final)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(csvHeader); err != nil {
		tmp.Close()
		return err
	}
	for _, b := range bars {
		rec := []string{
			asset,
			strconv.FormatInt(b.Time.Unix(), 10),
			formatFloat(b.Open),
			formatFloat(b.High),
			formatFloat(b.Low),
			formatFloat(b.Close),
			formatFloat(b.Volume),
			"0",
			"0",
		}
		if err := w.Write(rec); err != nil {
			tmp.Close()
			return fmt.Errorf("write %s: %w", asset, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush %s: %w", asset, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), final)
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func (r *CSVRecorder) LoadSeries(_ context.Context, asset string, tf model.Timeframe) (*model.Series, error) {
	f, err := os.Open(r.path(asset, tf))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s/%s: %w", asset, tf, model.ErrMissingSeries)
		}
		return nil, err
	}
	defer f.Close()

	bars, err := parseBars(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s/%s: %w", asset, tf, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s/%s: %w", asset, tf, model.ErrMissingSeries)
	}
	return &model.Series{Asset: asset, Timeframe: tf, Bars: bars}, nil
}

// parseBars reads rows laid out as csvHeader. Columns are located by header
// name so files with extra columns still load.
func parseBars(rd io.Reader) ([]model.OHLCV, error) {
	cr := csv.NewReader(rd)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, err
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, need := range []string{"time", "open", "high", "low", "close"} {
		if _, ok := col[need]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", model.ErrMalformedBar, need)
		}
	}
	volCol, hasVol := col["tick_volume"]

	var bars []model.OHLCV
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		field := func(name string) (float64, error) {
			i := col[name]
			if i >= len(rec) {
				return 0, fmt.Errorf("%w: line %d: missing %s", model.ErrMalformedBar, line, name)
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
			if err != nil {
				return 0, fmt.Errorf("%w: line %d: %s: %v", model.ErrMalformedBar, line, name, err)
			}
			return v, nil
		}

		var b model.OHLCV
		ts, err := field("time")
		if err != nil {
			return nil, err
		}
		b.Time = time.Unix(int64(ts), 0).UTC()
		if b.Open, err = field("open"); err != nil {
			return nil, err
		}
		if b.High, err = field("high"); err != nil {
			return nil, err
		}
		if b.Low, err = field("low"); err != nil {
			return nil, err
		}
		if b.Close, err = field("close"); err != nil {
			return nil, err
		}
		if hasVol && volCol < len(rec) {
			b.Volume, _ = strconv.ParseFloat(strings.TrimSpace(rec[volCol]), 64)
		}
		bars = append(bars, b)
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

func (r *CSVRecorder) Assets(_ context.Context, tf model.Timeframe) ([]string, error) {
	suffix := csvSuffix + string(tf) + ".csv"
	entries, err := os.ReadDir(r.Dir)
	if err != nil {
		return nil, err
	}
	var assets []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, suffix) {
			continue
		}
		assets = append(assets, strings.TrimSuffix(name, suffix))
	}
	sort.Strings(assets)
	return assets, nil
}

func (r *CSVRecorder) Close() error { return nil }
