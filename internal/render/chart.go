package render

import (
	"errors"
	"time"

	"github.com/dgnsrekt/vcp_tinder/internal/market"
	"github.com/dgnsrekt/vcp_tinder/internal/viewport"
	"github.com/vicanso/go-charts/v2"
)

const (
	chartWidth  = 1000
	chartHeight = 600
)

// ChartPNG renders the closes of the visible window as a PNG with the axis
// bounds the session would show, so a snapshot looks like what the operator
// saw rather than a rescaled view.
func ChartPNG(title string, bars market.Series, ranges viewport.Ranges) ([]byte, int, int, error) {
	if len(bars) == 0 {
		return nil, 0, 0, errors.New("no bars in window")
	}

	closes := make([]float64, len(bars))
	labels := make([]string, len(bars))
	for i, b := range bars {
		closes[i] = b.C
		labels[i] = time.Unix(b.T, 0).UTC().Format("2006-01-02")
	}

	yMin := ranges.Price.Min
	yMax := ranges.Price.Max
	split := len(bars) / 12
	if split < 4 {
		split = 4
	}

	painter, err := charts.LineRender([][]float64{closes},
		charts.TitleTextOptionFunc(title),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: labels, BoundaryGap: charts.FalseFlag(), SplitNumber: split}),
		charts.YAxisOptionFunc(charts.YAxisOption{Min: &yMin, Max: &yMax, DivideCount: 5}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(chartWidth),
		charts.HeightOptionFunc(chartHeight),
	)
	if err != nil {
		return nil, 0, 0, err
	}
	img, err := painter.Bytes()
	if err != nil {
		return nil, 0, 0, err
	}
	return img, chartWidth, chartHeight, nil
}
