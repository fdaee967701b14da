// Copyright CSV Chart Authors
// SPDX-License-Identifier: Apache-2.0

// Package chartimage draws extracted chart data as a PNG bar chart.
package chartimage

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/halejandromedinag15-gif/Proyecto1final/pkg/core/chart"
)

var (
	// ErrNoData is returned when there is nothing to draw.
	ErrNoData = errors.New("no data to plot")
	// ErrNonNumeric is returned when a value does not parse as a number.
	ErrNonNumeric = errors.New("value is not numeric")
)

// Options sets the image size in inches.
type Options struct {
	Width  float64
	Height float64
}

func (o Options) size() (vg.Length, vg.Length) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = 8
	}
	if h <= 0 {
		h = 4
	}
	return vg.Length(w) * vg.Inch, vg.Length(h) * vg.Inch
}

// ParseValues converts chart values to floats. Surrounding spaces are ignored.
func ParseValues(values []string) ([]float64, error) {
	out := make([]float64, len(values))
	for i, v := range values {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: row %d %q", ErrNonNumeric, i+1, v)
		}
		out[i] = f
	}
	return out, nil
}

// Render draws data as a bar chart and returns the PNG bytes.
func Render(data *chart.Data, opts Options) ([]byte, error) {
	if data == nil || data.Len() == 0 {
		return nil, ErrNoData
	}
	values, err := ParseValues(data.Values)
	if err != nil {
		return nil, err
	}

	p := plot.New()
	p.Title.Text = data.Title
	p.Add(plotter.NewGrid())

	width, height := opts.size()
	barWidth := width * 0.7 / vg.Length(len(values))
	if maxWidth := vg.Points(40); barWidth > maxWidth {
		barWidth = maxWidth
	}

	bars, err := plotter.NewBarChart(plotter.Values(values), barWidth)
	if err != nil {
		return nil, fmt.Errorf("create bar chart: %w", err)
	}
	bars.LineStyle.Width = vg.Length(0)
	bars.Color = color.RGBA{R: 54, G: 162, B: 235, A: 255}
	p.Add(bars)
	p.NominalX(data.Labels...)

	writer, err := p.WriterTo(width, height, "png")
	if err != nil {
		return nil, fmt.Errorf("create plot writer: %w", err)
	}

	var buf bytes.Buffer
	if _, err := writer.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write plot: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderBase64 is Render encoded for an inline data URL.
func RenderBase64(data *chart.Data, opts Options) (string, error) {
	png, err := Render(data, opts)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(png), nil
}
