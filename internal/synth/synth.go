// Package synth generates labeled synthetic chart data: volatility
// contraction patterns as positives and megaphone expansions as negatives.
// Generated tickers carry a random suffix so repeated runs merge into an
// existing data directory instead of clobbering it.
package synth

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/dgnsrekt/vcp_tinder/internal/annotation"
	"github.com/dgnsrekt/vcp_tinder/internal/market"
	"github.com/google/uuid"
)

const secondsPerDay = 86400

// Sample is one generated ticker plus the annotation seeded with it.
type Sample struct {
	Ticker string
	Series market.Series
	Annos  annotation.Set
}

// Generator derives all randomness from one source so runs can be seeded
// deterministically in tests.
type Generator struct {
	rng *rand.Rand
}

func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

func (g *Generator) normal(mean, stddev float64) float64 {
	return mean + g.rng.NormFloat64()*stddev
}

// linspace mirrors the usual inclusive-endpoint ramp. n must be >= 2.
func linspace(start, stop float64, n int) []float64 {
	out := make([]float64, n)
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// buildBars wraps a close-price curve into noisy OHLCV bars. volatility and
// volume run parallel to the curve.
func (g *Generator) buildBars(curve, volatility, volume []float64, startTS int64) market.Series {
	series := make(market.Series, len(curve))
	ts := startTS
	for i, c := range curve {
		vol := volatility[i]
		noiseH := math.Abs(g.normal(0, vol*0.2))
		noiseL := math.Abs(g.normal(0, vol*0.2))

		o := c + g.normal(0, vol*0.1)
		h := math.Max(o, c) + noiseH + vol/2
		l := math.Min(o, c) - noiseL - vol/2
		v := volume[i] * g.uniform(0.7, 1.3)

		series[i] = market.Bar{
			T: ts,
			O: round2(o),
			H: round2(h),
			L: round2(l),
			C: round2(c),
			V: math.Round(v),
		}
		ts += secondsPerDay
	}
	return series
}

type phaseLens struct {
	runUp    int
	base     int
	breakout int
}

func (g *Generator) rollPhases() phaseLens {
	return phaseLens{
		runUp:    int(g.uniform(60, 150)),
		base:     int(g.uniform(40, 120)),
		breakout: int(g.uniform(10, 40)),
	}
}

// VCP produces a run-up, a dampened oscillation base, and an upside
// breakout, annotated over the base with the top score.
func (g *Generator) VCP() Sample {
	ticker := fmt.Sprintf("SYN_VCP_%s", uuid.New().String()[:8])
	phases := g.rollPhases()

	startTS := int64(g.uniform(1500000000, 1700000000))
	startPrice := g.uniform(20.0, 300.0)
	amplitude := startPrice * g.uniform(0.1, 0.3)

	runUp := linspace(startPrice, startPrice*g.uniform(1.3, 2.0), phases.runUp)
	volRunUp := constSlice(phases.runUp, startPrice*0.03)
	volmRunUp := constSlice(phases.runUp, g.uniform(500000, 2000000))

	// Oscillation with shrinking amplitude: each swing tighter than the last.
	x := linspace(0, g.uniform(3, 5)*math.Pi, phases.base)
	damping := linspace(1.0, g.uniform(0.05, 0.2), phases.base)
	base := make([]float64, phases.base)
	volBase := make([]float64, phases.base)
	for i := range base {
		base[i] = runUp[len(runUp)-1] + amplitude*math.Sin(x[i])*damping[i]
		volBase[i] = startPrice * 0.05 * damping[i]
	}
	volmBase := linspace(volmRunUp[0], volmRunUp[0]*g.uniform(0.1, 0.3), phases.base)

	breakout := linspace(base[len(base)-1], base[len(base)-1]*1.2, phases.breakout)
	volBreakout := constSlice(phases.breakout, startPrice*0.04)
	volmBreakout := constSlice(phases.breakout, volmBase[len(volmBase)-1]*g.uniform(3.0, 6.0))

	series := g.buildBars(
		concat(runUp, base, breakout),
		concat(volRunUp, volBase, volBreakout),
		concat(volmRunUp, volmBase, volmBreakout),
		startTS,
	)

	return Sample{
		Ticker: ticker,
		Series: series,
		Annos:  seedAnnotation(series, phases, 6),
	}
}

// Megaphone produces the anti-pattern: the same run-up but an amplifying
// oscillation and a crash instead of a breakout, scored at the bottom.
func (g *Generator) Megaphone() Sample {
	ticker := fmt.Sprintf("SYN_ANTI_%s", uuid.New().String()[:8])
	phases := g.rollPhases()

	startTS := int64(g.uniform(1500000000, 1700000000))
	startPrice := g.uniform(20.0, 300.0)
	amplitude := startPrice * g.uniform(0.05, 0.15)

	runUp := linspace(startPrice, startPrice*g.uniform(1.3, 2.0), phases.runUp)
	volRunUp := constSlice(phases.runUp, startPrice*0.03)
	volmRunUp := constSlice(phases.runUp, g.uniform(500000, 2000000))

	x := linspace(0, g.uniform(3, 5)*math.Pi, phases.base)
	amplification := linspace(0.2, g.uniform(1.5, 2.5), phases.base)
	base := make([]float64, phases.base)
	volBase := make([]float64, phases.base)
	for i := range base {
		base[i] = runUp[len(runUp)-1] + amplitude*math.Sin(x[i])*amplification[i]
		volBase[i] = startPrice * 0.03 * amplification[i]
	}
	volmBase := linspace(volmRunUp[0]*0.5, volmRunUp[0]*2.0, phases.base)

	breakout := linspace(base[len(base)-1], base[len(base)-1]*0.7, phases.breakout)
	volBreakout := constSlice(phases.breakout, startPrice*0.08)
	volmBreakout := constSlice(phases.breakout, volmBase[len(volmBase)-1]*2.0)

	series := g.buildBars(
		concat(runUp, base, breakout),
		concat(volRunUp, volBase, volBreakout),
		concat(volmRunUp, volmBase, volmBreakout),
		startTS,
	)

	return Sample{
		Ticker: ticker,
		Series: series,
		Annos:  seedAnnotation(series, phases, 1),
	}
}

func seedAnnotation(series market.Series, phases phaseLens, score int) annotation.Set {
	set := annotation.EmptySet()
	set.Human = append(set.Human, annotation.Annotation{
		Start:   annotation.Epoch{Secs: series[phases.runUp].T, Valid: true},
		End:     annotation.Epoch{Secs: series[phases.runUp+phases.base-1].T, Valid: true},
		Pattern: "vcp",
		Score:   &score,
	})
	return set
}

func constSlice(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func concat(parts ...[]float64) []float64 {
	var out []float64
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
