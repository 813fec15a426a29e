// Package form classifies a player's recent performance against the
// benchmark for their handicap and recommends a handicap adjustment.
package form

import (
	"fmt"

	"github.com/okian/carom/internal/domain/benchmark"
	"github.com/okian/carom/internal/domain/model"
	"github.com/okian/carom/internal/domain/numeric"
	"github.com/okian/carom/internal/domain/stats"
)

// MinSample is the smallest window a status is ever computed from.
const MinSample = 5

// Status tiers.
const (
	StatusInsufficient = "데이터부족"
	StatusExcellent    = "매우좋음"
	StatusGood         = "좋음"
	StatusNormal       = "보통"
	StatusSlump        = "부진"
	StatusDeepSlump    = "매우부진"
)

// Status thresholds on delta = average - expected.
const (
	excellentDelta = 0.050
	goodDelta      = 0.020
	normalDelta    = -0.020
	slumpDelta     = -0.050
)

// Recommendation thresholds on delta.
const (
	raiseTwoDelta = 0.060
	raiseOneDelta = 0.035
	lowerTwoDelta = -0.060
	lowerOneDelta = -0.035
)

// Advisory thresholds used for the reason notes.
const (
	highVolatility = 0.12
	lowWinRate     = 35.0
	highWinRate    = 65.0
)

// Recommendation is the suggested handicap change.
type Recommendation struct {
	HandicapDelta int    `json:"handicapDelta"`
	Label         string `json:"label"`
}

// Analysis is the result of Analyze. Stats and Delta are nil when the
// sample is below MinSample.
type Analysis struct {
	Status         string          `json:"status"`
	SampleN        int             `json:"sampleN"`
	Delta          *float64        `json:"delta"`
	Recommendation Recommendation  `json:"recommendation"`
	Stats          *stats.Full     `json:"stats"`
	Benchmark      benchmark.Entry `json:"benchmark"`
	Reasons        []string        `json:"reasons"`
}

// Analyze classifies games (already windowed by the caller) for a player of
// the given handicap.
func Analyze(games []model.Game, handicap float64, table *benchmark.Table) Analysis {
	bench := table.Lookup(handicap)
	sampleN := len(games)

	if sampleN < MinSample {
		return Analysis{
			Status:  StatusInsufficient,
			SampleN: sampleN,
			Recommendation: Recommendation{
				HandicapDelta: 0,
				Label:         "핸디 유지 (표본 부족)",
			},
			Benchmark: bench,
			Reasons: []string{
				fmt.Sprintf("최근 경기 수가 %d경기로 부족합니다 (최소 %d경기 필요)", sampleN, MinSample),
			},
		}
	}

	s := stats.Calc(games)
	delta := numeric.Round(s.Average-bench.Expected, numeric.PrecisionAverage)

	return Analysis{
		Status:         Status(delta),
		SampleN:        sampleN,
		Delta:          &delta,
		Recommendation: Recommend(delta),
		Stats:          &s,
		Benchmark:      bench,
		Reasons:        reasons(s, bench, delta, sampleN),
	}
}

// Status maps a delta onto the five-tier status ladder.
func Status(delta float64) string {
	switch {
	case delta >= excellentDelta:
		return StatusExcellent
	case delta >= goodDelta:
		return StatusGood
	case delta >= normalDelta:
		return StatusNormal
	case delta >= slumpDelta:
		return StatusSlump
	default:
		return StatusDeepSlump
	}
}

// Recommend maps a delta onto a handicap adjustment.
func Recommend(delta float64) Recommendation {
	var step int
	switch {
	case delta >= raiseTwoDelta:
		step = 2
	case delta >= raiseOneDelta:
		step = 1
	case delta <= lowerTwoDelta:
		step = -2
	case delta <= lowerOneDelta:
		step = -1
	}
	return Recommendation{HandicapDelta: step, Label: label(step)}
}

func label(step int) string {
	if step == 0 {
		return "핸디 유지"
	}
	return fmt.Sprintf("핸디 %+d 권장", step)
}

func reasons(s stats.Full, bench benchmark.Entry, delta float64, sampleN int) []string {
	out := []string{
		fmt.Sprintf("최근 %d경기 에버리지 %.3f (핸디 %d 기준 %.3f, 차이 %+.3f)", sampleN, s.Average, bench.Handicap, bench.Expected, delta),
		fmt.Sprintf("승률 %.1f%% (%d승 %d패)", s.WinRate, s.Wins, s.Losses),
		fmt.Sprintf("변동성 %.3f", s.Volatility),
	}
	if s.Volatility >= highVolatility {
		out = append(out, "경기별 기복이 큽니다. 안정적인 운영이 필요합니다")
	}
	if s.WinRate <= lowWinRate && s.Average >= bench.Expected {
		out = append(out, "에버리지는 기준 이상이지만 승률이 낮습니다")
	}
	if s.WinRate >= highWinRate && s.Average < bench.Expected {
		out = append(out, "승률은 높지만 에버리지가 기준에 못 미칩니다")
	}
	return out
}
