// Package team estimates, from box-score data alone, whether a player's team
// results were earned or owed to luck and teammates.
//
// Each decided team game is scored on two axes against the handicap
// benchmark: eff (average surplus) and vol (score surplus). Both are
// normalized to 0-100 against the 5th-95th percentile band of the window,
// blended into a good-performance score (gps) and crossed with the result.
package team

import (
	"time"

	"github.com/okian/carom/internal/domain/benchmark"
	"github.com/okian/carom/internal/domain/model"
	"github.com/okian/carom/internal/domain/numeric"
)

// Quantile band and blend weights.
const (
	bandLow   = 0.05
	bandHigh  = 0.95
	effWeight = 0.6
	volWeight = 0.4
)

// Classification thresholds on gps.
const (
	weakGPS   = 40.0
	strongGPS = 60.0
)

// MinConfidentSample is the sample size below which the headline is a
// low-confidence notice.
const MinConfidentSample = 5

// headlineRate is the minimum rate a label needs to become the headline.
const headlineRate = 25.0

// Label classifies one decided team game.
type Label string

// Labels.
const (
	LabelCarry     Label = "CARRY"      // played well and won
	LabelBus       Label = "BUS"        // won despite a weak game
	LabelLuckBad   Label = "LUCK_BAD"   // played well and still lost
	LabelSelfIssue Label = "SELF_ISSUE" // played poorly and lost
	LabelNeutral   Label = "NEUTRAL"
)

// headlineOrder is the label priority for the headline; earlier wins ties.
var headlineOrder = []Label{LabelLuckBad, LabelBus, LabelSelfIssue, LabelCarry}

var descriptions = map[Label]string{
	LabelLuckBad:   "잘 치고도 진 경기가 많습니다. 팀 운이 따르지 않았습니다",
	LabelBus:       "부진했지만 팀 덕분에 이긴 경기가 많습니다",
	LabelSelfIssue: "개인 부진이 패배로 이어진 경기가 많습니다",
	LabelCarry:     "좋은 경기력으로 팀 승리를 이끈 경기가 많습니다",
}

const (
	balancedText = "경기력과 승패가 고르게 맞아떨어지고 있습니다"
	emptyText    = "분석할 팀전 승/패 기록이 없습니다"
)

// Counts holds the number of games per label.
type Counts struct {
	LuckBad   int `json:"LUCK_BAD"`
	Bus       int `json:"BUS"`
	SelfIssue int `json:"SELF_ISSUE"`
	Carry     int `json:"CARRY"`
	Neutral   int `json:"NEUTRAL"`
}

// Total returns the sum over all labels.
func (c Counts) Total() int { return c.LuckBad + c.Bus + c.SelfIssue + c.Carry + c.Neutral }

func (c *Counts) add(l Label) {
	switch l {
	case LabelLuckBad:
		c.LuckBad++
	case LabelBus:
		c.Bus++
	case LabelSelfIssue:
		c.SelfIssue++
	case LabelCarry:
		c.Carry++
	default:
		c.Neutral++
	}
}

// Rates holds per-label percentages of the denominator.
type Rates struct {
	LuckBad   float64 `json:"LUCK_BAD"`
	Bus       float64 `json:"BUS"`
	SelfIssue float64 `json:"SELF_ISSUE"`
	Carry     float64 `json:"CARRY"`
	Neutral   float64 `json:"NEUTRAL"`
}

func (r Rates) of(l Label) float64 {
	switch l {
	case LabelLuckBad:
		return r.LuckBad
	case LabelBus:
		return r.Bus
	case LabelSelfIssue:
		return r.SelfIssue
	case LabelCarry:
		return r.Carry
	default:
		return r.Neutral
	}
}

// Bands are the 5th and 95th percentiles used for normalization.
type Bands struct {
	EffLo float64 `json:"effLo"`
	EffHi float64 `json:"effHi"`
	VolLo float64 `json:"volLo"`
	VolHi float64 `json:"volHi"`
}

// Headline summarizes the dominant pattern.
type Headline struct {
	Label         Label  `json:"label,omitempty"`
	Text          string `json:"text"`
	LowConfidence bool   `json:"lowConfidence"`
}

// Row is one decided team game with every intermediate value.
type Row struct {
	ID            string         `json:"id"`
	GameDate      time.Time      `json:"gameDate"`
	GameType      model.GameType `json:"gameType"`
	Result        model.Result   `json:"result"`
	Score         float64        `json:"score"`
	Inning        float64        `json:"inning"`
	Avg           float64        `json:"avg"`
	Eff           float64        `json:"eff"`
	ExpectedScore float64        `json:"expectedScore"`
	Vol           float64        `json:"vol"`
	EffScore      float64        `json:"effScore"`
	VolScore      float64        `json:"volScore"`
	GPS           float64        `json:"gps"`
	Label         Label          `json:"label"`
}

// Result is the complete team-indicator output. Every field is populated
// even when there is nothing to analyze.
type Result struct {
	Handicap               float64  `json:"handicap"`
	ExpectedAvg            float64  `json:"expectedAvg"`
	TeamGames              int      `json:"teamGames"`
	SampleN                int      `json:"sampleN"`
	Denominator            int      `json:"denominator"`
	IncludeNeutralInSample bool     `json:"includeNeutralInSample"`
	Bands                  Bands    `json:"bands"`
	Counts                 Counts   `json:"counts"`
	Rates                  Rates    `json:"rates"`
	Headline               Headline `json:"headline"`
	Games                  []Row    `json:"games"`
}

// enriched carries unrounded per-game values through the computation.
type enriched struct {
	game          *model.Game
	avg, eff, vol float64
	expectedScore float64
}

// Build computes team indicators over games for a player of the given
// handicap. games are expected most recent first; row order follows input.
func Build(games []model.Game, handicap float64, table *benchmark.Table, opts ...Option) Result {
	cfg := newConfig(opts...)
	expected := table.Lookup(handicap).Expected

	res := Result{
		Handicap:               numeric.SafeNumber(handicap, 0),
		ExpectedAvg:            expected,
		IncludeNeutralInSample: cfg.includeNeutral,
		Games:                  []Row{},
	}

	decided := make([]enriched, 0, len(games))
	for i := range games {
		g := &games[i]
		if !g.GameType.IsTeam() || !g.HasValidInning() || g.Inning < cfg.minInning {
			continue
		}
		res.TeamGames++
		if !g.Result.Decided() {
			continue
		}
		avg := g.Average()
		expectedScore := expected * g.Inning
		decided = append(decided, enriched{
			game:          g,
			avg:           avg,
			eff:           avg - expected,
			vol:           numeric.SafeNumber(g.Score, 0) - expectedScore,
			expectedScore: expectedScore,
		})
	}

	res.SampleN = len(decided)
	if res.SampleN == 0 {
		res.Headline = Headline{Text: emptyText, LowConfidence: true}
		return res
	}

	effs := make([]float64, len(decided))
	vols := make([]float64, len(decided))
	for i, e := range decided {
		effs[i] = e.eff
		vols[i] = e.vol
	}
	bands := Bands{
		EffLo: numeric.Quantile(effs, bandLow),
		EffHi: numeric.Quantile(effs, bandHigh),
		VolLo: numeric.Quantile(vols, bandLow),
		VolHi: numeric.Quantile(vols, bandHigh),
	}

	res.Games = make([]Row, 0, len(decided))
	for _, e := range decided {
		effScore := numeric.Scale(e.eff, bands.EffLo, bands.EffHi)
		volScore := numeric.Scale(e.vol, bands.VolLo, bands.VolHi)
		gps := numeric.Round(effWeight*effScore+volWeight*volScore, numeric.PrecisionRate)
		label := Classify(gps, e.game.Result)
		res.Counts.add(label)

		res.Games = append(res.Games, Row{
			ID:            e.game.ID,
			GameDate:      e.game.GameDate,
			GameType:      e.game.GameType,
			Result:        e.game.Result,
			Score:         numeric.SafeNumber(e.game.Score, 0),
			Inning:        e.game.Inning,
			Avg:           numeric.Round(e.avg, numeric.PrecisionAverage),
			Eff:           numeric.Round(e.eff, numeric.PrecisionAverage),
			ExpectedScore: numeric.Round(e.expectedScore, numeric.PrecisionScore),
			Vol:           numeric.Round(e.vol, numeric.PrecisionScore),
			EffScore:      numeric.Round(effScore, numeric.PrecisionRate),
			VolScore:      numeric.Round(volScore, numeric.PrecisionRate),
			GPS:           gps,
			Label:         label,
		})
	}

	res.Bands = Bands{
		EffLo: numeric.Round(bands.EffLo, numeric.PrecisionAverage),
		EffHi: numeric.Round(bands.EffHi, numeric.PrecisionAverage),
		VolLo: numeric.Round(bands.VolLo, numeric.PrecisionScore),
		VolHi: numeric.Round(bands.VolHi, numeric.PrecisionScore),
	}

	res.Denominator = res.SampleN
	if !cfg.includeNeutral {
		res.Denominator -= res.Counts.Neutral
	}
	res.Rates = rates(res.Counts, res.Denominator, cfg.includeNeutral)
	res.Headline = headline(res.SampleN, res.Rates)
	return res
}

// Classify crosses a gps with the game result.
func Classify(gps float64, result model.Result) Label {
	switch {
	case result == model.ResultWin && gps <= weakGPS:
		return LabelBus
	case result == model.ResultLose && gps >= strongGPS:
		return LabelLuckBad
	case result == model.ResultWin && gps >= strongGPS:
		return LabelCarry
	case result == model.ResultLose && gps <= weakGPS:
		return LabelSelfIssue
	default:
		return LabelNeutral
	}
}

func rates(c Counts, denominator int, includeNeutral bool) Rates {
	if denominator <= 0 {
		return Rates{}
	}
	pct := func(n int) float64 {
		return numeric.Round(float64(n)/float64(denominator)*100, numeric.PrecisionRate)
	}
	r := Rates{
		LuckBad:   pct(c.LuckBad),
		Bus:       pct(c.Bus),
		SelfIssue: pct(c.SelfIssue),
		Carry:     pct(c.Carry),
	}
	if includeNeutral {
		r.Neutral = pct(c.Neutral)
	}
	return r
}

func headline(sampleN int, r Rates) Headline {
	if sampleN < MinConfidentSample {
		return Headline{
			Text:          "표본이 적어 신뢰도가 낮습니다. 팀전 기록이 더 쌓이면 정확해집니다",
			LowConfidence: true,
		}
	}
	best, bestRate := Label(""), -1.0
	for _, l := range headlineOrder {
		if rate := r.of(l); rate > bestRate {
			best, bestRate = l, rate
		}
	}
	if bestRate >= headlineRate {
		return Headline{Label: best, Text: descriptions[best]}
	}
	return Headline{Text: balancedText}
}
