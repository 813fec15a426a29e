package model

import "strings"

// Legacy tokens accepted at ingestion. Core computations only ever see the
// canonical values.
var resultTokens = map[string]Result{
	"win":     ResultWin,
	"w":       ResultWin,
	"승":       ResultWin,
	"draw":    ResultDraw,
	"d":       ResultDraw,
	"tie":     ResultDraw,
	"무":       ResultDraw,
	"lose":    ResultLose,
	"loss":    ResultLose,
	"l":       ResultLose,
	"패":       ResultLose,
	"unknown": ResultUnknown,
}

var gameTypeTokens = map[string]GameType{
	"1v1":   GameType1v1,
	"개인전":   GameType1v1,
	"2v2":   GameType2v2,
	"2v2v2": GameType2v2v2,
	"3v3":   GameType3v3,
	"3v3v3": GameType3v3v3,
}

// ParseResult maps any accepted token onto a canonical Result.
// Unrecognized input yields ResultUnknown.
func ParseResult(token string) Result {
	if r, ok := resultTokens[strings.ToLower(strings.TrimSpace(token))]; ok {
		return r
	}
	return ResultUnknown
}

// ParseGameType maps any accepted token onto a canonical GameType.
// "2:2" and "2 vs 2" style spellings are accepted.
func ParseGameType(token string) GameType {
	s := strings.ToLower(strings.TrimSpace(token))
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "vs", "v")
	s = strings.ReplaceAll(s, ":", "v")
	if t, ok := gameTypeTokens[s]; ok {
		return t
	}
	return GameTypeUnknown
}
