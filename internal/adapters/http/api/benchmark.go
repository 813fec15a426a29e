package api

import (
	"fmt"
	"net/http"

	"github.com/okian/carom/internal/domain/benchmark"
)

// BenchmarkDependencies defines the interface for benchmark lookups.
type BenchmarkDependencies interface {
	Benchmark(handicap float64) benchmark.Entry
	BenchmarkTable() []benchmark.Entry
}

// BenchmarkHandler serves the handicap benchmark table.
type BenchmarkHandler struct {
	deps BenchmarkDependencies
}

// NewBenchmarkHandler creates a new benchmark handler.
func NewBenchmarkHandler(deps BenchmarkDependencies) *BenchmarkHandler {
	return &BenchmarkHandler{deps: deps}
}

// HandleLookup handles GET /api/v1/benchmark?handicap=.
func (h *BenchmarkHandler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_benchmark"
	q := r.URL.Query()
	if !q.Has("handicap") {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, fmt.Errorf("handicap is required")))
		return
	}
	handicap, err := floatParam(q, "handicap", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Benchmark(handicap))
}

// HandleTable handles GET /api/v1/benchmark/table.
func (h *BenchmarkHandler) HandleTable(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.BenchmarkTable())
}
