package benchmark

// defaultRows is the curated table shipped with the service. Neighbouring
// low-confidence bands overlap on purpose (32/33).
var defaultRows = []Entry{
	{Handicap: 15, Expected: 0.300, Min: 0.260, Max: 0.340},
	{Handicap: 16, Expected: 0.315, Min: 0.275, Max: 0.355},
	{Handicap: 18, Expected: 0.355, Min: 0.310, Max: 0.400},
	{Handicap: 20, Expected: 0.400, Min: 0.355, Max: 0.445},
	{Handicap: 22, Expected: 0.440, Min: 0.395, Max: 0.485},
	{Handicap: 24, Expected: 0.480, Min: 0.435, Max: 0.525},
	{Handicap: 25, Expected: 0.500, Min: 0.450, Max: 0.550},
	{Handicap: 26, Expected: 0.520, Min: 0.470, Max: 0.570},
	{Handicap: 28, Expected: 0.560, Min: 0.510, Max: 0.610},
	{Handicap: 30, Expected: 0.600, Min: 0.550, Max: 0.650},
	{Handicap: 32, Expected: 0.660, Min: 0.610, Max: 0.710},
	{Handicap: 33, Expected: 0.655, Min: 0.600, Max: 0.720},
	{Handicap: 35, Expected: 0.720, Min: 0.660, Max: 0.780},
	{Handicap: 38, Expected: 0.800, Min: 0.740, Max: 0.860},
	{Handicap: 40, Expected: 0.850, Min: 0.780, Max: 0.920},
}

// DefaultTable returns the built-in benchmark table.
func DefaultTable() *Table {
	return NewTable(defaultRows)
}
