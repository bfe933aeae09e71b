package tradingview

// TimeframeGroup is a labelled set of chart intervals.
type TimeframeGroup struct {
	Label     string
	Intervals []string
}

// Timeframes returns the chart intervals TradingView accepts. Pure static
// data, independent of environment or session state.
func Timeframes() []TimeframeGroup {
	return []TimeframeGroup{
		{Label: "Minutes", Intervals: []string{"1", "5", "15", "30", "60", "240"}},
		{Label: "Days/Weeks/Months", Intervals: []string{"D", "W", "M"}},
	}
}
