package expense

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Line chart geometry, in SVG user units
const (
	lineChartWidth    = 472.0
	lineChartBaseline = 149.0
	lineChartHeight   = 120.0
	maxMonthLabels    = 7
)

// Pie chart geometry, in SVG user units
const (
	pieRadius  = 80.0
	pieCenterX = 100.0
	pieCenterY = 100.0
)

// placeholderMonthLabels are shown under an empty line chart
var placeholderMonthLabels = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul"}

// Palette is assigned to pie slices by rank
var Palette = []string{
	"#19e6c7", // teal
	"#93c8c0",
	"#4ade80",
	"#f59e0b",
	"#ef4444",
	"#8b5cf6",
	"#06b6d4",
	"#f97316",
	"#ec4899",
	"#84cc16",
}

// Charts bundles both chart models derived from one ledger snapshot
type Charts struct {
	Monthly    MonthlyChart  `json:"monthly"`
	Categories CategoryChart `json:"categories"`
}

// MonthlyPoint is one month on the spending line
type MonthlyPoint struct {
	Month  string  `json:"month"` // YYYY-MM
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// MonthlyChart is the spend-per-month line series
type MonthlyChart struct {
	Total    float64        `json:"total"`
	Points   []MonthlyPoint `json:"points"`
	Labels   []string       `json:"labels"`
	LinePath string         `json:"linePath"`
	AreaPath string         `json:"areaPath,omitempty"`
}

// Empty reports whether the chart is the placeholder
func (c MonthlyChart) Empty() bool {
	return len(c.Points) == 0
}

// Point is a position in SVG user units
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Slice is one category of the pie chart. Angles are in degrees, measured
// clockwise from 12 o'clock.
type Slice struct {
	Category   string  `json:"category"`
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"`
	StartAngle float64 `json:"startAngle"`
	EndAngle   float64 `json:"endAngle"`
	Color      string  `json:"color"`
	Start      Point   `json:"start"`
	End        Point   `json:"end"`
	LargeArc   bool    `json:"largeArc"`
	Path       string  `json:"path"`
}

// Span returns the angular size of the slice
func (s Slice) Span() float64 {
	return s.EndAngle - s.StartAngle
}

// CategoryChart is the spend-per-category pie series, largest first
type CategoryChart struct {
	Total  float64 `json:"total"`
	Slices []Slice `json:"slices"`
}

// Empty reports whether the chart is the "no data" placeholder
func (c CategoryChart) Empty() bool {
	return len(c.Slices) == 0
}

// BuildCharts derives both charts from snap
func BuildCharts(snap LedgerSnapshot) Charts {
	return Charts{
		Monthly:    BuildMonthlyChart(snap),
		Categories: BuildCategoryChart(snap),
	}
}

// BuildMonthlyChart derives the monthly line series. Months are sorted
// chronologically and spread evenly across the chart width; the largest month
// touches the top of the drawable area.
func BuildMonthlyChart(snap LedgerSnapshot) MonthlyChart {
	chart := MonthlyChart{Total: snap.Total()}
	if len(snap.Monthly) == 0 {
		chart.Labels = slices.Clone(placeholderMonthLabels)
		chart.LinePath = fmt.Sprintf("M0 %sH%sV%s", coord(lineChartBaseline), coord(lineChartWidth), coord(lineChartBaseline))
		return chart
	}

	// YYYY-MM keys sort chronologically
	months := make([]string, 0, len(snap.Monthly))
	for month := range snap.Monthly {
		months = append(months, month)
	}
	slices.Sort(months)

	maxAmount := math.Inf(-1)
	for _, month := range months {
		maxAmount = math.Max(maxAmount, snap.Monthly[month])
	}

	steps := float64(max(len(months)-1, 1))
	segments := make([]string, 0, len(months))
	for i, month := range months {
		amount := snap.Monthly[month]
		y := lineChartBaseline
		if maxAmount > 0 {
			y = lineChartBaseline - (amount/maxAmount)*lineChartHeight
		}
		point := MonthlyPoint{
			Month:  month,
			Label:  monthLabel(month),
			Amount: amount,
			X:      float64(i) / steps * lineChartWidth,
			Y:      y,
		}
		chart.Points = append(chart.Points, point)
		if len(chart.Labels) < maxMonthLabels {
			chart.Labels = append(chart.Labels, point.Label)
		}
		segments = append(segments, coord(point.X)+" "+coord(point.Y))
	}

	chart.LinePath = "M" + strings.Join(segments, "L")
	chart.AreaPath = fmt.Sprintf("%sV%sH0V%sZ", chart.LinePath, coord(lineChartBaseline), coord(lineChartBaseline))
	return chart
}

// BuildCategoryChart derives the category pie series. Slices are ordered by
// amount, descending, and their spans always add up to a full circle.
func BuildCategoryChart(snap LedgerSnapshot) CategoryChart {
	total := sum(snap.Categories)
	chart := CategoryChart{Total: total}
	if len(snap.Categories) == 0 || total <= 0 {
		return chart
	}

	categories := make([]string, 0, len(snap.Categories))
	for category := range snap.Categories {
		categories = append(categories, category)
	}
	slices.SortFunc(categories, func(a, b string) int {
		if c := cmp.Compare(snap.Categories[b], snap.Categories[a]); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})

	var angle float64
	for i, category := range categories {
		amount := snap.Categories[category]
		fraction := amount / total
		end := angle + fraction*360
		if i == len(categories)-1 {
			end = 360
		}

		slice := Slice{
			Category:   category,
			Amount:     amount,
			Percentage: fraction * 100,
			StartAngle: angle,
			EndAngle:   end,
			Color:      Palette[i%len(Palette)],
			Start:      pointOnCircle(angle),
			End:        pointOnCircle(end),
			LargeArc:   end-angle > 180,
		}
		slice.Path = slicePath(slice)
		chart.Slices = append(chart.Slices, slice)
		angle = end
	}
	return chart
}

// pointOnCircle returns the point on the pie's edge at angle degrees clockwise from 12 o'clock
func pointOnCircle(angle float64) Point {
	rad := (angle - 90) * math.Pi / 180
	return Point{
		X: pieCenterX + pieRadius*math.Cos(rad),
		Y: pieCenterY + pieRadius*math.Sin(rad),
	}
}

// slicePath builds the SVG path of a pie slice
func slicePath(s Slice) string {
	r := coord(pieRadius)
	if s.Span() >= 360 {
		// An arc whose endpoints coincide draws nothing, so a full circle is two half arcs.
		top := coord(pieCenterY - pieRadius)
		bottom := coord(pieCenterY + pieRadius)
		cx := coord(pieCenterX)
		return fmt.Sprintf("M %s %s A %s %s 0 1 1 %s %s A %s %s 0 1 1 %s %s Z",
			cx, top, r, r, cx, bottom, r, r, cx, top)
	}

	largeArc := 0
	if s.LargeArc {
		largeArc = 1
	}
	return fmt.Sprintf("M %s %s L %s %s A %s %s 0 %d 1 %s %s Z",
		coord(pieCenterX), coord(pieCenterY),
		coord(s.Start.X), coord(s.Start.Y),
		r, r, largeArc,
		coord(s.End.X), coord(s.End.Y))
}

// monthLabel turns a YYYY-MM key into a short month name
func monthLabel(month string) string {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return month
	}
	return t.Format("Jan")
}

// coord formats a coordinate with at most two decimals
func coord(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
