package expense

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BuildMonthlyChart", func() {
	var (
		snap  LedgerSnapshot
		chart MonthlyChart
	)

	JustBeforeEach(func() {
		chart = BuildMonthlyChart(snap)
	})

	When("the ledger is empty", func() {
		BeforeEach(func() {
			snap = NewLedger().Snapshot()
		})

		It("should be the placeholder", func() {
			Expect(chart.Empty()).To(BeTrue())
			Expect(chart.Total).To(BeZero())
		})

		It("should show seven placeholder labels", func() {
			Expect(chart.Labels).To(Equal([]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul"}))
		})

		It("should draw a flat baseline", func() {
			Expect(chart.LinePath).To(Equal("M0 149H472V149"))
			Expect(chart.AreaPath).To(BeEmpty())
		})
	})

	When("the ledger has one month", func() {
		BeforeEach(func() {
			snap = LedgerSnapshot{Monthly: map[string]float64{"2024-03": 50}, Categories: map[string]float64{"Dining": 50}}
		})

		It("should put the month at the top-left", func() {
			Expect(chart.Points).To(HaveLen(1))
			Expect(chart.Points[0].X).To(BeZero())
			Expect(chart.Points[0].Y).To(BeNumerically("~", 29, 1e-9))
			Expect(chart.Points[0].Label).To(Equal("Mar"))
		})
	})

	When("the ledger has several months", func() {
		BeforeEach(func() {
			snap = LedgerSnapshot{
				Monthly: map[string]float64{"2024-03": 50, "2023-12": 100, "2024-01": 0.5, "2024-02": 25},
			}
		})

		It("should sort the months chronologically", func() {
			var months []string
			for _, p := range chart.Points {
				months = append(months, p.Month)
			}
			Expect(months).To(Equal([]string{"2023-12", "2024-01", "2024-02", "2024-03"}))
			Expect(chart.Labels).To(Equal([]string{"Dec", "Jan", "Feb", "Mar"}))
		})

		It("should spread the months across the width", func() {
			Expect(chart.Points[0].X).To(BeZero())
			Expect(chart.Points[3].X).To(BeNumerically("~", 472, 1e-9))
			Expect(chart.Points[1].X).To(BeNumerically("~", 472.0/3, 1e-9))
		})

		It("should scale the largest month to the top", func() {
			Expect(chart.Points[0].Y).To(BeNumerically("~", 29, 1e-9))
			Expect(chart.Points[3].Y).To(BeNumerically("~", 89, 1e-9))
		})

		It("should total every month", func() {
			Expect(chart.Total).To(BeNumerically("~", 175.5, 1e-9))
		})

		It("should build the line and area paths", func() {
			Expect(chart.LinePath).To(Equal("M0 29L157.33 148.4L314.67 119L472 89"))
			Expect(chart.AreaPath).To(Equal(chart.LinePath + "V149H0V149Z"))
		})
	})

	When("the ledger has more than seven months", func() {
		BeforeEach(func() {
			snap = LedgerSnapshot{Monthly: map[string]float64{}}
			for _, m := range []string{"2024-01", "2024-02", "2024-03", "2024-04", "2024-05", "2024-06", "2024-07", "2024-08", "2024-09"} {
				snap.Monthly[m] = 10
			}
		})

		It("should plot every month but label only the first seven", func() {
			Expect(chart.Points).To(HaveLen(9))
			Expect(chart.Labels).To(HaveLen(7))
		})
	})
})

var _ = Describe("BuildCategoryChart", func() {
	var (
		snap  LedgerSnapshot
		chart CategoryChart
	)

	JustBeforeEach(func() {
		chart = BuildCategoryChart(snap)
	})

	When("the ledger is empty", func() {
		BeforeEach(func() {
			snap = NewLedger().Snapshot()
		})

		It("should be the no data placeholder", func() {
			Expect(chart.Empty()).To(BeTrue())
			Expect(chart.Slices).To(BeEmpty())
		})
	})

	When("the ledger has several categories", func() {
		BeforeEach(func() {
			snap = LedgerSnapshot{Categories: map[string]float64{
				"Dining":    30,
				"Travel":    50,
				"Groceries": 15,
				"Health":    5,
			}}
		})

		It("should order the slices by amount", func() {
			var names []string
			for _, s := range chart.Slices {
				names = append(names, s.Category)
			}
			Expect(names).To(Equal([]string{"Travel", "Dining", "Groceries", "Health"}))
		})

		It("should make the spans cover the whole circle", func() {
			var spans, percentages float64
			for _, s := range chart.Slices {
				spans += s.Span()
				percentages += s.Percentage
			}
			Expect(spans).To(BeNumerically("~", 360, 1e-6))
			Expect(percentages).To(BeNumerically("~", 100, 1e-6))
		})

		It("should make the slices contiguous", func() {
			Expect(chart.Slices[0].StartAngle).To(BeZero())
			for i := 1; i < len(chart.Slices); i++ {
				Expect(chart.Slices[i].StartAngle).To(Equal(chart.Slices[i-1].EndAngle))
			}
		})

		It("should size the spans by share", func() {
			Expect(chart.Slices[0].Span()).To(BeNumerically("~", 180, 1e-9))
			Expect(chart.Slices[0].Percentage).To(BeNumerically("~", 50, 1e-9))
			Expect(chart.Slices[1].Span()).To(BeNumerically("~", 108, 1e-9))
		})

		It("should assign palette colors by rank", func() {
			Expect(chart.Slices[0].Color).To(Equal(Palette[0]))
			Expect(chart.Slices[3].Color).To(Equal(Palette[3]))
		})

		It("should start the first slice at 12 o'clock", func() {
			Expect(chart.Slices[0].Start.X).To(BeNumerically("~", 100, 1e-9))
			Expect(chart.Slices[0].Start.Y).To(BeNumerically("~", 20, 1e-9))
			Expect(chart.Slices[0].End.X).To(BeNumerically("~", 100, 1e-9))
			Expect(chart.Slices[0].End.Y).To(BeNumerically("~", 180, 1e-9))
		})

		It("should not set the large arc flag for a half circle", func() {
			Expect(chart.Slices[0].LargeArc).To(BeFalse())
			Expect(chart.Slices[0].Path).To(Equal("M 100 100 L 100 20 A 80 80 0 0 1 100 180 Z"))
		})
	})

	When("one category dominates", func() {
		BeforeEach(func() {
			snap = LedgerSnapshot{Categories: map[string]float64{"Travel": 75, "Dining": 25}}
		})

		It("should set the large arc flag", func() {
			Expect(chart.Slices[0].LargeArc).To(BeTrue())
			Expect(chart.Slices[1].LargeArc).To(BeFalse())
		})
	})

	When("there is a single category", func() {
		BeforeEach(func() {
			snap = LedgerSnapshot{Categories: map[string]float64{"Dining": 42}}
		})

		It("should draw a full circle", func() {
			Expect(chart.Slices).To(HaveLen(1))
			Expect(chart.Slices[0].Percentage).To(BeNumerically("~", 100, 1e-9))
			Expect(chart.Slices[0].Span()).To(Equal(360.0))
			Expect(chart.Slices[0].Path).To(Equal("M 100 20 A 80 80 0 1 1 100 180 A 80 80 0 1 1 100 20 Z"))
		})
	})

	When("there are more categories than colors", func() {
		BeforeEach(func() {
			snap = LedgerSnapshot{Categories: map[string]float64{}}
			for i, c := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"} {
				snap.Categories[c] = float64(100 - i)
			}
		})

		It("should cycle through the palette", func() {
			Expect(chart.Slices[10].Color).To(Equal(Palette[0]))
			Expect(chart.Slices[11].Color).To(Equal(Palette[1]))
		})
	})
})
