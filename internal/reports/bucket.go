package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/safar/go-sql-pos/internal/models"
	"github.com/safar/go-sql-pos/internal/store"
)

// bucketByDay groups sale totals by local calendar day. Input must be
// ordered by creation time; output is oldest first with empty days omitted.
func bucketByDay(totals []store.SaleTotals, loc *time.Location) []models.DailyStat {
	stats := []models.DailyStat{}
	for _, t := range totals {
		day := startOfDay(t.CreatedAt, loc)
		if len(stats) == 0 || !stats[len(stats)-1].Day.Equal(day) {
			stats = append(stats, models.DailyStat{
				Day:           day,
				Revenue:       decimal.Zero,
				CashTotal:     decimal.Zero,
				CardTotal:     decimal.Zero,
				TransferTotal: decimal.Zero,
			})
		}

		s := &stats[len(stats)-1]
		s.SaleCount++
		s.Revenue = s.Revenue.Add(t.Total)
		s.CashTotal = s.CashTotal.Add(t.Payment.Cash)
		s.CardTotal = s.CardTotal.Add(t.Payment.Card)
		s.TransferTotal = s.TransferTotal.Add(t.Payment.Transfer)
	}

	for i := range stats {
		stats[i].AverageSale = average(stats[i].Revenue, stats[i].SaleCount)
	}
	return stats
}

func sumDays(days []models.DailyStat) models.DailyStat {
	total := models.DailyStat{
		Revenue:       decimal.Zero,
		CashTotal:     decimal.Zero,
		CardTotal:     decimal.Zero,
		TransferTotal: decimal.Zero,
	}
	for _, d := range days {
		total.SaleCount += d.SaleCount
		total.Revenue = total.Revenue.Add(d.Revenue)
		total.CashTotal = total.CashTotal.Add(d.CashTotal)
		total.CardTotal = total.CardTotal.Add(d.CardTotal)
		total.TransferTotal = total.TransferTotal.Add(d.TransferTotal)
	}
	total.AverageSale = average(total.Revenue, total.SaleCount)
	return total
}

// bucketByMonth folds daily rows into calendar months keyed "2006-01".
func bucketByMonth(days []models.DailyStat) []models.MonthlyStat {
	months := []models.MonthlyStat{}
	for _, d := range days {
		month := d.Day.Format("2006-01")
		if len(months) == 0 || months[len(months)-1].Month != month {
			months = append(months, models.MonthlyStat{
				Month:         month,
				Revenue:       decimal.Zero,
				CashTotal:     decimal.Zero,
				CardTotal:     decimal.Zero,
				TransferTotal: decimal.Zero,
			})
		}

		m := &months[len(months)-1]
		m.SaleCount += d.SaleCount
		m.Revenue = m.Revenue.Add(d.Revenue)
		m.CashTotal = m.CashTotal.Add(d.CashTotal)
		m.CardTotal = m.CardTotal.Add(d.CardTotal)
		m.TransferTotal = m.TransferTotal.Add(d.TransferTotal)
	}

	for i := range months {
		months[i].AverageSale = average(months[i].Revenue, months[i].SaleCount)
	}
	return months
}
