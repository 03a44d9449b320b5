package metrics

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const scrapeTimeout = 3 * time.Second

// backofficeCollector reads the back-office backlog in one query per scrape.
type backofficeCollector struct {
	db     *sql.DB
	logger *log.Logger

	pendingIncome   *prometheus.Desc
	pendingExpenses *prometheus.Desc
	overdueIncome   *prometheus.Desc
	activeStudents  *prometheus.Desc
	debtorStudents  *prometheus.Desc
	outOfStock      *prometheus.Desc
}

func newBackofficeCollector(db *sql.DB, logger *log.Logger) *backofficeCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(metricPrefix+name, help, nil, nil)
	}
	return &backofficeCollector{
		db:              db,
		logger:          logger,
		pendingIncome:   desc("ledger_pending_income", "Realized income entries awaiting payment"),
		pendingExpenses: desc("ledger_pending_expenses", "Realized expense entries awaiting payment"),
		overdueIncome:   desc("ledger_overdue_income", "Unpaid income entries past their due date"),
		activeStudents:  desc("students_active", "Students with active status"),
		debtorStudents:  desc("students_debt", "Students flagged as debtors"),
		outOfStock:      desc("products_out_of_stock", "Tracked products with no stock left"),
	}
}

func (c *backofficeCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.pendingIncome
	ch <- c.pendingExpenses
	ch <- c.overdueIncome
	ch <- c.activeStudents
	ch <- c.debtorStudents
	ch <- c.outOfStock
}

func (c *backofficeCollector) Collect(ch chan<- prometheus.Metric) {
	if c.db == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), scrapeTimeout)
	defer cancel()

	var pendingIncome, pendingExpenses, overdueIncome, active, debtors, outOfStock int64
	err := c.db.QueryRowContext(ctx, `
SELECT
	(SELECT COUNT(*) FROM transactions WHERE type = 'income' AND status <> 'paid'),
	(SELECT COUNT(*) FROM transactions WHERE type = 'expense' AND status <> 'paid'),
	(SELECT COUNT(*) FROM transactions WHERE type = 'income' AND status <> 'paid' AND due_date < CURRENT_DATE),
	(SELECT COUNT(*) FROM students WHERE status = 'active'),
	(SELECT COUNT(*) FROM students WHERE status = 'debt'),
	(SELECT COUNT(*) FROM products WHERE stock_quantity IS NOT NULL AND stock_quantity <= 0)`).
		Scan(&pendingIncome, &pendingExpenses, &overdueIncome, &active, &debtors, &outOfStock)
	if err != nil {
		if c.logger != nil {
			c.logger.Printf("metrics scrape failed: %v", err)
		}
		return
	}
	for desc, value := range map[*prometheus.Desc]int64{
		c.pendingIncome:   pendingIncome,
		c.pendingExpenses: pendingExpenses,
		c.overdueIncome:   overdueIncome,
		c.activeStudents:  active,
		c.debtorStudents:  debtors,
		c.outOfStock:      outOfStock,
	} {
		ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, float64(value))
	}
}
