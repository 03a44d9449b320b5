package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	academyapp "sensei-backoffice/internal/academy/application"
	academypg "sensei-backoffice/internal/academy/infrastructure/postgres"
	"sensei-backoffice/internal/audit"
	billingapp "sensei-backoffice/internal/billing/application"
	"sensei-backoffice/internal/config"
	academyreader "sensei-backoffice/internal/finance/adapters/academy"
	financeapp "sensei-backoffice/internal/finance/application"
	financepg "sensei-backoffice/internal/finance/infrastructure/postgres"
	"sensei-backoffice/internal/messaging/evolution"
	posapp "sensei-backoffice/internal/pos/application"
	pospg "sensei-backoffice/internal/pos/infrastructure/postgres"
)

// app holds the services shared by every command.
type app struct {
	cfg        config.Config
	billingCfg billingapp.Config
	logger     *log.Logger
	db         *sql.DB

	// gateway is nil when the WhatsApp gateway is not configured.
	gateway *evolution.Client

	roster      *academyapp.RosterService
	schedule    *academyapp.ScheduleService
	graduations *academyapp.GraduationService
	ledger      *financeapp.LedgerService
	templates   *financeapp.FixedExpenseService
	payroll     *financeapp.PayrollService
	billing     *billingapp.Service
	reminders   *billingapp.ReminderBot
	pos         *posapp.Service
	audit       audit.Logger
}

func openDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	billingCfg, err := billingapp.LoadConfig()
	if err != nil {
		return nil, err
	}
	logger := log.New(os.Stdout, "", log.LstdFlags)
	db, err := openDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, billingCfg: billingCfg, logger: logger, db: db}
	if err := a.wire(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire() error {
	loc := a.cfg.Location
	clock := financeapp.SystemClock{}
	if repo := audit.NewRepository(a.db); repo != nil {
		a.audit = repo
	}

	students := academypg.NewStudentRepository(a.db)
	professors := academypg.NewProfessorRepository(a.db)
	classes := academypg.NewClassRepository(a.db)
	attendance := academypg.NewAttendanceRepository(a.db)

	var err error
	a.roster, err = academyapp.NewRosterService(
		academypg.NewPlanRepository(a.db),
		students,
		professors,
		academypg.NewGymRepository(a.db),
	)
	if err != nil {
		return err
	}
	a.schedule, err = academyapp.NewScheduleService(classes, attendance, students, professors, academyapp.SystemClock{}, loc)
	if err != nil {
		return err
	}
	a.graduations, err = academyapp.NewGraduationService(students, attendance, academypg.NewGraduationRepository(a.db), academyapp.SystemClock{}, loc)
	if err != nil {
		return err
	}

	entries := financepg.NewEntryRepository(a.db, financepg.WithTimeZone(a.cfg.TimeZone))
	fixedExpenses := financepg.NewFixedExpenseRepository(a.db)
	subscriptions := academyreader.NewSubscriptionReader(a.db)
	a.ledger, err = financeapp.NewLedgerService(entries, fixedExpenses, subscriptions,
		financeapp.WithLocation(loc),
		financeapp.WithClock(clock),
	)
	if err != nil {
		return err
	}
	a.templates, err = financeapp.NewFixedExpenseService(fixedExpenses, clock)
	if err != nil {
		return err
	}
	a.payroll, err = financeapp.NewPayrollService(academyreader.NewWorkloadReader(a.db), entries, clock, loc)
	if err != nil {
		return err
	}

	products := pospg.NewProductRepository(a.db, financepg.WithTimeZone(a.cfg.TimeZone))
	a.pos, err = posapp.NewService(products, products,
		posapp.WithLocation(loc),
		posapp.WithLogger(a.logger),
	)
	if err != nil {
		return err
	}

	return a.wireBilling(subscriptions)
}

func (a *app) wireBilling(subscriptions *academyreader.SubscriptionReader) error {
	messages, err := billingapp.NewMessages(a.billingCfg.Messages)
	if err != nil {
		return err
	}

	var (
		gateway    billingapp.Gateway
		dispatcher *billingapp.Dispatcher
	)
	if a.billingCfg.Gateway.Configured() {
		client, err := evolution.NewClient(a.billingCfg.Gateway.BaseURL, a.billingCfg.Gateway.APIKey)
		if err != nil {
			return err
		}
		a.gateway = client
		gateway = client
		dispatcher, err = billingapp.NewDispatcher(client, a.billingCfg.Gateway,
			billingapp.WithDelay(a.billingCfg.SendDelay),
			billingapp.WithDispatchLogger(a.logger),
		)
		if err != nil {
			return err
		}
	} else {
		a.logger.Printf("whatsapp gateway not configured; billing sends are disabled")
	}

	a.billing, err = billingapp.NewService(a.ledger, billingapp.NewSelector(messages, a.cfg.Location), dispatcher, a.billingCfg.LookbackMonths)
	if err != nil {
		return err
	}
	a.reminders, err = billingapp.NewReminderBot(subscriptions, gateway, a.billingCfg.Gateway, messages,
		billingapp.WithReminderLocation(a.cfg.Location),
		billingapp.WithGymNameSource(a.gymName),
		billingapp.WithReminderLogger(a.logger),
	)
	return err
}

// gymName prefers configured names over the one saved in the database.
func (a *app) gymName(ctx context.Context) string {
	switch {
	case a.billingCfg.GymName != "":
		return a.billingCfg.GymName
	case a.cfg.GymName != "":
		return a.cfg.GymName
	}
	return a.roster.GymName(ctx)
}

func (a *app) Close() {
	if a != nil && a.db != nil {
		_ = a.db.Close()
	}
}
