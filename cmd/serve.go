package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	academyhttp "sensei-backoffice/internal/academy/interfaces"
	apihttp "sensei-backoffice/internal/api/http"
	"sensei-backoffice/internal/auth"
	billingapp "sensei-backoffice/internal/billing/application"
	billinghttp "sensei-backoffice/internal/billing/interfaces"
	financehttp "sensei-backoffice/internal/finance/interfaces"
	messaginghttp "sensei-backoffice/internal/messaging/interfaces"
	"sensei-backoffice/internal/observability/metrics"
	poshttp "sensei-backoffice/internal/pos/interfaces"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var flagServeAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the daily reminder scheduler",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagServeAddr, "addr", "", "Listen address (overrides HTTP_ADDR)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.cfg.RequireAuth(); err != nil {
		return err
	}
	metrics.Init(a.db, a.logger)

	handler, err := a.routes()
	if err != nil {
		return err
	}

	scheduler := billingapp.NewScheduler(a.reminders, a.billingCfg.Reminder, a.cfg.Location, a.logger)
	if scheduler.Enabled() {
		go scheduler.Start(ctx)
		a.logger.Printf("reminder scheduler enabled at %s (dry_run=%t)", a.billingCfg.Reminder.DailyAt, a.billingCfg.Reminder.DryRun)
	}

	addr := a.cfg.HTTPAddr
	if flagServeAddr != "" {
		addr = flagServeAddr
	}
	server := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		a.logger.Printf("listening on %s", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	return server.Shutdown(shutdownCtx)
}

func (a *app) routes() (http.Handler, error) {
	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(a.cfg.JWTSecret), policy)

	ledgerHandler, err := financehttp.NewLedgerHandler(a.ledger,
		financehttp.WithFixedExpenses(a.templates),
		financehttp.WithPayroll(a.payroll),
		financehttp.WithAuditLogger(a.audit),
		financehttp.WithGymName(a.gymName),
	)
	if err != nil {
		return nil, err
	}
	billingHandler, err := billinghttp.NewBillingHandler(a.billing,
		billinghttp.WithReminderBot(a.reminders),
		billinghttp.WithAuditLogger(a.audit),
	)
	if err != nil {
		return nil, err
	}
	academyHandler, err := academyhttp.NewAcademyHandler(a.roster, a.schedule, a.graduations,
		academyhttp.WithAuditLogger(a.audit),
	)
	if err != nil {
		return nil, err
	}
	posHandler, err := poshttp.NewPOSHandler(a.pos, poshttp.WithAuditLogger(a.audit))
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/api/v1/finance/", ledgerHandler)
	mux.HandleFunc("/api/v1/exports/ledger.csv", ledgerHandler.ExportCSV)
	mux.Handle("/api/v1/exports/attendance.csv", apihttp.NewAttendanceCSVHandler(a.db))
	mux.Handle("/api/v1/billing/", billingHandler)
	mux.Handle("/api/v1/academy/", academyHandler)
	mux.Handle("/api/v1/pos/", posHandler)
	mux.Handle("/api/v1/dashboard", apihttp.NewDashboardHandler(a.db, a.cfg.Location, nil))
	if a.gateway != nil {
		mux.Handle("/api/v1/whatsapp/", messaginghttp.NewWhatsAppHandler(a.gateway,
			messaginghttp.WithDefaultInstance(a.billingCfg.Gateway.Instance),
			messaginghttp.WithCountryCode(a.billingCfg.Gateway.CountryCode),
			messaginghttp.WithAuditLogger(a.audit),
		))
	} else {
		mux.HandleFunc("/api/v1/whatsapp/", func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "whatsapp gateway not configured", http.StatusServiceUnavailable)
		})
	}
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return loggingMiddleware(authMiddleware.Wrap(mux), a.logger), nil
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
