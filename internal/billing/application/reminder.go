package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	billing "sensei-backoffice/internal/billing/domain"
	finance "sensei-backoffice/internal/finance/domain"
	"sensei-backoffice/internal/messaging/evolution"
	"sensei-backoffice/internal/observability/metrics"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// ReminderBot messages active students on their due day.
type ReminderBot struct {
	subs     finance.SubscriptionSource
	gateway  Gateway
	gateCfg  GatewayConfig
	messages *Messages
	gymName  func(ctx context.Context) string
	clock    Clock
	loc      *time.Location
	logger   *log.Logger
}

// ReminderOption configures a ReminderBot.
type ReminderOption func(*ReminderBot)

// WithReminderClock overrides the clock.
func WithReminderClock(clock Clock) ReminderOption {
	return func(b *ReminderBot) {
		if clock != nil {
			b.clock = clock
		}
	}
}

// WithReminderLocation sets the zone that decides which day is today.
func WithReminderLocation(loc *time.Location) ReminderOption {
	return func(b *ReminderBot) {
		if loc != nil {
			b.loc = loc
		}
	}
}

// WithGymNameSource resolves the academy name at send time.
func WithGymNameSource(fn func(ctx context.Context) string) ReminderOption {
	return func(b *ReminderBot) { b.gymName = fn }
}

// WithReminderLogger sets the logger.
func WithReminderLogger(logger *log.Logger) ReminderOption {
	return func(b *ReminderBot) { b.logger = logger }
}

// NewReminderBot constructs a bot. gateway may be nil; only dry runs work then.
func NewReminderBot(subs finance.SubscriptionSource, gateway Gateway, gateCfg GatewayConfig, messages *Messages, opts ...ReminderOption) (*ReminderBot, error) {
	if subs == nil {
		return nil, errors.New("reminder bot: nil subscriptions")
	}
	if messages == nil {
		return nil, errors.New("reminder bot: nil messages")
	}
	if gateCfg.Instance == "" {
		gateCfg.Instance = evolution.DefaultInstance
	}
	b := &ReminderBot{
		subs:     subs,
		gateway:  gateway,
		gateCfg:  gateCfg,
		messages: messages,
		clock:    systemClock{},
		loc:      time.UTC,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b, nil
}

// Run sends the due-day reminder to every active student whose due day,
// clamped to the current month, is today. With dryRun nothing is sent.
func (b *ReminderBot) Run(ctx context.Context, dryRun bool) (billing.ReminderReport, error) {
	report := billing.ReminderReport{DryRun: dryRun}
	result := metrics.ResultSuccess
	defer func() {
		metrics.IncReminderRun(dryRun, result)
	}()

	if !dryRun && b.gateway == nil {
		result = metrics.ResultError
		return report, billing.ErrGatewayNotConfigured
	}

	today := finance.CivilDate(b.clock.Now(), b.loc)
	gymName := DefaultGymName
	if b.gymName != nil {
		if name := b.gymName(ctx); name != "" {
			gymName = name
		}
	}
	report.Logs = append(report.Logs, fmt.Sprintf("🔍 Buscando alunos com vencimento dia %d...", today.Day()))

	subs, err := b.subs.ActiveSubscriptions(ctx)
	if err != nil {
		result = metrics.ResultError
		report.Logs = append(report.Logs, "❌ Erro geral no bot: "+err.Error())
		return report, fmt.Errorf("reminder: list subscriptions: %w", err)
	}
	var due []finance.Subscription
	for _, sub := range subs {
		dueDate := finance.ClampDueDate(today.Year(), today.Month(), sub.EffectiveDueDay())
		if dueDate.Equal(today) {
			due = append(due, sub)
		}
	}
	report.Processed = len(due)
	if len(due) == 0 {
		report.Logs = append(report.Logs, "✅ Nenhum aluno com vencimento hoje.")
		return report, nil
	}
	report.Logs = append(report.Logs, fmt.Sprintf("📋 Encontrados %d alunos com vencimento hoje.", len(due)))

	for _, sub := range due {
		number := evolution.NormalizePhone(sub.Phone, b.gateCfg.CountryCode)
		if number == "" {
			report.Logs = append(report.Logs, fmt.Sprintf("⚠️ Aluno %s sem telefone. Pular.", sub.StudentName))
			continue
		}
		text, err := b.messages.Reminder(MessageData{
			Name:     sub.StudentName,
			Value:    finance.FormatBRL(sub.Amount),
			PlanName: sub.PlanName,
			GymName:  gymName,
		})
		if err != nil {
			result = metrics.ResultError
			return report, err
		}
		if dryRun {
			report.Logs = append(report.Logs, fmt.Sprintf("[SIMULAÇÃO] Enviaria para %s (%s)", sub.StudentName, number))
			continue
		}
		if err := b.send(ctx, number, text); err != nil {
			report.Errors++
			report.Logs = append(report.Logs, fmt.Sprintf("❌ Erro ao enviar para %s: %v", sub.StudentName, err))
			if b.logger != nil {
				b.logger.Printf("reminder send error: student=%s err=%v", sub.StudentID, err)
			}
			continue
		}
		report.Sent++
		report.Logs = append(report.Logs, fmt.Sprintf("✅ Mensagem enviada para %s (%s)", sub.StudentName, number))
	}
	if report.Errors > 0 {
		result = metrics.ResultError
	}
	return report, nil
}

func (b *ReminderBot) send(ctx context.Context, number, text string) error {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveMessageSend(metrics.SourceReminder, result, time.Since(start))
	}()
	if _, err := b.gateway.SendText(ctx, b.gateCfg.Instance, number, text); err != nil {
		result = metrics.ResultError
		return err
	}
	return nil
}
