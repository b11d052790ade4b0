package notification

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	htmltmpl "html/template"
	"net/mail"
	texttmpl "text/template"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/gym-admin-api/internal/models"
	"github.com/noah-isme/gym-admin-api/pkg/jobs"
)

//go:embed templates/*
var templateFS embed.FS

// RegistrationMailPayload is the job payload produced when a registration is created.
type RegistrationMailPayload struct {
	RegistrationID string                 `json:"registration_id"`
	Student        models.StudentSnapshot `json:"student"`
	Plan           models.PlanSnapshot    `json:"plan"`
	StartDate      time.Time              `json:"start_date"`
	EndDate        time.Time              `json:"end_date"`
	Price          decimal.Decimal        `json:"price"`
}

// MailConfig carries sender identity and presentation settings.
type MailConfig struct {
	FromName      string
	FromAddress   string
	SubjectPrefix string
	Location      *time.Location
}

type registrationMailData struct {
	StudentName string
	PlanTitle   string
	Duration    int
	StartDate   string
	EndDate     string
	Price       string
}

// RegistrationMailHandler renders and sends the registration confirmation.
type RegistrationMailHandler struct {
	mailer  Mailer
	text    *texttmpl.Template
	html    *htmltmpl.Template
	cfg     MailConfig
	metrics recorder
	logger  *zap.Logger
}

// NewRegistrationMailHandler parses the embedded templates.
func NewRegistrationMailHandler(mailer Mailer, cfg MailConfig, metrics recorder, logger *zap.Logger) (*RegistrationMailHandler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	text, err := texttmpl.New("registration.txt").Option("missingkey=error").ParseFS(templateFS, "templates/registration.txt")
	if err != nil {
		return nil, fmt.Errorf("parse registration text template: %w", err)
	}
	html, err := htmltmpl.New("registration.gohtml").Option("missingkey=error").ParseFS(templateFS, "templates/registration.gohtml")
	if err != nil {
		return nil, fmt.Errorf("parse registration html template: %w", err)
	}
	return &RegistrationMailHandler{mailer: mailer, text: text, html: html, cfg: cfg, metrics: metrics, logger: logger}, nil
}

// Handle implements jobs.Handler.
func (h *RegistrationMailHandler) Handle(ctx context.Context, job jobs.Job) error {
	var payload RegistrationMailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		// A payload that cannot be decoded will never succeed on retry.
		h.logger.Error("invalid registration mail payload", zap.String("job_id", job.ID), zap.Error(err))
		h.record(OutcomeDropped)
		return nil
	}

	msg, err := h.Render(payload)
	if err != nil {
		h.record(OutcomeError)
		return err
	}
	if err := h.mailer.Send(ctx, msg); err != nil {
		h.record(OutcomeError)
		return fmt.Errorf("send registration mail: %w", err)
	}
	h.record(OutcomeSent)
	return nil
}

// Render builds the message for a payload.
func (h *RegistrationMailHandler) Render(payload RegistrationMailPayload) (Message, error) {
	data := registrationMailData{
		StudentName: payload.Student.Name,
		PlanTitle:   payload.Plan.Title,
		Duration:    payload.Plan.Duration,
		StartDate:   payload.StartDate.In(h.cfg.Location).Format("02/01/2006"),
		EndDate:     payload.EndDate.In(h.cfg.Location).Format("02/01/2006"),
		Price:       payload.Price.StringFixed(2),
	}

	var text bytes.Buffer
	if err := h.text.Execute(&text, data); err != nil {
		return Message{}, fmt.Errorf("render registration text: %w", err)
	}
	var html bytes.Buffer
	if err := h.html.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("render registration html: %w", err)
	}

	subject := "Registration confirmed"
	if h.cfg.SubjectPrefix != "" {
		subject = h.cfg.SubjectPrefix + " " + subject
	}
	return Message{
		From:     mail.Address{Name: h.cfg.FromName, Address: h.cfg.FromAddress},
		To:       []mail.Address{{Name: payload.Student.Name, Address: payload.Student.Email}},
		Subject:  subject,
		Text:     text.String(),
		HTML:     html.String(),
		Template: "registration",
	}, nil
}

func (h *RegistrationMailHandler) record(outcome string) {
	if h.metrics != nil {
		h.metrics.RecordNotification(JobRegistrationMail, outcome)
	}
}
