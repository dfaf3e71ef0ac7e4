package service

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	"text/template"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"go.uber.org/zap"

	"galactischevrienden/internal/models"
)

// sesAPI is the part of the SES client the email service uses
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailService sends emails via Amazon SES
type EmailService struct {
	client    sesAPI
	fromEmail string
	fromName  string
	enabled   bool
	logger    *zap.Logger
}

// NewEmailService creates an email service. Without a sender address the
// service is disabled and every send is a logged no-op.
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName string, logger *zap.Logger) (*EmailService, error) {
	if fromEmail == "" {
		logger.Info("email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{enabled: false, logger: logger}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	logger.Info("email service enabled", zap.String("from", fromEmail), zap.String("region", awsRegion))
	return &EmailService{
		client:    sesv2.NewFromConfig(cfg),
		fromEmail: fromEmail,
		fromName:  fromName,
		enabled:   true,
		logger:    logger,
	}, nil
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

var weeklyReportHTML = htmltemplate.Must(htmltemplate.New("weekly-html").Parse(`<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.header { background-color: #2d1b69; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
		.content { background-color: #f9f9f9; padding: 30px; border-radius: 0 0 5px 5px; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<div class="header">
			<h1>Weekoverzicht van {{.Name}}</h1>
		</div>
		<div class="content">
			<p>Sterren: <strong>{{.Overview.Stars}}</strong> &middot; Leesreeks: <strong>{{.Overview.Streak.CurrentStreak}}</strong> dagen (record {{.Overview.Streak.LongestStreak}})</p>
			<p>Deze week {{.Overview.AttemptsThisWeek}} woorden geoefend op AVI-niveau {{.Overview.AVILevel}}.</p>
			<ul>
				<li>Beheerst: {{.Mastered}}</li>
				<li>Bijna: {{.Learning}}</li>
				<li>Oefenen: {{.Practicing}}</li>
				<li>Lastig: {{.Difficult}}</li>
			</ul>
			{{if .Overview.DifficultWords}}<p>Lastige woorden:</p>
			<ul>{{range .Overview.DifficultWords}}
				<li>{{.Word}} ({{.Correct}}/{{.Attempts}} goed)</li>{{end}}
			</ul>{{end}}
		</div>
		<div class="footer">
			<p>Dit is een automatische e-mail van Galactische Vrienden.</p>
		</div>
	</div>
</body>
</html>
`))

var weeklyReportText = template.Must(template.New("weekly-text").Parse(`Weekoverzicht van {{.Name}}

Sterren: {{.Overview.Stars}}
Leesreeks: {{.Overview.Streak.CurrentStreak}} dagen (record {{.Overview.Streak.LongestStreak}})
Deze week {{.Overview.AttemptsThisWeek}} woorden geoefend op AVI-niveau {{.Overview.AVILevel}}.

Beheerst: {{.Mastered}}
Bijna: {{.Learning}}
Oefenen: {{.Practicing}}
Lastig: {{.Difficult}}
{{if .Overview.DifficultWords}}
Lastige woorden:
{{range .Overview.DifficultWords}}- {{.Word}} ({{.Correct}}/{{.Attempts}} goed)
{{end}}{{end}}
---
Dit is een automatische e-mail van Galactische Vrienden.
`))

// RenderWeeklyReport returns the subject, HTML and text body of a weekly report
func RenderWeeklyReport(overview ParentOverview) (subject, htmlBody, textBody string, err error) {
	name := overview.DisplayName
	if name == "" {
		name = overview.ChildID
	}
	data := struct {
		Name       string
		Overview   ParentOverview
		Mastered   int
		Learning   int
		Practicing int
		Difficult  int
	}{
		Name:       name,
		Overview:   overview,
		Mastered:   overview.Mastery[models.MasteryMastered],
		Learning:   overview.Mastery[models.MasteryLearning],
		Practicing: overview.Mastery[models.MasteryPracticing],
		Difficult:  overview.Mastery[models.MasteryDifficult],
	}

	var html, text bytes.Buffer
	if err := weeklyReportHTML.Execute(&html, data); err != nil {
		return "", "", "", fmt.Errorf("failed to render report: %w", err)
	}
	if err := weeklyReportText.Execute(&text, data); err != nil {
		return "", "", "", fmt.Errorf("failed to render report: %w", err)
	}
	return "Weekoverzicht van " + name, html.String(), text.String(), nil
}

// SendWeeklyReport emails the overview to a parent
func (s *EmailService) SendWeeklyReport(ctx context.Context, toEmail string, overview ParentOverview) error {
	if !s.enabled {
		s.logger.Debug("skipping weekly report, email disabled", zap.String("child_id", overview.ChildID))
		return nil
	}

	subject, htmlBody, textBody, err := RenderWeeklyReport(overview)
	if err != nil {
		return err
	}
	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// sendEmail sends an email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	fields := []zap.Field{zap.String("to", toEmail), zap.String("subject", subject)}
	if result.MessageId != nil {
		fields = append(fields, zap.String("message_id", *result.MessageId))
	}
	s.logger.Info("email sent", fields...)
	return nil
}
