package email

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/inkvault/backend/internal/logger"
	"github.com/inkvault/backend/internal/telemetry"
	"go.uber.org/zap"
)

// sendEmailAPI is the slice of the SES client this package uses
type sendEmailAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// EmailService handles sending emails via AWS SES
type EmailService struct {
	client    sendEmailAPI
	fromEmail string
	fromName  string
	baseURL   string
}

// NewEmailService creates a new email service using AWS SES
func NewEmailService(region, fromEmail, fromName, baseURL string) (*EmailService, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithHTTPClient(telemetry.NewHTTPClient(30 * time.Second)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &EmailService{
		client:    ses.NewFromConfig(cfg),
		fromEmail: fromEmail,
		fromName:  fromName,
		baseURL:   baseURL,
	}, nil
}

// SendVerificationCode mails the code that activates a pending registration
func (e *EmailService) SendVerificationCode(ctx context.Context, toEmail, username, code string) error {
	verifyURL := fmt.Sprintf("%s/verify/%s", e.baseURL, code)
	subject := "Verify your Inkvault account"
	text := fmt.Sprintf(`Hi %s,

Welcome to Inkvault. Open the link below to verify your email address.
The link expires in 10 minutes.

%s

If you did not sign up you can ignore this email.
`, username, verifyURL)
	html := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; line-height: 1.6; color: #222;">
	<h1>Welcome, %s</h1>
	<p>Open the link below to verify your email address. It expires in 10 minutes.</p>
	<p><a href="%s">Verify my account</a></p>
	<p style="color: #888;">If you did not sign up you can ignore this email.</p>
</body>
</html>`, username, verifyURL)

	if err := e.send(ctx, toEmail, subject, html, text); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	return nil
}

// SendPasswordResetCode mails the short code that authorizes a password reset
func (e *EmailService) SendPasswordResetCode(ctx context.Context, toEmail, username, code string) error {
	subject := "Your Inkvault password reset code"
	text := fmt.Sprintf(`Hi %s,

Your password reset code is %s. It expires in 10 minutes.

If you did not ask to reset your password you can ignore this email.
`, username, code)
	html := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; line-height: 1.6; color: #222;">
	<p>Hi %s,</p>
	<p>Your password reset code is <strong style="font-size: 20px; letter-spacing: 4px;">%s</strong>.</p>
	<p>It expires in 10 minutes.</p>
	<p style="color: #888;">If you did not ask to reset your password you can ignore this email.</p>
</body>
</html>`, username, code)

	if err := e.send(ctx, toEmail, subject, html, text); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}
	return nil
}

func (e *EmailService) send(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	from := e.fromEmail
	if e.fromName != "" {
		from = fmt.Sprintf("%s <%s>", e.fromName, e.fromEmail)
	}

	input := &ses.SendEmailInput{
		Source: aws.String(from),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Message: &types.Message{
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
	}

	_, err := e.client.SendEmail(ctx, input)
	return err
}

// LogMailer stands in for SES in development. It writes the codes to the log.
type LogMailer struct{}

func (LogMailer) SendVerificationCode(_ context.Context, toEmail, username, code string) error {
	logger.Log.Info("Verification code (not mailed)",
		zap.String("email", toEmail), logger.WithUsername(username), zap.String("code", code))
	return nil
}

func (LogMailer) SendPasswordResetCode(_ context.Context, toEmail, username, code string) error {
	logger.Log.Info("Password reset code (not mailed)",
		zap.String("email", toEmail), logger.WithUsername(username), zap.String("code", code))
	return nil
}
