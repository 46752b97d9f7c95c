package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/pawsitter/backend/internal/config"
	"github.com/pawsitter/backend/internal/domain"
	"github.com/pawsitter/backend/internal/service"
	emailProvider "github.com/pawsitter/backend/pkg/email"
	"go.uber.org/zap"
)

// ErrNoRecipient means the user has no usable email address. Retrying does
// not help.
var ErrNoRecipient = errors.New("user has no email address")

type emailNotifier struct {
	sender   emailProvider.Sender
	services *service.Services
	config   config.EmailConfig
	log      *zap.Logger
}

func newEmailNotifier(
	sender emailProvider.Sender,
	services *service.Services,
	config config.EmailConfig,
	log *zap.Logger,
) *emailNotifier {
	return &emailNotifier{
		sender:   sender,
		services: services,
		config:   config,
		log:      log.Named("notifier"),
	}
}

type decisionEmailInput struct {
	FirstName         string
	DocumentLabel     string
	Reason            string
	AllowResubmission bool
}

func (s *emailNotifier) SendDecisionNotification(ctx context.Context, n domain.DecisionNotification) error {
	if !s.config.Enabled {
		s.log.Debug("email disabled, notification dropped", zap.Stringer("verification_id", n.VerificationID))
		return nil
	}

	var subject, templateName string
	switch n.Status {
	case domain.VerificationStatusApproved:
		subject = "Your ID has been verified"
		templateName = s.config.Templates.VerificationApproved
	case domain.VerificationStatusRejected:
		subject = "We could not verify your ID"
		templateName = s.config.Templates.VerificationRejected
	default:
		return nil
	}

	user, err := s.services.Users.GetOneByID(ctx, n.UserID)
	if err != nil {
		return fmt.Errorf("get user failed: %w", err)
	}
	if !user.Email.Valid || user.Email.String == "" {
		return ErrNoRecipient
	}

	v, err := s.services.Verifications.GetOneByID(ctx, n.VerificationID)
	if err != nil {
		return fmt.Errorf("get verification failed: %w", err)
	}

	firstName, _ := user.FullName()
	templateInput := decisionEmailInput{
		FirstName:         firstName,
		DocumentLabel:     v.DocumentType.Label(),
		Reason:            n.Reason,
		AllowResubmission: n.AllowResubmission,
	}
	sendInput := emailProvider.SendEmailInput{Subject: subject, To: user.Email.String}

	if err := sendInput.GenerateBodyFromHTML(s.config.TemplatesDir, templateName, templateInput); err != nil {
		return fmt.Errorf("generate email failed: %w", err)
	}

	if err := s.sender.Send(sendInput); err != nil {
		return fmt.Errorf("send email failed: %w", err)
	}

	s.log.Info("decision email sent",
		zap.Stringer("verification_id", n.VerificationID),
		zap.String("status", string(n.Status)),
	)

	return nil
}
