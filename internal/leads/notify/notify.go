// Package notify e-mails team members when a lead is assigned to them.
package notify

import (
	"context"
	"fmt"
	"strings"

	"lead-crm/internal/common/errors"
	"lead-crm/internal/common/logger"
	"lead-crm/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

const notificationType = "lead_assignment"

// SESService is the subset of the SES client the notifier needs.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// AssignmentNotifier sends one e-mail per created lead to its assignee.
type AssignmentNotifier struct {
	ses       SESService
	from      string
	assignees map[string]string
	logger    logger.Logger
}

// NewAssignmentNotifier builds a notifier. assignees maps team member names
// to addresses; names are matched case-insensitively.
func NewAssignmentNotifier(svc SESService, from string, assignees map[string]string, log logger.Logger) *AssignmentNotifier {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	normalized := make(map[string]string, len(assignees))
	for name, addr := range assignees {
		normalized[strings.ToLower(strings.TrimSpace(name))] = addr
	}
	return &AssignmentNotifier{
		ses:       svc,
		from:      from,
		assignees: normalized,
		logger:    log.WithFields(map[string]interface{}{"component": "assignment-notifier"}),
	}
}

// AddressFor returns the configured address of assignee.
func (n *AssignmentNotifier) AddressFor(assignee string) (string, bool) {
	addr, ok := n.assignees[strings.ToLower(strings.TrimSpace(assignee))]
	return addr, ok && addr != ""
}

// NotifyAssignment e-mails the lead's assignee. Assignees without an address are skipped.
func (n *AssignmentNotifier) NotifyAssignment(ctx context.Context, lead *models.Lead) error {
	to, ok := n.AddressFor(lead.AssignedTo)
	if !ok {
		n.logger.Debug("no address for assignee, skipping", map[string]interface{}{
			"assignedTo": lead.AssignedTo,
		})
		return nil
	}

	subject, body := render(lead)
	_, err := n.ses.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(n.from),
	})
	if err != nil {
		return errors.NewNotificationSendFailedError(notificationType, err)
	}

	n.logger.Info("assignment e-mail sent", map[string]interface{}{
		"leadId":     lead.ID,
		"assignedTo": lead.AssignedTo,
	})
	return nil
}

func render(lead *models.Lead) (string, string) {
	subject := fmt.Sprintf("New lead assigned: %s", lead.Name)

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", lead.AssignedTo)
	fmt.Fprintf(&b, "A new lead has been assigned to you.\n\n")
	fmt.Fprintf(&b, "Name: %s\n", lead.Name)
	fmt.Fprintf(&b, "Phone: %s\n", lead.Phone)
	fmt.Fprintf(&b, "Email: %s\n", lead.Email)
	fmt.Fprintf(&b, "Status: %s\n", lead.Status)
	fmt.Fprintf(&b, "Interest: %s\n", lead.InterestField)
	fmt.Fprintf(&b, "Source: %s\n", lead.Source)
	return subject, b.String()
}
