package main

import (
	"context"
	"errors"
	"fmt"

	"lead-crm/internal/models"
	"lead-crm/internal/view"

	"github.com/spf13/cobra"
)

func newCreateCmd(a *app) *cobra.Command {
	var req models.CreateLeadRequest

	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Create a lead and print the refreshed list",
		Example: `  leadctl create --name "Ana Silva" --phone 555-0100 --email ana@example.com --source Referral`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sync, err := a.synchronizer()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), a.v.GetDuration("timeout"))
			defer cancel()

			created, err := sync.CreateLead(ctx, req)
			var rejected *view.RejectedError
			switch {
			case errors.As(err, &rejected):
				fmt.Fprintln(a.out, rejected.Message)
				for _, msg := range rejected.Errors {
					fmt.Fprintf(a.out, "  - %s\n", msg)
				}
				return err
			case errors.Is(err, view.ErrLoadFailed):
				fmt.Fprintf(a.out, "Created %s, but the list could not be refreshed: %v\n", created.Name, err)
			case err != nil:
				return err
			default:
				fmt.Fprintf(a.out, "Created %s\n", created.Name)
			}

			return renderTable(a.out, sync.Filtered(), len(sync.Leads()))
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&req.Name, "name", "", "full name (required)")
	fl.StringVar(&req.Phone, "phone", "", "phone number (required)")
	fl.StringVar(&req.AltPhone, "alt-phone", "", "alternate phone number")
	fl.StringVar(&req.Email, "email", "", "e-mail (required)")
	fl.StringVar(&req.AltEmail, "alt-email", "", "alternate e-mail")
	fl.StringVar(&req.Status, "status", "", "status")
	fl.StringVar(&req.Qualification, "qualification", "", "qualification")
	fl.StringVar(&req.InterestField, "interest", "", "interest field")
	fl.StringVar(&req.Source, "source", "", "lead source")
	fl.StringVar(&req.AssignedTo, "assigned-to", "", "team member")
	fl.StringVar(&req.JobInterest, "job-interest", "", "job interest")
	fl.StringVar(&req.State, "state", "", "state")
	fl.StringVar(&req.City, "city", "", "city")
	fl.StringVar(&req.PassoutYear, "passout-year", "", "4-digit passout year")
	fl.StringVar(&req.HeardFrom, "heard-from", "", "where the lead heard about us")
	return cmd
}
