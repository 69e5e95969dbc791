package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/xeonx/timeago"

	"github.com/deskhive/slacore/internal/config"
	"github.com/deskhive/slacore/internal/models"
	"github.com/deskhive/slacore/internal/repository"
	"github.com/deskhive/slacore/internal/services/sla"
)

var (
	version = "dev"
	commit  = "none"
)

var rootCmd = &cobra.Command{
	Use:   "slacheck",
	Short: "SLA engine inspection tool",
	Long: `slacheck evaluates tickets against the configured SLA policies
and business calendars: which policy applies, when the ticket is due,
and whether the deadline is on track, at risk, or breached.`,
	Version: fmt.Sprintf("%s (commit: %s)", version, commit),
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report the SLA status for a ticket",
	RunE:  runStatus,
}

var policiesCmd = &cobra.Command{
	Use:   "policies",
	Short: "List configured policies in resolution order for a ticket",
	RunE:  runPolicies,
}

var (
	configFlag   string
	orgFlag      string
	priorityFlag string
	categoryFlag string
	createdFlag  string
	nowFlag      string
	fieldFlags   []string
)

func init() {
	for _, cmd := range []*cobra.Command{statusCmd, policiesCmd} {
		cmd.Flags().StringVar(&configFlag, "config", "slacore.yaml", "Path to the configuration file")
		cmd.Flags().StringVar(&orgFlag, "org", "", "Ticket organization id (uuid, empty for none)")
		cmd.Flags().StringVar(&priorityFlag, "priority", "", "Ticket priority")
		cmd.Flags().StringVar(&categoryFlag, "category", "", "Ticket category")
		cmd.Flags().StringVar(&createdFlag, "created", "", "Ticket creation time (RFC3339, default now)")
		cmd.Flags().StringVar(&nowFlag, "now", "", "Evaluation time (RFC3339, default now)")
		cmd.Flags().StringArrayVar(&fieldFlags, "field", nil, "Custom ticket field as key=value (repeatable)")
	}
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(policiesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	repo, err := loadRepository(ctx)
	if err != nil {
		return err
	}
	ticket, now, err := buildTicket()
	if err != nil {
		return err
	}

	calendar, err := repo.CalendarForOrganization(ctx, ticket.OrganizationID)
	if err != nil {
		return err
	}
	sched, err := sla.NewSchedule(*calendar)
	if err != nil {
		return err
	}
	policies, err := repo.ListPoliciesForOrganization(ctx, ticket.OrganizationID)
	if err != nil {
		return err
	}

	status, err := sla.Status(ticket, policies, sched, now)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Status:\t%s\n", status.Status)
	if status.Status != models.StatusNoPolicy {
		fmt.Fprintf(w, "Policy:\t%s\n", status.PolicyName)
		fmt.Fprintf(w, "Due:\t%s (%s)\n",
			status.DueDate.Format(time.RFC3339),
			timeago.English.FormatReference(*status.DueDate, now))
		fmt.Fprintf(w, "Remaining:\t%d minutes\n", status.TimeRemainingMinutes)
	} else {
		fmt.Fprintf(w, "Policy:\tnone applicable\n")
	}
	return w.Flush()
}

func runPolicies(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	repo, err := loadRepository(ctx)
	if err != nil {
		return err
	}
	ticket, _, err := buildTicket()
	if err != nil {
		return err
	}

	policies, err := repo.ListPoliciesForOrganization(ctx, ticket.OrganizationID)
	if err != nil {
		return err
	}

	resolved, err := sla.Resolve(ticket, policies)
	if err != nil && !errors.Is(err, sla.ErrPolicyNotFound) {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCONDITIONS\tRESPONSE\tRESOLUTION\tSCOPE\tSELECTED")
	for _, p := range policies {
		scope := "global"
		if p.OrganizationID != nil {
			scope = p.OrganizationID.String()
		}
		selected := ""
		if resolved != nil && resolved.ID == p.ID {
			selected = "*"
		}
		fmt.Fprintf(w, "%s\t%d\t%dm\t%dm\t%s\t%s\n",
			p.Name, len(p.Conditions), p.ResponseTimeMinutes, p.ResolutionTimeMinutes, scope, selected)
	}
	return w.Flush()
}

// loadRepository reads the configuration and seeds an in-memory store
// with its calendars and policies.
func loadRepository(ctx context.Context) (*repository.MemoryPolicyRepository, error) {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return nil, err
	}
	repo := repository.NewMemoryPolicyRepository()
	for _, calendar := range cfg.BusinessCalendars() {
		c := calendar
		if err := repo.SaveCalendar(ctx, &c); err != nil {
			return nil, err
		}
	}
	for _, policy := range cfg.SLAPolicies() {
		p := policy
		if err := repo.CreatePolicy(ctx, &p); err != nil {
			return nil, err
		}
	}
	return repo, nil
}

func buildTicket() (models.TicketSnapshot, time.Time, error) {
	now := time.Now()
	if nowFlag != "" {
		t, err := time.Parse(time.RFC3339, nowFlag)
		if err != nil {
			return models.TicketSnapshot{}, time.Time{}, fmt.Errorf("invalid --now: %w", err)
		}
		now = t
	}

	created := now
	if createdFlag != "" {
		t, err := time.Parse(time.RFC3339, createdFlag)
		if err != nil {
			return models.TicketSnapshot{}, time.Time{}, fmt.Errorf("invalid --created: %w", err)
		}
		created = t
	}

	ticket := models.TicketSnapshot{
		CreatedAt: created,
		Priority:  priorityFlag,
		Category:  categoryFlag,
	}
	if orgFlag != "" {
		id, err := uuid.Parse(orgFlag)
		if err != nil {
			return models.TicketSnapshot{}, time.Time{}, fmt.Errorf("invalid --org: %w", err)
		}
		ticket.OrganizationID = &id
	}
	for _, f := range fieldFlags {
		key, value, found := strings.Cut(f, "=")
		if !found {
			return models.TicketSnapshot{}, time.Time{}, fmt.Errorf("invalid --field %q, want key=value", f)
		}
		if ticket.Fields == nil {
			ticket.Fields = make(map[string]interface{})
		}
		ticket.Fields[key] = value
	}
	return ticket, now, nil
}
