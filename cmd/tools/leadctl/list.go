package main

import (
	"context"
	"fmt"
	"strings"

	"lead-crm/internal/view"

	"github.com/spf13/cobra"
)

type filterFlags struct {
	search        string
	status        string
	source        string
	qualification string
	interest      string
	assignedTo    string
	match         string
	extra         []string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.search, "search", "", "free text matched against name, contact and assignee")
	fl.StringVar(&f.status, "status", "", "exact status")
	fl.StringVar(&f.source, "source", "", "exact source")
	fl.StringVar(&f.qualification, "qualification", "", "exact qualification")
	fl.StringVar(&f.interest, "interest", "", "exact interest field")
	fl.StringVar(&f.assignedTo, "assigned-to", "", "exact assignee")
	fl.StringVar(&f.match, "match", "ALL", "combine filters with ALL or ANY")
	fl.StringArrayVar(&f.extra, "filter", nil, "additional substring filter field=value (repeatable)")
}

func (f *filterFlags) filterSet() (view.FilterSet, error) {
	fs := view.FilterSet{
		MatchType:     view.ParseMatchType(f.match),
		Status:        f.status,
		Source:        f.source,
		Qualification: f.qualification,
		InterestField: f.interest,
		AssignedTo:    f.assignedTo,
	}
	for _, raw := range f.extra {
		ff, err := parseFieldFilter(raw)
		if err != nil {
			return view.FilterSet{}, err
		}
		fs.AdditionalFilters = append(fs.AdditionalFilters, ff)
	}
	return fs, nil
}

func parseFieldFilter(raw string) (view.FieldFilter, error) {
	field, value, ok := strings.Cut(raw, "=")
	field = strings.TrimSpace(field)
	if !ok || field == "" {
		return view.FieldFilter{}, fmt.Errorf("invalid --filter %q, expected field=value", raw)
	}
	if !view.IsFilterableField(field) {
		return view.FieldFilter{}, fmt.Errorf("invalid --filter %q, field must be one of: %s",
			raw, strings.Join(view.FilterableFields, ", "))
	}
	return view.FieldFilter{Field: field, Value: value}, nil
}

func newListCmd(a *app) *cobra.Command {
	var ff filterFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List leads, optionally searched and filtered",
		Example: `  leadctl list
  leadctl list --search ana --status New
  leadctl list --match ANY --source Referral --filter assignedTo=jane`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := ff.filterSet()
			if err != nil {
				return err
			}

			sync, err := a.synchronizer()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), a.v.GetDuration("timeout"))
			defer cancel()

			if err := sync.OnLoad(ctx); err != nil {
				return err
			}
			sync.OnFilterChange(fs)
			sync.OnSearchChange(ff.search)

			return renderTable(a.out, sync.Filtered(), len(sync.Leads()))
		},
	}
	ff.register(cmd)
	return cmd
}
