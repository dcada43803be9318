package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/notebox/pkg/calendar"
	"github.com/aretw0/notebox/pkg/core"
)

var (
	calDay   string
	calFrom  string
	calTo    string
	calTitle string
	calStart string
	calEnd   string
	calRRule string
)

const inputLayout = "2006-01-02 15:04"

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Local calendar events linked to notes",
}

var calendarListCmd = &cobra.Command{
	Use:   "list",
	Short: "List events of a day (default today) or of --from/--to",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, cfg, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		loc, _ := cfg.Location()
		events, err := listEvents(cmd, app.Calendar, loc)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd, events)
		}
		for _, e := range events {
			fmt.Fprintf(cmd.OutOrStdout(), "%s - %s  %s\n",
				e.Start.In(loc).Format(inputLayout), e.End.In(loc).Format("15:04"), e.Title)
		}
		return nil
	},
}

var calendarAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an event",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, cfg, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		loc, _ := cfg.Location()
		start, err := time.ParseInLocation(inputLayout, calStart, loc)
		if err != nil {
			return fmt.Errorf("invalid --start: %w", err)
		}
		end := start.Add(time.Hour)
		if calEnd != "" {
			if end, err = time.ParseInLocation(inputLayout, calEnd, loc); err != nil {
				return fmt.Errorf("invalid --end: %w", err)
			}
		}

		ev, err := app.Calendar.AddEvent(changeContext(cmd, "add event "+calTitle), calendar.EventInput{
			Title: calTitle,
			Start: start,
			End:   end,
			RRule: calRRule,
		})
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd, ev)
		}
		fmt.Fprintln(cmd.OutOrStdout(), ev.UID)
		return nil
	},
}

var calendarRelatedCmd = &cobra.Command{
	Use:   "related",
	Short: "List the events of a day with the notes written during each",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, cfg, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		loc, _ := cfg.Location()
		events, err := listEvents(cmd, app.Calendar, loc)
		if err != nil {
			return err
		}

		type related struct {
			Event calendar.Event `json:"event"`
			Notes []core.NoteRef `json:"notes"`
		}
		var out []related
		for _, e := range events {
			out = append(out, related{Event: e, Notes: calendar.RelatedNotes(app.Notes, e)})
		}
		if jsonOutput {
			return printJSON(cmd, out)
		}

		w := cmd.OutOrStdout()
		for _, r := range out {
			fmt.Fprintf(w, "%s  %s\n", r.Event.Start.In(loc).Format(inputLayout), r.Event.Title)
			for _, ref := range r.Notes {
				fmt.Fprintf(w, "  %s  %s\n", ref.Note.ID, ref.Note.Name)
			}
		}
		return nil
	},
}

func listEvents(cmd *cobra.Command, svc calendar.Service, loc *time.Location) ([]calendar.Event, error) {
	if calFrom != "" || calTo != "" {
		from, err := time.ParseInLocation(time.DateOnly, calFrom, loc)
		if err != nil {
			return nil, fmt.Errorf("invalid --from: %w", err)
		}
		to, err := time.ParseInLocation(time.DateOnly, calTo, loc)
		if err != nil {
			return nil, fmt.Errorf("invalid --to: %w", err)
		}
		return svc.EventsBetween(cmd.Context(), from, to.AddDate(0, 0, 1))
	}

	day := time.Now().In(loc)
	if calDay != "" {
		var err error
		if day, err = time.ParseInLocation(time.DateOnly, calDay, loc); err != nil {
			return nil, fmt.Errorf("invalid --day: %w", err)
		}
	}
	return svc.EventsOn(cmd.Context(), day)
}

func init() {
	rootCmd.AddCommand(calendarCmd)
	calendarCmd.AddCommand(calendarListCmd, calendarAddCmd, calendarRelatedCmd)

	for _, c := range []*cobra.Command{calendarListCmd, calendarRelatedCmd} {
		c.Flags().StringVar(&calDay, "day", "", "Day as YYYY-MM-DD (default today)")
		c.Flags().StringVar(&calFrom, "from", "", "First day of a range (YYYY-MM-DD)")
		c.Flags().StringVar(&calTo, "to", "", "Last day of a range, inclusive (YYYY-MM-DD)")
	}

	calendarAddCmd.Flags().StringVar(&calTitle, "title", "", "Event title")
	calendarAddCmd.Flags().StringVar(&calStart, "start", "", `Start as "YYYY-MM-DD HH:MM"`)
	calendarAddCmd.Flags().StringVar(&calEnd, "end", "", "End (default start + 1h)")
	calendarAddCmd.Flags().StringVar(&calRRule, "rrule", "", "Recurrence rule, e.g. FREQ=WEEKLY;COUNT=4")
	calendarAddCmd.MarkFlagRequired("title")
	calendarAddCmd.MarkFlagRequired("start")
}
