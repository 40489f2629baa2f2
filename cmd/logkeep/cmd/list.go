package cmd

import (
	"net/url"
	"strconv"

	"github.com/GoPolymarket/logkeep/internal/service"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List log entries, newest first",
	Long: `List log entries, newest first.

Examples:
  logkeep list
  logkeep list --level error --level fatal
  logkeep list --min-level warn --http
  logkeep list --tag Auth -q token -n 20 -o json`,
	RunE: runList,
}

type listOptions struct {
	levels   []string
	minLevel string
	tag      string
	search   string
	httpOnly bool
	since    string
	limit    int
}

const defaultListLimit = 50

var listOpts listOptions

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringSliceVarP(&listOpts.levels, "level", "l", nil, "only these levels (repeatable)")
	listCmd.Flags().StringVar(&listOpts.minLevel, "min-level", "", "minimum severity")
	listCmd.Flags().StringVarP(&listOpts.tag, "tag", "t", "", "filter by tag")
	listCmd.Flags().StringVarP(&listOpts.search, "search", "q", "", "search message and tag")
	listCmd.Flags().BoolVar(&listOpts.httpOnly, "http", false, "only entries with HTTP context")
	listCmd.Flags().StringVar(&listOpts.since, "since", "", "only entries at or after this time (RFC3339 or unix seconds)")
	listCmd.Flags().IntVarP(&listOpts.limit, "limit", "n", defaultListLimit, "maximum entries to show (0 for all)")
}

// query maps the flags onto the same parameters the HTTP API accepts.
func (o listOptions) query() url.Values {
	q := url.Values{}
	for _, l := range o.levels {
		q.Add("level", l)
	}
	if o.minLevel != "" {
		q.Set("min_level", o.minLevel)
	}
	if o.tag != "" {
		q.Set("tag", o.tag)
	}
	if o.search != "" {
		q.Set("q", o.search)
	}
	if o.httpOnly {
		q.Set("http", strconv.FormatBool(true))
	}
	if o.since != "" {
		q.Set("from", o.since)
	}
	return q
}

func runList(cmd *cobra.Command, args []string) error {
	pred, err := service.ParseQuery(listOpts.query())
	if err != nil {
		return err
	}
	entries := store.Filter(pred)
	if listOpts.limit > 0 {
		entries = service.Limit(entries, listOpts.limit)
	}
	return NewPrinter(cmd.OutOrStdout(), outputFmt).PrintEntries(entries)
}
