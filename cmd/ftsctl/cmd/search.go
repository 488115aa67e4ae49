package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/searcher/executor"
)

type searchOptions struct {
	field   string
	output  []string
	num     int
	paging  bool
	preTag  string
	postTag string
	cjk     bool
	format  string
}

func newSearchCmd(g *globalOptions, suggest bool) *cobra.Command {
	opts := searchOptions{}

	use, short := "search", "Search one field and print the requested fields of each hit"
	if suggest {
		use, short = "suggest", "Print the matching values of one field"
	}

	cmd := &cobra.Command{
		Use:   use + " <index> <query...>",
		Short: short,
		Example: fmt.Sprintf(`  ftsctl %s people hiking --field bio
  ftsctl %[1]s people hiking --field bio --paging   # next page on each call with the redis cursor backend`, use),
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args[1:], " ")
			if suggest {
				return opts.suggest(cmd, g, args[0], query)
			}
			return opts.search(cmd, g, args[0], query)
		},
	}

	cmd.Flags().StringVar(&opts.field, "field", "", "Field the query runs against")
	cmd.Flags().IntVarP(&opts.num, "num", "n", 0, "Page size (0 uses search.defaultLimit)")
	cmd.Flags().BoolVar(&opts.paging, "paging", false, "Continue from the page the previous paged call ended on")
	cmd.Flags().StringVar(&opts.preTag, "pre", "", "Inserted before each highlighted term")
	cmd.Flags().StringVar(&opts.postTag, "post", "", "Inserted after each highlighted term")
	cmd.Flags().BoolVar(&opts.cjk, "cjk", false, "The index was built with the CJK analyzer")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	if !suggest {
		cmd.Flags().StringSliceVarP(&opts.output, "output", "o", nil, "Fields printed for each hit (defaults to --field)")
	}
	_ = cmd.MarkFlagRequired("field")
	return cmd
}

func (o searchOptions) search(cmd *cobra.Command, g *globalOptions, name, query string) error {
	ctx := cmd.Context()
	a, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	output := o.output
	if len(output) == 0 {
		output = []string{o.field}
	}
	res, err := a.Executor.Search(ctx, executor.Request{
		Index:        name,
		Language:     language(o.cjk),
		QueryField:   o.field,
		OutputFields: output,
		Query:        query,
		PageSize:     o.pageSize(a.Config.Search.DefaultLimit),
		PreTag:       o.preTag,
		PostTag:      o.postTag,
		Paging:       o.paging,
	})
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if o.format == "json" {
		return writeJSON(w, res)
	}
	return printRows(w, output, res.Rows, res.Total)
}

func (o searchOptions) suggest(cmd *cobra.Command, g *globalOptions, name, query string) error {
	ctx := cmd.Context()
	a, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	values, err := executor.NewSuggester(a.Executor).Suggest(ctx, executor.SuggestRequest{
		Index:    name,
		Language: language(o.cjk),
		Field:    o.field,
		Query:    query,
		PageSize: o.pageSize(a.Config.Search.DefaultLimit),
		PreTag:   o.preTag,
		PostTag:  o.postTag,
		Paging:   o.paging,
	})
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if o.format == "json" {
		return writeJSON(w, values)
	}
	for _, v := range values {
		if _, err := fmt.Fprintln(w, v); err != nil {
			return err
		}
	}
	return nil
}

func (o searchOptions) pageSize(fallback int) int {
	if o.num > 0 {
		return o.num
	}
	return fallback
}

func printRows(w io.Writer, header []string, rows [][]string, total uint64) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d of %d matches\n", len(rows), total)
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
