package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/anipi/internal/platform/api"
	"github.com/example/anipi/services/catalog/internal/facets"
	"github.com/example/anipi/services/catalog/internal/query"
	"github.com/example/anipi/services/catalog/internal/store"
)

const defaultDataFile = "data/anime-offline-database.json"

type rootOptions struct {
	file   string
	output string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "catalogctl",
		Short: "Query an anime offline database file",
		Long: `catalogctl runs catalog queries against a local dataset file and prints
the same envelopes the HTTP API returns.

Examples:
  # Second page of TV series, newest first
  catalogctl query --type tv --sort-by year --desc --page 2

  # Top tags with record counts as YAML
  catalogctl facets tags --counts -o yaml

  # Look up one entry by source URL
  catalogctl get --url https://myanimelist.net/anime/5114`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return validateOutput(opts.output)
		},
	}

	dataFile := strings.TrimSpace(os.Getenv("DATA_FILE"))
	if dataFile == "" {
		dataFile = defaultDataFile
	}
	root.PersistentFlags().StringVarP(&opts.file, "file", "f", dataFile, "Dataset file path (env DATA_FILE)")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", formatJSON, "Output format: json|yaml")

	root.AddCommand(newQueryCmd(opts), newFacetsCmd(opts), newGetCmd(opts))
	return root
}

func (o *rootOptions) load(cmd *cobra.Command) ([]store.Anime, error) {
	db, err := store.NewFileSource(o.file).Load(cmd.Context())
	if err != nil {
		return nil, err
	}
	return db.Records(), nil
}

func newQueryCmd(opts *rootOptions) *cobra.Command {
	var (
		p        query.Params
		page     int
		pageSize int
		year     int
	)
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Filter, sort and paginate the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			if flags.Changed("page") {
				p.Page = &page
			}
			if flags.Changed("page-size") {
				p.PageSize = &pageSize
			}
			if flags.Changed("year") {
				p.Year = &year
			}

			records, err := opts.load(cmd)
			if err != nil {
				return err
			}
			res := query.Run(records, query.NewSpec(p))
			env := api.Paginated(res.Items, api.NewPagination(res.Page, res.PageSize, res.TotalCount, res.TotalPages))
			return render(cmd.OutOrStdout(), opts.output, env)
		},
	}

	f := cmd.Flags()
	f.IntVar(&page, "page", query.DefaultPage, "Page number, 1-based")
	f.IntVar(&pageSize, "page-size", query.DefaultPageSize, "Items per page (max 100)")
	f.StringVar(&p.Title, "title", "", "Case-insensitive title substring")
	f.StringVar(&p.Type, "type", "", "Exact type, case-insensitive")
	f.StringVar(&p.Status, "status", "", "Exact status, case-insensitive")
	f.StringVar(&p.Season, "season", "", "Exact season, case-insensitive")
	f.IntVar(&year, "year", 0, "Season year")
	f.StringVar(&p.Tag, "tag", "", "Case-insensitive tag substring")
	f.StringVar(&p.SortBy, "sort-by", query.SortTitle.String(), "Sort key: title|score|year")
	f.BoolVar(&p.SortDescending, "desc", false, "Sort descending")
	return cmd
}

var facetNames = []string{"types", "statuses", "seasons", "years", "tags"}

func newFacetsCmd(opts *rootOptions) *cobra.Command {
	var (
		counts bool
		limit  int
	)
	cmd := &cobra.Command{
		Use:       "facets <types|statuses|seasons|years|tags>",
		Short:     "List distinct values of a catalog field",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: facetNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := opts.load(cmd)
			if err != nil {
				return err
			}

			var data any
			switch args[0] {
			case "types":
				data = facets.Types(records)
			case "statuses":
				data = facets.Statuses(records)
			case "seasons":
				data = facets.Seasons(records)
			case "years":
				data = facets.Years(records)
			case "tags":
				top := facets.TopTags(records, limit)
				if counts {
					data = top
				} else {
					data = facets.TagNames(top)
				}
			}
			return render(cmd.OutOrStdout(), opts.output, api.OK(data))
		},
	}
	cmd.Flags().BoolVar(&counts, "counts", false, "Include record counts (tags only)")
	cmd.Flags().IntVar(&limit, "limit", facets.MaxTags, "Maximum number of tags (tags only)")
	return cmd
}

func newGetCmd(opts *rootOptions) *cobra.Command {
	var sourceURL string
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Find the entry listing a source URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sourceURL = strings.TrimSpace(sourceURL)
			if sourceURL == "" {
				return errors.New("source URL is required")
			}
			records, err := opts.load(cmd)
			if err != nil {
				return err
			}
			anime, err := query.FindBySource(records, sourceURL)
			if errors.Is(err, query.ErrNotFound) {
				return fmt.Errorf("anime with source URL %s not found", sourceURL)
			}
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.output, api.OK(anime))
		},
	}
	cmd.Flags().StringVar(&sourceURL, "url", "", "Source URL to look up")
	return cmd
}
