package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"github.com/rshade/storekit/internal/catalog"
	"github.com/rshade/storekit/internal/cli/pagination"
	"github.com/rshade/storekit/internal/table"
)

// fetchConcurrency bounds the page fetches issued by --all.
const fetchConcurrency = 4

// Output formats.
const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

func newListCmd(a *app) *cobra.Command {
	var (
		params pagination.Params
		output string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List one page of products",
		Long: `Lists products from the catalog, one page at a time.

Sorting and search are applied by the backend. Transient backend failures are
retried with exponential backoff according to the retry section of the
configuration; permanent failures are reported immediately.`,
		Example: `  # Second page, ten per page, cheapest first
  storekit list --page 2 --page-size 10 --sort price

  # Every product whose name, SKU or category matches "desk"
  storekit list --search desk --all --output yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("page-size") {
				params.PageSize = a.cfg.List.PageSize
			}
			if !cmd.Flags().Changed("sort") {
				params.Sort = a.cfg.List.Sort
			}
			return runList(cmd, a, params, output)
		},
	}

	cmd.Flags().IntVar(&params.Page, "page", pagination.DefaultPage, "page to show (1-based)")
	cmd.Flags().IntVar(&params.PageSize, "page-size", 0, "products per page (default from config)")
	cmd.Flags().StringVar(&params.Sort, "sort", "", "sort as field or field:asc|desc")
	cmd.Flags().StringVar(&params.Search, "search", "", "filter by name, SKU or category")
	cmd.Flags().BoolVar(&params.All, "all", false, "fetch every page")
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table, json, yaml")

	return cmd
}

func runList(cmd *cobra.Command, a *app, params pagination.Params, output string) error {
	switch output {
	case outputTable, outputJSON, outputYAML:
	default:
		return fmt.Errorf("unsupported output format %q (want table, json or yaml)", output)
	}
	if err := params.Validate(catalog.Fields()); err != nil {
		return err
	}
	sort, err := pagination.ParseSort(params.Sort, catalog.Fields())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	b, err := openBackend(ctx, a.cfg, a.recorder)
	if err != nil {
		return err
	}
	defer b.Close()

	var res catalog.Result
	if params.All {
		res, err = fetchAll(ctx, b, params, sort)
	} else {
		res, err = b.Fetch(ctx, params.Query(params.Page, sort))
	}
	if err != nil {
		return fmt.Errorf("fetching products: %w", err)
	}

	page, pageSize := params.Page, params.PageSize
	if params.All {
		page, pageSize = 1, max(res.Total, 1)
	}
	if last := max(1, (res.Total+pageSize-1)/pageSize); page > last {
		return fmt.Errorf("%w: page %d is past the last page (%d)", pagination.ErrInvalidPage, page, last)
	}
	m, err := newPageModel(ctx, res, page, pageSize, sort, a.cfg.List.Locale)
	if err != nil {
		return err
	}

	logger.Debug().Ctx(ctx).
		Int("page", page).
		Int("items", len(res.Items)).
		Int("total", res.Total).
		Msg("products listed")

	return render(cmd.OutOrStdout(), output, m)
}

// fetchAll fetches the first page to learn the total, then the remaining
// pages concurrently, and concatenates them in page order.
func fetchAll(ctx context.Context, b *backend, params pagination.Params, sort table.SortState) (catalog.Result, error) {
	first, err := b.Fetch(ctx, params.Query(1, sort))
	if err != nil {
		return catalog.Result{}, err
	}
	pages := (first.Total + params.PageSize - 1) / params.PageSize
	if pages <= 1 {
		return first, nil
	}

	results := make([][]catalog.Product, pages)
	results[0] = first.Items

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for page := 2; page <= pages; page++ {
		g.Go(func() error {
			res, fetchErr := b.Fetch(gCtx, params.Query(page, sort))
			if fetchErr != nil {
				return fmt.Errorf("page %d: %w", page, fetchErr)
			}
			results[page-1] = res.Items
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return catalog.Result{}, err
	}

	all := make([]catalog.Product, 0, first.Total)
	for _, items := range results {
		all = append(all, items...)
	}
	return catalog.Result{Items: all, Total: first.Total}, nil
}

// newPageModel wraps a fetched page in a controlled table model so the
// pager reflects the backend's total.
func newPageModel(
	ctx context.Context,
	res catalog.Result,
	page, pageSize int,
	sort table.SortState,
	locale string,
) (*table.Model[catalog.Product], error) {
	m, err := table.New(res.Items, catalog.Columns(ctx), table.Config{
		PageSize:     pageSize,
		Controlled:   true,
		TotalItems:   res.Total,
		CurrentPage:  page,
		OnPageChange: func(int) {},
		Language:     parseLocale(locale),
	})
	if err != nil {
		return nil, err
	}
	m.SetSort(sort)
	return m, nil
}

// parseLocale falls back to English for an empty or malformed tag.
func parseLocale(tag string) language.Tag {
	if tag == "" {
		return language.English
	}
	t, err := language.Parse(tag)
	if err != nil {
		logger.Warn().Str("locale", tag).Err(err).Msg("unknown locale, using English")
		return language.English
	}
	return t
}
