package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/rshade/storekit/internal/catalog"
	"github.com/rshade/storekit/internal/cli/pagination"
	"github.com/rshade/storekit/internal/tui"
)

// ErrNotTerminal is returned when browse runs without an interactive terminal.
var ErrNotTerminal = errors.New("browse needs an interactive terminal; use 'storekit list' instead")

func newBrowseCmd(a *app) *cobra.Command {
	var (
		pageSize int
		sortExpr string
	)

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse products interactively",
		Long: `Opens an interactive product browser.

Type / to search; the query is sent once typing pauses for the configured
debounce interval. Number keys sort by column, n and p change page.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !isTerminal(os.Stdin) || !isTerminal(os.Stdout) {
				return ErrNotTerminal
			}
			if !cmd.Flags().Changed("page-size") {
				pageSize = a.cfg.List.PageSize
			}
			if !cmd.Flags().Changed("sort") {
				sortExpr = a.cfg.List.Sort
			}
			return runBrowse(cmd, a, pageSize, sortExpr)
		},
	}

	cmd.Flags().IntVar(&pageSize, "page-size", 0, "products per page (default from config)")
	cmd.Flags().StringVar(&sortExpr, "sort", "", "initial sort as field or field:asc|desc")
	return cmd
}

func runBrowse(cmd *cobra.Command, a *app, pageSize int, sortExpr string) error {
	params := pagination.NewParams(pageSize)
	params.Sort = sortExpr
	if err := params.Validate(catalog.Fields()); err != nil {
		return err
	}
	sort, err := pagination.ParseSort(sortExpr, catalog.Fields())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	b, err := openBackend(ctx, a.cfg, a.recorder)
	if err != nil {
		return err
	}
	defer b.Close()

	m, err := tui.NewBrowseModel(ctx, b.Fetch, tui.BrowseOptions{
		PageSize: pageSize,
		Sort:     sort,
		Language: parseLocale(a.cfg.List.Locale),
		Debounce: a.cfg.Search.Debounce,
		Reloaded: b.reloaded,
	})
	if err != nil {
		return err
	}
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err = p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running browser: %w", err)
	}
	return nil
}
