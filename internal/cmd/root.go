// Package cmd recipectl 指令列工具
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"recipe-customizer/internal/client"
	"recipe-customizer/internal/core/catalog"
	"recipe-customizer/internal/core/customize"
	"recipe-customizer/internal/core/substitution"
)

// options 全域旗標
type options struct {
	server  string
	timeout time.Duration
}

// backend 本機或遠端的目錄與客製化
type backend interface {
	catalog() catalog.Store
	customize(ctx context.Context, req customize.Request) (*customize.Response, error)
}

type localBackend struct {
	store *catalog.MemoryStore
	svc   *customize.Service
}

func (b *localBackend) catalog() catalog.Store { return b.store }

func (b *localBackend) customize(ctx context.Context, req customize.Request) (*customize.Response, error) {
	return b.svc.Customize(ctx, "cli", req)
}

type remoteBackend struct {
	client  *client.Client
	session *client.Session
}

func (b *remoteBackend) catalog() catalog.Store { return b.client }

func (b *remoteBackend) customize(ctx context.Context, req customize.Request) (*customize.Response, error) {
	return b.session.Customize(ctx, req)
}

func (o *options) backend() (backend, error) {
	if o.server != "" {
		c := client.New(o.server, o.timeout)
		return &remoteBackend{client: c, session: client.NewSession(c)}, nil
	}
	store, err := catalog.NewSeededMemoryStore()
	if err != nil {
		return nil, err
	}
	resolver, err := substitution.NewLocalResolver(nil)
	if err != nil {
		return nil, err
	}
	return &localBackend{store: store, svc: customize.NewService(store, resolver)}, nil
}

// NewRootCommand 建立 recipectl 根指令
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "recipectl",
		Short: "Browse recipes and customize them for dietary needs",
		Long: `recipectl searches the recipe catalog and rewrites a recipe so it fits a
dietary type, allergen exclusions and blocked ingredients. Without --server it
uses the built-in catalog and substitution rules.`,
		SilenceUsage: true,
	}
	root.CompletionOptions.HiddenDefaultCmd = true

	root.PersistentFlags().StringVarP(&opts.server, "server", "s", "", "Base URL of a recipe-customizer server (default: offline)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout when using --server")

	root.AddCommand(newSearchCommand(opts), newShowCommand(opts), newCustomizeCommand(opts))
	return root
}

// Execute 執行根指令
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newSearchCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "search [query]",
		Short: "List recipes whose name starts with query",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := opts.backend()
			if err != nil {
				return err
			}
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			recipes, err := b.catalog().Search(cmd.Context(), query)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(recipes) == 0 {
				fmt.Fprintln(out, "No recipes found")
				return nil
			}
			for _, r := range recipes {
				fmt.Fprintf(out, "%-4s %s\n", r.ID, r.Name)
			}
			return nil
		},
	}
}

func newShowCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a recipe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := opts.backend()
			if err != nil {
				return err
			}
			r, err := b.catalog().Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n\nIngredients:\n", r.Name, r.ID)
			for _, ing := range r.Ingredients {
				fmt.Fprintf(out, "  - %s\n", ing.Text())
			}
			printSteps(out, r.Instructions)
			return nil
		},
	}
}

func newCustomizeCommand(opts *options) *cobra.Command {
	var (
		dietary   string
		allergens []string
		blocked   []string
		flavors   map[string]string
	)

	cmd := &cobra.Command{
		Use:   "customize <id>",
		Short: "Adapt a recipe to dietary preferences",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefs, err := parseFlavors(flavors)
			if err != nil {
				return err
			}
			b, err := opts.backend()
			if err != nil {
				return err
			}
			resp, err := b.customize(cmd.Context(), customize.Request{
				RecipeID:           args[0],
				DietaryType:        dietary,
				Allergens:          allergens,
				BlockedIngredients: blocked,
				FlavorPreferences:  prefs,
			})
			if err != nil {
				return err
			}
			printResponse(cmd.OutOrStdout(), resp)
			return nil
		},
	}

	cmd.Flags().StringVarP(&dietary, "dietary", "d", "non-vegetarian", "Dietary type: non-vegetarian, vegetarian, vegan or pescatarian")
	cmd.Flags().StringSliceVarP(&allergens, "allergen", "a", nil, "Allergen to exclude (repeatable)")
	cmd.Flags().StringSliceVarP(&blocked, "block", "b", nil, "Ingredient to avoid (repeatable)")
	cmd.Flags().StringToStringVarP(&flavors, "flavor", "f", nil, "Flavor intensity, e.g. spicy=0.8")
	return cmd
}

func parseFlavors(raw map[string]string) (map[string]float64, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]float64, len(raw))
	for k, v := range raw {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid intensity for flavor %q: %w", k, err)
		}
		out[k] = f
	}
	return out, nil
}

func printResponse(out io.Writer, resp *customize.Response) {
	if resp.Display == nil {
		fmt.Fprintf(out, "%s\n\n%s\n", resp.ModifiedRecipe.Name, resp.Summary)
		for _, ing := range resp.ModifiedRecipe.Ingredients {
			fmt.Fprintf(out, "  - %s\n", ing.Text())
		}
		printSteps(out, resp.ModifiedRecipe.Instructions)
		return
	}

	d := resp.Display
	fmt.Fprintf(out, "%s (%s)\n\n%s\n\nIngredients:\n", d.Title, d.RecipeID, d.Summary)
	for _, line := range d.Lines {
		if line.Substituted {
			fmt.Fprintf(out, "  - %s -> %s", line.Text(), line.SubstituteText())
			if line.Reason != "" {
				fmt.Fprintf(out, " (%s)", line.Reason)
			}
			fmt.Fprintln(out)
			continue
		}
		fmt.Fprintf(out, "  - %s\n", line.Text())
	}
	printSteps(out, d.Instructions)
}

func printSteps(out io.Writer, steps []string) {
	if len(steps) == 0 {
		return
	}
	fmt.Fprintln(out, "\nInstructions:")
	for i, s := range steps {
		fmt.Fprintf(out, "  %d. %s\n", i+1, s)
	}
}
