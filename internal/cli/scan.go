package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pyventory/pyventory/pkg/errors"
	"github.com/pyventory/pyventory/pkg/github"
	"github.com/pyventory/pyventory/pkg/inventory"
	"github.com/pyventory/pyventory/pkg/store"
)

// scanOptions holds the scan command's flag values.
type scanOptions struct {
	org      string
	token    string
	limit    int
	pageSize int
	maxFiles int
	out      string
	dataDir  string
	mongoURI string
	redisURL string
	noCache  bool
	cacheTTL time.Duration
}

// scanCommand creates the scan command, the heart of the tool: walk an
// organization, collect Python evidence, persist the snapshot.
func (c *CLI) scanCommand() *cobra.Command {
	var opts scanOptions

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a GitHub organization for Python usage",
		Long: `Scan walks every repository and branch of a GitHub organization, probes
for dependency manifests (requirements.txt, pyproject.toml, setup.py),
extracts imports from Python source files, and stores the aggregated
snapshot.

The token is read from --token or the GITHUB_TOKEN environment variable;
the organization from --org or ORG_NAME.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runScan(cmd, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.org, "org", "o", "", "GitHub organization to scan (defaults to $ORG_NAME)")
	cmd.Flags().StringVar(&opts.token, "token", "", "GitHub API token (defaults to $GITHUB_TOKEN)")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "cap the number of repositories scanned (0 = all)")
	cmd.Flags().IntVar(&opts.pageSize, "page-size", 100, "listing page size (max 100)")
	cmd.Flags().IntVar(&opts.maxFiles, "max-files", 50, "cap source files scanned per branch")
	cmd.Flags().StringVar(&opts.out, "out", "", "also export the snapshot as JSON to this path")
	cmd.Flags().StringVar(&opts.dataDir, "data-dir", defaultDataDir(), "directory for snapshot storage")
	cmd.Flags().StringVar(&opts.mongoURI, "mongo-uri", "", "store snapshots in MongoDB instead of files")
	cmd.Flags().StringVar(&opts.redisURL, "redis-url", "", "use Redis for the response cache")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the response cache")
	cmd.Flags().DurationVar(&opts.cacheTTL, "cache-ttl", 24*time.Hour, "response cache entry lifetime")

	return cmd
}

func (c *CLI) runScan(cmd *cobra.Command, opts *scanOptions) error {
	ctx := cmd.Context()

	if opts.org == "" {
		opts.org = os.Getenv("ORG_NAME")
	}
	if opts.token == "" {
		opts.token = os.Getenv("GITHUB_TOKEN")
	}
	if err := github.ValidateOwner(opts.org); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "set --org or ORG_NAME")
	}
	if opts.token == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "a token is required: set --token or GITHUB_TOKEN")
	}

	respCache, err := c.newCache(cmd, opts.noCache, opts.redisURL, opts.cacheTTL)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "setting up cache")
	}
	defer respCache.Close()

	client := github.NewClient(opts.token, github.Options{
		Cache:    respCache,
		CacheTTL: opts.cacheTTL,
		PerPage:  opts.pageSize,
		Logger:   c.Logger,
	})

	user, scopes, err := client.VerifyAuth(ctx)
	if err != nil {
		return err
	}
	printInfo("Authenticated as %s", StyleValue.Render(user.Login))
	warnMissingScopes(scopes)

	st, err := c.newStore(ctx, opts.dataDir, opts.mongoURI)
	if err != nil {
		return err
	}
	defer st.Close(ctx)

	agg := inventory.NewAggregator(client, github.NewTreeResolver(client, c.Logger), c.Logger, inventory.Config{
		Org:               opts.org,
		Limit:             opts.limit,
		MaxFilesPerBranch: opts.maxFiles,
	})

	printInfo("Scanning organization %s", StyleValue.Render(opts.org))
	started := time.Now()
	snap, err := agg.Run(ctx)
	if err != nil {
		return err
	}

	if err := st.Save(ctx, snap); err != nil {
		return err
	}
	if opts.out != "" {
		if err := store.WriteJSON(opts.out, snap); err != nil {
			return err
		}
		printFile(opts.out)
	}

	printScanReport(snap, time.Since(started))
	return nil
}

// warnMissingScopes flags token scopes the scan needs for full coverage.
// Fine-grained tokens report no classic scopes at all; stay quiet then.
func warnMissingScopes(scopes []string) {
	if len(scopes) == 0 {
		return
	}
	granted := make(map[string]bool, len(scopes))
	for _, s := range scopes {
		granted[s] = true
	}
	if !granted["repo"] {
		printWarning("token lacks the repo scope; private repositories will be invisible")
	}
	if !granted["read:org"] {
		printWarning("token lacks the read:org scope; organization listing may be incomplete")
	}
}

// printScanReport renders the post-scan summary.
func printScanReport(snap *inventory.Snapshot, elapsed time.Duration) {
	printNewline()
	printSuccess("Scan of %s complete in %s", StyleValue.Render(snap.Org), elapsed.Round(time.Second))

	s := snap.Summary
	printKeyValue("repos scanned", StyleNumber.Render(fmt.Sprintf("%d", s.ReposScanned)))
	printKeyValue("repos with Python", StyleNumber.Render(fmt.Sprintf("%d", s.ReposRetained)))
	printKeyValue("branches scanned", StyleNumber.Render(fmt.Sprintf("%d", s.BranchesScanned)))

	if len(s.TopPackages) > 0 {
		printNewline()
		fmt.Println(StyleTitle.Render("Top packages"))
		for i, pkg := range s.TopPackages {
			if i >= 10 {
				break
			}
			printDetail("%-30s %d branches", pkg.Name, pkg.Count)
		}
	}
}
