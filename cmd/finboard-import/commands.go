package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"finboard/internal/amqp"
	"finboard/internal/backend"
	"finboard/internal/config"
	"finboard/internal/core"
	"finboard/internal/ledger"
	"finboard/internal/log"
	"finboard/internal/period"
	"finboard/internal/services"
	"finboard/internal/storage"

	"github.com/google/subcommands"
)

var commands = []subcommands.Command{
	&importCmd{},
	&validateCmd{},
	&overviewCmd{},
}

// readDocument decodes a ledger document from a file, or stdin for "-".
func readDocument(name string) (ledger.Document, error) {
	var r io.Reader = os.Stdin
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return ledger.Document{}, err
		}
		defer f.Close()
		r = f
	}
	return ledger.DecodeDocument(r)
}

func fileArg(flagValue string, f *flag.FlagSet) string {
	if flagValue != "" {
		return flagValue
	}
	return f.Arg(0)
}

type importCmd struct {
	file      string
	dbPath    string
	noPublish bool
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "store a ledger document in sqlite and announce the change" }
func (*importCmd) Usage() string {
	return `finboard-import import [-db <path>] [-no-publish] (-f <file> | <file> | -)

  Validates the document, replaces the transactions of every account it names
  in one database transaction, then publishes one ledger.changed message per
  account when AMQP_URL is set.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "f", "", "Ledger JSON file, or - for stdin.")
	f.StringVar(&c.dbPath, "db", "", "SQLite database path. Defaults to SQLITE_DB_PATH.")
	f.BoolVar(&c.noPublish, "no-publish", false, "Do not publish ledger.changed messages.")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	name := fileArg(c.file, f)
	if name == "" {
		fmt.Fprintln(os.Stderr, "Error: no ledger file given.")
		return subcommands.ExitUsageError
	}

	cfg := config.Load()
	if c.dbPath != "" {
		cfg.SQLiteDBPath = c.dbPath
	}
	logger := log.FromContext(ctx).WithComponent(log.ComponentImport)

	doc, err := readDocument(name)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer repo.Close()

	var publisher services.Publisher
	if cfg.AMQPURL != "" && !c.noPublish {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue,
			logger.WithComponent(log.ComponentAMQP).Logger)
		if err != nil {
			logger.Warn("AMQP unavailable, importing without notifications", "error", err)
		} else {
			defer client.Close()
			publisher = client
		}
	}

	res, err := services.NewImportService(repo, publisher, logger.Logger).Import(ctx, doc)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	logger.Info("Ledger imported",
		"file", name,
		"db_path", cfg.SQLiteDBPath,
		"accounts", res.Accounts,
		"transactions", res.Transactions,
		"published", res.Published)
	return subcommands.ExitSuccess
}

type validateCmd struct {
	file string
}

func (*validateCmd) Name() string     { return "validate" }
func (*validateCmd) Synopsis() string { return "check a ledger document without storing it" }
func (*validateCmd) Usage() string {
	return `finboard-import validate (-f <file> | <file> | -)
`
}

func (c *validateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "f", "", "Ledger JSON file, or - for stdin.")
}

func (c *validateCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	name := fileArg(c.file, f)
	if name == "" {
		fmt.Fprintln(os.Stderr, "Error: no ledger file given.")
		return subcommands.ExitUsageError
	}
	doc, err := readDocument(name)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	accounts, txs, err := doc.Split()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	n := 0
	for _, list := range txs {
		n += len(list)
	}
	fmt.Printf("ok: %d accounts, %d transactions\n", len(accounts), n)
	return subcommands.ExitSuccess
}

type overviewCmd struct {
	rangeKey string
	now      string
}

func (*overviewCmd) Name() string     { return "overview" }
func (*overviewCmd) Synopsis() string { return "print the period overview of an account" }
func (*overviewCmd) Usage() string {
	return `finboard-import overview [-r <7D|1M|3M|6M|ALL>] [-now <YYYY-MM-DD>] <account-id>

  Reads the account from the configured DATA_BACKEND and prints one line per
  day with income and expense, followed by the period totals.
`
}

func (c *overviewCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.rangeKey, "r", string(period.DefaultRange), "Range key.")
	f.StringVar(&c.now, "now", "", "Reference date. Defaults to today.")
}

func (c *overviewCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one account id is required.")
		return subcommands.ExitUsageError
	}
	key, err := period.ParseRangeKey(c.rangeKey)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}

	cfg := config.Load()
	now := time.Now().In(cfg.Location())
	if c.now != "" {
		d, err := time.ParseInLocation("2006-01-02", c.now, cfg.Location())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing -now: %v\n", err)
			return subcommands.ExitUsageError
		}
		now = d.Add(12 * time.Hour)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	res, err := backend.NewFactory(log.FromContext(ctx).Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer res.Close()

	id := f.Arg(0)
	account, err := res.Reader.GetAccount(ctx, id)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	txs, err := res.Reader.ListTransactions(ctx, id)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	printOverview(os.Stdout, account, period.Aggregate(txs, key, now))
	return subcommands.ExitSuccess
}

func printOverview(w io.Writer, account core.Account, res period.Result) {
	fmt.Fprintf(w, "%s (%s), %s\n\n", account.Name, account.TypeLabel(), res.Range.Label)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Date\tIncome\tExpense\t")
	for _, b := range res.Buckets {
		fmt.Fprintf(tw, "%s\t%s\t%s\t\n", b.Key, core.FormatCurrency(b.Income), core.FormatCurrency(b.Expense))
	}
	fmt.Fprintf(tw, "Total\t%s\t%s\t\n", core.FormatCurrency(res.Totals.Income), core.FormatCurrency(res.Totals.Expense))
	tw.Flush()
	fmt.Fprintf(w, "\nNet: %s\n", core.FormatCurrency(res.Totals.Net()))
}
