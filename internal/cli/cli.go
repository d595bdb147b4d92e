package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/GorelikovMatvey/finalproject-Gorelikov-M25-555/internal/auth"
	"github.com/GorelikovMatvey/finalproject-Gorelikov-M25-555/internal/domain"
	"github.com/GorelikovMatvey/finalproject-Gorelikov-M25-555/internal/portfolio"
	"github.com/GorelikovMatvey/finalproject-Gorelikov-M25-555/internal/rate"
)

const welcomeMessage = "ValutaTrade Hub. Type 'help' for the command list, 'exit' to quit."

// Shell is the interactive command loop. It owns the login session; the
// services underneath are stateless with respect to the current user.
type Shell struct {
	auth       *auth.Service
	portfolios *portfolio.Service
	rates      *rate.Service
	scheduler  *rate.Scheduler

	in  io.Reader
	out io.Writer

	session *domain.User
}

func NewShell(authSvc *auth.Service, portfolioSvc *portfolio.Service, rateSvc *rate.Service, scheduler *rate.Scheduler) *Shell {
	return &Shell{
		auth:       authSvc,
		portfolios: portfolioSvc,
		rates:      rateSvc,
		scheduler:  scheduler,
		in:         os.Stdin,
		out:        os.Stdout,
	}
}

// Run reads commands until exit, EOF or context cancellation.
func (s *Shell) Run(ctx context.Context) error {
	fmt.Fprintln(s.out, welcomeMessage)

	scanner := bufio.NewScanner(s.in)
	for {
		fmt.Fprint(s.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(s.out, "\nBye!")
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if quit := s.dispatch(ctx, scanner.Text()); quit {
			fmt.Fprintln(s.out, "Bye!")
			return nil
		}
	}
}

func (s *Shell) dispatch(ctx context.Context, line string) (quit bool) {
	args := strings.Fields(line)
	if len(args) == 0 {
		return false
	}
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "exit":
		return true
	case "help":
		s.printHelp()
	case "register":
		s.cmdRegister(rest)
	case "login":
		s.cmdLogin(rest)
	case "deposit":
		s.cmdDeposit(rest)
	case "buy":
		s.cmdTrade("buy", rest)
	case "sell":
		s.cmdTrade("sell", rest)
	case "show-portfolio":
		s.cmdShowPortfolio(rest)
	case "get-rate":
		s.cmdGetRate(rest)
	case "update-rates":
		s.cmdUpdateRates(ctx, rest)
	case "show-rates":
		s.cmdShowRates(rest)
	case "start-scheduler":
		s.cmdStartScheduler(ctx)
	default:
		fmt.Fprintf(s.out, "Unknown command %q. Type 'help' for the command list.\n", cmd)
	}
	return false
}

func (s *Shell) printHelp() {
	w := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "Available commands:")
	fmt.Fprintln(w, "  register --username U --password P\tcreate an account")
	fmt.Fprintln(w, "  login --username U --password P\tlog in")
	fmt.Fprintln(w, "  deposit --amount N\ttop up the base-currency wallet")
	fmt.Fprintln(w, "  buy --currency C --amount N\tbuy currency with base funds")
	fmt.Fprintln(w, "  sell --currency C --amount N\tsell currency for base funds")
	fmt.Fprintln(w, "  show-portfolio [--base C]\tshow wallets priced in a base currency")
	fmt.Fprintln(w, "  get-rate --from C --to C\tshow one conversion rate")
	fmt.Fprintln(w, "  update-rates [--source S]\trefresh quotes (coingecko, exchangerate or all)")
	fmt.Fprintln(w, "  show-rates [--currency C] [--base C] [--top N]\tlist cached rates")
	fmt.Fprintln(w, "  start-scheduler\tstart background refresh")
	fmt.Fprintln(w, "  help\tthis text")
	fmt.Fprintln(w, "  exit\tquit")
	w.Flush()
	fmt.Fprintf(s.out, "Supported currencies: %s\n", strings.Join(domain.SupportedCodes(), ", "))
}

func (s *Shell) cmdRegister(args []string) {
	fs := newFlagSet("register")
	username := fs.String("username", "", "")
	password := fs.String("password", "", "")
	if !s.parseFlags(fs, args) {
		return
	}

	user, err := s.auth.Register(*username, *password)
	if err != nil {
		s.printError(err)
		return
	}
	fmt.Fprintf(s.out, "User '%s' registered (id=%d). Log in: login --username %s --password ****\n",
		user.Username, user.ID, user.Username)
}

func (s *Shell) cmdLogin(args []string) {
	fs := newFlagSet("login")
	username := fs.String("username", "", "")
	password := fs.String("password", "", "")
	if !s.parseFlags(fs, args) {
		return
	}

	user, err := s.auth.Login(*username, *password)
	if err != nil {
		s.printError(err)
		return
	}
	s.session = &user
	fmt.Fprintf(s.out, "Logged in as '%s'.\n", user.Username)
}

func (s *Shell) cmdDeposit(args []string) {
	user, ok := s.requireLogin()
	if !ok {
		return
	}
	fs := newFlagSet("deposit")
	amountArg := fs.String("amount", "", "")
	if !s.parseFlags(fs, args) {
		return
	}
	amount, err := parseAmount(*amountArg)
	if err != nil {
		s.printError(err)
		return
	}

	res, err := s.portfolios.Deposit(user, amount)
	if err != nil {
		s.printError(err)
		return
	}
	fmt.Fprintf(s.out, "Deposited %s %s. Balance %s: %s -> %s\n",
		res.Amount.StringFixed(4), res.Currency, res.Currency,
		res.OldBalance.StringFixed(4), res.NewBalance.StringFixed(4))
}

func (s *Shell) cmdTrade(action string, args []string) {
	user, ok := s.requireLogin()
	if !ok {
		return
	}
	fs := newFlagSet(action)
	currency := fs.String("currency", "", "")
	amountArg := fs.String("amount", "", "")
	if !s.parseFlags(fs, args) {
		return
	}
	amount, err := parseAmount(*amountArg)
	if err != nil {
		s.printError(err)
		return
	}

	var res portfolio.TradeResult
	if action == "buy" {
		res, err = s.portfolios.Buy(user, *currency, amount)
	} else {
		res, err = s.portfolios.Sell(user, *currency, amount)
	}
	if err != nil {
		s.printError(err)
		return
	}

	verb, amountType := "Bought", "Cost"
	ratePair := res.BaseCurrency + "/" + res.Currency
	if res.Action == "sell" {
		verb, amountType = "Sold", "Revenue"
		ratePair = res.Currency + "/" + res.BaseCurrency
	}
	fmt.Fprintf(s.out, "%s %s %s\n", verb, res.Amount.StringFixed(4), res.Currency)
	fmt.Fprintf(s.out, "  %s: %s %s (rate: %.6f %s)\n",
		amountType, res.Converted.StringFixed(4), res.BaseCurrency, res.Rate, ratePair)
	fmt.Fprintf(s.out, "  %s: %s -> %s\n", res.BaseCurrency,
		res.OldBaseBalance.StringFixed(4), res.NewBaseBalance.StringFixed(4))
	fmt.Fprintf(s.out, "  %s: %s -> %s\n", res.Currency,
		res.OldBalance.StringFixed(4), res.NewBalance.StringFixed(4))
	s.printStaleness(res.Staleness)
}

func (s *Shell) cmdShowPortfolio(args []string) {
	user, ok := s.requireLogin()
	if !ok {
		return
	}
	fs := newFlagSet("show-portfolio")
	base := fs.String("base", "", "")
	if !s.parseFlags(fs, args) {
		return
	}

	v, err := s.portfolios.Valuation(user, *base)
	if err != nil {
		s.printError(err)
		return
	}

	fmt.Fprintf(s.out, "Portfolio of '%s' (base: %s):\n", user.Username, v.Base)
	w := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "CURRENCY\tBALANCE\tVALUE IN %s\n", v.Base)
	for _, row := range v.Rows {
		value := "rate unavailable"
		if row.Available {
			value = row.Value.StringFixed(4)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", row.Currency, row.Balance.StringFixed(4), value)
	}
	w.Flush()
	fmt.Fprintf(s.out, "Total: %s %s\n", v.Total.StringFixed(4), v.Base)
	if v.HasUnavailable {
		fmt.Fprintln(s.out, "Some rates are unavailable; run 'update-rates'.")
	}
	s.printStaleness(v.Staleness)
}

func (s *Shell) cmdGetRate(args []string) {
	fs := newFlagSet("get-rate")
	from := fs.String("from", "", "")
	to := fs.String("to", "", "")
	if !s.parseFlags(fs, args) {
		return
	}

	info, stale, err := s.rates.GetRate(*from, *to)
	if err != nil {
		s.printError(err)
		return
	}
	fromCode := strings.ToUpper(strings.TrimSpace(*from))
	toCode := strings.ToUpper(strings.TrimSpace(*to))
	fmt.Fprintf(s.out, "Rate %s->%s: %.6f (updated: %s)\n", fromCode, toCode, info.Rate, info.UpdatedAt)
	fmt.Fprintf(s.out, "Reverse rate %s->%s: %.6f\n", toCode, fromCode, info.InverseRate)
	s.printStaleness(stale)
}

func (s *Shell) cmdUpdateRates(ctx context.Context, args []string) {
	fs := newFlagSet("update-rates")
	source := fs.String("source", rate.SourceAll, "")
	if !s.parseFlags(fs, args) {
		return
	}

	res, err := s.rates.Refresh(ctx, *source)
	if err != nil {
		s.printError(err)
		return
	}
	if len(res.Errors) > 0 {
		fmt.Fprintf(s.out, "Refresh finished with errors. Fetched: %d pairs, errors: %d\n",
			res.PairsFetched, len(res.Errors))
		for _, msg := range res.Errors {
			fmt.Fprintf(s.out, "  - %s\n", msg)
		}
	} else {
		fmt.Fprintf(s.out, "Rates updated. Fetched: %d pairs.\n", res.PairsFetched)
	}
	fmt.Fprintf(s.out, "Completed at: %s\n", res.CompletedAt)
}

func (s *Shell) cmdShowRates(args []string) {
	fs := newFlagSet("show-rates")
	currency := fs.String("currency", "", "")
	base := fs.String("base", "", "")
	top := fs.Int("top", 0, "")
	if !s.parseFlags(fs, args) {
		return
	}

	rows, stale, err := s.rates.ListRates(rate.ListFilter{
		Currency: *currency,
		Base:     *base,
		Top:      *top,
	})
	if err != nil {
		s.printError(err)
		return
	}
	if len(rows) == 0 {
		fmt.Fprintln(s.out, "No rates match the given filters; run 'update-rates'.")
		return
	}

	last, err := s.rates.LastRefresh()
	if err == nil && last != "" {
		fmt.Fprintf(s.out, "Rates (updated: %s)\n", last)
	}
	w := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PAIR\tRATE\tSOURCE")
	for _, row := range rows {
		fmt.Fprintf(w, "%s -> %s\t%s\t%s\n", row.From, row.To, formatRate(row.Rate), row.Source)
	}
	w.Flush()
	s.printStaleness(stale)
}

func (s *Shell) cmdStartScheduler(ctx context.Context) {
	if s.scheduler.Running() {
		fmt.Fprintln(s.out, "Scheduler is already running.")
		return
	}
	if err := s.scheduler.Start(ctx); err != nil {
		s.printError(err)
		return
	}
	fmt.Fprintln(s.out, "Background refresh started.")
}

func (s *Shell) requireLogin() (domain.User, bool) {
	if s.session == nil {
		fmt.Fprintln(s.out, "Log in first: login --username U --password P")
		return domain.User{}, false
	}
	return *s.session, true
}

func (s *Shell) parseFlags(fs *flag.FlagSet, args []string) bool {
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(s.out, "Bad arguments for %q. Type 'help' for usage.\n", fs.Name())
		return false
	}
	return true
}

func (s *Shell) printStaleness(stale *rate.Staleness) {
	if stale != nil {
		fmt.Fprintf(s.out, "Warning: %s\n", stale)
	}
}

func (s *Shell) printError(err error) {
	var notFound *domain.CurrencyNotFoundError
	var insufficient *domain.InsufficientFundsError
	switch {
	case errors.As(err, &notFound):
		fmt.Fprintf(s.out, "Unknown currency %q. Supported: %s\n",
			notFound.Code, strings.Join(domain.SupportedCodes(), ", "))
	case errors.As(err, &insufficient):
		fmt.Fprintf(s.out, "Insufficient funds: available %s %s, required %s %s.\n",
			insufficient.Available.StringFixed(4), insufficient.Code,
			insufficient.Required.StringFixed(4), insufficient.Code)
	case errors.Is(err, domain.ErrRateUnavailable):
		fmt.Fprintf(s.out, "%v. Run 'update-rates' and retry.\n", err)
	case errors.Is(err, domain.ErrUnknownSource):
		fmt.Fprintf(s.out, "%v. Known sources: coingecko, exchangerate, all.\n", err)
	default:
		fmt.Fprintf(s.out, "Error: %v\n", err)
	}
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid amount %q", raw)
	}
	return amount, nil
}

func formatRate(value float64) string {
	if value >= 1 {
		return fmt.Sprintf("%.4f", value)
	}
	return fmt.Sprintf("%.8f", value)
}
