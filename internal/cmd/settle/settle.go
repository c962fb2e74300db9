// Package settle implements the settle command: it reads a group's payments
// as JSON and prints the transfers that settle it.
package settle

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/caarlos0/env/v11"
	"github.com/shopspring/decimal"

	"github.com/mmynk/housemates/internal/settlement"
)

// Config holds settle command configuration.
type Config struct {
	Input   string `env:"HOUSEMATES_SETTLE_INPUT"`
	JSON    bool   `env:"HOUSEMATES_SETTLE_JSON"`
	Compare bool   `env:"HOUSEMATES_SETTLE_COMPARE"`
}

// ParseConfig parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	fs.StringVar(&cfg.Input, "in", cfg.Input, "path to the group JSON file (default stdin)")
	fs.BoolVar(&cfg.JSON, "json", cfg.JSON, "print transfers as JSON")
	fs.BoolVar(&cfg.Compare, "compare", cfg.Compare, "also report the greedy transfer count")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if cfg.Input == "" && fs.NArg() > 0 {
		cfg.Input = fs.Arg(0)
	}
	return cfg, nil
}

// Group is the command's input document.
type Group struct {
	Participants []string  `json:"participants"`
	Payments     []Payment `json:"payments"`
}

// Payment accepts amounts as JSON strings or numbers.
type Payment struct {
	Payer       string          `json:"payer"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
}

// Transfer is one line of output.
type Transfer struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

// Result is the JSON output document.
type Result struct {
	Transfers []Transfer `json:"transfers"`
	Greedy    *int       `json:"greedy_transfers,omitempty"`
}

// Run executes the settle command.
func Run(ctx context.Context, cfg Config, in io.Reader, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}

	if cfg.Input != "" {
		f, err := os.Open(cfg.Input)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		in = f
	}
	if in == nil {
		return errors.New("no input")
	}

	var group Group
	dec := json.NewDecoder(in)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&group); err != nil {
		return fmt.Errorf("decode input: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	payments := make([]settlement.Payment, len(group.Payments))
	for i, p := range group.Payments {
		payments[i] = settlement.Payment{Payer: p.Payer, Amount: p.Amount, Description: p.Description}
	}

	balances, err := settlement.Aggregate(group.Participants, payments)
	if err != nil {
		return err
	}
	transfers, err := settlement.SolveContext(ctx, balances)
	if err != nil {
		return err
	}

	result := Result{Transfers: make([]Transfer, len(transfers))}
	for i, t := range transfers {
		result.Transfers[i] = Transfer{From: t.From, To: t.To, Amount: t.Amount.StringFixed(2)}
	}
	if cfg.Compare {
		greedy, err := settlement.Greedy(balances)
		if err != nil {
			return err
		}
		n := len(greedy)
		result.Greedy = &n
	}

	if cfg.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	return writeTable(out, result)
}

func writeTable(out io.Writer, result Result) error {
	if len(result.Transfers) == 0 {
		fmt.Fprintln(out, "Everyone is settled up.")
	} else {
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "FROM\tTO\tAMOUNT")
		for _, t := range result.Transfers {
			fmt.Fprintf(w, "%s\t%s\t%s\n", t.From, t.To, t.Amount)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	if result.Greedy != nil {
		fmt.Fprintf(out, "%d transfers (greedy: %d)\n", len(result.Transfers), *result.Greedy)
	}
	return nil
}
