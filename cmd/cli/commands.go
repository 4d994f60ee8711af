package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/iho/periodledger/internal/adapter/http/dto"
	"github.com/iho/periodledger/internal/domain"
	"github.com/iho/periodledger/internal/infrastructure/rules"
)

func accountsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Account operations",
	}

	var req dto.CreateAccountRequest
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Register a new account",
		RunE: func(cmd *cobra.Command, args []string) error {
			var account dto.AccountResponse
			if err := newAPIClient(opts).post(cmd.Context(), "/accounts/", req, &account); err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), account)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created account %s (%s, %s) balance %s\n",
				account.ID, account.Name, account.Kind, formatAmount(account.Balance, account.Currency))
			return nil
		},
	}
	createCmd.Flags().StringVar(&req.Name, "name", "", "Account name")
	createCmd.Flags().StringVar(&req.Kind, "kind", "", "Account kind (checking, savings, credit_card, investment, loan, generic)")
	createCmd.Flags().StringVar(&req.Currency, "currency", "USD", "ISO 4217 currency code")
	createCmd.Flags().StringVar(&req.InitialBalance, "initial-balance", "", "Opening balance")
	createCmd.MarkFlagRequired("name")

	var limit, offset int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			q.Set("limit", strconv.Itoa(limit))
			q.Set("offset", strconv.Itoa(offset))

			var resp dto.ListAccountsResponse
			if err := newAPIClient(opts).get(cmd.Context(), "/accounts/?"+q.Encode(), &resp); err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), resp)
			}

			tw := newTable(cmd.OutOrStdout(), "ID", "NAME", "KIND", "BALANCE", "ACTIVE")
			for _, a := range resp.Accounts {
				row(tw, a.ID, truncate(a.Name, 30), a.Kind, formatAmount(a.Balance, a.Currency), a.IsActive)
			}
			return tw.Flush()
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", 50, "Maximum accounts to list")
	listCmd.Flags().IntVar(&offset, "offset", 0, "Accounts to skip")

	balanceCmd := &cobra.Command{
		Use:   "balance <account-id>",
		Short: "Show an account's current balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var account dto.AccountResponse
			if err := newAPIClient(opts).get(cmd.Context(), "/accounts/"+url.PathEscape(args[0]), &account); err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), dto.BalanceResponse{AccountID: account.ID, Balance: account.Balance})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", account.Name, formatAmount(account.Balance, account.Currency))
			return nil
		},
	}

	verifyCmd := &cobra.Command{
		Use:   "verify <account-id>",
		Short: "Recompute an account's balance from its entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var check dto.AccountCheckResponse
			if err := newAPIClient(opts).get(cmd.Context(), "/accounts/"+url.PathEscape(args[0])+"/verify", &check); err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), check)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recorded %s, calculated %s, reconciled: %v\n",
				check.RecordedBalance, check.CalculatedBalance, check.IsReconciled)
			if !check.IsReconciled {
				return fmt.Errorf("balance drift of %s", check.Difference)
			}
			return nil
		},
	}

	cmd.AddCommand(createCmd, listCmd, balanceCmd, verifyCmd)
	return cmd
}

func txCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Transaction operations",
	}

	var req dto.TransactionRequest
	var idempotencyKey string
	applyCmd := &cobra.Command{
		Use:   "apply",
		Short: "Classify and apply a transaction",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(opts)
			client.idempotencyKey = idempotencyKey

			var entry dto.EntryResponse
			if err := client.post(cmd.Context(), "/transactions/", req, &entry); err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), entry)
			}
			printEntry(cmd, &entry)
			return nil
		},
	}
	f := applyCmd.Flags()
	f.StringVar(&req.SourceAccountID, "account", "", "Source account ID")
	f.StringVar(&req.Amount, "amount", "", "Positive amount")
	f.StringVar(&req.Direction, "direction", "debit", "debit (money out) or credit (money in)")
	f.StringVar(&req.Category, "category", "", "Free-text category used for classification")
	f.StringVar(&req.Date, "date", "", "Transaction date (YYYY-MM-DD), defaults to today")
	f.StringVar(&req.Description, "description", "", "Description")
	f.StringVar(&req.Notes, "notes", "", "Notes")
	f.StringVar(&req.ReferenceNumber, "reference", "", "External reference number")
	f.StringVar(&req.BillID, "bill", "", "Bill ID for bill payments")
	f.StringVar(&req.SavingsAccountID, "savings", "", "Savings account ID for savings contributions")
	f.StringVar(&req.LoanID, "loan", "", "Loan account ID for repayments")
	f.StringVar(&req.DestinationAccountID, "destination", "", "Destination account ID for transfers")
	f.StringVar(&req.Origin, "origin", "", "Origin tag (manual, bank_sync, ...)")
	f.StringVar(&idempotencyKey, "idempotency-key", "", "Idempotency key for safe retries")
	applyCmd.MarkFlagRequired("account")
	applyCmd.MarkFlagRequired("amount")
	applyCmd.MarkFlagRequired("category")

	var rev dto.ReverseEntryRequest
	reverseCmd := &cobra.Command{
		Use:   "reverse <entry-id>",
		Short: "Post the mirror image of an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var entry dto.EntryResponse
			if err := newAPIClient(opts).post(cmd.Context(), "/entries/"+url.PathEscape(args[0])+"/reverse", rev, &entry); err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), entry)
			}
			printEntry(cmd, &entry)
			return nil
		},
	}
	reverseCmd.Flags().StringVar(&rev.Date, "date", "", "Reversal date (YYYY-MM-DD), defaults to today")
	reverseCmd.Flags().StringVar(&rev.Reason, "reason", "", "Reason recorded on the reversal")

	cmd.AddCommand(applyCmd, reverseCmd)
	return cmd
}

func printEntry(cmd *cobra.Command, e *dto.EntryResponse) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Entry %s  %s  class=%s  amount=%s\n", e.ID, e.Date, e.Class, e.Amount)

	tw := newTable(out, "  TARGET", "SIDE", "AMOUNT")
	for _, p := range e.Postings {
		target := p.Target
		if p.Virtual {
			target = "(" + target + ")"
		}
		row(tw, "  "+target, p.Side, p.Amount)
	}
	tw.Flush()
}

func periodsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "periods",
		Short: "Closed-period operations",
	}

	var req dto.ClosePeriodRequest
	closeCmd := &cobra.Command{
		Use:   "close <account-id>",
		Short: "Close a month for an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var closed dto.ClosedPeriodResponse
			if err := newAPIClient(opts).post(cmd.Context(), "/accounts/"+url.PathEscape(args[0])+"/periods", req, &closed); err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), closed)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Closed %s for account %s\n", closed.Period, closed.AccountID)
			return nil
		},
	}
	closeCmd.Flags().IntVar(&req.Year, "year", 0, "Year")
	closeCmd.Flags().IntVar(&req.Month, "month", 0, "Month (1-12)")
	closeCmd.Flags().StringVar(&req.ClosedBy, "by", envOr("USER", ""), "Who closed the period")
	closeCmd.Flags().StringVar(&req.Notes, "notes", "", "Notes")
	closeCmd.MarkFlagRequired("year")
	closeCmd.MarkFlagRequired("month")

	listCmd := &cobra.Command{
		Use:   "list <account-id>",
		Short: "List an account's closed periods",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var periods []*dto.ClosedPeriodResponse
			if err := newAPIClient(opts).get(cmd.Context(), "/accounts/"+url.PathEscape(args[0])+"/periods", &periods); err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), periods)
			}

			tw := newTable(cmd.OutOrStdout(), "PERIOD", "CLOSED AT", "BY", "NOTES")
			for _, p := range periods {
				row(tw, p.Period, p.ClosedAt.Format("2006-01-02 15:04"), p.ClosedBy, truncate(p.Notes, 40))
			}
			return tw.Flush()
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status <account-id> <year> <month>",
		Short: "Report whether a month is closed",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var status dto.PeriodStatusResponse
			path := fmt.Sprintf("/accounts/%s/periods/%s/%s", url.PathEscape(args[0]), url.PathEscape(args[1]), url.PathEscape(args[2]))
			if err := newAPIClient(opts).get(cmd.Context(), path, &status); err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), status)
			}

			state := "open"
			if status.Closed {
				state = "closed"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%04d-%02d is %s\n", status.Year, status.Month, state)
			return nil
		},
	}

	cmd.AddCommand(closeCmd, listCmd, statusCmd)
	return cmd
}

func reconcileCmd(opts *options) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "reconcile <account-id>",
		Short: "Match a statement file against an account's entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := loadStatement(file)
			if err != nil {
				return err
			}

			var report dto.ReconcileResponse
			if err := newAPIClient(opts).post(cmd.Context(), "/accounts/"+url.PathEscape(args[0])+"/reconcile", req, &report); err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), report)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Status: %s\n", report.Status)
			fmt.Fprintf(out, "Book %s, statement %s, difference %s\n", report.BookBalance, report.StatementBalance, report.Difference)
			fmt.Fprintf(out, "Matched %d, unmatched statement lines %d, unmatched entries %d\n",
				len(report.Matched), len(report.UnmatchedStatement), len(report.UnmatchedLedger))
			for _, l := range report.UnmatchedStatement {
				fmt.Fprintf(out, "  ? line %s %s %s %s\n", l.ID, l.Date, l.Amount, l.Reference)
			}
			for _, e := range report.UnmatchedLedger {
				fmt.Fprintf(out, "  ? entry %s %s %s %s\n", e.ID, e.Date, e.Amount, e.Reference)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Statement YAML file")
	cmd.MarkFlagRequired("file")

	return cmd
}

func loadStatement(path string) (*dto.ReconcileRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read statement: %w", err)
	}

	var req dto.ReconcileRequest
	if err := yaml.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse statement: %w", err)
	}
	return &req, nil
}

func ledgerCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	consistencyCmd := &cobra.Command{
		Use:   "consistency",
		Short: "Check ledger consistency",
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw json.RawMessage
			err := newAPIClient(opts).get(cmd.Context(), "/ledger/consistency", &raw)
			if statusOf(err) == http.StatusConflict {
				fmt.Fprintln(cmd.OutOrStdout(), "Consistency check FAILED")
				return err
			}
			if err != nil {
				return err
			}

			var result dto.ConsistencyResponse
			if err := json.Unmarshal(raw, &result); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), result)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Consistency check PASSED")
			fmt.Fprintf(cmd.OutOrStdout(), "Consistent: %v\n", result.Consistent)
			return nil
		},
	}

	cmd.AddCommand(consistencyCmd)
	return cmd
}

// classifyCmd runs the classifier locally, without the API.
func classifyCmd() *cobra.Command {
	var rulesPath string

	cmd := &cobra.Command{
		Use:   "classify <category>",
		Short: "Show the class a category maps to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			classifier := domain.DefaultClassifier()
			if rulesPath != "" {
				c, err := rules.Load(rulesPath)
				if err != nil {
					return err
				}
				classifier = c
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s -> %s\n", args[0], classifier.Classify(args[0]))
			if s := classifier.Suggest(args[0]); len(s) > 0 {
				fmt.Fprintf(out, "suggestions: %v\n", s)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&rulesPath, "rules", "", "Keyword rules YAML file")

	return cmd
}
