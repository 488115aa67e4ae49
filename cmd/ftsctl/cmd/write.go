package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/index"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/ingestion/publisher"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/ingestion/records"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/ingestion/sheet"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/ingestion/validator"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/kafka"
)

type writeKind struct {
	op    ingestion.Op
	short string
}

var (
	writeAdd    = writeKind{op: ingestion.OpAdd, short: "Add rows from an xlsx file or records from a JSON file"}
	writeUpdate = writeKind{op: ingestion.OpUpdate, short: "Replace documents by key from an xlsx file or a JSON file"}
)

type writeOptions struct {
	sheetPath   string
	recordsPath string
	textColumns []int
	textFields  []string
	keyColumn   int
	keyField    string
	cjk         bool
	async       bool
	format      string
}

func newWriteCmd(g *globalOptions, kind writeKind) *cobra.Command {
	opts := writeOptions{keyColumn: -1}

	cmd := &cobra.Command{
		Use:   string(kind.op) + " <index>",
		Short: kind.short,
		Example: fmt.Sprintf(`  ftsctl %[1]s people --xlsx people.xlsx --text-columns 2
  ftsctl %[1]s products --records products.json --text-fields title,body`, kind.op),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			command, err := opts.command(kind.op, args[0])
			if err != nil {
				return err
			}
			return execute(cmd, g, command, opts.async, opts.format)
		},
	}

	cmd.Flags().StringVar(&opts.sheetPath, "xlsx", "", "Spreadsheet to read; the first sheet is used and row 1 is the header")
	cmd.Flags().StringVar(&opts.recordsPath, "records", "", "JSON file holding an array of objects ('-' reads stdin)")
	cmd.Flags().IntSliceVar(&opts.textColumns, "text-columns", nil, "Zero-based spreadsheet columns indexed as free text")
	cmd.Flags().StringSliceVar(&opts.textFields, "text-fields", nil, "Record fields indexed as free text")
	cmd.Flags().BoolVar(&opts.cjk, "cjk", false, "Index free text with the CJK bigram analyzer")
	cmd.Flags().BoolVar(&opts.async, "async", false, "Queue the write on Kafka instead of running it here")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	cmd.MarkFlagsMutuallyExclusive("xlsx", "records")
	cmd.MarkFlagsOneRequired("xlsx", "records")
	if kind.op == ingestion.OpUpdate {
		cmd.Flags().IntVar(&opts.keyColumn, "key-column", -1, "Zero-based spreadsheet column holding the key")
		cmd.Flags().StringVar(&opts.keyField, "key-field", "", "Record field holding the key")
	}
	return cmd
}

func (o writeOptions) command(op ingestion.Op, name string) (ingestion.Command, error) {
	cmd := ingestion.Command{Op: op, Index: name, Language: string(language(o.cjk))}
	if o.sheetPath != "" {
		f, err := os.Open(o.sheetPath)
		if err != nil {
			return cmd, err
		}
		defer f.Close()
		if cmd.Rows, err = sheet.ReadFirst(f); err != nil {
			return cmd, err
		}
		cmd.TextColumns = o.textColumns
		if op == ingestion.OpUpdate {
			if o.keyColumn < 0 {
				return cmd, fmt.Errorf("--key-column is required to update from a spreadsheet")
			}
			cmd.KeyColumn = o.keyColumn
		}
		return cmd, nil
	}

	data, err := readInput(o.recordsPath)
	if err != nil {
		return cmd, err
	}
	if _, err := records.Parse(data); err != nil {
		return cmd, err
	}
	cmd.Records = json.RawMessage(data)
	cmd.TextFields = o.textFields
	cmd.KeyField = o.keyField
	return cmd, nil
}

func newDeleteCmd(g *globalOptions) *cobra.Command {
	var field, value, format string
	var async bool
	cmd := &cobra.Command{
		Use:     "delete <index>",
		Short:   "Delete every document whose field holds exactly the given value",
		Example: `  ftsctl delete people --field id --value 42`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, g, ingestion.Command{Op: ingestion.OpDelete, Index: args[0], Field: field, Value: value}, async, format)
		},
	}
	cmd.Flags().StringVar(&field, "field", "", "Field to match")
	cmd.Flags().StringVar(&value, "value", "", "Exact value to match")
	cmd.Flags().BoolVar(&async, "async", false, "Queue the delete on Kafka")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json")
	_ = cmd.MarkFlagRequired("field")
	return cmd
}

func newDropCmd(g *globalOptions) *cobra.Command {
	var format string
	var async bool
	cmd := &cobra.Command{
		Use:   "drop <index>",
		Short: "Remove a whole index and its saved scroll positions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, g, ingestion.Command{Op: ingestion.OpDrop, Index: args[0]}, async, format)
		},
	}
	cmd.Flags().BoolVar(&async, "async", false, "Queue the drop on Kafka")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json")
	return cmd
}

// execute validates command and either applies it in-process or queues it.
func execute(cmd *cobra.Command, g *globalOptions, command ingestion.Command, async bool, format string) error {
	if err := validator.ValidateCommand(&command); err != nil {
		return err
	}
	ctx := cmd.Context()

	var sum *ingestion.Summary
	var err error
	if async {
		sum, err = enqueue(ctx, g, command)
	} else {
		sum, err = apply(ctx, g, command)
	}
	if err != nil {
		return err
	}
	return printSummary(cmd.OutOrStdout(), sum, format)
}

func apply(ctx context.Context, g *globalOptions, command ingestion.Command) (*ingestion.Summary, error) {
	a, err := g.open(ctx)
	if err != nil {
		return nil, err
	}
	defer a.Close()
	return a.Service.Apply(ctx, command)
}

func enqueue(ctx context.Context, g *globalOptions, command ingestion.Command) (*ingestion.Summary, error) {
	cfg, err := g.load()
	if err != nil {
		return nil, err
	}
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, fmt.Errorf("--async needs kafka.brokers (or FTS_KAFKA_BROKERS)")
	}
	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.IndexCommands)
	defer producer.Close()
	return publisher.New(producer).Enqueue(ctx, command)
}

func printSummary(w io.Writer, sum *ingestion.Summary, format string) error {
	if format == "json" {
		return writeJSON(w, sum)
	}
	if sum.Queued {
		_, err := fmt.Fprintf(w, "%s on %s queued as %s\n", sum.Op, sum.Index, sum.CommandID)
		return err
	}
	_, err := fmt.Fprintf(w, "%s on %s: %d documents\n", sum.Op, sum.Index, sum.Documents)
	return err
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func language(cjk bool) index.Language {
	if cjk {
		return index.LanguageCJK
	}
	return index.LanguageDefault
}
