package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/artpar/attio/app"
	"github.com/artpar/attio/core/formatter"
	"github.com/artpar/attio/domain/record"
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Read and write object records",
	Long: `Read and write the records of a configured object.

Values are JSON objects keyed by attribute slug. Each attribute accepts
its usual shorthands, e.g. a string for text or an array of domains.
Prefix the JSON with @ to read it from a file.

Examples:
  attio records list companies --sort name:asc --limit 10
  attio records list people --filter '{"email_addresses":"ada@example.com"}'
  attio records create companies --values '{"name":"Acme","domains":["acme.com"]}'
  attio records update companies <record-id> --values @changes.json --append
  attio records values people <record-id> job_title --historic
  attio records delete companies <record-id>`,
}

var recordsListCmd = &cobra.Command{
	Use:   "list <object>",
	Short: "List records",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecordsList,
}

var recordsGetCmd = &cobra.Command{
	Use:   "get <object> <record-id>",
	Short: "Get a record",
	Args:  cobra.ExactArgs(2),
	RunE:  runRecordsGet,
}

var recordsCreateCmd = &cobra.Command{
	Use:   "create <object>",
	Short: "Create a record",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecordsCreate,
}

var recordsUpdateCmd = &cobra.Command{
	Use:   "update <object> <record-id>",
	Short: "Update a record",
	Long: `Update a record. Multi-valued attributes are replaced unless --append
is given, in which case the new values are added to the existing ones.`,
	Args: cobra.ExactArgs(2),
	RunE: runRecordsUpdate,
}

var recordsAssertCmd = &cobra.Command{
	Use:   "assert <object>",
	Short: "Create or update a record by a unique attribute",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecordsAssert,
}

var recordsDeleteCmd = &cobra.Command{
	Use:   "delete <object> <record-id>",
	Short: "Delete a record",
	Args:  cobra.ExactArgs(2),
	RunE:  runRecordsDelete,
}

var recordsValuesCmd = &cobra.Command{
	Use:   "values <object> <record-id> <attribute>",
	Short: "List the values of one attribute, oldest first",
	Args:  cobra.ExactArgs(3),
	RunE:  runRecordsValues,
}

var recordsEntriesCmd = &cobra.Command{
	Use:   "entries <object> <record-id>",
	Short: "List the list entries that reference a record",
	Args:  cobra.ExactArgs(2),
	RunE:  runRecordsEntries,
}

var (
	recordValues   string
	recordFilter   string
	recordSorts    []string
	recordLimit    int
	recordOffset   int
	recordMatch    string
	recordAppend   bool
	recordHistoric bool
)

func init() {
	rootCmd.AddCommand(recordsCmd)

	recordsCmd.AddCommand(recordsListCmd)
	recordsCmd.AddCommand(recordsGetCmd)
	recordsCmd.AddCommand(recordsCreateCmd)
	recordsCmd.AddCommand(recordsUpdateCmd)
	recordsCmd.AddCommand(recordsAssertCmd)
	recordsCmd.AddCommand(recordsDeleteCmd)
	recordsCmd.AddCommand(recordsValuesCmd)
	recordsCmd.AddCommand(recordsEntriesCmd)

	recordsListCmd.Flags().StringVar(&recordFilter, "filter", "", "filter as JSON, passed through to the API")
	recordsListCmd.Flags().StringArrayVar(&recordSorts, "sort", nil, "sort as attribute[:field][:asc|desc] (repeatable)")
	for _, c := range []*cobra.Command{recordsListCmd, recordsValuesCmd, recordsEntriesCmd} {
		c.Flags().IntVar(&recordLimit, "limit", 0, "maximum number of results (default: server default)")
		c.Flags().IntVar(&recordOffset, "offset", 0, "number of results to skip")
	}

	for _, c := range []*cobra.Command{recordsCreateCmd, recordsUpdateCmd, recordsAssertCmd} {
		c.Flags().StringVar(&recordValues, "values", "", "attribute values as JSON, or @file")
		c.MarkFlagRequired("values")
	}
	recordsUpdateCmd.Flags().BoolVar(&recordAppend, "append", false, "add to multi-valued attributes instead of replacing them")
	recordsAssertCmd.Flags().StringVar(&recordMatch, "match", "", "unique attribute to match on (required)")
	recordsAssertCmd.MarkFlagRequired("match")
	recordsValuesCmd.Flags().BoolVar(&recordHistoric, "historic", false, "include superseded values")
}

// objectService loads the app and resolves the object named by args[0].
func objectService(cmd *cobra.Command, args []string) (*app.RecordService, error) {
	a, err := loadApp(cmd)
	if err != nil {
		return nil, err
	}
	return a.Client.Object(args[0])
}

func runRecordsList(cmd *cobra.Command, args []string) error {
	svc, err := objectService(cmd, args)
	if err != nil {
		return err
	}
	f, opts, err := output()
	if err != nil {
		return err
	}
	params, err := listParams(recordFilter, recordSorts, recordLimit, recordOffset)
	if err != nil {
		return err
	}

	records, err := svc.List(cmd.Context(), params)
	if err != nil {
		return fmt.Errorf("list %s: %w", svc.Name(), err)
	}

	rows := make([]map[string]any, 0, len(records))
	for _, r := range records {
		row, err := recordRow(svc.Schema(), r)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	return f.FormatList(cmd.OutOrStdout(), recordView(svc.Name(), svc.Schema()), rows, opts)
}

func runRecordsGet(cmd *cobra.Command, args []string) error {
	svc, err := objectService(cmd, args)
	if err != nil {
		return err
	}
	r, err := svc.Get(cmd.Context(), args[1])
	if err != nil {
		return fmt.Errorf("get %s record: %w", svc.Name(), err)
	}
	return printRecord(cmd, svc, r)
}

func runRecordsCreate(cmd *cobra.Command, args []string) error {
	svc, err := objectService(cmd, args)
	if err != nil {
		return err
	}
	values, err := parseValues(recordValues)
	if err != nil {
		return err
	}
	r, err := svc.Create(cmd.Context(), values)
	if err != nil {
		return fmt.Errorf("create %s record: %w", svc.Name(), err)
	}
	return printRecord(cmd, svc, r)
}

func runRecordsUpdate(cmd *cobra.Command, args []string) error {
	svc, err := objectService(cmd, args)
	if err != nil {
		return err
	}
	values, err := parseValues(recordValues)
	if err != nil {
		return err
	}

	update := svc.Update
	if recordAppend {
		update = svc.Patch
	}
	r, err := update(cmd.Context(), args[1], values)
	if err != nil {
		return fmt.Errorf("update %s record: %w", svc.Name(), err)
	}
	return printRecord(cmd, svc, r)
}

func runRecordsAssert(cmd *cobra.Command, args []string) error {
	svc, err := objectService(cmd, args)
	if err != nil {
		return err
	}
	values, err := parseValues(recordValues)
	if err != nil {
		return err
	}
	r, err := svc.Assert(cmd.Context(), recordMatch, values)
	if err != nil {
		return fmt.Errorf("assert %s record: %w", svc.Name(), err)
	}
	return printRecord(cmd, svc, r)
}

func runRecordsDelete(cmd *cobra.Command, args []string) error {
	svc, err := objectService(cmd, args)
	if err != nil {
		return err
	}
	if err := svc.Delete(cmd.Context(), args[1]); err != nil {
		return fmt.Errorf("delete %s record: %w", svc.Name(), err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s record %s\n", svc.Name(), args[1])
	return nil
}

func runRecordsValues(cmd *cobra.Command, args []string) error {
	svc, err := objectService(cmd, args)
	if err != nil {
		return err
	}
	f, opts, err := output()
	if err != nil {
		return err
	}

	values, err := svc.ListAttributeValues(cmd.Context(), args[1], args[2], &record.ValuesParams{
		ShowHistoric: recordHistoric,
		PageParams:   record.PageParams{Limit: recordLimit, Offset: recordOffset},
	})
	if err != nil {
		return fmt.Errorf("list %s values: %w", args[2], err)
	}

	rows := make([]map[string]any, 0, len(values))
	for _, v := range values {
		row, err := valueRow(v)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	return f.FormatList(cmd.OutOrStdout(), valuesView(args[2]), rows, opts)
}

func runRecordsEntries(cmd *cobra.Command, args []string) error {
	svc, err := objectService(cmd, args)
	if err != nil {
		return err
	}
	f, opts, err := output()
	if err != nil {
		return err
	}

	entries, err := svc.ListEntries(cmd.Context(), args[1], &record.PageParams{Limit: recordLimit, Offset: recordOffset})
	if err != nil {
		return fmt.Errorf("list entries of %s record: %w", svc.Name(), err)
	}

	rows := make([]map[string]any, len(entries))
	for i, e := range entries {
		rows[i] = map[string]any{
			"list":       e.ListAPISlug,
			"list_id":    e.ListID,
			"entry_id":   e.EntryID,
			"created_at": e.CreatedAt.Format(time.RFC3339),
		}
	}
	view := formatter.View{Resource: "entries", Columns: []string{"list", "entry_id", "created_at"}}
	return f.FormatList(cmd.OutOrStdout(), view, rows, opts)
}

func printRecord(cmd *cobra.Command, svc *app.RecordService, r record.Record) error {
	f, opts, err := output()
	if err != nil {
		return err
	}
	row, err := recordRow(svc.Schema(), r)
	if err != nil {
		return err
	}
	return f.FormatRecord(cmd.OutOrStdout(), recordView(svc.Name(), svc.Schema()), row, opts)
}
