package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/artpar/attio/app"
	"github.com/artpar/attio/domain/record"
)

var entriesCmd = &cobra.Command{
	Use:   "entries",
	Short: "Read and write list entries",
	Long: `Read and write the entries of a configured list.

Examples:
  attio entries list pipeline --sort stage:desc
  attio entries add pipeline --parent-object companies --parent-record <record-id> --values '{"stage":"Lead"}'
  attio entries update pipeline <entry-id> --values '{"stage":"Won"}'
  attio entries delete pipeline <entry-id>`,
}

var entriesListCmd = &cobra.Command{
	Use:   "list <list>",
	Short: "List entries",
	Args:  cobra.ExactArgs(1),
	RunE:  runEntriesList,
}

var entriesGetCmd = &cobra.Command{
	Use:   "get <list> <entry-id>",
	Short: "Get an entry",
	Args:  cobra.ExactArgs(2),
	RunE:  runEntriesGet,
}

var entriesAddCmd = &cobra.Command{
	Use:   "add <list>",
	Short: "Add a record to a list",
	Long: `Add a record to a list. With --assert an existing entry for the same
parent record is updated instead of a new one being created.`,
	Args: cobra.ExactArgs(1),
	RunE: runEntriesAdd,
}

var entriesUpdateCmd = &cobra.Command{
	Use:   "update <list> <entry-id>",
	Short: "Update an entry",
	Args:  cobra.ExactArgs(2),
	RunE:  runEntriesUpdate,
}

var entriesDeleteCmd = &cobra.Command{
	Use:   "delete <list> <entry-id>",
	Short: "Remove an entry from a list",
	Args:  cobra.ExactArgs(2),
	RunE:  runEntriesDelete,
}

var entriesValuesCmd = &cobra.Command{
	Use:   "values <list> <entry-id> <attribute>",
	Short: "List the values of one entry attribute, oldest first",
	Args:  cobra.ExactArgs(3),
	RunE:  runEntriesValues,
}

var (
	entryValues       string
	entryFilter       string
	entrySorts        []string
	entryLimit        int
	entryOffset       int
	entryParentObject string
	entryParentRecord string
	entryAssert       bool
	entryAppend       bool
	entryHistoric     bool
)

func init() {
	rootCmd.AddCommand(entriesCmd)

	entriesCmd.AddCommand(entriesListCmd)
	entriesCmd.AddCommand(entriesGetCmd)
	entriesCmd.AddCommand(entriesAddCmd)
	entriesCmd.AddCommand(entriesUpdateCmd)
	entriesCmd.AddCommand(entriesDeleteCmd)
	entriesCmd.AddCommand(entriesValuesCmd)

	entriesListCmd.Flags().StringVar(&entryFilter, "filter", "", "filter as JSON, passed through to the API")
	entriesListCmd.Flags().StringArrayVar(&entrySorts, "sort", nil, "sort as attribute[:field][:asc|desc] (repeatable)")
	for _, c := range []*cobra.Command{entriesListCmd, entriesValuesCmd} {
		c.Flags().IntVar(&entryLimit, "limit", 0, "maximum number of results (default: server default)")
		c.Flags().IntVar(&entryOffset, "offset", 0, "number of results to skip")
	}

	entriesAddCmd.Flags().StringVar(&entryParentObject, "parent-object", "", "object of the record to add (required)")
	entriesAddCmd.Flags().StringVar(&entryParentRecord, "parent-record", "", "id of the record to add (required)")
	entriesAddCmd.Flags().BoolVar(&entryAssert, "assert", false, "update the existing entry for the record if there is one")
	entriesAddCmd.MarkFlagRequired("parent-object")
	entriesAddCmd.MarkFlagRequired("parent-record")
	for _, c := range []*cobra.Command{entriesAddCmd, entriesUpdateCmd} {
		c.Flags().StringVar(&entryValues, "values", "", "entry attribute values as JSON, or @file")
	}
	entriesUpdateCmd.MarkFlagRequired("values")
	entriesUpdateCmd.Flags().BoolVar(&entryAppend, "append", false, "add to multi-valued attributes instead of replacing them")
	entriesValuesCmd.Flags().BoolVar(&entryHistoric, "historic", false, "include superseded values")
}

// listService loads the app and resolves the list named by args[0].
func listService(cmd *cobra.Command, args []string) (*app.EntryService, error) {
	a, err := loadApp(cmd)
	if err != nil {
		return nil, err
	}
	return a.Client.List(args[0])
}

func runEntriesList(cmd *cobra.Command, args []string) error {
	svc, err := listService(cmd, args)
	if err != nil {
		return err
	}
	f, opts, err := output()
	if err != nil {
		return err
	}
	params, err := listParams(entryFilter, entrySorts, entryLimit, entryOffset)
	if err != nil {
		return err
	}

	entries, err := svc.List(cmd.Context(), params)
	if err != nil {
		return fmt.Errorf("list %s entries: %w", svc.Name(), err)
	}

	rows := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		row, err := entryRow(svc.Schema(), e)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	return f.FormatList(cmd.OutOrStdout(), entryView(svc.Name(), svc.Schema()), rows, opts)
}

func runEntriesGet(cmd *cobra.Command, args []string) error {
	svc, err := listService(cmd, args)
	if err != nil {
		return err
	}
	e, err := svc.Get(cmd.Context(), args[1])
	if err != nil {
		return fmt.Errorf("get %s entry: %w", svc.Name(), err)
	}
	return printEntry(cmd, svc, e)
}

func runEntriesAdd(cmd *cobra.Command, args []string) error {
	svc, err := listService(cmd, args)
	if err != nil {
		return err
	}
	values, err := parseValues(entryValues)
	if err != nil {
		return err
	}

	add := svc.Create
	if entryAssert {
		add = svc.Assert
	}
	e, err := add(cmd.Context(), entryParentObject, entryParentRecord, values)
	if err != nil {
		return fmt.Errorf("add to %s: %w", svc.Name(), err)
	}
	return printEntry(cmd, svc, e)
}

func runEntriesUpdate(cmd *cobra.Command, args []string) error {
	svc, err := listService(cmd, args)
	if err != nil {
		return err
	}
	values, err := parseValues(entryValues)
	if err != nil {
		return err
	}

	update := svc.Update
	if entryAppend {
		update = svc.Patch
	}
	e, err := update(cmd.Context(), args[1], values)
	if err != nil {
		return fmt.Errorf("update %s entry: %w", svc.Name(), err)
	}
	return printEntry(cmd, svc, e)
}

func runEntriesDelete(cmd *cobra.Command, args []string) error {
	svc, err := listService(cmd, args)
	if err != nil {
		return err
	}
	if err := svc.Delete(cmd.Context(), args[1]); err != nil {
		return fmt.Errorf("delete %s entry: %w", svc.Name(), err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed entry %s from %s\n", args[1], svc.Name())
	return nil
}

func runEntriesValues(cmd *cobra.Command, args []string) error {
	svc, err := listService(cmd, args)
	if err != nil {
		return err
	}
	f, opts, err := output()
	if err != nil {
		return err
	}

	values, err := svc.ListAttributeValues(cmd.Context(), args[1], args[2], &record.ValuesParams{
		ShowHistoric: entryHistoric,
		PageParams:   record.PageParams{Limit: entryLimit, Offset: entryOffset},
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

func printEntry(cmd *cobra.Command, svc *app.EntryService, e record.Entry) error {
	f, opts, err := output()
	if err != nil {
		return err
	}
	row, err := entryRow(svc.Schema(), e)
	if err != nil {
		return err
	}
	return f.FormatRecord(cmd.OutOrStdout(), entryView(svc.Name(), svc.Schema()), row, opts)
}
