package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/artpar/attio/core/formatter"
	"github.com/artpar/attio/core/registry"
	"github.com/artpar/attio/core/schema"
)

var objectsCmd = &cobra.Command{
	Use:   "objects [name]",
	Short: "Show the resolved objects, lists and their attributes",
	Long: `Show the objects and lists the configuration resolves to, one row per
attribute. No request is sent to the API.

Examples:
  attio objects
  attio objects companies -o yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runObjects,
}

func init() {
	rootCmd.AddCommand(objectsCmd)
}

func runObjects(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	f, opts, err := output()
	if err != nil {
		return err
	}

	rows, err := schemaRows(a.Registry, args)
	if err != nil {
		return err
	}
	view := formatter.View{
		Resource: "schema",
		Columns:  []string{"resource", "kind", "attribute", "type", "access", "cardinality", "target"},
	}
	return f.FormatList(cmd.OutOrStdout(), view, rows, opts)
}

// schemaRows describes every attribute of the named resources, or of all
// of them when names is empty.
func schemaRows(reg *registry.Registry, names []string) ([]map[string]any, error) {
	var rows []map[string]any

	add := func(resource, kind string, pair schema.Pair) {
		for _, name := range pair.Names() {
			a, _ := pair.Field(name)
			d := a.Describe()
			rows = append(rows, map[string]any{
				"resource":    resource,
				"kind":        kind,
				"attribute":   name,
				"type":        string(d.Kind),
				"access":      d.Access.String(),
				"cardinality": d.Cardinality.String(),
				"target":      d.Target,
			})
		}
	}

	if len(names) == 0 {
		for _, name := range reg.Objects() {
			pair, _ := reg.Object(name)
			add(name, "object", pair)
		}
		for _, name := range reg.Lists() {
			pair, _ := reg.List(name)
			add(name, "list", pair)
		}
		return rows, nil
	}

	name := names[0]
	if pair, err := reg.Object(name); err == nil {
		add(name, "object", pair)
		return rows, nil
	}
	if pair, err := reg.List(name); err == nil {
		add(name, "list", pair)
		return rows, nil
	}
	return nil, fmt.Errorf("%q is neither a configured object nor a list (objects: %v, lists: %v)",
		name, reg.Objects(), reg.Lists())
}
