package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/effort-cli/internal/catalog"
)

var driversJSON bool

var driversCmd = &cobra.Command{
	Use:   "drivers",
	Short: "List cost drivers and their multiplier tables",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("drivers"); err != nil {
			return err
		}
		c, err := initCatalog()
		if err != nil {
			return err
		}
		if driversJSON {
			return formatDriversJSON(os.Stdout, c)
		}
		formatDriversTable(os.Stdout, c)
		return nil
	},
}

func formatDriversTable(w io.Writer, c *catalog.Catalog) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := []string{"DRIVER"}
	for _, lvl := range c.Levels() {
		header = append(header, strings.ToUpper(string(lvl)))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, d := range c.Drivers() {
		row := []string{string(d)}
		for _, lvl := range c.Levels() {
			m, _ := c.Multiplier(d, lvl)
			row = append(row, fmt.Sprintf("%.2f", m))
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush() //nolint:errcheck
}

type driverRow struct {
	ID          string             `json:"id"`
	Description string             `json:"description"`
	Multipliers map[string]float64 `json:"multipliers"`
}

func formatDriversJSON(w io.Writer, c *catalog.Catalog) error {
	rows := make([]driverRow, 0, len(c.Drivers()))
	for _, d := range c.Drivers() {
		desc, _ := c.Describe(d)
		mults := make(map[string]float64, len(c.Levels()))
		for _, lvl := range c.Levels() {
			m, _ := c.Multiplier(d, lvl)
			mults[string(lvl)] = m
		}
		rows = append(rows, driverRow{ID: string(d), Description: desc, Multipliers: mults})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(rows), "write drivers")
}

func init() {
	driversCmd.Flags().BoolVar(&driversJSON, "json", false, "print JSON with descriptions")
	rootCmd.AddCommand(driversCmd)
}
