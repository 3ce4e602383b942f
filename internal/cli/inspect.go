package cli

import (
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/Klnishant/DiamondPricePrediction/pkg/preprocess"
)

// PrintArtifact renders the fitted statistics of an artifact as a table,
// one row per column and stage.
func PrintArtifact(w io.Writer, path string, fitted *preprocess.FittedTransform) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("FITTED TRANSFORM " + path)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Branch", AutoMerge: true},
		{Name: "Column", AutoMerge: true},
		{Name: "Parameters", WidthMax: 60},
	})
	t.AppendHeader(table.Row{"Branch", "Column", "Stage", "Parameters"}, table.RowConfig{AutoMerge: true})

	for _, b := range fitted.Branches {
		for _, c := range b.Columns {
			for _, st := range c.Stages {
				t.AppendRow(table.Row{b.Name, c.Name, st.Op, stageParams(st)})
			}
		}
		t.AppendSeparator()
	}

	t.AppendFooter(table.Row{"", "", "version", strconv.Itoa(fitted.Version)})
	t.AppendFooter(table.Row{"", "", "target", fitted.Target})
	t.Style().Format.Footer = text.FormatLower
	t.Render()
}

// stageParams formats the statistics set on st.
func stageParams(st preprocess.FittedStage) string {
	var parts []string
	if st.Median != nil {
		parts = append(parts, "median="+formatFloat(*st.Median))
	}
	if st.Mode != nil {
		parts = append(parts, "mode="+*st.Mode)
	}
	if len(st.Categories) > 0 {
		parts = append(parts, "categories="+strings.Join(st.Categories, " < "))
	}
	if st.Mean != nil {
		parts = append(parts, "mean="+formatFloat(*st.Mean))
	}
	if st.Std != nil {
		parts = append(parts, "std="+formatFloat(*st.Std))
	}
	return strings.Join(parts, " ")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}
