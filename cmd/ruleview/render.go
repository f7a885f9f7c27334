package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/qiniu/ruleview/internal/rules/snapshot"
	"github.com/qiniu/ruleview/internal/rules/view"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	return t
}

func renderNamespaces(w io.Writer, namespaces []view.NamespaceView) {
	if len(namespaces) == 0 {
		fmt.Fprintln(w, text.FgYellow.Sprint("No rules found"))
		return
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"SOURCE", "NAMESPACE", "GROUP", "RULE", "KIND", "STATE", "MATCH", "LABELS"})
	total := 0
	for _, ns := range namespaces {
		for _, g := range ns.Groups {
			for _, r := range g.Rules {
				t.AppendRow(table.Row{ns.Source.Name, ns.Name, g.Name, r.Name, r.Kind, colorState(r.State), r.Match, view.FormatLabels(r.Labels)})
				total++
			}
		}
	}
	t.AppendFooter(table.Row{"", "", "", fmt.Sprintf("%d rules", total)})
	t.Render()
}

func colorState(state string) string {
	switch state {
	case view.StateFiring:
		return text.FgRed.Sprint(state)
	case view.StatePending:
		return text.FgYellow.Sprint(state)
	}
	return state
}

func renderDetails(w io.Writer, d *view.Details) {
	t := newTable(w)
	t.AppendHeader(table.Row{"FIELD", "VALUE"})
	t.AppendRow(table.Row{"Name", d.Rule.Name})
	t.AppendRow(table.Row{"Kind", d.Rule.Kind})
	if d.Rule.State != "" {
		t.AppendRow(table.Row{"State", colorState(d.Rule.State)})
	}
	t.AppendRow(table.Row{"Health", d.Rule.Health})
	t.AppendRow(table.Row{"Match", d.Rule.Match})
	if len(d.Labels) > 0 {
		t.AppendRow(table.Row{"Labels", view.FormatLabels(d.Labels)})
	}
	t.AppendRow(table.Row{"Expression", d.Expression})
	for _, a := range d.Annotations {
		t.AppendRow(table.Row{"Annotation " + a.Key, a.Value})
	}
	if d.DataSource != "" {
		t.AppendRow(table.Row{"Data source", d.DataSource})
	}
	t.Render()

	if len(d.Instances) == 0 {
		return
	}
	it := newTable(w)
	it.AppendHeader(table.Row{"STATE", "ACTIVE SINCE", "VALUE", "LABELS"})
	for _, a := range d.Instances {
		since := ""
		if a.ActiveAt != nil {
			since = a.ActiveAt.Format("2006-01-02 15:04:05")
		}
		it.AppendRow(table.Row{colorState(a.State), since, a.Value, view.FormatLabels(a.Labels)})
	}
	it.Render()
}

func renderFetchErrors(w io.Writer, errs []snapshot.FetchError) {
	for _, e := range errs {
		fmt.Fprintf(w, "%s %s/%s: %s (using %s)\n", text.FgYellow.Sprint("warning:"), e.Source, e.Side, e.Message, e.Fallback)
	}
}
