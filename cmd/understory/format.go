package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jward/understory"
)

// CLIBundle is the JSON output shape. Lines are 1-based for display.
type CLIBundle struct {
	SourceFile string            `json:"source_file"`
	Line       int               `json:"line"`
	Language   string            `json:"language,omitempty"`
	Primary    *CLIFunction      `json:"primary,omitempty"`
	Types      []CLIType         `json:"types,omitempty"`
	Referenced []CLIFunction     `json:"referenced,omitempty"`
	Touched    []string          `json:"touched,omitempty"`
	Tree       string            `json:"tree,omitempty"`
	Packages   map[string]string `json:"packages,omitempty"`
	Error      string            `json:"error,omitempty"`
}

type CLIFunction struct {
	Name      string `json:"name"`
	File      string `json:"file"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	Text      string `json:"text"`
}

type CLIType struct {
	Name string `json:"name"`
	File string `json:"file"`
	Text string `json:"text"`
}

func toCLIBundle(b understory.Bundle) CLIBundle {
	out := CLIBundle{
		SourceFile: b.SourceFile,
		Line:       b.Line + 1,
		Language:   b.Language,
		Touched:    b.Touched,
		Tree:       b.Tree,
		Packages:   b.Packages,
		Error:      b.ErrorMessage,
	}
	if b.Primary != nil {
		fn := toCLIFunction(*b.Primary)
		out.Primary = &fn
	}
	for _, td := range b.Types {
		out.Types = append(out.Types, CLIType{Name: td.Name, File: td.File, Text: td.Text})
	}
	for _, fn := range b.Referenced {
		out.Referenced = append(out.Referenced, toCLIFunction(fn))
	}
	return out
}

func toCLIFunction(fn understory.FunctionDefinition) CLIFunction {
	return CLIFunction{
		Name:      fn.Name,
		File:      fn.File,
		StartLine: fn.StartLine + 1,
		EndLine:   fn.EndLine + 1,
		Text:      fn.Text,
	}
}

// outputBundle writes one bundle to stdout in the configured format.
func outputBundle(b understory.Bundle) error {
	switch flagFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(toCLIBundle(b))
	default:
		formatBundleText(os.Stdout, toCLIBundle(b))
		return nil
	}
}

// formatBundleText renders a bundle as sectioned plain text.
func formatBundleText(w io.Writer, b CLIBundle) {
	fmt.Fprintf(w, "%s:%d", b.SourceFile, b.Line)
	if b.Language != "" {
		fmt.Fprintf(w, " (%s)", b.Language)
	}
	fmt.Fprintln(w)

	if b.Primary != nil {
		fmt.Fprintf(w, "\n== %s [%s:%d-%d]\n%s\n",
			b.Primary.Name, b.Primary.File, b.Primary.StartLine, b.Primary.EndLine, b.Primary.Text)
	}
	if len(b.Types) > 0 {
		fmt.Fprintln(w, "\n== Types")
		for _, td := range b.Types {
			fmt.Fprintf(w, "\n-- %s (%s)\n%s\n", td.Name, td.File, td.Text)
		}
	}
	if len(b.Referenced) > 0 {
		fmt.Fprintln(w, "\n== Referenced functions")
		for _, fn := range b.Referenced {
			fmt.Fprintf(w, "\n-- %s (%s:%d)\n%s\n", fn.Name, fn.File, fn.StartLine, fn.Text)
		}
	}
	if b.Tree != "" {
		fmt.Fprintf(w, "\n== Workspace\n%s", b.Tree)
	}
	if b.Error != "" {
		fmt.Fprintf(w, "\n(%s)\n", b.Error)
	}
}
