package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"tenderdesk/wizard/contactinfo"
)

var scanCmd = &cobra.Command{
	Use:   "scan [text]",
	Short: "Report contact details found in a text",
	Long: `Runs the contact detail scanner used for tender descriptions and
answers. The text is read from the arguments, or from stdin when none are
given. Exits with an error when a detection would block the text.`,
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	if len(args) == 0 {
		raw, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		text = string(raw)
	}

	detections := contactinfo.Scan(text)
	out := cmd.OutOrStdout()
	if len(detections) == 0 {
		_, err := fmt.Fprintln(out, "no contact details found")
		return err
	}
	for _, d := range detections {
		if _, err := fmt.Fprintf(out, "%-6s %-9s %s\n", d.Severity, d.Type, d.Match); err != nil {
			return err
		}
	}
	if d, ok := contactinfo.FirstBlocking(detections); ok {
		return fmt.Errorf("blocked: %s %q", d.Type, d.Match)
	}
	return nil
}
