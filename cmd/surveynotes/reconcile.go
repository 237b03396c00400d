package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/surveynotes/internal/notes"
)

func newReconcileCmd(a *app) *cobra.Command {
	var previous, incoming string
	var compact bool

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Merge a candidate section set into a previous one",
		Long: `Reads two JSON arrays of sections and prints the reconciled array.
Malformed entries are skipped. Use "-" to read the incoming set from stdin.

Example:
  surveynotes reconcile --previous notes.json --incoming pass-3.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			prev, err := readSections(cmd, previous)
			if err != nil {
				return err
			}
			next, err := readSections(cmd, incoming)
			if err != nil {
				return err
			}

			r := a.cfg.Reconciler()
			out := r.Reconcile(prev, next)
			if compact {
				out = r.Compact(out)
			}
			if out == nil {
				out = []notes.Section{}
			}

			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal JSON: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(append(data, '\n'))
			return err
		},
	}

	cmd.Flags().StringVar(&previous, "previous", "", "JSON file with the sections reconciled so far")
	cmd.Flags().StringVar(&incoming, "incoming", "", "JSON file with the latest candidate sections (- for stdin)")
	cmd.Flags().BoolVar(&compact, "compact", false, "collapse near-duplicate lines within each section")
	_ = cmd.MarkFlagRequired("incoming")
	return cmd
}

// readSections decodes a section array from path. An empty path yields no
// sections.
func readSections(cmd *cobra.Command, path string) ([]notes.Section, error) {
	var (
		data []byte
		err  error
	)
	switch path {
	case "":
		return nil, nil
	case "-":
		data, err = io.ReadAll(cmd.InOrStdin())
	default:
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read sections %s: %w", path, err)
	}
	sections, err := notes.DecodeSections(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sections, nil
}
