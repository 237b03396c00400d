package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/surveynotes/internal/export"
	"github.com/dusk-indust/surveynotes/internal/session"
	"github.com/dusk-indust/surveynotes/internal/status"
)

func newNewCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "new <name>",
		Short: "Create a survey session and print its id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.open(nil)
			if err != nil {
				return err
			}
			defer rt.Close()

			sess, err := rt.svc.CreateSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), sess.ID)
			return nil
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status [id]",
		Short: "Show canonical section coverage for one or all sessions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.open(nil)
			if err != nil {
				return err
			}
			defer rt.Close()

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				st, err := rt.svc.Status(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printStatus(out, *st)
				return nil
			}

			list, err := rt.svc.ListSessions(cmd.Context(), session.ListOptions{})
			if err != nil {
				return err
			}
			if len(list.Sessions) == 0 {
				fmt.Fprintln(out, "No sessions found.")
				fmt.Fprintln(out, "Run 'surveynotes new <name>' to start one.")
				return nil
			}
			schema := rt.svc.Reconciler().Schema()
			for i := range list.Sessions {
				st := status.Summarize(&list.Sessions[i], schema)
				populated, total := st.Coverage()
				fmt.Fprintf(out, "%-36s  %-30s  rev %-3d  %d/%d sections\n", st.ID, st.Name, st.Revision, populated, total)
			}
			return nil
		},
	}
}

func printStatus(out io.Writer, st status.SessionStatus) {
	fmt.Fprintf(out, "Session: %s (%s, revision %d)\n\n", st.Name, st.ID, st.Revision)
	for _, si := range st.Sections {
		marker := "  "
		label := "pending"
		switch {
		case !si.Canonical:
			label = "extra"
		case si.Name == st.NextMissing:
			marker = "->"
			label = "next"
		case si.Populated:
			label = "complete"
		}
		fmt.Fprintf(out, "  %s %-36s [%s]\n", marker, si.Name, label)
	}

	populated, total := st.Coverage()
	if st.NextMissing == "" {
		fmt.Fprintln(out, "  All sections populated.")
		return
	}
	fmt.Fprintf(out, "  %d/%d canonical sections populated.\n", populated, total)
}

func newExportCmd(a *app) *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export a session as JSON or Markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.open(nil)
			if err != nil {
				return err
			}
			defer rt.Close()

			sess, err := rt.svc.GetSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			var data []byte
			switch format {
			case "json":
				data, err = json.MarshalIndent(export.ExportSession(sess), "", "  ")
				if err != nil {
					return fmt.Errorf("marshal JSON: %w", err)
				}
				data = append(data, '\n')
			case "markdown", "md":
				data = []byte(export.RenderMarkdown(sess))
			default:
				return fmt.Errorf("unknown format %q (want json or markdown)", format)
			}

			if output != "" {
				return os.WriteFile(output, data, 0o644)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json or markdown")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}
