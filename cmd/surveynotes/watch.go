package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dusk-indust/surveynotes/internal/session"
	"github.com/dusk-indust/surveynotes/internal/survey"
)

func newWatchCmd(a *app) *cobra.Command {
	var transcript string

	cmd := &cobra.Command{
		Use:   "watch <id>",
		Short: "Reconcile a session every time its transcript file grows",
		Long: `Polls the transcript file on the configured interval and whenever it is
written, sends the cumulative transcript for processing and reconciles the
result into the session. Runs until interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireEndpoint(); err != nil {
				return err
			}
			progress := cmd.ErrOrStderr()
			rt, err := a.open(func(ev survey.ProgressEvent) {
				fmt.Fprintln(progress, survey.FormatProgress(ev))
			})
			if err != nil {
				return err
			}
			defer rt.Close()

			id := args[0]
			if _, err := rt.svc.GetSession(cmd.Context(), id); err != nil {
				return err
			}

			poller := survey.NewPoller(survey.PollerConfig{
				SessionID: id,
				Interval:  a.cfg.Interval(),
				WatchPath: transcript,
				Debounce:  a.cfg.DebounceDuration(),
			}, survey.FileSource{Path: transcript}, rt.refresher)

			a.logger.Info("watching transcript",
				zap.String("session", id),
				zap.String("path", transcript),
				zap.Duration("interval", a.cfg.Interval()),
			)
			return poller.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&transcript, "transcript", "", "transcript text file to watch")
	_ = cmd.MarkFlagRequired("transcript")
	return cmd
}

func newRefreshCmd(a *app) *cobra.Command {
	var parallel int

	cmd := &cobra.Command{
		Use:   "refresh [ids...]",
		Short: "Re-process stored transcripts and reconcile the results",
		Long:  `Runs one processing pass for each given session, or for every stored session when no id is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireEndpoint(); err != nil {
				return err
			}

			reporter := survey.NewProgressReporter()
			rt, err := a.open(reporter.Emit)
			if err != nil {
				return err
			}
			defer rt.Close()

			ids := args
			if len(ids) == 0 {
				list, err := rt.svc.ListSessions(cmd.Context(), session.ListOptions{})
				if err != nil {
					return err
				}
				for _, s := range list.Sessions {
					ids = append(ids, s.ID)
				}
			}

			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				printProgress(cmd.ErrOrStderr(), reporter.Subscribe())
			}()

			results, err := survey.NewBatch(rt.refresher, parallel).Run(cmd.Context(), ids)
			reporter.Close()
			wg.Wait()

			out := cmd.OutOrStdout()
			for _, r := range results {
				if r.Err != nil {
					fmt.Fprintf(out, "%s  failed: %v\n", r.SessionID, r.Err)
					continue
				}
				fmt.Fprintf(out, "%s  revision %d\n", r.SessionID, r.Revision)
			}
			return err
		},
	}

	cmd.Flags().IntVar(&parallel, "parallel", 4, "maximum concurrent processing passes")
	return cmd
}

func printProgress(w io.Writer, events <-chan survey.ProgressEvent) {
	for ev := range events {
		fmt.Fprintln(w, survey.FormatProgress(ev))
	}
}

func newIngestCmd(a *app) *cobra.Command {
	var transcript string

	cmd := &cobra.Command{
		Use:   "ingest <id>",
		Short: "Store a transcript for a session and run one processing pass",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireEndpoint(); err != nil {
				return err
			}
			text, err := survey.FileSource{Path: transcript}.Transcript(cmd.Context())
			if err != nil {
				return err
			}

			rt, err := a.open(nil)
			if err != nil {
				return err
			}
			defer rt.Close()

			sess, err := rt.svc.Ingest(cmd.Context(), args[0], text)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  revision %d (%d sections)\n", sess.ID, sess.Revision, len(sess.Sections))
			return nil
		},
	}

	cmd.Flags().StringVar(&transcript, "transcript", "", "transcript text file")
	_ = cmd.MarkFlagRequired("transcript")
	return cmd
}
