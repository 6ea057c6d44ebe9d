package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/bioclick/bioclick/internal/config"
	"github.com/bioclick/bioclick/internal/events"
	"github.com/bioclick/bioclick/internal/models"
	"github.com/bioclick/bioclick/internal/services"
)

func newRunCmd() *cobra.Command {
	var (
		blastType string
		remote    bool
	)

	cmd := &cobra.Command{
		Use:   "run <input-file>",
		Short: "Run a BLAST job and stream its output",
		Long: `Run a BLAST job against the local engine (default) or the remote
service (--remote). Engine output is streamed to the terminal; remote
results are saved into the configured output folder.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputPath := args[0]

			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}

			core, err := services.NewApp(cfg, GetLogger())
			if err != nil {
				return err
			}
			defer core.Close()

			kind := models.JobKindLocal
			if remote {
				kind = models.JobKindRemote
			}
			req := models.JobRequest{
				InputPath: inputPath,
				Kind:      kind,
				BlastType: models.BlastType(blastType),
			}

			sub := core.Bus.Subscribe()
			defer sub.Unsubscribe()

			job, err := core.Dispatcher.Dispatch(GetContext(), req)
			if err != nil {
				return err
			}

			// Remote jobs produce no streamed output, so show a spinner
			// while waiting for the server when attached to a terminal.
			var spinnerDone chan struct{}
			if remote && term.IsTerminal(int(os.Stderr.Fd())) {
				spinnerDone = startSpinner("Waiting for BLAST server...")
			}
			stopSpinner := func() {
				if spinnerDone != nil {
					close(spinnerDone)
					spinnerDone = nil
					// Give the spinner a beat to clear its line.
					time.Sleep(20 * time.Millisecond)
				}
			}
			defer stopSpinner()

			for ev := range sub.C {
				switch e := ev.(type) {
				case *events.OutputChunkEvent:
					fmt.Fprint(os.Stdout, e.Text)
				case *events.ErrorChunkEvent:
					stopSpinner()
					fmt.Fprint(os.Stderr, e.Text)
				case *events.StateChangeEvent:
					GetLogger().Debug().
						Str("job_id", e.JobID()).
						Str("state", e.NewState).
						Msg("Job state changed")
				case *events.CompletedEvent:
					stopSpinner()
					exitCode = e.ExitCode
					if e.ArtifactPath != "" {
						fmt.Fprintf(os.Stdout, "Result saved to %s\n", e.ArtifactPath)
					} else if remote {
						fmt.Fprintf(os.Stdout, "Result saved under %s\n", core.Store.Dir())
					} else if e.ExitCode != 0 {
						fmt.Fprintf(os.Stderr, "Engine exited with code %d\n", e.ExitCode)
					}
					GetLogger().Info().
						Str("job_id", job.ID).
						Int("exit_code", e.ExitCode).
						Msg("Job finished")
					return nil
				case *events.FailedEvent:
					stopSpinner()
					return fmt.Errorf("job failed: %s", e.Reason)
				}
			}
			return fmt.Errorf("event stream ended before the job finished")
		},
	}

	cmd.Flags().StringVarP(&blastType, "type", "t", string(models.BlastN), "BLAST program (blastn, blastp, blastx, tblastn, tblastx)")
	cmd.Flags().BoolVar(&remote, "remote", false, "Run against the remote BLAST service instead of the local engine")

	return cmd
}

// startSpinner animates an indeterminate spinner on stderr until the
// returned channel is closed.
func startSpinner(description string) chan struct{} {
	done := make(chan struct{})
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				bar.Finish()
				return
			case <-ticker.C:
				bar.Add(1)
			}
		}
	}()
	return done
}
