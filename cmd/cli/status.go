package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sevigo/constraint-warden/internal/core"
)

var outputJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Shows the dispatcher's queue, running jobs and recent attempts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		url := fmt.Sprintf("%s/%s/status", serverURL, hookID)

		req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return fmt.Errorf("no response from webhook: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("status request returned %s", resp.Status)
		}

		var status core.DispatcherStatus
		if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
			return fmt.Errorf("failed to decode dispatcher status: %w", err)
		}

		if outputJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(status)
		}

		fmt.Printf("queued: %d  running: %d  recorded attempts: %d\n",
			len(status.JobQueue), len(status.Running), len(status.Results))

		if len(status.Results) == 0 {
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "PROJECT\tCOMMIT\tOUTCOME")
		for _, attempt := range status.Results {
			fmt.Fprintf(w, "%s\t%s\t%s\n",
				attempt.Payload.ProjectID(),
				attempt.Payload.Data.CommitHash,
				describeAttempt(attempt),
			)
		}
		return w.Flush()
	},
}

func describeAttempt(attempt core.Attempt) string {
	switch {
	case attempt.Fault != "":
		return "fault: " + attempt.Fault
	case attempt.Result == nil:
		return "unknown"
	case attempt.Result.MetaInconsistent:
		return "meta-inconsistent"
	case attempt.Result.HasViolation:
		return "violation"
	default:
		return "clean"
	}
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	statusCmd.Flags().BoolVar(&outputJSON, "json", false, "Output status as JSON")
	rootCmd.AddCommand(statusCmd)
}
