package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/cwbudde/mlvis/internal/server"
)

var (
	serverURL string
)

var statusCmd = &cobra.Command{
	Use:   "status [session-id]",
	Short: "Query server status or a specific session",
	Long: `Queries the server for session information.
If no session-id is provided, lists all sessions.
If session-id is provided, shows detailed state for that session.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if len(args) == 0 {
		return listSessions(out, fmt.Sprintf("%s/api/v1/sessions", serverURL))
	}
	id := args[0]
	return getSession(out, fmt.Sprintf("%s/api/v1/sessions/%s", serverURL, id), id)
}

func fetchJSON(url string, v any) (int, error) {
	resp, err := http.Get(url)
	if err != nil {
		return 0, fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, fmt.Errorf("server returned error: %s", string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}
	return resp.StatusCode, nil
}

func listSessions(out io.Writer, url string) error {
	var sessions []server.Snapshot
	if _, err := fetchJSON(url, &sessions); err != nil {
		return err
	}

	if len(sessions) == 0 {
		fmt.Fprintln(out, "No sessions found")
		return nil
	}

	fmt.Fprintf(out, "Found %d session(s):\n\n", len(sessions))
	for _, s := range sessions {
		fmt.Fprintf(out, "Session ID: %s\n", s.ID)
		fmt.Fprintf(out, "  Kind: %s\n", s.Kind)
		fmt.Fprintf(out, "  Running: %t\n", s.Running)
		switch {
		case s.Conv != nil:
			fmt.Fprintf(out, "  Step: %d/%d\n", s.Conv.Step+1, s.Conv.TotalSteps)
		case s.Descent != nil:
			fmt.Fprintf(out, "  Objective: %s\n", s.Descent.Objective)
			fmt.Fprintf(out, "  Loss: %.6f after %d iterations\n", s.Descent.Position.Z, s.Descent.Iteration)
		}
		fmt.Fprintln(out)
	}
	return nil
}

func getSession(out io.Writer, url, id string) error {
	var s server.Snapshot
	code, err := fetchJSON(url, &s)
	if code == http.StatusNotFound {
		return fmt.Errorf("session not found: %s", id)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Session: %s\n", s.ID)
	fmt.Fprintf(out, "Kind: %s\n", s.Kind)
	fmt.Fprintf(out, "Running: %t\n", s.Running)
	fmt.Fprintf(out, "Cadence: %dms\n", s.CadenceMs)
	fmt.Fprintf(out, "Created: %s\n", s.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintln(out)

	if c := s.Conv; c != nil {
		fmt.Fprintln(out, "Convolution:")
		fmt.Fprintf(out, "  Step: %d/%d (row %d, col %d)\n", c.Step+1, c.TotalSteps, c.Row, c.Col)
		fmt.Fprintf(out, "  Output value: %g from %d terms\n", c.Breakdown.Sum, len(c.Breakdown.Terms))
	}
	if d := s.Descent; d != nil {
		fmt.Fprintln(out, "Descent:")
		fmt.Fprintf(out, "  Objective: %s\n", d.Objective)
		fmt.Fprintf(out, "  Learning rate: %g\n", d.LearningRate)
		fmt.Fprintf(out, "  Iteration: %d\n", d.Iteration)
		fmt.Fprintf(out, "  Position: (%.4f, %.4f)\n", d.Position.X, d.Position.Y)
		fmt.Fprintf(out, "  Loss: %.6f\n", d.Position.Z)
		if len(d.Losses) > 0 {
			fmt.Fprintf(out, "  Start loss: %.6f\n", d.Losses[0])
		}
	}
	return nil
}
