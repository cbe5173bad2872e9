package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/mlvis/internal/store"
)

var (
	traceDir      string
	keepLast      int
	olderThanDays int
	forceClean    bool
)

var tracesCmd = &cobra.Command{
	Use:   "traces",
	Short: "Manage exported descent traces",
	Long: `Manage the JSON Lines trajectories written by "descend --trace",
including listing them and cleaning old ones.`,
}

var listTracesCmd = &cobra.Command{
	Use:   "list",
	Short: "List all traces in the trace directory",
	Long:  `Display every trace with its objective, entry count, final loss, modification time and size.`,
	RunE:  runListTraces,
}

var cleanTracesCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean old traces",
	Long: `Delete old traces based on a retention policy.
You can keep only the newest N traces or delete traces older than N days.`,
	RunE: runCleanTraces,
}

func init() {
	rootCmd.AddCommand(tracesCmd)
	tracesCmd.AddCommand(listTracesCmd)
	tracesCmd.AddCommand(cleanTracesCmd)

	tracesCmd.PersistentFlags().StringVar(&traceDir, "dir", "./traces", "Directory holding trace files")

	cleanTracesCmd.Flags().IntVar(&keepLast, "keep-last", 0, "Keep only the newest N traces (0 = keep all)")
	cleanTracesCmd.Flags().IntVar(&olderThanDays, "older-than", 0, "Delete traces older than N days (0 = no age limit)")
	cleanTracesCmd.Flags().BoolVarP(&forceClean, "force", "f", false, "Skip confirmation prompt")
}

func runListTraces(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	infos, err := store.ListTraces(traceDir)
	if err != nil {
		return fmt.Errorf("failed to list traces: %w", err)
	}

	if len(infos) == 0 {
		fmt.Fprintln(out, "No traces found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tOBJECTIVE\tENTRIES\tFINAL LOSS\tMODIFIED\tSIZE")
	fmt.Fprintln(w, "----\t---------\t-------\t----------\t--------\t----")
	for _, info := range infos {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.6f\t%s\t%s\n",
			info.Name(),
			info.Objective,
			info.Entries,
			info.FinalLoss,
			info.ModTime.Format("2006-01-02 15:04:05"),
			formatBytes(info.Size),
		)
	}
	w.Flush()

	fmt.Fprintf(out, "\nTotal traces: %d\n", len(infos))
	return nil
}

func runCleanTraces(cmd *cobra.Command, args []string) error {
	if keepLast == 0 && olderThanDays == 0 {
		return fmt.Errorf("must specify either --keep-last or --older-than")
	}
	out := cmd.OutOrStdout()

	infos, err := store.ListTraces(traceDir)
	if err != nil {
		return fmt.Errorf("failed to list traces: %w", err)
	}
	if len(infos) == 0 {
		fmt.Fprintln(out, "No traces to clean.")
		return nil
	}

	toDelete := selectTracesForDeletion(infos, keepLast, olderThanDays, time.Now())
	if len(toDelete) == 0 {
		fmt.Fprintln(out, "No traces match deletion criteria.")
		return nil
	}

	fmt.Fprintf(out, "Found %d trace(s) to delete:\n", len(toDelete))
	for _, info := range toDelete {
		fmt.Fprintf(out, "  - %s (%d entries, %s)\n",
			info.Name(),
			info.Entries,
			info.ModTime.Format("2006-01-02 15:04:05"),
		)
	}

	if !forceClean && !confirm(cmd.InOrStdin(), out) {
		fmt.Fprintln(out, "Aborted.")
		return nil
	}

	deleted, failed := 0, 0
	for _, info := range toDelete {
		if err := store.DeleteTrace(info.Path); err != nil {
			slog.Error("Failed to delete trace", "path", info.Path, "error", err)
			failed++
			continue
		}
		slog.Info("Deleted trace", "path", info.Path)
		deleted++
	}

	fmt.Fprintf(out, "\nDeleted %d trace(s), %d failed.\n", deleted, failed)
	return nil
}

func confirm(in io.Reader, out io.Writer) bool {
	fmt.Fprint(out, "\nProceed with deletion? [y/N]: ")
	response, _ := bufio.NewReader(in).ReadString('\n')
	response = strings.TrimSpace(response)
	return response == "y" || response == "Y"
}

// selectTracesForDeletion applies the age and count policies and returns
// the union, oldest first.
func selectTracesForDeletion(infos []store.TraceInfo, keepLast, olderThanDays int, now time.Time) []store.TraceInfo {
	sorted := make([]store.TraceInfo, len(infos))
	copy(sorted, infos)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ModTime.Before(sorted[j].ModTime)
	})

	selected := make(map[string]bool)
	if olderThanDays > 0 {
		cutoff := now.AddDate(0, 0, -olderThanDays)
		for _, info := range sorted {
			if info.ModTime.Before(cutoff) {
				selected[info.Path] = true
			}
		}
	}
	if keepLast > 0 && len(sorted) > keepLast {
		for _, info := range sorted[:len(sorted)-keepLast] {
			selected[info.Path] = true
		}
	}

	var toDelete []store.TraceInfo
	for _, info := range sorted {
		if selected[info.Path] {
			toDelete = append(toDelete, info)
		}
	}
	return toDelete
}

// formatBytes formats bytes as human-readable string
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
