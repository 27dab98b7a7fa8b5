package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"stylus/internal/deps"
	"stylus/internal/preflight"
	"stylus/internal/queueaccess"
)

const (
	daemonStartTimeout = 10 * time.Second
	daemonStopTimeout  = 5 * time.Second
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the stylus daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			if daemonReachable(ctx) {
				fmt.Fprintln(stdout, "Daemon already running")
				return nil
			}

			fmt.Fprintln(stdout, "Daemon not running, launching...")
			if err := launchDaemon(ctx); err != nil {
				return err
			}
			if err := waitForDaemon(ctx, daemonStartTimeout); err != nil {
				return err
			}
			fmt.Fprintln(stdout, "Daemon started")
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the stylus daemon (completely terminates the process)",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			stopped, pid, err := stopDaemon(ctx)
			if err != nil {
				return err
			}
			if !stopped {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			fmt.Fprintln(stdout, "Stopping daemon workflow...")
			if pid > 0 {
				fmt.Fprintf(stdout, "Stopping daemon process (pid %d)...\n", pid)
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	restartCmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the stylus daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			stopped, pid, err := stopDaemon(ctx)
			if err != nil {
				return err
			}
			if stopped {
				if pid > 0 {
					fmt.Fprintf(stdout, "Stopping daemon process (pid %d)...\n", pid)
				}
				fmt.Fprintln(stdout, "Daemon stopped")
			}

			if err := launchDaemon(ctx); err != nil {
				return err
			}
			if err := waitForDaemon(ctx, daemonStartTimeout); err != nil {
				return err
			}
			fmt.Fprintln(stdout, "Daemon restarted")
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show system and queue status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatusCommand(ctx, cmd)
		},
	}

	return []*cobra.Command{startCmd, stopCmd, restartCmd, statusCmd}
}

// daemonReachable reports whether the daemon answers on its socket.
func daemonReachable(ctx *commandContext) bool {
	client, err := ctx.dialClient()
	if err != nil {
		return false
	}
	defer client.Close()
	_, err = client.Status()
	return err == nil
}

// launchDaemon re-executes this binary as a detached daemon process.
func launchDaemon(ctx *commandContext) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	args := []string{"daemon"}
	if ctx.socketFlag != nil {
		if socket := strings.TrimSpace(*ctx.socketFlag); socket != "" {
			args = append(args, "--socket", socket)
		}
	}
	if ctx.configFlag != nil {
		if configPath := strings.TrimSpace(*ctx.configFlag); configPath != "" {
			args = append(args, "--config", configPath)
		}
	}

	cmd := exec.Command(exe, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	// The daemon lives past this process; release it so it is not reaped here.
	return cmd.Process.Release()
}

// waitForDaemon polls the socket until the daemon responds or the timeout expires.
func waitForDaemon(ctx *commandContext, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if daemonReachable(ctx) {
			return nil
		}
		time.Sleep(200 * time.Millisecond)
	}
	return fmt.Errorf("daemon did not respond on %s within %s", ctx.socketPath(), timeout)
}

// stopDaemon asks the daemon to stop over IPC and then terminates the
// process. Returns false when the daemon was not running.
func stopDaemon(ctx *commandContext) (bool, int, error) {
	client, err := ctx.dialClient()
	if err != nil {
		return false, 0, nil
	}
	_, stopErr := client.Stop()
	client.Close()
	if stopErr != nil {
		return false, 0, fmt.Errorf("request daemon stop: %w", stopErr)
	}

	pid := readDaemonPID(ctx)
	if pid > 0 {
		// The stop request halts the workflow; SIGTERM ends the process.
		_ = syscall.Kill(pid, syscall.SIGTERM)
	}

	deadline := time.Now().Add(daemonStopTimeout)
	for time.Now().Before(deadline) {
		if !daemonReachable(ctx) {
			return true, pid, nil
		}
		time.Sleep(200 * time.Millisecond)
	}
	if pid > 0 {
		_ = syscall.Kill(pid, syscall.SIGKILL)
	}
	return true, pid, nil
}

func readDaemonPID(ctx *commandContext) int {
	cfg := ctx.configValue()
	if cfg == nil {
		return 0
	}
	data, err := os.ReadFile(pidFilePath(cfg.Paths.LogDir))
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0
	}
	return pid
}

func pidFilePath(logDir string) string {
	return filepath.Join(logDir, "stylus.pid")
}

func runStatusCommand(ctx *commandContext, cmd *cobra.Command) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	stdout := cmd.OutOrStdout()
	colorize := shouldColorize(stdout)

	running := daemonReachable(ctx)

	for _, line := range renderSectionHeader("System Status", colorize) {
		fmt.Fprintln(stdout, line)
	}
	daemonKind := statusError
	daemonDetail := "not running; start it with `stylus start`"
	if running {
		daemonKind = statusOK
		daemonDetail = fmt.Sprintf("listening on %s", ctx.socketPath())
	}
	fmt.Fprintln(stdout, renderStatusLine("Daemon", daemonKind, daemonDetail, colorize))
	for _, check := range preflight.RunAll(cmd.Context(), cfg) {
		kind := statusOK
		if !check.Passed {
			kind = statusError
		}
		fmt.Fprintln(stdout, renderStatusLine(check.Name, kind, check.Detail, colorize))
	}
	fmt.Fprintln(stdout)

	for _, line := range renderSectionHeader("Dependencies", colorize) {
		fmt.Fprintln(stdout, line)
	}
	for _, line := range dependencyLines(preflight.CheckSystemDeps(cmd.Context(), cfg), colorize) {
		fmt.Fprintln(stdout, line)
	}
	fmt.Fprintln(stdout)

	for _, line := range renderSectionHeader("Library Paths", colorize) {
		fmt.Fprintln(stdout, line)
	}
	fmt.Fprintln(stdout, renderStatusLine("Staging", statusInfo, cfg.Paths.StagingDir, colorize))
	fmt.Fprintln(stdout, renderStatusLine("Library", statusInfo, cfg.Paths.LibraryDir, colorize))
	fmt.Fprintln(stdout, renderStatusLine("Review", statusInfo, cfg.Paths.ReviewDir, colorize))
	fmt.Fprintln(stdout, renderStatusLine("Downloads", statusInfo, cfg.Paths.DownloadDir, colorize))
	fmt.Fprintln(stdout)

	for _, line := range renderSectionHeader("Queue Status", colorize) {
		fmt.Fprintln(stdout, line)
	}
	return ctx.withQueueAccess(func(access queueaccess.Access) error {
		stats, err := access.Stats(cmd.Context())
		if err != nil {
			return err
		}
		rows := buildQueueStatusRows(stats)
		if len(rows) == 0 {
			fmt.Fprintln(stdout, "Queue is empty")
			return nil
		}
		table := renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
		fmt.Fprintln(stdout, table)
		return nil
	})
}

func dependencyLines(statuses []deps.Status, colorize bool) []string {
	lines := make([]string, 0, len(statuses)+1)
	missing := make([]string, 0)
	for _, dep := range statuses {
		if dep.Available {
			message := "Ready"
			if dep.Command != "" {
				message = fmt.Sprintf("Ready (command: %s)", dep.Command)
			}
			lines = append(lines, renderStatusLine(dep.Name, statusOK, message, colorize))
			continue
		}

		detail := strings.TrimSpace(dep.Detail)
		if detail == "" {
			detail = "not available"
		}
		kind := statusError
		if dep.Optional {
			kind = statusWarn
		}
		lines = append(lines, renderStatusLine(dep.Name, kind, detail, colorize))
		if !dep.Optional {
			missing = append(missing, dep.Name)
		}
	}
	if len(missing) > 0 {
		lines = append(lines, renderStatusLine("Missing dependencies", statusWarn, strings.Join(missing, ", "), colorize))
	}
	return lines
}
