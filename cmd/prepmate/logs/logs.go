// Package logscmder provides the logs command for tailing a prepmate
// server log file.
package logscmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

const logsLongDesc string = `Tail a prepmate server log file.

Dumps the file and then follows it, printing new lines as the server
writes them. Point it at the file passed to 'prepmate serve --log-file'.

Examples:
  prepmate logs prepmate.log
  prepmate logs --no-follow prepmate.log`

const logsShortDesc string = "Tail a prepmate server log file"

func NewLogsCmd() *cobra.Command {
	var noFollow bool

	cmd := &cobra.Command{
		Use:   "logs <file>",
		Short: logsShortDesc,
		Long:  logsLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			err := runLogs(ctx, args[0], os.Stdout, !noFollow)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&noFollow, "no-follow", false, "Print the file and exit instead of following it")

	return cmd
}

func runLogs(ctx context.Context, path string, out io.Writer, follow bool) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer file.Close()

	buf := make([]byte, 4096)
	readAvailable := func() error {
		for {
			n, err := file.Read(buf)
			if n > 0 {
				if _, writeErr := out.Write(buf[:n]); writeErr != nil {
					return writeErr
				}
			}
			if err != nil {
				if errors.Is(err, io.EOF) {
					return nil
				}
				return err
			}
		}
	}

	if err := readAvailable(); err != nil {
		return err
	}
	if !follow {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating log watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory rather than the file so rotation via
	// rename-and-recreate still produces events.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watching log dir: %w", err)
	}

	// Catch writes that landed between the first read and the watch.
	if err := readAvailable(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-watcher.Events:
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := readAvailable(); err != nil {
				return err
			}
		case err := <-watcher.Errors:
			return fmt.Errorf("log watcher error: %w", err)
		}
	}
}
