package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// debounceDelay groups the burst of events editors emit on save.
const debounceDelay = 200 * time.Millisecond

func newWatchCmd(opts *options) *cobra.Command {
	f := &dbFlags{}
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print the migration plan each time the model file changes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.watch(cmd, f)
		},
	}
	f.register(cmd)
	return cmd
}

func (o *options) watch(cmd *cobra.Command, f *dbFlags) error {
	ctx, out := cmd.Context(), cmd.OutOrStdout()
	path, err := filepath.Abs(o.model)
	if err != nil {
		return err
	}
	if err := o.plan(ctx, out, f); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "codefirst: %v\n", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer watcher.Close()
	// Editors replace the file on save, so the directory is watched.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}
	o.logger.Debug("watching model file", "path", path)

	debounce := time.NewTimer(0)
	if !debounce.Stop() {
		<-debounce.C
	}
	pending := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isModelEvent(event, path) {
				continue
			}
			pending = true
			if !debounce.Stop() {
				select {
				case <-debounce.C:
				default:
				}
			}
			debounce.Reset(debounceDelay)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			o.logger.Warn("watch error", "error", err)
		case <-debounce.C:
			if !pending {
				continue
			}
			pending = false
			if err := o.plan(ctx, out, f); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "codefirst: %v\n", err)
			}
		}
	}
}

// isModelEvent reports whether the event changes the model file at path.
func isModelEvent(event fsnotify.Event, path string) bool {
	if filepath.Clean(event.Name) != path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}
