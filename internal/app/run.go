package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/tyckorder/internal/ctxlog"
	"github.com/vk/tyckorder/internal/diag"
	"github.com/vk/tyckorder/internal/incremental"
	"github.com/vk/tyckorder/internal/report"
	"github.com/vk/tyckorder/internal/scheduler"
)

// RunError is returned by Run when checking finished but the program did
// not check cleanly.
type RunError struct {
	Failed           int
	Skipped          int
	StructuralErrors int
}

func (e *RunError) Error() string {
	return fmt.Sprintf("checking failed: %d failed, %d skipped, %d structural errors", e.Failed, e.Skipped, e.StructuralErrors)
}

// Run executes the main application logic based on the provided configuration.
func (a *App) Run(ctx context.Context) (err error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	collector := diag.NewCollector()
	sess, err := a.newSession(ctx, collector)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, sess.Close(ctx))
	}()

	driver := incremental.New(sess, a.loader)
	res, err := driver.Run(ctx, a.config.ProgramPath)
	if err != nil {
		return fmt.Errorf("failed to check program: %w", err)
	}
	if len(a.config.Changed) > 0 {
		a.logger.Info("Re-checking changed files.", "files", a.config.Changed)
		res, err = driver.Rerun(ctx, a.config.Changed...)
		if err != nil {
			return fmt.Errorf("failed to re-check changed files: %w", err)
		}
	}

	rep := report.New(ctx, sess.ID, driver.Program().Units(), sess.State, res, collector.Diagnostics())
	if err := rep.Write(a.outW, a.config.ReportFormat); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	a.logger.Debug("App.Run method finished.")
	return resultError(res)
}

func resultError(res *scheduler.Result) error {
	if res.OK() {
		return nil
	}
	return &RunError{
		Failed:           len(res.Failed),
		Skipped:          len(res.Skipped),
		StructuralErrors: res.StructuralErrors,
	}
}
