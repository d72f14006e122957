package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/basel-ax/gallery/internal/domain"
	"github.com/basel-ax/gallery/internal/logging"
	"github.com/basel-ax/gallery/internal/service"
	"github.com/basel-ax/gallery/internal/view"
)

var errUsage = errors.New("usage")

// app runs gallery commands against one history view
type app struct {
	repo     domain.HistoryRepository
	view     *service.HistoryView
	out      io.Writer
	render   view.Options
	schedule string

	renderMu sync.Mutex
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "list":
		return a.list(ctx)
	case "delete":
		if len(rest) != 1 {
			return errUsage
		}
		return a.delete(ctx, rest[0])
	case "clear":
		return a.clear(ctx)
	case "add":
		return a.add(ctx, rest)
	case "watch":
		return a.watch(ctx)
	default:
		return errUsage
	}
}

// focus fires a focus event, ignoring fetches replaced by a newer one
func (a *app) focus(ctx context.Context) error {
	if err := a.view.Focus(ctx); err != nil && !errors.Is(err, service.ErrSuperseded) {
		return err
	}
	return nil
}

func (a *app) list(ctx context.Context) error {
	err := a.focus(ctx)
	return errors.Join(err, a.draw())
}

func (a *app) delete(ctx context.Context, id string) error {
	if err := a.focus(ctx); err != nil {
		return errors.Join(err, a.draw())
	}
	err := a.view.DeleteImage(ctx, id)
	return errors.Join(err, a.draw())
}

func (a *app) clear(ctx context.Context) error {
	if err := a.focus(ctx); err != nil {
		return errors.Join(err, a.draw())
	}
	err := a.view.ClearAll(ctx)
	return errors.Join(err, a.draw())
}

func (a *app) add(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.SetOutput(a.out)
	img := domain.GeneratedImage{}
	fs.StringVar(&img.ID, "id", "", "Image ID, generated when empty")
	fs.StringVar(&img.ImageURL, "url", "", "Image URL")
	fs.StringVar(&img.Prompt, "prompt", "", "Prompt the image was generated from")
	fs.StringVar(&img.Model, "model", "", "Model identifier, e.g. acme/fast-v2")
	fs.StringVar(&img.AspectRatio, "aspect", "1:1", "Aspect ratio label")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if err := a.repo.SaveImageToHistory(ctx, &img); err != nil {
		return fmt.Errorf("failed to add image: %w", err)
	}
	logging.WithField("image_id", img.ID).Info("Added image to history")
	return a.list(ctx)
}

// watch refreshes the history on every tick of the schedule until ctx is cancelled
func (a *app) watch(ctx context.Context) error {
	c := cron.New(cron.WithParser(cron.NewParser(
		cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
	)))

	if _, err := c.AddFunc(a.schedule, func() {
		logging.Debugf("[CRON] Refreshing image history")
		if err := a.list(ctx); err != nil {
			logging.WithError(err).Warn("[CRON] Refresh failed")
		}
	}); err != nil {
		return fmt.Errorf("invalid watch schedule %q: %w", a.schedule, err)
	}

	if err := a.list(ctx); err != nil {
		logging.WithError(err).Warn("Initial refresh failed")
	}

	c.Start()
	logging.Infof("Watching image history (%s)", a.schedule)

	<-ctx.Done()
	<-c.Stop().Done()
	logging.Infof("Watch stopped")
	return nil
}

func (a *app) draw() error {
	a.renderMu.Lock()
	defer a.renderMu.Unlock()
	return view.Render(a.out, view.Build(a.view.Snapshot(), a.render))
}
