package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/nicobailon/mediasection/internal/config"
	"github.com/nicobailon/mediasection/internal/recent"
	"github.com/nicobailon/mediasection/internal/rest"
	"github.com/nicobailon/mediasection/internal/section"
)

// consoleNotifier prints section notifications as they arrive.
type consoleNotifier struct {
	mu  sync.Mutex
	out io.Writer
}

func (n *consoleNotifier) Notify(message string, persistent bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(n.out, message)
}

func (n *consoleNotifier) Error(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(n.out, "error: "+message)
}

func (n *consoleNotifier) EnableDownloads() {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(n.out, "Downloads are available from the project page.")
}

// headless is a section driven without a screen.
type headless struct {
	ctrl   *section.Controller
	files  *section.HeadlessFiles
	header *section.HeadlessHeader
	events []section.Event
}

func newHeadless(svc *services) *headless {
	h := &headless{files: &section.HeadlessFiles{}, header: &section.HeadlessHeader{}}
	h.ctrl = section.NewController(section.Options{
		Files:            h.files,
		Overview:         &section.HeadlessOverview{},
		Header:           h.header,
		API:              svc.client,
		Notifier:         &consoleNotifier{out: os.Stdout},
		Emitter:          section.EmitterFunc(func(e section.Event) { h.events = append(h.events, e) }),
		DownloadFailures: svc.cfg.DownloadFailures(),
		PageQuery:        svc.cfg.PageQuery(),
		Logger:           svc.log,
	})
	h.ctrl.SetProjectID(svc.cfg.ProjectID)
	h.ctrl.SetUsername(svc.cfg.Username)
	h.ctrl.SetToken(svc.cfg.Token)
	h.ctrl.SetNameAttribute(svc.cfg.Section)
	h.ctrl.SetWorker(svc.worker)
	return h
}

// finish waits for every issued action and returns the reported failures.
func (h *headless) finish() error {
	h.ctrl.Wait()
	var errs []error
	for {
		select {
		case err := <-h.ctrl.Errors():
			errs = append(errs, err)
		default:
			return errors.Join(errs...)
		}
	}
}

func runHeadless(fn func(svc *services, h *headless) error) error {
	svc, err := loadServices(verboseFlag)
	if err != nil {
		return err
	}
	defer svc.Close()

	h := newHeadless(svc)
	if err := fn(svc, h); err != nil {
		return credentialsHint(err)
	}
	return credentialsHint(h.finish())
}

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Print the media filter of a section",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		filter, label := section.Derive(section.ParseName(cfg.Section))
		fmt.Printf("label:  %s\n", label)
		fmt.Printf("filter: %s\n", filter.Predicate())
		fmt.Printf("query:  %s\n", filter.Query())
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the media of a section",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHeadless(func(svc *services, h *headless) error {
			ctx, cancel := signalContext()
			defer cancel()
			media, err := svc.client.ListMedia(ctx, svc.cfg.ProjectID, h.ctrl.Filter().Query())
			if err != nil {
				return err
			}
			ids := make([]int64, 0, len(media))
			for _, m := range media {
				ids = append(ids, m.ID)
			}
			h.ctrl.SetMediaIDs(ids)
			h.ctrl.SetMediaCount(len(ids))
			if svc.recent != nil {
				svc.recent.Add(svc.cfg.Server, svc.cfg.ProjectID, h.ctrl.Name().Attribute(), h.ctrl.Label())
			}

			fmt.Println()
			fmt.Printf("%s  %s\n", h.header.Label, h.header.Count)
			for _, m := range media {
				fmt.Printf(" %-8d %s\n", m.ID, m.Name)
			}
			fmt.Println()
			return nil
		})
	},
}

var launchCmd = &cobra.Command{
	Use:   "launch <algorithm>",
	Short: "Launch an algorithm on every media of a section",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHeadless(func(_ *services, h *headless) error {
			_, err := h.ctrl.LaunchAlgorithm(args[0])
			return err
		})
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Request a zip of every media of a section",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		annotations, _ := cmd.Flags().GetBool("annotations")
		return runHeadless(func(_ *services, h *headless) error {
			_, err := h.ctrl.RequestDownload(annotations)
			return err
		})
	},
}

var renameCmd = &cobra.Command{
	Use:   "rename <new-name>",
	Short: "Rename a section and retag its media",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHeadless(func(svc *services, h *headless) error {
			from := h.ctrl.Name().Attribute()
			if !h.ctrl.RequestRename() {
				return section.ErrNotReady
			}
			h.ctrl.CommitKey(args[0])
			to := h.ctrl.Name().Attribute()
			if svc.recent != nil && from != to {
				svc.recent.Rename(svc.cfg.Server, svc.cfg.ProjectID, from, to)
			}
			fmt.Printf("%s -> %s\n", section.ParseName(from), h.ctrl.Label())
			return nil
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Forget a section",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHeadless(func(svc *services, h *headless) error {
			if err := h.ctrl.RequestDelete(); err != nil {
				return err
			}
			for _, e := range h.events {
				rm, ok := e.(section.RemoveSection)
				if !ok {
					continue
				}
				if svc.recent != nil {
					svc.recent.Remove(svc.cfg.Server, rm.ProjectID, h.ctrl.Name().Attribute())
				}
				fmt.Printf("Removed section %q (%s)\n", rm.Name, rm.Filter.Predicate())
			}
			return nil
		})
	},
}

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List recently opened sections of a project",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := recent.Load(config.Dir())
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")
		entries := store.ForProject(cfg.Server, cfg.ProjectID, limit)
		if len(entries) == 0 {
			fmt.Println("No recent sections.")
			return nil
		}
		fmt.Println()
		for _, e := range entries {
			fmt.Printf(" %-24s %-12s %s\n", e.Label, e.Section, e.LastAccess.Format("2006-01-02 15:04"))
		}
		fmt.Println()
		return nil
	},
}

func init() {
	downloadCmd.Flags().Bool("annotations", false, "Include annotations in the zip")
	recentCmd.Flags().Int("limit", 10, "Maximum number of sections")
}

// credentialsHint is added when the server rejects the configured credentials.
func credentialsHint(err error) error {
	if err == nil {
		return nil
	}
	status := 0
	var se *rest.StatusError
	var ae *section.ActionError
	switch {
	case errors.As(err, &se):
		status = se.StatusCode
	case errors.As(err, &ae):
		status = ae.StatusCode
	}
	if status == 401 || status == 403 {
		return fmt.Errorf("%w (check token in %s)", err, config.Dir())
	}
	return err
}
