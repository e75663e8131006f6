package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

func loadMediaCmd(ctx context.Context, b Backend, projectID, query string) tea.Cmd {
	return func() tea.Msg {
		media, err := b.ListMedia(ctx, projectID, query)
		return mediaLoadedMsg{media: media, err: err}
	}
}

func loadAnalysisCmd(ctx context.Context, b Backend, projectID, query string, seq int) tea.Cmd {
	return func() tea.Msg {
		analysis, err := b.SectionAnalysis(ctx, projectID, query)
		return analysisLoadedMsg{seq: seq, analysis: analysis, err: err}
	}
}

func openURLCmd(o Opener, url string) tea.Cmd {
	return func() tea.Msg {
		return resultMsg{action: "open", err: o.Open(url)}
	}
}

// absoluteURL joins a server relative path onto the server base.
func absoluteURL(server, path string) string {
	if server == "" {
		return path
	}
	return strings.TrimRight(server, "/") + path
}
