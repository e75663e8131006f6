package recent

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const maxRecent = 10

// Entry is a section that was opened in the browser.
type Entry struct {
	Server     string    `json:"server"`
	ProjectID  string    `json:"project_id"`
	Section    string    `json:"section"`
	Label      string    `json:"label"`
	LastAccess time.Time `json:"last_access"`
}

type Store struct {
	Entries []Entry `json:"entries"`
	path    string
	now     func() time.Time
}

// Load reads recent.json from dir. A missing or corrupt file yields an empty store.
func Load(dir string) (*Store, error) {
	path := filepath.Join(dir, "recent.json")
	s := &Store{path: path, Entries: []Entry{}, now: time.Now}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, s); err != nil {
		s.Entries = []Entry{}
		return s, nil
	}
	return s, nil
}

func (s *Store) Save() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0644)
}

// Add records an access to a section, given in its attribute form.
func (s *Store) Add(server, projectID, section, label string) {
	for i, e := range s.Entries {
		if e.Server == server && e.ProjectID == projectID && e.Section == section {
			s.Entries[i].LastAccess = s.now()
			s.Entries[i].Label = label
			s.prune()
			return
		}
	}

	s.Entries = append(s.Entries, Entry{
		Server:     server,
		ProjectID:  projectID,
		Section:    section,
		Label:      label,
		LastAccess: s.now(),
	})

	s.prune()
}

// Rename moves the entry of a renamed section to its new name.
func (s *Store) Rename(server, projectID, from, to string) {
	if from == to {
		return
	}
	s.Remove(server, projectID, to)
	for i, e := range s.Entries {
		if e.Server == server && e.ProjectID == projectID && e.Section == from {
			s.Entries[i].Section = to
			s.Entries[i].Label = to
			s.Entries[i].LastAccess = s.now()
		}
	}
	s.prune()
}

func (s *Store) prune() {
	sort.SliceStable(s.Entries, func(i, j int) bool {
		return s.Entries[i].LastAccess.After(s.Entries[j].LastAccess)
	})

	if len(s.Entries) > maxRecent*3 {
		s.Entries = s.Entries[:maxRecent*3]
	}
}

// ForProject returns the most recent sections of a project, newest first.
func (s *Store) ForProject(server, projectID string, limit int) []Entry {
	var out []Entry
	for _, e := range s.Entries {
		if e.Server == server && e.ProjectID == projectID {
			out = append(out, e)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastAccess.After(out[j].LastAccess)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out
}

// SectionNames lists the labels of every known section of a project.
func (s *Store) SectionNames(server, projectID string) []string {
	var names []string
	for _, e := range s.ForProject(server, projectID, 0) {
		names = append(names, e.Label)
	}
	return names
}

func (s *Store) Remove(server, projectID, section string) {
	var filtered []Entry
	for _, e := range s.Entries {
		if !(e.Server == server && e.ProjectID == projectID && e.Section == section) {
			filtered = append(filtered, e)
		}
	}
	s.Entries = filtered
}
