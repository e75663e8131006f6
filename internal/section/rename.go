package section

type RenameState int

const (
	RenameIdle RenameState = iota
	RenameEditing
)

func (s RenameState) String() string {
	if s == RenameEditing {
		return "editing"
	}
	return "idle"
}

// renameTransaction drives the inline edit of the section name. Enter and
// blur share one finalize path.
type renameTransaction struct {
	c        *Controller
	state    RenameState
	original string
}

func (r *renameTransaction) requestEdit() bool {
	if !r.c.actions.wired || r.state != RenameIdle || r.c.header.Editing() {
		return false
	}
	r.state = RenameEditing
	r.original = r.c.label
	r.c.header.BeginEdit(r.c.label)
	return true
}

func (r *renameTransaction) commitKey(value string) { r.finalize(value) }

func (r *renameTransaction) blur(value string) { r.finalize(value) }

func (r *renameTransaction) finalize(candidate string) {
	if r.state != RenameEditing {
		return
	}
	c := r.c
	renamed := candidate != "" && candidate != c.label
	if renamed {
		c.postWorker(RenameSection{FromName: c.label, ToName: candidate})
		c.label = candidate
	}

	// The filter is still the one derived from the display name, so the
	// patch reaches the media that were in the section before the rename.
	next := c.name
	if renamed {
		next = ParseName(candidate)
	}
	var value any = c.label
	if next.IsUnnamed() {
		value = nil
	}
	c.actions.patchName(c.target(), value)

	c.SetName(next)
	c.files.SetSection(c.label)
	c.header.EndEdit(c.label)

	c.log.Debug().Str("from", r.original).Str("to", c.label).Bool("renamed", renamed).Msg("rename finished")
	r.state = RenameIdle
	r.original = ""
	c.emit(NameChanged{Name: c.label})
}
