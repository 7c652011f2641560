package contacts

import "context"

// Phone is one labelled phone number.
type Phone struct {
	Number string `json:"number"`
	Label  string `json:"label"`
}

// Contact is a directory entry with structured fields. Phone numbers and
// labels are typed lists, parsed at the directory boundary rather than
// stored as serialized blobs.
type Contact struct {
	Name    string   `json:"name"`
	Address string   `json:"address"`
	Phones  []Phone  `json:"phones"`
	Labels  []string `json:"labels"`
}

// Directory is the narrow interface to the external contact source consumed
// during route creation. Sync and field mapping live behind it.
type Directory interface {
	Lookup(ctx context.Context, name string) (Contact, bool, error)
}

// StaticDirectory serves a fixed contact set, used in tests and as a
// stand-in until a real sync backend is wired.
type StaticDirectory struct {
	byName map[string]Contact
}

func NewStaticDirectory(entries []Contact) *StaticDirectory {
	m := make(map[string]Contact, len(entries))
	for _, e := range entries {
		m[e.Name] = e
	}
	return &StaticDirectory{byName: m}
}

func (d *StaticDirectory) Lookup(ctx context.Context, name string) (Contact, bool, error) {
	c, ok := d.byName[name]
	return c, ok, nil
}
