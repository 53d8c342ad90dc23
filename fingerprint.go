package avmat

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/flywave/go3d/vec3"
)

// fingerprintSep separates fingerprint fields so adjacent paths cannot run together.
const fingerprintSep = '\x00'

func formatFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}

// FormatColor renders a colour in the fixed form used inside fingerprints.
func FormatColor(c vec3.T) string {
	return fmt.Sprintf("<Color (r=%s, g=%s, b=%s)>", formatFloat(c[0]), formatFloat(c[1]), formatFloat(c[2]))
}

// Fingerprint returns the key two materials share iff they render the same:
// the image paths of the enabled texture slots in slot order, then alpha,
// specular and diffuse colour.
func Fingerprint(m *Material) string {
	if m == nil {
		return ""
	}
	var sb strings.Builder
	for _, ts := range m.TextureSlots {
		if ts == nil || !ts.Enabled {
			continue
		}
		if path := ts.ImagePath(); path != "" {
			sb.WriteString(path)
			sb.WriteByte(fingerprintSep)
		}
	}
	sb.WriteString(formatFloat(m.Alpha))
	sb.WriteByte(fingerprintSep)
	sb.WriteString(FormatColor(m.SpecularColor))
	sb.WriteByte(fingerprintSep)
	sb.WriteString(FormatColor(m.DiffuseColor))
	return sb.String()
}

// GroupMember is one material slot of a group. Material is held by identity
// so renames during a run cannot move a slot between groups.
type GroupMember struct {
	Material *Material `json:"-"`
	Name     string    `json:"material"`
	Index    int       `json:"index"`
}

// Group is the set of slots that share one fingerprint.
type Group struct {
	Key     string        `json:"key"`
	Members []GroupMember `json:"members"`
}

// Mergeable reports whether the group has anything to merge.
func (g *Group) Mergeable() bool {
	return len(g.Members) > 1
}

func (g *Group) Has(m *Material) bool {
	if m == nil {
		return false
	}
	for _, member := range g.Members {
		if member.Material == m {
			return true
		}
	}
	return false
}

// Groups keeps fingerprint groups in first-seen order.
type Groups struct {
	list  []*Group
	index map[string]*Group
}

func (gs *Groups) add(key string, member GroupMember) {
	g, ok := gs.index[key]
	if !ok {
		g = &Group{Key: key}
		gs.index[key] = g
		gs.list = append(gs.list, g)
	}
	g.Members = append(g.Members, member)
}

func (gs *Groups) List() []*Group {
	return gs.list
}

func (gs *Groups) Len() int {
	return len(gs.list)
}

func (gs *Groups) Get(key string) *Group {
	return gs.index[key]
}

// Mergeable returns the groups with at least two members.
func (gs *Groups) Mergeable() []*Group {
	var out []*Group
	for _, g := range gs.list {
		if g.Mergeable() {
			out = append(out, g)
		}
	}
	return out
}

// BuildGroups fingerprints every material slot of every object in one pass.
func BuildGroups(s *Scene) *Groups {
	gs := &Groups{index: make(map[string]*Group)}
	for _, o := range s.Objects {
		for i, slot := range o.MaterialSlots() {
			if slot.Material == nil {
				continue
			}
			gs.add(Fingerprint(slot.Material), GroupMember{Material: slot.Material, Name: slot.Name(), Index: i})
		}
	}
	return gs
}
