package graph

import (
	"encoding/hex"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"lukechampine.com/blake3"

	"worldgraph/internal/entity"
)

// LabelFunc names an entity in a dump. ordinal is the entity's pre-order
// position, the same position Walk visits it at.
type LabelFunc func(ordinal int, e entity.Entity) string

// Dump renders the graph reachable from root as indented text. Entities are
// labelled "#<ordinal>"; a reference to an entity rendered earlier is printed
// as "^<label>" instead of being expanded again.
func Dump(u *entity.Universe, root entity.Entity) (string, error) {
	return DumpLabeled(u, root, nil)
}

// DumpLabeled is Dump with caller-chosen entity labels.
func DumpLabeled(u *entity.Universe, root entity.Entity, label LabelFunc) (string, error) {
	if entity.IsNil(root) {
		return "", fmt.Errorf("dumping graph: root is nil")
	}
	if label == nil {
		label = func(ordinal int, _ entity.Entity) string {
			return "#" + strconv.Itoa(ordinal)
		}
	}
	d := &dumper{u: u, label: label, labels: make(map[entity.Entity]string)}
	if err := d.entity(root, 0); err != nil {
		return "", err
	}
	return d.out.String(), nil
}

// Fingerprint returns the hex blake3-256 digest of the canonical dump of the
// graph. Graphs that are Equal have the same fingerprint.
func Fingerprint(u *entity.Universe, root entity.Entity) (string, error) {
	dump, err := Dump(u, root)
	if err != nil {
		return "", err
	}
	sum := blake3.Sum256([]byte(dump))
	return hex.EncodeToString(sum[:]), nil
}

type dumper struct {
	u      *entity.Universe
	label  LabelFunc
	labels map[entity.Entity]string
	next   int
	out    strings.Builder
}

// entity writes the header of e on the current line and its members below.
func (d *dumper) entity(e entity.Entity, depth int) error {
	if entity.IsNil(e) {
		d.out.WriteString("nil\n")
		return nil
	}
	if label, ok := d.labels[e]; ok {
		d.out.WriteString("^" + label + "\n")
		return nil
	}
	t, err := d.u.TypeOf(e)
	if err != nil {
		return err
	}
	label := d.label(d.next, e)
	d.next++
	d.labels[e] = label
	fmt.Fprintf(&d.out, "%s %s\n", t.Name, label)

	indent := strings.Repeat("  ", depth+1)
	for i := range t.Members {
		m := &t.Members[i]
		switch m.Kind {
		case entity.KindPrimitive:
			fmt.Fprintf(&d.out, "%s%s: %s\n", indent, m.Name, formatPrimitive(m.Primitive(e)))
		case entity.KindPrimitiveSeq:
			values := m.Primitives(e)
			parts := make([]string, len(values))
			for j, v := range values {
				parts[j] = formatPrimitive(v)
			}
			fmt.Fprintf(&d.out, "%s%s: [%s]\n", indent, m.Name, strings.Join(parts, ", "))
		case entity.KindEntity:
			fmt.Fprintf(&d.out, "%s%s: ", indent, m.Name)
			if err := d.entity(m.Entity(e), depth+1); err != nil {
				return err
			}
		case entity.KindEntitySeq:
			refs := m.Entities(e)
			fmt.Fprintf(&d.out, "%s%s: (%d)\n", indent, m.Name, len(refs))
			for _, ref := range refs {
				fmt.Fprintf(&d.out, "%s  - ", indent)
				if err := d.entity(ref, depth+2); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// FormatPrimitive renders a primitive value the way dumps do.
func FormatPrimitive(v any) string {
	return formatPrimitive(v)
}

func formatPrimitive(v any) string {
	switch p := v.(type) {
	case time.Time:
		return p.UTC().Format(time.RFC3339Nano)
	case fmt.Stringer:
		return p.String()
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.String {
		return strconv.Quote(rv.String())
	}
	return fmt.Sprintf("%v", v)
}
