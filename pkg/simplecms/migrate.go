package simplecms

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	jsonpatch "github.com/evanphx/json-patch/v5"
)

// Migration upgrades one stored record (or one document value) to Version.
// A nil Item only bumps the version.
type Migration struct {
	Version     int
	Description string
	Item        func(raw json.RawMessage) (json.RawMessage, error)
}

// Migrator applies an ordered chain of migrations.
type Migrator struct {
	migrations []Migration
}

// NewMigrator creates a migrator from the given migrations, ordered by version.
func NewMigrator(migrations ...Migration) *Migrator {
	ms := append([]Migration(nil), migrations...)
	sort.SliceStable(ms, func(i, j int) bool { return ms[i].Version < ms[j].Version })
	return &Migrator{migrations: ms}
}

// DefaultMigrator returns the chain for collections and related-content
// documents. Version 1 introduced the envelope and leaves records as stored.
func DefaultMigrator() *Migrator {
	return NewMigrator(Migration{
		Version:     1,
		Description: "wrap in versioned envelope",
	})
}

// SettingsMigrator returns the chain for page settings documents. It shares
// version numbers with DefaultMigrator.
func SettingsMigrator() *Migrator {
	return NewMigrator(Migration{
		Version:     1,
		Description: "rename feature label/value to heading/description",
		Item:        renameLegacyFeatureFields,
	})
}

// Latest returns the version written by saves.
func (m *Migrator) Latest() int {
	if m == nil || len(m.migrations) == 0 {
		return 0
	}
	return m.migrations[len(m.migrations)-1].Version
}

// Upgrade runs every migration newer than from over raw.
func (m *Migrator) Upgrade(from int, raw json.RawMessage) (json.RawMessage, error) {
	if from > m.Latest() {
		return nil, fmt.Errorf("%w: stored %d, latest %d", ErrUnsupportedSchema, from, m.Latest())
	}
	if m == nil {
		return raw, nil
	}
	out := raw
	for _, mig := range m.migrations {
		if mig.Version <= from || mig.Item == nil {
			continue
		}
		next, err := mig.Item(out)
		if err != nil {
			return nil, fmt.Errorf("migration v%d (%s): %w", mig.Version, mig.Description, err)
		}
		out = next
	}
	return out, nil
}

type patchOp struct {
	Op   string `json:"op"`
	From string `json:"from,omitempty"`
	Path string `json:"path"`
}

var legacyFieldRenames = [][2]string{
	{"label", "heading"},
	{"value", "description"},
}

// renameLegacyFeatureFields moves label/value to heading/description on the
// value itself and on each element of its "features" list.
func renameLegacyFeatureFields(raw json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return raw, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, err
	}

	ops := renameOps("", obj)
	if featuresRaw, ok := obj["features"]; ok {
		var features []json.RawMessage
		if err := json.Unmarshal(featuresRaw, &features); err == nil {
			for i, f := range features {
				var fobj map[string]json.RawMessage
				if err := json.Unmarshal(f, &fobj); err != nil {
					continue
				}
				ops = append(ops, renameOps(fmt.Sprintf("/features/%d", i), fobj)...)
			}
		}
	}
	if len(ops) == 0 {
		return raw, nil
	}

	patchJSON, err := json.Marshal(ops)
	if err != nil {
		return nil, err
	}
	patch, err := jsonpatch.DecodePatch(patchJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode patch: %w", err)
	}
	out, err := patch.Apply(trimmed)
	if err != nil {
		return nil, fmt.Errorf("failed to apply patch operations: %w", err)
	}
	return out, nil
}

func renameOps(base string, obj map[string]json.RawMessage) []patchOp {
	var ops []patchOp
	for _, rename := range legacyFieldRenames {
		oldKey, newKey := rename[0], rename[1]
		if _, ok := obj[oldKey]; !ok {
			continue
		}
		if _, exists := obj[newKey]; exists {
			ops = append(ops, patchOp{Op: "remove", Path: base + "/" + oldKey})
			continue
		}
		ops = append(ops, patchOp{Op: "move", From: base + "/" + oldKey, Path: base + "/" + newKey})
	}
	return ops
}
