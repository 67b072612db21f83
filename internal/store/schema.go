package store

import (
	"fmt"
	"sort"
)

// TableDef declares a table and the top-level record fields that are indexed.
type TableDef struct {
	Name    string
	Indexes []string
}

// Migration is one schema version. Tables and AddIndexes are declarative; Up is an
// optional data step run inside the same upgrade transaction. Steps must be safe to
// re-run against the same pre-state.
type Migration struct {
	Version     uint
	Description string
	Tables      []TableDef
	AddIndexes  map[string][]string
	Up          func(tx *Tx) error
}

type tableSchema struct {
	name    string
	indexes map[string]bool
}

// Registry is the cumulative schema declared by an ordered migration list.
type Registry struct {
	version  uint
	tables   map[string]*tableSchema
	since    map[string]uint
	upgrades []Migration
}

// BuildRegistry folds migrations into the schema in force at the last version.
func BuildRegistry(migrations []Migration) (*Registry, error) {
	reg := &Registry{tables: make(map[string]*tableSchema), since: make(map[string]uint)}
	for i, m := range migrations {
		if m.Version == 0 {
			return nil, fmt.Errorf("migration %d has version 0", i)
		}
		if m.Version <= reg.version {
			return nil, fmt.Errorf("migration versions must be strictly increasing: %d after %d", m.Version, reg.version)
		}
		for _, t := range m.Tables {
			if t.Name == "" || t.Name[0] == '_' {
				return nil, fmt.Errorf("migration %d: invalid table name %q", m.Version, t.Name)
			}
			ts, ok := reg.tables[t.Name]
			if !ok {
				ts = &tableSchema{name: t.Name, indexes: make(map[string]bool)}
				reg.tables[t.Name] = ts
				reg.since[t.Name] = m.Version
			}
			for _, f := range t.Indexes {
				ts.indexes[f] = true
			}
		}
		for table, fields := range m.AddIndexes {
			ts, ok := reg.tables[table]
			if !ok {
				return nil, fmt.Errorf("migration %d: index on undeclared table %q", m.Version, table)
			}
			for _, f := range fields {
				ts.indexes[f] = true
			}
		}
		if m.Up != nil {
			reg.upgrades = append(reg.upgrades, m)
		}
		reg.version = m.Version
	}
	return reg, nil
}

// Version is the schema version the registry describes.
func (r *Registry) Version() uint { return r.version }

// Tables returns every declared table name, sorted.
func (r *Registry) Tables() []string {
	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasTable reports whether the table is declared.
func (r *Registry) HasTable(table string) bool {
	_, ok := r.tables[table]
	return ok
}

// TableSince returns the version that declared table, or 0 when it is unknown.
func (r *Registry) TableSince(table string) uint { return r.since[table] }

// UpgradeSteps returns the migrations after version from that carry a data step, in order.
func (r *Registry) UpgradeSteps(from uint) []Migration {
	var out []Migration
	for _, m := range r.upgrades {
		if m.Version > from {
			out = append(out, m)
		}
	}
	return out
}

// IsIndexed reports whether field is a declared index on table.
func (r *Registry) IsIndexed(table, field string) bool {
	ts, ok := r.tables[table]
	return ok && ts.indexes[field]
}

// Indexes returns the indexed fields of table, sorted.
func (r *Registry) Indexes(table string) []string {
	ts, ok := r.tables[table]
	if !ok {
		return nil
	}
	fields := make([]string, 0, len(ts.indexes))
	for f := range ts.indexes {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

func indexBucketName(table, field string) []byte {
	return []byte("_idx/" + table + "/" + field)
}
