package render

import (
	"fmt"

	"github.com/hashicorp/go-version"
)

// versionGate disables a capability below a minimum server version.
type versionGate struct {
	dialect Dialect
	minimum *version.Version
	apply   func(*Capabilities)
}

var versionGates = []versionGate{
	{SQLite, version.Must(version.NewVersion("3.35.0")), func(c *Capabilities) {
		c.Returning = ReturningNone
		c.ReturningOn = StatementSet{}
	}},
	{SQLite, version.Must(version.NewVersion("3.30.0")), func(c *Capabilities) {
		c.NullsOrdering = false
	}},
	{SQLite, version.Must(version.NewVersion("3.24.0")), func(c *Capabilities) {
		c.Upsert = UpsertNone
		c.UpdateOnDuplicate = false
	}},
	{MariaDB, version.Must(version.NewVersion("10.5.0")), func(c *Capabilities) {
		c.Returning = ReturningNone
		c.ReturningOn = StatementSet{}
	}},
	{MSSQL, version.Must(version.NewVersion("11.0.0")), func(c *Capabilities) {
		c.OffsetFetch = false
	}},
	{Postgres, version.Must(version.NewVersion("9.5.0")), func(c *Capabilities) {
		c.Upsert = UpsertNone
		c.Ignore = IgnoreNone
		c.UpdateOnDuplicate = false
	}},
}

// WithVersion returns a copy of the capabilities adjusted for a server
// version. An empty string returns the capabilities unchanged.
func (c Capabilities) WithVersion(v string) (Capabilities, error) {
	if v == "" {
		return c, nil
	}
	parsed, err := version.NewVersion(v)
	if err != nil {
		return c, fmt.Errorf("invalid %s database version %q: %w", c.Name(), v, err)
	}
	c.Version = parsed.String()
	for _, gate := range versionGates {
		if gate.dialect == c.Dialect && parsed.LessThan(gate.minimum) {
			gate.apply(&c)
		}
	}
	return c, nil
}

// OffsetSupported reports whether SELECT pagination can skip rows.
func (c Capabilities) OffsetSupported() bool {
	if c.Limit == LimitTop {
		return c.OffsetFetch
	}
	return c.Limit != LimitNone
}
