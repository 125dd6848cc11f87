package merge

import (
	"errors"
	"fmt"
	"time"

	"github.com/recommend-games/board-game-merger/pkg/schema"
)

// KeyField names one component of the composite dedup key. CaseFold
// normalizes string values to lower case before comparison, so user names
// that differ only in casing collapse to the same entity.
type KeyField struct {
	Field    string
	CaseFold bool
}

// Config is the immutable description of one merge job. It is constructed
// once (usually by the registry) and never mutated while the job runs.
type Config struct {
	Schema schema.Schema

	InPaths []string
	OutPath string

	KeyFields    []KeyField
	LatestFields []string

	// LatestMin is the recency floor. Records whose primary latest value is
	// missing or below the floor are dropped. Zero value means no floor.
	LatestMin time.Time

	SortFields     []string
	SortDescending bool

	// FieldsInclude and FieldsExclude are mutually exclusive projections.
	FieldsInclude []string
	FieldsExclude []string
}

// ErrFieldSelection is returned when both an include-list and an
// exclude-list are configured.
var ErrFieldSelection = errors.New("cannot specify both fields include and fields exclude")

// Validate fails fast on configuration errors, before any file is touched.
func (c *Config) Validate() error {
	if len(c.InPaths) == 0 {
		return errors.New("at least one input path is required")
	}
	if c.OutPath == "" {
		return errors.New("output path is required")
	}
	if len(c.KeyFields) == 0 {
		return errors.New("at least one key field is required")
	}
	if len(c.LatestFields) == 0 {
		return errors.New("at least one latest field is required")
	}
	if c.FieldsInclude != nil && c.FieldsExclude != nil {
		return ErrFieldSelection
	}
	for _, k := range c.KeyFields {
		if !c.Schema.Has(k.Field) {
			return fmt.Errorf("key field %s not in schema", k.Field)
		}
	}
	for _, f := range c.LatestFields {
		if !c.Schema.Has(f) {
			return fmt.Errorf("latest field %s not in schema", f)
		}
	}
	for _, f := range c.SortFields {
		if !c.Schema.Has(f) {
			return fmt.Errorf("sort field %s not in schema", f)
		}
	}
	for _, f := range c.FieldsInclude {
		if !c.Schema.Has(f) {
			return fmt.Errorf("include field %s not in schema", f)
		}
	}
	for _, f := range c.FieldsExclude {
		if !c.Schema.Has(f) {
			return fmt.Errorf("exclude field %s not in schema", f)
		}
	}
	return nil
}

// hasFloor reports whether a recency floor is configured.
func (c *Config) hasFloor() bool {
	return !c.LatestMin.IsZero()
}
