package merge

// projectedFields resolves the projection to the ordered field list the
// writer emits. Retained fields always follow schema declaration order:
// an include-list keeps only its members, an exclude-list removes its
// members, neither keeps the full schema. Validate guarantees the two
// lists are never both set.
func (c *Config) projectedFields() []string {
	if c.FieldsInclude != nil {
		include := make(map[string]bool, len(c.FieldsInclude))
		for _, f := range c.FieldsInclude {
			include[f] = true
		}
		fields := make([]string, 0, len(c.FieldsInclude))
		for _, f := range c.Schema.FieldOrder {
			if include[f] {
				fields = append(fields, f)
			}
		}
		return fields
	}

	if c.FieldsExclude != nil {
		exclude := make(map[string]bool, len(c.FieldsExclude))
		for _, f := range c.FieldsExclude {
			exclude[f] = true
		}
		fields := make([]string, 0, len(c.Schema.FieldOrder))
		for _, f := range c.Schema.FieldOrder {
			if !exclude[f] {
				fields = append(fields, f)
			}
		}
		return fields
	}

	return c.Schema.FieldOrder
}
