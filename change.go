package conveyor

// Changed reports whether next differs observably from the previously
// selected value. Whole selections compare by identity. Keyed remaps compare
// field by field, ignoring fields produced by Task since task callbacks always
// read the latest state when run. Other function valued fields still count.
func Changed(prev any, next Selection) bool {
	if next.Kind != KeyedRemap {
		return !Same(prev, next.Selected)
	}

	record, ok := prev.(map[string]any)
	if !ok || len(record) != len(next.Fields) {
		return true
	}
	for _, field := range next.Fields {
		old, ok := record[field.Key]
		if !ok {
			return true
		}
		if field.Source == FromTask {
			continue
		}
		if !Same(old, field.Value) {
			return true
		}
	}
	return false
}
