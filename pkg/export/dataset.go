package export

// Column maps a row key to the label printed in the header.
type Column struct {
	Key   string
	Label string
	// Width is a relative weight used by the PDF renderer. Zero means 1.
	Width float64
}

// Dataset defines tabular export content.
type Dataset struct {
	Title   string
	Columns []Column
	Rows    []map[string]string
}

func (d Dataset) labels() []string {
	labels := make([]string, len(d.Columns))
	for i, col := range d.Columns {
		labels[i] = col.Label
		if labels[i] == "" {
			labels[i] = col.Key
		}
	}
	return labels
}
