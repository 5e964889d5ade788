package ui

import (
	"pqleval/pkg/datum"
)

// tabulate lays a collection of structs out as a table. Columns are the
// field names in order of first appearance; a field a row lacks renders as
// MISSING. ok is false for anything that is not a collection of structs.
func tabulate(d datum.Datum) (columns []string, rows [][]string, ok bool) {
	if !d.IsCollection() {
		return nil, nil, false
	}

	index := make(map[string]int)
	for _, elem := range d.Elems() {
		if elem.Kind() != datum.KindStruct {
			return nil, nil, false
		}
		for _, f := range elem.Fields() {
			if _, seen := index[f.Name]; !seen {
				index[f.Name] = len(columns)
				columns = append(columns, f.Name)
			}
		}
	}

	rows = make([][]string, 0, d.Len())
	for _, elem := range d.Elems() {
		row := make([]string, len(columns))
		for i := range row {
			row[i] = datum.Missing().String()
		}
		for _, f := range elem.Fields() {
			row[index[f.Name]] = f.Value.String()
		}
		rows = append(rows, row)
	}
	return columns, rows, true
}
