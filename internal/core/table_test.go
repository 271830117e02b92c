package core

// tableFromStrings builds a Table of text cells.
func tableFromStrings(rows [][]string) Table {
	t := make(Table, len(rows))
	for i, r := range rows {
		row := make(Row, len(r))
		for j, v := range r {
			row[j] = TextCell(v)
		}
		t[i] = row
	}
	return t
}
