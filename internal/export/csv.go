package export

import (
	"encoding/csv"
	"io"
)

// WriteEdgesCSV writes the edge table with a header row.
func WriteEdgesCSV(w io.Writer, rows []EdgeRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(EdgeHeader); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.Strings()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteNodesCSV writes the node table with a header row.
func WriteNodesCSV(w io.Writer, rows []NodeRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(NodeHeader); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.Strings()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
