package export

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/dbsmedya/dsplineage/internal/types"
)

// RenderSpaceTable prints spaces with their display names.
func RenderSpaceTable(w io.Writer, spaces []types.Space) {
	t := newTable(w, []string{"space", "label", "business_name"})
	for _, s := range spaces {
		t.AppendRow(table.Row{s.ID, s.Label, s.BusinessName})
	}
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d spaces)\n", len(spaces))
}

// RenderObjectTable prints design objects.
func RenderObjectTable(w io.Writer, objects []types.DesignObject) {
	t := newTable(w, []string{"id", "technical_name", "business_name", "kind", "space"})
	for _, o := range objects {
		t.AppendRow(table.Row{o.ID, o.Name(), o.BusinessName, o.Kind, o.SpaceID})
	}
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d objects)\n", len(objects))
}
