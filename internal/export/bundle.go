package export

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dbsmedya/dsplineage/internal/graph"
)

// Bundle file names.
const (
	BundleGraph   = "lineage.json"
	BundleEdges   = "edges.csv"
	BundleNodes   = "objects.csv"
	BundleMermaid = "lineage.mmd"
	BundleStats   = "stats.json"
)

// WriteBundle writes every export of g into a single zip archive.
func WriteBundle(w io.Writer, g *graph.LineageGraph, c *graph.Classifier, modified time.Time) error {
	zw := zip.NewWriter(w)

	files := []struct {
		name  string
		write func(io.Writer) error
	}{
		{BundleGraph, func(w io.Writer) error { return WriteJSON(w, g, c) }},
		{BundleEdges, func(w io.Writer) error { return WriteEdgesCSV(w, EdgeRows(g, c)) }},
		{BundleNodes, func(w io.Writer) error { return WriteNodesCSV(w, NodeRows(g)) }},
		{BundleMermaid, func(w io.Writer) error { return WriteMermaid(w, g, c) }},
		{BundleStats, func(w io.Writer) error { return WriteStatsJSON(w, graph.Statistics(g, c)) }},
	}

	for _, f := range files {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.name,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return fmt.Errorf("create %s: %w", f.name, err)
		}
		if err := f.write(fw); err != nil {
			return fmt.Errorf("write %s: %w", f.name, err)
		}
	}

	return zw.Close()
}

// BundlePath returns the archive path for root inside dir, stamped with at.
func BundlePath(dir, root string, at time.Time) string {
	name := fmt.Sprintf("lineage_%s_%s.zip", fileSafe(root), at.Format("20060102_150405"))
	return filepath.Join(dir, name)
}

// WriteBundleFile creates dir if needed and writes the bundle for g into it.
func WriteBundleFile(dir string, g *graph.LineageGraph, c *graph.Classifier, at time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	path := BundlePath(dir, g.Root, at)
	err := createFile(path, func(w io.Writer) error {
		return WriteBundle(w, g, c, at)
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

// createFile creates path and fills it with write. A failed write leaves
// no file behind.
func createFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create bundle: %w", err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("close bundle: %w", err)
	}
	return nil
}

func fileSafe(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
}
