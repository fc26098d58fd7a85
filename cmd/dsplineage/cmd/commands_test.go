package cmd

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDependencies = `[
	{"id":"A","qualifiedName":"V_SALES","kind":"sap.dwc.view","dependencies":[
		{"id":"B","qualifiedName":"ORDERS","kind":"sap.dwc.localtable","dependencyType":"csn.query.from"}
	]},
	{"id":"B","qualifiedName":"ORDERS","kind":"sap.dwc.localtable","dependencies":[
		{"id":"C","qualifiedName":"RF_ORDERS","kind":"sap.dis.replicationflow","dependencyType":"sap.dis.replicationflow.targetOf"}
	]},
	{"id":"X","qualifiedName":"UNRELATED","kind":"sap.dwc.view"}
]`

// testConsumers lists two objects depending on D: a replication flow
// writing into it and a view associated with it.
const testConsumers = `[
	{"id":"D","qualifiedName":"T_TARGET","kind":"sap.dwc.localtable"},
	{"id":"F","qualifiedName":"RF_LOAD","kind":"sap.dis.replicationflow","dependencies":[
		{"id":"D","qualifiedName":"T_TARGET","dependencyType":"sap.dis.replicationflow.targetOf"}
	]},
	{"id":"V","qualifiedName":"V_LOOKUP","kind":"sap.dwc.view","dependencies":[
		{"id":"D","qualifiedName":"T_TARGET","dependencyType":"csn.entity.association"}
	]}
]`

// newTestRepository fakes the repository API.
func newTestRepository(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/dwaas-core/api/v1/spaces", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`["SALES"]`))
	})
	mux.HandleFunc("/dwaas-core/repository/spaces", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"name":"SALES","businessName":"Sales Team"}]}`))
	})
	mux.HandleFunc("/deepsea/repository/SALES/designObjects", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"id":"A","technicalName":"V_SALES","kind":"sap.dwc.view"},
			{"id":"B","technicalName":"ORDERS","kind":"sap.dwc.localtable"},
			{"id":"C","technicalName":"RF_ORDERS","kind":"sap.dis.replicationflow"}
		]`))
	})
	mux.HandleFunc("/deepsea/repository/dependencies/", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("ids") {
		case "A":
			_, _ = w.Write([]byte(testDependencies))
		case "D":
			_, _ = w.Write([]byte(testConsumers))
		case "GHOST":
			_, _ = w.Write([]byte(`[{"id":"X","qualifiedName":"UNRELATED","dependencies":[
				{"id":"B","qualifiedName":"ORDERS","dependencyType":"csn.query.from"}
			]}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// withTestConfig writes a config for srv, points the CLI at it and
// captures output. Flag variables are restored afterwards.
func withTestConfig(t *testing.T, srv *httptest.Server) *bytes.Buffer {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "dsplineage.yaml")
	content := fmt.Sprintf(`api:
  host: %s
  max_retries: 0
  backoff_ms: 1
export:
  output_dir: %s
logging:
  level: error
`, srv.URL, filepath.Join(dir, "exports"))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	origCfg, origNoColor, origNotice := cfgFile, noColor, noticeWriter
	origByName, origSpace := lineageByName, lineageSpace
	origTx, origDir, origDepth, origOut := lineageTransactional, lineageDirection, lineageDepth, lineageOutput
	t.Cleanup(func() {
		cfgFile, noColor, noticeWriter = origCfg, origNoColor, origNotice
		lineageByName, lineageSpace = origByName, origSpace
		lineageTransactional, lineageDirection, lineageDepth, lineageOutput = origTx, origDir, origDepth, origOut
		resetOutputWriter()
	})

	cfgFile = path
	noColor = true
	noticeWriter = io.Discard
	var buf bytes.Buffer
	setOutputWriter(&buf)
	return &buf
}

func TestLineageCommand_Table(t *testing.T) {
	buf := withTestConfig(t, newTestRepository(t))

	require.NoError(t, runLineage(lineageCmd, []string{"A"}))

	out := buf.String()
	assert.Contains(t, out, "V_SALES")
	assert.Contains(t, out, "RF_ORDERS")
	assert.Contains(t, out, "(2 edges)")
	assert.NotContains(t, out, "UNRELATED")
}

func TestLineageCommand_TransactionalTree(t *testing.T) {
	buf := withTestConfig(t, newTestRepository(t))
	lineageTransactional = true
	lineageOutput = "tree"

	require.NoError(t, runLineage(lineageCmd, []string{"A"}))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "V_SALES"))
	assert.Contains(t, lines[2], "RF_ORDERS")
}

func TestLineageCommand_DownstreamTransactional(t *testing.T) {
	buf := withTestConfig(t, newTestRepository(t))
	lineageDirection = "downstream"
	lineageTransactional = true
	lineageOutput = "csv"

	require.NoError(t, runLineage(lineageCmd, []string{"D"}))

	out := buf.String()
	assert.Contains(t, out, "RF_LOAD")
	assert.NotContains(t, out, "V_LOOKUP")
}

func TestLineageCommand_Downstream(t *testing.T) {
	buf := withTestConfig(t, newTestRepository(t))
	lineageDirection = "downstream"
	lineageOutput = "csv"

	require.NoError(t, runLineage(lineageCmd, []string{"D"}))

	out := buf.String()
	assert.Contains(t, out, "RF_LOAD")
	assert.Contains(t, out, "V_LOOKUP")
}

func TestLineageCommand_RootSubstituted(t *testing.T) {
	buf := withTestConfig(t, newTestRepository(t))
	var notice bytes.Buffer
	noticeWriter = &notice
	lineageOutput = "json"

	require.NoError(t, runLineage(lineageCmd, []string{"GHOST"}))

	assert.Contains(t, buf.String(), `"root": "X"`)
	assert.Contains(t, notice.String(), "GHOST is missing from its dependency response, showing X instead")
	assert.NotContains(t, buf.String(), "GHOST")
}

func TestNoColorRestoredAfterTest(t *testing.T) {
	before := noColor
	t.Run("configured", func(t *testing.T) {
		withTestConfig(t, newTestRepository(t))
		assert.True(t, noColor)
	})
	assert.Equal(t, before, noColor)
}

func TestLineageCommand_ByName(t *testing.T) {
	buf := withTestConfig(t, newTestRepository(t))
	lineageByName = true
	lineageOutput = "json"

	require.NoError(t, runLineage(lineageCmd, []string{"v_sales"}))
	assert.Contains(t, buf.String(), `"root": "A"`)
}

func TestLineageCommand_NotFound(t *testing.T) {
	withTestConfig(t, newTestRepository(t))

	err := runLineage(lineageCmd, []string{"MISSING"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MISSING")
	assert.Contains(t, err.Error(), "not found")
}

func TestPathCommand(t *testing.T) {
	buf := withTestConfig(t, newTestRepository(t))

	require.NoError(t, runPath(pathCmd, []string{"A", "C"}))

	out := buf.String()
	assert.Contains(t, out, "--csn.query.from--> ORDERS")
	assert.Contains(t, out, "(2 hops)")

	err := runPath(pathCmd, []string{"A", "X"})
	assert.Error(t, err)
}

func TestStatsCommand(t *testing.T) {
	buf := withTestConfig(t, newTestRepository(t))
	statsCategories = true
	defer func() { statsCategories = false }()

	require.NoError(t, runStats(statsCmd, []string{"A"}))

	out := buf.String()
	assert.Contains(t, out, "Lineage of A")
	assert.Contains(t, out, "replication_flows")
	assert.Contains(t, out, "Data flow: ORDERS -> RF_ORDERS")
}

func TestExportCommand(t *testing.T) {
	buf := withTestConfig(t, newTestRepository(t))

	require.NoError(t, runExport(exportCmd, []string{"A"}))

	path := strings.TrimSpace(buf.String())
	assert.True(t, strings.HasSuffix(path, ".zip"))
	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestSpacesCommand(t *testing.T) {
	buf := withTestConfig(t, newTestRepository(t))

	require.NoError(t, runSpaces(spacesCmd, nil))
	assert.Contains(t, buf.String(), "Sales Team")
}

func TestObjectsCommand(t *testing.T) {
	buf := withTestConfig(t, newTestRepository(t))
	objectsQuiet = true
	defer func() { objectsQuiet = false; objectsSearch = "" }()

	require.NoError(t, runObjects(objectsCmd, []string{"SALES"}))
	assert.Contains(t, buf.String(), "RF_ORDERS")

	buf.Reset()
	require.NoError(t, runObjects(objectsCmd, nil))
	assert.Contains(t, buf.String(), "1 spaces, 3 objects")

	buf.Reset()
	objectsSearch = "orders"
	require.NoError(t, runObjects(objectsCmd, nil))
	assert.Contains(t, buf.String(), "ORDERS")
}

func TestValidateCommand(t *testing.T) {
	buf := withTestConfig(t, newTestRepository(t))

	require.NoError(t, runValidate(validateCmd, nil))
	assert.Contains(t, buf.String(), "Repository API reachable (1 spaces)")
}

func TestValidateCommand_BadConfig(t *testing.T) {
	withTestConfig(t, newTestRepository(t))
	cfgFile = filepath.Join(t.TempDir(), "missing.yaml")

	assert.Error(t, runValidate(validateCmd, nil))
}
