package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func applicationsDataset() Dataset {
	ds := Dataset{Title: "Applications", Headers: []string{"Application ID", "Student", "Internship", "Status"}}
	ds.Append("APP001", "Asha Rao", "Backend Intern", "approved")
	ds.Append("APP002", "Ravi, K", "Data Intern")
	return ds
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(applicationsDataset())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Application ID,Student,Internship,Status", lines[0])
	assert.Equal(t, "APP001,Asha Rao,Backend Intern,approved", lines[1])
	assert.Equal(t, `APP002,"Ravi, K",Data Intern,`, lines[2])
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(applicationsDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestExportersRequireHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
	_, err = NewPDFExporter().Render(Dataset{})
	require.Error(t, err)
}
