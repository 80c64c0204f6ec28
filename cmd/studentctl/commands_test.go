package main

import (
	"bytes"
	"strings"
	"testing"

	"student-records/testing/testapi"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, server string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--server", server}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestStudentctl_Workflow(t *testing.T) {
	srv := testapi.NewServer(t)

	out, err := run(t, srv.URL, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No students found")

	out, err = run(t, srv.URL, "add", "--name", "Alice Smith", "--email", "alice@example.com", "--gpa", "3.5")
	require.NoError(t, err)
	assert.Contains(t, out, "Created student 1")
	assert.Contains(t, out, "3.50")

	_, err = run(t, srv.URL, "add", "--name", "Bob Jones", "--email", "bob@example.com", "--phone", "5551234567")
	require.NoError(t, err)

	out, err = run(t, srv.URL, "list", "--search", "ALI")
	require.NoError(t, err)
	assert.Contains(t, out, "alice@example.com")
	assert.NotContains(t, out, "bob@example.com")

	out, err = run(t, srv.URL, "edit", "1", "--year", "2027")
	require.NoError(t, err)
	assert.Contains(t, out, "2027")
	assert.Contains(t, out, "Alice Smith")

	out, err = run(t, srv.URL, "show", "2")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "PHONE")
	assert.Contains(t, lines[1], "5551234567")

	out, err = run(t, srv.URL, "delete", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted student 2")

	_, err = run(t, srv.URL, "show", "2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Student not found")
}

func TestStudentctl_RejectsBadInputLocally(t *testing.T) {
	srv := testapi.NewServer(t)

	_, err := run(t, srv.URL, "add", "--name", "Alice")
	require.EqualError(t, err, "Name and email are required")

	_, err = run(t, srv.URL, "edit", "1")
	require.EqualError(t, err, "No update data provided")

	_, err = run(t, srv.URL, "show", "abc")
	require.EqualError(t, err, "Invalid student ID format")

	assert.Zero(t, srv.Hits())
}
