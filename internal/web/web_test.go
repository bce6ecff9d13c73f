package web

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rtucker-mozilla/minventory/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, name string, data map[string]interface{}) string {
	t.Helper()
	tmpl, err := Templates()
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, tmpl.ExecuteTemplate(&buf, name, data))
	return buf.String()
}

func TestTemplates_AllPagesParse(t *testing.T) {
	tmpl, err := Templates()
	require.NoError(t, err)
	for _, name := range []string{
		"index.html", "quicksearch.html", "system_show.html", "system_form.html",
		"racks.html", "rack_form.html", "confirm_delete.html", "server_models.html",
		"operating_systems.html", "revision.html", "csv_import.html", "generic_output.html",
	} {
		assert.NotNil(t, tmpl.Lookup(name), name)
	}
}

func TestSystemShow_RendersRelatedAndEscapesNotes(t *testing.T) {
	order := 12.5
	sys := &models.System{
		ID:          7,
		Hostname:    "web1.dc1",
		Notes:       "line one\n<script>",
		RackOrder:   &order,
		ServerModel: &models.ServerModel{Vendor: "HP", Model: "DL360"},
	}
	out := render(t, "system_show.html", map[string]interface{}{
		"system":     sys,
		"read_only":  true,
		"key_values": []models.KeyValue{{Key: "owner", Value: "ops"}},
	})

	assert.Contains(t, out, "web1.dc1")
	assert.Contains(t, out, "HP - DL360")
	assert.Contains(t, out, "12.50")
	assert.Contains(t, out, "line one<br />&lt;script&gt;")
	assert.Contains(t, out, "owner")
	assert.NotContains(t, out, "/systems/edit/7/")
}

func TestSystemForm_NewAndEdit(t *testing.T) {
	osID := uint(2)
	oses := []models.OperatingSystem{{ID: 1, Name: "RHEL", Version: "6"}, {ID: 2, Name: "RHEL", Version: "7"}}

	out := render(t, "system_form.html", map[string]interface{}{"operating_systems": oses})
	assert.Contains(t, out, "New System")
	assert.NotContains(t, out, " selected")

	out = render(t, "system_form.html", map[string]interface{}{
		"system":            &models.System{ID: 3, Hostname: "db1", OperatingSystemID: &osID},
		"operating_systems": oses,
	})
	assert.Contains(t, out, "Edit db1")
	assert.Contains(t, out, `<option value="2" selected>RHEL - 7</option>`)
}

func TestQuicksearch_Empty(t *testing.T) {
	out := render(t, "quicksearch.html", map[string]interface{}{"systems": []models.System{}})
	assert.Contains(t, out, "No systems found")
}

func TestStatic_ServesStylesheet(t *testing.T) {
	f, err := Static().Open("inventory.css")
	require.NoError(t, err)
	defer f.Close()
}

func TestNl2br(t *testing.T) {
	assert.Equal(t, "a<br />b&amp;c", string(nl2br("a\nb&c")))
	assert.True(t, strings.HasPrefix(string(nl2br("&lt;")), "&amp;"))
}

func TestBugLinks(t *testing.T) {
	prefix := "https://bugzilla.mozilla.org/show_bug.cgi?id="
	cases := []struct {
		name  string
		notes string
		url   any
		want  string
	}{
		{"space", "see bug 123", prefix, `see <a href="https://bugzilla.mozilla.org/show_bug.cgi?id=123">bug 123</a>`},
		{"hash", "Bug#45 fixed", prefix, `<a href="https://bugzilla.mozilla.org/show_bug.cgi?id=45">Bug#45</a> fixed`},
		{"two refs", "bug 1\nbug #2", prefix, `<a href="https://bugzilla.mozilla.org/show_bug.cgi?id=1">bug 1</a><br /><a href="https://bugzilla.mozilla.org/show_bug.cgi?id=2">bug #2</a>`},
		{"no prefix", "bug 9 <b>", nil, "bug 9 &lt;b&gt;"},
		{"no reference", "debug output", prefix, "debug output"},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(bugLinks(tt.notes, tt.url)))
		})
	}
}

func TestSystemShow_LinksBugsInNotes(t *testing.T) {
	out := render(t, "system_show.html", map[string]interface{}{
		"system":    &models.System{ID: 8, Hostname: "db2.dc1", Notes: "racked for bug 4242"},
		"read_only": true,
		"bug_url":   "https://bugzilla.mozilla.org/show_bug.cgi?id=",
	})

	assert.Contains(t, out, `<a href="https://bugzilla.mozilla.org/show_bug.cgi?id=4242">bug 4242</a>`)
	assert.NotContains(t, out, "Report a bug")
}
