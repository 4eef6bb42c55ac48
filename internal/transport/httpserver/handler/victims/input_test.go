package victims

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"victim-aid-go/pkg/logger"
)

func multipartRequest(t *testing.T, fields map[string]string, file []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, value := range fields {
		require.NoError(t, mw.WriteField(name, value))
	}
	if file != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="acte_deces"; filename="acte.pdf"`)
		header.Set("Content-Type", "application/pdf")
		part, err := mw.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/victims", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func testHandlers(maxUpload int64) *Handlers {
	return &Handlers{maxUpload: maxUpload, log: logger.NewNop()}
}

func TestReadVictimFromJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/victims", strings.NewReader(
		`{"matricule":"mat-001","last_name":"Keita","first_name":"Awa","birth_date":"1980-04-02","death_date":null,"family_id":3}`,
	))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	input, attachment, cleanup, ok := testHandlers(0).readVictim(rec, req)
	require.True(t, ok)
	defer cleanup()

	assert.Nil(t, attachment)
	assert.Equal(t, "mat-001", input.Matricule)
	require.NotNil(t, input.BirthDate)
	assert.Equal(t, time.Date(1980, 4, 2, 0, 0, 0, 0, time.UTC), *input.BirthDate)
	assert.Nil(t, input.DeathDate)
	require.NotNil(t, input.FamilyID)
	assert.Equal(t, uint(3), *input.FamilyID)
}

func TestReadVictimFromMultipartWithCertificate(t *testing.T) {
	req := multipartRequest(t, map[string]string{
		"matricule":  "MAT-002",
		"last_name":  "Traore",
		"first_name": "Issa",
		"death_date": "2024-11-05",
	}, []byte("%PDF-1.4 certificate"))
	rec := httptest.NewRecorder()

	input, attachment, cleanup, ok := testHandlers(1024).readVictim(rec, req)
	require.True(t, ok, rec.Body.String())
	defer cleanup()

	assert.Equal(t, "Traore", input.LastName)
	require.NotNil(t, input.DeathDate)
	assert.Nil(t, input.FamilyID)

	require.NotNil(t, attachment)
	assert.Equal(t, "acte.pdf", attachment.Filename)
	assert.Equal(t, "application/pdf", attachment.ContentType)
	content, err := io.ReadAll(attachment.Body)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 certificate", string(content))
}

func TestReadVictimRejectsBadFormDates(t *testing.T) {
	req := multipartRequest(t, map[string]string{
		"matricule":  "MAT-003",
		"birth_date": "02/04/1980",
		"family_id":  "abc",
	}, nil)
	rec := httptest.NewRecorder()

	_, _, _, ok := testHandlers(1024).readVictim(rec, req)
	require.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var got struct {
		Errors map[string][]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Contains(t, got.Errors, "birth_date")
	assert.Contains(t, got.Errors, "family_id")
}

func TestReadVictimRejectsOversizedUpload(t *testing.T) {
	req := multipartRequest(t, map[string]string{"matricule": "MAT-004"}, bytes.Repeat([]byte("x"), 2*multipartOverhead))
	rec := httptest.NewRecorder()

	_, _, _, ok := testHandlers(10).readVictim(rec, req)
	require.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
