package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"slices"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RadityaWisnuHerdinanto/FinalProjectMajuBarengAI/internal/config"
	"github.com/RadityaWisnuHerdinanto/FinalProjectMajuBarengAI/internal/model/chat"
	chatservice "github.com/RadityaWisnuHerdinanto/FinalProjectMajuBarengAI/internal/service/chat"
	"github.com/RadityaWisnuHerdinanto/FinalProjectMajuBarengAI/internal/service/tutor"
)

type fakeModel struct {
	reply string
	err   error
	turns []chat.Turn
	calls int
}

func (m *fakeModel) Reply(_ context.Context, turns []chat.Turn) (string, error) {
	m.calls++
	m.turns = turns
	return m.reply, m.err
}

var testUpload = config.UploadConfig{
	MaxImageBytes: 1024,
	AllowedTypes:  []string{"image/jpeg", "image/png", "image/jpg", "image/webp", "image/gif"},
}

func setupRouter(model *fakeModel) (*chi.Mux, *chatservice.Service) {
	sessions := chatservice.NewService()
	handler := New(tutor.NewService(sessions, model), testUpload)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, sessions
}

func postJSON(t *testing.T, r http.Handler, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	return resp, out
}

type imagePart struct {
	filename    string
	contentType string
	data        []byte
}

func postMultipart(t *testing.T, r http.Handler, fields map[string]string, image *imagePart) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if image != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="image"; filename="`+image.filename+`"`)
		header.Set("Content-Type", image.contentType)
		part, err := mw.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(image.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/chat-with-image", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	return resp, out
}

func TestChatWithSession(t *testing.T) {
	model := &fakeModel{reply: "Pecahan adalah bagian dari keseluruhan. Menurutmu 1/2 itu apa?"}
	r, sessions := setupRouter(model)
	s := sessions.CreateSession(context.Background())

	resp, body := postJSON(t, r, "/chat", `{"sessionId":"`+s.ID+`","message":"Apa itu pecahan?"}`)
	require.Equal(t, http.StatusOK, resp.Code)

	assert.Equal(t, true, body["success"])
	assert.Equal(t, s.ID, body["sessionId"])
	assert.Equal(t, model.reply, body["result"])
	assert.EqualValues(t, 1, body["messageCount"])
	assert.NotContains(t, body, "hasImage")
}

func TestChatValidation(t *testing.T) {
	model := &fakeModel{reply: "ok"}
	r, sessions := setupRouter(model)
	s := sessions.CreateSession(context.Background())

	cases := []struct {
		name   string
		body   string
		status int
		errMsg string
	}{
		{"malformed", `{"sessionId":`, http.StatusBadRequest, "invalid request body"},
		{"empty object", `{}`, http.StatusBadRequest, "Kirim dengan format: { sessionId, message } atau { conversation: [...] }"},
		{"missing message", `{"sessionId":"` + s.ID + `"}`, http.StatusBadRequest, "sessionId dan message wajib diisi"},
		{"blank message", `{"sessionId":"` + s.ID + `","message":"   "}`, http.StatusBadRequest, "message tidak boleh kosong"},
		{"unknown session", `{"sessionId":"nope","message":"halo"}`, http.StatusNotFound, "Session tidak ditemukan"},
		{"conversation not array", `{"conversation":{"role":"user"}}`, http.StatusBadRequest, "conversation harus berupa array"},
		{"conversation bad role", `{"conversation":[{"role":"system","text":"x"}]}`, http.StatusBadRequest, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := postJSON(t, r, "/chat", tc.body)
			assert.Equal(t, tc.status, resp.Code)
			assert.Equal(t, false, body["success"])
			if tc.errMsg != "" {
				assert.Equal(t, tc.errMsg, body["error"])
			}
		})
	}
	assert.Zero(t, model.calls)
}

func TestChatRejectsOversizedBody(t *testing.T) {
	model := &fakeModel{reply: "ok"}
	r, sessions := setupRouter(model)
	s := sessions.CreateSession(context.Background())

	huge := strings.Repeat("a", maxJSONBody)
	resp, body := postJSON(t, r, "/chat", `{"sessionId":"`+s.ID+`","message":"`+huge+`"}`)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "request body terlalu besar, maksimal 10MB", body["error"])
	assert.Zero(t, model.calls)

	got, err := sessions.GetSession(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Transcript)
}

func TestChatModelFailure(t *testing.T) {
	model := &fakeModel{err: errors.New("quota exceeded")}
	r, sessions := setupRouter(model)
	s := sessions.CreateSession(context.Background())

	resp, body := postJSON(t, r, "/chat", `{"sessionId":"`+s.ID+`","message":"halo"}`)
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Equal(t, "quota exceeded", body["error"])
}

func TestChatLegacyConversation(t *testing.T) {
	model := &fakeModel{reply: "Fotosintesis adalah..."}
	r, sessions := setupRouter(model)
	sessions.CreateSession(context.Background())

	resp, body := postJSON(t, r, "/chat", `{"conversation":[{"role":"user","text":"Halo"},{"role":"model","text":"Hai!"},{"role":"user","text":"Apa itu fotosintesis?"}]}`)
	require.Equal(t, http.StatusOK, resp.Code)

	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Fotosintesis adalah...", body["result"])
	require.Len(t, model.turns, 3)
	assert.Equal(t, 1, sessions.Count())
	for _, summary := range sessions.ListSessions(context.Background()) {
		assert.Zero(t, summary.MessageCount)
	}
}

func TestChatSessionFormWinsOverConversation(t *testing.T) {
	model := &fakeModel{reply: "ok"}
	r, sessions := setupRouter(model)
	s := sessions.CreateSession(context.Background())

	resp, body := postJSON(t, r, "/chat", `{"sessionId":"`+s.ID+`","message":"halo","conversation":[]}`)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.EqualValues(t, 1, body["messageCount"])
}

func TestChatWithImage(t *testing.T) {
	model := &fakeModel{reply: "Itu segitiga."}
	r, sessions := setupRouter(model)
	s := sessions.CreateSession(context.Background())

	resp, body := postMultipart(t, r,
		map[string]string{"sessionId": s.ID, "message": "Bentuk apa ini?"},
		&imagePart{filename: "soal.jpg", contentType: "image/jpg", data: []byte{0xff, 0xd8, 0xff}},
	)
	require.Equal(t, http.StatusOK, resp.Code)

	assert.Equal(t, true, body["hasImage"])
	assert.Equal(t, "Itu segitiga.", body["result"])
	assert.EqualValues(t, 1, body["messageCount"])

	require.Len(t, model.turns, 1)
	sent := model.turns[0].Content
	assert.Equal(t, "Bentuk apa ini?", sent.Text)
	require.NotNil(t, sent.Image)
	assert.Equal(t, "image/jpeg", sent.Image.MIMEType)
	assert.Equal(t, []byte{0xff, 0xd8, 0xff}, sent.Image.Data)
}

func TestChatWithImageImageOnly(t *testing.T) {
	model := &fakeModel{reply: "ok"}
	r, sessions := setupRouter(model)
	s := sessions.CreateSession(context.Background())

	resp, _ := postMultipart(t, r,
		map[string]string{"sessionId": s.ID},
		&imagePart{filename: "a.png", contentType: "image/png", data: []byte{0x89}},
	)
	require.Equal(t, http.StatusOK, resp.Code)

	got, err := sessions.GetSession(context.Background(), s.ID)
	require.NoError(t, err)
	entries := slices.Collect(got.History())
	require.Len(t, entries, 2)
	assert.Equal(t, chat.MediaPlaceholder, entries[0].Text)
}

func TestChatWithImageRejections(t *testing.T) {
	model := &fakeModel{reply: "ok"}
	r, sessions := setupRouter(model)
	s := sessions.CreateSession(context.Background())

	cases := []struct {
		name   string
		fields map[string]string
		image  *imagePart
		errMsg string
	}{
		{"missing image", map[string]string{"sessionId": s.ID, "message": "lihat"}, nil, "Gambar tidak ditemukan"},
		{"missing session", map[string]string{"message": "lihat"}, &imagePart{"a.png", "image/png", []byte{1}}, "sessionId wajib diisi"},
		{"wrong type", map[string]string{"sessionId": s.ID}, &imagePart{"a.pdf", "application/pdf", []byte{1}}, "Hanya file gambar yang diperbolehkan!"},
		{"too large", map[string]string{"sessionId": s.ID}, &imagePart{"a.png", "image/png", bytes.Repeat([]byte{1}, 2048)}, "Ukuran gambar maksimal 1KB"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := postMultipart(t, r, tc.fields, tc.image)
			assert.Equal(t, http.StatusBadRequest, resp.Code)
			assert.Equal(t, tc.errMsg, body["error"])
		})
	}

	assert.Zero(t, model.calls)
	got, err := sessions.GetSession(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Transcript)
}

func TestChatWithImageUnknownSession(t *testing.T) {
	r, _ := setupRouter(&fakeModel{reply: "ok"})

	resp, _ := postMultipart(t, r,
		map[string]string{"sessionId": "nope"},
		&imagePart{"a.png", "image/png", []byte{1}},
	)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestChatWithImageNotMultipart(t *testing.T) {
	r, _ := setupRouter(&fakeModel{reply: "ok"})

	resp, body := postJSON(t, r, "/chat-with-image", `{"sessionId":"x"}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, false, body["success"])
}
