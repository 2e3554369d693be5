package handlers

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	ierr "tuition_go/errors"
	"tuition_go/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLinker struct {
	students map[string]*models.Student
	linked   map[string]string
}

func (f *fakeLinker) LinkParentLine(_ context.Context, roll, userID string) (*models.Student, error) {
	st, ok := f.students[roll]
	if !ok {
		return nil, ierr.NewErrorf("student %s not found", roll).Mark(ierr.ErrNotFound)
	}
	f.linked[roll] = userID
	st.ParentLineID = userID
	return st, nil
}

type fakeReplier struct {
	replies []string
}

func (f *fakeReplier) Enabled() bool { return true }

func (f *fakeReplier) Reply(_ string, message string) error {
	f.replies = append(f.replies, message)
	return nil
}

func newFixture() (*LineWebhookHandler, *fakeLinker, *fakeReplier) {
	linker := &fakeLinker{
		students: map[string]*models.Student{
			"R-1": {BaseModel: models.BaseModel{ID: 1}, Name: "Asha", RollNumber: "R-1"},
		},
		linked: map[string]string{},
	}
	replier := &fakeReplier{}
	return NewLineWebhookHandler("secret", linker, replier), linker, replier
}

func messageEvent(text string) string {
	return `{"events":[{"type":"message","replyToken":"tok","timestamp":1462629479859,` +
		`"source":{"type":"user","userId":"U123"},` +
		`"message":{"type":"text","id":"1","text":"` + text + `"}}]}`
}

func TestParseRegister(t *testing.T) {
	roll, ok := parseRegister("  register   R-7 ")
	assert.True(t, ok)
	assert.Equal(t, "R-7", roll)

	_, ok = parseRegister("REGISTER")
	assert.False(t, ok)
	_, ok = parseRegister("hello there")
	assert.False(t, ok)
}

func TestProcessEventsLinksParent(t *testing.T) {
	h, linker, replier := newFixture()

	require.NoError(t, h.processEvents(context.Background(), []byte(messageEvent("REGISTER R-1"))))

	assert.Equal(t, "U123", linker.linked["R-1"])
	require.Len(t, replier.replies, 1)
	assert.Contains(t, replier.replies[0], "Asha")
}

func TestProcessEventsUnknownRoll(t *testing.T) {
	h, linker, replier := newFixture()

	require.NoError(t, h.processEvents(context.Background(), []byte(messageEvent("REGISTER R-9"))))

	assert.Empty(t, linker.linked)
	require.Len(t, replier.replies, 1)
	assert.Contains(t, replier.replies[0], "R-9")
}

func TestProcessEventsIgnoresChatter(t *testing.T) {
	h, linker, replier := newFixture()

	require.NoError(t, h.processEvents(context.Background(), []byte(messageEvent("thanks"))))

	assert.Empty(t, linker.linked)
	assert.Empty(t, replier.replies)
}

func TestHandleRejectsBadSignature(t *testing.T) {
	h, _, _ := newFixture()
	app := fiber.New()
	app.Post("/line/webhook", h.Handle)

	body := messageEvent("REGISTER R-1")

	req := httptest.NewRequest("POST", "/line/webhook", strings.NewReader(body))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	req = httptest.NewRequest("POST", "/line/webhook", strings.NewReader(body))
	req.Header.Set("X-Line-Signature", "bogus")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest("POST", "/line/webhook", strings.NewReader(body))
	req.Header.Set("X-Line-Signature", computeSignature("secret", []byte(body)))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
