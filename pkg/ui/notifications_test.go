package ui

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingSender struct {
	titles   []string
	messages []string
	err      error
}

func (r *recordingSender) Send(title, message string) error {
	r.titles = append(r.titles, title)
	r.messages = append(r.messages, message)
	return r.err
}

func TestNotifierSendsWhenEnabled(t *testing.T) {
	sender := &recordingSender{}
	var out bytes.Buffer
	n := NewNotifierWithSender(sender, &out, true)

	n.NotifyRunFinished("42", 155, "users_42.txt")

	assert.Equal(t, []string{"Collection complete"}, sender.titles)
	assert.Contains(t, sender.messages[0], "155 unique users")
	assert.Contains(t, out.String(), "users_42.txt")
}

func TestNotifierConsoleOnlyWhenDisabled(t *testing.T) {
	sender := &recordingSender{}
	var out bytes.Buffer
	n := NewNotifierWithSender(sender, &out, false)

	n.NotifyRunFailed("42", errors.New("disk full"))

	assert.Empty(t, sender.titles)
	assert.Contains(t, out.String(), "disk full")
}

func TestNotifierIgnoresSenderErrors(t *testing.T) {
	sender := &recordingSender{err: errors.New("no notify-send")}
	n := NewNotifierWithSender(sender, &bytes.Buffer{}, true)

	assert.NotPanics(t, func() { n.SendNotification("title", "message") })
	assert.Len(t, sender.titles, 1)
}

func TestXMLEscape(t *testing.T) {
	assert.Equal(t, "a &lt;b&gt; &amp; c", xmlEscape("a <b> & c"))
}

func TestNotifyRunStopped(t *testing.T) {
	sender := &recordingSender{}
	var out bytes.Buffer
	n := NewNotifierWithSender(sender, &out, true)

	n.NotifyRunStopped("42", 7, "users_42.txt")

	assert.Equal(t, []string{"Collection stopped"}, sender.titles)
	assert.Contains(t, sender.messages[0], "7 unique users saved to users_42.txt")
	assert.Contains(t, out.String(), "Collection stopped")
}
