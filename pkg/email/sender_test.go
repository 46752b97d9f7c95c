package email

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateBodyFromHTML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hello.html"), []byte(`<p>Hi {{.Name}}</p>`), 0o600))

	in := SendEmailInput{To: "sitter@example.com", Subject: "Hello"}
	require.NoError(t, in.GenerateBodyFromHTML(dir, "hello.html", struct{ Name string }{"<Ana>"}))

	assert.Equal(t, "<p>Hi &lt;Ana&gt;</p>", in.Body)
	assert.NoError(t, in.Validate())
}

func TestSendEmailInput_Validate(t *testing.T) {
	tests := []struct {
		name  string
		input SendEmailInput
		ok    bool
	}{
		{name: "complete", input: SendEmailInput{To: "a@example.com", Subject: "s", Body: "b"}, ok: true},
		{name: "no recipient", input: SendEmailInput{Subject: "s", Body: "b"}},
		{name: "no body", input: SendEmailInput{To: "a@example.com", Subject: "s"}},
		{name: "bad address", input: SendEmailInput{To: "not-an-email", Subject: "s", Body: "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
