package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeToken(t *testing.T) {
	expiry := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name    string
		data    string
		want    string
		expiry  time.Time
		wantErr bool
	}{
		{
			name:   "json",
			data:   `{"access_token":"abc","token_type":"Bearer","refresh_token":"r","expiry":"2030-01-02T03:04:05Z"}`,
			want:   "abc",
			expiry: expiry,
		},
		{
			name:   "yaml",
			data:   "access_token: def\ntoken_type: Bearer\nexpiry: \"2030-01-02T03:04:05Z\"\n",
			want:   "def",
			expiry: expiry,
		},
		{
			name: "no expiry",
			data: `{"access_token":"xyz"}`,
			want: "xyz",
		},
		{
			name:    "missing access token",
			data:    `{"token_type":"Bearer"}`,
			wantErr: true,
		},
		{
			name:    "malformed",
			data:    "access_token: [",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := DecodeToken([]byte(tt.data))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, token.AccessToken)
			assert.True(t, tt.expiry.Equal(token.Expiry), "expiry %v, want %v", token.Expiry, tt.expiry)
		})
	}
}

func TestReadToken(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadToken(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{}`), 0600))
	_, err = ReadToken(empty)
	assert.ErrorIs(t, err, ErrEmptyToken)
	assert.Contains(t, err.Error(), empty)

	valid := filepath.Join(dir, "token.json")
	require.NoError(t, os.WriteFile(valid, []byte(`{"access_token":"abc"}`), 0600))
	token, err := ReadToken(valid)
	require.NoError(t, err)
	assert.Equal(t, "abc", token.AccessToken)
}
