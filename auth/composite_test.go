package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

func TestCompositeAuthenticator(t *testing.T) {
	keys := NewMemoryAPIKeyStore()
	keys.AddKey("svc", "k1", RoleReader)
	c := NewCompositeAuthenticator(
		NewJWTAuthenticator(JWTConfig{Secret: testSecret}),
		NewAPIKeyAuthenticator(keys),
	)

	tests := []struct {
		name       string
		headers    map[string]string
		wantAuthed bool
		wantErr    error
	}{
		{name: "api key", headers: map[string]string{APIKeyHeader: "k1"}, wantAuthed: true},
		{name: "nothing", wantErr: ErrMissingCredentials},
		{name: "bad bearer", headers: map[string]string{"Authorization": "Bearer x.y.z"}, wantErr: ErrTokenMalformed},
		{
			name: "bad bearer then good key",
			headers: map[string]string{
				"Authorization": "Bearer x.y.z",
				APIKeyHeader:    "k1",
			},
			wantAuthed: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			for k, v := range tt.headers {
				h.Set(k, v)
			}
			res, err := c.Authenticate(context.Background(), &AuthRequest{Headers: h})
			if err != nil {
				t.Fatalf("Authenticate() error = %v", err)
			}
			if res.Authenticated != tt.wantAuthed {
				t.Fatalf("Authenticated = %v, want %v (err %v)", res.Authenticated, tt.wantAuthed, res.Error)
			}
			if tt.wantErr != nil && !errors.Is(res.Error, tt.wantErr) {
				t.Errorf("Error = %v, want %v", res.Error, tt.wantErr)
			}
		})
	}
}
