package veriff

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pawsitter/backend/internal/config"
	"github.com/pawsitter/backend/internal/domain"
	"github.com/pawsitter/backend/pkg/hash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, baseURL string, timeout time.Duration) *Client {
	t.Helper()
	return NewClient(config.VeriffConfig{
		BaseURL:      baseURL,
		APIKey:       "api-key",
		SharedSecret: "shared-secret",
		CallbackURL:  "https://api.example.com/api/v1/verification/vendor-webhook",
		Country:      "PH",
		Timeout:      timeout,
	}, nil, zap.NewNop())
}

func TestMapDocumentType(t *testing.T) {
	assert.Equal(t, DocumentIDCard, MapDocumentType(domain.DocumentPHNationalID))
	assert.Equal(t, DocumentDriversLicense, MapDocumentType(domain.DocumentPHDriversLicense))
	assert.Equal(t, DocumentPassport, MapDocumentType(domain.DocumentPassport))
	assert.Equal(t, DocumentIDCard, MapDocumentType(domain.DocumentType("barangay_clearance")))
}

func TestToInternalDocumentType_CountryAware(t *testing.T) {
	assert.Equal(t, domain.DocumentPHNationalID, ToInternalDocumentType("ID_CARD", "PH"))
	assert.Equal(t, domain.DocumentNationalID, ToInternalDocumentType("ID_CARD", "SG"))
	assert.Equal(t, domain.DocumentPHPassport, ToInternalDocumentType("passport", "ph"))
	assert.Equal(t, domain.DocumentPassport, ToInternalDocumentType("PASSPORT", "US"))
	assert.Equal(t, domain.DocumentPHDriversLicense, ToInternalDocumentType("DRIVERS_LICENSE", "PH"))
	assert.Equal(t, domain.DocumentType(""), ToInternalDocumentType("RESIDENCE_PERMIT", "PH"))
}

func TestSameDocumentFamily(t *testing.T) {
	assert.True(t, SameDocumentFamily(domain.DocumentPHUMID, domain.DocumentPHNationalID))
	assert.True(t, SameDocumentFamily(domain.DocumentPHPassport, ""))
	assert.False(t, SameDocumentFamily(domain.DocumentPHDriversLicense, domain.DocumentPHPassport))
	assert.False(t, SameDocumentFamily(domain.DocumentPHPassport, domain.DocumentPassport))
}

func TestValidateSignature_TamperedBody(t *testing.T) {
	c := newTestClient(t, "http://unused", time.Second)
	body := []byte(`{"verification":{"id":"s1","status":"approved"}}`)
	sig := hash.NewHMACSHA256Signer("shared-secret").Sign(body)

	assert.True(t, c.ValidateSignature(body, sig))
	assert.False(t, c.ValidateSignature([]byte(`{"verification":{"id":"s1","status":"declined"}}`), sig))
}

func TestParseWebhook(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		wantStatus   domain.VerificationStatus
		wantCategory domain.RejectionCategory
		wantResubmit bool
		wantReason   string
	}{
		{
			name:       "approved",
			body:       `{"status":"success","verification":{"id":"s1","status":"approved","decisionScore":0.92,"document":{"type":"DRIVERS_LICENSE","country":"PH","number":"A12-34-567890"}}}`,
			wantStatus: domain.VerificationStatusApproved,
		},
		{
			name:         "declined fraud",
			body:         `{"verification":{"id":"s1","status":"declined","reasonCode":106}}`,
			wantStatus:   domain.VerificationStatusRejected,
			wantCategory: domain.RejectionSuspectedFraud,
			wantReason:   "Known fraud",
		},
		{
			name:         "declined expired document keeps vendor reason",
			body:         `{"verification":{"id":"s1","status":"declined","reasonCode":207,"reason":"Document is expired"}}`,
			wantStatus:   domain.VerificationStatusRejected,
			wantCategory: domain.RejectionDocumentExpired,
			wantResubmit: true,
			wantReason:   "Document is expired",
		},
		{
			name:         "resubmission requested",
			body:         `{"verification":{"id":"s1","status":"resubmission_requested"}}`,
			wantStatus:   domain.VerificationStatusRejected,
			wantCategory: domain.RejectionPoorImageQuality,
			wantResubmit: true,
			wantReason:   "Resubmission requested by identity verification provider",
		},
		{
			name:         "expired",
			body:         `{"verification":{"id":"s1","status":"expired"}}`,
			wantStatus:   domain.VerificationStatusRejected,
			wantCategory: domain.RejectionSessionExpired,
			wantResubmit: true,
			wantReason:   "Verification session expired",
		},
		{
			name:       "review is not final",
			body:       `{"verification":{"id":"s1","status":"review"}}`,
			wantStatus: domain.VerificationStatusPending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseWebhook([]byte(tt.body))
			require.NoError(t, err)

			assert.Equal(t, "s1", d.SessionID)
			assert.Equal(t, tt.wantStatus, d.Status)
			assert.Equal(t, tt.wantCategory, d.RejectionCategory)
			assert.Equal(t, tt.wantResubmit, d.AllowResubmission)
			assert.Equal(t, tt.wantReason, d.Reason)
		})
	}
}

func TestParseWebhook_NormalizesDocumentAndScore(t *testing.T) {
	d, err := ParseWebhook([]byte(`{"verification":{"id":"s1","status":"approved","decisionScore":0.92,"person":{"firstName":"Juan"},"document":{"type":"ID_CARD","country":"ph","number":"1234-5678901-2"}}}`))
	require.NoError(t, err)

	assert.Equal(t, domain.DocumentPHNationalID, d.DocumentType)
	assert.Equal(t, "PH", d.DocumentCountry)
	require.NotNil(t, d.Score)
	assert.InDelta(t, 92.0, *d.Score, 0.001)
	assert.Contains(t, d.ExtractedData, "person")
	assert.Contains(t, d.ExtractedData, "document")
	assert.True(t, d.IsFinal())
}

func TestParseWebhook_DecisionScoreIsAFraction(t *testing.T) {
	tests := []struct {
		name  string
		score string
		want  float64
	}{
		{"full confidence", "1", 100},
		{"fraction", "0.75", 75},
		{"zero", "0", 0},
		{"above range is clamped", "1.4", 100},
		{"negative is clamped", "-0.2", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseWebhook([]byte(`{"verification":{"id":"s1","status":"approved","decisionScore":` + tt.score + `}}`))
			require.NoError(t, err)
			require.NotNil(t, d.Score)
			assert.InDelta(t, tt.want, *d.Score, 0.001)
		})
	}

	d, err := ParseWebhook([]byte(`{"verification":{"id":"s1","status":"approved"}}`))
	require.NoError(t, err)
	assert.Nil(t, d.Score)
}

func TestParseWebhook_Malformed(t *testing.T) {
	for _, body := range []string{
		`not json`,
		`{"status":"success"}`,
		`{"verification":{"status":"approved"}}`,
		`{"verification":{"id":"s1","status":"teleported"}}`,
	} {
		_, err := ParseWebhook([]byte(body))
		assert.ErrorIs(t, err, ErrMalformedPayload, body)
	}
}

func TestClient_CreateSession(t *testing.T) {
	userID := uuid.New()
	var got sessionPayload

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/sessions", r.URL.Path)
		assert.Equal(t, "api-key", r.Header.Get(headerAuthClient))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","verification":{"id":"sess-1","url":"https://magic.veriff.me/v/abc","sessionToken":"tok"}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, time.Second)

	session, err := c.CreateSession(context.Background(), SessionRequest{
		UserID:       userID,
		FirstName:    "Juan",
		LastName:     "Dela Cruz",
		DocumentType: domain.DocumentPHDriversLicense,
		IDNumber:     "A12-34-567890",
	})
	require.NoError(t, err)

	assert.Equal(t, "sess-1", session.ID)
	assert.Equal(t, "https://magic.veriff.me/v/abc", session.URL)
	assert.Equal(t, DocumentDriversLicense, got.Verification.Document.Type)
	assert.Equal(t, "PH", got.Verification.Document.Country)
	assert.Equal(t, userID.String(), got.Verification.VendorData)
	assert.Equal(t, "Juan", got.Verification.Person.FirstName)
	assert.Contains(t, got.Verification.Callback, "/vendor-webhook")
}

func TestClient_CreateSession_VendorUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, time.Second).CreateSession(context.Background(), SessionRequest{UserID: uuid.New()})

	assert.ErrorIs(t, err, ErrVendorUnavailable)
}

func TestClient_CreateSession_TimeoutIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(500 * time.Millisecond):
		}
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, 50*time.Millisecond).CreateSession(context.Background(), SessionRequest{UserID: uuid.New()})

	assert.ErrorIs(t, err, ErrVendorUnavailable)
}

func TestClient_GetDecision_Signed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/sessions/sess-1/decision", r.URL.Path)
		assert.Equal(t, hash.NewHMACSHA256Signer("shared-secret").Sign([]byte("sess-1")), r.Header.Get(headerSignature))
		_, _ = w.Write([]byte(`{"status":"success","verification":{"id":"sess-1","status":"approved","decisionScore":0.88}}`))
	}))
	defer srv.Close()

	d, err := newTestClient(t, srv.URL, time.Second).GetDecision(context.Background(), "sess-1")
	require.NoError(t, err)

	assert.Equal(t, domain.VerificationStatusApproved, d.Status)
	assert.InDelta(t, 88.0, *d.Score, 0.001)
}

func TestClient_GetDecision_NoDecisionYet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"success","verification":null}`))
	}))
	defer srv.Close()

	d, err := newTestClient(t, srv.URL, time.Second).GetDecision(context.Background(), "sess-1")
	require.NoError(t, err)

	assert.False(t, d.IsFinal())
}
