package imagegen

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, status int, body string, captured *openai.ImageRequest) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/images/generations", r.URL.Path)
		if captured != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestEnhancePrompt(t *testing.T) {
	withCtx := EnhancePrompt("Anuncie uma promoção de fim de semana", "Padaria Sol, segment Bakery")
	assert.Contains(t, withCtx, "Anuncie uma promoção de fim de semana")
	assert.Contains(t, withCtx, styleDirective)
	assert.Contains(t, withCtx, "Client profile: Padaria Sol, segment Bakery")

	without := EnhancePrompt("New menu item", "  ")
	assert.Contains(t, without, styleDirective)
	assert.NotContains(t, without, "Client profile")
}

func TestGenerate_Success(t *testing.T) {
	var captured openai.ImageRequest
	ts := newTestServer(t, http.StatusOK,
		`{"created":1700000000,"data":[{"url":"https://img/x.png"}]}`, &captured)

	g := NewGateway("test-key", ts.URL+"/v1", nil)
	res, err := g.Generate(context.Background(), Request{Prompt: "Weekend promo", ProfileContext: "Padaria Sol"})
	require.NoError(t, err)

	assert.Equal(t, "https://img/x.png", res.ImageURL)
	assert.Equal(t, "Weekend promo", res.Prompt)
	assert.Equal(t, EnhancePrompt("Weekend promo", "Padaria Sol"), res.EnhancedPrompt)
	assert.False(t, res.GeneratedAt.IsZero())

	assert.Equal(t, res.EnhancedPrompt, captured.Prompt)
	assert.Equal(t, openai.CreateImageModelDallE3, captured.Model)
	assert.Equal(t, 1, captured.N)
	assert.Equal(t, openai.CreateImageSize1024x1024, captured.Size)
	assert.Equal(t, openai.CreateImageQualityStandard, captured.Quality)
	assert.Equal(t, openai.CreateImageStyleNatural, captured.Style)
}

func TestGenerate_InputAndConfigErrors(t *testing.T) {
	g := NewGateway("", "", nil)

	_, err := g.Generate(context.Background(), Request{Prompt: "   "})
	assert.ErrorIs(t, err, ErrMissingPrompt)

	_, err = g.Generate(context.Background(), Request{Prompt: "Weekend promo"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(err))
}

func TestGenerate_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantErr    error
		wantStatus int
	}{
		{
			name:       "bad prompt",
			status:     http.StatusBadRequest,
			body:       `{"error":{"message":"prompt too long","type":"invalid_request_error"}}`,
			wantErr:    ErrRejected,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "bad key",
			status:     http.StatusUnauthorized,
			body:       `{"error":{"message":"Incorrect API key","type":"invalid_request_error"}}`,
			wantErr:    ErrUnauthorized,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "rate limited",
			status:     http.StatusTooManyRequests,
			body:       `{"error":{"message":"Rate limit reached","type":"requests"}}`,
			wantErr:    ErrRateLimited,
			wantStatus: http.StatusTooManyRequests,
		},
		{
			name:       "server error",
			status:     http.StatusBadGateway,
			body:       `upstream unavailable`,
			wantErr:    ErrUpstream,
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "empty result",
			status:     http.StatusOK,
			body:       `{"created":1700000000,"data":[]}`,
			wantErr:    ErrEmptyResult,
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, tt.status, tt.body, nil)
			g := NewGateway("test-key", ts.URL+"/v1", nil)

			res, err := g.Generate(context.Background(), Request{Prompt: "Weekend promo"})
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantStatus, HTTPStatus(err))
			assert.NotEmpty(t, Message(err))
		})
	}
}

type countingClient struct {
	calls int
	err   error
}

func (c *countingClient) CreateImage(ctx context.Context, req openai.ImageRequest) (openai.ImageResponse, error) {
	c.calls++
	return openai.ImageResponse{}, c.err
}

func TestGenerate_SingleAttempt(t *testing.T) {
	client := &countingClient{err: errors.New("connection refused")}
	g := NewGatewayWithClient(client, nil)

	_, err := g.Generate(context.Background(), Request{Prompt: "Weekend promo"})
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Equal(t, 1, client.calls)
}
