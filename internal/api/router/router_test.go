package router

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"testing"

	"ats-evaluator/internal/api/handler"
	"ats-evaluator/internal/processor"
	"ats-evaluator/internal/types"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEvaluator struct{ calls int }

func (s *stubEvaluator) Run(context.Context, processor.Request) ([]*types.Applicant, error) {
	s.calls++
	return []*types.Applicant{}, nil
}

func newServer(t *testing.T, keys []string) (*server.Hertz, *stubEvaluator) {
	t.Helper()
	eval := &stubEvaluator{}
	l := zerolog.Nop()
	srv := server.New(server.WithHostPorts("127.0.0.1:0"))
	RegisterRoutes(srv, Routes{
		Evaluation: handler.NewEvaluationHandler(eval, handler.WithLogger(&l)),
		APIKeys:    keys,
	})
	return srv, eval
}

func uploadBody(t *testing.T) (*bytes.Buffer, string) {
	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile(handler.FormFieldCVs, "a.txt")
	require.NoError(t, err)
	_, _ = part.Write([]byte("text"))
	require.NoError(t, w.WriteField(handler.FormFieldJobDescription, "jd"))
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestUploadRoutesShareHandler(t *testing.T) {
	srv, eval := newServer(t, nil)

	for _, path := range []string{"/api/routing/upload", "/api/v1/evaluations"} {
		body, ct := uploadBody(t)
		resp := ut.PerformRequest(srv.Engine, "POST", path,
			&ut.Body{Body: body, Len: body.Len()},
			ut.Header{Key: "Content-Type", Value: ct},
		)
		assert.Equal(t, http.StatusOK, resp.Code, path)
	}
	assert.Equal(t, 2, eval.calls)
}

func TestAPIKeyProtection(t *testing.T) {
	srv, eval := newServer(t, []string{"secret"})

	body, ct := uploadBody(t)
	resp := ut.PerformRequest(srv.Engine, "POST", "/api/v1/evaluations",
		&ut.Body{Body: body, Len: body.Len()},
		ut.Header{Key: "Content-Type", Value: ct},
	)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	body, ct = uploadBody(t)
	resp = ut.PerformRequest(srv.Engine, "POST", "/api/v1/evaluations",
		&ut.Body{Body: body, Len: body.Len()},
		ut.Header{Key: "Content-Type", Value: ct},
		ut.Header{Key: APIKeyHeader, Value: "wrong"},
	)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Zero(t, eval.calls)

	body, ct = uploadBody(t)
	resp = ut.PerformRequest(srv.Engine, "POST", "/api/v1/evaluations",
		&ut.Body{Body: body, Len: body.Len()},
		ut.Header{Key: "Content-Type", Value: ct},
		ut.Header{Key: APIKeyHeader, Value: "secret"},
	)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 1, eval.calls)
}

func TestHealthIsPublic(t *testing.T) {
	srv, _ := newServer(t, []string{"secret"})

	resp := ut.PerformRequest(srv.Engine, "GET", "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"status":"ok","ws_clients":0}`, resp.Body.String())
}

func TestAPIKeyMiddlewareDisabledWithoutKeys(t *testing.T) {
	assert.Nil(t, apiKeyMiddleware(nil))
	assert.Nil(t, apiKeyMiddleware([]string{""}))
	assert.NotNil(t, apiKeyMiddleware([]string{"k"}))
}
