package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"testing"
	"time"

	"ats-evaluator/internal/processor"
	"ats-evaluator/internal/types"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEvaluator struct {
	calls       int
	req         processor.Request
	hasDeadline bool
	result      []*types.Applicant
	err         error
}

func (f *fakeEvaluator) Run(ctx context.Context, req processor.Request) ([]*types.Applicant, error) {
	f.calls++
	f.req = req
	_, f.hasDeadline = ctx.Deadline()
	return f.result, f.err
}

type fakeFetcher struct {
	keys []string
	err  error
}

func (f *fakeFetcher) FetchDocuments(_ context.Context, keys []string) ([]types.Document, error) {
	f.keys = keys
	if f.err != nil {
		return nil, f.err
	}
	docs := make([]types.Document, 0, len(keys))
	for _, k := range keys {
		docs = append(docs, types.Document{Name: k, Data: []byte("remote " + k)})
	}
	return docs, nil
}

type formFile struct {
	name    string
	content string
}

// buildForm 构造 multipart 表单
func buildForm(t *testing.T, files []formFile, fields map[string][]string) (*bytes.Buffer, string) {
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	for _, f := range files {
		part, err := writer.CreateFormFile(FormFieldCVs, f.name)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.content))
		require.NoError(t, err)
	}
	for k, values := range fields {
		for _, v := range values {
			require.NoError(t, writer.WriteField(k, v))
		}
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func newTestServer(h *EvaluationHandler) *server.Hertz {
	srv := server.New(server.WithHostPorts("127.0.0.1:0"))
	srv.POST("/upload", h.HandleUpload)
	return srv
}

func newTestHandler(eval Evaluator, opts ...Option) *EvaluationHandler {
	l := zerolog.Nop()
	opts = append([]Option{WithLogger(&l)}, opts...)
	h := NewEvaluationHandler(eval, opts...)
	h.newRunID = func() (string, error) { return "run-test", nil }
	return h
}

func perform(srv *server.Hertz, body *bytes.Buffer, contentType string) *ut.ResponseRecorder {
	return ut.PerformRequest(srv.Engine, "POST", "/upload",
		&ut.Body{Body: body, Len: body.Len()},
		ut.Header{Key: "Content-Type", Value: contentType},
	)
}

func TestHandleUpload_Success(t *testing.T) {
	eval := &fakeEvaluator{result: []*types.Applicant{
		{CV: types.CV{Name: "Jane Doe"}, Source: "jane.pdf", Scores: types.ApplicantScore{FinalScore: 74}},
	}}
	srv := newTestServer(newTestHandler(eval))

	body, ct := buildForm(t,
		[]formFile{{"jane.pdf", "%PDF jane"}, {"john.txt", "john"}, {"empty.pdf", ""}},
		map[string][]string{
			FormFieldJobDescription: {"Senior Go engineer"},
			FormFieldConnectionID:   {"conn-1"},
		})
	resp := perform(srv, body, ct)

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	require.Equal(t, 1, eval.calls)
	assert.True(t, eval.hasDeadline, "流水线应在超时上下文中运行")
	assert.Equal(t, "run-test", eval.req.RunID)
	assert.Equal(t, "conn-1", eval.req.SessionID)
	assert.Equal(t, "Senior Go engineer", eval.req.JobDescription)
	require.Len(t, eval.req.Documents, 2, "空文件应被忽略")
	assert.Equal(t, "jane.pdf", eval.req.Documents[0].Name)
	assert.Equal(t, []byte("%PDF jane"), eval.req.Documents[0].Data)

	var got []types.Applicant
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Jane Doe", got[0].CV.Name)
	assert.Equal(t, 74.0, got[0].Scores.FinalScore)
}

func TestHandleUpload_EmptyResultIsArray(t *testing.T) {
	srv := newTestServer(newTestHandler(&fakeEvaluator{}))
	body, ct := buildForm(t, []formFile{{"a.txt", "a"}}, map[string][]string{FormFieldJobDescription: {"jd"}})

	resp := perform(srv, body, ct)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `[]`, resp.Body.String())
}

func TestHandleUpload_NoFiles(t *testing.T) {
	eval := &fakeEvaluator{}
	srv := newTestServer(newTestHandler(eval))

	body, ct := buildForm(t, nil, map[string][]string{FormFieldJobDescription: {"jd"}})
	resp := perform(srv, body, ct)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), msgNoFiles)
	assert.Zero(t, eval.calls)
}

func TestHandleUpload_NotMultipart(t *testing.T) {
	srv := newTestServer(newTestHandler(&fakeEvaluator{}))
	body := bytes.NewBufferString(`{"jobDescription":"jd"}`)

	resp := perform(srv, body, "application/json")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), msgNoFiles)
}

func TestHandleUpload_BlankJobDescription(t *testing.T) {
	eval := &fakeEvaluator{}
	srv := newTestServer(newTestHandler(eval))

	body, ct := buildForm(t, []formFile{{"a.txt", "a"}}, map[string][]string{FormFieldJobDescription: {"   "}})
	resp := perform(srv, body, ct)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), msgEmptyJD)
	assert.Zero(t, eval.calls)
}

func TestHandleUpload_ObjectKeys(t *testing.T) {
	eval := &fakeEvaluator{}
	fetcher := &fakeFetcher{}
	srv := newTestServer(newTestHandler(eval, WithDocumentFetcher(fetcher)))

	body, ct := buildForm(t, []formFile{{"local.txt", "local"}}, map[string][]string{
		FormFieldJobDescription: {"jd"},
		FormFieldObjectKeys:     {"cvs/a.pdf", " ", "cvs/b.pdf"},
	})
	resp := perform(srv, body, ct)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, []string{"cvs/a.pdf", "cvs/b.pdf"}, fetcher.keys)
	require.Len(t, eval.req.Documents, 3)
	assert.Equal(t, "local.txt", eval.req.Documents[0].Name)
	assert.Equal(t, "cvs/b.pdf", eval.req.Documents[2].Name)
}

func TestHandleUpload_ObjectKeysWithoutStorage(t *testing.T) {
	eval := &fakeEvaluator{}
	srv := newTestServer(newTestHandler(eval))

	body, ct := buildForm(t, nil, map[string][]string{
		FormFieldJobDescription: {"jd"},
		FormFieldObjectKeys:     {"cvs/a.pdf"},
	})
	resp := perform(srv, body, ct)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "object storage is not configured")
	assert.Zero(t, eval.calls)
}

func TestHandleUpload_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"keyword extraction", fmt.Errorf("%w: bad json", processor.ErrKeywordExtraction), http.StatusBadRequest},
		{"validation", &processor.EvaluationError{Stage: "validation", Err: processor.ErrEmptyJobDescription}, http.StatusBadRequest},
		{"timeout", &processor.EvaluationError{Stage: processor.StageEvaluation, Err: context.DeadlineExceeded}, http.StatusGatewayTimeout},
		{"canceled", context.Canceled, http.StatusBadRequest},
		{"keyword timeout", fmt.Errorf("%w: %w", processor.ErrKeywordExtraction, context.DeadlineExceeded), http.StatusGatewayTimeout},
		{
			"section evaluation exhausted",
			&processor.EvaluationError{Stage: processor.StageEvaluation, Category: "skills", Err: fmt.Errorf("%w: %w", processor.ErrSectionEvaluation, processor.ErrNameMismatch)},
			http.StatusInternalServerError,
		},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(newTestHandler(&fakeEvaluator{err: tt.err}))
			body, ct := buildForm(t, []formFile{{"a.txt", "a"}}, map[string][]string{FormFieldJobDescription: {"jd"}})

			resp := perform(srv, body, ct)
			assert.Equal(t, tt.status, resp.Code)

			var payload map[string]string
			require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payload))
			assert.Equal(t, tt.err.Error(), payload["error"])
		})
	}
}

func TestWithRunTimeoutIgnoresNonPositive(t *testing.T) {
	h := NewEvaluationHandler(&fakeEvaluator{}, WithRunTimeout(0))
	assert.Equal(t, DefaultRunTimeout, h.runTimeout)

	h = NewEvaluationHandler(&fakeEvaluator{}, WithRunTimeout(time.Minute))
	assert.Equal(t, time.Minute, h.runTimeout)
}
