// Package httplog records failed outbound HTTP calls in the log store.
package httplog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/GoPolymarket/logkeep/internal/middleware"
	"github.com/GoPolymarket/logkeep/internal/model"
	"github.com/GoPolymarket/logkeep/internal/pkg/logger"
	"github.com/GoPolymarket/logkeep/internal/pkg/metrics"
	"github.com/GoPolymarket/logkeep/internal/pkg/outcome"
)

const DefaultTag = "Http"

// Transport wraps an http.RoundTripper. Transport errors and responses with
// status >= 400 are appended to the store with their HTTP context; the
// caller still gets the original response or error.
type Transport struct {
	Base     http.RoundTripper
	Recorder middleware.Recorder
	Tag      string
}

func NewTransport(base http.RoundTripper, rec middleware.Recorder) *Transport {
	return &Transport{Base: base, Recorder: rec, Tag: DefaultTag}
}

// NewClient returns an http.Client whose transport records failures.
func NewClient(rec middleware.Recorder) *http.Client {
	return &http.Client{Transport: NewTransport(http.DefaultTransport, rec)}
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *Transport) tag() string {
	if t.Tag != "" {
		return t.Tag
	}
	return DefaultTag
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	var reqBody []byte
	if req.Body != nil && req.GetBody != nil {
		if body, err := req.GetBody(); err == nil {
			reqBody, _ = io.ReadAll(io.LimitReader(body, middleware.MaxCapturedBody+1))
			body.Close()
		}
	}

	fut := outcome.Go(func() (*http.Response, error) {
		return t.base().RoundTrip(req)
	})
	res := outcome.Await[*http.Response](req.Context(), outcome.Wrap(fut))
	if res.Failed() {
		if req.Context().Err() != nil {
			go closeLateResponse(fut)
		}
		switch {
		case errors.Is(res.Err, context.Canceled):
			// The caller gave up; nothing failed upstream.
		case errors.Is(res.Err, context.DeadlineExceeded):
			t.recordTransportError(req, reqBody, res.Err, model.LevelWarn, "timeout")
		default:
			t.recordTransportError(req, reqBody, res.Err, model.LevelError, "transport")
		}
		return nil, res.Err
	}

	resp := res.Data
	if resp.StatusCode >= http.StatusBadRequest {
		t.recordStatus(req, resp)
	}
	return resp, nil
}

// closeLateResponse waits for a round trip the caller no longer waits on and
// closes its body so the connection is released.
func closeLateResponse(fut *outcome.Future[*http.Response]) {
	<-fut.Done()
	resp, err := fut.Await(context.Background())
	if err == nil && resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
}

func (t *Transport) recordTransportError(req *http.Request, reqBody []byte, err error, level model.Level, kind string) {
	metrics.InterceptedFailures.WithLabelValues(kind).Inc()
	httpCtx := &model.HTTPContext{
		Method:     req.Method,
		URL:        req.URL.String(),
		StatusText: err.Error(),
		Headers:    middleware.RedactHeaders(req.Header),
		Body:       middleware.RedactBody(reqBody),
	}
	msg := fmt.Sprintf("%s %s failed: %v", req.Method, req.URL.Redacted(), err)
	t.record(req.Context(), level, msg, httpCtx)
}

func (t *Transport) recordStatus(req *http.Request, resp *http.Response) {
	level := model.LevelWarn
	kind := "client_error"
	if resp.StatusCode >= http.StatusInternalServerError {
		level = model.LevelError
		kind = "server_error"
	}
	metrics.InterceptedFailures.WithLabelValues(kind).Inc()

	var body []byte
	if resp.Body != nil {
		// Only the captured prefix is buffered; the caller reads it back
		// followed by the rest of the original stream.
		orig := resp.Body
		body, _ = io.ReadAll(io.LimitReader(orig, middleware.MaxCapturedBody+1))
		resp.Body = prefixedBody{
			Reader: io.MultiReader(bytes.NewReader(body), orig),
			Closer: orig,
		}
	}

	httpCtx := &model.HTTPContext{
		Method:     req.Method,
		URL:        req.URL.String(),
		Status:     resp.StatusCode,
		StatusText: http.StatusText(resp.StatusCode),
		Headers:    middleware.RedactHeaders(resp.Header),
		Body:       middleware.RedactBody(body),
	}
	msg := fmt.Sprintf("%s %s returned %s", req.Method, req.URL.Redacted(), resp.Status)
	t.record(req.Context(), level, msg, httpCtx)
}

type prefixedBody struct {
	io.Reader
	io.Closer
}

// record never fails the outbound call; store errors only reach the process log.
func (t *Transport) record(ctx context.Context, level model.Level, msg string, httpCtx *model.HTTPContext) {
	if t.Recorder == nil {
		return
	}
	if _, err := t.Recorder.AppendHTTP(context.WithoutCancel(ctx), level, t.tag(), msg, nil, httpCtx); err != nil {
		logger.LogError(ctx, err, "failed to record outbound HTTP failure", "url", httpCtx.URL)
	}
}
