package testutil

import (
	"net/http/httptest"
	"net/url"

	"encoding/json"

	"github.com/gin-gonic/gin"
)

// RequestBuilder builds requests against a gin engine
type RequestBuilder struct {
	method  string
	path    string
	headers map[string]string
	query   url.Values
}

// NewRequest creates a request builder
func NewRequest(method, path string) *RequestBuilder {
	return &RequestBuilder{
		method:  method,
		path:    path,
		headers: make(map[string]string),
		query:   url.Values{},
	}
}

// GET creates a GET request builder
func GET(path string) *RequestBuilder {
	return NewRequest("GET", path)
}

// WithHeader sets a header
func (rb *RequestBuilder) WithHeader(key, value string) *RequestBuilder {
	rb.headers[key] = value
	return rb
}

// WithQuery adds a query parameter
func (rb *RequestBuilder) WithQuery(key, value string) *RequestBuilder {
	rb.query.Add(key, value)
	return rb
}

// Do serves the request and records the response
func (rb *RequestBuilder) Do(engine *gin.Engine) *ResponseHelper {
	target := rb.path
	if len(rb.query) > 0 {
		target += "?" + rb.query.Encode()
	}

	req := httptest.NewRequest(rb.method, target, nil)
	for k, v := range rb.headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return &ResponseHelper{Recorder: w}
}

// ResponseHelper response accessors
type ResponseHelper struct {
	Recorder *httptest.ResponseRecorder
}

// Status status code
func (rh *ResponseHelper) Status() int {
	return rh.Recorder.Code
}

// Body raw body
func (rh *ResponseHelper) Body() string {
	return rh.Recorder.Body.String()
}

// JSON decodes the body into v
func (rh *ResponseHelper) JSON(v interface{}) error {
	return json.Unmarshal(rh.Recorder.Body.Bytes(), v)
}

// Header response header value
func (rh *ResponseHelper) Header(key string) string {
	return rh.Recorder.Header().Get(key)
}
