package transport

import (
	"net/http"
	"net/url"
)

// HTTP boundary

type RequestParam struct {
	target        string
	discardBody   bool
	redirectCheck func(target *url.URL) error
}

// NewRequestParam describes a GET of target, an absolute URL.
func NewRequestParam(target string) RequestParam {
	return RequestParam{
		target: target,
	}
}

// WithDiscardBody drains the response body without keeping it. Used when
// only the status and the post-redirect URL matter.
func (p RequestParam) WithDiscardBody() RequestParam {
	p.discardBody = true
	return p
}

// WithRedirectCheck vets every redirect hop before it is requested. A
// non-nil error from check ends the exchange with ErrCauseRedirectRejected.
func (p RequestParam) WithRedirectCheck(check func(target *url.URL) error) RequestParam {
	p.redirectCheck = check
	return p
}

func (p RequestParam) HasRedirectCheck() bool {
	return p.redirectCheck != nil
}

func (p RequestParam) Target() string {
	return p.target
}

func (p RequestParam) DiscardBody() bool {
	return p.discardBody
}

// Response is a completed HTTP exchange, whatever its status.
type Response struct {
	statusCode int
	finalURL   url.URL
	header     http.Header
	body       []byte
}

func (r Response) StatusCode() int {
	return r.statusCode
}

// FinalURL is the URL of the last request in the redirect chain.
func (r Response) FinalURL() url.URL {
	return r.finalURL
}

func (r Response) Header(key string) string {
	return r.header.Get(key)
}

func (r Response) Body() []byte {
	return r.body
}

func (r Response) IsSuccess() bool {
	return r.statusCode >= 200 && r.statusCode < 300
}

// NewResponseForTest creates a Response for testing purposes.
// This allows test packages to construct Response values without
// accessing unexported fields directly.
func NewResponseForTest(statusCode int, finalURL url.URL, header http.Header, body []byte) Response {
	if header == nil {
		header = http.Header{}
	}
	return Response{
		statusCode: statusCode,
		finalURL:   finalURL,
		header:     header,
		body:       body,
	}
}
