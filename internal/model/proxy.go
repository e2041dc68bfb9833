// Package model defines shared types for the embed proxy.
package model

import (
	"context"
	"io"
	"net/http"
	"net/url"
)

// PreviewRequest represents an inbound request to be turned into a preview.
// It is read, never mutated.
type PreviewRequest struct {
	Ctx    context.Context
	Method string
	URL    *url.URL
	Header http.Header
}

// ResultKind tells the handler how to answer a PreviewRequest.
type ResultKind int

const (
	// ResultRedirect sends the client to Location with a temporary redirect.
	ResultRedirect ResultKind = iota
	// ResultDocument serves Body as an HTML document.
	ResultDocument
)

// PreviewResult is the terminal value of the preview pipeline.
type PreviewResult struct {
	Kind     ResultKind
	Location string
	Body     string
}

// UpstreamResponse represents a response received from Reddit.
type UpstreamResponse struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
	// FinalURL is the request URL after the client followed any redirects.
	FinalURL *url.URL
}
