// Package web holds the embedded page templates and static assets.
package web

import "embed"

//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS is served under /static/ with a one hour cache lifetime.
//
//go:embed static/*
var StaticFS embed.FS
