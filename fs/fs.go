// Package appfs exposes the app's embedded files: database migrations,
// curriculum content and static assets (email templates, password lists).
package appfs

import "embed"

//go:embed migrations all:assets content
var FS embed.FS
