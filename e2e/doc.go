//go:build e2e

// Package e2e provides browser-driven functional tests for the dimdim
// converter page.
//
// These tests are isolated from the standard test suite via build tags.
// They require a browser: Chrome for the rod and chromedp drivers
// (auto-downloaded by Rod if not present), or a playwright install for
// Firefox.
//
// Running E2E tests against an in-process converter server:
//
//	go test -tags=e2e ./e2e/...
//
// Running them against an already running converter:
//
//	DIMDIM_BASE_URL=http://localhost:8000 go test -tags=e2e ./e2e/...
//
// Choosing the browser:
//
//	DIMDIM_BROWSER_ENGINE=firefox go test -tags=e2e ./e2e/...
//	DIMDIM_BROWSER_DRIVER=chromedp go test -tags=e2e ./e2e/...
//	DIMDIM_HEADLESS=false go test -tags=e2e ./e2e/...
//
// E2E tests use:
//   - pkg/browser for session lifecycle (acquire, navigate, query, release)
//   - pkg/browser/browsertest for per-test scopes and the shared session
//   - pkg/pages for the HomePage page object
//   - cmd/dimdim/server when no DIMDIM_BASE_URL is given
//
// Test isolation:
// Tests in functional_test.go launch their own browser each. Tests in
// home_page_test.go borrow one shared browser in turn. TestMain fails the
// run if any session is still live afterwards.
package e2e
