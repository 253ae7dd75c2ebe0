// Package app contains the core application logic: it loads the
// configuration document, resolves it into an execution plan, and runs the
// plan. It is decoupled from any specific entrypoint like a CLI.
package app
