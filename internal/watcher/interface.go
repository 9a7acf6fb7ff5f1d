package watcher

import "context"

// Watcher monitors the requests directory for episode requests
type Watcher interface {
	Start(ctx context.Context) error
	Stop() error
}

// Request is one parsed request file
type Request struct {
	Path string
	IDs  []string
}

// Handler runs the pipeline for a request
type Handler func(ctx context.Context, req Request) error
