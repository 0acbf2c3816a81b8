package main

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/alnah/go-rsm/internal/pdf"
)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Stdout io.Writer
	Stderr io.Writer

	// NewPDFPool creates the exporter pool used by make --pdf.
	NewPDFPool func(size int, timeout time.Duration) exporterPool
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		NewPDFPool: func(size int, timeout time.Duration) exporterPool {
			return &poolAdapter{pool: pdf.NewPool(size, timeout)}
		},
	}
}

// exporter prints one document to PDF.
type exporter interface {
	Export(ctx context.Context, document string, opts pdf.Options) ([]byte, error)
}

var _ exporter = (*pdf.Exporter)(nil)

// exporterPool abstracts pdf.Pool for testability.
type exporterPool interface {
	Acquire() exporter
	Release(exporter)
	Size() int
	Close() error
}

// poolAdapter exposes a *pdf.Pool as an exporterPool.
type poolAdapter struct {
	pool *pdf.Pool
}

func (a *poolAdapter) Acquire() exporter {
	e := a.pool.Acquire()
	if e == nil {
		return nil
	}
	return e
}

// Release panics on a foreign exporter; only values from Acquire come back.
func (a *poolAdapter) Release(e exporter) {
	pe, ok := e.(*pdf.Exporter)
	if !ok {
		panic("poolAdapter: unexpected type")
	}
	a.pool.Release(pe)
}

func (a *poolAdapter) Size() int    { return a.pool.Size() }
func (a *poolAdapter) Close() error { return a.pool.Close() }
