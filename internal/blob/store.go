// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

// Package blob stores the raw dataset, the cleaned CSV and the JSON cache
// file. Drivers: local filesystem, S3-compatible object storage, and
// process memory for tests.
//
// Writes overwrite. Every driver reports a content ETag so the source
// poller can tell when the raw dataset was replaced.
package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tomtom215/dietscope/internal/metrics"
)

// Driver identifies a blob backend.
type Driver string

const (
	DriverFilesystem Driver = "fs"
	DriverS3         Driver = "s3"
	DriverMemory     Driver = "memory"
)

// Content types written by the service.
const (
	ContentTypeCSV  = "text/csv"
	ContentTypeJSON = "application/json"
)

// ErrNotFound is returned (possibly wrapped) when a key does not exist.
var ErrNotFound = errors.New("blob not found")

// PutOptions specifies optional parameters for Put.
type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

// Info describes a stored blob.
type Info struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size_bytes"`
	ContentType  string            `json:"content_type,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastModified time.Time         `json:"last_modified"`
}

// Store is the blob backend contract.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Head(ctx context.Context, key string) (Info, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]Info, error)
	Ping(ctx context.Context) error
	Driver() Driver
}

// ReadAll reads the whole blob at key.
func ReadAll(ctx context.Context, s Store, key string) ([]byte, Info, error) {
	info, rc, err := s.Get(ctx, key)
	if err != nil {
		return nil, Info{}, err
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, Info{}, fmt.Errorf("read blob %s: %w", key, err)
	}
	return data, info, nil
}

// PutBytes writes data to key with the given content type.
func PutBytes(ctx context.Context, s Store, key string, data []byte, contentType string) (Info, error) {
	return s.Put(ctx, key, bytes.NewReader(data), PutOptions{ContentType: contentType})
}

// IsNotFound reports whether err means the key does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func notFound(key string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, key)
}

func cloneMetadata(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// instrumented records Prometheus metrics around another Store.
type instrumented struct {
	Store
	driver string
}

// Instrument wraps s so every call is counted in blob_operations_total.
func Instrument(s Store) Store {
	return &instrumented{Store: s, driver: string(s.Driver())}
}

func (i *instrumented) observe(op string, start time.Time, err error) {
	metrics.RecordBlobOp(i.driver, op, time.Since(start), err, ErrNotFound)
}

func (i *instrumented) Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error) {
	start := time.Now()
	info, err := i.Store.Put(ctx, key, r, opts)
	i.observe("put", start, err)
	return info, err
}

func (i *instrumented) Get(ctx context.Context, key string) (Info, io.ReadCloser, error) {
	start := time.Now()
	info, rc, err := i.Store.Get(ctx, key)
	i.observe("get", start, err)
	return info, rc, err
}

func (i *instrumented) Head(ctx context.Context, key string) (Info, error) {
	start := time.Now()
	info, err := i.Store.Head(ctx, key)
	i.observe("head", start, err)
	return info, err
}

func (i *instrumented) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := i.Store.Delete(ctx, key)
	i.observe("delete", start, err)
	return err
}

func (i *instrumented) List(ctx context.Context, prefix string) ([]Info, error) {
	start := time.Now()
	infos, err := i.Store.List(ctx, prefix)
	i.observe("list", start, err)
	return infos, err
}
