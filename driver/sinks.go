//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Copyright (C) 2025 Casey Howe
//
// This file is part of linepipe.
//
// linepipe is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// linepipe is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with linepipe. If not, see https://www.gnu.org/licenses/.

package driver

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/apache/arrow/go/v12/arrow/memory"
	"github.com/apache/arrow/go/v12/parquet"
	"github.com/apache/arrow/go/v12/parquet/pqarrow"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	_ "github.com/lib/pq"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/caseyhowe/linepipe/core"
)

// SinkFor resolves a `-o` target into a concrete core.LineSink, grounded
// on types/output.go's OutputFormat resolver (there: pick a Record writer
// by file extension; here: pick a Line sink by URI scheme or extension).
// An empty target means standard output.
func SinkFor(target string) (core.LineSink, error) {
	switch {
	case target == "":
		return NewFileSink(os.Stdout, nil), nil
	case strings.HasPrefix(target, "s3://"):
		return newS3Sink(target)
	case strings.HasPrefix(target, "postgres://") || strings.HasPrefix(target, "postgresql://"):
		return newPostgresSink(target)
	case strings.HasPrefix(target, "mongodb://") || strings.HasPrefix(target, "mongodb+srv://"):
		return newMongoSink(target)
	case strings.HasSuffix(target, ".parquet"):
		return newParquetSink(target)
	default:
		f, err := os.Create(target)
		if err != nil {
			return nil, &IOError{Op: "create " + target, Err: err}
		}
		return NewFileSink(f, f), nil
	}
}

// FileSink is the default sink: a buffered writer over a file or stdout,
// flushed on Terminate, end of input, and shutdown (spec.md §5).
type FileSink struct {
	w      *bufio.Writer
	closer io.Closer // nil for stdout, which linepipe never closes
}

// NewFileSink wraps w in a buffered writer. closer may be nil (stdout).
func NewFileSink(w io.Writer, closer io.Closer) *FileSink {
	return &FileSink{w: bufio.NewWriter(w), closer: closer}
}

func (s *FileSink) Write(line core.Line) error {
	if _, err := s.w.Write(line); err != nil {
		return &IOError{Op: "write", Err: err}
	}
	if err := s.w.WriteByte('\n'); err != nil {
		return &IOError{Op: "write", Err: err}
	}
	return nil
}

func (s *FileSink) Flush() error {
	if err := s.w.Flush(); err != nil {
		return &IOError{Op: "flush", Err: err}
	}
	return nil
}

func (s *FileSink) Close() error {
	if err := s.Flush(); err != nil {
		return err
	}
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// S3Sink buffers the entire produced-line stream in memory and writes it
// as one S3 object on Close, adapted from readers/s3.go's client and
// credential setup — mirrored here for PutObject instead of
// ListObjects/GetObject. S3's object-level PUT has no incremental append,
// so Flush is a no-op; the whole buffer goes up in a single request when
// the sink is closed.
type S3Sink struct {
	client *s3.Client
	bucket string
	key    string

	mu  sync.Mutex
	buf strings.Builder
}

func newS3Sink(uri string) (*S3Sink, error) {
	bucket, key, err := parseS3URI(uri)
	if err != nil {
		return nil, &IOError{Op: "parse s3 uri", Err: err}
	}

	cfg, err := config.LoadDefaultConfig(context.Background())
	if err != nil {
		return nil, &IOError{Op: "load aws config", Err: err}
	}
	client := s3.NewFromConfig(cfg)

	return &S3Sink{client: client, bucket: bucket, key: key}, nil
}

func parseS3URI(uri string) (bucket, key string, err error) {
	trimmed := strings.TrimPrefix(uri, "s3://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("malformed s3 uri %q, want s3://bucket/key", uri)
	}
	return parts[0], parts[1], nil
}

func (s *S3Sink) Write(line core.Line) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf.Write(line)
	s.buf.WriteByte('\n')
	return nil
}

func (s *S3Sink) Flush() error {
	return nil
}

func (s *S3Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.client.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
		Body:   strings.NewReader(s.buf.String()),
	})
	if err != nil {
		return &IOError{Op: "s3 put_object", Err: err}
	}
	return nil
}

// PostgresSink appends each produced line as a row (seq bigint, line
// text), adapted from writers/postgresql.go's batched-insert and
// connection-pool logic, narrowed to a fixed two-column schema because a
// Line carries no field structure of its own.
type PostgresSink struct {
	db        *sql.DB
	tableName string
	stmt      *sql.Stmt

	mu   sync.Mutex
	seq  int64
	rows [][2]any
}

const postgresSinkBatchSize = 500

func newPostgresSink(dsn string) (*PostgresSink, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, &IOError{Op: "open postgres", Err: err}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &IOError{Op: "ping postgres", Err: err}
	}

	const tableName = "linepipe_output"
	if _, err := db.ExecContext(ctx, fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (seq BIGINT, line TEXT)", tableName)); err != nil {
		db.Close()
		return nil, &IOError{Op: "create table", Err: err}
	}

	stmt, err := db.Prepare(fmt.Sprintf("INSERT INTO %s (seq, line) VALUES ($1, $2)", tableName))
	if err != nil {
		db.Close()
		return nil, &IOError{Op: "prepare insert", Err: err}
	}

	return &PostgresSink{db: db, tableName: tableName, stmt: stmt}, nil
}

func (s *PostgresSink) Write(line core.Line) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.rows = append(s.rows, [2]any{s.seq, line.String()})
	if len(s.rows) >= postgresSinkBatchSize {
		return s.flushUnsafe()
	}
	return nil
}

func (s *PostgresSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushUnsafe()
}

func (s *PostgresSink) flushUnsafe() error {
	if len(s.rows) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return &IOError{Op: "begin tx", Err: err}
	}
	for _, row := range s.rows {
		if _, err := tx.Stmt(s.stmt).Exec(row[0], row[1]); err != nil {
			tx.Rollback()
			return &IOError{Op: "insert row", Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &IOError{Op: "commit tx", Err: err}
	}
	s.rows = s.rows[:0]
	return nil
}

func (s *PostgresSink) Close() error {
	if err := s.Flush(); err != nil {
		return err
	}
	s.stmt.Close()
	return s.db.Close()
}

// MongoSink inserts each produced line as a {seq, line} document,
// adapted from readers/mongo.go's connection/ping setup (reused for its
// client-setup half; insertion is new, but follows the same
// option/error-wrapping shape as the other writers in this package).
type MongoSink struct {
	client     *mongo.Client
	collection *mongo.Collection

	mu   sync.Mutex
	seq  int64
	docs []any
}

const mongoSinkBatchSize = 500

func newMongoSink(uri string) (*MongoSink, error) {
	database, collection, err := parseMongoURI(uri)
	if err != nil {
		return nil, &IOError{Op: "parse mongo uri", Err: err}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, &IOError{Op: "mongo connect", Err: err}
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, &IOError{Op: "mongo ping", Err: err}
	}

	return &MongoSink{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}, nil
}

// parseMongoURI extracts "database/collection" from the path component of
// a mongodb:// URI, e.g. mongodb://host/mydb/mycoll.
func parseMongoURI(uri string) (database, collection string, err error) {
	idx := strings.Index(uri, "://")
	if idx < 0 {
		return "", "", fmt.Errorf("malformed mongo uri %q", uri)
	}
	rest := uri[idx+3:]
	slash := strings.Index(rest, "/")
	if slash < 0 {
		return "", "", fmt.Errorf("mongo uri %q missing /database/collection", uri)
	}
	path := strings.Trim(rest[slash+1:], "/")
	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("mongo uri %q missing /database/collection", uri)
	}
	return parts[0], parts[1], nil
}

func (s *MongoSink) Write(line core.Line) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.docs = append(s.docs, bson.M{"seq": s.seq, "line": line.String()})
	if len(s.docs) >= mongoSinkBatchSize {
		return s.flushUnsafe()
	}
	return nil
}

func (s *MongoSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushUnsafe()
}

func (s *MongoSink) flushUnsafe() error {
	if len(s.docs) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := s.collection.InsertMany(ctx, s.docs); err != nil {
		return &IOError{Op: "insert_many", Err: err}
	}
	s.docs = s.docs[:0]
	return nil
}

func (s *MongoSink) Close() error {
	if err := s.Flush(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// ParquetSink batches produced lines into a single-column (line: string)
// Arrow record batch and writes it via arrow/go/v12's pqarrow writer,
// adapted from writers/parquet.go.
type ParquetSink struct {
	file    *os.File
	schema  *arrow.Schema
	writer  *pqarrow.FileWriter
	builder *array.StringBuilder

	mu      sync.Mutex
	pending int
}

const parquetSinkBatchSize = 1000

func newParquetSink(path string) (*ParquetSink, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, &IOError{Op: "create " + path, Err: err}
	}

	schema := arrow.NewSchema([]arrow.Field{
		{Name: "line", Type: arrow.BinaryTypes.String, Nullable: false},
	}, nil)

	props := parquet.NewWriterProperties()
	writer, err := pqarrow.NewFileWriter(schema, file, props, pqarrow.DefaultWriterProps())
	if err != nil {
		file.Close()
		return nil, &IOError{Op: "create parquet writer", Err: err}
	}

	return &ParquetSink{
		file:    file,
		schema:  schema,
		writer:  writer,
		builder: array.NewStringBuilder(memory.NewGoAllocator()),
	}, nil
}

func (s *ParquetSink) Write(line core.Line) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.builder.Append(line.String())
	s.pending++
	if s.pending >= parquetSinkBatchSize {
		return s.flushUnsafe()
	}
	return nil
}

func (s *ParquetSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushUnsafe()
}

func (s *ParquetSink) flushUnsafe() error {
	if s.pending == 0 {
		return nil
	}
	col := s.builder.NewStringArray()
	defer col.Release()
	rec := array.NewRecord(s.schema, []arrow.Array{col}, int64(s.pending))
	defer rec.Release()
	if err := s.writer.Write(rec); err != nil {
		return &IOError{Op: "write parquet batch", Err: err}
	}
	s.pending = 0
	return nil
}

func (s *ParquetSink) Close() error {
	if err := s.Flush(); err != nil {
		return err
	}
	s.builder.Release()
	if err := s.writer.Close(); err != nil {
		return &IOError{Op: "close parquet writer", Err: err}
	}
	return s.file.Close()
}
