// Package snapshot dumps and restores the oracle key-value store.
//
// A snapshot is an lz4 frame holding a msgpack stream: one Header, then one
// Record per key in key order, then a Record with an empty key marking the
// end.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/pierrec/lz4"
	"github.com/sirupsen/logrus"

	"github.com/LeJamon/goPriceOracle/internal/core/oracle"
	"github.com/LeJamon/goPriceOracle/internal/host"
	"github.com/LeJamon/goPriceOracle/internal/logging"
	"github.com/LeJamon/goPriceOracle/internal/storage/database"
)

const (
	// Format identifies snapshot streams.
	Format = "oracled-snapshot"

	// Version is the current stream version.
	Version = 1

	// DefaultBatchSize is the number of records written per database batch
	// on import.
	DefaultBatchSize = 1024
)

var (
	ErrBadFormat  = errors.New("not an oracle snapshot")
	ErrBadVersion = errors.New("unsupported snapshot version")
	ErrTruncated  = errors.New("snapshot is truncated")
)

// Header opens every snapshot.
type Header struct {
	Format  string `codec:"format"`
	Version int    `codec:"version"`
	Created int64  `codec:"created"`
}

// Record is one key-value pair.
type Record struct {
	Key   []byte `codec:"k"`
	Value []byte `codec:"v"`
}

var log = logging.New("snapshot")

// Export writes every entry of db to w. It returns the number of records
// written.
func Export(ctx context.Context, db database.DB, w io.Writer, created time.Time) (int, error) {
	zw := lz4.NewWriter(w)
	enc := host.NewEncoder(zw)

	if err := enc.Encode(Header{Format: Format, Version: Version, Created: created.Unix()}); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	it, err := db.Iterator(ctx, nil, nil)
	if err != nil {
		return 0, err
	}
	defer it.Close()

	count := 0
	for it.Next() {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		if err := enc.Encode(Record{Key: it.Key(), Value: it.Value()}); err != nil {
			return count, fmt.Errorf("write record: %w", err)
		}
		count++
	}
	if err := it.Error(); err != nil {
		return count, fmt.Errorf("iterate database: %w", err)
	}

	if err := enc.Encode(Record{}); err != nil {
		return count, fmt.Errorf("write trailer: %w", err)
	}
	if err := zw.Close(); err != nil {
		return count, fmt.Errorf("flush snapshot: %w", err)
	}

	log.WithField("records", count).Info("Snapshot exported")
	return count, nil
}

// Import reads a snapshot from r into db. Every key must be a valid oracle
// data key. Records are written in batches of batchSize; a zero batchSize
// selects DefaultBatchSize. Batches already written stay written when a
// later record fails.
func Import(ctx context.Context, db database.DB, r io.Reader, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	dec := host.NewDecoder(lz4.NewReader(r))

	var header Header
	if err := dec.Decode(&header); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBadFormat, err)
	}
	if header.Format != Format {
		return 0, ErrBadFormat
	}
	if header.Version != Version {
		return 0, fmt.Errorf("%w: %d", ErrBadVersion, header.Version)
	}

	batch := make([]database.BatchOperation, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := db.Batch(ctx, batch); err != nil {
			return fmt.Errorf("write batch: %w", err)
		}
		batch = batch[:0]
		return nil
	}

	count := 0
	for {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return count, ErrTruncated
			}
			return count, fmt.Errorf("read record %d: %w", count, err)
		}
		if len(rec.Key) == 0 {
			break
		}
		if _, err := oracle.ParseKey(rec.Key); err != nil {
			return count, fmt.Errorf("record %d: %w", count, err)
		}

		batch = append(batch, database.BatchOperation{
			Type:  database.BatchPut,
			Key:   rec.Key,
			Value: rec.Value,
		})
		count++
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return count - len(batch), err
			}
		}
	}
	if err := flush(); err != nil {
		return count - len(batch), err
	}

	log.WithFields(logrus.Fields{
		"records": count,
		"created": time.Unix(header.Created, 0).UTC(),
	}).Info("Snapshot imported")
	return count, nil
}
