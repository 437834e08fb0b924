package container

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

const (
	archiveMagic  = "GEOMKAR1"
	maxRecordSize = 1 << 34
)

// WriteArchive streams every record of f to w as a single zstd frame:
// the magic string, then for each key in sorted order a uvarint key length,
// the key, a uvarint value length and the value.
func WriteArchive(w io.Writer, f *File) error {
	keys, err := f.store.Keys("")
	if err != nil {
		return errors.Wrap(err, "listing records")
	}
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return errors.Wrap(err, "creating archive encoder")
	}
	buf := []byte(archiveMagic)
	for _, k := range keys {
		v, err := f.store.Get(k)
		if err != nil {
			enc.Close()
			return errors.Wrapf(err, "archiving %q", k)
		}
		buf = binary.AppendUvarint(buf, uint64(len(k)))
		buf = append(buf, k...)
		buf = binary.AppendUvarint(buf, uint64(len(v)))
		buf = append(buf, v...)
		if _, err := enc.Write(buf); err != nil {
			enc.Close()
			return errors.Wrap(err, "writing archive")
		}
		buf = buf[:0]
	}
	if len(buf) > 0 {
		if _, err := enc.Write(buf); err != nil {
			enc.Close()
			return errors.Wrap(err, "writing archive")
		}
	}
	return errors.Wrap(enc.Close(), "finishing archive")
}

// ReadArchive loads the records of an archive written by WriteArchive into
// store and returns the number of records read.
func ReadArchive(r io.Reader, store Store) (int, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return 0, errors.Wrap(err, "creating archive decoder")
	}
	defer dec.Close()
	br := bufio.NewReader(dec)

	magic := make([]byte, len(archiveMagic))
	if _, err := io.ReadFull(br, magic); err != nil || string(magic) != archiveMagic {
		return 0, errors.Wrap(ErrCorrupt, "archive header")
	}
	readChunk := func() ([]byte, error) {
		n, err := binary.ReadUvarint(br)
		if err != nil {
			return nil, err
		}
		if n > maxRecordSize {
			return nil, errors.Errorf("record length %d exceeds %d", n, maxRecordSize)
		}
		chunk := make([]byte, n)
		_, err = io.ReadFull(br, chunk)
		return chunk, err
	}
	count := 0
	for {
		key, err := readChunk()
		if err == io.EOF {
			return count, nil
		}
		if err != nil {
			return count, errors.Wrapf(ErrCorrupt, "archive record %d key: %v", count, err)
		}
		val, err := readChunk()
		if err != nil {
			return count, errors.Wrapf(ErrCorrupt, "archive record %d value: %v", count, err)
		}
		if err := store.Put(string(key), val); err != nil {
			return count, errors.Wrapf(err, "restoring %q", key)
		}
		count++
	}
}
