package checkpoint

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/nvandessel/hebbgraph/internal/synapse"
)

// FormatVersion is the current checkpoint file version.
const FormatVersion = 1

// MaxDecompressedSize caps the decompressed payload (2GB).
const MaxDecompressedSize = 2 << 30

// Header is the plain-text first line of a checkpoint file.
type Header struct {
	Version    int       `json:"version"`
	CreatedAt  time.Time `json:"created_at"`
	Checksum   string    `json:"checksum"`
	Synapses   int       `json:"synapses"`
	Compressed bool      `json:"compressed"`
	Meta       Meta      `json:"meta"`
}

// WriteRecords writes records as JSONL, one record per line.
func WriteRecords(w io.Writer, records []synapse.Record) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for i, r := range records {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encoding record %d: %w", i, err)
		}
	}
	return bw.Flush()
}

// ReadRecords reads JSONL records until EOF.
func ReadRecords(r io.Reader) ([]synapse.Record, error) {
	dec := json.NewDecoder(r)
	var out []synapse.Record
	for {
		var rec synapse.Record
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("decoding record %d: %w", len(out), err)
		}
		out = append(out, rec)
	}
}

// WriteFile writes a checkpoint file: header line + gzip-compressed JSONL.
func WriteFile(path string, records []synapse.Record, meta Meta, createdAt time.Time) (Header, error) {
	var compressed bytes.Buffer
	gzw, err := gzip.NewWriterLevel(&compressed, gzip.DefaultCompression)
	if err != nil {
		return Header{}, fmt.Errorf("creating gzip writer: %w", err)
	}
	if err := WriteRecords(gzw, records); err != nil {
		return Header{}, fmt.Errorf("compressing payload: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return Header{}, fmt.Errorf("closing gzip writer: %w", err)
	}

	header := Header{
		Version:    FormatVersion,
		CreatedAt:  createdAt.UTC(),
		Checksum:   checksum(compressed.Bytes()),
		Synapses:   len(records),
		Compressed: true,
		Meta:       meta,
	}
	headerBytes, err := json.Marshal(header)
	if err != nil {
		return Header{}, fmt.Errorf("marshaling header: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return Header{}, fmt.Errorf("creating directory: %w", err)
	}

	// Readers only ever see complete files: write aside, then rename.
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return Header{}, fmt.Errorf("creating file: %w", err)
	}
	if _, err := f.Write(append(headerBytes, '\n')); err != nil {
		f.Close()
		return Header{}, fmt.Errorf("writing header: %w", err)
	}
	if _, err := f.Write(compressed.Bytes()); err != nil {
		f.Close()
		return Header{}, fmt.Errorf("writing compressed payload: %w", err)
	}
	if err := f.Close(); err != nil {
		return Header{}, fmt.Errorf("closing file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return Header{}, fmt.Errorf("renaming checkpoint: %w", err)
	}
	return header, nil
}

// ReadHeader reads only the header line of a checkpoint file.
func ReadHeader(path string) (Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	header, _, err := readHeader(bufio.NewReader(f))
	return header, err
}

// ReadFile reads a checkpoint file, verifies its checksum and decodes the
// records.
func ReadFile(path string) ([]synapse.Record, Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Header{}, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	header, reader, err := readHeader(bufio.NewReader(f))
	if err != nil {
		return nil, Header{}, err
	}

	compressed, err := io.ReadAll(reader)
	if err != nil {
		return nil, Header{}, fmt.Errorf("reading compressed payload: %w", err)
	}
	if actual := checksum(compressed); actual != header.Checksum {
		return nil, Header{}, fmt.Errorf("checksum mismatch: expected %s, got %s", header.Checksum, actual)
	}

	gzr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, Header{}, fmt.Errorf("creating gzip reader: %w", err)
	}
	defer gzr.Close()

	records, err := ReadRecords(io.LimitReader(gzr, MaxDecompressedSize))
	if err != nil {
		return nil, Header{}, fmt.Errorf("decoding payload: %w", err)
	}
	if len(records) != header.Synapses {
		return nil, Header{}, fmt.Errorf("header declares %d synapses, payload has %d", header.Synapses, len(records))
	}
	return records, header, nil
}

func readHeader(r *bufio.Reader) (Header, *bufio.Reader, error) {
	line, err := r.ReadBytes('\n')
	if err != nil {
		return Header{}, nil, fmt.Errorf("reading header line: %w", err)
	}

	var header Header
	if err := json.Unmarshal(bytes.TrimSpace(line), &header); err != nil {
		return Header{}, nil, fmt.Errorf("parsing header: %w", err)
	}
	if header.Version != FormatVersion {
		return Header{}, nil, fmt.Errorf("unsupported checkpoint version %d", header.Version)
	}
	return header, r, nil
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(sum[:])
}
