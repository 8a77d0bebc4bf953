package volume

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

const magic = "AVOL"

// Write encodes v as a text header line "AVOL nx ny nz" followed by the raw
// label bytes.
func Write(w io.Writer, v *Volume) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "%s %d %d %d\n", magic, v.nx, v.ny, v.nz); err != nil {
		return err
	}
	if _, err := bw.Write(v.data); err != nil {
		return err
	}
	return bw.Flush()
}

// Read decodes a volume written by Write.
func Read(r io.Reader) (*Volume, error) {
	br := bufio.NewReader(r)
	header, err := br.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var tag string
	var nx, ny, nz int
	if _, err := fmt.Sscanf(header, "%s %d %d %d\n", &tag, &nx, &ny, &nz); err != nil {
		return nil, fmt.Errorf("parse header %q: %w", header, err)
	}
	if tag != magic {
		return nil, fmt.Errorf("unexpected volume tag %q", tag)
	}

	n, err := voxels(nx, ny, nz)
	if err != nil {
		return nil, err
	}
	// The buffer grows with the bytes present, not the header size.
	data, err := io.ReadAll(io.LimitReader(br, int64(n)))
	if err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}
	if len(data) != n {
		return nil, fmt.Errorf("read labels: %w: got %d of %d", io.ErrUnexpectedEOF, len(data), n)
	}
	return &Volume{nx: nx, ny: ny, nz: nz, data: data}, nil
}

func Load(path string) (*Volume, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

func Save(path string, v *Volume) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, v); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
