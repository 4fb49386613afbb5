package historical

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"golang.org/x/exp/mmap"

	"github.com/kformanek/meridian/pkg/common"
	"github.com/kformanek/meridian/pkg/exchange"
)

// Reader streams BinaryBar records out of a memory-mapped file. The bar count
// is fixed at Open, so replay code can preallocate.
type Reader struct {
	path   string
	source *mmap.ReaderAt
	count  int64
}

func OpenReader(path string) (*Reader, error) {
	source, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open bar file %q: %w", path, err)
	}

	size := int64(source.Len())
	if size%barRecordSize != 0 {
		_ = source.Close()
		return nil, fmt.Errorf("bar file %q is truncated: %d bytes is not a multiple of the %d byte record", path, size, barRecordSize)
	}

	return &Reader{
		path:   path,
		source: source,
		count:  size / barRecordSize,
	}, nil
}

func (r *Reader) Close() {
	_ = r.source.Close()
}

func (r *Reader) Count() int64 {
	return r.count
}

func (r *Reader) Bar(index int64) (BinaryBar, error) {
	if index < 0 || index >= r.count {
		return BinaryBar{}, io.EOF
	}

	var raw [barRecordSize]byte
	if _, err := r.source.ReadAt(raw[:], index*barRecordSize); err != nil {
		return BinaryBar{}, fmt.Errorf("unable to read bar %d of %q: %w", index, r.path, err)
	}
	return decodeBar(raw[:]), nil
}

func float64FromBits(raw []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(raw))
}

// LoadBars reads a whole bar file into memory, tagged with the symbol the
// file belongs to. The replay clock wants the full dataset up front.
func LoadBars(path string, info exchange.SymbolInfo) ([]common.Bar, error) {
	reader, err := OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	bars := make([]common.Bar, 0, reader.Count())
	for i := int64(0); i < reader.Count(); i++ {
		record, err := reader.Bar(i)
		if err != nil {
			return nil, err
		}
		bars = append(bars, record.Bar(info))
	}
	return bars, nil
}
