package historical

import (
	"encoding/binary"
	"time"

	"github.com/kformanek/meridian/pkg/common"
	"github.com/kformanek/meridian/pkg/exchange"
	"github.com/kformanek/meridian/pkg/utility/fixed"
)

// BinaryBar is the on-disk record produced by cmd/dumpbars: six little-endian
// 8-byte fields in declaration order. barRecordSize and the decode below are
// part of the file format.
type BinaryBar struct {
	TimeStamp int64
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    uint64
}

const barRecordSize = 48

func decodeBar(raw []byte) BinaryBar {
	return BinaryBar{
		TimeStamp: int64(binary.LittleEndian.Uint64(raw[0:8])),
		Open:      float64FromBits(raw[8:16]),
		High:      float64FromBits(raw[16:24]),
		Low:       float64FromBits(raw[24:32]),
		Close:     float64FromBits(raw[32:40]),
		Volume:    binary.LittleEndian.Uint64(raw[40:48]),
	}
}

func (b BinaryBar) Bar(info exchange.SymbolInfo) common.Bar {
	return common.Bar{
		InstrumentId: info.InstrumentId,
		Ticker:       info.Ticker,
		TimeStamp:    time.Unix(0, b.TimeStamp).UTC(),
		Open:         fixed.FromFloat64(b.Open),
		High:         fixed.FromFloat64(b.High),
		Low:          fixed.FromFloat64(b.Low),
		Close:        fixed.FromFloat64(b.Close),
		Volume:       b.Volume,
	}
}
