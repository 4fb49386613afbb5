package main

import (
	"bufio"
	"encoding/binary"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/kformanek/meridian/pkg/datasource/historical"
)

// dumpbars converts CSV bars (ts,open,high,low,close,volume) into the
// fixed-size binary layout the backtest reads through mmap.

var (
	inPath  = flag.String("in", "", "input CSV file")
	outPath = flag.String("out", "", "output binary file")
)

func main() {
	flag.Parse()

	if *inPath == "" || *outPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := convert(*inPath, *outPath); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func convert(inPath, outPath string) error {
	in, err := os.Open(inPath) // #nosec G304
	if err != nil {
		return fmt.Errorf("unable to open %q: %w", inPath, err)
	}
	defer func() {
		_ = in.Close()
	}()

	out, err := os.Create(outPath) // #nosec G304
	if err != nil {
		return fmt.Errorf("unable to create %q: %w", outPath, err)
	}
	defer func() {
		_ = out.Close()
	}()

	writer := bufio.NewWriter(out)
	defer func() {
		_ = writer.Flush()
	}()

	reader := csv.NewReader(in)
	reader.ReuseRecord = true

	line := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("unable to read csv: %w", err)
		}
		line++
		if line == 1 && row[0] == "ts" {
			continue
		}
		if len(row) != 6 {
			return fmt.Errorf("line %d: expected 6 columns, got %d", line, len(row))
		}

		record, err := parseRow(row)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if err := binary.Write(writer, binary.LittleEndian, record); err != nil {
			return fmt.Errorf("unable to write record: %w", err)
		}
	}

	return nil
}

func parseRow(row []string) (historical.BinaryBar, error) {
	ts, err := time.Parse(time.RFC3339, row[0])
	if err != nil {
		return historical.BinaryBar{}, fmt.Errorf("invalid timestamp %q: %w", row[0], err)
	}

	var values [4]float64
	for i, raw := range row[1:5] {
		values[i], err = strconv.ParseFloat(raw, 64)
		if err != nil {
			return historical.BinaryBar{}, fmt.Errorf("invalid price %q: %w", raw, err)
		}
	}

	volume, err := strconv.ParseUint(row[5], 10, 64)
	if err != nil {
		return historical.BinaryBar{}, fmt.Errorf("invalid volume %q: %w", row[5], err)
	}

	return historical.BinaryBar{
		TimeStamp: ts.UnixNano(),
		Open:      values[0],
		High:      values[1],
		Low:       values[2],
		Close:     values[3],
		Volume:    volume,
	}, nil
}
