// Command powtrace dumps a powdemo recording as CSV.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"powdemo/recorder"
)

func main() {
	var (
		inPath  = flag.String("in", "", "Recording written with -record.")
		outPath = flag.String("out", "", "Output CSV file (default stdout).")
		session = flag.String("session", "", "Only dump samples from this session.")
	)
	flag.Parse()

	if *inPath == "" {
		fatalf("usage: powtrace -in samples.db [-out samples.csv] [-session id]")
	}

	samples, err := recorder.ReadAll(*inPath)
	if err != nil {
		fatalf("read: %v", err)
	}

	var out io.Writer = os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			fatalf("create: %v", err)
		}
		defer f.Close()
		out = f
	}

	if err := writeCSV(out, samples, *session); err != nil {
		fatalf("write: %v", err)
	}
}

func fatalf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(2)
}

var header = []string{"session", "time", "power", "bits", "modulus", "fps", "paused", "resets"}

// writeCSV writes samples to w, keeping only session when it is set.
func writeCSV(w io.Writer, samples []recorder.Sample, session string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "header")
	}
	for _, s := range samples {
		if session != "" && s.Session != session {
			continue
		}
		row := []string{
			s.Session,
			s.At.UTC().Format(time.RFC3339Nano),
			s.Power,
			strconv.Itoa(s.Bits),
			strconv.Itoa(s.Modulus),
			strconv.Itoa(s.FPS),
			strconv.FormatBool(s.Paused),
			strconv.FormatUint(s.Resets, 10),
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrap(err, "row")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush")
}
