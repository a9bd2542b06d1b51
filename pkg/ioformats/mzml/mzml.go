// Package mzml implements the minimal mzML reader named in spec
// section 6: a per-spectrum view of mode, polarity, MS level,
// retention time and the parallel (m/z, intensity) arrays, sufficient
// to drive the pipeline end to end. Full mzML controlled-vocabulary
// validation is out of scope -- only the handful of CV terms the
// pipeline actually consumes are recognized.
package mzml

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
)

// Polarity is the scan polarity of a spectrum.
type Polarity int

const (
	PolarityUnknown Polarity = iota
	Positive
	Negative
)

// Mode is whether a spectrum has already been centroided by the
// instrument/vendor software, or is raw profile data.
type Mode int

const (
	ModeUnknown Mode = iota
	Profile
	CentroidMode
)

// Spectrum is one scan's worth of data, as required by the
// raw-spectrum reader interface of spec section 6.
type Spectrum struct {
	Index     int
	MSLevel   int
	Mode      Mode
	Polarity  Polarity
	RT        float64 // seconds
	MZ        []float64
	Intensity []float64
}

// Reader streams spectra out of one mzML file.
type Reader struct {
	f       *os.File
	dec     *xml.Decoder
	scanNum int
}

// Open opens path and positions the reader at the start of its
// <spectrumList>.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mzml: open %s: %w", path, err)
	}
	dec := xml.NewDecoder(f)
	// ISO-8859-1 bytes map one-to-one onto the first 256 code points;
	// such a document is converted to UTF-8 in memory before decoding.
	dec.CharsetReader = func(label string, input io.Reader) (io.Reader, error) {
		if !strings.EqualFold(label, "ISO-8859-1") && !strings.EqualFold(label, "latin1") {
			return nil, fmt.Errorf("mzml: unsupported encoding %q", label)
		}
		raw, err := io.ReadAll(input)
		if err != nil {
			return nil, err
		}
		var sb strings.Builder
		sb.Grow(len(raw))
		for _, b := range raw {
			sb.WriteRune(rune(b))
		}
		return strings.NewReader(sb.String()), nil
	}
	return &Reader{f: f, dec: dec}, nil
}

// Close releases the underlying file handle.
func (r *Reader) Close() error { return r.f.Close() }

// xmlSpectrum mirrors the subset of the mzML <spectrum> element this
// reader understands.
type xmlSpectrum struct {
	XMLName            xml.Name       `xml:"spectrum"`
	Index               int           `xml:"index,attr"`
	CVParams            []xmlCVParam  `xml:"cvParam"`
	ScanList            xmlScanList   `xml:"scanList"`
	BinaryDataArrayList []xmlBDA      `xml:"binaryDataArrayList>binaryDataArray"`
}

type xmlCVParam struct {
	Accession string `xml:"accession,attr"`
	Value     string `xml:"value,attr"`
}

type xmlScanList struct {
	Scans []xmlScan `xml:"scan"`
}

type xmlScan struct {
	CVParams []xmlCVParam `xml:"cvParam"`
}

type xmlBDA struct {
	CVParams   []xmlCVParam `xml:"cvParam"`
	Binary     string       `xml:"binary"`
}

const (
	accMSLevel       = "MS:1000511"
	accPositiveScan  = "MS:1000130"
	accNegativeScan  = "MS:1000129"
	accCentroidSpec  = "MS:1000127"
	accProfileSpec   = "MS:1000128"
	accScanStartTime = "MS:1000016"
	accMZArray       = "MS:1000514"
	accIntensityArr  = "MS:1000515"
	acc64BitFloat    = "MS:1000523"
	acc32BitFloat    = "MS:1000521"
	accZlibCompress  = "MS:1000574"
	accNoCompress    = "MS:1000576"
)

func cvValue(params []xmlCVParam, accession string) (string, bool) {
	for _, p := range params {
		if p.Accession == accession {
			return p.Value, true
		}
	}
	return "", false
}

func hasCV(params []xmlCVParam, accession string) bool {
	_, ok := cvValue(params, accession)
	return ok
}

// Next reads and decodes the next spectrum, returning io.EOF when the
// file is exhausted.
func (r *Reader) Next() (*Spectrum, error) {
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return nil, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "spectrum" {
			continue
		}

		var xs xmlSpectrum
		if err := r.dec.DecodeElement(&xs, &se); err != nil {
			return nil, fmt.Errorf("mzml: decode spectrum: %w", err)
		}
		return toSpectrum(&xs)
	}
}

func toSpectrum(xs *xmlSpectrum) (*Spectrum, error) {
	s := &Spectrum{Index: xs.Index}

	if v, ok := cvValue(xs.CVParams, accMSLevel); ok {
		fmt.Sscanf(v, "%d", &s.MSLevel)
	}
	switch {
	case hasCV(xs.CVParams, accCentroidSpec):
		s.Mode = CentroidMode
	case hasCV(xs.CVParams, accProfileSpec):
		s.Mode = Profile
	}
	switch {
	case hasCV(xs.CVParams, accPositiveScan):
		s.Polarity = Positive
	case hasCV(xs.CVParams, accNegativeScan):
		s.Polarity = Negative
	}

	for _, scan := range xs.ScanList.Scans {
		if v, ok := cvValue(scan.CVParams, accScanStartTime); ok {
			var rt float64
			fmt.Sscanf(v, "%g", &rt)
			s.RT = rt
			break
		}
	}

	for _, bda := range xs.BinaryDataArrayList {
		values, err := decodeBinary(bda)
		if err != nil {
			return nil, fmt.Errorf("mzml: spectrum %d: %w", xs.Index, err)
		}
		switch {
		case hasCV(bda.CVParams, accMZArray):
			s.MZ = values
		case hasCV(bda.CVParams, accIntensityArr):
			s.Intensity = values
		}
	}

	if len(s.MZ) != len(s.Intensity) {
		return nil, fmt.Errorf("mzml: spectrum %d: mz/intensity length mismatch %d/%d", xs.Index, len(s.MZ), len(s.Intensity))
	}
	return s, nil
}

// decodeBinary turns one <binaryDataArray> into a float64 slice,
// handling the zlib + base64 + 32/64-bit-float encodings mzML uses.
func decodeBinary(bda xmlBDA) ([]float64, error) {
	raw, err := base64.StdEncoding.DecodeString(bda.Binary)
	if err != nil {
		return nil, fmt.Errorf("base64 decode: %w", err)
	}
	if hasCV(bda.CVParams, accZlibCompress) {
		zr, err := zlib.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("zlib open: %w", err)
		}
		defer zr.Close()
		raw, err = io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("zlib read: %w", err)
		}
	}

	is64 := hasCV(bda.CVParams, acc64BitFloat) || !hasCV(bda.CVParams, acc32BitFloat)
	width := 4
	if is64 {
		width = 8
	}
	if len(raw)%width != 0 {
		return nil, fmt.Errorf("binary length %d not a multiple of %d", len(raw), width)
	}

	n := len(raw) / width
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		chunk := raw[i*width : (i+1)*width]
		if is64 {
			bits := binary.LittleEndian.Uint64(chunk)
			out[i] = math.Float64frombits(bits)
		} else {
			bits := binary.LittleEndian.Uint32(chunk)
			out[i] = float64(math.Float32frombits(bits))
		}
	}
	return out, nil
}

// ReadAll reads every spectrum in the file.
func ReadAll(path string) ([]*Spectrum, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var all []*Spectrum
	for {
		s, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		all = append(all, s)
	}
	return all, nil
}
