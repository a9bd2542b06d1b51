package mzml

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func encodeFloat64LE(vals []float64) string {
	buf := new(bytes.Buffer)
	for _, v := range vals {
		binary.Write(buf, binary.LittleEndian, math.Float64bits(v))
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func writeMinimalMzML(t *testing.T, mz, intensity []float64) string {
	t.Helper()
	mzB64 := encodeFloat64LE(mz)
	intB64 := encodeFloat64LE(intensity)
	doc := `<?xml version="1.0" encoding="ISO-8859-1"?>
<mzML>
  <run>
    <spectrumList count="1">
      <spectrum index="0" id="scan=1">
        <cvParam accession="MS:1000511" value="1"/>
        <cvParam accession="MS:1000127" value=""/>
        <cvParam accession="MS:1000130" value=""/>
        <scanList>
          <scan>
            <cvParam accession="MS:1000016" value="12.5"/>
          </scan>
        </scanList>
        <binaryDataArrayList count="2">
          <binaryDataArray>
            <cvParam accession="MS:1000514" value=""/>
            <cvParam accession="MS:1000523" value=""/>
            <binary>` + mzB64 + `</binary>
          </binaryDataArray>
          <binaryDataArray>
            <cvParam accession="MS:1000515" value=""/>
            <cvParam accession="MS:1000523" value=""/>
            <binary>` + intB64 + `</binary>
          </binaryDataArray>
        </binaryDataArrayList>
      </spectrum>
    </spectrumList>
  </run>
</mzML>`

	dir := t.TempDir()
	path := filepath.Join(dir, "sample.mzML")
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatalf("failed to write fixture mzML: %v", err)
	}
	return path
}

func TestReadAllParsesSpectrum(t *testing.T) {
	mz := []float64{100.1, 100.2, 100.3}
	intensity := []float64{10, 200, 15}
	path := writeMinimalMzML(t, mz, intensity)

	spectra, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll returned error: %v", err)
	}
	if len(spectra) != 1 {
		t.Fatalf("expected 1 spectrum, got %d", len(spectra))
	}
	s := spectra[0]
	if s.MSLevel != 1 {
		t.Errorf("MSLevel = %d, want 1", s.MSLevel)
	}
	if s.Mode != CentroidMode {
		t.Errorf("Mode = %v, want CentroidMode", s.Mode)
	}
	if s.Polarity != Positive {
		t.Errorf("Polarity = %v, want Positive", s.Polarity)
	}
	if s.RT != 12.5 {
		t.Errorf("RT = %v, want 12.5", s.RT)
	}
	if len(s.MZ) != 3 || len(s.Intensity) != 3 {
		t.Fatalf("expected 3 mz/intensity values, got %d/%d", len(s.MZ), len(s.Intensity))
	}
	for i := range mz {
		if math.Abs(s.MZ[i]-mz[i]) > 1e-9 {
			t.Errorf("MZ[%d] = %v, want %v", i, s.MZ[i], mz[i])
		}
		if math.Abs(s.Intensity[i]-intensity[i]) > 1e-9 {
			t.Errorf("Intensity[%d] = %v, want %v", i, s.Intensity[i], intensity[i])
		}
	}
}

func TestReadAllMismatchedArraysErrors(t *testing.T) {
	path := writeMinimalMzML(t, []float64{1, 2, 3}, []float64{1, 2})
	if _, err := ReadAll(path); err == nil {
		t.Fatal("expected error for mismatched mz/intensity array lengths")
	}
}

func TestOpenMissingFile(t *testing.T) {
	if _, err := Open("/nonexistent/path/does-not-exist.mzML"); err == nil {
		t.Fatal("expected error opening a nonexistent file")
	}
}
