// Package fixtures generates deterministic synthetic WAV audio for tests
// across the onset, classifier, and beatmap packages, adapted from the
// teacher's internal/fixtures/generator.go click-track/pink-noise/WAV-
// writer machinery. The DJ-specific phrase/harmonic-set/chord/club-noise
// generators are replaced with drum-hit pattern generators that exercise
// onset detection and component classification instead of key/tempo
// matching.
package fixtures

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// Config controls which fixtures are emitted.
type Config struct {
	OutputDir  string
	SampleRate int
	Seed       int64

	BPMLadder []float64 // click tracks for tempo-estimation tests

	IncludeDrumPattern   bool
	DrumPatternBPM       float64
	IncludeSilenceLeadIn bool // drum pattern preceded by several seconds of silence
	IncludePinkNoiseBed  bool // sustained noise with no discrete onsets
}

// Manifest describes generated fixtures for tests/consumers.
type Manifest struct {
	SampleRate int               `json:"sample_rate"`
	Seed       int64             `json:"seed"`
	Fixtures   []ManifestFixture `json:"fixtures"`
}

type ManifestFixture struct {
	File        string    `json:"file"`
	Type        string    `json:"type"`
	BPM         float64   `json:"bpm,omitempty"`
	DurationSec float64   `json:"duration_sec"`
	HitTimes    []float64 `json:"hit_times,omitempty"`
	Components  []string  `json:"components,omitempty"`
	LeadInSec   float64   `json:"lead_in_sec,omitempty"`
}

// Generate writes WAV fixtures and a manifest.json into OutputDir.
func Generate(cfg Config) (*Manifest, error) {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 44100
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./testdata/audio"
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("beatsight: mkdir fixture output: %w", err)
	}

	manifest := &Manifest{SampleRate: cfg.SampleRate, Seed: cfg.Seed}

	for _, bpm := range cfg.BPMLadder {
		filename := fmt.Sprintf("click_%dbpm.wav", int(bpm))
		path := filepath.Join(cfg.OutputDir, filename)
		durationSec := renderClickTrack(path, cfg.SampleRate, bpm, 32, 1.0)
		manifest.Fixtures = append(manifest.Fixtures, ManifestFixture{
			File: filename, Type: "click", BPM: bpm, DurationSec: durationSec,
		})
	}

	if cfg.IncludeDrumPattern {
		bpm := cfg.DrumPatternBPM
		if bpm == 0 {
			bpm = 120
		}
		leadIn := 0.0
		if cfg.IncludeSilenceLeadIn {
			leadIn = 3.0
		}
		filename := "drum_pattern.wav"
		path := filepath.Join(cfg.OutputDir, filename)
		durationSec, hitTimes, components := renderDrumPattern(path, cfg.SampleRate, bpm, leadIn)
		manifest.Fixtures = append(manifest.Fixtures, ManifestFixture{
			File: filename, Type: "drum_pattern", BPM: bpm,
			DurationSec: durationSec, HitTimes: hitTimes, Components: components,
			LeadInSec: leadIn,
		})
	}

	if cfg.IncludePinkNoiseBed {
		filename := "pink_noise_bed.wav"
		path := filepath.Join(cfg.OutputDir, filename)
		durationSec := renderPinkNoise(path, cfg.SampleRate, cfg.Seed)
		manifest.Fixtures = append(manifest.Fixtures, ManifestFixture{
			File: filename, Type: "pink_noise_bed", DurationSec: durationSec,
		})
	}

	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("beatsight: marshal fixture manifest: %w", err)
	}
	if err := os.WriteFile(manifestPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("beatsight: write fixture manifest: %w", err)
	}
	return manifest, nil
}

// renderClickTrack writes a mono WAV with short exponential-decay clicks on
// every beat, used to exercise tempo estimation against a known BPM.
func renderClickTrack(path string, sampleRate int, bpm float64, beats int, amplitude float64) float64 {
	secondsPerBeat := 60.0 / bpm
	totalDuration := secondsPerBeat * float64(beats)
	samples := int(totalDuration * float64(sampleRate))
	data := make([]float64, samples)

	clickLen := int(0.01 * float64(sampleRate))
	for i := 0; i < beats; i++ {
		offset := int(secondsPerBeat * float64(i) * float64(sampleRate))
		for j := 0; j < clickLen && offset+j < len(data); j++ {
			data[offset+j] += amplitude * math.Exp(-4*float64(j)/float64(clickLen))
		}
	}

	writeWAV(path, data, sampleRate)
	return totalDuration
}

// renderDrumPattern synthesizes a simple kick/snare/hihat loop at bpm,
// preceded by leadInSec of silence, and returns the ground-truth hit times
// and component labels for test assertions.
func renderDrumPattern(path string, sampleRate int, bpm, leadInSec float64) (float64, []float64, []string) {
	secondsPerBeat := 60.0 / bpm
	measures := 8
	beatsPerMeasure := 4
	totalBeats := measures * beatsPerMeasure
	totalDuration := leadInSec + secondsPerBeat*float64(totalBeats)
	totalSamples := int(totalDuration * float64(sampleRate))
	data := make([]float64, totalSamples)

	var hitTimes []float64
	var components []string

	rng := newLCG(1)
	place := func(t float64, component string) {
		sample := int(t * float64(sampleRate))
		switch component {
		case "kick":
			addKick(data, sample, sampleRate, 0.9)
		case "snare":
			addSnare(data, sample, sampleRate, 0.8, rng)
		case "hihat_closed":
			addHiHat(data, sample, sampleRate, 0.5, rng)
		case "crash":
			addCrash(data, sample, sampleRate, 0.85, rng)
		}
		hitTimes = append(hitTimes, t)
		components = append(components, component)
	}

	for beat := 0; beat < totalBeats; beat++ {
		t := leadInSec + secondsPerBeat*float64(beat)
		pos := beat % beatsPerMeasure
		if beat == 0 {
			place(t, "crash")
			continue
		}
		switch pos {
		case 0, 2:
			place(t, "kick")
		case 1, 3:
			place(t, "snare")
		}
		place(t+secondsPerBeat/2, "hihat_closed")
	}

	writeWAV(path, data, sampleRate)
	return totalDuration, hitTimes, components
}

func addKick(data []float64, at, sampleRate int, amp float64) {
	length := int(0.15 * float64(sampleRate))
	for i := 0; i < length && at+i < len(data) && at+i >= 0; i++ {
		t := float64(i) / float64(sampleRate)
		freq := 60.0 * math.Exp(-15*t)
		data[at+i] += amp * math.Exp(-10*t) * math.Sin(2*math.Pi*freq*t)
	}
}

func addSnare(data []float64, at, sampleRate int, amp float64, rng *lcg) {
	length := int(0.12 * float64(sampleRate))
	for i := 0; i < length && at+i < len(data) && at+i >= 0; i++ {
		t := float64(i) / float64(sampleRate)
		tone := math.Sin(2 * math.Pi * 180 * t)
		noise := rng.next()*2 - 1
		data[at+i] += amp * math.Exp(-18*t) * (0.4*tone + 0.6*noise)
	}
}

func addHiHat(data []float64, at, sampleRate int, amp float64, rng *lcg) {
	length := int(0.04 * float64(sampleRate))
	var hp float64
	for i := 0; i < length && at+i < len(data) && at+i >= 0; i++ {
		t := float64(i) / float64(sampleRate)
		noise := rng.next()*2 - 1
		hp = 0.7*hp + 0.7*(noise-hp)
		data[at+i] += amp * math.Exp(-60*t) * hp
	}
}

func addCrash(data []float64, at, sampleRate int, amp float64, rng *lcg) {
	length := int(0.6 * float64(sampleRate))
	var hp float64
	for i := 0; i < length && at+i < len(data) && at+i >= 0; i++ {
		t := float64(i) / float64(sampleRate)
		noise := rng.next()*2 - 1
		hp = 0.9*hp + 0.9*(noise-hp)
		data[at+i] += amp * math.Exp(-3*t) * hp
	}
}

// renderPinkNoise writes a sustained pink-noise bed with no discrete
// transients, used to assert onset detection returns nothing spurious.
func renderPinkNoise(path string, sampleRate int, seed int64) float64 {
	durationSec := 10.0
	totalSamples := int(durationSec * float64(sampleRate))
	data := make([]float64, totalSamples)

	rng := newLCG(seed)
	var b [7]float64
	for i := 0; i < totalSamples; i++ {
		white := rng.next()*2 - 1
		b[0] = 0.99886*b[0] + white*0.0555179
		b[1] = 0.99332*b[1] + white*0.0750759
		b[2] = 0.96900*b[2] + white*0.1538520
		b[3] = 0.86650*b[3] + white*0.3104856
		b[4] = 0.55000*b[4] + white*0.5329522
		b[5] = -0.7616*b[5] - white*0.0168980
		pink := b[0] + b[1] + b[2] + b[3] + b[4] + b[5] + b[6] + white*0.5362
		b[6] = white * 0.115926
		data[i] = pink * 0.1
	}

	fadeSamples := int(0.2 * float64(sampleRate))
	for i := 0; i < fadeSamples; i++ {
		gain := float64(i) / float64(fadeSamples)
		data[i] *= gain
		data[totalSamples-1-i] *= gain
	}

	writeWAV(path, data, sampleRate)
	return durationSec
}

type lcg struct{ state uint64 }

func newLCG(seed int64) *lcg { return &lcg{state: uint64(seed) + 1} }

func (l *lcg) next() float64 {
	l.state = l.state*6364136223846793005 + 1442695040888963407
	return float64(l.state>>33) / float64(1<<31)
}

// writeWAV writes mono 16-bit PCM WAV.
func writeWAV(path string, samples []float64, sampleRate int) {
	buf := make([]int16, len(samples))
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		buf[i] = int16(s * 32767)
	}

	byteRate := sampleRate * 2
	blockAlign := int16(2)
	bitsPerSample := int16(16)
	dataSize := len(buf) * 2
	riffSize := 36 + dataSize

	f, err := os.Create(path)
	if err != nil {
		panic(err)
	}
	defer f.Close()

	f.Write([]byte("RIFF"))
	binary.Write(f, binary.LittleEndian, uint32(riffSize))
	f.Write([]byte("WAVE"))
	f.Write([]byte("fmt "))
	binary.Write(f, binary.LittleEndian, uint32(16))
	binary.Write(f, binary.LittleEndian, uint16(1))
	binary.Write(f, binary.LittleEndian, uint16(1))
	binary.Write(f, binary.LittleEndian, uint32(sampleRate))
	binary.Write(f, binary.LittleEndian, uint32(byteRate))
	binary.Write(f, binary.LittleEndian, blockAlign)
	binary.Write(f, binary.LittleEndian, bitsPerSample)
	f.Write([]byte("data"))
	binary.Write(f, binary.LittleEndian, uint32(dataSize))
	for _, v := range buf {
		binary.Write(f, binary.LittleEndian, v)
	}
}
