// Command beatsight-verify checks a run's checksum manifest against the
// artifacts on disk, adapted from the teacher's cmd/exportverify.
package main

import (
	"flag"
	"log"
	"path/filepath"

	"github.com/rosacry/beatsight/internal/exporter"
)

func main() {
	manifest := flag.String("manifest", "", "path to checksums txt (e.g., beatmap-checksums.txt)")
	dir := flag.String("dir", "", "directory containing artifacts (defaults to manifest dir)")
	flag.Parse()

	if *manifest == "" {
		log.Fatal("manifest path required")
	}

	base := *dir
	if base == "" {
		base = filepath.Dir(*manifest)
	}

	if err := exporter.VerifyChecksums(*manifest, base); err != nil {
		log.Fatalf("verify failed: %v", err)
	}

	log.Printf("checksums OK for manifest %s", *manifest)
}
