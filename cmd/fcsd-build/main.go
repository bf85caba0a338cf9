package main

import (
	"bufio"
	"flag"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rpcpool/fcsd"
	"k8s.io/klog/v2"
)

const maxLineSize = 1024 * 1024

func main() {
	var inPath string
	var outPath string
	var bucketSize uint64
	flag.StringVar(&inPath, "in", "", "Path to the key file: one key per line, sorted (LC_ALL=C), unique, no NUL bytes")
	flag.StringVar(&outPath, "out", "", "Path to the dictionary file to create")
	flag.Uint64Var(&bucketSize, "bucket-size", fcsd.DefaultBucketSize, "Bucket size (power of two)")
	flag.Parse()
	if inPath == "" || outPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	started := time.Now()

	in, err := os.Open(inPath)
	if err != nil {
		klog.Exitf("Failed to open key file: %s", err)
	}
	defer in.Close()

	builder, err := fcsd.NewBuilder(bucketSize)
	if err != nil {
		klog.Exitf("Failed to create builder: %s", err)
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, maxLineSize), maxLineSize)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := builder.Add(line); err != nil {
			klog.Exitf("Failed to add key %d: %s", builder.Len(), err)
		}
		if n := builder.Len(); n%1_000_000 == 0 {
			klog.Infof("Added %s keys...", humanize.Comma(int64(n)))
		}
	}
	if err := scanner.Err(); err != nil {
		klog.Exitf("Failed to read key file: %s", err)
	}

	dict, err := builder.Seal()
	if err != nil {
		klog.Exitf("Failed to seal dictionary: %s", err)
	}

	out, err := os.Create(outPath)
	if err != nil {
		klog.Exitf("Failed to create dictionary file: %s", err)
	}
	wrote, err := dict.WriteTo(out)
	if err != nil {
		klog.Exitf("Failed to write dictionary: %s", err)
	}
	if err := out.Sync(); err != nil {
		klog.Exitf("Failed to sync dictionary file: %s", err)
	}
	if err := out.Close(); err != nil {
		klog.Exitf("Failed to close dictionary file: %s", err)
	}

	klog.Infof(
		"Wrote %s keys in %d buckets to %s (%s, checksum %016x) in %s",
		humanize.Comma(int64(dict.Len())),
		dict.NumBuckets(),
		outPath,
		humanize.Bytes(uint64(wrote)),
		dict.Checksum(),
		time.Since(started),
	)
}
