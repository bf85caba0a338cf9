package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/rpcpool/fcsd"
	"k8s.io/klog/v2"
)

func main() {
	var indexPath string
	var prefix string
	var locate string
	var decode int64
	var dumpKeys bool
	flag.StringVar(&indexPath, "index", "", "Path to the dictionary file")
	flag.StringVar(&prefix, "prefix", "", "Print all keys beginning with this prefix")
	flag.StringVar(&locate, "locate", "", "Print the index of this key")
	flag.Int64Var(&decode, "decode", -1, "Print the key stored at this index")
	flag.BoolVar(&dumpKeys, "keys", false, "Print every (index, key) pair")
	flag.Parse()
	if indexPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	f, err := os.Open(indexPath)
	if err != nil {
		klog.Exitf("Failed to open dictionary file: %s", err)
	}
	defer f.Close()

	dict, err := fcsd.Read(bufio.NewReaderSize(f, 1024*1024))
	if err != nil {
		klog.Exitf("Failed to load dictionary: %s", err)
	}

	switch {
	case locate != "":
		index, ok := dict.Locate([]byte(locate))
		if !ok {
			klog.Exitf("Key %q is not in the dictionary", locate)
		}
		fmt.Println(index)
	case decode >= 0:
		key, ok := dict.Decode(uint64(decode))
		if !ok {
			klog.Exitf("Index %d is out of range (%d keys)", decode, dict.Len())
		}
		fmt.Printf("%s\n", key)
	case dumpKeys || prefix != "":
		var it *fcsd.Iter
		if prefix != "" {
			it = dict.PrefixIter([]byte(prefix))
		} else {
			it = dict.Iter()
		}
		w := bufio.NewWriter(os.Stdout)
		defer w.Flush()
		for {
			index, key, err := it.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				klog.Exitf("Failed to iterate: %s", err)
			}
			fmt.Fprintf(w, "%d\t%s\n", index, key)
		}
	default:
		fmt.Printf("keys:          %d\n", dict.Len())
		fmt.Printf("bucket size:   %d\n", dict.BucketSize())
		fmt.Printf("buckets:       %d\n", dict.NumBuckets())
		fmt.Printf("size:          %d (%s)\n", dict.SizeInBytes(), humanize.Bytes(dict.SizeInBytes()))
		fmt.Printf("checksum:      %016x\n", dict.Checksum())
	}
}
