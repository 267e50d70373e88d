package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/Eyevinn/renditionsync/internal"
)

const (
	defaultOutputDir = "output"
	defaultLanguage  = "und"
)

func main() {
	outputDir := flag.String("out", defaultOutputDir, "output directory")
	lang := flag.String("lang", "", "language of all inputs (default taken from file name, e.g. talk.en.vtt)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "cuegen converts WebVTT/SRT caption files into WVTT CMAF caption files.\n\n")
		fmt.Fprintf(os.Stderr, "Usage: cuegen [options] <file or dir>...\n\noptions:\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	inputs, err := collectInputs(flag.Args())
	if err != nil {
		log.Fatalf("Failed to collect inputs: %v", err)
	}
	for _, in := range inputs {
		l := *lang
		if l == "" {
			l = languageFromName(in)
		}
		out, nrCues, err := convert(in, *outputDir, l)
		if err != nil {
			log.Fatalf("Failed to convert %s: %v", in, err)
		}
		fmt.Printf("%s -> %s (%d cues, lang=%s)\n", in, out, nrCues, l)
	}
	fmt.Printf("Converted %d caption files\n", len(inputs))
}

func collectInputs(args []string) ([]string, error) {
	var inputs []string
	for _, arg := range args {
		fi, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !fi.IsDir() {
			inputs = append(inputs, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			ext := strings.ToLower(filepath.Ext(e.Name()))
			if !e.IsDir() && (ext == ".vtt" || ext == ".srt") {
				inputs = append(inputs, filepath.Join(arg, e.Name()))
			}
		}
	}
	return inputs, nil
}

func convert(in, outputDir, lang string) (string, int, error) {
	data, err := os.ReadFile(in)
	if err != nil {
		return "", 0, err
	}
	cues, err := internal.ParseCues(data, in)
	if err != nil {
		return "", 0, err
	}
	seg, err := internal.EncodeWvtt(cues, lang)
	if err != nil {
		return "", 0, err
	}
	base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	out := filepath.Join(outputDir, base+".cmft")
	if err := os.WriteFile(out, seg, 0644); err != nil {
		return "", 0, err
	}
	return out, len(cues), nil
}

// languageFromName reads the language from names like lecture.en.vtt.
func languageFromName(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if i := strings.LastIndex(base, "."); i >= 0 && i < len(base)-1 {
		return base[i+1:]
	}
	return defaultLanguage
}
